package generator

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is used when a request names no language.
const DefaultLanguage = "English"

// NormalizeLanguage turns a BCP 47 tag ("ms", "en-GB") into its English name and title-cases
// anything else, so prompts and stored quizzes carry a readable language name.
func NormalizeLanguage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLanguage
	}
	if tag, err := language.Parse(s); err == nil {
		if name := display.English.Tags().Name(tag); name != "" {
			return name
		}
	}
	return cases.Title(language.English).String(strings.ToLower(s))
}
