package generator

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "English"},
		{"   ", "English"},
		{"en", "English"},
		{"ms", "Malay"},
		{"zh", "Chinese"},
		{"bahasa melayu", "Bahasa Melayu"},
		{"ENGLISH", "English"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeLanguage(tt.in); got != tt.want {
				t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
