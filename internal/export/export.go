// Package export renders quiz reports and class rosters as XLSX workbooks for teachers to
// download.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/classroom"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/scoring"
)

// ContentType is the media type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	ResultsSheet   = "Results"
	QuestionsSheet = "Questions"
	RosterSheet    = "Students"
)

// QuizResults writes one row per assigned student and a per-question breakdown.
func QuizResults(w io.Writer, report classroom.QuizReport) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{{"Student", "Score", "Total", "Percentage", "Band", "Completed At"}}
	for _, s := range report.Students {
		if s.Result == nil {
			rows = append(rows, []any{s.Name, "", len(report.Quiz.Questions), "", "", "Not completed"})
			continue
		}
		rows = append(rows, []any{
			s.Name, s.Result.Score, s.Result.TotalQuestions, s.Percentage, s.Band,
			s.Result.CompletedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeSheet(f, "Sheet1", ResultsSheet, rows, []float64{28, 10, 10, 12, 10, 24}); err != nil {
		return err
	}

	if _, err := f.NewSheet(QuestionsSheet); err != nil {
		return fmt.Errorf("add questions sheet: %w", err)
	}
	if err := writeSheet(f, QuestionsSheet, QuestionsSheet, questionRows(report), []float64{6, 60, 28, 12, 12}); err != nil {
		return err
	}

	return write(f, w)
}

func questionRows(report classroom.QuizReport) [][]any {
	rows := [][]any{{"#", "Question", "Correct Answer", "Correct", "Correct %"}}
	completed := 0
	for _, s := range report.Students {
		if s.Result != nil {
			completed++
		}
	}
	for i, q := range report.Quiz.Questions {
		correct := 0
		for _, s := range report.Students {
			if s.Result != nil && s.Result.Answers[q.ID] == q.CorrectOptionIndex {
				correct++
			}
		}
		pct := 0
		if completed > 0 {
			pct = (200*correct + completed) / (2 * completed)
		}
		rows = append(rows, []any{i + 1, q.Question, answerText(q), correct, pct})
	}
	return rows
}

func answerText(q quiz.QuizQuestion) string {
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return ""
	}
	return fmt.Sprintf("%c. %s", 'A'+rune(q.CorrectOptionIndex), q.Options[q.CorrectOptionIndex])
}

// Roster writes the teacher's students with their overall percentage and band, followed by
// the class figures.
func Roster(w io.Writer, roster scoring.RosterStats) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{{"Student", "Assigned", "Completed", "Percentage", "Band"}}
	for _, s := range roster.Students {
		rows = append(rows, []any{s.Name, s.Assigned, s.Completed, s.Percentage, s.Band})
	}
	rows = append(rows,
		[]any{},
		[]any{"Class average", "", "", roster.Class.Average},
		[]any{"Highest", "", "", roster.Class.Max},
		[]any{"Completion rate", "", "", roster.Class.CompletionRate},
	)
	if err := writeSheet(f, "Sheet1", RosterSheet, rows, []float64{28, 10, 12, 12, 10}); err != nil {
		return err
	}
	return write(f, w)
}

func writeSheet(f *excelize.File, from, to string, rows [][]any, widths []float64) error {
	if from != to {
		if err := f.SetSheetName(from, to); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(to, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", to, i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(to, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(to, col, col, width); err != nil {
			return fmt.Errorf("set width: %w", err)
		}
	}
	return f.SetPanes(to, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func write(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename builds a download name like "matter-check-results.xlsx" from a title.
func Filename(title, suffix string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "export"
	}
	return name + "-" + suffix + ".xlsx"
}
