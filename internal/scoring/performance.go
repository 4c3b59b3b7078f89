package scoring

import (
	"math"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// ClassStats summarises a class.
type ClassStats struct {
	Average        int `json:"average"`
	Max            int `json:"max"`
	CompletionRate int `json:"completionRate"`
}

// ClassAggregate computes the class average and best score over the given per-student
// percentages, and the share of students that completed at least one quiz.
func ClassAggregate(perStudent []int, completedStudents, totalStudents int) ClassStats {
	var stats ClassStats
	if len(perStudent) > 0 {
		sum := 0
		stats.Max = perStudent[0]
		for _, p := range perStudent {
			sum += p
			if p > stats.Max {
				stats.Max = p
			}
		}
		stats.Average = int(math.Round(float64(sum) / float64(len(perStudent))))
	}
	stats.CompletionRate = percent(completedStudents, totalStudents)
	return stats
}

// StudentStats is one roster row.
type StudentStats struct {
	StudentID  string `json:"studentId"`
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	Completed  int    `json:"completed"`
	Assigned   int    `json:"assigned"`
	Band       string `json:"band"`
}

// RosterStats is the dashboard roll-up for a teacher's students.
type RosterStats struct {
	Students              []StudentStats `json:"students"`
	Class                 ClassStats     `json:"class"`
	TotalAssignedQuizzes  int            `json:"totalAssignedQuizzes"`
	TotalCompletedQuizzes int            `json:"totalCompletedQuizzes"`
}

// ByStudent returns the roster rows keyed by student id.
func (r RosterStats) ByStudent() map[string]StudentStats {
	m := make(map[string]StudentStats, len(r.Students))
	for _, s := range r.Students {
		m[s.StudentID] = s
	}
	return m
}

// Roster rolls the students' completed quizzes up into per-student percentages and class
// figures. Students without a completed quiz count as 0 in the average.
func Roster(students []quiz.Student) RosterStats {
	stats := RosterStats{Students: make([]StudentStats, 0, len(students))}

	var perStudent []int
	completedStudents := 0
	for _, s := range students {
		pct := OverallScore(s.CompletedQuizzes)
		row := StudentStats{
			StudentID:  s.ID,
			Name:       s.Name,
			Percentage: pct,
			Completed:  len(s.CompletedQuizzes),
			Assigned:   len(s.AssignedQuizIDs),
			Band:       PerformanceBand(pct),
		}
		stats.Students = append(stats.Students, row)
		stats.TotalAssignedQuizzes += row.Assigned
		stats.TotalCompletedQuizzes += row.Completed

		perStudent = append(perStudent, pct)
		if row.Completed > 0 {
			completedStudents++
		}
	}

	stats.Class = ClassAggregate(perStudent, completedStudents, len(students))
	return stats
}

const (
	BandGood = "good"
	BandFair = "fair"
	BandPoor = "poor"
)

// PerformanceBand buckets a percentage the way dashboards colour it.
func PerformanceBand(pct int) string {
	switch {
	case pct >= 70:
		return BandGood
	case pct >= 40:
		return BandFair
	default:
		return BandPoor
	}
}
