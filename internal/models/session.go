package models

import (
	"time"

	"github.com/google/uuid"
)

// FocusLevel is the self-reported concentration level recorded when a
// session is ended.
type FocusLevel string

const (
	FocusLow    FocusLevel = "low"
	FocusMedium FocusLevel = "medium"
	FocusHigh   FocusLevel = "high"
)

func (f FocusLevel) Valid() bool {
	switch f {
	case FocusLow, FocusMedium, FocusHigh:
		return true
	}
	return false
}

// StudySession is one row in study_sessions. A session is "open" while
// duration_minutes is 0; ending it writes the terminal fields exactly once.
type StudySession struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	SessionDate     time.Time   `json:"session_date"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         time.Time   `json:"end_time"`
	DurationMinutes int         `json:"duration_minutes"`
	Activities      ActivitySet `json:"activities"`
	NotesStudied    int         `json:"notes_studied"`
	QuizzesTaken    int         `json:"quizzes_taken"`
	AverageScore    *float64    `json:"average_score,omitempty"`
	FocusLevel      FocusLevel  `json:"focus_level"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Open reports whether the session has not been ended yet.
func (s *StudySession) Open() bool {
	return s.DurationMinutes == 0
}

// StatsSummary is the rollup returned by the stats aggregator. Averages are
// nil (not zero) when no session carries the underlying value.
type StatsSummary struct {
	TotalSessions     int        `json:"total_sessions"`
	TotalMinutes      int        `json:"total_minutes"`
	TotalHours        float64    `json:"total_hours"`
	AvgSessionMinutes float64    `json:"avg_session_minutes"`
	AvgSessionHours   float64    `json:"avg_session_hours"`
	NotesStudied      int        `json:"notes_studied"`
	QuizzesTaken      int        `json:"quizzes_taken"`
	AverageScore      *float64   `json:"average_score"`
	LastSessionDate   *time.Time `json:"last_session_date"`
}

// DailyStat is one per-date rollup entry. Dates without sessions are omitted
// from the series, not zero-filled.
type DailyStat struct {
	Date         time.Time `json:"date"`
	TotalMinutes int       `json:"total_minutes"`
	DailyHours   float64   `json:"daily_hours"`
	SessionCount int       `json:"session_count"`
	NotesStudied int       `json:"notes_studied"`
	QuizzesTaken int       `json:"quizzes_taken"`
}

// StreakInfo counts distinct active days in the trailing 30-day window.
// DaysSinceLastSession is nil when no session falls inside the window.
type StreakInfo struct {
	StreakDays           int  `json:"streak_days"`
	DaysSinceLastSession *int `json:"days_since_last_session"`
}
