package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"studylog-backend/internal/models"
)

// streakWindowDays is the trailing window the streak is computed over,
// inclusive of today.
const streakWindowDays = 30

// StatsService is a read-only consumer of the session store: per-user
// rollups, per-day rollups, and the distinct-active-days streak. Every call
// recomputes from stored rows; nothing is cached.
type StatsService struct {
	store SessionStore
	now   func() time.Time
}

func NewStatsService(store SessionStore) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// UserStats aggregates all of the user's sessions, optionally bounded to an
// inclusive [from, to] date range with either bound independently optional.
// Zero matching sessions yields a zero summary, never an error.
func (s *StatsService) UserStats(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*models.StatsSummary, error) {
	sessions, err := s.store.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summary := &models.StatsSummary{}
	scoreSum := 0.0
	scoreCount := 0

	for i := range sessions {
		sess := &sessions[i]
		summary.TotalSessions++
		summary.TotalMinutes += sess.DurationMinutes
		summary.NotesStudied += sess.NotesStudied
		summary.QuizzesTaken += sess.QuizzesTaken

		if sess.AverageScore != nil {
			scoreSum += *sess.AverageScore
			scoreCount++
		}

		if summary.LastSessionDate == nil || sess.SessionDate.After(*summary.LastSessionDate) {
			d := sess.SessionDate
			summary.LastSessionDate = &d
		}
	}

	if summary.TotalSessions > 0 {
		summary.AvgSessionMinutes = round2(float64(summary.TotalMinutes) / float64(summary.TotalSessions))
	}
	if scoreCount > 0 {
		avg := round2(scoreSum / float64(scoreCount))
		summary.AverageScore = &avg
	}
	summary.TotalHours = round2(float64(summary.TotalMinutes) / 60)
	summary.AvgSessionHours = round2(summary.AvgSessionMinutes / 60)

	return summary, nil
}

// DailyStats groups the user's sessions by session_date over the inclusive
// range. Only dates with at least one session appear, ordered ascending;
// callers wanting a dense series zero-fill on their side.
func (s *StatsService) DailyStats(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyStat, error) {
	if to.Before(from) {
		return nil, &ValidationError{Fields: map[string]string{
			"end_date": "Must not be before start_date",
		}}
	}

	sessions, err := s.store.ListRange(ctx, userID, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	byDate := make(map[string]*models.DailyStat)
	for i := range sessions {
		sess := &sessions[i]
		key := sess.SessionDate.Format("2006-01-02")

		stat, ok := byDate[key]
		if !ok {
			stat = &models.DailyStat{Date: sess.SessionDate}
			byDate[key] = stat
		}
		stat.TotalMinutes += sess.DurationMinutes
		stat.SessionCount++
		stat.NotesStudied += sess.NotesStudied
		stat.QuizzesTaken += sess.QuizzesTaken
	}

	stats := make([]models.DailyStat, 0, len(byDate))
	for _, stat := range byDate {
		stat.DailyHours = round2(float64(stat.TotalMinutes) / 60)
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Date.Before(stats[j].Date)
	})
	return stats, nil
}

// Streak counts distinct calendar dates with at least one session in the
// trailing 30 days. This is a distinct-active-days count, not a
// consecutive-run streak, and days_since_last_session is nil when the
// window holds no sessions.
func (s *StatsService) Streak(ctx context.Context, userID uuid.UUID) (*models.StreakInfo, error) {
	today := dateOf(s.now())
	windowStart := today.AddDate(0, 0, -streakWindowDays)

	sessions, err := s.store.ListRange(ctx, userID, &windowStart, &today)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	info := &models.StreakInfo{}
	seen := make(map[string]bool)
	var lastDate time.Time

	for i := range sessions {
		sess := &sessions[i]
		key := sess.SessionDate.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			info.StreakDays++
		}
		if sess.SessionDate.After(lastDate) {
			lastDate = sess.SessionDate
		}
	}

	if !lastDate.IsZero() {
		days := daysBetween(lastDate, today)
		info.DaysSinceLastSession = &days
	}
	return info, nil
}

// daysBetween is the whole-day calendar distance from from to to. Both are
// re-anchored to UTC midnight first: session_date values come back from the
// DATE column at UTC midnight while "today" is local midnight, and
// subtracting across locations (or a DST step) would drop a day.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
