package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studylog-backend/internal/models"
)

// minutes in a week; the upper bound for a weekly target
const maxWeeklyTargetMinutes = 7 * 24 * 60

// GoalStore persists per-user weekly study targets.
type GoalStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.StudyGoal, error)
	Upsert(ctx context.Context, goal *models.StudyGoal) error
}

// GoalService tracks weekly study-time goals. Progress is derived from the
// session store for the current Monday-through-Sunday week.
type GoalService struct {
	goals         GoalStore
	sessions      SessionStore
	defaultTarget int
	now           func() time.Time
}

func NewGoalService(goals GoalStore, sessions SessionStore, defaultTargetMinutes int) *GoalService {
	if defaultTargetMinutes <= 0 {
		defaultTargetMinutes = 300
	}
	return &GoalService{
		goals:         goals,
		sessions:      sessions,
		defaultTarget: defaultTargetMinutes,
		now:           time.Now,
	}
}

// Get returns the user's goal, falling back to the configured default target
// when none has been set.
func (s *GoalService) Get(ctx context.Context, userID uuid.UUID) (*models.StudyGoal, error) {
	goal, err := s.goals.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.StudyGoal{UserID: userID, WeeklyTargetMinutes: s.defaultTarget}, nil
		}
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) SetWeeklyGoal(ctx context.Context, userID uuid.UUID, targetMinutes int) (*models.StudyGoal, error) {
	if targetMinutes < 1 || targetMinutes > maxWeeklyTargetMinutes {
		return nil, &ValidationError{Fields: map[string]string{
			"target_minutes": fmt.Sprintf("Must be between 1 and %d", maxWeeklyTargetMinutes),
		}}
	}

	goal := &models.StudyGoal{UserID: userID, WeeklyTargetMinutes: targetMinutes}
	if err := s.goals.Upsert(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to save goal: %w", err)
	}
	return goal, nil
}

// Progress sums session minutes from this week's Monday through today and
// compares them to the target.
func (s *GoalService) Progress(ctx context.Context, userID uuid.UUID) (*models.GoalProgress, error) {
	goal, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := dateOf(s.now())
	weekStart := startOfWeek(today)

	sessions, err := s.sessions.ListRange(ctx, userID, &weekStart, &today)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	minutes := 0
	for i := range sessions {
		minutes += sessions[i].DurationMinutes
	}

	progress := &models.GoalProgress{
		TargetMinutes:  goal.WeeklyTargetMinutes,
		MinutesStudied: minutes,
		WeekStart:      weekStart,
		Achieved:       minutes >= goal.WeeklyTargetMinutes,
	}
	if goal.WeeklyTargetMinutes > 0 {
		progress.PercentDone = round2(float64(minutes) / float64(goal.WeeklyTargetMinutes) * 100)
		if progress.PercentDone > 100 {
			progress.PercentDone = 100
		}
	}
	return progress, nil
}

// startOfWeek returns the Monday of day's week.
func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
