package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// 2026-08-26 is a Wednesday; its week starts Monday 2026-08-24.
var goalNow = time.Date(2026, 8, 26, 14, 0, 0, 0, time.Local)

func newTestGoalService(goals GoalStore, sessions SessionStore) *GoalService {
	svc := NewGoalService(goals, sessions, 300)
	svc.now = func() time.Time { return goalNow }
	return svc
}

func TestGoalGet_DefaultWhenUnset(t *testing.T) {
	svc := newTestGoalService(newMemGoalStore(), newMemStore())

	goal, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if goal.WeeklyTargetMinutes != 300 {
		t.Errorf("Expected default target 300, got %d", goal.WeeklyTargetMinutes)
	}
}

func TestSetWeeklyGoal_Validates(t *testing.T) {
	svc := newTestGoalService(newMemGoalStore(), newMemStore())

	for _, target := range []int{0, -10, 10081} {
		if _, err := svc.SetWeeklyGoal(context.Background(), uuid.New(), target); err == nil {
			t.Errorf("Expected validation error for target %d", target)
		}
	}

	goal, err := svc.SetWeeklyGoal(context.Background(), uuid.New(), 600)
	if err != nil {
		t.Fatalf("SetWeeklyGoal failed: %v", err)
	}
	if goal.WeeklyTargetMinutes != 600 {
		t.Errorf("Expected target 600, got %d", goal.WeeklyTargetMinutes)
	}
}

func TestGoalProgress_SumsCurrentWeekOnly(t *testing.T) {
	goals := newMemGoalStore()
	sessions := newMemStore()
	svc := newTestGoalService(goals, sessions)
	userID := uuid.New()

	if _, err := svc.SetWeeklyGoal(context.Background(), userID, 120); err != nil {
		t.Fatalf("SetWeeklyGoal failed: %v", err)
	}

	// This week: Monday and Wednesday.
	seedClosedSession(t, sessions, userID, day(2026, 8, 24), 45, 0, 0, nil)
	seedClosedSession(t, sessions, userID, day(2026, 8, 26), 45, 0, 0, nil)
	// Last week: must not count.
	seedClosedSession(t, sessions, userID, day(2026, 8, 21), 200, 0, 0, nil)

	progress, err := svc.Progress(context.Background(), userID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}

	if !progress.WeekStart.Equal(day(2026, 8, 24)) {
		t.Errorf("Expected week start Monday 2026-08-24, got %v", progress.WeekStart)
	}
	if progress.MinutesStudied != 90 {
		t.Errorf("Expected 90 minutes this week, got %d", progress.MinutesStudied)
	}
	if progress.TargetMinutes != 120 {
		t.Errorf("Expected target 120, got %d", progress.TargetMinutes)
	}
	if progress.PercentDone != 75 {
		t.Errorf("Expected 75%% done, got %v", progress.PercentDone)
	}
	if progress.Achieved {
		t.Error("Expected goal not yet achieved")
	}
}

func TestGoalProgress_CapsPercentAt100(t *testing.T) {
	goals := newMemGoalStore()
	sessions := newMemStore()
	svc := newTestGoalService(goals, sessions)
	userID := uuid.New()

	if _, err := svc.SetWeeklyGoal(context.Background(), userID, 60); err != nil {
		t.Fatalf("SetWeeklyGoal failed: %v", err)
	}
	seedClosedSession(t, sessions, userID, day(2026, 8, 25), 180, 0, 0, nil)

	progress, err := svc.Progress(context.Background(), userID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if progress.PercentDone != 100 {
		t.Errorf("Expected percent capped at 100, got %v", progress.PercentDone)
	}
	if !progress.Achieved {
		t.Error("Expected goal achieved")
	}
}
