package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyGoal is a per-user weekly study-time target in minutes.
type StudyGoal struct {
	UserID              uuid.UUID `json:"user_id"`
	WeeklyTargetMinutes int       `json:"weekly_target_minutes"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// GoalProgress reports how far along the current week's goal a user is.
// The week runs Monday through Sunday in the deployment's local time.
type GoalProgress struct {
	TargetMinutes  int       `json:"target_minutes"`
	MinutesStudied int       `json:"minutes_studied"`
	PercentDone    float64   `json:"percent_done"`
	Achieved       bool      `json:"achieved"`
	WeekStart      time.Time `json:"week_start"`
}
