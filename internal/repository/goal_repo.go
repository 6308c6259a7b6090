package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studylog-backend/internal/models"
)

type GoalRepo struct {
	pool *pgxpool.Pool
}

func NewGoalRepo(pool *pgxpool.Pool) *GoalRepo {
	return &GoalRepo{pool: pool}
}

func (r *GoalRepo) Get(ctx context.Context, userID uuid.UUID) (*models.StudyGoal, error) {
	goal := &models.StudyGoal{}
	query := `SELECT user_id, weekly_target_minutes, updated_at FROM study_goals WHERE user_id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&goal.UserID, &goal.WeeklyTargetMinutes, &goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (r *GoalRepo) Upsert(ctx context.Context, goal *models.StudyGoal) error {
	query := `
		INSERT INTO study_goals (user_id, weekly_target_minutes, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET weekly_target_minutes = EXCLUDED.weekly_target_minutes,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, goal.UserID, goal.WeeklyTargetMinutes).Scan(&goal.UpdatedAt)
}
