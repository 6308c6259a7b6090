package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studylog-backend/internal/models"
)

// SessionRepo is the pgx-backed session record store. It holds no business
// rules: open/closed policy, clamping and aggregation live in the services
// layer. Methods that match no owned row report pgx.ErrNoRows.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, user_id, session_date, start_time, end_time, duration_minutes,
	activities, notes_studied, quizzes_taken, average_score, focus_level, created_at`

func (r *SessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	activities, err := json.Marshal(s.Activities)
	if err != nil {
		return fmt.Errorf("failed to encode activities: %w", err)
	}

	query := `
		INSERT INTO study_sessions (user_id, session_date, start_time, end_time, activities, focus_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.pool.QueryRow(ctx, query,
		s.UserID, s.SessionDate, s.StartTime, s.EndTime, activities, s.FocusLevel,
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1`
	return r.scanSession(r.pool.QueryRow(ctx, query, id))
}

// GetOpen returns the most recently started open session for the user,
// regardless of its session_date. Callers decide whether a stale open row
// still counts as active.
func (r *SessionRepo) GetOpen(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND duration_minutes = 0
		ORDER BY start_time DESC
		LIMIT 1
	`
	return r.scanSession(r.pool.QueryRow(ctx, query, userID))
}

// CloseSession writes the terminal fields of an open session. The
// duration_minutes = 0 guard makes the write conditional: a session that has
// already been ended is never re-ended, and the call reports pgx.ErrNoRows.
func (r *SessionRepo) CloseSession(ctx context.Context, s *models.StudySession) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET end_time = $3,
			duration_minutes = $4,
			notes_studied = $5,
			quizzes_taken = $6,
			average_score = $7,
			focus_level = $8
		WHERE id = $1
		  AND user_id = $2
		  AND duration_minutes = 0
	`, s.ID, s.UserID, s.EndTime, s.DurationMinutes, s.NotesStudied, s.QuizzesTaken, s.AverageScore, s.FocusLevel)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *SessionRepo) UpdateActivities(ctx context.Context, id, userID uuid.UUID, activities models.ActivitySet) error {
	encoded, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("failed to encode activities: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET activities = $3
		WHERE id = $1 AND user_id = $2
	`, id, userID, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListRange returns the user's sessions, optionally bounded by inclusive
// session_date bounds, ordered by date then start time.
func (r *SessionRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]models.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE user_id = $1`
	args := []interface{}{userID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND session_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND session_date <= $%d", len(args))
	}
	query += " ORDER BY session_date, start_time"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListStaleOpen returns open sessions whose session_date is before cutoff.
// Batched so the reaper never loads an unbounded set.
func (r *SessionRepo) ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE duration_minutes = 0 AND session_date < $1
		ORDER BY session_date
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) scanSession(row pgx.Row) (*models.StudySession, error) {
	s := &models.StudySession{}
	var activities []byte

	err := row.Scan(
		&s.ID, &s.UserID, &s.SessionDate, &s.StartTime, &s.EndTime, &s.DurationMinutes,
		&activities, &s.NotesStudied, &s.QuizzesTaken, &s.AverageScore, &s.FocusLevel, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(activities) > 0 {
		if err := json.Unmarshal(activities, &s.Activities); err != nil {
			return nil, fmt.Errorf("failed to decode activities for session %s: %w", s.ID, err)
		}
	}
	s.Activities = s.Activities.Normalize()
	return s, nil
}
