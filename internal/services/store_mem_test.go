package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"studylog-backend/internal/models"
)

// memStore is an in-memory SessionStore mirroring the semantics of the pgx
// repo, including the unique-open-row constraint and the conditional close.
type memStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.StudySession
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[uuid.UUID]*models.StudySession)}
}

func (m *memStore) Create(ctx context.Context, s *models.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sessions {
		if existing.UserID == s.UserID && existing.DurationMinutes == 0 {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_study_sessions_open_per_user"}
		}
	}

	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	clone := *s
	m.sessions[s.ID] = &clone
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *memStore) GetOpen(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *models.StudySession
	for _, s := range m.sessions {
		if s.UserID != userID || s.DurationMinutes != 0 {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	clone := *latest
	return &clone, nil
}

func (m *memStore) CloseSession(ctx context.Context, s *models.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.ID]
	if !ok || stored.UserID != s.UserID || stored.DurationMinutes != 0 {
		return pgx.ErrNoRows
	}

	stored.EndTime = s.EndTime
	stored.DurationMinutes = s.DurationMinutes
	stored.NotesStudied = s.NotesStudied
	stored.QuizzesTaken = s.QuizzesTaken
	stored.AverageScore = s.AverageScore
	stored.FocusLevel = s.FocusLevel
	return nil
}

func (m *memStore) UpdateActivities(ctx context.Context, id, userID uuid.UUID, activities models.ActivitySet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[id]
	if !ok || stored.UserID != userID {
		return pgx.ErrNoRows
	}
	stored.Activities = append(models.ActivitySet{}, activities...)
	return nil
}

func (m *memStore) ListRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.StudySession
	for _, s := range m.sessions {
		if s.UserID != userID {
			continue
		}
		if from != nil && s.SessionDate.Before(*from) {
			continue
		}
		if to != nil && s.SessionDate.After(*to) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.Before(out[j].SessionDate)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *memStore) ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.StudySession
	for _, s := range m.sessions {
		if s.DurationMinutes == 0 && s.SessionDate.Before(cutoff) {
			out = append(out, *s)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// memGoalStore is the in-memory GoalStore counterpart.
type memGoalStore struct {
	mu    sync.Mutex
	goals map[uuid.UUID]*models.StudyGoal
}

func newMemGoalStore() *memGoalStore {
	return &memGoalStore{goals: make(map[uuid.UUID]*models.StudyGoal)}
}

func (m *memGoalStore) Get(ctx context.Context, userID uuid.UUID) (*models.StudyGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *g
	return &clone, nil
}

func (m *memGoalStore) Upsert(ctx context.Context, goal *models.StudyGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	goal.UpdatedAt = time.Now()
	clone := *goal
	m.goals[goal.UserID] = &clone
	return nil
}
