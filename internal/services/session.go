package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"studylog-backend/internal/models"
)

const maxActivityLength = 100

// SessionStore is the persistence surface the engine runs on. The pgx repo
// implements it in production; tests use an in-memory fake. Stores hold no
// policy: the duration_minutes = 0 guard inside CloseSession is the one
// conditional they enforce, and a miss is reported as pgx.ErrNoRows.
type SessionStore interface {
	Create(ctx context.Context, s *models.StudySession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	GetOpen(ctx context.Context, userID uuid.UUID) (*models.StudySession, error)
	CloseSession(ctx context.Context, s *models.StudySession) error
	UpdateActivities(ctx context.Context, id, userID uuid.UUID, activities models.ActivitySet) error
	ListRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]models.StudySession, error)
	ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.StudySession, error)
}

// SessionService owns the session lifecycle: the one-open-session-per-user
// invariant, duration computation at end time, and activity tagging.
type SessionService struct {
	store        SessionStore
	locks        UserLocker
	defaultFocus models.FocusLevel
	maxMinutes   int
	now          func() time.Time
}

func NewSessionService(store SessionStore, locks UserLocker, defaultFocus models.FocusLevel, maxMinutes int) *SessionService {
	if !defaultFocus.Valid() {
		defaultFocus = models.FocusMedium
	}
	if maxMinutes <= 0 {
		maxMinutes = 720
	}
	return &SessionService{
		store:        store,
		locks:        locks,
		defaultFocus: defaultFocus,
		maxMinutes:   maxMinutes,
		now:          time.Now,
	}
}

// Start opens a new session for the user. A previous open session is closed
// first (same policy as ending it at this instant), so at most one open
// session per user survives the call. The partial unique index on open rows
// backs this up at the store level; losing that race surfaces as a conflict.
func (s *SessionService) Start(ctx context.Context, userID uuid.UUID, initialActivity string) (*models.StudySession, error) {
	initialActivity = strings.TrimSpace(initialActivity)
	if len(initialActivity) > maxActivityLength {
		return nil, &ValidationError{Fields: map[string]string{
			"initial_activity": fmt.Sprintf("Activity must be at most %d characters", maxActivityLength),
		}}
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()

	open, err := s.store.GetOpen(ctx, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for open session: %w", err)
	}
	if open != nil {
		s.fillClose(open, now, models.EndSessionRequest{})
		if err := s.store.CloseSession(ctx, open); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to close previous session: %w", err)
		}
		log.Printf("auto-closed open session %s for user %s before starting a new one", open.ID, userID)
	}

	session := &models.StudySession{
		UserID:      userID,
		SessionDate: dateOf(now),
		StartTime:   now,
		EndTime:     now,
		Activities:  models.ActivitySet{},
		FocusLevel:  s.defaultFocus,
	}
	if initialActivity != "" {
		session.Activities.Add(initialActivity)
	}

	if err := s.store.Create(ctx, session); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: "An active session already exists"}
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// End closes an open session, computing its duration from wall-clock elapsed
// time. Ending an already-closed session fails as not-found: the row is no
// longer open and its duration is never rewritten.
func (s *SessionService) End(ctx context.Context, sessionID, userID uuid.UUID, req models.EndSessionRequest) (*models.StudySession, error) {
	if err := validateEndRequest(req); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.Open() {
		return nil, &NotFoundError{Message: "Session not found"}
	}

	s.fillClose(session, s.now(), req)

	if err := s.store.CloseSession(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, fmt.Errorf("failed to close session: %w", err)
	}
	return session, nil
}

// AppendActivity adds a tag to the session's activity set. Appending an
// already-present tag is a no-op that still succeeds. Works on open and
// closed sessions alike. The append is a read-modify-write, so it takes the
// user lock like start/end do; two devices tagging at once must not lose an
// entry.
func (s *SessionService) AppendActivity(ctx context.Context, sessionID, userID uuid.UUID, activity string) (*models.StudySession, error) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return nil, &ValidationError{Fields: map[string]string{"activity": "Activity is required"}}
	}
	if len(activity) > maxActivityLength {
		return nil, &ValidationError{Fields: map[string]string{
			"activity": fmt.Sprintf("Activity must be at most %d characters", maxActivityLength),
		}}
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if session.Activities.Add(activity) {
		if err := s.store.UpdateActivities(ctx, session.ID, userID, session.Activities); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Message: "Session not found"}
			}
			return nil, fmt.Errorf("failed to update activities: %w", err)
		}
	}
	return session, nil
}

// Active returns the user's currently open session for today, or nil. An
// open row left over from a previous day is stale, not active; it stays
// visible in history until the reaper closes it.
func (s *SessionService) Active(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	session, err := s.store.GetOpen(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active session: %w", err)
	}
	if !sameDay(session.SessionDate, dateOf(s.now())) {
		return nil, nil
	}
	return session, nil
}

// CloseStale ends open sessions whose session_date has passed. Invoked by
// the reaper; returns the number of sessions closed.
func (s *SessionService) CloseStale(ctx context.Context, batchSize int) (int, error) {
	now := s.now()

	stale, err := s.store.ListStaleOpen(ctx, dateOf(now), batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	closed := 0
	for i := range stale {
		session := &stale[i]
		s.fillClose(session, now, models.EndSessionRequest{})
		if err := s.store.CloseSession(ctx, session); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return closed, fmt.Errorf("failed to close stale session %s: %w", session.ID, err)
		}
		closed++
	}
	return closed, nil
}

// fillClose writes the terminal fields onto the in-memory record. The
// duration is elapsed wall-clock time rounded to the nearest minute, clamped
// to [1, maxMinutes]: the floor keeps duration 0 unambiguous as the open
// marker, the cap bounds sessions a client abandoned.
func (s *SessionService) fillClose(session *models.StudySession, now time.Time, req models.EndSessionRequest) {
	minutes := int(math.Round(now.Sub(session.StartTime).Seconds() / 60))
	if minutes < 1 {
		minutes = 1
	}
	if minutes > s.maxMinutes {
		minutes = s.maxMinutes
	}

	session.EndTime = now
	session.DurationMinutes = minutes
	session.NotesStudied = req.NotesStudied
	session.QuizzesTaken = req.QuizzesTaken
	if req.AverageScore != nil {
		session.AverageScore = req.AverageScore
	}
	if req.FocusLevel != "" {
		session.FocusLevel = req.FocusLevel
	} else {
		session.FocusLevel = s.defaultFocus
	}
}

// loadOwned fetches a session and checks ownership, keeping not-found and
// forbidden distinguishable inside the process.
func (s *SessionService) loadOwned(ctx context.Context, sessionID, userID uuid.UUID) (*models.StudySession, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != userID {
		return nil, &ForbiddenError{Message: "Session belongs to another user"}
	}
	return session, nil
}

func validateEndRequest(req models.EndSessionRequest) error {
	fields := make(map[string]string)

	if req.NotesStudied < 0 {
		fields["notes_studied"] = "Must be zero or positive"
	}
	if req.QuizzesTaken < 0 {
		fields["quizzes_taken"] = "Must be zero or positive"
	}
	if req.AverageScore != nil && (*req.AverageScore < 0 || *req.AverageScore > 100) {
		fields["average_score"] = "Must be between 0 and 100"
	}
	if req.FocusLevel != "" && !req.FocusLevel.Valid() {
		fields["focus_level"] = "Must be low, medium, or high"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// dateOf truncates t to its calendar date in t's location, matching the
// day boundary used for session_date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
