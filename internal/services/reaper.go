package services

import (
	"context"
	"log"
	"time"
)

const (
	reaperBatchSize       = 100
	defaultReaperInterval = 15 * time.Minute
)

// SessionReaper closes open sessions whose session_date has passed: sessions
// a client started and never ended. Runs until Stop is called.
type SessionReaper struct {
	sessions *SessionService
	interval time.Duration
	stopChan chan struct{}
}

func NewSessionReaper(sessions *SessionService, interval time.Duration) *SessionReaper {
	if interval <= 0 {
		interval = defaultReaperInterval
	}
	return &SessionReaper{
		sessions: sessions,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (r *SessionReaper) Start() {
	if r.sessions == nil {
		return
	}

	go r.loop()
	log.Printf("Session reaper started (interval %s)", r.interval)
}

func (r *SessionReaper) Stop() {
	select {
	case <-r.stopChan:
		return
	default:
		close(r.stopChan)
	}
}

func (r *SessionReaper) loop() {
	// Run on startup as well as by interval.
	r.run(context.Background())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.run(context.Background())
		}
	}
}

func (r *SessionReaper) run(ctx context.Context) {
	closed, err := r.sessions.CloseStale(ctx, reaperBatchSize)
	if err != nil {
		log.Printf("session reaper: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("session reaper: closed %d stale session(s)", closed)
	}
}
