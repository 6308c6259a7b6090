package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryUserLocker(t *testing.T) {
	locks := NewMemoryUserLocker()
	user := uuid.New()
	other := uuid.New()

	unlock, err := locks.Lock(context.Background(), user)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	// Same user contends; a different user does not.
	if _, err := locks.Lock(context.Background(), user); err == nil {
		t.Error("Expected second lock for same user to fail")
	} else {
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("Expected ConflictError, got %v", err)
		}
	}

	unlockOther, err := locks.Lock(context.Background(), other)
	if err != nil {
		t.Fatalf("lock for different user failed: %v", err)
	}
	unlockOther()

	unlock()
	if _, err := locks.Lock(context.Background(), user); err != nil {
		t.Errorf("Expected relock after unlock to succeed, got %v", err)
	}
}

func TestMemoryUserLocker_StaleUnlockDoesNotRelease(t *testing.T) {
	locks := NewMemoryUserLocker()
	user := uuid.New()

	firstUnlock, err := locks.Lock(context.Background(), user)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}
	firstUnlock()

	if _, err := locks.Lock(context.Background(), user); err != nil {
		t.Fatalf("second lock failed: %v", err)
	}

	// A leftover unlock func from the first acquisition must not free the
	// lock the second acquisition now holds.
	firstUnlock()

	if _, err := locks.Lock(context.Background(), user); err == nil {
		t.Error("Expected lock still held after stale unlock")
	}
}
