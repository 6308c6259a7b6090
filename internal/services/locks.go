package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UserLocker serializes session start/end for a single user. Start and end
// are check-then-act against the store, so two devices racing the same user
// must take turns; users never contend with each other.
type UserLocker interface {
	// Lock acquires the user's lock and returns an unlock func, or an error
	// if the lock is already held.
	Lock(ctx context.Context, userID uuid.UUID) (func(), error)
}

const userLockTTL = 10 * time.Second

// unlockScript deletes the lock key only while it still holds this
// acquisition's token. An operation that outlives the TTL must not delete a
// lock another instance has since acquired.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisUserLocker backs the lock with SET NX so it holds across instances.
type RedisUserLocker struct {
	client *redis.Client
}

func NewRedisUserLocker(client *redis.Client) *RedisUserLocker {
	return &RedisUserLocker{client: client}
}

func (l *RedisUserLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	key := fmt.Sprintf("session-lock:%s", userID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, userLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return nil, &ConflictError{Message: "Another session operation is in progress"}
	}

	return func() {
		// Best effort; the TTL cleans up if the delete is lost.
		unlockScript.Run(context.Background(), l.client, []string{key}, token)
	}, nil
}

// MemoryUserLocker is a single-process locker for tests and local runs
// without Redis. It keeps the same token contract as the Redis locker: a
// stale unlock func never releases a lock re-acquired since.
type MemoryUserLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]string
}

func NewMemoryUserLocker() *MemoryUserLocker {
	return &MemoryUserLocker{held: make(map[uuid.UUID]string)}
}

func (l *MemoryUserLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.held[userID]; taken {
		return nil, &ConflictError{Message: "Another session operation is in progress"}
	}
	token := uuid.NewString()
	l.held[userID] = token

	return func() {
		l.mu.Lock()
		if l.held[userID] == token {
			delete(l.held, userID)
		}
		l.mu.Unlock()
	}, nil
}
