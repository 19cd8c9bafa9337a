package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionFlagKey is the store key of the logged-in flag of one browser session.
func SessionFlagKey(sessionID string) string {
	return "session:" + sessionID + ":isLoggedIn"
}

// RedisSessionRepository keeps session flags in Redis with a TTL.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository constructs a Redis-backed flag store.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// SetLoggedIn stores the flag for ttl.
func (r *RedisSessionRepository) SetLoggedIn(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, SessionFlagKey(sessionID), "true", ttl).Err(); err != nil {
		return fmt.Errorf("redis set session flag: %w", err)
	}
	return nil
}

// IsLoggedIn reports whether the flag is present and true.
func (r *RedisSessionRepository) IsLoggedIn(ctx context.Context, sessionID string) (bool, error) {
	val, err := r.client.Get(ctx, SessionFlagKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get session flag: %w", err)
	}
	return val == "true", nil
}

// Clear removes the flag.
func (r *RedisSessionRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, SessionFlagKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session flag: %w", err)
	}
	return nil
}

// MemorySessionRepository is the single-process fallback used when Redis is
// disabled. Flags do not survive a restart.
type MemorySessionRepository struct {
	mu    sync.Mutex
	flags map[string]time.Time
	now   func() time.Time
}

// NewMemorySessionRepository constructs an in-memory flag store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{flags: make(map[string]time.Time), now: time.Now}
}

// SetLoggedIn implements the flag store.
func (r *MemorySessionRepository) SetLoggedIn(_ context.Context, sessionID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[SessionFlagKey(sessionID)] = r.now().Add(ttl)
	return nil
}

// IsLoggedIn implements the flag store. Expired flags are evicted on read.
func (r *MemorySessionRepository) IsLoggedIn(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := SessionFlagKey(sessionID)
	expires, ok := r.flags[key]
	if !ok {
		return false, nil
	}
	if !r.now().Before(expires) {
		delete(r.flags, key)
		return false, nil
	}
	return true, nil
}

// Clear implements the flag store.
func (r *MemorySessionRepository) Clear(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flags, SessionFlagKey(sessionID))
	return nil
}
