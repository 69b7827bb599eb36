package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const generationLockPrefix = "timetable:generate:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockRepository provides short-lived mutual exclusion over Redis.
type LockRepository struct {
	client *redis.Client
}

// NewLockRepository constructs a lock repository. A nil client disables
// locking and every acquire succeeds.
func NewLockRepository(client *redis.Client) *LockRepository {
	return &LockRepository{client: client}
}

// GenerationLockKey returns the lock key for a term; empty means all terms.
func GenerationLockKey(term string) string {
	if term == "" {
		return generationLockPrefix + "*"
	}
	return generationLockPrefix + term
}

// Acquire sets key with a random token when it is not held. It returns
// ErrLockNotAcquired when another holder owns it.
func (r *LockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if r.client == nil {
		return token, nil
	}
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return "", appErrors.ErrLockNotAcquired
	}
	return token, nil
}

// Release drops the lock if token still owns it.
func (r *LockRepository) Release(ctx context.Context, key, token string) error {
	if r.client == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}
