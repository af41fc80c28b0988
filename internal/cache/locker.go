package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Locker obtains short-lived Redis locks for services.Locker.
type Locker struct {
	client  *redislock.Client
	retry   redislock.RetryStrategy
	release time.Duration
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{
		client:  redislock.New(client),
		retry:   redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 5),
		release: 2 * time.Second,
	}
}

// Obtain waits briefly for the lock. A lock still held by another request is
// reported as services.ErrRequestInProgress.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", services.ErrRequestInProgress, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.release)
		defer cancel()
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			utils.LogWarn("Failed to release redis lock", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}, nil
}

var _ services.Locker = (*Locker)(nil)
