package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"anoa.com/karmafeed/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError carries how long the caller has to wait.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// Limiter is a per-user cooldown backed by Redis SETNX. A nil client
// disables limiting.
type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// Allow claims the cooldown slot for (user, action). It returns a
// *RateLimitError when the slot is still held.
func (l *Limiter) Allow(ctx context.Context, userID uuid.UUID, action string, cooldown time.Duration) error {
	if l == nil || l.rdb == nil || cooldown <= 0 {
		return nil
	}

	wasSet, err := l.rdb.SetNX(ctx, key(userID, action), "locked", cooldown).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, err := l.TTL(ctx, userID, action)
	if err != nil || ttl < 0 {
		ttl = cooldown
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("too many %s requests, retry in %s", action, ttl.Round(time.Millisecond)),
		RetryAfter: ttl,
	}
}

func (l *Limiter) TTL(ctx context.Context, userID uuid.UUID, action string) (time.Duration, error) {
	if l == nil || l.rdb == nil {
		return 0, nil
	}
	return l.rdb.PTTL(ctx, key(userID, action)).Result()
}

func (l *Limiter) Clear(ctx context.Context, userID uuid.UUID, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(userID, action)).Err()
}

// SetRetryAfter copies the wait from a *RateLimitError onto the response's
// Retry-After header, rounded up to whole seconds. Other errors are ignored.
func SetRetryAfter(c *gin.Context, err error) {
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		return
	}
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rateErr.RetryAfter.Seconds()))))
}
