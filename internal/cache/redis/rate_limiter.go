package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

const waitPollInterval = 50 * time.Millisecond

// RateLimiter implements domain.RateLimiter with a sliding window kept in a
// sorted set and trimmed atomically by a Lua script. It is shared by every
// API replica, which is why the HTTP layer uses it instead of a local bucket.
type RateLimiter struct {
	rdb           *redis.Client
	slidingWindow *redis.Script
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{
		rdb:           c.Underlying(),
		slidingWindow: redis.NewScript(slidingWindowLua),
	}
}

// Allow counts a request against key and reports whether it fits in the
// window.
func (rl *RateLimiter) Allow(ctx context.Context, name string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	result, err := rl.slidingWindow.Run(
		ctx,
		rl.rdb,
		[]string{key("ratelimit", name)},
		time.Now().UnixMicro(),
		window.Microseconds(),
		limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", name, err)
	}
	if len(result) < 2 {
		return false, fmt.Errorf("redis: rate limit %s: unexpected result length %d", name, len(result))
	}
	return result[0] == 1, nil
}

// Wait polls Allow until a call under name is admitted or ctx ends. The
// marketplace clients use it so every replica draws from one quota.
func (rl *RateLimiter) Wait(ctx context.Context, name string, limit int, window time.Duration) error {
	if limit <= 0 {
		return fmt.Errorf("redis: rate limit wait %s: limit must be positive", name)
	}
	for {
		allowed, err := rl.Allow(ctx, name, limit, window)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(waitPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("redis: rate limit wait %s: %w", name, ctx.Err())
		case <-timer.C:
		}
	}
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
