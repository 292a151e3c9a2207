package domain

import (
	"context"
	"time"
)

// ListingCache keeps recent search results per platform and keyword.
type ListingCache interface {
	Put(ctx context.Context, platform Platform, keyword string, listings []Listing) error
	Get(ctx context.Context, platform Platform, keyword string) ([]Listing, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Wait blocks until a call under key fits in limit per window.
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// RateQuota expresses a requests-per-second pace as a whole number of
// calls per window: 5 rps is 5 per second, 0.5 rps is 1 per 2 seconds.
// A non-positive rps yields a zero limit, meaning unpaced.
func RateQuota(rps float64) (limit int, window time.Duration) {
	switch {
	case rps <= 0:
		return 0, 0
	case rps >= 1:
		return int(rps), time.Second
	default:
		return 1, time.Duration(float64(time.Second) / rps)
	}
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// CooldownGate admits at most one event per key within a period.
type CooldownGate interface {
	Admit(ctx context.Context, key string, period time.Duration) (bool, error)
}

// StreamMessage represents a single entry from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// Signal bus channels.
const (
	ChannelOpportunity = "ch:opportunity"
	ChannelDecision    = "ch:decision"
	ChannelScan        = "ch:scan"
	StreamOpportunity  = "stream:opportunity"
)
