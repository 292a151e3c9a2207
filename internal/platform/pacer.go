// Package platform holds what the marketplace clients share.
package platform

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// Pacer spaces out marketplace requests. The local token bucket paces this
// process; the optional shared limiter makes every replica draw from one
// account-wide quota under the key "source:<platform>".
type Pacer struct {
	local  *rate.Limiter
	shared domain.RateLimiter
	key    string
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewPacer builds a Pacer for rps requests per second. A non-positive rps
// disables pacing. shared may be nil.
func NewPacer(p domain.Platform, rps float64, shared domain.RateLimiter, logger *slog.Logger) *Pacer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	local := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		local = rate.NewLimiter(rate.Limit(rps), 1)
	}
	limit, window := domain.RateQuota(rps)
	if limit == 0 {
		shared = nil
	}
	return &Pacer{
		local:  local,
		shared: shared,
		key:    "source:" + string(p),
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Wait blocks until the next request may go out. A shared limiter that
// cannot be reached is logged and skipped; only ctx ends the wait early.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.local.Wait(ctx); err != nil {
		return err
	}
	if p.shared == nil {
		return nil
	}
	err := p.shared.Wait(ctx, p.key, p.limit, p.window)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	p.logger.WarnContext(ctx, "shared rate limiter unavailable, pacing locally",
		slog.String("key", p.key),
		slog.String("error", err.Error()),
	)
	return nil
}
