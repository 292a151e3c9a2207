package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// CooldownGate implements domain.CooldownGate with SET NX PX: the first
// caller for a key within the period is admitted, later ones are not.
type CooldownGate struct {
	rdb *redis.Client
}

// NewCooldownGate creates a CooldownGate backed by the given Client.
func NewCooldownGate(c *Client) *CooldownGate {
	return &CooldownGate{rdb: c.Underlying()}
}

// Admit reports whether an event for key may fire now.
func (g *CooldownGate) Admit(ctx context.Context, k string, period time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, key("cooldown", k), time.Now().UTC().Format(time.RFC3339), period).Result()
	if err != nil {
		return false, fmt.Errorf("redis: cooldown %s: %w", k, err)
	}
	return ok, nil
}

var _ domain.CooldownGate = (*CooldownGate)(nil)
