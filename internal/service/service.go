// Package service orchestrates the core analysis packages with persistence,
// caching, messaging and notifications.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/notify"
)

// Notifier is the alerting surface services depend on.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, event notify.Event, title, message string) error
}

// publish marshals v and sends it on channel. Failures are logged, never
// returned: the bus only feeds live dashboards.
func publish(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, v any) {
	if bus == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		logger.WarnContext(ctx, "marshal event failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "publish event failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// audit records an event, logging instead of failing when the audit store is
// unavailable.
func audit(ctx context.Context, store domain.AuditStore, logger *slog.Logger, event string, detail map[string]any) {
	if store == nil {
		return
	}
	if err := store.Log(ctx, event, detail); err != nil {
		logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func discardIfNil(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
