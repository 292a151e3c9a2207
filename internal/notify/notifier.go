// Package notify delivers operator alerts to chat channels. Every Sender
// receives each allowed event; events outside the configured allow-list are
// dropped.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Event names an alert category that operators can opt in to.
type Event string

const (
	EventOpportunity  Event = "opportunity"
	EventDailySummary Event = "daily_summary"
	EventError        Event = "error"
)

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans messages out to its senders.
type Notifier struct {
	senders []Sender
	events  map[Event]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. An empty events list allows everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	allowed := make(map[Event]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[Event(e)] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether at least one sender is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.senders) > 0
}

// Allows reports whether event passes the allow-list.
func (n *Notifier) Allows(event Event) bool {
	return len(n.events) == 0 || n.events[event]
}

// Notify sends to every sender when the event is allowed. A failing sender
// does not stop delivery to the others; all failures are joined.
func (n *Notifier) Notify(ctx context.Context, event Event, title, message string) error {
	if !n.Enabled() {
		return nil
	}
	if !n.Allows(event) {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", string(event)))
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", string(event)),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("event", string(event)),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %w", errors.Join(errs...))
	}
	return nil
}
