package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/arbitrage"
	"github.com/alanyoungcy/arbscout/internal/domain"
)

// competitionWindow is how far either side of an opportunity's creation
// time similar opportunities are gathered.
const competitionWindow = 7 * 24 * time.Hour

// OpportunityService manages the opportunity lifecycle after a scan.
type OpportunityService struct {
	opps        domain.OpportunityStore
	audit       domain.AuditStore
	bus         domain.SignalBus
	alertProfit decimal.Decimal
	logger      *slog.Logger
}

// NewOpportunityService creates an OpportunityService.
func NewOpportunityService(
	opps domain.OpportunityStore,
	audit domain.AuditStore,
	bus domain.SignalBus,
	alertProfit decimal.Decimal,
	logger *slog.Logger,
) *OpportunityService {
	return &OpportunityService{
		opps:        opps,
		audit:       audit,
		bus:         bus,
		alertProfit: alertProfit,
		logger:      discardIfNil(logger).With(slog.String("component", "opportunity_service")),
	}
}

// List returns opportunities with the given status, newest first. An empty
// status lists every opportunity.
func (s *OpportunityService) List(ctx context.Context, status domain.OpportunityStatus, opts domain.ListOpts) ([]domain.Opportunity, error) {
	opps, err := s.opps.ListByStatus(ctx, status, opts)
	if err != nil {
		return nil, fmt.Errorf("opportunity_service: list: %w", err)
	}
	return opps, nil
}

// Get returns one opportunity.
func (s *OpportunityService) Get(ctx context.Context, id string) (domain.Opportunity, error) {
	opp, err := s.opps.GetByID(ctx, id)
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("opportunity_service: get %q: %w", id, err)
	}
	return opp, nil
}

// Transition moves an opportunity to a new status and optionally replaces
// its notes. Only new opportunities can move.
func (s *OpportunityService) Transition(ctx context.Context, id string, to domain.OpportunityStatus, notes string) (domain.Opportunity, error) {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return domain.Opportunity{}, err
	}
	from := opp.Status
	if err := opp.Transition(to); err != nil {
		return domain.Opportunity{}, fmt.Errorf("opportunity_service: %q: %w", id, err)
	}
	if err := s.opps.UpdateStatus(ctx, id, from, to); err != nil {
		return domain.Opportunity{}, fmt.Errorf("opportunity_service: transition %q: %w", id, err)
	}
	if notes != "" {
		if err := s.opps.UpdateNotes(ctx, id, notes); err != nil {
			return domain.Opportunity{}, fmt.Errorf("opportunity_service: notes %q: %w", id, err)
		}
		opp.Notes = notes
	}

	audit(ctx, s.audit, s.logger, "opportunity.status", map[string]any{
		"opportunity_id": id,
		"from":           from,
		"to":             to,
	})
	publish(ctx, s.bus, s.logger, domain.ChannelOpportunity, map[string]any{
		"event":          "status_changed",
		"opportunity_id": id,
		"status":         to,
	})
	s.logger.InfoContext(ctx, "opportunity transitioned",
		slog.String("opportunity_id", id),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return opp, nil
}

// AddNotes replaces the notes on an opportunity.
func (s *OpportunityService) AddNotes(ctx context.Context, id, notes string) error {
	if err := s.opps.UpdateNotes(ctx, id, notes); err != nil {
		return fmt.Errorf("opportunity_service: notes %q: %w", id, err)
	}
	return nil
}

// Summary aggregates opportunities with the given status created since the
// given time.
func (s *OpportunityService) Summary(ctx context.Context, status domain.OpportunityStatus, since time.Time) (domain.OpportunitySummary, error) {
	opts := domain.ListOpts{}
	if !since.IsZero() {
		opts.Since = &since
	}
	opps, err := s.List(ctx, status, opts)
	if err != nil {
		return domain.OpportunitySummary{}, err
	}
	return arbitrage.Summarize(opps, s.alertProfit), nil
}

// Competition compares an opportunity with similar ones created within a
// week either side of it.
func (s *OpportunityService) Competition(ctx context.Context, id string) (domain.CompetitorAnalysis, error) {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return domain.CompetitorAnalysis{}, err
	}
	since := opp.CreatedAt.Add(-competitionWindow)
	until := opp.CreatedAt.Add(competitionWindow)
	pool, err := s.List(ctx, "", domain.ListOpts{Since: &since, Until: &until})
	if err != nil {
		return domain.CompetitorAnalysis{}, err
	}
	return arbitrage.AnalyzeCompetition(opp, arbitrage.SimilarTo(opp, pool)), nil
}

// ExpireBefore marks new opportunities created before the cutoff as
// expired and returns how many moved.
func (s *OpportunityService) ExpireBefore(ctx context.Context, before time.Time) (int, error) {
	stale, err := s.List(ctx, domain.StatusNew, domain.ListOpts{Until: &before})
	if err != nil {
		return 0, err
	}
	var expired int
	for _, o := range stale {
		err := s.opps.UpdateStatus(ctx, o.ID, domain.StatusNew, domain.StatusExpired)
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("opportunity_service: expire %q: %w", o.ID, err)
		}
		expired++
	}
	if expired > 0 {
		audit(ctx, s.audit, s.logger, "opportunity.expired", map[string]any{
			"count":  expired,
			"before": before.UTC().Format(time.RFC3339),
		})
	}
	return expired, nil
}
