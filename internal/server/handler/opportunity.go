package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// OpportunityService defines the methods that the opportunity handler
// requires.
type OpportunityService interface {
	List(ctx context.Context, status domain.OpportunityStatus, opts domain.ListOpts) ([]domain.Opportunity, error)
	Get(ctx context.Context, id string) (domain.Opportunity, error)
	Transition(ctx context.Context, id string, to domain.OpportunityStatus, notes string) (domain.Opportunity, error)
	Summary(ctx context.Context, status domain.OpportunityStatus, since time.Time) (domain.OpportunitySummary, error)
	Competition(ctx context.Context, id string) (domain.CompetitorAnalysis, error)
}

// OpportunityHandler serves opportunity endpoints.
type OpportunityHandler struct {
	svc    OpportunityService
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(svc OpportunityService, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{svc: svc, logger: logger}
}

type listOpportunitiesResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	Count         int                  `json:"count"`
}

// statusRequest is the body of a status change.
type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=acted purchased skipped expired"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// List returns opportunities, newest first.
// GET /api/opportunities?status=new&limit=50&offset=0&since=2025-01-01
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	status, ok := h.statusParam(w, r)
	if !ok {
		return
	}
	opts, err := parseListOpts(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opps, err := h.svc.List(r.Context(), status, opts)
	if err != nil {
		writeServiceError(w, r, h.logger, "list opportunities", err)
		return
	}
	if opps == nil {
		opps = []domain.Opportunity{}
	}
	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: opps, Count: len(opps)})
}

// Get returns one opportunity.
// GET /api/opportunities/{id}
func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	opp, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get opportunity", err)
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

// UpdateStatus moves a new opportunity to a terminal status.
// PATCH /api/opportunities/{id}/status
func (h *OpportunityHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opp, err := h.svc.Transition(r.Context(), r.PathValue("id"), domain.OpportunityStatus(req.Status), req.Notes)
	if err != nil {
		writeServiceError(w, r, h.logger, "update opportunity status", err)
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

// Summary aggregates opportunities.
// GET /api/opportunities/summary?status=new&hours=24
func (h *OpportunityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	status, ok := h.statusParam(w, r)
	if !ok {
		return
	}
	var since time.Time
	if hours := queryInt(r, "hours", 0, 24*365); hours > 0 {
		since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}

	sum, err := h.svc.Summary(r.Context(), status, since)
	if err != nil {
		writeServiceError(w, r, h.logger, "summarize opportunities", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Competition compares an opportunity with similar recent ones.
// GET /api/opportunities/{id}/competition
func (h *OpportunityHandler) Competition(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.svc.Competition(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "analyze competition", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *OpportunityHandler) statusParam(w http.ResponseWriter, r *http.Request) (domain.OpportunityStatus, bool) {
	v := r.URL.Query().Get("status")
	if v == "" {
		return "", true
	}
	status, err := domain.ParseOpportunityStatus(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return status, true
}
