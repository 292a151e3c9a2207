package handler

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/service"
)

// DecisionService defines the methods that the decision handler requires.
type DecisionService interface {
	Plan(ctx context.Context, prefs domain.Preferences, criteria domain.DecisionCriteria) (service.Plan, error)
}

// DecisionHandler builds buy plans on request.
type DecisionHandler struct {
	svc      DecisionService
	prefs    domain.Preferences
	criteria domain.DecisionCriteria
	logger   *slog.Logger
}

// NewDecisionHandler creates a DecisionHandler. prefs and criteria are the
// defaults for fields a request omits.
func NewDecisionHandler(svc DecisionService, prefs domain.Preferences, criteria domain.DecisionCriteria, logger *slog.Logger) *DecisionHandler {
	return &DecisionHandler{svc: svc, prefs: prefs, criteria: criteria, logger: logger}
}

type decisionRequest struct {
	RiskTolerance     string   `json:"risk_tolerance" validate:"omitempty,oneof=low medium high"`
	ProfitPriority    string   `json:"profit_priority" validate:"omitempty,oneof=profit roi balanced"`
	TimeHorizon       string   `json:"time_horizon" validate:"omitempty,oneof=short medium long"`
	CapitalAvailable  *float64 `json:"capital_available" validate:"omitempty,gt=0"`
	MaxCapital        *float64 `json:"max_capital" validate:"omitempty,gt=0"`
	MinCompositeScore *float64 `json:"min_composite_score" validate:"omitempty,gte=0,lte=100"`
	MaxRiskScore      *float64 `json:"max_risk_score" validate:"omitempty,gte=0"`
	MinProfit         *float64 `json:"min_profit" validate:"omitempty,gte=0"`
}

// Plan ranks open opportunities and allocates capital.
// POST /api/decisions
func (h *DecisionHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	capital := h.prefs.CapitalAvailable()
	if req.CapitalAvailable != nil {
		capital = *req.CapitalAvailable
	}
	prefs, err := domain.NewPreferences(
		cmp.Or(domain.RiskTolerance(req.RiskTolerance), h.prefs.RiskTolerance()),
		cmp.Or(domain.ProfitPriority(req.ProfitPriority), h.prefs.ProfitPriority()),
		cmp.Or(domain.TimeHorizon(req.TimeHorizon), h.prefs.TimeHorizon()),
		capital,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	criteria := h.criteria
	if req.MaxCapital != nil {
		criteria.MaxCapital = decimal.NewFromFloat(*req.MaxCapital)
	}
	if req.MinCompositeScore != nil {
		criteria.MinCompositeScore = *req.MinCompositeScore
	}
	if req.MaxRiskScore != nil {
		criteria.MaxRiskScore = *req.MaxRiskScore
	}
	if req.MinProfit != nil {
		criteria.MinProfit = decimal.NewFromFloat(*req.MinProfit)
	}

	plan, err := h.svc.Plan(r.Context(), prefs, criteria)
	if err != nil {
		writeServiceError(w, r, h.logger, "build plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
