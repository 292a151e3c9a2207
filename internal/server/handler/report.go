package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/service"
)

// ReportService defines the methods that the report handler requires.
type ReportService interface {
	Performance(ctx context.Context, days int) (domain.PerformanceSummary, error)
	TopKeywords(ctx context.Context, limit int) ([]domain.KeywordStats, error)
	Build(ctx context.Context, days int) (service.Report, error)
}

// ReportHandler serves performance reporting endpoints.
type ReportHandler struct {
	svc    ReportService
	logger *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

// Performance summarises recent scans.
// GET /api/reports/performance?days=30
func (h *ReportHandler) Performance(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Performance(r.Context(), queryInt(r, "days", 30, 365))
	if err != nil {
		writeServiceError(w, r, h.logger, "performance report", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Report returns the full report.
// GET /api/reports?days=30
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Build(r.Context(), queryInt(r, "days", 30, 365))
	if err != nil {
		writeServiceError(w, r, h.logger, "report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// TopKeywords lists the most productive keywords.
// GET /api/keywords/top?limit=10
func (h *ReportHandler) TopKeywords(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.TopKeywords(r.Context(), queryInt(r, "limit", 10, 100))
	if err != nil {
		writeServiceError(w, r, h.logger, "top keywords", err)
		return
	}
	if stats == nil {
		stats = []domain.KeywordStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"keywords": stats})
}
