package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// AuditLister reads the audit log.
type AuditLister interface {
	List(ctx context.Context, eventPrefix string, opts domain.ListOpts) ([]domain.AuditEntry, error)
}

type AuditHandler struct {
	audit  AuditLister
	logger *slog.Logger
}

func NewAuditHandler(audit AuditLister, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// List returns audit entries newest first.
// GET /api/audit?event=opportunity.&since=2025-01-01&limit=100
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOpts(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.audit.List(r.Context(), r.URL.Query().Get("event"), opts)
	if err != nil {
		writeServiceError(w, r, h.logger, "list audit log", err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}
