package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/arbscout/internal/service"
)

// ScanService defines the methods that the scan handler requires.
type ScanService interface {
	ScanAll(ctx context.Context, keywords []string) (service.ScanReport, error)
}

// ScanHandler triggers on-demand scans.
type ScanHandler struct {
	svc      ScanService
	keywords []string
	logger   *slog.Logger
}

// NewScanHandler creates a ScanHandler. defaultKeywords are scanned when a
// request names none.
func NewScanHandler(svc ScanService, defaultKeywords []string, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{svc: svc, keywords: defaultKeywords, logger: logger}
}

type scanRequest struct {
	Keywords []string `json:"keywords" validate:"max=25,dive,required,max=120"`
}

// Scan runs a scan synchronously and returns its report. A scan already in
// progress yields 409.
// POST /api/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	keywords := h.keywords
	if len(req.Keywords) > 0 {
		keywords = make([]string, 0, len(req.Keywords))
		for _, k := range req.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	if len(keywords) == 0 {
		writeError(w, http.StatusBadRequest, "no keywords to scan")
		return
	}

	h.logger.InfoContext(r.Context(), "handler: scan requested", slog.Int("keywords", len(keywords)))
	report, err := h.svc.ScanAll(r.Context(), keywords)
	if err != nil {
		writeServiceError(w, r, h.logger, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
