package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// BlacklistService defines the methods that the blacklist handler requires.
type BlacklistService interface {
	Add(ctx context.Context, entry domain.BlacklistEntry) error
	Remove(ctx context.Context, platform domain.Platform, sellerID string) error
	List(ctx context.Context) ([]domain.BlacklistEntry, error)
}

// BlacklistHandler manages blocked sellers.
type BlacklistHandler struct {
	svc    BlacklistService
	logger *slog.Logger
}

// NewBlacklistHandler creates a BlacklistHandler.
func NewBlacklistHandler(svc BlacklistService, logger *slog.Logger) *BlacklistHandler {
	return &BlacklistHandler{svc: svc, logger: logger}
}

type blacklistRequest struct {
	Platform string `json:"platform" validate:"required,oneof=ebay amazon"`
	SellerID string `json:"seller_id" validate:"required,max=200"`
	Reason   string `json:"reason" validate:"max=500"`
}

// List returns every blocked seller.
// GET /api/blacklist
func (h *BlacklistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list blacklist", err)
		return
	}
	if entries == nil {
		entries = []domain.BlacklistEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sellers": entries})
}

// Add blocks a seller.
// POST /api/blacklist
func (h *BlacklistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry := domain.BlacklistEntry{
		Platform: domain.Platform(req.Platform),
		SellerID: req.SellerID,
		Reason:   req.Reason,
	}
	if err := h.svc.Add(r.Context(), entry); err != nil {
		writeServiceError(w, r, h.logger, "add to blacklist", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Remove unblocks a seller.
// DELETE /api/blacklist/{platform}/{seller}
func (h *BlacklistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	platform, err := domain.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Remove(r.Context(), platform, r.PathValue("seller")); err != nil {
		writeServiceError(w, r, h.logger, "remove from blacklist", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
