package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// ArchiveLister lists the files in cold storage.
type ArchiveLister interface {
	ListArchives(ctx context.Context, kind domain.ArchiveKind) ([]domain.ArchiveFile, error)
}

// ArchiveHandler exposes the cold-storage archive index.
type ArchiveHandler struct {
	archives ArchiveLister
	logger   *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(archives ArchiveLister, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{archives: archives, logger: logger}
}

// List returns archive files, optionally filtered by kind.
// GET /api/archives?kind=opportunities
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := domain.ArchiveKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", domain.ArchiveOpportunities, domain.ArchivePriceHistory:
	default:
		writeError(w, http.StatusBadRequest, "kind must be opportunities or price_history")
		return
	}

	files, err := h.archives.ListArchives(r.Context(), kind)
	if err != nil {
		writeServiceError(w, r, h.logger, "list archives", err)
		return
	}
	if files == nil {
		files = []domain.ArchiveFile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": files, "count": len(files)})
}
