package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// BlacklistService manages sellers excluded from scans.
type BlacklistService struct {
	store  domain.BlacklistStore
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewBlacklistService creates a BlacklistService.
func NewBlacklistService(store domain.BlacklistStore, auditStore domain.AuditStore, logger *slog.Logger) *BlacklistService {
	return &BlacklistService{
		store:  store,
		audit:  auditStore,
		logger: discardIfNil(logger).With(slog.String("component", "blacklist_service")),
	}
}

// Add blocks a seller on a platform.
func (s *BlacklistService) Add(ctx context.Context, entry domain.BlacklistEntry) error {
	entry.SellerID = strings.TrimSpace(entry.SellerID)
	if entry.SellerID == "" {
		return errors.New("blacklist_service: seller id is required")
	}
	if err := s.store.Add(ctx, entry); err != nil {
		return fmt.Errorf("blacklist_service: add: %w", err)
	}
	audit(ctx, s.audit, s.logger, "blacklist.add", map[string]any{
		"platform":  entry.Platform,
		"seller_id": entry.SellerID,
		"reason":    entry.Reason,
	})
	return nil
}

// Remove unblocks a seller.
func (s *BlacklistService) Remove(ctx context.Context, platform domain.Platform, sellerID string) error {
	if err := s.store.Remove(ctx, platform, sellerID); err != nil {
		return fmt.Errorf("blacklist_service: remove: %w", err)
	}
	audit(ctx, s.audit, s.logger, "blacklist.remove", map[string]any{
		"platform":  platform,
		"seller_id": sellerID,
	})
	return nil
}

// List returns every blocked seller.
func (s *BlacklistService) List(ctx context.Context) ([]domain.BlacklistEntry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("blacklist_service: list: %w", err)
	}
	return entries, nil
}
