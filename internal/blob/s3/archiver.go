package s3blob

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

const (
	jsonlContentType = "application/x-ndjson"
	archiveRoot      = "archive"
)

// OpportunitySource is the slice of the opportunity store the archiver needs.
type OpportunitySource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// PriceHistorySource is the slice of the price history store the archiver
// needs.
type PriceHistorySource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.PricePoint, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver implements domain.Archiver. Rows older than the cutoff are
// written to the bucket as JSONL, the upload is audit-logged, and only then
// are the rows purged from Postgres.
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	opps   OpportunitySource
	prices PriceHistorySource
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(
	writer domain.BlobWriter,
	reader domain.BlobReader,
	opps OpportunitySource,
	prices PriceHistorySource,
	audit domain.AuditStore,
	logger *slog.Logger,
) *Archiver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Archiver{
		writer: writer,
		reader: reader,
		opps:   opps,
		prices: prices,
		audit:  audit,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveOpportunities moves opportunities created before the cutoff to
// archive/opportunities/YYYY-MM.jsonl.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.opps.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities: list: %w", err)
	}
	return archive(ctx, a, domain.ArchiveOpportunities, before, opps, a.opps.DeleteBefore)
}

// ArchivePriceHistory moves price observations recorded before the cutoff to
// archive/price_history/YYYY-MM.jsonl.
func (a *Archiver) ArchivePriceHistory(ctx context.Context, before time.Time) (int64, error) {
	points, err := a.prices.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive price history: list: %w", err)
	}
	return archive(ctx, a, domain.ArchivePriceHistory, before, points, a.prices.DeleteBefore)
}

// ListArchives returns the archive files of one kind, oldest month first.
// An empty kind lists every archive.
func (a *Archiver) ListArchives(ctx context.Context, kind domain.ArchiveKind) ([]domain.ArchiveFile, error) {
	prefix := archiveRoot + "/"
	if kind != "" {
		prefix += string(kind) + "/"
	}
	files, err := a.reader.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("s3blob: list archives: %w", err)
	}
	slices.SortFunc(files, func(x, y domain.ArchiveFile) int {
		return cmp.Or(
			cmp.Compare(x.Month, y.Month),
			cmp.Compare(x.Kind, y.Kind),
			cmp.Compare(x.Key, y.Key),
		)
	})
	return files, nil
}

func archive[T any](
	ctx context.Context,
	a *Archiver,
	kind domain.ArchiveKind,
	before time.Time,
	records []T,
	purge func(context.Context, time.Time) (int64, error),
) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s: %w", kind, err)
	}

	path, err := a.freePath(ctx, kind, before)
	if err != nil {
		return 0, err
	}
	if err := a.writer.Upload(ctx, path, buf, jsonlContentType); err != nil {
		return 0, fmt.Errorf("s3blob: archive %s: upload: %w", kind, err)
	}

	count := int64(len(records))
	if err := a.audit.Log(ctx, "archive."+string(kind), map[string]any{
		"path":   path,
		"count":  count,
		"before": before.UTC().Format(time.RFC3339),
	}); err != nil {
		// The upload is not verified in the audit trail, so keep the rows.
		return count, fmt.Errorf("s3blob: archive %s: audit: %w", kind, err)
	}

	purged, err := purge(ctx, before)
	if err != nil {
		return count, fmt.Errorf("s3blob: archive %s: purge: %w", kind, err)
	}
	a.logger.InfoContext(ctx, "archived rows",
		slog.String("kind", string(kind)),
		slog.String("path", path),
		slog.Int64("archived", count),
		slog.Int64("purged", purged),
	)
	return count, nil
}

// freePath returns archive/<kind>/YYYY-MM.jsonl, or a numbered variant when
// that object already exists, so a second run in the same month never
// overwrites an earlier upload.
func (a *Archiver) freePath(ctx context.Context, kind domain.ArchiveKind, before time.Time) (string, error) {
	base := archivePath(kind, before)
	path := base
	for n := 1; ; n++ {
		exists, err := a.reader.Exists(ctx, path)
		if err != nil {
			return "", fmt.Errorf("s3blob: archive %s: %w", kind, err)
		}
		if !exists {
			return path, nil
		}
		path = fmt.Sprintf("%s/%s/%s-%d.jsonl", archiveRoot, kind, before.UTC().Format("2006-01"), n)
	}
}

// archivePath partitions archives by the cutoff's year and month:
//
//	archive/opportunities/2025-01.jsonl
//	archive/price_history/2025-01.jsonl
func archivePath(kind domain.ArchiveKind, before time.Time) string {
	return fmt.Sprintf("%s/%s/%s.jsonl", archiveRoot, kind, before.UTC().Format("2006-01"))
}

func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*Archiver)(nil)
