package domain

import (
	"context"
	"time"
)

// ArchiveKind names a family of archived rows.
type ArchiveKind string

const (
	ArchiveOpportunities ArchiveKind = "opportunities"
	ArchivePriceHistory  ArchiveKind = "price_history"
)

// ArchiveFile is one JSONL object in cold storage.
type ArchiveFile struct {
	Kind       ArchiveKind `json:"kind"`
	Key        string      `json:"key"`
	Month      string      `json:"month"`
	Size       int64       `json:"size_bytes"`
	UploadedAt time.Time   `json:"uploaded_at"`
}

// BlobWriter uploads archive bodies to object storage.
type BlobWriter interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// BlobReader inspects object storage.
type BlobReader interface {
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]ArchiveFile, error)
}

// Archiver moves old rows from the database to cold storage.
type Archiver interface {
	ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error)
	ArchivePriceHistory(ctx context.Context, before time.Time) (int64, error)
	ListArchives(ctx context.Context, kind ArchiveKind) ([]ArchiveFile, error)
}
