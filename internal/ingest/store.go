package ingest

import (
	"context"

	"teststand/internal/store"
)

// Store is the part of store.Store that ingestion writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	ReplaceTable(ctx context.Context, table store.TableInput, hits []store.HitRecord) error
	RemoveStaleTables(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetTableHashes(ctx context.Context) (map[string]string, error)
}

var _ Store = (store.Store)(nil)
