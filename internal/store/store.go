// Package store persists hit tables produced by transport runs.
package store

import (
	"context"
	"errors"
)

var ErrTableNotFound = errors.New("hit table not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	ReplaceTable(ctx context.Context, table TableInput, hits []HitRecord) error
	RemoveStaleTables(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetTableHashes(ctx context.Context) (map[string]string, error)

	ListTables(ctx context.Context) ([]TableSummary, error)
	ReadHits(ctx context.Context, table string) ([]HitRecord, error)
	SelectHits(ctx context.Context, f HitFilter) ([]HitRecord, error)

	// RunSQL runs query in a read-only session. Statements that would
	// write fail even when they pass CheckReadOnly.
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// HitReader is the part of a Store that analysis needs.
type HitReader interface {
	ReadHits(ctx context.Context, table string) ([]HitRecord, error)
}
