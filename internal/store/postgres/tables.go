package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"teststand/internal/store"
)

var hitColumns = []string{"table_path", "evtid", "edep", "xloc", "yloc", "zloc", "det_uid"}

// hitRows feeds CopyFrom without materialising every row up front.
func hitRows(table string, hits []store.HitRecord) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(hits), func(i int) ([]any, error) {
		h := hits[i]
		return []any{table, h.EventID, h.Energy, h.X, h.Y, h.Z, int32(h.Channel)}, nil
	})
}

func (c *Client) ReplaceTable(ctx context.Context, table store.TableInput, hits []store.HitRecord) error {
	if strings.TrimSpace(table.Path) == "" {
		return fmt.Errorf("table path is required")
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM hit_tables WHERE path = $1", table.Path); err != nil {
		return fmt.Errorf("clearing table %s: %w", table.Path, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO hit_tables (path, source_file, source_hash) VALUES ($1, $2, $3)",
		table.Path, table.SourceFile, table.SourceHash,
	); err != nil {
		return fmt.Errorf("registering table %s: %w", table.Path, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"hits"}, hitColumns, hitRows(table.Path, hits))
	if err != nil {
		return fmt.Errorf("copying hits into %s: %w", table.Path, err)
	}
	if n != int64(len(hits)) {
		return fmt.Errorf("copying hits into %s: wrote %d of %d rows", table.Path, n, len(hits))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing table %s: %w", table.Path, err)
	}
	return nil
}

func (c *Client) RemoveStaleTables(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return 0, nil
	}

	query := `
DELETE FROM hit_tables
WHERE source_file <> ''
  AND NOT (source_file = ANY($1))
RETURNING path
`

	rows, err := c.pool.Query(ctx, query, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale tables: %w", err)
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}

	return count, nil
}

func (c *Client) GetTableHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, "SELECT source_file, source_hash FROM hit_tables WHERE source_file <> ''")
	if err != nil {
		return nil, fmt.Errorf("query table hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning table hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table hashes: %w", err)
	}

	return hashes, nil
}

func (c *Client) ListTables(ctx context.Context) ([]store.TableSummary, error) {
	rows, err := c.pool.Query(ctx, `
SELECT t.path, t.source_file, COUNT(h.id), COUNT(DISTINCT h.evtid),
       COALESCE(array_agg(DISTINCT h.det_uid) FILTER (WHERE h.det_uid IS NOT NULL), '{}')
FROM hit_tables t
LEFT JOIN hits h ON h.table_path = t.path
GROUP BY t.path, t.source_file
ORDER BY t.path
`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []store.TableSummary
	for rows.Next() {
		var t store.TableSummary
		var channels []int32
		if err := rows.Scan(&t.Path, &t.SourceFile, &t.Rows, &t.Events, &channels); err != nil {
			return nil, fmt.Errorf("scanning table summary: %w", err)
		}
		for _, ch := range channels {
			t.Channels = append(t.Channels, int(ch))
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

func (c *Client) ReadHits(ctx context.Context, table string) ([]store.HitRecord, error) {
	return c.SelectHits(ctx, store.HitFilter{Table: table})
}

func (c *Client) SelectHits(ctx context.Context, f store.HitFilter) ([]store.HitRecord, error) {
	var exists string
	err := c.pool.QueryRow(ctx, "SELECT path FROM hit_tables WHERE path = $1", f.Table).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, f.Table)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up table %s: %w", f.Table, err)
	}

	query, args := store.HitsQuery(f, store.Dollar)
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading hits of %s: %w", f.Table, err)
	}

	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.HitRecord, error) {
		var h store.HitRecord
		var ch int32
		err := row.Scan(&h.EventID, &h.Energy, &h.X, &h.Y, &h.Z, &ch)
		h.Channel = int(ch)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning hits of %s: %w", f.Table, err)
	}
	return hits, nil
}
