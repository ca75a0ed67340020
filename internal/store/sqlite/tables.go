package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"teststand/internal/store"
)

func (c *Client) ReplaceTable(ctx context.Context, table store.TableInput, hits []store.HitRecord) error {
	if strings.TrimSpace(table.Path) == "" {
		return fmt.Errorf("table path is required")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM hits WHERE table_path = ?",
		"DELETE FROM hit_tables WHERE path = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, table.Path); err != nil {
			return fmt.Errorf("clearing table %s: %w", table.Path, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO hit_tables (path, source_file, source_hash) VALUES (?, ?, ?)",
		table.Path, table.SourceFile, table.SourceHash,
	); err != nil {
		return fmt.Errorf("registering table %s: %w", table.Path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO hits (table_path, evtid, edep, xloc, yloc, zloc, det_uid)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing hit insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range hits {
		if _, err := stmt.ExecContext(ctx, table.Path, h.EventID, h.Energy, h.X, h.Y, h.Z, h.Channel); err != nil {
			return fmt.Errorf("inserting hit of event %d: %w", h.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing table %s: %w", table.Path, err)
	}
	return nil
}

func (c *Client) RemoveStaleTables(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(currentSourceFiles))
	args := make([]any, len(currentSourceFiles))
	for i, f := range currentSourceFiles {
		placeholders[i] = "?"
		args[i] = f
	}

	stale := fmt.Sprintf("source_file <> '' AND source_file NOT IN (%s)", strings.Join(placeholders, ", "))

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is a per-connection pragma, so hits are not left to the cascade
	if _, err := tx.ExecContext(ctx, "DELETE FROM hits WHERE table_path IN (SELECT path FROM hit_tables WHERE "+stale+")", args...); err != nil {
		return 0, fmt.Errorf("removing stale hits: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM hit_tables WHERE "+stale, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale tables: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing stale table removal: %w", err)
	}

	return affected, nil
}

func (c *Client) GetTableHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT source_file, source_hash FROM hit_tables WHERE source_file <> ''")
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
	rows, err := c.db.QueryContext(ctx, `
	SELECT t.path, t.source_file, COUNT(h.id), COUNT(DISTINCT h.evtid)
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
		if err := rows.Scan(&t.Path, &t.SourceFile, &t.Rows, &t.Events); err != nil {
			return nil, fmt.Errorf("scanning table summary: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}

	for i := range tables {
		channels, err := c.channels(ctx, tables[i].Path)
		if err != nil {
			return nil, err
		}
		tables[i].Channels = channels
	}
	return tables, nil
}

func (c *Client) channels(ctx context.Context, table string) ([]int, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT DISTINCT det_uid FROM hits WHERE table_path = ? ORDER BY det_uid", table)
	if err != nil {
		return nil, fmt.Errorf("listing channels of %s: %w", table, err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var ch int
		if err := rows.Scan(&ch); err != nil {
			return nil, fmt.Errorf("scanning channel: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (c *Client) ReadHits(ctx context.Context, table string) ([]store.HitRecord, error) {
	return c.SelectHits(ctx, store.HitFilter{Table: table})
}

func (c *Client) SelectHits(ctx context.Context, f store.HitFilter) ([]store.HitRecord, error) {
	var exists string
	err := c.db.QueryRowContext(ctx, "SELECT path FROM hit_tables WHERE path = ?", f.Table).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, f.Table)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up table %s: %w", f.Table, err)
	}

	query, args := store.HitsQuery(f, store.QuestionMark)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading hits of %s: %w", f.Table, err)
	}
	defer rows.Close()

	hits := make([]store.HitRecord, 0)
	for rows.Next() {
		var h store.HitRecord
		if err := rows.Scan(&h.EventID, &h.Energy, &h.X, &h.Y, &h.Z, &h.Channel); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}
