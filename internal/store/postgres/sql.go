package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"teststand/internal/store"
)

// RunSQL executes query inside a READ ONLY transaction that is always rolled
// back, so a data-modifying CTE is refused by the server.
func (c *Client) RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if err := store.CheckReadOnly(query); err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, store.PositionalArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}
	return results, nil
}
