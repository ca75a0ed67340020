package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS hit_tables (
    path          TEXT PRIMARY KEY,
    source_file   TEXT NOT NULL DEFAULT '',
    source_hash   TEXT NOT NULL DEFAULT '',
    last_ingested TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS hits (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    table_path TEXT NOT NULL REFERENCES hit_tables(path) ON DELETE CASCADE,
    evtid      BIGINT NOT NULL,
    edep       DOUBLE PRECISION NOT NULL,
    xloc       DOUBLE PRECISION NOT NULL DEFAULT 0,
    yloc       DOUBLE PRECISION NOT NULL DEFAULT 0,
    zloc       DOUBLE PRECISION NOT NULL DEFAULT 0,
    det_uid    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hits_table ON hits (table_path);
CREATE INDEX IF NOT EXISTS idx_hits_table_channel ON hits (table_path, det_uid);
CREATE INDEX IF NOT EXISTS idx_hit_tables_source_file ON hit_tables (source_file);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
