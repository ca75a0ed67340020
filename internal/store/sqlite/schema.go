package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS hit_tables (
		path          TEXT PRIMARY KEY,
		source_file   TEXT NOT NULL DEFAULT '',
		source_hash   TEXT NOT NULL DEFAULT '',
		last_ingested TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS hits (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		table_path TEXT NOT NULL REFERENCES hit_tables(path) ON DELETE CASCADE,
		evtid      INTEGER NOT NULL,
		edep       REAL NOT NULL,
		xloc       REAL NOT NULL DEFAULT 0,
		yloc       REAL NOT NULL DEFAULT 0,
		zloc       REAL NOT NULL DEFAULT 0,
		det_uid    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hits_table ON hits (table_path);
	CREATE INDEX IF NOT EXISTS idx_hits_table_channel ON hits (table_path, det_uid);
	CREATE INDEX IF NOT EXISTS idx_hit_tables_source_file ON hit_tables (source_file);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
