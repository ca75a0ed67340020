package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"teststand/internal/store"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "memory", input: "sqlite://:memory:", expected: ":memory:"},
		{name: "absolute", input: "sqlite:///var/lib/hits.db", expected: "/var/lib/hits.db"},
		{name: "relative", input: "sqlite://hits.db", expected: "./hits.db"},
		{name: "dot relative", input: "sqlite://./data/hits.db", expected: "./data/hits.db"},
		{name: "parent relative", input: "sqlite://../hits.db", expected: "../hits.db"},
		{name: "escaped", input: "sqlite://my%20hits.db", expected: "./my hits.db"},
		{name: "query", input: "sqlite://hits.db?cache=shared", expected: "./hits.db?cache=shared"},
		{name: "wrong scheme", input: "postgres://localhost/hits", wantErr: true},
		{name: "empty path", input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.expected {
				t.Fatalf("parseDSN(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func newTestClient(t *testing.T, dsn string) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return c
}

var sampleHits = []store.HitRecord{
	{EventID: 1, Energy: 100, X: 1, Y: 2, Z: 3, Channel: 1},
	{EventID: 1, Energy: 50.5, Channel: 1},
	{EventID: 2, Energy: 7, Channel: 2},
}

func TestReplaceTable(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "sqlite://:memory:")

	table := store.TableInput{Path: "stp/det001", SourceFile: "stp/det001.csv", SourceHash: "abc"}
	if err := c.ReplaceTable(ctx, table, sampleHits); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	hits, err := c.ReadHits(ctx, "stp/det001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(hits) != 3 || hits[0] != sampleHits[0] || hits[2] != sampleHits[2] {
		t.Fatalf("unexpected hits %#v", hits)
	}

	t.Run("replace drops old rows", func(t *testing.T) {
		table.SourceHash = "def"
		if err := c.ReplaceTable(ctx, table, sampleHits[:1]); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		hits, _ := c.ReadHits(ctx, "stp/det001")
		if len(hits) != 1 {
			t.Fatalf("expected 1 hit, got %d", len(hits))
		}
		hashes, err := c.GetTableHashes(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if hashes["stp/det001.csv"] != "def" {
			t.Fatalf("unexpected hashes %#v", hashes)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if err := c.ReplaceTable(ctx, store.TableInput{}, nil); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestReadHitsMissingTable(t *testing.T) {
	c := newTestClient(t, "sqlite://:memory:")
	_, err := c.ReadHits(context.Background(), "stp/nope")
	if !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestListAndRemoveTables(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "sqlite://"+filepath.Join(t.TempDir(), "hits.db"))

	_ = c.ReplaceTable(ctx, store.TableInput{Path: "stp/det001", SourceFile: "a.csv", SourceHash: "1"}, sampleHits)
	_ = c.ReplaceTable(ctx, store.TableInput{Path: "stp/vertices", SourceFile: "b.csv", SourceHash: "2"}, nil)

	tables, err := c.ListTables(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	det := tables[0]
	if det.Path != "stp/det001" || det.Rows != 3 || det.Events != 2 || len(det.Channels) != 2 {
		t.Fatalf("unexpected summary %#v", det)
	}
	if tables[1].Rows != 0 || tables[1].Channels != nil {
		t.Fatalf("unexpected empty table summary %#v", tables[1])
	}

	removed, err := c.RemoveStaleTables(ctx, []string{"a.csv"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed table, got %d", removed)
	}

	rows, err := c.RunSQL(ctx, "SELECT COUNT(*) AS n FROM hits WHERE det_uid = ?", map[string]any{"1": 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(rows) != 1 || rows[0]["n"] != int64(2) {
		t.Fatalf("unexpected rows %#v", rows)
	}

	if _, err := c.RunSQL(ctx, "DELETE FROM hits", nil); err == nil {
		t.Fatalf("expected write query to be rejected")
	}
}

func TestRunSQLReadOnly(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "sqlite://:memory:")
	table := store.TableInput{Path: "stp/det001", SourceFile: "a.csv", SourceHash: "1"}
	if err := c.ReplaceTable(ctx, table, sampleHits); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	writes := []string{
		"WITH x AS (SELECT 1) DELETE FROM hits",
		"WITH x AS (SELECT 1) UPDATE hits SET edep = 0",
		"WITH x AS (SELECT 1) INSERT INTO hits (table_path, evtid, edep, xloc, yloc, zloc, det_uid) SELECT table_path, evtid, edep, xloc, yloc, zloc, det_uid FROM hits",
	}
	for _, q := range writes {
		if _, err := c.RunSQL(ctx, q, nil); err == nil {
			t.Fatalf("expected %q to fail", q)
		}
	}

	hits, err := c.ReadHits(ctx, "stp/det001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(hits) != len(sampleHits) || hits[1] != sampleHits[1] {
		t.Fatalf("hits changed: %#v", hits)
	}

	t.Run("connection is writable again afterwards", func(t *testing.T) {
		table.SourceHash = "2"
		if err := c.ReplaceTable(ctx, table, sampleHits[:1]); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestSelectHits(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "sqlite://:memory:")
	if err := c.ReplaceTable(ctx, store.TableInput{Path: "stp/det001", SourceFile: "a.csv", SourceHash: "1"}, sampleHits); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tests := []struct {
		name   string
		filter store.HitFilter
		want   []store.HitRecord
	}{
		{name: "no restriction", filter: store.HitFilter{}, want: sampleHits},
		{name: "channel", filter: store.HitFilter{Channels: []int{2}}, want: sampleHits[2:]},
		{name: "min energy", filter: store.HitFilter{MinEnergy: 50.5}, want: sampleHits[:2]},
		{name: "limit", filter: store.HitFilter{Limit: 1}, want: sampleHits[:1]},
		{name: "channel and energy", filter: store.HitFilter{Channels: []int{1, 2}, MinEnergy: 60}, want: sampleHits[:1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Table = "stp/det001"
			got, err := c.SelectHits(ctx, tt.filter)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d hits, got %#v", len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("hit %d: expected %#v, got %#v", i, tt.want[i], got[i])
				}
			}
		})
	}

	if _, err := c.SelectHits(ctx, store.HitFilter{Table: "stp/nope"}); !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}
