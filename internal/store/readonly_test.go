package store

import "testing"

func TestCheckReadOnly(t *testing.T) {
	allowed := []string{
		"SELECT * FROM hits",
		"  select count(*) from hit_tables;",
		"WITH e AS (SELECT evtid FROM hits) SELECT * FROM e",
	}
	for _, q := range allowed {
		if err := CheckReadOnly(q); err != nil {
			t.Fatalf("expected %q to be allowed, got %v", q, err)
		}
	}

	rejected := []string{
		"",
		"DELETE FROM hits",
		"DROP TABLE hits",
		"SELECT 1; DELETE FROM hits",
		"insert into hits values (1)",
	}
	for _, q := range rejected {
		if err := CheckReadOnly(q); err == nil {
			t.Fatalf("expected %q to be rejected", q)
		}
	}
}

func TestPositionalArgs(t *testing.T) {
	args := PositionalArgs(map[string]any{"2": "b", "1": "a"})
	if len(args) != 2 || args[0] != "a" || args[1] != "b" {
		t.Fatalf("unexpected args %#v", args)
	}
}
