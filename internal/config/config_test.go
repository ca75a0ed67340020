package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalConfig = "project: test\nversion: 1\ndatabase:\n  dsn: sqlite://t.db\ndetector:\n  metadata: detector.yaml\n"

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "lab-bege" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.Layout.Holder.Radius != 40 || cfg.Layout.Holder.WallHeight != 90 {
			t.Fatalf("unexpected holder %+v", cfg.Layout.Holder)
		}
		if cfg.Layout.Holder.Thickness != 1 || cfg.Layout.Holder.Material != "G4_Al" {
			t.Fatalf("expected holder defaults, got %+v", cfg.Layout.Holder)
		}
		if cfg.Ingest.Columns.Channel != "uid" || cfg.Ingest.Columns.EventID != "evtid" {
			t.Fatalf("unexpected columns %+v", cfg.Ingest.Columns)
		}
	})

	t.Run("defaults fill a minimal config", func(t *testing.T) {
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimalConfig))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Layout.World.Size != 500 || cfg.Layout.World.Material != "G4_Galactic" {
			t.Fatalf("unexpected world %+v", cfg.Layout.World)
		}
		if cfg.Analysis.Bins.Count != 300 || cfg.Analysis.Bins.High != 3000 {
			t.Fatalf("unexpected bins %+v", cfg.Analysis.Bins)
		}
		if cfg.ChannelOrDefault() != 1 {
			t.Fatalf("expected analysis channel to follow detector uid, got %d", cfg.ChannelOrDefault())
		}
		if cfg.Output.Macro != "pv_reg.mac" {
			t.Fatalf("unexpected macro output %q", cfg.Output.Macro)
		}
	})

	t.Run("explicit channel zero", func(t *testing.T) {
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimalConfig+"analysis:\n  channel: 0\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.ChannelOrDefault() != 0 {
			t.Fatalf("expected channel 0, got %d", cfg.ChannelOrDefault())
		}
	})

	invalid := map[string]string{
		"missing project name":   "version: 1\ndatabase:\n  dsn: sqlite://t.db\ndetector:\n  metadata: d.yaml\n",
		"unsupported version":    "project: test\nversion: 2\ndatabase:\n  dsn: sqlite://t.db\ndetector:\n  metadata: d.yaml\n",
		"missing dsn":            "project: test\nversion: 1\ndetector:\n  metadata: d.yaml\n",
		"missing metadata":       "project: test\nversion: 1\ndatabase:\n  dsn: sqlite://t.db\n",
		"negative holder radius": minimalConfig + "layout:\n  holder:\n    radius: -1\n",
		"wall thicker than can":  minimalConfig + "layout:\n  holder:\n    radius: 2\n    thickness: 3\n",
		"negative gap":           minimalConfig + "layout:\n  holder:\n    gap: -5\n",
		"short color":            minimalConfig + "layout:\n  source:\n    color: [1, 0, 0]\n",
		"color out of range":     minimalConfig + "layout:\n  source:\n    color: [2, 0, 0, 1]\n",
		"inverted bins":          minimalConfig + "analysis:\n  bins:\n    low: 10\n    high: 5\n    count: 3\n",
		"no bins":                minimalConfig + "analysis:\n  bins:\n    low: 0\n    high: 5\n",
		"negative weight":        minimalConfig + "analysis:\n  weight: -1\n",
		"duplicate columns":      minimalConfig + "ingest:\n  columns:\n    x: evtid\n",
		"invalid yaml":           "project: [\n",
	}
	for name, contents := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadProjectConfig(writeTempConfig(t, contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default("bench")
	if err := validateProjectConfig(cfg); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	if cfg.Layout.Holder.WallHeight != 105 || cfg.Layout.SourceHolder.Thickness != 2 {
		t.Fatalf("unexpected layout %+v", cfg.Layout)
	}
}

func TestResolveDSN(t *testing.T) {
	cfg := Default("bench")

	t.Setenv(DSNEnv, "")
	if got := cfg.ResolveDSN(); got != "sqlite://teststand.db" {
		t.Fatalf("expected config dsn, got %q", got)
	}

	t.Setenv(DSNEnv, "postgres://localhost/hits")
	if got := cfg.ResolveDSN(); got != "postgres://localhost/hits" {
		t.Fatalf("expected env dsn, got %q", got)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is fine", func(t *testing.T) {
		if err := LoadEnv(t.TempDir()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("reads dsn", func(t *testing.T) {
		t.Setenv(DSNEnv, "")
		os.Unsetenv(DSNEnv)
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(DSNEnv+"=sqlite://from-env.db\n"), 0o600); err != nil {
			t.Fatalf("writing .env: %v", err)
		}
		if err := LoadEnv(dir); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := Default("bench").ResolveDSN(); got != "sqlite://from-env.db" {
			t.Fatalf("expected dsn from .env, got %q", got)
		}
	})
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
