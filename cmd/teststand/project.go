package main

import (
	"context"
	"fmt"
	"path/filepath"

	"teststand/internal/config"
	"teststand/internal/store"
	"teststand/internal/store/postgres"
	"teststand/internal/store/sqlite"
)

func loadProject() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(filepath.Dir(configPath)); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.ResolveDSN()
	switch {
	case postgres.IsDSN(dsn):
		db, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case sqlite.IsDSN(dsn):
		db, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported database DSN %q (want sqlite:// or postgres://)", dsn)
}
