// Package mcp exposes hit tables and the built geometry as tools for a
// Model Context Protocol client.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"teststand/internal/config"
	"teststand/internal/store"
)

// Querier is the read side of store.Store.
type Querier interface {
	ListTables(ctx context.Context) ([]store.TableSummary, error)
	ReadHits(ctx context.Context, table string) ([]store.HitRecord, error)
}

type Server struct {
	cfg *config.ProjectConfig
	db  Querier
	mcp *sdk.Server
}

func NewServer(cfg *config.ProjectConfig, db Querier, version string) *Server {
	s := &Server{
		cfg: cfg,
		db:  db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "teststand",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
