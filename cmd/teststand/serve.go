package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"teststand/internal/config"
	"teststand/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve hit tables and the built geometry to MCP clients over stdio",
		Long: `Start an MCP server on stdin/stdout. Logs go to stderr so they do not
corrupt the protocol stream.

Tools: list_tables, sum_energy, energy_histogram, describe_geometry.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := config.NamedLogger("serve")

	cfg, err := loadProject()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	tables, err := db.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("listing hit tables: %w", err)
	}
	log.WithFields(logrus.Fields{
		"tables":   len(tables),
		"geometry": cfg.Output.GDML,
	}).Info("serving over stdio")

	server := mcp.NewServer(cfg, db, buildVersion())
	return server.Run(ctx, &sdk.StdioTransport{})
}
