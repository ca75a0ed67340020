package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func queryTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List ingested hit tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryTables()
		},
	}
	return cmd
}

func runQueryTables() error {
	ctx := context.Background()

	cfg, err := loadProject()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	tables, err := db.ListTables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Fprintln(os.Stdout, "No tables found.")
		return nil
	}

	for _, table := range tables {
		channels := make([]string, len(table.Channels))
		for i, ch := range table.Channels {
			channels[i] = strconv.Itoa(ch)
		}
		fmt.Fprintf(os.Stdout, "%s: %d hits, %d events, channels [%s] (%s)\n",
			table.Path, table.Rows, table.Events, strings.Join(channels, ", "), table.SourceFile)
	}
	return nil
}
