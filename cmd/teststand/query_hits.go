package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"teststand/internal/analysis"
	"teststand/internal/store"
)

type queryHitsFlags struct {
	channels  []int
	minEnergy float64
	limit     int
	events    bool
}

func queryHitsCmd() *cobra.Command {
	var flags queryHitsFlags
	cmd := &cobra.Command{
		Use:   "hits [table]",
		Short: "Print hits of one table, optionally summed per event",
		Long: `Print the hits of a table as JSON. The table defaults to analysis.table
from the project configuration.

With --events the hits are summed per event instead; this needs exactly one
--channel and applies --min-energy to single hits before summing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := ""
			if len(args) == 1 {
				table = args[0]
			}
			return runQueryHits(table, flags)
		},
	}
	cmd.Flags().IntSliceVar(&flags.channels, "channel", nil, "Detector channel (repeatable)")
	cmd.Flags().Float64Var(&flags.minEnergy, "min-energy", 0, "Drop hits below this energy in keV")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Maximum number of hits to read, 0 for all")
	cmd.Flags().BoolVar(&flags.events, "events", false, "Sum energy per event")
	return cmd
}

func runQueryHits(table string, flags queryHitsFlags) error {
	ctx := context.Background()

	if flags.events && len(flags.channels) != 1 {
		return fmt.Errorf("--events needs exactly one --channel, got %d", len(flags.channels))
	}
	if flags.limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", flags.limit)
	}

	cfg, err := loadProject()
	if err != nil {
		return err
	}
	if table == "" {
		table = cfg.Analysis.Table
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	hits, err := db.SelectHits(ctx, store.HitFilter{
		Table:     table,
		Channels:  flags.channels,
		MinEnergy: flags.minEnergy,
		Limit:     flags.limit,
	})
	if err != nil {
		return err
	}

	if flags.events {
		sums := analysis.SumEnergyPerEvent(hits, flags.channels[0])
		return printJSON(os.Stdout, analysis.SortedEvents(sums))
	}
	return printJSON(os.Stdout, hits)
}
