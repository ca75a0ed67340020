package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"teststand/internal/analysis"
	"teststand/internal/config"
)

type analyzeFlags struct {
	table   string
	channel int
	low     float64
	high    float64
	bins    int
	weight  float64
	output  string
}

func analyzeCmd() *cobra.Command {
	var flags analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Histogram the per-event energy deposited in one detector channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.table, "table", "", "Hit table (default from config)")
	cmd.Flags().IntVar(&flags.channel, "channel", 0, "Detector channel (default from config)")
	cmd.Flags().Float64Var(&flags.low, "low", 0, "Lower histogram edge in keV (default from config)")
	cmd.Flags().Float64Var(&flags.high, "high", 0, "Upper histogram edge in keV (default from config)")
	cmd.Flags().IntVar(&flags.bins, "bins", 0, "Number of bins (default from config)")
	cmd.Flags().Float64Var(&flags.weight, "weight", 0, "Weight per event (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "CSV output file, - for stdout (default from config)")
	return cmd
}

// applyTo overrides a with the flags the user actually set.
func (f analyzeFlags) applyTo(cmd *cobra.Command, a *config.AnalysisConfig) {
	changed := cmd.Flags().Changed
	if changed("table") {
		a.Table = f.table
	}
	if changed("channel") {
		ch := f.channel
		a.Channel = &ch
	}
	if changed("low") {
		a.Bins.Low = f.low
	}
	if changed("high") {
		a.Bins.High = f.high
	}
	if changed("bins") {
		a.Bins.Count = f.bins
	}
	if changed("weight") {
		a.Weight = f.weight
	}
	if changed("output") {
		a.Output = f.output
	}
}

func runAnalyze(cmd *cobra.Command, flags analyzeFlags) error {
	ctx := context.Background()
	log := config.NamedLogger("analyze")

	cfg, err := loadProject()
	if err != nil {
		return err
	}
	flags.applyTo(cmd, &cfg.Analysis)
	a := cfg.Analysis

	edges, err := analysis.LinearEdges(a.Bins.Low, a.Bins.High, a.Bins.Count)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	res, err := analysis.Run(ctx, db, analysis.Options{
		Table:   a.Table,
		Channel: cfg.ChannelOrDefault(),
		Edges:   edges,
		Weight:  a.Weight,
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"table":   res.Table,
		"channel": res.Channel,
		"hits":    res.Hits,
		"events":  len(res.Events),
		"dropped": res.Dropped,
	}).Info("histogram filled")

	var out io.Writer = os.Stdout
	if a.Output != "" && a.Output != "-" {
		f, err := os.Create(a.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", a.Output, err)
		}
		defer f.Close()
		out = f
	}
	if err := analysis.WriteCSV(out, res.Bins); err != nil {
		return fmt.Errorf("writing histogram: %w", err)
	}
	return nil
}
