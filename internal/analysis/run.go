package analysis

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"teststand/internal/store"
)

type Options struct {
	Table   string
	Channel int
	Edges   []float64
	Weight  float64
}

type Result struct {
	Table   string
	Channel int
	Hits    int
	Events  map[int64]float64
	Bins    []Bin
	Dropped int
}

// Run reads one hit table and reduces it to per-event energies and their
// weighted spectrum.
func Run(ctx context.Context, reader store.HitReader, opts Options) (*Result, error) {
	if reader == nil {
		return nil, fmt.Errorf("hit reader is required")
	}
	if err := validateEdges(opts.Edges); err != nil {
		return nil, err
	}

	hits, err := reader.ReadHits(ctx, opts.Table)
	if err != nil {
		return nil, fmt.Errorf("reading hits: %w", err)
	}

	events := SumEnergyPerEvent(hits, opts.Channel)
	bins, dropped, err := histogram(Energies(events), opts.Edges, opts.Weight)
	if err != nil {
		return nil, err
	}

	return &Result{
		Table:   opts.Table,
		Channel: opts.Channel,
		Hits:    len(hits),
		Events:  events,
		Bins:    bins,
		Dropped: dropped,
	}, nil
}

// WriteCSV writes one row per bin: low edge, high edge, count.
func WriteCSV(w io.Writer, bins []Bin) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"low", "high", "count"}); err != nil {
		return err
	}
	for _, b := range bins {
		row := []string{
			strconv.FormatFloat(b.Low, 'g', -1, 64),
			strconv.FormatFloat(b.High, 'g', -1, 64),
			strconv.FormatFloat(b.Count, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
