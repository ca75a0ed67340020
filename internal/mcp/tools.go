package mcp

import (
	"context"
	"fmt"
	"math"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"teststand/internal/analysis"
	"teststand/internal/gdml"
	"teststand/internal/geometry"
	"teststand/internal/store"
)

type ListTablesInput struct{}

type SumEnergyInput struct {
	Table   string `json:"table,omitempty" jsonschema:"hit table path, defaults to the configured analysis table"`
	Channel *int   `json:"channel,omitempty" jsonschema:"detector channel, defaults to the configured channel"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of events to return"`
}

type EnergyHistogramInput struct {
	Table   string   `json:"table,omitempty" jsonschema:"hit table path, defaults to the configured analysis table"`
	Channel *int     `json:"channel,omitempty" jsonschema:"detector channel, defaults to the configured channel"`
	Low     *float64 `json:"low,omitempty" jsonschema:"lower edge in keV"`
	High    *float64 `json:"high,omitempty" jsonschema:"upper edge in keV"`
	Bins    int      `json:"bins,omitempty" jsonschema:"number of equal-width bins"`
	Weight  *float64 `json:"weight,omitempty" jsonschema:"weight applied to every event"`
}

type DescribeGeometryInput struct {
	Path string `json:"path,omitempty" jsonschema:"GDML file, defaults to the configured output"`
}

type ListTablesOutput struct {
	Tables []store.TableSummary `json:"tables"`
}

type SumEnergyOutput struct {
	Table     string                 `json:"table"`
	Channel   int                    `json:"channel"`
	Events    int                    `json:"events"`
	NonFinite int                    `json:"non_finite"`
	Energies  []analysis.EventEnergy `json:"energies"`
	Truncated bool                   `json:"truncated,omitempty"`
}

type EnergyHistogramOutput struct {
	Table   string         `json:"table"`
	Channel int            `json:"channel"`
	Events  int            `json:"events"`
	Dropped int            `json:"dropped"`
	Bins    []analysis.Bin `json:"bins"`
}

type VolumeOutput struct {
	Name     string     `json:"name"`
	Logical  string     `json:"logical"`
	Mother   string     `json:"mother"`
	Material string     `json:"material"`
	Solid    string     `json:"solid"`
	Depth    int        `json:"depth"`
	Position [3]float64 `json:"position_mm"`
	Size     [3]float64 `json:"size_mm"`
}

type DetectorOutput struct {
	Name   string `json:"name"`
	Scheme string `json:"scheme"`
	UID    int    `json:"uid"`
}

type DescribeGeometryOutput struct {
	World     string           `json:"world"`
	Volumes   []VolumeOutput   `json:"volumes"`
	Detectors []DetectorOutput `json:"detectors"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_tables",
		Description: "List ingested hit tables with row, event and channel counts",
	}, s.handleListTables)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "sum_energy",
		Description: "Sum deposited energy per event for one detector channel",
	}, s.handleSumEnergy)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "energy_histogram",
		Description: "Weighted histogram of per-event energies",
	}, s.handleEnergyHistogram)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "describe_geometry",
		Description: "Describe the volumes and active detectors of a GDML file",
	}, s.handleDescribeGeometry)
}

func (s *Server) handleListTables(ctx context.Context, req *sdk.CallToolRequest, input ListTablesInput) (*sdk.CallToolResult, ListTablesOutput, error) {
	tables, err := s.db.ListTables(ctx)
	if err != nil {
		return nil, ListTablesOutput{}, err
	}
	if tables == nil {
		tables = []store.TableSummary{}
	}
	return nil, ListTablesOutput{Tables: tables}, nil
}

func (s *Server) tableAndChannel(table string, channel *int) (string, int) {
	if table == "" {
		table = s.cfg.Analysis.Table
	}
	if channel != nil {
		return table, *channel
	}
	return table, s.cfg.ChannelOrDefault()
}

func (s *Server) handleSumEnergy(ctx context.Context, req *sdk.CallToolRequest, input SumEnergyInput) (*sdk.CallToolResult, SumEnergyOutput, error) {
	table, channel := s.tableAndChannel(input.Table, input.Channel)
	hits, err := s.db.ReadHits(ctx, table)
	if err != nil {
		return nil, SumEnergyOutput{}, err
	}

	events := analysis.SortedEvents(analysis.SumEnergyPerEvent(hits, channel))
	out := SumEnergyOutput{Table: table, Channel: channel, Events: len(events), Energies: []analysis.EventEnergy{}}
	for _, e := range events {
		// JSON has no encoding for NaN or infinities
		if math.IsNaN(e.Energy) || math.IsInf(e.Energy, 0) {
			out.NonFinite++
			continue
		}
		if input.Limit > 0 && len(out.Energies) == input.Limit {
			out.Truncated = true
			continue
		}
		out.Energies = append(out.Energies, e)
	}
	return nil, out, nil
}

func (s *Server) handleEnergyHistogram(ctx context.Context, req *sdk.CallToolRequest, input EnergyHistogramInput) (*sdk.CallToolResult, EnergyHistogramOutput, error) {
	table, channel := s.tableAndChannel(input.Table, input.Channel)
	bins := s.cfg.Analysis.Bins
	if input.Low != nil {
		bins.Low = *input.Low
	}
	if input.High != nil {
		bins.High = *input.High
	}
	if input.Bins > 0 {
		bins.Count = input.Bins
	}
	weight := s.cfg.Analysis.Weight
	if input.Weight != nil {
		weight = *input.Weight
	}

	edges, err := analysis.LinearEdges(bins.Low, bins.High, bins.Count)
	if err != nil {
		return nil, EnergyHistogramOutput{}, err
	}
	res, err := analysis.Run(ctx, s.db, analysis.Options{Table: table, Channel: channel, Edges: edges, Weight: weight})
	if err != nil {
		return nil, EnergyHistogramOutput{}, err
	}
	return nil, EnergyHistogramOutput{
		Table:   table,
		Channel: channel,
		Events:  len(res.Events),
		Dropped: res.Dropped,
		Bins:    res.Bins,
	}, nil
}

func (s *Server) handleDescribeGeometry(ctx context.Context, req *sdk.CallToolRequest, input DescribeGeometryInput) (*sdk.CallToolResult, DescribeGeometryOutput, error) {
	path := input.Path
	if path == "" {
		path = s.cfg.Output.GDML
	}
	reg, err := gdml.ReadFile(path)
	if err != nil {
		return nil, DescribeGeometryOutput{}, err
	}
	out, err := describe(reg)
	if err != nil {
		return nil, DescribeGeometryOutput{}, fmt.Errorf("describing %s: %w", path, err)
	}
	return nil, out, nil
}

func describe(reg *geometry.Registry) (DescribeGeometryOutput, error) {
	out := DescribeGeometryOutput{Volumes: []VolumeOutput{}, Detectors: []DetectorOutput{}}
	if world, ok := reg.World(); ok {
		lv, _ := reg.Logical(world)
		out.World = lv.Name
	}

	err := reg.Walk(func(pv geometry.PhysicalVolume, depth int) error {
		lv, _ := reg.Logical(pv.Logical)
		mother, _ := reg.Logical(pv.Mother)
		solid, _ := reg.Solid(lv.Solid)
		box, err := reg.LogicalExtent(pv.Logical)
		if err != nil {
			return err
		}
		pos := pv.Transform.PositionMM()
		size := box.Size()
		out.Volumes = append(out.Volumes, VolumeOutput{
			Name:     pv.Name,
			Logical:  lv.Name,
			Mother:   mother.Name,
			Material: lv.Material,
			Solid:    solid.Kind().String(),
			Depth:    depth,
			Position: [3]float64{pos.X, pos.Y, pos.Z},
			Size:     [3]float64{size.X, size.Y, size.Z},
		})
		return nil
	})
	if err != nil {
		return out, err
	}

	for _, det := range reg.ActiveDetectors() {
		out.Detectors = append(out.Detectors, DetectorOutput{Name: det.Name, Scheme: det.Info.Scheme, UID: det.Info.UID})
	}
	return out, nil
}
