package mcp

import (
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"teststand/internal/assembly"
	"teststand/internal/config"
	"teststand/internal/gdml"
	"teststand/internal/metadata"
	"teststand/internal/store"
)

type mockQuerier struct {
	tables    []store.TableSummary
	hits      map[string][]store.HitRecord
	listErr   error
	lastTable string
}

func (m *mockQuerier) ListTables(ctx context.Context) ([]store.TableSummary, error) {
	return m.tables, m.listErr
}

func (m *mockQuerier) ReadHits(ctx context.Context, table string) ([]store.HitRecord, error) {
	m.lastTable = table
	hits, ok := m.hits[table]
	if !ok {
		return nil, store.ErrTableNotFound
	}
	return hits, nil
}

func testQuerier() *mockQuerier {
	return &mockQuerier{
		tables: []store.TableSummary{{Path: "stp/det001", Rows: 4, Events: 3, Channels: []int{1, 2}}},
		hits: map[string][]store.HitRecord{
			"stp/det001": {
				{EventID: 0, Energy: 100, Channel: 1},
				{EventID: 0, Energy: 200, Channel: 1},
				{EventID: 1, Energy: 5, Channel: 2},
				{EventID: 2, Energy: 661.657, Channel: 1},
				{EventID: 3, Energy: math.NaN(), Channel: 1},
			},
		},
	}
}

func TestListTables(t *testing.T) {
	server := NewServer(config.Default("test"), testQuerier(), "test")

	_, output, err := server.handleListTables(context.Background(), nil, ListTablesInput{})
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	if len(output.Tables) != 1 || output.Tables[0].Path != "stp/det001" {
		t.Fatalf("unexpected tables %#v", output.Tables)
	}
}

func TestListTables_Error(t *testing.T) {
	server := NewServer(config.Default("test"), &mockQuerier{listErr: errors.New("boom")}, "test")

	if _, _, err := server.handleListTables(context.Background(), nil, ListTablesInput{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSumEnergy(t *testing.T) {
	db := testQuerier()
	server := NewServer(config.Default("test"), db, "test")

	_, output, err := server.handleSumEnergy(context.Background(), nil, SumEnergyInput{})
	if err != nil {
		t.Fatalf("sum energy: %v", err)
	}
	if db.lastTable != "stp/det001" || output.Channel != 1 {
		t.Fatalf("expected configured table and channel, got %s/%d", db.lastTable, output.Channel)
	}
	if output.Events != 3 || output.NonFinite != 1 {
		t.Fatalf("expected 3 events with 1 non-finite, got %d/%d", output.Events, output.NonFinite)
	}
	if len(output.Energies) != 2 || output.Energies[0].Energy != 300 || output.Energies[1].EventID != 2 {
		t.Fatalf("unexpected energies %#v", output.Energies)
	}
}

func TestSumEnergy_ChannelAndLimit(t *testing.T) {
	server := NewServer(config.Default("test"), testQuerier(), "test")
	channel := 1

	_, output, err := server.handleSumEnergy(context.Background(), nil, SumEnergyInput{Table: "stp/det001", Channel: &channel, Limit: 1})
	if err != nil {
		t.Fatalf("sum energy: %v", err)
	}
	if len(output.Energies) != 1 || !output.Truncated {
		t.Fatalf("expected one truncated entry, got %#v", output)
	}
}

func TestSumEnergy_UnknownTable(t *testing.T) {
	server := NewServer(config.Default("test"), testQuerier(), "test")

	_, _, err := server.handleSumEnergy(context.Background(), nil, SumEnergyInput{Table: "stp/missing"})
	if !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestEnergyHistogram(t *testing.T) {
	server := NewServer(config.Default("test"), testQuerier(), "test")
	low, high, weight := 0.0, 1000.0, 0.5

	_, output, err := server.handleEnergyHistogram(context.Background(), nil, EnergyHistogramInput{Low: &low, High: &high, Bins: 10, Weight: &weight})
	if err != nil {
		t.Fatalf("energy histogram: %v", err)
	}
	if len(output.Bins) != 10 {
		t.Fatalf("expected 10 bins, got %d", len(output.Bins))
	}
	if output.Bins[3].Count != 0.5 || output.Bins[6].Count != 0.5 {
		t.Fatalf("unexpected counts %#v", output.Bins)
	}
	if output.Dropped != 1 {
		t.Fatalf("expected the NaN event to be dropped, got %d", output.Dropped)
	}
}

func TestEnergyHistogram_InvalidRange(t *testing.T) {
	server := NewServer(config.Default("test"), testQuerier(), "test")
	low, high := 10.0, 10.0

	_, _, err := server.handleEnergyHistogram(context.Background(), nil, EnergyHistogramInput{Low: &low, High: &high})
	if err == nil {
		t.Fatalf("expected error")
	}
}

const begeDoc = `
name: teststand_hpge
type: bege
geometry:
  height_in_mm: 30
  radius_in_mm: 30
  groove: {depth_in_mm: 2.0, radius_in_mm: {outer: 10.5, inner: 7.5}}
  pp_contact: {radius_in_mm: 7.5, depth_in_mm: 0}
  taper:
    top: {angle_in_deg: 0.0, height_in_mm: 0.0}
    bottom: {angle_in_deg: 0.0, height_in_mm: 0.0}
production: {enrichment: 0.0775}
`

func TestDescribeGeometry(t *testing.T) {
	meta, err := metadata.Parse([]byte(begeDoc))
	if err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := config.Default("test")
	reg, err := assembly.Assemble(meta, cfg, assembly.Options{Log: log})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	cfg.Output.GDML = filepath.Join(t.TempDir(), "stand.gdml")
	if err := gdml.WriteFile(cfg.Output.GDML, reg); err != nil {
		t.Fatalf("write gdml: %v", err)
	}

	server := NewServer(cfg, testQuerier(), "test")
	_, output, err := server.handleDescribeGeometry(context.Background(), nil, DescribeGeometryInput{})
	if err != nil {
		t.Fatalf("describe geometry: %v", err)
	}
	if output.World != assembly.WorldName {
		t.Fatalf("expected world %s, got %s", assembly.WorldName, output.World)
	}
	if len(output.Volumes) != 4 {
		t.Fatalf("expected 4 placed volumes, got %#v", output.Volumes)
	}
	var source *VolumeOutput
	for i := range output.Volumes {
		if output.Volumes[i].Name == assembly.SourceName {
			source = &output.Volumes[i]
		}
	}
	if source == nil || source.Depth != 1 || source.Mother != "src_holder_logical" {
		t.Fatalf("expected source inside the plate, got %#v", source)
	}
	if len(output.Detectors) != 1 || output.Detectors[0].UID != 1 || output.Detectors[0].Scheme != "germanium" {
		t.Fatalf("unexpected detectors %#v", output.Detectors)
	}
}

func TestDescribeGeometry_MissingFile(t *testing.T) {
	server := NewServer(config.Default("test"), testQuerier(), "test")

	_, _, err := server.handleDescribeGeometry(context.Background(), nil, DescribeGeometryInput{Path: filepath.Join(t.TempDir(), "none.gdml")})
	if err == nil {
		t.Fatalf("expected error")
	}
}
