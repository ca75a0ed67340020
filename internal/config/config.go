package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const FileName = "teststand.yaml"

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Detector DetectorConfig `yaml:"detector"`
	Layout   LayoutConfig   `yaml:"layout"`
	Output   OutputConfig   `yaml:"output"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type DetectorConfig struct {
	Metadata string `yaml:"metadata"`
	Name     string `yaml:"name"`
	UID      int    `yaml:"uid"`
	Scheme   string `yaml:"scheme"`
}

type LayoutConfig struct {
	World        WorldConfig        `yaml:"world"`
	Holder       HolderConfig       `yaml:"holder"`
	SourceHolder SourceHolderConfig `yaml:"source_holder"`
	Source       SourceConfig       `yaml:"source"`
}

type WorldConfig struct {
	Size     float64 `yaml:"size"`
	Material string  `yaml:"material"`
}

// HolderConfig describes the can around the crystal: a disk cap above the
// crystal and a tube wall hanging down from it.
type HolderConfig struct {
	Radius       float64   `yaml:"radius"`
	WallHeight   float64   `yaml:"wall_height"`
	Thickness    float64   `yaml:"thickness"`
	CapThickness float64   `yaml:"cap_thickness"`
	Gap          float64   `yaml:"gap"`
	Material     string    `yaml:"material"`
	Color        []float64 `yaml:"color"`
}

type SourceHolderConfig struct {
	X         float64   `yaml:"x"`
	Y         float64   `yaml:"y"`
	Thickness float64   `yaml:"thickness"`
	Gap       float64   `yaml:"gap"`
	Material  string    `yaml:"material"`
	Color     []float64 `yaml:"color"`
}

type SourceConfig struct {
	Size     float64   `yaml:"size"`
	Material string    `yaml:"material"`
	Color    []float64 `yaml:"color"`
}

type OutputConfig struct {
	GDML  string `yaml:"gdml"`
	Macro string `yaml:"macro"`
	Scene string `yaml:"scene"`
}

type AnalysisConfig struct {
	Table   string     `yaml:"table"`
	Channel *int       `yaml:"channel"`
	Bins    BinsConfig `yaml:"bins"`
	Weight  float64    `yaml:"weight"`
	Output  string     `yaml:"output"`
}

type BinsConfig struct {
	Low   float64 `yaml:"low"`
	High  float64 `yaml:"high"`
	Count int     `yaml:"count"`
}

type IngestConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
	Columns Columns  `yaml:"columns"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration of the reference test stand: a BEGe
// crystal under an aluminium can with a glass-plate source holder on top.
func Default(project string) *ProjectConfig {
	cfg := &ProjectConfig{
		Project: project,
		Version: 1,
		Database: DatabaseConfig{
			DSN: "sqlite://teststand.db",
		},
		Detector: DetectorConfig{
			Metadata: "detector.yaml",
		},
		Ingest: IngestConfig{
			Paths: []string{"./output"},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// ChannelOrDefault is the channel analysed when none is configured: the
// channel the detector was built with.
func (c *ProjectConfig) ChannelOrDefault() int {
	if c.Analysis.Channel != nil {
		return *c.Analysis.Channel
	}
	return c.Detector.UID
}

func applyDefaults(cfg *ProjectConfig) {
	setString(&cfg.Detector.Name, "hpge_physical")
	setString(&cfg.Detector.Scheme, "germanium")
	if cfg.Detector.UID == 0 {
		cfg.Detector.UID = 1
	}

	l := &cfg.Layout
	setFloat(&l.World.Size, 500)
	setString(&l.World.Material, "G4_Galactic")

	setFloat(&l.Holder.Radius, 35)
	setFloat(&l.Holder.WallHeight, 105)
	setFloat(&l.Holder.Thickness, 1)
	setFloat(&l.Holder.CapThickness, 1)
	setFloat(&l.Holder.Gap, 5)
	setString(&l.Holder.Material, "G4_Al")
	setColor(&l.Holder.Color, 0.5, 0.5, 0.5, 0.5)

	setFloat(&l.SourceHolder.X, 20)
	setFloat(&l.SourceHolder.Y, 10)
	setFloat(&l.SourceHolder.Thickness, 2)
	setString(&l.SourceHolder.Material, "G4_GLASS_PLATE")
	setColor(&l.SourceHolder.Color, 1, 1, 1, 0.25)

	setFloat(&l.Source.Size, 1)
	setString(&l.Source.Material, "G4_GLASS_PLATE")
	setColor(&l.Source.Color, 1, 0, 0, 0.25)

	setString(&cfg.Output.GDML, "simple_teststand.gdml")
	setString(&cfg.Output.Macro, "pv_reg.mac")
	setString(&cfg.Output.Scene, "scene.yaml")

	setString(&cfg.Analysis.Table, "stp/det001")
	if cfg.Analysis.Bins == (BinsConfig{}) {
		cfg.Analysis.Bins = BinsConfig{Low: 0, High: 3000, Count: 300}
	}
	setFloat(&cfg.Analysis.Weight, 0.1)

	cfg.Ingest.Columns.applyDefaults()
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if strings.TrimSpace(cfg.Detector.Metadata) == "" {
		return fmt.Errorf("detector metadata path is required")
	}
	if cfg.Detector.UID < 0 {
		return fmt.Errorf("detector uid must not be negative: %d", cfg.Detector.UID)
	}

	l := cfg.Layout
	positive := []struct {
		name  string
		value float64
	}{
		{"layout.world.size", l.World.Size},
		{"layout.holder.radius", l.Holder.Radius},
		{"layout.holder.wall_height", l.Holder.WallHeight},
		{"layout.holder.thickness", l.Holder.Thickness},
		{"layout.holder.cap_thickness", l.Holder.CapThickness},
		{"layout.source_holder.x", l.SourceHolder.X},
		{"layout.source_holder.y", l.SourceHolder.Y},
		{"layout.source_holder.thickness", l.SourceHolder.Thickness},
		{"layout.source.size", l.Source.Size},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %g", p.name, p.value)
		}
	}
	if l.Holder.Gap < 0 || l.SourceHolder.Gap < 0 {
		return fmt.Errorf("layout gaps must not be negative")
	}
	if l.Holder.Thickness > l.Holder.Radius {
		return fmt.Errorf("layout.holder.thickness %g exceeds radius %g", l.Holder.Thickness, l.Holder.Radius)
	}
	for name, c := range map[string][]float64{
		"layout.holder.color":        l.Holder.Color,
		"layout.source_holder.color": l.SourceHolder.Color,
		"layout.source.color":        l.Source.Color,
	} {
		if err := validateColor(c); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	b := cfg.Analysis.Bins
	if b.Count < 1 {
		return fmt.Errorf("analysis.bins.count must be at least 1, got %d", b.Count)
	}
	if b.High <= b.Low {
		return fmt.Errorf("analysis.bins.high %g must exceed low %g", b.High, b.Low)
	}
	if cfg.Analysis.Weight <= 0 {
		return fmt.Errorf("analysis.weight must be positive, got %g", cfg.Analysis.Weight)
	}
	if strings.TrimSpace(cfg.Analysis.Table) == "" {
		return fmt.Errorf("analysis.table is required")
	}

	return cfg.Ingest.Columns.validate()
}

func validateColor(c []float64) error {
	if len(c) != 4 {
		return fmt.Errorf("color needs 4 components, got %d", len(c))
	}
	for _, v := range c {
		if v < 0 || v > 1 {
			return fmt.Errorf("color components must be in [0, 1], got %v", c)
		}
	}
	return nil
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

func setColor(dst *[]float64, c ...float64) {
	if len(*dst) == 0 {
		*dst = c
	}
}
