// Package metadata loads the description of a physical HPGe detector:
// crystal dimensions, contact and groove layout, tapers and enrichment.
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Detector types with a shape builder.
const (
	TypeBEGe = "bege"
	TypePPC  = "ppc"
	TypeICPC = "icpc"
	TypeCoax = "coax"
)

var ErrInvalidMetadata = errors.New("invalid detector metadata")

// InvalidMetadataError names the offending key with its dotted path.
type InvalidMetadataError struct {
	Key    string
	Reason string
}

func (e *InvalidMetadataError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("detector metadata: missing required key %q", e.Key)
	}
	return fmt.Sprintf("detector metadata: %s: %s", e.Key, e.Reason)
}

func (e *InvalidMetadataError) Is(target error) bool { return target == ErrInvalidMetadata }

type Detector struct {
	Name       string     `yaml:"name"`
	Type       string     `yaml:"type"`
	Geometry   Geometry   `yaml:"geometry"`
	Production Production `yaml:"production"`

	// Raw keeps every key of the source document, including the ones this
	// package does not interpret. It is what gets attached to the active
	// detector annotation.
	Raw        map[string]any `yaml:"-"`
	SourceFile string         `yaml:"-"`
}

type Geometry struct {
	HeightInMM float64   `yaml:"height_in_mm"`
	RadiusInMM float64   `yaml:"radius_in_mm"`
	Groove     Groove    `yaml:"groove"`
	PPContact  PPContact `yaml:"pp_contact"`
	Taper      Taper     `yaml:"taper"`
	Borehole   *Borehole `yaml:"borehole"`
}

type Groove struct {
	DepthInMM  float64 `yaml:"depth_in_mm"`
	RadiusInMM struct {
		Outer float64 `yaml:"outer"`
		Inner float64 `yaml:"inner"`
	} `yaml:"radius_in_mm"`
}

type PPContact struct {
	RadiusInMM float64 `yaml:"radius_in_mm"`
	DepthInMM  float64 `yaml:"depth_in_mm"`
}

type Taper struct {
	Top    TaperSide `yaml:"top"`
	Bottom TaperSide `yaml:"bottom"`
}

type TaperSide struct {
	AngleInDeg float64 `yaml:"angle_in_deg"`
	HeightInMM float64 `yaml:"height_in_mm"`
}

type Borehole struct {
	RadiusInMM float64 `yaml:"radius_in_mm"`
	DepthInMM  float64 `yaml:"depth_in_mm"`
}

type Production struct {
	Enrichment float64 `yaml:"enrichment"`
}

var requiredKeys = []string{
	"type",
	"geometry.height_in_mm",
	"geometry.radius_in_mm",
	"geometry.groove.depth_in_mm",
	"geometry.groove.radius_in_mm.outer",
	"geometry.groove.radius_in_mm.inner",
	"geometry.pp_contact.radius_in_mm",
	"geometry.pp_contact.depth_in_mm",
	"geometry.taper.top.angle_in_deg",
	"geometry.taper.top.height_in_mm",
	"geometry.taper.bottom.angle_in_deg",
	"geometry.taper.bottom.height_in_mm",
	"production.enrichment",
}

var boreholeKeys = []string{
	"geometry.borehole.radius_in_mm",
	"geometry.borehole.depth_in_mm",
}

func ParseFile(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading detector metadata: %w", err)
	}

	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	d.SourceFile = path
	return d, nil
}

// Parse reads YAML or JSON metadata. Every required key is checked before
// the document is decoded, so a missing key is always reported by name.
func Parse(content []byte) (*Detector, error) {
	content = bytes.TrimLeft(content, "\ufeff")

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, &InvalidMetadataError{Key: "(document)", Reason: err.Error()}
	}
	if raw == nil {
		return nil, &InvalidMetadataError{Key: "(document)", Reason: "empty document"}
	}
	if err := FromMap(raw); err != nil {
		return nil, err
	}

	var d Detector
	if err := yaml.Unmarshal(content, &d); err != nil {
		return nil, &InvalidMetadataError{Key: "(document)", Reason: err.Error()}
	}
	d.Type = strings.ToLower(strings.TrimSpace(d.Type))
	d.Raw = raw
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// FromMap checks that raw carries every key the shape builders read.
func FromMap(raw map[string]any) error {
	typ, ok := lookup(raw, "type")
	if !ok {
		return &InvalidMetadataError{Key: "type"}
	}
	s, ok := typ.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return &InvalidMetadataError{Key: "type", Reason: "must be a non-empty string"}
	}

	keys := requiredKeys[1:]
	switch strings.ToLower(strings.TrimSpace(s)) {
	case TypeICPC, TypeCoax:
		keys = append(append([]string(nil), keys...), boreholeKeys...)
	}
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			return &InvalidMetadataError{Key: key}
		}
		if !isNumber(v) {
			return &InvalidMetadataError{Key: key, Reason: fmt.Sprintf("must be a number, got %T", v)}
		}
	}
	return nil
}

// Validate checks value ranges that do not depend on the detector type.
func (d *Detector) Validate() error {
	switch d.Type {
	case TypeBEGe, TypePPC, TypeICPC, TypeCoax:
	default:
		return &InvalidMetadataError{Key: "type", Reason: fmt.Sprintf("unsupported detector type %q", d.Type)}
	}
	g := d.Geometry
	positive := map[string]float64{
		"geometry.height_in_mm": g.HeightInMM,
		"geometry.radius_in_mm": g.RadiusInMM,
	}
	for key, v := range positive {
		if v <= 0 {
			return &InvalidMetadataError{Key: key, Reason: fmt.Sprintf("must be positive, got %g", v)}
		}
	}
	nonNegative := map[string]float64{
		"geometry.groove.depth_in_mm":        g.Groove.DepthInMM,
		"geometry.groove.radius_in_mm.outer": g.Groove.RadiusInMM.Outer,
		"geometry.groove.radius_in_mm.inner": g.Groove.RadiusInMM.Inner,
		"geometry.pp_contact.radius_in_mm":   g.PPContact.RadiusInMM,
		"geometry.pp_contact.depth_in_mm":    g.PPContact.DepthInMM,
		"geometry.taper.top.height_in_mm":    g.Taper.Top.HeightInMM,
		"geometry.taper.bottom.height_in_mm": g.Taper.Bottom.HeightInMM,
	}
	for key, v := range nonNegative {
		if v < 0 {
			return &InvalidMetadataError{Key: key, Reason: fmt.Sprintf("must not be negative, got %g", v)}
		}
	}
	for key, v := range map[string]float64{
		"geometry.taper.top.angle_in_deg":    g.Taper.Top.AngleInDeg,
		"geometry.taper.bottom.angle_in_deg": g.Taper.Bottom.AngleInDeg,
	} {
		if v < 0 || v >= 90 {
			return &InvalidMetadataError{Key: key, Reason: fmt.Sprintf("must be in [0, 90), got %g", v)}
		}
	}
	if e := d.Production.Enrichment; e < 0 || e > 1 {
		return &InvalidMetadataError{Key: "production.enrichment", Reason: fmt.Sprintf("must be a fraction in [0, 1], got %g", e)}
	}
	if g.Borehole != nil {
		if g.Borehole.RadiusInMM <= 0 || g.Borehole.DepthInMM <= 0 {
			return &InvalidMetadataError{Key: "geometry.borehole", Reason: "radius and depth must be positive"}
		}
	}
	return nil
}

func lookup(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, uint64, float64:
		return true
	}
	return false
}
