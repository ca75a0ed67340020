// Package hpge turns detector metadata into a germanium crystal: an (r, z)
// profile revolved about the crystal axis, made of enriched germanium.
//
// Profiles put the p+ contact face at z = 0 and the crystal top at
// z = height, so a crystal placed at the origin occupies [0, height].
package hpge

import (
	"fmt"
	"math"
	"sort"

	"teststand/internal/geometry"
	"teststand/internal/metadata"
)

// Shaper builds the closed (r, z) outline of one detector type. Points run
// counterclockwise, starting on the axis at the bottom.
type Shaper interface {
	Profile(d *metadata.Detector) ([]geometry.RZ, error)
}

// ShaperFunc adapts a plain function to Shaper.
type ShaperFunc func(d *metadata.Detector) ([]geometry.RZ, error)

func (f ShaperFunc) Profile(d *metadata.Detector) ([]geometry.RZ, error) { return f(d) }

var shapers = map[string]Shaper{
	metadata.TypeBEGe: ShaperFunc(pointContactProfile),
	metadata.TypePPC:  ShaperFunc(pointContactProfile),
	metadata.TypeICPC: ShaperFunc(invertedCoaxialProfile),
	metadata.TypeCoax: ShaperFunc(coaxialProfile),
}

// Types lists the detector types with a registered shaper.
func Types() []string {
	out := make([]string, 0, len(shapers))
	for k := range shapers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Profile returns the outline for d using the shaper for its type.
func Profile(d *metadata.Detector) ([]geometry.RZ, error) {
	s, ok := shapers[d.Type]
	if !ok {
		return nil, &metadata.InvalidMetadataError{Key: "type", Reason: fmt.Sprintf("no shape builder for %q", d.Type)}
	}
	return s.Profile(d)
}

// Build registers the crystal's material, solid and logical volume in reg
// and returns the logical volume.
func Build(reg *geometry.Registry, d *metadata.Detector, name string) (geometry.LogicalID, error) {
	points, err := Profile(d)
	if err != nil {
		return -1, err
	}
	material, err := DefineEnrichedGermanium(reg, d.Production.Enrichment)
	if err != nil {
		return -1, err
	}
	solid, err := reg.MakeGenericPolycone(name+"_solid", points, geometry.Millimeter)
	if err != nil {
		return -1, err
	}
	return reg.MakeLogical(solid, material, name)
}

// lowerOutline is the outline from the groove outwards and up to the top
// taper, shared by every type.
func lowerOutline(g metadata.Geometry) ([]geometry.RZ, error) {
	R, H := g.RadiusInMM, g.HeightInMM
	bottomR := taperRadius(g.Taper.Bottom)
	topR := taperRadius(g.Taper.Top)

	switch {
	case g.Taper.Bottom.HeightInMM+g.Taper.Top.HeightInMM >= H:
		return nil, &metadata.InvalidMetadataError{Key: "geometry.taper", Reason: "taper heights exceed the crystal height"}
	case bottomR >= R || topR >= R:
		return nil, &metadata.InvalidMetadataError{Key: "geometry.taper", Reason: "taper cuts through the crystal axis"}
	case g.Groove.DepthInMM >= H:
		return nil, &metadata.InvalidMetadataError{Key: "geometry.groove.depth_in_mm", Reason: "groove is deeper than the crystal"}
	}

	var pts []geometry.RZ
	if g.Groove.DepthInMM > 0 {
		in, out := g.Groove.RadiusInMM.Inner, g.Groove.RadiusInMM.Outer
		if in >= out {
			return nil, &metadata.InvalidMetadataError{Key: "geometry.groove.radius_in_mm", Reason: "inner radius must be below outer radius"}
		}
		if out >= R-bottomR {
			return nil, &metadata.InvalidMetadataError{Key: "geometry.groove.radius_in_mm.outer", Reason: "groove reaches the crystal edge"}
		}
		pts = append(pts,
			geometry.RZ{R: in, Z: 0},
			geometry.RZ{R: in, Z: g.Groove.DepthInMM},
			geometry.RZ{R: out, Z: g.Groove.DepthInMM},
			geometry.RZ{R: out, Z: 0},
		)
	}
	pts = append(pts,
		geometry.RZ{R: R - bottomR, Z: 0},
		geometry.RZ{R: R, Z: g.Taper.Bottom.HeightInMM},
		geometry.RZ{R: R, Z: H - g.Taper.Top.HeightInMM},
		geometry.RZ{R: R - topR, Z: H},
	)
	return pts, nil
}

// pointContactProfile covers BEGe and PPC crystals: a p+ contact dimple on
// the axis at the bottom, surrounded by the groove.
func pointContactProfile(d *metadata.Detector) ([]geometry.RZ, error) {
	g := d.Geometry
	pts, err := bottomContact(g)
	if err != nil {
		return nil, err
	}
	rest, err := lowerOutline(g)
	if err != nil {
		return nil, err
	}
	pts = append(pts, rest...)
	pts = append(pts, geometry.RZ{R: 0, Z: g.HeightInMM})
	return clean(pts), nil
}

// invertedCoaxialProfile adds a borehole drilled from the top.
func invertedCoaxialProfile(d *metadata.Detector) ([]geometry.RZ, error) {
	g := d.Geometry
	if g.Borehole == nil {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.borehole.radius_in_mm"}
	}
	b := *g.Borehole
	if b.DepthInMM >= g.HeightInMM-g.PPContact.DepthInMM {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.borehole.depth_in_mm", Reason: "borehole reaches the p+ contact"}
	}
	if b.RadiusInMM >= g.RadiusInMM-taperRadius(g.Taper.Top) {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.borehole.radius_in_mm", Reason: "borehole is wider than the crystal top"}
	}

	pts, err := bottomContact(g)
	if err != nil {
		return nil, err
	}
	rest, err := lowerOutline(g)
	if err != nil {
		return nil, err
	}
	pts = append(pts, rest...)
	pts = append(pts,
		geometry.RZ{R: b.RadiusInMM, Z: g.HeightInMM},
		geometry.RZ{R: b.RadiusInMM, Z: g.HeightInMM - b.DepthInMM},
		geometry.RZ{R: 0, Z: g.HeightInMM - b.DepthInMM},
	)
	return clean(pts), nil
}

// coaxialProfile has the borehole open at the bottom, where the p+ contact
// lines it, so the crystal never touches the axis below the borehole end.
func coaxialProfile(d *metadata.Detector) ([]geometry.RZ, error) {
	g := d.Geometry
	if g.Borehole == nil {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.borehole.radius_in_mm"}
	}
	b := *g.Borehole
	if b.DepthInMM >= g.HeightInMM {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.borehole.depth_in_mm", Reason: "borehole is deeper than the crystal"}
	}
	if g.Groove.DepthInMM > 0 && b.RadiusInMM >= g.Groove.RadiusInMM.Inner {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.borehole.radius_in_mm", Reason: "borehole overlaps the groove"}
	}
	if b.RadiusInMM >= g.RadiusInMM-taperRadius(g.Taper.Bottom) {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.borehole.radius_in_mm", Reason: "borehole is wider than the crystal bottom"}
	}

	pts := []geometry.RZ{
		{R: 0, Z: b.DepthInMM},
		{R: b.RadiusInMM, Z: b.DepthInMM},
		{R: b.RadiusInMM, Z: 0},
	}
	rest, err := lowerOutline(g)
	if err != nil {
		return nil, err
	}
	pts = append(pts, rest...)
	pts = append(pts, geometry.RZ{R: 0, Z: g.HeightInMM})
	return clean(pts), nil
}

func bottomContact(g metadata.Geometry) ([]geometry.RZ, error) {
	pp := g.PPContact
	if g.Groove.DepthInMM > 0 && pp.RadiusInMM > g.Groove.RadiusInMM.Inner {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.pp_contact.radius_in_mm", Reason: "p+ contact overlaps the groove"}
	}
	if pp.DepthInMM >= g.HeightInMM {
		return nil, &metadata.InvalidMetadataError{Key: "geometry.pp_contact.depth_in_mm", Reason: "contact is deeper than the crystal"}
	}
	return []geometry.RZ{
		{R: 0, Z: pp.DepthInMM},
		{R: pp.RadiusInMM, Z: pp.DepthInMM},
		{R: pp.RadiusInMM, Z: 0},
	}, nil
}

func taperRadius(t metadata.TaperSide) float64 {
	return t.HeightInMM * math.Tan(t.AngleInDeg*math.Pi/180)
}

// clean drops repeated vertices, which appear whenever a contact, groove or
// taper has zero size, and vertices lying on a straight run.
func clean(pts []geometry.RZ) []geometry.RZ {
	const eps = 1e-9
	same := func(a, b geometry.RZ) bool {
		return math.Abs(a.R-b.R) < eps && math.Abs(a.Z-b.Z) < eps
	}

	out := make([]geometry.RZ, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && same(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && same(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}

	collinear := func(a, b, c geometry.RZ) bool {
		return math.Abs((b.R-a.R)*(c.Z-a.Z)-(b.Z-a.Z)*(c.R-a.R)) < eps
	}
	for changed := true; changed && len(out) > 3; {
		changed = false
		for i := range out {
			prev := out[(i+len(out)-1)%len(out)]
			next := out[(i+1)%len(out)]
			if collinear(prev, out[i], next) {
				out = append(out[:i], out[i+1:]...)
				changed = true
				break
			}
		}
	}
	return out
}
