package gdml

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"teststand/internal/geometry"
)

func ReadFile(path string) (*geometry.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gdml file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read rebuilds a registry from a document produced by Write. Solids,
// volumes and materials are resolved by name in document order, so
// references must point backwards.
func Read(r io.Reader) (*geometry.Registry, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding gdml: %w", err)
	}

	reg := geometry.NewRegistry()
	if err := readMaterials(reg, doc.Materials); err != nil {
		return nil, err
	}
	for _, s := range doc.Solids.Items {
		if err := readSolid(reg, s); err != nil {
			return nil, err
		}
	}
	for _, v := range doc.Volumes {
		if err := readVolume(reg, v); err != nil {
			return nil, err
		}
	}

	world, ok := reg.LogicalByName(doc.Setup.World.Ref)
	if !ok {
		return nil, fmt.Errorf("setup references unknown world volume %q", doc.Setup.World.Ref)
	}
	if err := reg.SetWorld(world); err != nil {
		return nil, err
	}

	if doc.UserInfo != nil {
		if err := readDetectors(reg, doc.UserInfo.Auxiliaries); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func readMaterials(reg *geometry.Registry, m materials) error {
	isotopes := make(map[string]geometry.Isotope, len(m.Isotopes))
	for _, iso := range m.Isotopes {
		isotopes[iso.Name] = geometry.Isotope{Name: iso.Name, Z: iso.Z, N: iso.N, A: iso.Atom.Value}
	}
	elements := make(map[string][]geometry.IsotopeFraction, len(m.Elements))
	for _, el := range m.Elements {
		var fracs []geometry.IsotopeFraction
		for _, f := range el.Fractions {
			iso, ok := isotopes[f.Ref]
			if !ok {
				return fmt.Errorf("element %q references unknown isotope %q", el.Name, f.Ref)
			}
			fracs = append(fracs, geometry.IsotopeFraction{Isotope: iso, Fraction: f.N})
		}
		elements[el.Name] = fracs
	}

	for _, mat := range m.Materials {
		if len(mat.Fractions) != 1 {
			return fmt.Errorf("material %q must be made of exactly one element", mat.Name)
		}
		fracs, ok := elements[mat.Fractions[0].Ref]
		if !ok {
			return fmt.Errorf("material %q references unknown element %q", mat.Name, mat.Fractions[0].Ref)
		}
		err := reg.DefineMaterial(geometry.Material{
			Name:     mat.Name,
			State:    mat.State,
			Density:  mat.D.Value,
			Isotopes: fracs,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// floats parses solid attributes, treating an absent attribute as zero.
type floats struct {
	name string
	err  error
}

func (p *floats) get(attr, v string) float64 {
	if p.err != nil || v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.err = fmt.Errorf("solid %q attribute %s: %w", p.name, attr, err)
	}
	return f
}

func readSolid(reg *geometry.Registry, s solid) error {
	p := &floats{name: s.Name}
	lunit, err := geometry.ParseLengthUnit(s.LUnit)
	if err != nil {
		return fmt.Errorf("solid %q: %w", s.Name, err)
	}
	aunit, err := geometry.ParseAngleUnit(s.AUnit)
	if err != nil {
		return fmt.Errorf("solid %q: %w", s.Name, err)
	}

	var shape geometry.Shape
	switch s.XMLName.Local {
	case "box":
		shape = geometry.BoxShape{X: p.get("x", s.X), Y: p.get("y", s.Y), Z: p.get("z", s.Z)}
	case "tube":
		shape = geometry.TubeShape{
			RMin:     p.get("rmin", s.RMin),
			RMax:     p.get("rmax", s.RMax),
			Z:        p.get("z", s.Z),
			StartPhi: p.get("startphi", s.StartPhi),
			DeltaPhi: p.get("deltaphi", s.DeltaPhi),
		}
	case "genericPolycone":
		pc := geometry.GenericPolyconeShape{
			StartPhi: p.get("startphi", s.StartPhi),
			DeltaPhi: p.get("deltaphi", s.DeltaPhi),
		}
		for _, pt := range s.RZPoints {
			pc.Points = append(pc.Points, geometry.RZ{R: p.get("r", pt.R), Z: p.get("z", pt.Z)})
		}
		shape = pc
	case "union", "subtraction", "intersection":
		b, err := readBoolean(reg, s)
		if err != nil {
			return err
		}
		shape = b
		lunit, aunit = "", ""
	default:
		return fmt.Errorf("solid %q: unsupported kind %q", s.Name, s.XMLName.Local)
	}
	if p.err != nil {
		return p.err
	}
	_, err = reg.MakeSolid(s.Name, shape, lunit, aunit)
	return err
}

func readBoolean(reg *geometry.Registry, s solid) (geometry.BooleanShape, error) {
	var b geometry.BooleanShape
	switch s.XMLName.Local {
	case "union":
		b.Op = geometry.KindUnion
	case "subtraction":
		b.Op = geometry.KindSubtraction
	default:
		b.Op = geometry.KindIntersection
	}
	if s.First == nil || s.Second == nil {
		return b, fmt.Errorf("boolean solid %q needs first and second", s.Name)
	}
	var ok bool
	if b.First, ok = reg.SolidByName(s.First.Ref); !ok {
		return b, fmt.Errorf("boolean solid %q references unknown solid %q", s.Name, s.First.Ref)
	}
	if b.Second, ok = reg.SolidByName(s.Second.Ref); !ok {
		return b, fmt.Errorf("boolean solid %q references unknown solid %q", s.Name, s.Second.Ref)
	}
	t, err := readTransform(s.Name, s.Position, s.Rotation)
	if err != nil {
		return b, err
	}
	b.Placement = t
	return b, nil
}

func readTransform(name string, pos, rot *vector) (geometry.Transform, error) {
	t := geometry.Transform{Unit: geometry.Millimeter}
	p := &floats{name: name}
	if pos != nil {
		unit, err := geometry.ParseLengthUnit(pos.Unit)
		if err != nil {
			return t, fmt.Errorf("%q position: %w", name, err)
		}
		t.Unit = unit
		t.Position = r3.Vec{X: p.get("x", pos.X), Y: p.get("y", pos.Y), Z: p.get("z", pos.Z)}
	}
	if rot != nil {
		unit, err := geometry.ParseAngleUnit(rot.Unit)
		if err != nil {
			return t, fmt.Errorf("%q rotation: %w", name, err)
		}
		deg := func(v float64) float64 {
			if unit == geometry.Degree {
				return v
			}
			return v * 180 / math.Pi
		}
		t.Rotation = r3.Vec{X: deg(p.get("x", rot.X)), Y: deg(p.get("y", rot.Y)), Z: deg(p.get("z", rot.Z))}
	}
	return t, p.err
}

func readVolume(reg *geometry.Registry, v volume) error {
	sid, ok := reg.SolidByName(v.SolidRef.Ref)
	if !ok {
		return fmt.Errorf("volume %q references unknown solid %q", v.Name, v.SolidRef.Ref)
	}
	lv, err := reg.MakeLogical(sid, v.MaterialRef.Ref, v.Name)
	if err != nil {
		return err
	}
	for _, aux := range v.Auxiliaries {
		if aux.Type != AuxColor {
			continue
		}
		c, err := parseColor(aux.Value)
		if err != nil {
			return fmt.Errorf("volume %q: %w", v.Name, err)
		}
		if err := reg.SetColor(lv, c); err != nil {
			return err
		}
	}
	for _, pv := range v.PhysVols {
		child, ok := reg.LogicalByName(pv.VolumeRef.Ref)
		if !ok {
			return fmt.Errorf("physvol %q references unknown volume %q", pv.Name, pv.VolumeRef.Ref)
		}
		t, err := readTransform(pv.Name, pv.Position, pv.Rotation)
		if err != nil {
			return err
		}
		if _, err := reg.Place(t, child, pv.Name, lv); err != nil {
			return err
		}
	}
	return nil
}

func parseColor(s string) (geometry.RGBA, error) {
	var c geometry.RGBA
	parts := strings.Split(s, ",")
	if len(parts) != len(c) {
		return c, fmt.Errorf("color %q needs %d components", s, len(c))
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return c, fmt.Errorf("color %q: %w", s, err)
		}
		c[i] = v
	}
	return c, nil
}

func readDetectors(reg *geometry.Registry, auxs []auxiliary) error {
	meta := make(map[string]map[string]any)
	for _, aux := range auxs {
		if aux.Type != AuxDetectorMeta {
			continue
		}
		for _, child := range aux.Children {
			var m map[string]any
			if err := json.Unmarshal([]byte(child.Value), &m); err != nil {
				return fmt.Errorf("decoding metadata of %q: %w", child.Type, err)
			}
			meta[child.Type] = m
		}
	}

	for _, aux := range auxs {
		if aux.Type != AuxDetector {
			continue
		}
		for _, child := range aux.Children {
			pv, ok := reg.PhysicalByName(child.Type)
			if !ok {
				return fmt.Errorf("detector entry references unknown physical volume %q", child.Type)
			}
			uid, err := strconv.Atoi(strings.TrimSpace(child.Value))
			if err != nil {
				return fmt.Errorf("detector %q: invalid uid %q", child.Type, child.Value)
			}
			info := geometry.DetectorInfo{Scheme: aux.Value, UID: uid, Metadata: meta[child.Type]}
			if err := reg.MarkActive(pv, info, false); err != nil {
				return err
			}
		}
	}
	return nil
}
