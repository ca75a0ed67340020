// Package gdml writes a volume tree in the GDML interchange format read by
// the transport engine and the viewer, and reads back the subset it writes.
package gdml

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"teststand/internal/geometry"
)

// Auxiliary types understood by the transport engine and the viewer.
const (
	AuxDetector     = "RMG_detector"
	AuxDetectorMeta = "RMG_detector_meta"
	AuxColor        = "rmg_color"
)

// Tree is what Write reads from a registry.
type Tree interface {
	Err() error
	World() (geometry.LogicalID, bool)
	Materials() []geometry.Material
	Solids() []geometry.Solid
	Logical(id geometry.LogicalID) (geometry.LogicalVolume, bool)
	Logicals() []geometry.LogicalVolume
	Physical(id geometry.PhysicalID) (geometry.PhysicalVolume, bool)
	ActiveDetectors() []geometry.ActiveDetector
}

var _ Tree = (*geometry.Registry)(nil)

func WriteFile(path string, tree Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating gdml file: %w", err)
	}
	if err := Write(f, tree); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write emits the full tree. A registry that rejected a construction step,
// or has no world, is refused.
func Write(w io.Writer, tree Tree) error {
	if err := tree.Err(); err != nil {
		return fmt.Errorf("writing gdml: %w: %v", geometry.ErrRegistryFailed, err)
	}
	world, ok := tree.World()
	if !ok {
		return fmt.Errorf("writing gdml: no world volume set")
	}

	doc := document{
		XSI:      "http://www.w3.org/2001/XMLSchema-instance",
		Location: SchemaLocation,
	}
	doc.Materials = encodeMaterials(tree.Materials())
	all := tree.Solids()
	for _, s := range all {
		doc.Solids.Items = append(doc.Solids.Items, encodeSolid(all, s))
	}

	for _, id := range postOrder(tree) {
		lv, _ := tree.Logical(id)
		doc.Volumes = append(doc.Volumes, encodeVolume(tree, lv))
	}

	info, err := encodeDetectors(tree.ActiveDetectors())
	if err != nil {
		return err
	}
	doc.UserInfo = info

	worldLV, _ := tree.Logical(world)
	doc.Setup = setup{Name: "Default", Version: "1.0", World: ref{Ref: worldLV.Name}}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing gdml: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing gdml: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("writing gdml: %w", err)
	}
	return nil
}

func encodeMaterials(ms []geometry.Material) materials {
	var out materials
	seen := make(map[string]bool)
	for _, m := range ms {
		el := element{Name: m.ElementName()}
		for _, iso := range m.Isotopes {
			if !seen[iso.Isotope.Name] {
				seen[iso.Isotope.Name] = true
				out.Isotopes = append(out.Isotopes, isotope{
					Name: iso.Isotope.Name,
					Z:    iso.Isotope.Z,
					N:    iso.Isotope.N,
					Atom: atom{Unit: "g/mole", Value: iso.Isotope.A},
				})
			}
			el.Fractions = append(el.Fractions, fraction{Ref: iso.Isotope.Name, N: iso.Fraction})
		}
		out.Elements = append(out.Elements, el)
		out.Materials = append(out.Materials, material{
			Name:      m.Name,
			State:     m.State,
			D:         atom{Unit: "g/cm3", Value: m.Density},
			Fractions: []fraction{{Ref: el.Name, N: 1}},
		})
	}
	return out
}

func encodeSolid(all []geometry.Solid, s geometry.Solid) solid {
	out := solid{Name: s.Name}
	switch sh := s.Shape.(type) {
	case geometry.BoxShape:
		out.XMLName.Local = "box"
		out.LUnit = string(s.LUnit)
		out.X, out.Y, out.Z = formatFloat(sh.X), formatFloat(sh.Y), formatFloat(sh.Z)
	case geometry.TubeShape:
		out.XMLName.Local = "tube"
		out.LUnit, out.AUnit = string(s.LUnit), string(s.AUnit)
		out.RMin, out.RMax, out.Z = formatFloat(sh.RMin), formatFloat(sh.RMax), formatFloat(sh.Z)
		out.StartPhi, out.DeltaPhi = formatFloat(sh.StartPhi), formatFloat(sh.DeltaPhi)
	case geometry.GenericPolyconeShape:
		out.XMLName.Local = "genericPolycone"
		out.LUnit, out.AUnit = string(s.LUnit), string(s.AUnit)
		out.StartPhi, out.DeltaPhi = formatFloat(sh.StartPhi), formatFloat(sh.DeltaPhi)
		for _, p := range sh.Points {
			out.RZPoints = append(out.RZPoints, rzPoint{R: formatFloat(p.R), Z: formatFloat(p.Z)})
		}
	case geometry.BooleanShape:
		out.XMLName.Local = sh.Op.String()
		out.First, out.Second = &ref{Ref: all[sh.First].Name}, &ref{Ref: all[sh.Second].Name}
		out.Position, out.Rotation = encodeTransform(s.Name, sh.Placement)
	}
	return out
}

func encodeTransform(name string, t geometry.Transform) (*vector, *vector) {
	unit := t.Unit
	if unit == "" {
		unit = geometry.Millimeter
	}
	pos := &vector{
		Name: name + "_pos",
		Unit: string(unit),
		X:    formatFloat(t.Position.X),
		Y:    formatFloat(t.Position.Y),
		Z:    formatFloat(t.Position.Z),
	}
	if t.Rotation.X == 0 && t.Rotation.Y == 0 && t.Rotation.Z == 0 {
		return pos, nil
	}
	rot := &vector{
		Name: name + "_rot",
		Unit: string(geometry.Degree),
		X:    formatFloat(t.Rotation.X),
		Y:    formatFloat(t.Rotation.Y),
		Z:    formatFloat(t.Rotation.Z),
	}
	return pos, rot
}

// postOrder lists logical volumes with daughters before their mothers, as
// a GDML reader resolves volumeref only against earlier volumes.
func postOrder(tree Tree) []geometry.LogicalID {
	var out []geometry.LogicalID
	done := make(map[geometry.LogicalID]bool)
	var visit func(id geometry.LogicalID)
	visit = func(id geometry.LogicalID) {
		if done[id] {
			return
		}
		done[id] = true
		lv, _ := tree.Logical(id)
		for _, pvID := range lv.Daughters {
			pv, _ := tree.Physical(pvID)
			visit(pv.Logical)
		}
		out = append(out, id)
	}
	for _, lv := range tree.Logicals() {
		visit(lv.ID)
	}
	return out
}

func encodeVolume(tree Tree, lv geometry.LogicalVolume) volume {
	all := tree.Solids()
	v := volume{
		Name:        lv.Name,
		MaterialRef: ref{Ref: lv.Material},
		SolidRef:    ref{Ref: all[lv.Solid].Name},
	}
	for _, pvID := range lv.Daughters {
		pv, _ := tree.Physical(pvID)
		child, _ := tree.Logical(pv.Logical)
		pos, rot := encodeTransform(pv.Name, pv.Transform)
		v.PhysVols = append(v.PhysVols, physVol{
			Name:      pv.Name,
			VolumeRef: ref{Ref: child.Name},
			Position:  pos,
			Rotation:  rot,
		})
	}
	if lv.Color != nil {
		parts := make([]string, len(lv.Color))
		for i, c := range lv.Color {
			parts[i] = formatFloat(c)
		}
		v.Auxiliaries = append(v.Auxiliaries, auxiliary{Type: AuxColor, Value: strings.Join(parts, ",")})
	}
	return v
}

// encodeDetectors groups active volumes by scheme under RMG_detector and
// stores each volume's metadata as JSON under RMG_detector_meta.
func encodeDetectors(active []geometry.ActiveDetector) (*userInfo, error) {
	if len(active) == 0 {
		return nil, nil
	}

	byScheme := make(map[string][]auxiliary)
	meta := auxiliary{Type: AuxDetectorMeta, Value: ""}
	for _, det := range active {
		byScheme[det.Info.Scheme] = append(byScheme[det.Info.Scheme], auxiliary{
			Type:  det.Name,
			Value: strconv.Itoa(det.Info.UID),
		})
		blob, err := json.Marshal(det.Info.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata of %s: %w", det.Name, err)
		}
		meta.Children = append(meta.Children, auxiliary{Type: det.Name, Value: string(blob)})
	}

	schemes := make([]string, 0, len(byScheme))
	for s := range byScheme {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)

	info := &userInfo{}
	for _, s := range schemes {
		info.Auxiliaries = append(info.Auxiliaries, auxiliary{Type: AuxDetector, Value: s, Children: byScheme[s]})
	}
	info.Auxiliaries = append(info.Auxiliaries, meta)
	return info, nil
}
