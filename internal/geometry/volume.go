package geometry

import (
	"strings"
)

// RGBA is a display color with components in [0, 1].
type RGBA [4]float64

// LogicalVolume pairs a solid with a material. Daughters are listed in
// placement order.
type LogicalVolume struct {
	ID        LogicalID
	Name      string
	Solid     SolidID
	Material  string
	Daughters []PhysicalID
	Color     *RGBA
}

// PhysicalVolume is one placement of Logical inside Mother.
type PhysicalVolume struct {
	ID        PhysicalID
	Name      string
	Logical   LogicalID
	Mother    LogicalID
	Transform Transform
	Detector  *DetectorInfo
}

func (r *Registry) MakeLogical(solid SolidID, material, name string) (LogicalID, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	if strings.TrimSpace(name) == "" {
		return -1, r.fail(invalid(name, "name", "name is required"))
	}
	if _, exists := r.logicalNames[name]; exists {
		return -1, r.fail(&DuplicateNameError{Kind: "logical volume", Name: name})
	}
	if !r.hasSolid(solid) {
		return -1, r.fail(invalid(name, "solid", "unknown solid id %d", solid))
	}
	if !r.knownMaterial(material) {
		return -1, r.fail(invalid(name, "material", "material %q is neither %s* nor defined in the registry", material, NISTPrefix))
	}

	id := LogicalID(len(r.logicals))
	r.logicals = append(r.logicals, LogicalVolume{ID: id, Name: name, Solid: solid, Material: material})
	r.logicalNames[name] = id
	return id, nil
}

// SetColor attaches a display color to a logical volume.
func (r *Registry) SetColor(lv LogicalID, c RGBA) error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.hasLogical(lv) {
		return r.fail(invalid("", "logical", "unknown logical volume id %d", lv))
	}
	for _, v := range c {
		if !finite(v) || v < 0 || v > 1 {
			return r.fail(invalid(r.logicals[lv].Name, "color", "components must be in [0, 1], got %v", c))
		}
	}
	r.logicals[lv].Color = &c
	return nil
}

// SetWorld designates the root of the volume tree. It may be called once.
func (r *Registry) SetWorld(lv LogicalID) error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.hasLogical(lv) {
		return r.fail(invalid("", "logical", "unknown logical volume id %d", lv))
	}
	if r.world >= 0 {
		return r.fail(&WorldAlreadySetError{Current: r.logicals[r.world].Name})
	}
	if pv, placed := r.placementOf(lv); placed {
		return r.fail(invalid(r.logicals[lv].Name, "", "already placed as %q, the world cannot have a mother", r.physicals[pv].Name))
	}
	r.world = lv
	return nil
}

// Place puts child inside parent. Placing a volume inside itself or inside
// one of its own descendants, or placing the world anywhere, is rejected.
func (r *Registry) Place(t Transform, child LogicalID, name string, parent LogicalID) (PhysicalID, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	if strings.TrimSpace(name) == "" {
		return -1, r.fail(invalid(name, "name", "name is required"))
	}
	if _, exists := r.physicalNames[name]; exists {
		return -1, r.fail(&DuplicateNameError{Kind: "physical volume", Name: name})
	}
	if !r.hasLogical(child) || !r.hasLogical(parent) {
		return -1, r.fail(invalid(name, "", "child and parent must be registered logical volumes"))
	}
	if child == parent || child == r.world || r.IsAncestor(child, parent) {
		return -1, r.fail(&CyclicPlacementError{Child: r.logicals[child].Name, Parent: r.logicals[parent].Name})
	}
	if !t.valid() {
		return -1, r.fail(invalid(name, "transform", "position and rotation must be finite with a known unit"))
	}
	if t.Unit == "" {
		t.Unit = Millimeter
	}

	id := PhysicalID(len(r.physicals))
	r.physicals = append(r.physicals, PhysicalVolume{ID: id, Name: name, Logical: child, Mother: parent, Transform: t})
	r.physicalNames[name] = id
	r.logicals[parent].Daughters = append(r.logicals[parent].Daughters, id)
	return id, nil
}

// IsAncestor reports whether descendant is reachable from ancestor through
// daughter placements.
func (r *Registry) IsAncestor(ancestor, descendant LogicalID) bool {
	if !r.hasLogical(ancestor) || !r.hasLogical(descendant) {
		return false
	}
	seen := make(map[LogicalID]bool)
	stack := []LogicalID{ancestor}
	for len(stack) > 0 {
		lv := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, pv := range r.logicals[lv].Daughters {
			next := r.physicals[pv].Logical
			if next == descendant {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

func (r *Registry) placementOf(lv LogicalID) (PhysicalID, bool) {
	for _, pv := range r.physicals {
		if pv.Logical == lv {
			return pv.ID, true
		}
	}
	return -1, false
}

// Walk visits every physical volume below the world depth first, mothers
// before daughters. It stops at the first error fn returns.
func (r *Registry) Walk(fn func(pv PhysicalVolume, depth int) error) error {
	if r.world < 0 {
		return nil
	}
	var visit func(lv LogicalID, depth int) error
	visit = func(lv LogicalID, depth int) error {
		for _, id := range r.logicals[lv].Daughters {
			pv, _ := r.Physical(id)
			if err := fn(pv, depth); err != nil {
				return err
			}
			if err := visit(pv.Logical, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(r.world, 0)
}

// LogicalExtent is the bounding box of a logical volume's solid in mm.
func (r *Registry) LogicalExtent(lv LogicalID) (Box, error) {
	if !r.hasLogical(lv) {
		return Box{}, invalid("", "logical", "unknown logical volume id %d", lv)
	}
	return r.SolidExtent(r.logicals[lv].Solid)
}

// PlacedExtent is the bounding box of a placement in its mother's frame.
func (r *Registry) PlacedExtent(pv PhysicalID) (Box, error) {
	if !r.hasPhysical(pv) {
		return Box{}, invalid("", "physical", "unknown physical volume id %d", pv)
	}
	p := r.physicals[pv]
	local, err := r.LogicalExtent(p.Logical)
	if err != nil {
		return Box{}, err
	}
	return local.Transform(p.Transform), nil
}
