// Package geometry holds the solid catalog and volume tree of one geometry
// build. Every object lives in an arena owned by a Registry and is referred
// to by a typed index; names resolve to indices through per-kind maps.
//
// A Registry is not safe for concurrent use. Concurrent builds each need
// their own. Once any construction step fails the registry refuses further
// mutation, so callers never hand a half-built tree downstream.
package geometry

import (
	"fmt"
)

type (
	SolidID    int
	LogicalID  int
	PhysicalID int
)

type Registry struct {
	solids     []Solid
	solidNames map[string]SolidID

	materials     []Material
	materialNames map[string]int

	logicals     []LogicalVolume
	logicalNames map[string]LogicalID

	physicals     []PhysicalVolume
	physicalNames map[string]PhysicalID

	world    LogicalID
	channels map[int]PhysicalID

	err error
}

func NewRegistry() *Registry {
	return &Registry{
		solidNames:    make(map[string]SolidID),
		materialNames: make(map[string]int),
		logicalNames:  make(map[string]LogicalID),
		physicalNames: make(map[string]PhysicalID),
		world:         -1,
		channels:      make(map[int]PhysicalID),
	}
}

// Err returns the first construction error the registry rejected, or nil.
func (r *Registry) Err() error {
	return r.err
}

func (r *Registry) check() error {
	if r.err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryFailed, r.err)
	}
	return nil
}

func (r *Registry) fail(err error) error {
	if r.err == nil {
		r.err = err
	}
	return err
}

func (r *Registry) hasSolid(id SolidID) bool       { return id >= 0 && int(id) < len(r.solids) }
func (r *Registry) hasLogical(id LogicalID) bool   { return id >= 0 && int(id) < len(r.logicals) }
func (r *Registry) hasPhysical(id PhysicalID) bool { return id >= 0 && int(id) < len(r.physicals) }

func (r *Registry) Solid(id SolidID) (Solid, bool) {
	if !r.hasSolid(id) {
		return Solid{}, false
	}
	return r.solids[id], true
}

func (r *Registry) SolidByName(name string) (SolidID, bool) {
	id, ok := r.solidNames[name]
	return id, ok
}

// Solids returns every solid in creation order. Operands always precede the
// boolean solids that use them.
func (r *Registry) Solids() []Solid {
	return append([]Solid(nil), r.solids...)
}

func (r *Registry) Logical(id LogicalID) (LogicalVolume, bool) {
	if !r.hasLogical(id) {
		return LogicalVolume{}, false
	}
	lv := r.logicals[id]
	lv.Daughters = append([]PhysicalID(nil), lv.Daughters...)
	return lv, true
}

func (r *Registry) LogicalByName(name string) (LogicalID, bool) {
	id, ok := r.logicalNames[name]
	return id, ok
}

func (r *Registry) Logicals() []LogicalVolume {
	out := make([]LogicalVolume, 0, len(r.logicals))
	for i := range r.logicals {
		lv, _ := r.Logical(LogicalID(i))
		out = append(out, lv)
	}
	return out
}

func (r *Registry) Physical(id PhysicalID) (PhysicalVolume, bool) {
	if !r.hasPhysical(id) {
		return PhysicalVolume{}, false
	}
	pv := r.physicals[id]
	if pv.Detector != nil {
		info := pv.Detector.clone()
		pv.Detector = &info
	}
	return pv, true
}

func (r *Registry) PhysicalByName(name string) (PhysicalID, bool) {
	id, ok := r.physicalNames[name]
	return id, ok
}

func (r *Registry) Physicals() []PhysicalVolume {
	out := make([]PhysicalVolume, 0, len(r.physicals))
	for i := range r.physicals {
		pv, _ := r.Physical(PhysicalID(i))
		out = append(out, pv)
	}
	return out
}

// World returns the root logical volume, if one has been set.
func (r *Registry) World() (LogicalID, bool) {
	return r.world, r.world >= 0
}
