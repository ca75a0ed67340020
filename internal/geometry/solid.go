package geometry

import (
	"math"
)

// SolidKind enumerates the shapes a registry can hold.
type SolidKind int

const (
	KindBox SolidKind = iota
	KindTube
	KindGenericPolycone
	KindUnion
	KindSubtraction
	KindIntersection
)

func (k SolidKind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindTube:
		return "tube"
	case KindGenericPolycone:
		return "genericPolycone"
	case KindUnion:
		return "union"
	case KindSubtraction:
		return "subtraction"
	case KindIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// IsBoolean reports whether the kind combines two operand solids.
func (k SolidKind) IsBoolean() bool {
	return k == KindUnion || k == KindSubtraction || k == KindIntersection
}

// Shape is the kind-specific parameter set of a solid.
type Shape interface {
	Kind() SolidKind
	shape() // marker method restricting implementations to this package
}

// BoxShape holds full edge lengths, as GDML does.
type BoxShape struct {
	X, Y, Z float64
}

func (BoxShape) Kind() SolidKind { return KindBox }
func (BoxShape) shape()          {}

// TubeShape is a (possibly hollow, possibly segmented) cylinder. Z is the
// full length; StartPhi and DeltaPhi are in the solid's angle unit.
type TubeShape struct {
	RMin, RMax, Z      float64
	StartPhi, DeltaPhi float64
}

func (TubeShape) Kind() SolidKind { return KindTube }
func (TubeShape) shape()          {}

// RZ is one vertex of a polycone profile.
type RZ struct {
	R, Z float64
}

// GenericPolyconeShape rotates a closed (r, z) polygon about the z axis.
type GenericPolyconeShape struct {
	StartPhi, DeltaPhi float64
	Points             []RZ
}

func (GenericPolyconeShape) Kind() SolidKind { return KindGenericPolycone }
func (GenericPolyconeShape) shape()          {}

// BooleanShape combines First with Second moved by Placement.
type BooleanShape struct {
	Op        SolidKind
	First     SolidID
	Second    SolidID
	Placement Transform
}

func (b BooleanShape) Kind() SolidKind { return b.Op }
func (BooleanShape) shape()            {}

// Solid is an immutable registered shape.
type Solid struct {
	ID    SolidID
	Name  string
	Shape Shape
	LUnit LengthUnit
	AUnit AngleUnit
}

// Kind is shorthand for s.Shape.Kind().
func (s Solid) Kind() SolidKind { return s.Shape.Kind() }

// MakeBox registers a box with full edge lengths x, y, z.
func (r *Registry) MakeBox(name string, x, y, z float64, unit LengthUnit) (SolidID, error) {
	return r.MakeSolid(name, BoxShape{X: x, Y: y, Z: z}, unit, "")
}

// MakeTube registers a full-circle tube shell. rmin may be zero for a disk.
func (r *Registry) MakeTube(name string, rmin, rmax, z float64, unit LengthUnit) (SolidID, error) {
	return r.MakeSolid(name, TubeShape{RMin: rmin, RMax: rmax, Z: z, DeltaPhi: 2 * math.Pi}, unit, Radian)
}

// MakeGenericPolycone registers a full-circle solid of revolution.
func (r *Registry) MakeGenericPolycone(name string, points []RZ, unit LengthUnit) (SolidID, error) {
	pts := append([]RZ(nil), points...)
	return r.MakeSolid(name, GenericPolyconeShape{DeltaPhi: 2 * math.Pi, Points: pts}, unit, Radian)
}

func (r *Registry) MakeUnion(name string, a, b SolidID, rel Transform) (SolidID, error) {
	return r.MakeSolid(name, BooleanShape{Op: KindUnion, First: a, Second: b, Placement: rel}, "", "")
}

func (r *Registry) MakeSubtraction(name string, a, b SolidID, rel Transform) (SolidID, error) {
	return r.MakeSolid(name, BooleanShape{Op: KindSubtraction, First: a, Second: b, Placement: rel}, "", "")
}

func (r *Registry) MakeIntersection(name string, a, b SolidID, rel Transform) (SolidID, error) {
	return r.MakeSolid(name, BooleanShape{Op: KindIntersection, First: a, Second: b, Placement: rel}, "", "")
}

// MakeSolid validates shape and registers it under name. Length and angle
// units are per solid; boolean solids carry none of their own.
func (r *Registry) MakeSolid(name string, shape Shape, lunit LengthUnit, aunit AngleUnit) (SolidID, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	if name == "" {
		return -1, r.fail(invalid(name, "name", "name is required"))
	}
	if _, exists := r.solidNames[name]; exists {
		return -1, r.fail(&DuplicateNameError{Kind: "solid", Name: name})
	}
	if lunit == "" {
		lunit = Millimeter
	}
	if aunit == "" {
		aunit = Radian
	}
	if !lunit.valid() {
		return -1, r.fail(invalid(name, "lunit", "unknown length unit %q", lunit))
	}
	if !aunit.valid() {
		return -1, r.fail(invalid(name, "aunit", "unknown angle unit %q", aunit))
	}
	if err := r.validateShape(name, shape, aunit); err != nil {
		return -1, r.fail(err)
	}
	if b, ok := shape.(BooleanShape); ok && b.Placement.Unit == "" {
		b.Placement.Unit = Millimeter
		shape = b
	}

	id := SolidID(len(r.solids))
	r.solids = append(r.solids, Solid{ID: id, Name: name, Shape: shape, LUnit: lunit, AUnit: aunit})
	r.solidNames[name] = id
	return id, nil
}

func (r *Registry) validateShape(name string, shape Shape, aunit AngleUnit) error {
	switch s := shape.(type) {
	case BoxShape:
		if !finite(s.X, s.Y, s.Z) {
			return invalid(name, "", "box dimensions must be finite")
		}
		// strictly positive: a zero edge gives an empty solid
		if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
			return invalid(name, "", "box dimensions must be positive, got %g x %g x %g", s.X, s.Y, s.Z)
		}
	case TubeShape:
		if !finite(s.RMin, s.RMax, s.Z, s.StartPhi, s.DeltaPhi) {
			return invalid(name, "", "tube parameters must be finite")
		}
		if s.RMin < 0 {
			return invalid(name, "rmin", "must be non-negative, got %g", s.RMin)
		}
		// rmin may be zero, rmax and z may not
		if s.RMax <= 0 || s.Z <= 0 {
			return invalid(name, "", "rmax and z must be positive, got rmax=%g z=%g", s.RMax, s.Z)
		}
		if s.RMin > s.RMax {
			return invalid(name, "rmin", "inner radius %g exceeds outer radius %g", s.RMin, s.RMax)
		}
		if err := validatePhi(name, s.DeltaPhi, aunit); err != nil {
			return err
		}
	case GenericPolyconeShape:
		if len(s.Points) < 3 {
			return invalid(name, "points", "need at least 3 (r, z) points, got %d", len(s.Points))
		}
		for i, p := range s.Points {
			if !finite(p.R, p.Z) {
				return invalid(name, "points", "point %d is not finite", i)
			}
			if p.R < 0 {
				return invalid(name, "points", "point %d has negative radius %g", i, p.R)
			}
		}
		if err := validatePhi(name, s.DeltaPhi, aunit); err != nil {
			return err
		}
	case BooleanShape:
		if !s.Op.IsBoolean() {
			return invalid(name, "", "%s is not a boolean operation", s.Op)
		}
		if !r.hasSolid(s.First) || !r.hasSolid(s.Second) {
			return invalid(name, "", "boolean operands must be registered solids")
		}
		if s.First == s.Second {
			return invalid(name, "", "boolean operands must differ")
		}
		if !s.Placement.valid() {
			return invalid(name, "placement", "relative placement must be finite with a known unit")
		}
	case nil:
		return invalid(name, "", "shape is required")
	default:
		return invalid(name, "", "unsupported shape %T", shape)
	}
	return nil
}

func validatePhi(name string, deltaPhi float64, aunit AngleUnit) error {
	rad := aunit.ToRad(deltaPhi)
	if rad <= 0 || rad > 2*math.Pi+1e-9 {
		return invalid(name, "deltaphi", "must be in (0, 2pi], got %g %s", deltaPhi, aunit)
	}
	return nil
}

// SolidExtent returns the bounding box of a solid in its own frame, in mm.
// Segmented tubes and polycones are bounded by their full circle.
func (r *Registry) SolidExtent(id SolidID) (Box, error) {
	s, ok := r.Solid(id)
	if !ok {
		return Box{}, invalid("", "solid", "unknown solid id %d", id)
	}
	mm := s.LUnit.ToMM
	switch sh := s.Shape.(type) {
	case BoxShape:
		return centeredBox(mm(sh.X), mm(sh.Y), mm(sh.Z)), nil
	case TubeShape:
		d := 2 * mm(sh.RMax)
		return centeredBox(d, d, mm(sh.Z)), nil
	case GenericPolyconeShape:
		rmax, zmin, zmax := 0.0, math.Inf(1), math.Inf(-1)
		for _, p := range sh.Points {
			rmax = math.Max(rmax, p.R)
			zmin = math.Min(zmin, p.Z)
			zmax = math.Max(zmax, p.Z)
		}
		return Box{
			Min: r3vec(-mm(rmax), -mm(rmax), mm(zmin)),
			Max: r3vec(mm(rmax), mm(rmax), mm(zmax)),
		}, nil
	case BooleanShape:
		first, err := r.SolidExtent(sh.First)
		if err != nil {
			return Box{}, err
		}
		second, err := r.SolidExtent(sh.Second)
		if err != nil {
			return Box{}, err
		}
		second = second.Transform(sh.Placement)
		switch sh.Op {
		case KindUnion:
			return first.Union(second), nil
		case KindIntersection:
			return first.Intersect(second), nil
		default:
			return first, nil
		}
	}
	return Box{}, invalid(s.Name, "", "unsupported shape %T", s.Shape)
}
