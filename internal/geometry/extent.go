package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

func r3vec(x, y, z float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: z} }

// Transform places a daughter (or the second operand of a boolean solid)
// in its mother frame. Rotation holds Euler angles in degrees, applied as a
// frame rotation about x, then y, then z, the way GDML readers interpret it.
type Transform struct {
	Position r3.Vec
	Rotation r3.Vec
	Unit     LengthUnit
}

// Translation returns a transform that only moves along each axis by v mm.
func Translation(v r3.Vec) Transform {
	return Transform{Position: v, Unit: Millimeter}
}

// PositionMM returns the translation converted to millimetres.
func (t Transform) PositionMM() r3.Vec {
	return r3.Vec{X: t.Unit.ToMM(t.Position.X), Y: t.Unit.ToMM(t.Position.Y), Z: t.Unit.ToMM(t.Position.Z)}
}

// Apply maps a point given in the daughter frame (mm) into the mother frame.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	if t.Rotation != (r3.Vec{}) {
		// frame rotation: the object turns by the inverse, z first
		p = r3.NewRotation(-Degree.ToRad(t.Rotation.Z), axisZ).Rotate(p)
		p = r3.NewRotation(-Degree.ToRad(t.Rotation.Y), axisY).Rotate(p)
		p = r3.NewRotation(-Degree.ToRad(t.Rotation.X), axisX).Rotate(p)
	}
	return r3.Add(p, t.PositionMM())
}

func (t Transform) valid() bool {
	return t.Unit.valid() &&
		finite(t.Position.X, t.Position.Y, t.Position.Z, t.Rotation.X, t.Rotation.Y, t.Rotation.Z)
}

// Box is an axis-aligned bounding box in millimetres.
type Box struct {
	Min, Max r3.Vec
}

func centeredBox(dx, dy, dz float64) Box {
	return Box{
		Min: r3.Vec{X: -dx / 2, Y: -dy / 2, Z: -dz / 2},
		Max: r3.Vec{X: dx / 2, Y: dy / 2, Z: dz / 2},
	}
}

// Size returns the edge lengths of the box.
func (b Box) Size() r3.Vec { return r3.Sub(b.Max, b.Min) }

// Empty reports whether the box encloses no volume along some axis.
func (b Box) Empty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

func (b Box) Union(o Box) Box {
	return Box{
		Min: r3.Vec{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
	}
}

func (b Box) Intersect(o Box) Box {
	return Box{
		Min: r3.Vec{X: math.Max(b.Min.X, o.Min.X), Y: math.Max(b.Min.Y, o.Min.Y), Z: math.Max(b.Min.Z, o.Min.Z)},
		Max: r3.Vec{X: math.Min(b.Max.X, o.Max.X), Y: math.Min(b.Max.Y, o.Max.Y), Z: math.Min(b.Max.Z, o.Max.Z)},
	}
}

// Vertices returns the eight corners of the box.
func (b Box) Vertices() []r3.Vec {
	out := make([]r3.Vec, 0, 8)
	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				out = append(out, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// Transform returns the bounding box of b after t is applied to it.
func (b Box) Transform(t Transform) Box {
	corners := b.Vertices()
	first := t.Apply(corners[0])
	out := Box{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := t.Apply(c)
		out = out.Union(Box{Min: p, Max: p})
	}
	return out
}

// Contains reports whether o lies inside b, allowing tol mm of slack.
func (b Box) Contains(o Box, tol float64) bool {
	return o.Min.X >= b.Min.X-tol && o.Min.Y >= b.Min.Y-tol && o.Min.Z >= b.Min.Z-tol &&
		o.Max.X <= b.Max.X+tol && o.Max.Y <= b.Max.Y+tol && o.Max.Z <= b.Max.Z+tol
}
