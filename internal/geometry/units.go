package geometry

import (
	"fmt"
	"math"
)

// LengthUnit is a GDML length unit name.
type LengthUnit string

const (
	Micrometer LengthUnit = "um"
	Millimeter LengthUnit = "mm"
	Centimeter LengthUnit = "cm"
	Meter      LengthUnit = "m"
)

var lengthScale = map[LengthUnit]float64{
	Micrometer: 1e-3,
	Millimeter: 1,
	Centimeter: 10,
	Meter:      1000,
}

// ParseLengthUnit accepts the unit names written by the GDML writer. An
// empty string means millimetres.
func ParseLengthUnit(s string) (LengthUnit, error) {
	if s == "" {
		return Millimeter, nil
	}
	u := LengthUnit(s)
	if _, ok := lengthScale[u]; !ok {
		return "", fmt.Errorf("unknown length unit %q", s)
	}
	return u, nil
}

// ToMM converts v expressed in u to millimetres.
func (u LengthUnit) ToMM(v float64) float64 {
	if u == "" {
		return v
	}
	return v * lengthScale[u]
}

func (u LengthUnit) valid() bool {
	if u == "" {
		return true
	}
	_, ok := lengthScale[u]
	return ok
}

// AngleUnit is a GDML angle unit name.
type AngleUnit string

const (
	Degree AngleUnit = "deg"
	Radian AngleUnit = "rad"
)

func ParseAngleUnit(s string) (AngleUnit, error) {
	switch AngleUnit(s) {
	case "", Radian:
		return Radian, nil
	case Degree:
		return Degree, nil
	}
	return "", fmt.Errorf("unknown angle unit %q", s)
}

// ToRad converts v expressed in u to radians. The zero unit is radians.
func (u AngleUnit) ToRad(v float64) float64 {
	if u == Degree {
		return v * math.Pi / 180
	}
	return v
}

func (u AngleUnit) valid() bool {
	return u == "" || u == Degree || u == Radian
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
