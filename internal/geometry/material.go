package geometry

import (
	"math"
	"strings"
)

// NISTPrefix marks materials resolved by the transport engine's built-in
// database. They are referenced by name and never defined in a registry.
const NISTPrefix = "G4_"

type Isotope struct {
	Name string
	Z    int
	N    int
	A    float64 // g/mole
}

type IsotopeFraction struct {
	Isotope  Isotope
	Fraction float64
}

// Material is a registry-defined material made of a single element whose
// isotopic composition is given explicitly.
type Material struct {
	Name     string
	State    string
	Density  float64 // g/cm3
	Isotopes []IsotopeFraction
}

// ElementName is the name the element backing m is written under.
func (m Material) ElementName() string {
	return "Element" + m.Name
}

// MolarMass returns the fraction-weighted atomic mass in g/mole.
func (m Material) MolarMass() float64 {
	var a float64
	for _, iso := range m.Isotopes {
		a += iso.Fraction * iso.Isotope.A
	}
	return a
}

// DefineMaterial registers a custom material. Names starting with G4_ are
// reserved for the NIST database.
func (r *Registry) DefineMaterial(m Material) error {
	if err := r.check(); err != nil {
		return err
	}
	if strings.TrimSpace(m.Name) == "" {
		return r.fail(invalid(m.Name, "name", "material name is required"))
	}
	if strings.HasPrefix(m.Name, NISTPrefix) {
		return r.fail(invalid(m.Name, "name", "%s names are reserved for NIST materials", NISTPrefix))
	}
	if _, exists := r.materialNames[m.Name]; exists {
		return r.fail(&DuplicateNameError{Kind: "material", Name: m.Name})
	}
	if !finite(m.Density) || m.Density <= 0 {
		return r.fail(invalid(m.Name, "density", "must be positive, got %g", m.Density))
	}
	if len(m.Isotopes) == 0 {
		return r.fail(invalid(m.Name, "isotopes", "at least one isotope is required"))
	}
	sum := 0.0
	for _, iso := range m.Isotopes {
		if iso.Isotope.Z <= 0 || iso.Isotope.N < iso.Isotope.Z || iso.Isotope.A <= 0 {
			return r.fail(invalid(m.Name, "isotopes", "isotope %q has invalid Z/N/A", iso.Isotope.Name))
		}
		if !finite(iso.Fraction) || iso.Fraction < 0 {
			return r.fail(invalid(m.Name, "isotopes", "isotope %q has invalid fraction %g", iso.Isotope.Name, iso.Fraction))
		}
		sum += iso.Fraction
	}
	if math.Abs(sum-1) > 1e-6 {
		return r.fail(invalid(m.Name, "isotopes", "fractions sum to %g, want 1", sum))
	}
	if m.State == "" {
		m.State = "solid"
	}
	m.Isotopes = append([]IsotopeFraction(nil), m.Isotopes...)
	r.materialNames[m.Name] = len(r.materials)
	r.materials = append(r.materials, m)
	return nil
}

// Material looks up a registry-defined material.
func (r *Registry) Material(name string) (Material, bool) {
	idx, ok := r.materialNames[name]
	if !ok {
		return Material{}, false
	}
	m := r.materials[idx]
	m.Isotopes = append([]IsotopeFraction(nil), m.Isotopes...)
	return m, true
}

// Materials returns the registry-defined materials in definition order.
func (r *Registry) Materials() []Material {
	out := make([]Material, 0, len(r.materials))
	for _, m := range r.materials {
		m.Isotopes = append([]IsotopeFraction(nil), m.Isotopes...)
		out = append(out, m)
	}
	return out
}

func (r *Registry) knownMaterial(name string) bool {
	if strings.HasPrefix(name, NISTPrefix) && len(name) > len(NISTPrefix) {
		return true
	}
	_, ok := r.materialNames[name]
	return ok
}
