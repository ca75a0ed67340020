package hpge

import (
	"fmt"

	"teststand/internal/geometry"
)

// NaturalGermaniumDensity in g/cm3.
const NaturalGermaniumDensity = 5.323

type abundance struct {
	iso      geometry.Isotope
	fraction float64
}

var naturalGermanium = []abundance{
	{geometry.Isotope{Name: "Ge70", Z: 32, N: 70, A: 69.924}, 0.2057},
	{geometry.Isotope{Name: "Ge72", Z: 32, N: 72, A: 71.922}, 0.2745},
	{geometry.Isotope{Name: "Ge73", Z: 32, N: 73, A: 72.923}, 0.0775},
	{geometry.Isotope{Name: "Ge74", Z: 32, N: 74, A: 73.921}, 0.3650},
	{geometry.Isotope{Name: "Ge76", Z: 32, N: 76, A: 75.921}, 0.0773},
}

// EnrichedGermanium returns germanium with a Ge76 fraction of enrichment.
// The remaining isotopes keep their natural ratios, and the density scales
// with the molar mass of the mixture.
func EnrichedGermanium(enrichment float64) (geometry.Material, error) {
	if enrichment < 0 || enrichment > 1 {
		return geometry.Material{}, fmt.Errorf("enrichment must be in [0, 1], got %g", enrichment)
	}
	var natural, rest float64
	for _, a := range naturalGermanium {
		natural += a.fraction * a.iso.A
		if a.iso.N != 76 {
			rest += a.fraction
		}
	}

	m := geometry.Material{
		Name:  MaterialName(enrichment),
		State: "solid",
	}
	for _, a := range naturalGermanium {
		f := enrichment
		if a.iso.N != 76 {
			f = a.fraction / rest * (1 - enrichment)
		}
		m.Isotopes = append(m.Isotopes, geometry.IsotopeFraction{Isotope: a.iso, Fraction: f})
	}
	m.Density = NaturalGermaniumDensity * m.MolarMass() / natural
	return m, nil
}

// MaterialName is the registry name of germanium at the given enrichment.
func MaterialName(enrichment float64) string {
	return fmt.Sprintf("EnrichedGermanium%.4f", enrichment)
}

// DefineEnrichedGermanium registers the material once per enrichment and
// returns its name.
func DefineEnrichedGermanium(reg *geometry.Registry, enrichment float64) (string, error) {
	name := MaterialName(enrichment)
	if _, ok := reg.Material(name); ok {
		return name, nil
	}
	m, err := EnrichedGermanium(enrichment)
	if err != nil {
		return "", err
	}
	if err := reg.DefineMaterial(m); err != nil {
		return "", err
	}
	return name, nil
}
