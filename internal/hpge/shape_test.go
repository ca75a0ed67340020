package hpge

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teststand/internal/geometry"
	"teststand/internal/metadata"
)

func bege() *metadata.Detector {
	d := &metadata.Detector{Name: "teststand_hpge", Type: metadata.TypeBEGe}
	d.Geometry.HeightInMM = 30
	d.Geometry.RadiusInMM = 30
	d.Geometry.Groove.DepthInMM = 2
	d.Geometry.Groove.RadiusInMM.Outer = 10.5
	d.Geometry.Groove.RadiusInMM.Inner = 7.5
	d.Geometry.PPContact.RadiusInMM = 7.5
	d.Production.Enrichment = 0.0775
	return d
}

func TestProfile(t *testing.T) {
	t.Run("bege without tapers", func(t *testing.T) {
		pts, err := Profile(bege())
		require.NoError(t, err)
		want := []geometry.RZ{
			{R: 0, Z: 0}, {R: 7.5, Z: 0}, {R: 7.5, Z: 2}, {R: 10.5, Z: 2},
			{R: 10.5, Z: 0}, {R: 30, Z: 0}, {R: 30, Z: 30}, {R: 0, Z: 30},
		}
		assert.Equal(t, want, pts)
	})

	t.Run("tapers cut the corners", func(t *testing.T) {
		d := bege()
		d.Geometry.Taper.Top = metadata.TaperSide{AngleInDeg: 45, HeightInMM: 5}
		d.Geometry.Taper.Bottom = metadata.TaperSide{AngleInDeg: 45, HeightInMM: 3}
		pts, err := Profile(d)
		require.NoError(t, err)
		assert.Contains(t, pts, geometry.RZ{R: 30, Z: 3})
		assert.Contains(t, pts, geometry.RZ{R: 30, Z: 25})
		var top geometry.RZ
		for _, p := range pts {
			if p.Z == 30 && p.R > top.R {
				top = p
			}
		}
		assert.InDelta(t, 25, top.R, 1e-9)
	})

	t.Run("icpc borehole", func(t *testing.T) {
		d := bege()
		d.Type = metadata.TypeICPC
		d.Geometry.HeightInMM = 80
		d.Geometry.Borehole = &metadata.Borehole{RadiusInMM: 5, DepthInMM: 55}
		pts, err := Profile(d)
		require.NoError(t, err)
		assert.Equal(t, geometry.RZ{R: 0, Z: 25}, pts[len(pts)-1])
		assert.Contains(t, pts, geometry.RZ{R: 5, Z: 80})
		assert.Contains(t, pts, geometry.RZ{R: 5, Z: 25})
	})

	t.Run("coax borehole from the bottom", func(t *testing.T) {
		d := bege()
		d.Type = metadata.TypeCoax
		d.Geometry.HeightInMM = 70
		d.Geometry.Borehole = &metadata.Borehole{RadiusInMM: 5, DepthInMM: 60}
		pts, err := Profile(d)
		require.NoError(t, err)
		assert.Equal(t, geometry.RZ{R: 0, Z: 60}, pts[0])
		assert.Equal(t, geometry.RZ{R: 5, Z: 0}, pts[2])
	})

	t.Run("icpc without borehole", func(t *testing.T) {
		d := bege()
		d.Type = metadata.TypeICPC
		_, err := Profile(d)
		assert.True(t, errors.Is(err, metadata.ErrInvalidMetadata), "got %v", err)
	})

	inconsistent := map[string]func(d *metadata.Detector){
		"groove inverted":    func(d *metadata.Detector) { d.Geometry.Groove.RadiusInMM.Inner = 12 },
		"groove at the edge": func(d *metadata.Detector) { d.Geometry.Groove.RadiusInMM.Outer = 30 },
		"contact in groove":  func(d *metadata.Detector) { d.Geometry.PPContact.RadiusInMM = 9 },
		"tapers too tall": func(d *metadata.Detector) {
			d.Geometry.Taper.Top.HeightInMM = 20
			d.Geometry.Taper.Bottom.HeightInMM = 10
		},
		"taper past the axis": func(d *metadata.Detector) { d.Geometry.Taper.Top = metadata.TaperSide{AngleInDeg: 80, HeightInMM: 10} },
		"unknown type":        func(d *metadata.Detector) { d.Type = "semi" },
	}
	for name, mutate := range inconsistent {
		t.Run(name, func(t *testing.T) {
			d := bege()
			mutate(d)
			_, err := Profile(d)
			assert.ErrorIs(t, err, metadata.ErrInvalidMetadata)
		})
	}
}

func TestBuild(t *testing.T) {
	reg := geometry.NewRegistry()
	lv, err := Build(reg, bege(), "hpge_logical")
	require.NoError(t, err)

	logical, ok := reg.Logical(lv)
	require.True(t, ok)
	assert.Equal(t, MaterialName(0.0775), logical.Material)

	box, err := reg.LogicalExtent(lv)
	require.NoError(t, err)
	assert.InDelta(t, 0, box.Min.Z, 1e-12)
	assert.InDelta(t, 30, box.Max.Z, 1e-12)
	assert.InDelta(t, 60, box.Size().X, 1e-12)

	// a second crystal with the same enrichment reuses the material
	_, err = Build(reg, bege(), "hpge_logical_2")
	require.NoError(t, err)
	assert.Len(t, reg.Materials(), 1)
}

func TestEnrichedGermanium(t *testing.T) {
	t.Run("natural abundance keeps natural density", func(t *testing.T) {
		m, err := EnrichedGermanium(0.0773)
		require.NoError(t, err)
		assert.InDelta(t, NaturalGermaniumDensity, m.Density, 1e-9)
	})

	t.Run("fractions sum to one", func(t *testing.T) {
		for _, e := range []float64{0, 0.0775, 0.5, 0.88, 1} {
			m, err := EnrichedGermanium(e)
			require.NoError(t, err)
			sum := 0.0
			for _, iso := range m.Isotopes {
				sum += iso.Fraction
				if iso.Isotope.N == 76 {
					assert.Equal(t, e, iso.Fraction)
				}
			}
			assert.InDelta(t, 1, sum, 1e-12)
		}
	})

	t.Run("enriched is denser", func(t *testing.T) {
		m, err := EnrichedGermanium(0.88)
		require.NoError(t, err)
		assert.Greater(t, m.Density, NaturalGermaniumDensity)
		assert.False(t, math.IsNaN(m.Density))
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := EnrichedGermanium(1.2)
		assert.Error(t, err)
	})
}
