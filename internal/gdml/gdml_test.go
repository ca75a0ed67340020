package gdml

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"teststand/internal/assembly"
	"teststand/internal/config"
	"teststand/internal/geometry"
	"teststand/internal/metadata"
)

const begeDoc = `
name: teststand_hpge
type: bege
geometry:
  height_in_mm: 30
  radius_in_mm: 30
  groove: {depth_in_mm: 2.0, radius_in_mm: {outer: 10.5, inner: 7.5}}
  pp_contact: {radius_in_mm: 7.5, depth_in_mm: 0}
  taper:
    top: {angle_in_deg: 0.0, height_in_mm: 0.0}
    bottom: {angle_in_deg: 0.0, height_in_mm: 0.0}
production: {enrichment: 0.0775}
`

func stand(t *testing.T) *geometry.Registry {
	t.Helper()
	meta, err := metadata.Parse([]byte(begeDoc))
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg, err := assembly.Assemble(meta, config.Default("bench"), assembly.Options{Log: log})
	require.NoError(t, err)
	return reg
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, stand(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<genericPolycone name="hpge_logical_solid"`)
	assert.Contains(t, out, `<union name="al_solid">`)
	assert.Contains(t, out, `<auxiliary auxtype="RMG_detector" auxvalue="germanium">`)
	assert.Contains(t, out, `<auxiliary auxtype="hpge_physical" auxvalue="1">`)
	assert.Contains(t, out, `<auxiliary auxtype="rmg_color" auxvalue="0.5,0.5,0.5,0.5">`)
	assert.Contains(t, out, `<world ref="world_logical">`)
	assert.NotContains(t, out, `name="G4_`)

	// daughters are defined before the volumes that place them
	assert.Less(t, strings.Index(out, `<volume name="src_logical"`), strings.Index(out, `<volume name="src_holder_logical"`))
	assert.Less(t, strings.Index(out, `<volume name="hpge_logical"`), strings.Index(out, `<volume name="world_logical"`))
}

func TestWriteRefusesIncompleteRegistry(t *testing.T) {
	t.Run("no world", func(t *testing.T) {
		reg := geometry.NewRegistry()
		_, err := reg.MakeBox("b", 1, 1, 1, geometry.Millimeter)
		require.NoError(t, err)
		assert.Error(t, Write(io.Discard, reg))
	})

	t.Run("failed registry", func(t *testing.T) {
		reg := geometry.NewRegistry()
		_, _ = reg.MakeBox("b", -1, 1, 1, geometry.Millimeter)
		err := Write(io.Discard, reg)
		assert.True(t, errors.Is(err, geometry.ErrRegistryFailed))
	})
}

func TestRoundTrip(t *testing.T) {
	orig := stand(t)
	path := filepath.Join(t.TempDir(), "stand.gdml")
	require.NoError(t, WriteFile(path, orig))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, got.Err())

	assert.Equal(t, len(orig.Solids()), len(got.Solids()))
	for _, s := range orig.Solids() {
		id, ok := got.SolidByName(s.Name)
		require.True(t, ok, s.Name)
		want, err := orig.SolidExtent(s.ID)
		require.NoError(t, err)
		have, err := got.SolidExtent(id)
		require.NoError(t, err)
		assert.InDelta(t, want.Size().X, have.Size().X, 1e-9, s.Name)
		assert.InDelta(t, want.Size().Z, have.Size().Z, 1e-9, s.Name)

		other, _ := got.Solid(id)
		assert.Equal(t, s.Shape, other.Shape, s.Name)
		assert.Equal(t, s.LUnit, other.LUnit, s.Name)
		assert.Equal(t, s.AUnit, other.AUnit, s.Name)
	}

	for _, pv := range orig.Physicals() {
		id, ok := got.PhysicalByName(pv.Name)
		require.True(t, ok, pv.Name)
		other, _ := got.Physical(id)
		assert.Equal(t, pv.Transform, other.Transform, pv.Name)
	}

	srcHolder, ok := got.LogicalByName("src_holder_logical")
	require.True(t, ok)
	lv, _ := got.Logical(srcHolder)
	require.NotNil(t, lv.Color)
	assert.Equal(t, geometry.RGBA{1, 1, 1, 0.25}, *lv.Color)

	active := got.ActiveDetectors()
	require.Len(t, active, 1)
	assert.Equal(t, "hpge_physical", active[0].Name)
	assert.Equal(t, 1, active[0].Info.UID)
	assert.Equal(t, "germanium", active[0].Info.Scheme)
	assert.Equal(t, "bege", active[0].Info.Metadata["type"])

	mat, ok := got.Material("EnrichedGermanium0.0775")
	require.True(t, ok)
	assert.InDelta(t, 5.323, mat.Density, 0.01)
	assert.Len(t, mat.Isotopes, 5)

	world, ok := got.World()
	require.True(t, ok)
	worldLV, _ := got.Logical(world)
	assert.Equal(t, assembly.WorldName, worldLV.Name)
}

func TestRoundTripRotations(t *testing.T) {
	reg := geometry.NewRegistry()
	worldSolid, err := reg.MakeBox("world_solid", 500, 500, 500, geometry.Millimeter)
	require.NoError(t, err)
	world, err := reg.MakeLogical(worldSolid, "G4_Galactic", "world")
	require.NoError(t, err)
	require.NoError(t, reg.SetWorld(world))

	base, err := reg.MakeBox("base", 20, 10, 5, geometry.Centimeter)
	require.NoError(t, err)
	peg, err := reg.MakeTube("peg", 0, 2, 30, geometry.Millimeter)
	require.NoError(t, err)
	tilted := geometry.Transform{Position: r3.Vec{X: 1.5, Z: -3}, Rotation: r3.Vec{X: 30, Y: 45, Z: 10.1}}
	fused, err := reg.MakeUnion("fused", base, peg, tilted)
	require.NoError(t, err)
	fusedLV, err := reg.MakeLogical(fused, "G4_Galactic", "fused")
	require.NoError(t, err)

	placement := geometry.Transform{
		Position: r3.Vec{X: 0.1, Y: -2.5, Z: 7},
		Rotation: r3.Vec{X: 30, Y: 45, Z: 10.1},
		Unit:     geometry.Centimeter,
	}
	_, err = reg.Place(placement, fusedLV, "fused_physical", world)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, reg))
	got, err := Read(&buf)
	require.NoError(t, err)

	pvID, ok := got.PhysicalByName("fused_physical")
	require.True(t, ok)
	pv, _ := got.Physical(pvID)
	assert.Equal(t, placement, pv.Transform)

	sid, ok := got.SolidByName("fused")
	require.True(t, ok)
	s, _ := got.Solid(sid)
	b, ok := s.Shape.(geometry.BooleanShape)
	require.True(t, ok)
	tilted.Unit = geometry.Millimeter
	assert.Equal(t, tilted, b.Placement)

	t.Run("radian rotations convert to degrees", func(t *testing.T) {
		doc := `<?xml version="1.0"?>
<gdml>
  <solids>
    <box name="w" x="10" y="10" z="10" lunit="mm"/>
    <box name="b" x="1" y="1" z="1" lunit="mm"/>
  </solids>
  <structure>
    <volume name="b_lv"><materialref ref="G4_Galactic"/><solidref ref="b"/></volume>
    <volume name="w_lv">
      <materialref ref="G4_Galactic"/><solidref ref="w"/>
      <physvol name="b_pv">
        <volumeref ref="b_lv"/>
        <rotation name="b_rot" unit="rad" z="1.5707963267948966"/>
      </physvol>
    </volume>
  </structure>
  <setup name="Default" version="1.0"><world ref="w_lv"/></setup>
</gdml>`
		reg, err := Read(strings.NewReader(doc))
		require.NoError(t, err)
		id, ok := reg.PhysicalByName("b_pv")
		require.True(t, ok)
		pv, _ := reg.Physical(id)
		assert.InDelta(t, 90, pv.Transform.Rotation.Z, 1e-12)
		assert.Zero(t, pv.Transform.Rotation.X)
	})
}

func TestReadRejectsDanglingReference(t *testing.T) {
	doc := `<?xml version="1.0"?>
<gdml>
  <solids><box name="b" x="1" y="1" z="1" lunit="mm"/></solids>
  <structure>
    <volume name="world"><materialref ref="G4_Galactic"/><solidref ref="missing"/></volume>
  </structure>
  <setup name="Default" version="1.0"><world ref="world"/></setup>
</gdml>`
	_, err := Read(strings.NewReader(doc))
	assert.ErrorContains(t, err, `unknown solid "missing"`)
}
