package macro

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teststand/internal/geometry"
)

func TestWrite(t *testing.T) {
	reg := geometry.NewRegistry()
	box := func(name string, size float64) geometry.LogicalID {
		s, err := reg.MakeBox(name+"_solid", size, size, size, geometry.Millimeter)
		require.NoError(t, err)
		lv, err := reg.MakeLogical(s, "G4_Galactic", name)
		require.NoError(t, err)
		return lv
	}
	world := box("world", 100)
	require.NoError(t, reg.SetWorld(world))

	ge, err := reg.Place(geometry.Transform{}, box("ge", 10), "ge_pv", world)
	require.NoError(t, err)
	sc, err := reg.Place(geometry.Transform{}, box("sc", 5), "sc_pv", world)
	require.NoError(t, err)

	require.NoError(t, reg.MarkActive(ge, geometry.DetectorInfo{Scheme: "germanium", UID: 7}, false))
	require.NoError(t, reg.MarkActive(sc, geometry.DetectorInfo{Scheme: "scintillator", UID: 2}, false))
	// re-annotating the same channel must not duplicate the line
	require.NoError(t, reg.MarkActive(ge, geometry.DetectorInfo{Scheme: "germanium", UID: 7}, false))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, reg))
	assert.Equal(t,
		"/RMG/Geometry/RegisterDetector Scintillator sc_pv 2\n"+
			"/RMG/Geometry/RegisterDetector Germanium ge_pv 7\n",
		buf.String())
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, geometry.NewRegistry()))
	assert.Empty(t, buf.String())
}
