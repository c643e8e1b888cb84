package terrain

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nielk1/bz2terraineditor/pkg/math"
)

func TestNormalTable(t *testing.T) {
	table := NormalTable()

	for i, n := range table {
		assert.InDelta(t, 1, n.Length(), 1e-5, "entry %d", i)
	}

	// First ring: steepest upward pitch, yaw 0.
	assert.InDelta(t, 0, table[0].X, 1e-6)
	assert.InDelta(t, gomath.Sin(gomath.Pi*15/32), table[0].Y, 1e-6)
	assert.InDelta(t, gomath.Cos(gomath.Pi*15/32), table[0].Z, 1e-6)

	// Odd rings start half a yaw step around.
	yaw := 2 * gomath.Pi / 64
	pitch := -gomath.Pi*15/32 + gomath.Pi/16
	assert.InDelta(t, gomath.Sin(yaw)*gomath.Cos(pitch), table[32].X, 1e-6)
	assert.InDelta(t, -gomath.Sin(pitch), table[32].Y, 1e-6)

	for i, n := range table {
		require.Greater(t, n.Y, float32(0), "entry %d faces up", i)
	}

	assert.Equal(t, table, NormalTable(), "table is immutable")
}

func TestNearestNormalIndex(t *testing.T) {
	table := NormalTable()
	for i, n := range table {
		require.Equal(t, uint8(i), NearestNormalIndex(n), "entry %d", i)
	}

	assert.Equal(t, uint8(0), NearestNormalIndex(math.Up), "ties resolve to the lowest index")
}

func TestNormalAtFlat(t *testing.T) {
	ter, err := New(3, Bounds{0, 0, 8, 8})
	require.NoError(t, err)
	ter.Translate(50)

	for _, p := range [][2]int{{0, 0}, {3, 4}, {7, 7}} {
		n := ter.NormalAt(p[0], p[1])
		assert.InDelta(t, 0, n.X, 1e-6)
		assert.InDelta(t, 1, n.Y, 1e-6)
		assert.InDelta(t, 0, n.Z, 1e-6)
	}
}

func TestNormalAtSlopeFacesDownhill(t *testing.T) {
	ter, err := New(4, Bounds{0, 0, 16, 16})
	require.NoError(t, err)

	// Heights rise along +X, so the surface faces -X.
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			ter.SetHeight(x, z, float64(2*x))
		}
	}

	n := ter.NormalAt(8, 8)
	assert.InDelta(t, 1, n.Length(), 1e-5)
	assert.Less(t, n.X, float32(0))
	assert.Greater(t, n.Y, float32(0))
	assert.InDelta(t, 0, n.Z, 1e-5)

	// One grid unit of rise per cell. The six-triangle sum weights the
	// leading triangle with the opposite sign, giving (-6, 4, 0) unnormalized.
	assert.InDelta(t, gomath.Atan(1.5), n.Slope(), 1e-4)
}

func TestRebuildNormalMap(t *testing.T) {
	ter, err := New(2, Bounds{0, 0, 8, 8})
	require.NoError(t, err)
	ter.NormalMap().Fill(200)

	require.NoError(t, ter.RebuildNormalMap())
	for _, n := range ter.NormalMap().Cells() {
		require.Equal(t, uint8(0), n)
	}

	ft, err := New(4, Bounds{0, 0, 16, 16})
	require.NoError(t, err)
	assert.ErrorIs(t, ft.RebuildNormalMap(), ErrNoNormalMap)
}

func TestMarkSlopes(t *testing.T) {
	ter, err := New(4, Bounds{0, 0, 16, 16})
	require.NoError(t, err)
	ter.CellMap().Set(0, 0, CellSloped|CellWater)

	assert.Equal(t, 0, ter.MarkSlopes(0.1))
	assert.Equal(t, CellWater, ter.CellMap().At(0, 0), "stale slope flag cleared, others kept")

	// A cliff between columns 7 and 8.
	for z := 0; z < 16; z++ {
		for x := 8; x < 16; x++ {
			ter.SetHeight(x, z, 40)
		}
	}

	n := ter.MarkSlopes(gomath.Pi / 6)
	assert.Equal(t, 32, n, "both columns beside the cliff")
	assert.True(t, ter.CellMap().At(7, 3).Has(CellSloped))
	assert.True(t, ter.CellMap().At(8, 3).Has(CellSloped))
	assert.False(t, ter.CellMap().At(3, 3).Has(CellSloped))
}
