package flatzone_test

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nielk1/bz2terraineditor/pkg/flatzone"
	"github.com/Nielk1/bz2terraineditor/pkg/terrain"
)

// bumpyTerrain returns a 2x1-cluster version 4 terrain at height 10 with one
// raised cell inside the second cluster.
func bumpyTerrain(t *testing.T) *terrain.Terrain {
	t.Helper()

	ter, err := terrain.New(4, terrain.Bounds{MaxX: 32, MaxZ: 16})
	require.NoError(t, err)

	ter.Translate(10)
	ter.SetHeight(20, 5, 10.25)
	ter.UpdateMinMax()
	ter.RegenerateDerivativeData()
	return ter
}

func TestApplyFlattensRegions(t *testing.T) {
	ter := bumpyTerrain(t)
	require.Equal(t, float32(0), ter.TileFlatness().At(0, 0))
	require.InDelta(t, 0.25, ter.TileFlatness().At(1, 0), 1e-6)

	res, err := flatzone.Resolve(flatzone.InputFromTerrain(ter), flatzone.Options{MaxRange: 1, MergeTolerance: 0.5})
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)

	changed, err := flatzone.Apply(ter, res)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	assert.Equal(t, float32(10), ter.HeightAt(20, 5))
	assert.Equal(t, float32(10), ter.HeightMapFloatMax())
	assert.Equal(t, float32(10), ter.HeightMapFloatMin())

	ter.RegenerateDerivativeData()
	assert.Equal(t, float32(0), ter.TileFlatnessMapMax())
}

func TestApplyLeavesUnassignedClusters(t *testing.T) {
	ter := bumpyTerrain(t)

	res, err := flatzone.Resolve(flatzone.InputFromTerrain(ter), flatzone.Options{MaxRange: 0.1})
	require.NoError(t, err)

	changed, err := flatzone.Apply(ter, res)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, float32(10.25), ter.HeightAt(20, 5))
}

func TestApplyFixedHeightsRounds(t *testing.T) {
	ter, err := terrain.New(3, terrain.Bounds{MaxX: 8, MaxZ: 4})
	require.NoError(t, err)

	res := mustResolve(t, flatzone.Input{
		ClustersX: 2,
		ClustersZ: 1,
		Flatness:  []float32{0, 0.5},
		Average:   []float32{7.6, 0},
	}, flatzone.Options{MaxRange: 1, MergeTolerance: 0})

	changed, err := flatzone.Apply(ter, res)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, int16(8), ter.HeightMap().At(7, 3))
	assert.Equal(t, int16(8), ter.HeightMapMax())
}

func TestApplySizeMismatch(t *testing.T) {
	ter := bumpyTerrain(t)
	res := mustResolve(t, flatzone.Input{ClustersX: 1, ClustersZ: 1, Flatness: []float32{0}, Average: []float32{0}}, flatzone.Options{})

	_, err := flatzone.Apply(ter, res)
	assert.ErrorIs(t, err, flatzone.ErrInputSize)
}

func TestSummarize(t *testing.T) {
	in := plateaus()
	res := mustResolve(t, in, flatzone.Options{MaxRange: 0.01, MergeTolerance: 0.001})

	s := flatzone.Summarize(in, res)
	assert.Equal(t, 15, s.Clusters)
	assert.Equal(t, 12, s.Seeds)
	assert.Equal(t, 12, s.Assigned)
	assert.Equal(t, 3, s.Conflicts)
	assert.Equal(t, 0, s.Unassigned)
	assert.Equal(t, 2, s.Regions)
	assert.Equal(t, int32(1), s.Largest.ID, "equal sizes resolve to the lowest id")
	assert.InDelta(t, 0.001, s.FlatnessMean, 1e-6)
	assert.InDelta(t, 0.005, s.FlatnessMax, 1e-6)
	assert.Equal(t, 0.0, s.FlatnessMedian)
	assert.InDelta(t, 0.005, s.RegionHeightSpread, 1e-6)
}

func TestSummarizeEmpty(t *testing.T) {
	in := flatzone.Input{}
	s := flatzone.Summarize(in, mustResolve(t, in, flatzone.Options{}))
	assert.Equal(t, flatzone.Summary{}, s)
}

func TestResultColor(t *testing.T) {
	res := mustResolve(t, flatzone.Input{
		ClustersX: 3,
		ClustersZ: 1,
		Flatness:  []float32{0, 0.5, 0},
		Average:   []float32{0, 2.5, 5},
	}, flatzone.Options{MaxRange: 1, MergeTolerance: 0.1})

	assert.Equal(t, flatzone.ConflictColor, res.Color(1, 0, 0.5, 2))

	a := res.Color(0, 0, 0, 2)
	b := res.Color(2, 0, 0, 2)
	assert.NotEqual(t, a, b, "regions get distinct hues")
	assert.NotEqual(t, flatzone.ConflictColor, a)
	assert.Equal(t, uint8(255), a.A)

	gray := mustResolve(t, flatzone.Input{
		ClustersX: 2,
		ClustersZ: 1,
		Flatness:  []float32{1, 2},
		Average:   []float32{0, 0},
	}, flatzone.Options{})
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, gray.Color(0, 0, 1, 2))
	assert.Equal(t, color.RGBA{A: 255}, gray.Color(1, 0, 2, 2))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, gray.Color(1, 0, 2, 0))
}

func mustResolve(t *testing.T, in flatzone.Input, opts flatzone.Options) *flatzone.Result {
	t.Helper()
	res, err := flatzone.Resolve(in, opts)
	require.NoError(t, err)
	return res
}
