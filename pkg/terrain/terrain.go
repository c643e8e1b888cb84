// Package terrain reads, writes and edits BattleZone II TER terrain files.
package terrain

import (
	"fmt"
	"math"
)

// Heights is the version-dependent height grid: *FixedHeights for
// versions below 4 and *FloatHeights from version 4 on.
type Heights interface {
	Width() int
	Height() int
	// Sample returns the height at (x, z) widened to float32.
	Sample(x, z int) float32
	isHeights()
}

// FixedHeights stores signed 16-bit heights.
type FixedHeights struct {
	Grid[int16]
}

// Sample returns the height at (x, z).
func (h *FixedHeights) Sample(x, z int) float32 { return float32(h.At(x, z)) }

func (*FixedHeights) isHeights() {}

// FloatHeights stores float32 heights.
type FloatHeights struct {
	Grid[float32]
}

// Sample returns the height at (x, z).
func (h *FloatHeights) Sample(x, z int) float32 { return h.At(x, z) }

func (*FloatHeights) isHeights() {}

// Terrain holds every map of one TER terrain.
// A Terrain is not safe for concurrent mutation.
type Terrain struct {
	version Version
	bounds  Bounds

	heights Heights
	colors  *Grid[RGB]
	normals *Grid[uint8] // nil from version 4 on
	alpha1  *Grid[uint8]
	alpha2  *Grid[uint8]
	alpha3  *Grid[uint8]
	cells   *Grid[CellType]
	info    *Grid[InfoWord] // one word per cluster

	heightMin      int16
	heightMax      int16
	heightFloatMin float32
	heightFloatMax float32

	tileAverage     *Grid[float32]
	tileFlatness    *Grid[float32]
	tileFlatnessMax float32
}

// New creates a cleared terrain. The bounds must span a positive multiple
// of the version's cluster size on both axes.
func New(version Version, bounds Bounds) (*Terrain, error) {
	if err := checkLayout(version, bounds); err != nil {
		return nil, err
	}

	cs := version.ClusterSize()
	width, height := bounds.Width(), bounds.Height()

	t := &Terrain{
		version: version,
		bounds:  bounds,
		colors:  NewGrid[RGB](width, height),
		alpha1:  NewGrid[uint8](width, height),
		alpha2:  NewGrid[uint8](width, height),
		alpha3:  NewGrid[uint8](width, height),
		cells:   NewGrid[CellType](width, height),
		info:    NewGrid[InfoWord](width/cs, height/cs),

		tileAverage:  NewGrid[float32](width/cs, height/cs),
		tileFlatness: NewGrid[float32](width/cs, height/cs),
	}

	if version.HasFloatHeights() {
		t.heights = &FloatHeights{Grid: *NewGrid[float32](width, height)}
	} else {
		t.heights = &FixedHeights{Grid: *NewGrid[int16](width, height)}
		t.normals = NewGrid[uint8](width, height)
	}

	t.Clear()
	return t, nil
}

// checkLayout validates a version and bounds pair without allocating.
func checkLayout(version Version, bounds Bounds) error {
	if version > MaxVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint32(version))
	}

	cs := version.ClusterSize()
	width, height := bounds.Width(), bounds.Height()
	if width <= 0 || height <= 0 || width%cs != 0 || height%cs != 0 {
		return fmt.Errorf("%w: %dx%d with cluster size %d", ErrClusterAlignment, width, height, cs)
	}
	return nil
}

// Version returns the format version.
func (t *Terrain) Version() Version { return t.version }

// ClusterSize returns the cluster edge length in cells.
func (t *Terrain) ClusterSize() int { return t.version.ClusterSize() }

// Bounds returns the grid extent.
func (t *Terrain) Bounds() Bounds { return t.bounds }

// Width returns the number of cells along X.
func (t *Terrain) Width() int { return t.bounds.Width() }

// Height returns the number of cells along Z.
func (t *Terrain) Height() int { return t.bounds.Height() }

// ClustersX returns the number of clusters along X.
func (t *Terrain) ClustersX() int { return t.Width() / t.ClusterSize() }

// ClustersZ returns the number of clusters along Z.
func (t *Terrain) ClustersZ() int { return t.Height() / t.ClusterSize() }

// Heights returns the active height grid.
func (t *Terrain) Heights() Heights { return t.heights }

// HeightMap returns the 16-bit height grid, or nil for float terrains.
func (t *Terrain) HeightMap() *Grid[int16] {
	if h, ok := t.heights.(*FixedHeights); ok {
		return &h.Grid
	}
	return nil
}

// HeightMapFloat returns the float height grid, or nil for 16-bit terrains.
func (t *Terrain) HeightMapFloat() *Grid[float32] {
	if h, ok := t.heights.(*FloatHeights); ok {
		return &h.Grid
	}
	return nil
}

// HeightAt returns the height at (x, z) regardless of storage.
func (t *Terrain) HeightAt(x, z int) float32 { return t.heights.Sample(x, z) }

// ColorMap returns the per-cell colors.
func (t *Terrain) ColorMap() *Grid[RGB] { return t.colors }

// NormalMap returns the per-cell normal table indices, or nil from version 4 on.
func (t *Terrain) NormalMap() *Grid[uint8] { return t.normals }

// AlphaMap1 returns the blend weights of texture layer 1.
func (t *Terrain) AlphaMap1() *Grid[uint8] { return t.alpha1 }

// AlphaMap2 returns the blend weights of texture layer 2.
func (t *Terrain) AlphaMap2() *Grid[uint8] { return t.alpha2 }

// AlphaMap3 returns the blend weights of texture layer 3.
func (t *Terrain) AlphaMap3() *Grid[uint8] { return t.alpha3 }

// CellMap returns the per-cell type flags.
func (t *Terrain) CellMap() *Grid[CellType] { return t.cells }

// InfoMap returns the per-cluster info words.
func (t *Terrain) InfoMap() *Grid[InfoWord] { return t.info }

// HeightMapMin returns the lowest 16-bit height (versions below 4).
func (t *Terrain) HeightMapMin() int16 { return t.heightMin }

// HeightMapMax returns the highest 16-bit height (versions below 4).
func (t *Terrain) HeightMapMax() int16 { return t.heightMax }

// HeightMapFloatMin returns the lowest float height (version 4 and up).
func (t *Terrain) HeightMapFloatMin() float32 { return t.heightFloatMin }

// HeightMapFloatMax returns the highest float height (version 4 and up).
func (t *Terrain) HeightMapFloatMax() float32 { return t.heightFloatMax }

// HeightRange returns the min/max of the active height grid.
func (t *Terrain) HeightRange() (min, max float32) {
	if t.version.HasFloatHeights() {
		return t.heightFloatMin, t.heightFloatMax
	}
	return float32(t.heightMin), float32(t.heightMax)
}

// TileAverageHeight returns the per-cluster average height.
func (t *Terrain) TileAverageHeight() *Grid[float32] { return t.tileAverage }

// TileFlatness returns the per-cluster height range.
func (t *Terrain) TileFlatness() *Grid[float32] { return t.tileFlatness }

// TileFlatnessMapMax returns the largest per-cluster height range.
func (t *Terrain) TileFlatnessMapMax() float32 { return t.tileFlatnessMax }

// Clear resets every cell to its default and recomputes derived data.
func (t *Terrain) Clear() {
	switch h := t.heights.(type) {
	case *FixedHeights:
		h.Fill(0)
	case *FloatHeights:
		h.Fill(0)
	}
	if t.normals != nil {
		t.normals.Fill(0)
	}
	t.colors.Fill(White)
	t.alpha1.Fill(0)
	t.alpha2.Fill(0)
	t.alpha3.Fill(0)
	t.cells.Fill(CellNone)
	t.info.Fill(0)

	t.UpdateMinMax()
	t.RegenerateDerivativeData()
}

// UpdateMinMax rescans the active height grid.
func (t *Terrain) UpdateMinMax() {
	t.resetMinMax()
	switch h := t.heights.(type) {
	case *FixedHeights:
		for _, v := range h.Cells() {
			t.trackFixed(v)
		}
	case *FloatHeights:
		for _, v := range h.Cells() {
			t.trackFloat(v)
		}
	}
}

func (t *Terrain) resetMinMax() {
	t.heightMin, t.heightMax = math.MaxInt16, math.MinInt16
	t.heightFloatMin, t.heightFloatMax = math.MaxFloat32, -math.MaxFloat32
}

func (t *Terrain) trackFixed(v int16) {
	if v < t.heightMin {
		t.heightMin = v
	}
	if v > t.heightMax {
		t.heightMax = v
	}
}

func (t *Terrain) trackFloat(v float32) {
	if v < t.heightFloatMin {
		t.heightFloatMin = v
	}
	if v > t.heightFloatMax {
		t.heightFloatMax = v
	}
}

// Translate adds delta to every height. 16-bit heights are rounded and
// saturate at the int16 range; float heights saturate at ±MaxFloat32.
// Derived tile data is left stale.
func (t *Terrain) Translate(delta float64) {
	switch h := t.heights.(type) {
	case *FixedHeights:
		cells := h.Cells()
		for i, v := range cells {
			cells[i] = clampInt16(math.Round(float64(v) + delta))
		}
	case *FloatHeights:
		cells := h.Cells()
		for i, v := range cells {
			cells[i] = clampFloat32(float64(v) + delta)
		}
	}
	t.UpdateMinMax()
}

// RescaleHeight linearly maps every height from [min1, max1] to [min2, max2].
// min1 == max1 is a caller error. 16-bit heights are clamped then truncated.
func (t *Terrain) RescaleHeight(min1, max1, min2, max2 float32) {
	scale := (max2 - min2) / (max1 - min1)

	switch h := t.heights.(type) {
	case *FixedHeights:
		cells := h.Cells()
		for i, v := range cells {
			nv := (float32(v)-min1)*scale + min2
			cells[i] = clampInt16(float64(nv))
		}
	case *FloatHeights:
		cells := h.Cells()
		for i, v := range cells {
			cells[i] = (v-min1)*scale + min2
		}
	}
	t.UpdateMinMax()
}

// SetPan moves the grid origin, keeping the size and every cell value.
func (t *Terrain) SetPan(minX, minZ int16) {
	width, height := t.Width(), t.Height()
	t.bounds = Bounds{
		MinX: minX,
		MinZ: minZ,
		MaxX: int16(int(minX) + width),
		MaxZ: int16(int(minZ) + height),
	}
}

// SetHeight stores a height at (x, z), converting to the active storage.
// Min/max and derived data are not refreshed.
func (t *Terrain) SetHeight(x, z int, v float64) {
	switch h := t.heights.(type) {
	case *FixedHeights:
		h.Set(x, z, clampInt16(math.Round(v)))
	case *FloatHeights:
		h.Set(x, z, clampFloat32(v))
	}
}

func clampInt16(v float64) int16 {
	if v < math.MinInt16 {
		return math.MinInt16
	}
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

func clampFloat32(v float64) float32 {
	if v < -math.MaxFloat32 {
		return -math.MaxFloat32
	}
	if v > math.MaxFloat32 {
		return math.MaxFloat32
	}
	return float32(v)
}
