package terrain

import (
	gomath "math"
	"sync"

	"github.com/Nielk1/bz2terraineditor/pkg/math"
)

// NormalTableSize is the number of quantized normals a normal map indexes.
const NormalTableSize = 256

// gridsPerMeter converts stored heights into grid units for normal estimation.
const gridsPerMeter = 0.5

var normalTable = sync.OnceValue(buildNormalTable)

// NormalTable returns the quantized unit normals addressed by normal-map
// entries: 8 pitch rings of 32 yaw steps, odd rings offset by half a step.
func NormalTable() [NormalTableSize]math.Vec3 {
	return normalTable()
}

func buildNormalTable() [NormalTableSize]math.Vec3 {
	var table [NormalTableSize]math.Vec3
	n := 0
	pitch := -gomath.Pi * 15 / 32
	for p := 0; p < 8; p++ {
		ps, pc := gomath.Sincos(pitch)
		pitch += gomath.Pi / 16

		yaw := 0.0
		if p&1 != 0 {
			yaw = 2 * gomath.Pi / 64
		}
		for y := 0; y < 32; y++ {
			ys, yc := gomath.Sincos(yaw)
			yaw += 2 * gomath.Pi / 32

			table[n] = math.Vec3{
				X: float32(ys * pc),
				Y: float32(-ps),
				Z: float32(yc * pc),
			}
			n++
		}
	}
	return table
}

// NearestNormalIndex returns the table entry with the largest dot product
// against n. Ties resolve to the lowest index.
func NearestNormalIndex(n math.Vec3) uint8 {
	table := NormalTable()
	best := 0
	bestDot := table[0].Dot(n)
	for i := 1; i < len(table); i++ {
		if d := table[i].Dot(n); d > bestDot {
			best, bestDot = i, d
		}
	}
	return uint8(best)
}

// NormalAt estimates the unit surface normal at (x, z) by averaging the six
// triangles sharing the vertex. Quads split along their (0,0)-(1,1)
// diagonal; neighbours past the edge clamp to the border sample.
func (t *Terrain) NormalAt(x, z int) math.Vec3 {
	h := t.heights
	lastX, lastZ := h.Width()-1, h.Height()-1
	xm, xp := max(x-1, 0), min(x+1, lastX)
	zm, zp := max(z-1, 0), min(z+1, lastZ)

	c := h.Sample(x, z) * gridsPerMeter
	dy0 := h.Sample(xm, zm)*gridsPerMeter - c
	dy1 := h.Sample(x, zm)*gridsPerMeter - c
	dy2 := h.Sample(xp, z)*gridsPerMeter - c
	dy3 := h.Sample(xp, zp)*gridsPerMeter - c
	dy4 := h.Sample(x, zp)*gridsPerMeter - c
	dy5 := h.Sample(xm, z)*gridsPerMeter - c

	l0 := invLength(dy1-dy0, dy1, 1)
	l1 := invLength(dy2, dy1, 1)
	l2 := invLength(dy2, dy3-dy2, 1)
	l3 := invLength(dy3-dy4, dy4, 1)
	l4 := invLength(dy5, dy4, 1)
	l5 := invLength(dy5, dy5-dy0, 1)

	n := math.Vec3{
		X: (dy1-dy0)*l0 + dy2*l1 + dy2*l2 + (dy3-dy4)*l3 - dy5*l4 - dy5*l5,
		Y: l0 - l1 - l2 - l3 - l4 - l5,
		Z: -dy1*l0 - dy1*l1 + (dy3-dy2)*l2 + dy4*l3 + dy4*l4 + (dy5-dy0)*l5,
	}

	// The summed triangle normals point down; flip while normalizing.
	return n.Normalize().Negate()
}

// RebuildNormalMap recomputes every normal-map entry from the height grid.
func (t *Terrain) RebuildNormalMap() error {
	if t.normals == nil {
		return ErrNoNormalMap
	}
	for z := 0; z < t.Height(); z++ {
		for x := 0; x < t.Width(); x++ {
			t.normals.Set(x, z, NearestNormalIndex(t.NormalAt(x, z)))
		}
	}
	return nil
}

// MarkSlopes sets CellSloped on every cell whose estimated normal leans
// more than maxAngle radians from vertical and clears it elsewhere.
// It returns the number of sloped cells.
func (t *Terrain) MarkSlopes(maxAngle float32) int {
	count := 0
	for z := 0; z < t.Height(); z++ {
		for x := 0; x < t.Width(); x++ {
			c := t.cells.At(x, z) &^ CellSloped
			if t.NormalAt(x, z).Slope() > maxAngle {
				c |= CellSloped
				count++
			}
			t.cells.Set(x, z, c)
		}
	}
	return count
}

func invLength(a, b, c float32) float32 {
	return 1 / math.Vec3{X: a, Y: b, Z: c}.Length()
}
