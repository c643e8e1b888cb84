package terrain

import "math"

// RegenerateDerivativeData recomputes per-cluster average height, flatness
// and the flatness maximum from the active height grid.
//
// Each cluster samples a (cs+1) x (cs+1) window starting at its origin, so
// adjacent clusters share their edge row and column. Samples past the far
// edge of the terrain are skipped. Any height edit invalidates the result;
// there is no incremental path.
func (t *Terrain) RegenerateDerivativeData() {
	cs := t.ClusterSize()
	width, height := t.Width(), t.Height()

	t.tileFlatnessMax = 0
	first := true

	for tz := 0; tz < t.ClustersZ(); tz++ {
		for tx := 0; tx < t.ClustersX(); tx++ {
			var total float32
			minH := float32(math.MaxFloat32)
			maxH := float32(-math.MaxFloat32)
			count := 0

			for z := tz * cs; z <= (tz+1)*cs && z < height; z++ {
				for x := tx * cs; x <= (tx+1)*cs && x < width; x++ {
					h := t.heights.Sample(x, z)
					total += h
					if h < minH {
						minH = h
					}
					if h > maxH {
						maxH = h
					}
					count++
				}
			}

			flatness := maxH - minH
			t.tileAverage.Set(tx, tz, total/float32(count))
			t.tileFlatness.Set(tx, tz, flatness)

			if first || flatness > t.tileFlatnessMax {
				t.tileFlatnessMax = flatness
				first = false
			}
		}
	}
}
