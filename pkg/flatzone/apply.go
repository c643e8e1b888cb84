package flatzone

import (
	"fmt"

	"github.com/Nielk1/bz2terraineditor/pkg/terrain"
)

// Apply levels every cell of every region cluster to its region height and
// refreshes the terrain's height range. Conflict and Unassigned clusters
// are left untouched. It returns the number of clusters changed.
//
// Derived tile data is not recomputed; call t.RegenerateDerivativeData
// before resolving again.
func Apply(t *terrain.Terrain, res *Result) (int, error) {
	if t.ClustersX() != res.ClustersX || t.ClustersZ() != res.ClustersZ {
		return 0, fmt.Errorf("%w: terrain has %dx%d clusters, result has %dx%d",
			ErrInputSize, t.ClustersX(), t.ClustersZ(), res.ClustersX, res.ClustersZ)
	}

	cs := t.ClusterSize()
	changed := 0
	for cz := 0; cz < res.ClustersZ; cz++ {
		for cx := 0; cx < res.ClustersX; cx++ {
			h, ok := res.FlattenHeight(cx, cz)
			if !ok {
				continue
			}
			for z := cz * cs; z < (cz+1)*cs; z++ {
				for x := cx * cs; x < (cx+1)*cs; x++ {
					t.SetHeight(x, z, float64(h))
				}
			}
			changed++
		}
	}

	t.UpdateMinMax()
	return changed, nil
}
