// Package flatzone groups near-flat terrain clusters into regions that can
// each be levelled to a single height.
//
// Resolution runs in three passes over the cluster grid:
//
//  1. Every perfectly flat cluster (flatness 0) seeds its own region.
//  2. Adjacent seeds whose heights agree within the merge tolerance are
//     unioned.
//  3. If any cluster is nearly flat (0 < flatness <= MaxRange), regions
//     grow breadth-first into such clusters. Regions that meet within
//     tolerance merge; regions that meet outside it leave the contested
//     cluster as a Conflict.
//
// Union always keeps the larger region; on equal size the region being
// processed wins. The surviving region keeps its height.
package flatzone

import (
	"errors"
	"fmt"

	"github.com/Nielk1/bz2terraineditor/pkg/terrain"
)

// Cluster labels that are not region ids.
const (
	Unassigned int32 = 0
	Conflict   int32 = -1
)

// Resolver errors.
var (
	ErrInputSize      = errors.New("flatzone: input size mismatch")
	ErrInvalidOptions = errors.New("flatzone: invalid options")
)

// Options tunes region growth.
type Options struct {
	// MaxRange is the largest flatness a cluster may have and still join a
	// region.
	MaxRange float32
	// MergeTolerance is the largest height difference between two regions
	// that may be unioned.
	MergeTolerance float32
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxRange:       1.0,
		MergeTolerance: 0.25,
	}
}

// Validate rejects negative thresholds.
func (o Options) Validate() error {
	if o.MaxRange < 0 {
		return fmt.Errorf("%w: negative max range %v", ErrInvalidOptions, o.MaxRange)
	}
	if o.MergeTolerance < 0 {
		return fmt.Errorf("%w: negative merge tolerance %v", ErrInvalidOptions, o.MergeTolerance)
	}
	return nil
}

// Input is the per-cluster data the resolver works on. Both slices are
// row-major with ClustersX*ClustersZ entries.
type Input struct {
	ClustersX int
	ClustersZ int
	Flatness  []float32
	Average   []float32
}

// InputFromTerrain snapshots the derived cluster data of t.
// Call t.RegenerateDerivativeData first if heights were edited.
func InputFromTerrain(t *terrain.Terrain) Input {
	flatness := t.TileFlatness().Cells()
	average := t.TileAverageHeight().Cells()
	return Input{
		ClustersX: t.ClustersX(),
		ClustersZ: t.ClustersZ(),
		Flatness:  append([]float32(nil), flatness...),
		Average:   append([]float32(nil), average...),
	}
}

func (in Input) validate() error {
	n := in.ClustersX * in.ClustersZ
	if in.ClustersX < 0 || in.ClustersZ < 0 {
		return fmt.Errorf("%w: %dx%d clusters", ErrInputSize, in.ClustersX, in.ClustersZ)
	}
	if len(in.Flatness) != n || len(in.Average) != n {
		return fmt.Errorf("%w: %dx%d clusters, %d flatness, %d average",
			ErrInputSize, in.ClustersX, in.ClustersZ, len(in.Flatness), len(in.Average))
	}
	return nil
}

// neighbourOffsets lists the 8-connected neighbours in visiting order.
var neighbourOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Resolve assigns every cluster of in to a region, Conflict or Unassigned.
// The result depends only on in and opts.
func Resolve(in Input, opts Options) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := newResolver(in, opts)
	r.seed()
	r.consolidateSeeds()
	if r.hasGrowthCandidates() {
		r.grow()
	}
	return r.result(), nil
}

type resolver struct {
	in   Input
	opts Options

	labels []int32
	isSeed []bool

	parent map[int32]int32
	size   map[int32]int
	height map[int32]float32
}

func newResolver(in Input, opts Options) *resolver {
	n := len(in.Flatness)
	return &resolver{
		in:     in,
		opts:   opts,
		labels: make([]int32, n),
		isSeed: make([]bool, n),
		parent: make(map[int32]int32),
		size:   make(map[int32]int),
		height: make(map[int32]float32),
	}
}

// seed gives every flat cluster its own region, numbered from 1 in
// row-major order.
func (r *resolver) seed() {
	next := int32(1)
	for i, f := range r.in.Flatness {
		if f != 0 {
			continue
		}
		r.labels[i] = next
		r.isSeed[i] = true
		r.parent[next] = next
		r.size[next] = 1
		r.height[next] = r.in.Average[i]
		next++
	}
}

func (r *resolver) consolidateSeeds() {
	for i := range r.labels {
		if !r.isSeed[i] {
			continue
		}
		for _, d := range neighbourOffsets {
			j, ok := r.neighbour(i, d)
			if !ok || !r.isSeed[j] {
				continue
			}
			a := r.find(r.labels[i])
			b := r.find(r.labels[j])
			if a != b && r.withinTolerance(a, b) {
				r.union(a, b)
			}
		}
	}
}

func (r *resolver) hasGrowthCandidates() bool {
	for _, f := range r.in.Flatness {
		if f > 0 && f <= r.opts.MaxRange {
			return true
		}
	}
	return false
}

func (r *resolver) grow() {
	queue := make([]int, 0, len(r.labels))
	for i, l := range r.labels {
		if l > 0 {
			queue = append(queue, i)
		}
	}

	for qi := 0; qi < len(queue); qi++ {
		i := queue[qi]
		if r.labels[i] == Conflict {
			continue
		}
		root := r.find(r.labels[i])

		for _, d := range neighbourOffsets {
			j, ok := r.neighbour(i, d)
			if !ok || r.in.Flatness[j] > r.opts.MaxRange {
				continue
			}

			switch lj := r.labels[j]; lj {
			case Unassigned:
				r.labels[j] = root
				r.size[root]++
				queue = append(queue, j)
			case Conflict:
			default:
				other := r.find(lj)
				if other == root {
					continue
				}
				if r.withinTolerance(root, other) {
					loser := other
					if r.size[other] > r.size[root] {
						loser = root
					}
					moved := r.members(loser)
					root = r.union(root, other)
					for _, m := range moved {
						r.labels[m] = root
					}
					queue = append(queue, moved...)
					continue
				}
				// Heights disagree: the neighbour is contested and blocks
				// further growth, even if it seeded its own region.
				r.markConflict(j)
			}
		}
	}
}

// find returns the root region of id, compressing the path on the way.
func (r *resolver) find(id int32) int32 {
	for r.parent[id] != id {
		r.parent[id] = r.parent[r.parent[id]]
		id = r.parent[id]
	}
	return id
}

// union merges the regions rooted at a and b and returns the survivor.
// a is the region being processed and wins ties.
func (r *resolver) union(a, b int32) int32 {
	winner, loser := a, b
	if r.size[b] > r.size[a] {
		winner, loser = b, a
	}
	r.parent[loser] = winner
	r.size[winner] += r.size[loser]
	delete(r.size, loser)
	delete(r.height, loser)
	return winner
}

func (r *resolver) withinTolerance(a, b int32) bool {
	d := r.height[a] - r.height[b]
	if d < 0 {
		d = -d
	}
	return d <= r.opts.MergeTolerance
}

// members scans the whole grid for clusters belonging to root.
func (r *resolver) members(root int32) []int {
	var out []int
	for i, l := range r.labels {
		if l > 0 && r.find(l) == root {
			out = append(out, i)
		}
	}
	return out
}

func (r *resolver) markConflict(i int) {
	root := r.find(r.labels[i])
	r.labels[i] = Conflict
	r.size[root]--
	if r.size[root] <= 0 {
		delete(r.size, root)
		delete(r.height, root)
	}
}

func (r *resolver) neighbour(i int, d [2]int) (int, bool) {
	w := r.in.ClustersX
	x, z := i%w+d[0], i/w+d[1]
	if x < 0 || z < 0 || x >= w || z >= r.in.ClustersZ {
		return 0, false
	}
	return z*w + x, true
}

func (r *resolver) result() *Result {
	res := &Result{
		ClustersX: r.in.ClustersX,
		ClustersZ: r.in.ClustersZ,
		Labels:    make([]int32, len(r.labels)),
		byID:      make(map[int32]int),
	}

	for i, l := range r.labels {
		if l > 0 {
			l = r.find(l)
		}
		res.Labels[i] = l
		if l <= 0 {
			continue
		}
		idx, ok := res.byID[l]
		if !ok {
			idx = len(res.Regions)
			res.byID[l] = idx
			res.Regions = append(res.Regions, Region{ID: l, Height: r.height[l]})
		}
		res.Regions[idx].Size++
	}

	res.sortRegions()
	return res
}
