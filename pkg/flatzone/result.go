package flatzone

import (
	"image/color"
	"math"
	"sort"
)

// Region is a set of clusters that flatten to one height.
type Region struct {
	ID     int32
	Size   int // member clusters
	Height float32
}

// Result is the outcome of Resolve.
type Result struct {
	ClustersX int
	ClustersZ int
	// Labels holds one entry per cluster, row-major: a region id,
	// Unassigned or Conflict.
	Labels  []int32
	Regions []Region // ascending by ID

	byID map[int32]int
}

func (r *Result) sortRegions() {
	sort.Slice(r.Regions, func(i, j int) bool { return r.Regions[i].ID < r.Regions[j].ID })
	for i, reg := range r.Regions {
		r.byID[reg.ID] = i
	}
}

// Label returns the label of cluster (cx, cz).
func (r *Result) Label(cx, cz int) int32 {
	return r.Labels[cz*r.ClustersX+cx]
}

// Region looks up a region by id.
func (r *Result) Region(id int32) (Region, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Region{}, false
	}
	return r.Regions[idx], true
}

// FlattenHeight returns the target height of cluster (cx, cz), or false if
// it belongs to no region.
func (r *Result) FlattenHeight(cx, cz int) (float32, bool) {
	reg, ok := r.Region(r.Label(cx, cz))
	return reg.Height, ok
}

// Count returns how many clusters carry exactly label.
func (r *Result) Count(label int32) int {
	n := 0
	for _, l := range r.Labels {
		if l == label {
			n++
		}
	}
	return n
}

// Assigned returns the number of clusters that belong to a region.
func (r *Result) Assigned() int {
	n := 0
	for _, reg := range r.Regions {
		n += reg.Size
	}
	return n
}

// Largest returns the region with the most clusters, lowest id first on ties.
func (r *Result) Largest() (Region, bool) {
	if len(r.Regions) == 0 {
		return Region{}, false
	}
	best := r.Regions[0]
	for _, reg := range r.Regions[1:] {
		if reg.Size > best.Size {
			best = reg
		}
	}
	return best, true
}

// ConflictColor marks Conflict clusters in overlays.
var ConflictColor = color.RGBA{R: 255, A: 255}

// Color returns the overlay color for cluster (cx, cz). Unassigned clusters
// are shaded from white (flat) to black (flatnessMax); conflicts are red;
// each region gets its own hue.
func (r *Result) Color(cx, cz int, flatness, flatnessMax float32) color.RGBA {
	switch l := r.Label(cx, cz); {
	case l == Conflict:
		return ConflictColor
	case l > 0:
		return regionColor(l)
	default:
		v := uint8(255)
		if flatnessMax > 0 {
			f := math.Min(math.Max(float64(flatness/flatnessMax), 0), 1)
			v = uint8(math.Round(255 * (1 - f)))
		}
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
}

// regionColor spreads ids around the hue wheel by the golden angle.
func regionColor(id int32) color.RGBA {
	hue := math.Mod(float64(id)*137.508, 360)
	return hsv(hue, 0.55, 0.95)
}

func hsv(h, s, v float64) color.RGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 255}
}
