package flatzone

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary reports cluster and region statistics for one resolution.
type Summary struct {
	Clusters   int
	Seeds      int // clusters with zero flatness
	Assigned   int
	Conflicts  int
	Unassigned int
	Regions    int
	Largest    Region

	FlatnessMean   float64
	FlatnessStdDev float64
	FlatnessMedian float64
	FlatnessMax    float64

	// RegionHeightSpread is the distance between the lowest and highest
	// region heights.
	RegionHeightSpread float64
}

// Summarize computes a Summary of res over the input it was resolved from.
func Summarize(in Input, res *Result) Summary {
	s := Summary{
		Clusters:   len(in.Flatness),
		Assigned:   res.Assigned(),
		Conflicts:  res.Count(Conflict),
		Unassigned: res.Count(Unassigned),
		Regions:    len(res.Regions),
	}
	s.Largest, _ = res.Largest()

	if len(in.Flatness) == 0 {
		return s
	}

	flatness := make([]float64, len(in.Flatness))
	for i, f := range in.Flatness {
		flatness[i] = float64(f)
		if f == 0 {
			s.Seeds++
		}
	}

	s.FlatnessMean, s.FlatnessStdDev = stat.MeanStdDev(flatness, nil)
	s.FlatnessMax = floats.Max(flatness)

	sort.Float64s(flatness)
	s.FlatnessMedian = stat.Quantile(0.5, stat.Empirical, flatness, nil)

	if len(res.Regions) > 0 {
		heights := make([]float64, len(res.Regions))
		for i, reg := range res.Regions {
			heights[i] = float64(reg.Height)
		}
		s.RegionHeightSpread = floats.Max(heights) - floats.Min(heights)
	}

	return s
}
