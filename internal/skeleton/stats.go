package skeleton

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the shape of a skeleton.
type Stats struct {
	Branches    int
	Leaves      int
	MaxDepth    int
	TotalLength float64

	MeanLeafDepth   float64
	StdDevLeafDepth float64
	P90LeafDepth    float64

	RootRadius float64
	MinRadius  float64
	MaxRadius  float64

	Bounds r3.Box
}

// Summarize computes Stats for g. Radius fields are zero until radii have
// been propagated.
func Summarize(g *Graph) Stats {
	var s Stats
	s.Branches = g.Len()
	if s.Branches == 0 {
		return s
	}

	depths := g.Depths()
	lengths := make([]float64, 0, s.Branches)
	radii := make([]float64, 0, s.Branches)
	var leafDepths []float64

	root := g.Root()
	s.Bounds = r3.Box{Min: root.Start, Max: root.Start}
	for i := range g.Branches {
		b := &g.Branches[i]
		lengths = append(lengths, b.Length())
		radii = append(radii, b.Radius)
		s.Bounds = extend(s.Bounds, b.End)
		if depths[i] > s.MaxDepth {
			s.MaxDepth = depths[i]
		}
		if b.IsLeaf() {
			leafDepths = append(leafDepths, float64(depths[i]))
		}
	}

	s.Leaves = len(leafDepths)
	s.TotalLength = floats.Sum(lengths)
	s.RootRadius = root.Radius
	s.MinRadius = floats.Min(radii)
	s.MaxRadius = floats.Max(radii)

	sort.Float64s(leafDepths)
	s.MeanLeafDepth, s.StdDevLeafDepth = stat.MeanStdDev(leafDepths, nil)
	if len(leafDepths) < 2 {
		s.StdDevLeafDepth = 0
	}
	s.P90LeafDepth = stat.Quantile(0.9, stat.Empirical, leafDepths, nil)
	return s
}

// extend grows box to contain v. r3.Box.Union ignores zero-volume boxes,
// which a box built from one point always is.
func extend(box r3.Box, v r3.Vec) r3.Box {
	box.Min = r3.Vec{X: math.Min(box.Min.X, v.X), Y: math.Min(box.Min.Y, v.Y), Z: math.Min(box.Min.Z, v.Z)}
	box.Max = r3.Vec{X: math.Max(box.Max.X, v.X), Y: math.Max(box.Max.Y, v.Y), Z: math.Max(box.Max.Z, v.Z)}
	return box
}
