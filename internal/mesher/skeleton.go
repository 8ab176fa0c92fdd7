package mesher

import (
	"github.com/banshee-data/arbor/internal/mesh"
	"github.com/banshee-data/arbor/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Skeleton returns the graph as points and lines. Position i is the end of
// branch i and the final position is the root's start; every position is
// also emitted as a point. Lines join each parent end to its children's
// ends, plus the root start to the root end.
func Skeleton(g *skeleton.Graph) *mesh.Shape {
	n := g.Len()
	sh := &mesh.Shape{}
	if n == 0 {
		return sh
	}
	sh.Positions = make([]r3.Vec, 0, n+1)
	for i := range g.Branches {
		sh.Positions = append(sh.Positions, g.Branches[i].End)
	}
	sh.Positions = append(sh.Positions, g.Root().Start)

	sh.Points = make([]int, len(sh.Positions))
	for i := range sh.Points {
		sh.Points[i] = i
	}
	sh.Lines = append(g.Edges(), [2]int{n, 0})
	diagf("skeleton mesh: positions=%d lines=%d", len(sh.Positions), len(sh.Lines))
	return sh
}
