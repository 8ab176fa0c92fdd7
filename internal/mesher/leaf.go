package mesher

import (
	"github.com/banshee-data/arbor/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// PineNeedleSkeleton returns the line skeleton of a needle cluster: a stem
// of four nodes running down -Z, each sprouting four needles angled further
// down and out along ±X and ±Y.
func PineNeedleSkeleton() *mesh.Shape {
	sh := &mesh.Shape{}
	const nodes = 4
	for i := 0; i < nodes; i++ {
		sh.Positions = append(sh.Positions, r3.Vec{Z: -float64(i)})
	}
	for i := 0; i < nodes-1; i++ {
		sh.Lines = append(sh.Lines, [2]int{i, i + 1})
	}
	for i := 0; i < nodes; i++ {
		c := sh.Positions[i]
		for _, off := range []r3.Vec{{Y: 1}, {Y: -1}, {X: 1}, {X: -1}} {
			tip := r3.Add(c, r3.Add(off, r3.Vec{Z: -1}))
			sh.Lines = append(sh.Lines, [2]int{i, len(sh.Positions)})
			sh.Positions = append(sh.Positions, tip)
		}
	}
	return sh
}

// PineNeedle returns the needle cluster as a solid: small spheres at every
// node and tip joined by thin cylinders.
func PineNeedle() *mesh.Shape {
	sk := PineNeedleSkeleton()
	leaf := mesh.PointsToSpheres(sk.Positions, 4, 0.03)
	leaf.Append(mesh.LinesToCylinders(sk.Positions, sk.Lines, 4, 0.04))
	return leaf
}
