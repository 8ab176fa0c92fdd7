package skeleton

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type cellKey struct{ x, y, z int64 }

// endIndex is a uniform grid over branch ends. Branch ends never move, so the
// index only ever grows. Queries are limited to radii no larger than the
// cell size, which keeps every lookup to the 27 surrounding cells.
type endIndex struct {
	cellSize float64
	cells    map[cellKey][]int
	ends     []r3.Vec
}

func newEndIndex(cellSize float64) *endIndex {
	return &endIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int),
	}
}

func (ix *endIndex) key(p r3.Vec) cellKey {
	return cellKey{
		x: int64(math.Floor(p.X / ix.cellSize)),
		y: int64(math.Floor(p.Y / ix.cellSize)),
		z: int64(math.Floor(p.Z / ix.cellSize)),
	}
}

// add registers the end of branch idx. Branches must be added in index order.
func (ix *endIndex) add(idx int, end r3.Vec) {
	k := ix.key(end)
	ix.cells[k] = append(ix.cells[k], idx)
	ix.ends = append(ix.ends, end)
}

// nearest returns the branch whose end is closest to p with a distance
// strictly below maxDist, or -1. Equal distances resolve to the lowest
// branch index, matching a linear scan that keeps the first strictly smaller
// candidate.
func (ix *endIndex) nearest(p r3.Vec, maxDist float64) (int, float64) {
	best, bestDist := -1, maxDist
	ix.visit(p, func(idx int) {
		d := r3.Norm(r3.Sub(p, ix.ends[idx]))
		if d < bestDist || (d == bestDist && best >= 0 && idx < best) {
			best, bestDist = idx, d
		}
	})
	return best, bestDist
}

// within reports whether any branch end lies strictly closer than r to p.
func (ix *endIndex) within(p r3.Vec, r float64) bool {
	found := false
	ix.visit(p, func(idx int) {
		if !found && r3.Norm(r3.Sub(p, ix.ends[idx])) < r {
			found = true
		}
	})
	return found
}

func (ix *endIndex) visit(p r3.Vec, fn func(idx int)) {
	k := ix.key(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, idx := range ix.cells[cellKey{k.x + dx, k.y + dy, k.z + dz}] {
					fn(idx)
				}
			}
		}
	}
}
