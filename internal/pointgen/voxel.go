package pointgen

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type voxelKey struct{ x, y, z int64 }

// VoxelDownsample keeps the first point that lands in each cubic voxel of
// the given edge length. Survivors stay in input order. A non-positive cell
// returns a copy of points.
func VoxelDownsample(points []r3.Vec, cell float64) []r3.Vec {
	if !(cell > 0) {
		return append([]r3.Vec(nil), points...)
	}
	seen := make(map[voxelKey]struct{}, len(points))
	out := make([]r3.Vec, 0, len(points))
	for _, p := range points {
		k := voxelKey{
			x: int64(math.Floor(p.X / cell)),
			y: int64(math.Floor(p.Y / cell)),
			z: int64(math.Floor(p.Z / cell)),
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	diagf("voxel downsample: %d -> %d points (cell %.3f)", len(points), len(out), cell)
	return out
}
