package pointgen

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/banshee-data/arbor/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrOpenMesh is returned when a mesh has no faces to bound a volume.
var ErrOpenMesh = errors.New("mesh has no faces")

// maxAttemptsPerPoint bounds rejection sampling for thin volumes.
const maxAttemptsPerPoint = 200

// InsideMesh samples n points inside a closed mesh by rejection from its
// bounding box. A candidate is inside when a ray cast along +X crosses the
// surface an odd number of times. Fewer than n points are returned, with an
// ops log line, when the volume fills too little of its box.
func InsideMesh(shape *mesh.Shape, n int, rng *rand.Rand) ([]r3.Vec, error) {
	if len(shape.Triangles) == 0 && len(shape.Quads) == 0 {
		return nil, ErrOpenMesh
	}
	tri := shape.Clone()
	tri.QuadsToTriangles()
	faces := make([]r3.Triangle, len(tri.Triangles))
	for i, t := range tri.Triangles {
		faces[i] = r3.Triangle{tri.Positions[t[0]], tri.Positions[t[1]], tri.Positions[t[2]]}
	}
	box := tri.Bounds()
	if box.Empty() {
		return nil, fmt.Errorf("%w: bounding box has no volume", ErrOpenMesh)
	}

	pts := make([]r3.Vec, 0, n)
	for attempts := 0; len(pts) < n && attempts < n*maxAttemptsPerPoint; attempts++ {
		p := Box(1, box, rng)[0]
		if crossings(faces, p)%2 == 1 {
			pts = append(pts, p)
		}
	}
	if len(pts) < n {
		opsf("inside-mesh sampling produced %d of %d points", len(pts), n)
	}
	diagf("sampled %d points inside mesh of %d faces", len(pts), len(faces))
	return pts, nil
}

// crossings counts faces hit by the ray from o along +X
// (Möller-Trumbore with the direction fixed to the X axis).
func crossings(faces []r3.Triangle, o r3.Vec) int {
	const eps = 1e-12
	dir := r3.Vec{X: 1}
	hits := 0
	for _, f := range faces {
		e1 := r3.Sub(f[1], f[0])
		e2 := r3.Sub(f[2], f[0])
		h := r3.Cross(dir, e2)
		a := r3.Dot(e1, h)
		if a > -eps && a < eps {
			continue
		}
		inv := 1 / a
		s := r3.Sub(o, f[0])
		u := inv * r3.Dot(s, h)
		if u < 0 || u > 1 {
			continue
		}
		q := r3.Cross(s, e1)
		v := inv * r3.Dot(dir, q)
		if v < 0 || u+v > 1 {
			continue
		}
		if inv*r3.Dot(e2, q) > eps {
			hits++
		}
	}
	return hits
}
