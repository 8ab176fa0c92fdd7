package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MinSteps is the fewest angular subdivisions that enclose a volume.
const MinSteps = 3

// Sphere builds a closed UV sphere centred at the origin with its poles on
// the Z axis. steps is the number of slices around Z and of stacks between
// the poles. Triangles wind counter-clockwise seen from outside.
func Sphere(steps int, radius float64) *Shape {
	if steps < MinSteps {
		steps = MinSteps
	}
	s := &Shape{}
	s.Positions = append(s.Positions, r3.Vec{Z: radius})
	for i := 1; i < steps; i++ {
		theta := math.Pi * float64(i) / float64(steps)
		st, ct := math.Sincos(theta)
		for j := 0; j < steps; j++ {
			sp, cp := math.Sincos(2 * math.Pi * float64(j) / float64(steps))
			s.Positions = append(s.Positions, r3.Vec{X: radius * st * cp, Y: radius * st * sp, Z: radius * ct})
		}
	}
	s.Positions = append(s.Positions, r3.Vec{Z: -radius})

	top, bottom := 0, len(s.Positions)-1
	ring := func(i, j int) int { return 1 + (i-1)*steps + j%steps }
	for j := 0; j < steps; j++ {
		s.Triangles = append(s.Triangles, [3]int{top, ring(1, j), ring(1, j+1)})
	}
	for i := 1; i < steps-1; i++ {
		for j := 0; j < steps; j++ {
			a0, a1 := ring(i, j), ring(i, j+1)
			b0, b1 := ring(i+1, j), ring(i+1, j+1)
			s.Triangles = append(s.Triangles, [3]int{a0, b0, b1}, [3]int{a0, b1, a1})
		}
	}
	for j := 0; j < steps; j++ {
		s.Triangles = append(s.Triangles, [3]int{ring(steps-1, j), bottom, ring(steps-1, j+1)})
	}
	if radius > 0 {
		for _, p := range s.Positions {
			s.Normals = append(s.Normals, r3.Scale(1/radius, p))
		}
	}
	return s
}

// TruncatedCone builds a cone frustum along +Z with radius r0 at z=0 and r1
// at z=height. With caps set both ends are closed by triangle fans sharing
// the ring vertices, which makes the result watertight.
func TruncatedCone(steps int, r0, r1, height float64, caps bool) *Shape {
	if steps < MinSteps {
		steps = MinSteps
	}
	s := &Shape{}
	for _, ring := range []struct{ r, z float64 }{{r0, 0}, {r1, height}} {
		for j := 0; j < steps; j++ {
			sp, cp := math.Sincos(2 * math.Pi * float64(j) / float64(steps))
			s.Positions = append(s.Positions, r3.Vec{X: ring.r * cp, Y: ring.r * sp, Z: ring.z})
		}
	}
	bot := func(j int) int { return j % steps }
	top := func(j int) int { return steps + j%steps }
	for j := 0; j < steps; j++ {
		s.Triangles = append(s.Triangles,
			[3]int{top(j), bot(j), bot(j + 1)},
			[3]int{top(j), bot(j + 1), top(j + 1)},
		)
	}
	if caps {
		tc := len(s.Positions)
		s.Positions = append(s.Positions, r3.Vec{Z: height})
		bc := len(s.Positions)
		s.Positions = append(s.Positions, r3.Vec{})
		for j := 0; j < steps; j++ {
			s.Triangles = append(s.Triangles,
				[3]int{tc, top(j), top(j + 1)},
				[3]int{bot(j), bc, bot(j + 1)},
			)
		}
	}
	return s
}

// Segment builds a capped frustum from a (radius ra) to b (radius rb).
// It returns nil when a and b coincide.
func Segment(a, b r3.Vec, ra, rb float64, steps int) *Shape {
	axis := r3.Sub(b, a)
	h := r3.Norm(axis)
	if h == 0 || math.IsNaN(h) {
		return nil
	}
	return TruncatedCone(steps, ra, rb, h, true).Transformed(FrameFromZ(a, axis), 1)
}

// PointsToSpheres places a sphere of the given radius on every point.
func PointsToSpheres(positions []r3.Vec, steps int, radius float64) *Shape {
	proto := Sphere(steps, radius)
	out := &Shape{}
	for _, p := range positions {
		sp := proto.Clone()
		for i := range sp.Positions {
			sp.Positions[i] = r3.Add(sp.Positions[i], p)
		}
		out.Append(sp)
	}
	return out
}

// LinesToCylinders thickens every line into a capped cylinder of the given
// radius. Zero-length lines are skipped.
func LinesToCylinders(positions []r3.Vec, lines [][2]int, steps int, radius float64) *Shape {
	out := &Shape{}
	for _, l := range lines {
		if seg := Segment(positions[l[0]], positions[l[1]], radius, radius, steps); seg != nil {
			out.Append(seg)
		}
	}
	return out
}
