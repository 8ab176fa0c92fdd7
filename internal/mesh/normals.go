package mesh

import "gonum.org/v1/gonum/spatial/r3"

// ComputeNormals sets area-weighted vertex normals from the triangles and
// quads. Vertices that belong to no face get a zero normal. Shapes without
// faces are left untouched.
func (s *Shape) ComputeNormals() {
	if len(s.Triangles) == 0 && len(s.Quads) == 0 {
		return
	}
	acc := make([]r3.Vec, len(s.Positions))
	addFace := func(a, b, c int) {
		n := r3.Triangle{s.Positions[a], s.Positions[b], s.Positions[c]}.Normal()
		acc[a] = r3.Add(acc[a], n)
		acc[b] = r3.Add(acc[b], n)
		acc[c] = r3.Add(acc[c], n)
	}
	for _, t := range s.Triangles {
		addFace(t[0], t[1], t[2])
	}
	for _, q := range s.Quads {
		addFace(q[0], q[1], q[2])
		addFace(q[0], q[2], q[3])
	}
	for i, n := range acc {
		if l := r3.Norm(n); l > 0 {
			acc[i] = r3.Scale(1/l, n)
		}
	}
	s.Normals = acc
}

// SurfaceArea sums the area of all faces.
func (s *Shape) SurfaceArea() float64 {
	area := 0.0
	for _, t := range s.Triangles {
		area += r3.Triangle{s.Positions[t[0]], s.Positions[t[1]], s.Positions[t[2]]}.Area()
	}
	for _, q := range s.Quads {
		area += r3.Triangle{s.Positions[q[0]], s.Positions[q[1]], s.Positions[q[2]]}.Area()
		area += r3.Triangle{s.Positions[q[0]], s.Positions[q[2]], s.Positions[q[3]]}.Area()
	}
	return area
}

// Volume returns the signed volume enclosed by the triangles. It is only
// meaningful for closed, consistently wound meshes; outward winding gives a
// positive value.
func (s *Shape) Volume() float64 {
	v := 0.0
	for _, t := range s.Triangles {
		a, b, c := s.Positions[t[0]], s.Positions[t[1]], s.Positions[t[2]]
		v += r3.Dot(a, r3.Cross(b, c))
	}
	return v / 6
}
