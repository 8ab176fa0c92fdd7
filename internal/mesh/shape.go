// Package mesh holds indexed geometry and the primitive builders used to turn
// skeletons into renderable shapes.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrIndexOutOfRange is returned when an element references a missing vertex.
var ErrIndexOutOfRange = errors.New("mesh element index out of range")

// Shape is an indexed mesh. Points, lines, triangles and quads all index
// into Positions; Normals is either empty or parallel to Positions.
type Shape struct {
	Positions []r3.Vec
	Normals   []r3.Vec

	Points    []int
	Lines     [][2]int
	Triangles [][3]int
	Quads     [][4]int
}

// Empty reports whether the shape has no vertices.
func (s *Shape) Empty() bool {
	return s == nil || len(s.Positions) == 0
}

// Clone returns a deep copy.
func (s *Shape) Clone() *Shape {
	return &Shape{
		Positions: append([]r3.Vec(nil), s.Positions...),
		Normals:   append([]r3.Vec(nil), s.Normals...),
		Points:    append([]int(nil), s.Points...),
		Lines:     append([][2]int(nil), s.Lines...),
		Triangles: append([][3]int(nil), s.Triangles...),
		Quads:     append([][4]int(nil), s.Quads...),
	}
}

// Append adds other's elements to s, offsetting its indices past the
// vertices already present. Normals are kept only when both sides have them
// or s is still empty.
func (s *Shape) Append(other *Shape) {
	if other.Empty() {
		return
	}
	offset := len(s.Positions)
	keepNormals := (offset == 0 || len(s.Normals) == offset) && len(other.Normals) == len(other.Positions)

	s.Positions = append(s.Positions, other.Positions...)
	if keepNormals {
		s.Normals = append(s.Normals, other.Normals...)
	} else {
		s.Normals = nil
	}
	for _, p := range other.Points {
		s.Points = append(s.Points, p+offset)
	}
	for _, l := range other.Lines {
		s.Lines = append(s.Lines, [2]int{l[0] + offset, l[1] + offset})
	}
	for _, t := range other.Triangles {
		s.Triangles = append(s.Triangles, [3]int{t[0] + offset, t[1] + offset, t[2] + offset})
	}
	for _, q := range other.Quads {
		s.Quads = append(s.Quads, [4]int{q[0] + offset, q[1] + offset, q[2] + offset, q[3] + offset})
	}
}

// Merge concatenates shapes into a new shape.
func Merge(shapes ...*Shape) *Shape {
	out := &Shape{}
	for _, sh := range shapes {
		out.Append(sh)
	}
	return out
}

// QuadsToTriangles splits every quad along its 0-2 diagonal.
func (s *Shape) QuadsToTriangles() {
	for _, q := range s.Quads {
		s.Triangles = append(s.Triangles, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	s.Quads = nil
}

// Transformed returns a copy scaled uniformly by scale and then moved into f.
func (s *Shape) Transformed(f Frame, scale float64) *Shape {
	out := s.Clone()
	rot := f.Matrix()
	for i, p := range out.Positions {
		out.Positions[i] = r3.Add(f.Origin, rot.MulVec(r3.Scale(scale, p)))
	}
	for i, n := range out.Normals {
		out.Normals[i] = rot.MulVec(n)
	}
	return out
}

// Bounds returns the axis-aligned box around all positions.
func (s *Shape) Bounds() r3.Box {
	if s.Empty() {
		return r3.Box{}
	}
	b := r3.Box{Min: s.Positions[0], Max: s.Positions[0]}
	for _, p := range s.Positions[1:] {
		b.Min = r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
	}
	return b
}

// Validate checks that every element references an existing vertex.
func (s *Shape) Validate() error {
	n := len(s.Positions)
	if len(s.Normals) != 0 && len(s.Normals) != n {
		return fmt.Errorf("%d normals for %d positions", len(s.Normals), n)
	}
	check := func(kind string, i int, idx ...int) error {
		for _, v := range idx {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: %s %d references vertex %d of %d", ErrIndexOutOfRange, kind, i, v, n)
			}
		}
		return nil
	}
	for i, p := range s.Points {
		if err := check("point", i, p); err != nil {
			return err
		}
	}
	for i, l := range s.Lines {
		if err := check("line", i, l[:]...); err != nil {
			return err
		}
	}
	for i, t := range s.Triangles {
		if err := check("triangle", i, t[:]...); err != nil {
			return err
		}
	}
	for i, q := range s.Quads {
		if err := check("quad", i, q[:]...); err != nil {
			return err
		}
	}
	return nil
}
