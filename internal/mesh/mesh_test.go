package mesh

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// assertClosed checks that every directed triangle edge is matched by
// exactly one edge running the other way.
func assertClosed(t *testing.T, s *Shape) {
	t.Helper()
	edges := make(map[[2]int]int)
	for _, tri := range s.Triangles {
		for k := 0; k < 3; k++ {
			edges[[2]int{tri[k], tri[(k+1)%3]}]++
		}
	}
	for e, n := range edges {
		if n != 1 || edges[[2]int{e[1], e[0]}] != 1 {
			t.Fatalf("edge %v used %d times, reverse %d times", e, n, edges[[2]int{e[1], e[0]}])
		}
	}
}

func polygonArea(steps int, r float64) float64 {
	return float64(steps) / 2 * r * r * math.Sin(2*math.Pi/float64(steps))
}

func TestSphere(t *testing.T) {
	for _, steps := range []int{3, 8, 32} {
		s := Sphere(steps, 2)

		require.NoError(t, s.Validate())
		assert.Len(t, s.Positions, 2+(steps-1)*steps)
		assert.Len(t, s.Triangles, 2*steps*(steps-1))
		assertClosed(t, s)
		assert.Greater(t, s.Volume(), 0.0, "outward winding")
		for _, p := range s.Positions {
			assert.InDelta(t, 2, r3.Norm(p), 1e-12)
		}
	}

	fine := Sphere(96, 1)
	assert.InDelta(t, 4.0/3*math.Pi, fine.Volume(), 0.01)
}

func TestSphere_ClampsSteps(t *testing.T) {
	assert.Len(t, Sphere(1, 1).Positions, 2+2*3)
}

func TestTruncatedCone(t *testing.T) {
	const steps, r0, r1, h = 24, 1.0, 0.5, 3.0
	c := TruncatedCone(steps, r0, r1, h, true)

	require.NoError(t, c.Validate())
	assert.Len(t, c.Positions, 2*steps+2)
	assert.Len(t, c.Triangles, 4*steps)
	assertClosed(t, c)

	a0, a1 := polygonArea(steps, r0), polygonArea(steps, r1)
	want := h / 3 * (a0 + a1 + math.Sqrt(a0*a1))
	assert.InDelta(t, want, c.Volume(), 1e-9)

	open := TruncatedCone(steps, r0, r1, h, false)
	assert.Len(t, open.Triangles, 2*steps)
}

func TestFrameFromZ(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	dirs := []r3.Vec{{Z: 1}, {Z: -1}, {X: 1}, {Y: -3}, {X: 1, Y: 1, Z: -1e-9}}
	for i := 0; i < 50; i++ {
		dirs = append(dirs, r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()})
	}

	for _, d := range dirs {
		f := FrameFromZ(r3.Vec{X: 1}, d)
		assert.InDelta(t, 1, r3.Norm(f.X), 1e-9)
		assert.InDelta(t, 1, r3.Norm(f.Y), 1e-9)
		assert.InDelta(t, 0, r3.Dot(f.X, f.Y), 1e-9)
		assert.InDelta(t, 0, r3.Dot(f.X, f.Z), 1e-9)
		assert.InDelta(t, 1, r3.Dot(r3.Cross(f.X, f.Y), f.Z), 1e-9, "right handed for %v", d)
		assert.InDelta(t, 0, r3.Norm(r3.Sub(f.Z, r3.Unit(d))), 1e-9)

		p := f.Point(r3.Vec{Z: 2})
		assert.InDelta(t, 0, r3.Norm(r3.Sub(p, r3.Add(r3.Vec{X: 1}, r3.Scale(2, f.Z)))), 1e-9)
	}

	id := FrameFromZ(r3.Vec{}, r3.Vec{})
	assert.Equal(t, Identity(), id)
}

func TestSegment(t *testing.T) {
	a, b := r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 1, Y: 4, Z: 1}
	s := Segment(a, b, 0.5, 0.25, 12)
	require.NotNil(t, s)
	assertClosed(t, s)
	assert.Greater(t, s.Volume(), 0.0)

	box := s.Bounds()
	assert.InDelta(t, 1, box.Min.Y, 1e-9)
	assert.InDelta(t, 4, box.Max.Y, 1e-9)
	assert.LessOrEqual(t, box.Max.X, 1.5+1e-9)
	assert.Greater(t, box.Max.X, 1.4)

	assert.Nil(t, Segment(a, a, 1, 1, 8))
}

func TestMerge(t *testing.T) {
	a := &Shape{
		Positions: []r3.Vec{{}, {X: 1}},
		Lines:     [][2]int{{0, 1}},
		Points:    []int{0, 1},
	}
	b := &Shape{
		Positions: []r3.Vec{{Y: 1}, {Y: 2}, {Y: 3}},
		Triangles: [][3]int{{0, 1, 2}},
		Quads:     [][4]int{{0, 1, 2, 0}},
	}

	m := Merge(a, nil, b)
	want := &Shape{
		Positions: []r3.Vec{{}, {X: 1}, {Y: 1}, {Y: 2}, {Y: 3}},
		Points:    []int{0, 1},
		Lines:     [][2]int{{0, 1}},
		Triangles: [][3]int{{2, 3, 4}},
		Quads:     [][4]int{{2, 3, 4, 2}},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, m.Validate())
}

func TestAppend_DropsPartialNormals(t *testing.T) {
	s := Sphere(4, 1)
	s.Append(&Shape{Positions: []r3.Vec{{X: 5}}})
	assert.Nil(t, s.Normals)
	require.NoError(t, s.Validate())
}

func TestQuadsToTriangles(t *testing.T) {
	s := &Shape{
		Positions: []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		Quads:     [][4]int{{0, 1, 2, 3}},
	}
	area := s.SurfaceArea()
	s.QuadsToTriangles()

	assert.Empty(t, s.Quads)
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, s.Triangles)
	assert.InDelta(t, area, s.SurfaceArea(), 1e-12)
	assert.InDelta(t, 1, area, 1e-12)
}

func TestComputeNormals_PointOutward(t *testing.T) {
	s := Sphere(16, 1)
	s.Normals = nil
	s.ComputeNormals()

	require.Len(t, s.Normals, len(s.Positions))
	for i, n := range s.Normals {
		assert.InDelta(t, 1, r3.Norm(n), 1e-9)
		assert.Greater(t, r3.Dot(n, s.Positions[i]), 0.9)
	}
}

func TestValidate_OutOfRange(t *testing.T) {
	s := &Shape{Positions: []r3.Vec{{}}, Lines: [][2]int{{0, 1}}}
	err := s.Validate()
	assert.True(t, errors.Is(err, ErrIndexOutOfRange), "got %v", err)
}

func TestPointsAndLinesToMeshes(t *testing.T) {
	pos := []r3.Vec{{}, {Z: 1}, {Z: 1}}
	spheres := PointsToSpheres(pos, 6, 0.1)
	assert.Len(t, spheres.Positions, 3*len(Sphere(6, 0.1).Positions))

	cyl := LinesToCylinders(pos, [][2]int{{0, 1}, {1, 2}}, 6, 0.05)
	assert.Len(t, cyl.Triangles, 4*6, "zero-length line skipped")
	assertClosed(t, cyl)
}
