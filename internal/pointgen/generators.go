package pointgen

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownShape is returned by Generate for unregistered shape names.
var ErrUnknownShape = errors.New("unknown point cloud shape")

// Generator fills a volume with n points drawn from rng.
type Generator func(n int, rng *rand.Rand) []r3.Vec

var generators = map[string]Generator{
	"sphere":   Sphere,
	"cone":     Cone,
	"cylinder": Cylinder,
	"box":      func(n int, rng *rand.Rand) []r3.Vec { return Box(n, r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}, rng) },
}

// Shapes lists the names accepted by Generate.
func Shapes() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate samples n points from the named shape.
func Generate(shape string, n int, rng *rand.Rand) ([]r3.Vec, error) {
	gen, ok := generators[shape]
	if !ok {
		opsf("unknown shape %q", shape)
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownShape, shape, Shapes())
	}
	if n < 0 {
		return nil, fmt.Errorf("negative sample count %d", n)
	}
	pts := gen(n, rng)
	diagf("generated %d %s points", len(pts), shape)
	return pts, nil
}

// sampleSphere maps two uniforms onto the unit sphere.
func sampleSphere(u, v float64) r3.Vec {
	z := 1 - 2*u
	r := math.Sqrt(math.Max(0, 1-z*z))
	s, c := math.Sincos(2 * math.Pi * v)
	return r3.Vec{X: r * c, Y: r * s, Z: z}
}

// sampleDisk maps two uniforms onto the unit disk with uniform density.
func sampleDisk(u, v float64) (x, y float64) {
	r := math.Sqrt(v)
	s, c := math.Sincos(2 * math.Pi * u)
	return r * c, r * s
}

// Sphere samples the unit ball centred at the origin. Radii follow
// sin(u*pi/2)^0.8, which crowds points towards the surface and gives a
// fuller crown than a uniform ball.
func Sphere(n int, rng *rand.Rand) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		dir := sampleSphere(rng.Float64(), rng.Float64())
		radius := math.Pow(math.Sin(rng.Float64()*math.Pi/2), 0.8)
		pts[i] = r3.Scale(radius, dir)
	}
	return pts
}

// Cylinder samples a unit-radius cylinder standing on the XZ plane with
// height 2.
func Cylinder(n int, rng *rand.Rand) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		x, z := sampleDisk(rng.Float64(), rng.Float64())
		pts[i] = r3.Vec{X: x, Y: rng.Float64() * 2, Z: z}
	}
	return pts
}

// Cone samples an upright cone with its apex at y=2 and its unit-radius base
// on y=0. Cube-root heights make the density uniform in volume.
func Cone(n int, rng *rand.Rand) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		y := math.Cbrt(rng.Float64())
		x, z := sampleDisk(rng.Float64(), rng.Float64())
		pts[i] = r3.Vec{X: x * y, Y: 2 - 2*y, Z: z * y}
	}
	return pts
}

// Box samples uniformly inside b.
func Box(n int, b r3.Box, rng *rand.Rand) []r3.Vec {
	size := b.Size()
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{
			X: b.Min.X + rng.Float64()*size.X,
			Y: b.Min.Y + rng.Float64()*size.Y,
			Z: b.Min.Z + rng.Float64()*size.Z,
		}
	}
	return pts
}

// Translate returns points shifted by offset.
func Translate(points []r3.Vec, offset r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = r3.Add(p, offset)
	}
	return out
}

// Scale returns points scaled per axis about the origin.
func Scale(points []r3.Vec, s r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = r3.Vec{X: p.X * s.X, Y: p.Y * s.Y, Z: p.Z * s.Z}
	}
	return out
}
