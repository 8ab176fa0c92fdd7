package skeleton

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
)

// directionEpsilon is the shortest vector treated as having a direction.
const directionEpsilon = 1e-12

// NewRand returns the generator used for reproducible growth runs.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randomUnitVector samples a direction uniformly on the unit sphere.
func randomUnitVector(rng *rand.Rand) r3.Vec {
	z := 1 - 2*rng.Float64()
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * rng.Float64()
	return r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// unit normalizes v. ok is false when v is too short to have a direction.
func unit(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n < directionEpsilon || math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// perturb adds factor times a random unit vector to dir and normalizes the
// sum. A random vector is drawn even when factor is zero so that the number
// of draws per run does not depend on the factor.
func perturb(dir r3.Vec, factor float64, rng *rand.Rand) (r3.Vec, bool) {
	noise := randomUnitVector(rng)
	return unit(r3.Add(dir, r3.Scale(factor, noise)))
}
