package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is a right-handed orthonormal basis placed at Origin.
type Frame struct {
	X, Y, Z r3.Vec
	Origin  r3.Vec
}

// Identity returns the world frame.
func Identity() Frame {
	return Frame{X: r3.Vec{X: 1}, Y: r3.Vec{Y: 1}, Z: r3.Vec{Z: 1}}
}

// FrameFromZ builds a frame whose Z axis points along z using the
// branchless basis of Duff et al. z does not need to be normalized; a zero
// z yields the identity orientation.
func FrameFromZ(origin, z r3.Vec) Frame {
	n := r3.Norm(z)
	if n == 0 || math.IsNaN(n) {
		f := Identity()
		f.Origin = origin
		return f
	}
	z = r3.Scale(1/n, z)
	sign := math.Copysign(1, z.Z)
	a := -1 / (sign + z.Z)
	b := z.X * z.Y * a
	return Frame{
		X:      r3.Vec{X: 1 + sign*z.X*z.X*a, Y: sign * b, Z: -sign * z.X},
		Y:      r3.Vec{X: b, Y: sign + z.Y*z.Y*a, Z: -z.Y},
		Z:      z,
		Origin: origin,
	}
}

// Matrix returns the rotation taking local coordinates to world
// orientation; its columns are X, Y and Z.
func (f Frame) Matrix() *r3.Mat {
	return r3.NewMat([]float64{
		f.X.X, f.Y.X, f.Z.X,
		f.X.Y, f.Y.Y, f.Z.Y,
		f.X.Z, f.Y.Z, f.Z.Z,
	})
}

// Point maps a local point to world coordinates.
func (f Frame) Point(p r3.Vec) r3.Vec {
	return r3.Add(f.Origin, f.Matrix().MulVec(p))
}

// Direction maps a local direction to world coordinates.
func (f Frame) Direction(v r3.Vec) r3.Vec {
	return f.Matrix().MulVec(v)
}
