package skeleton

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPropagateRadii_Fork(t *testing.T) {
	g := forkGraph()

	radii, err := PropagateRadii(g, RadiusParams{LeafRadius: 1, InvertedGrowth: 2})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, radii[2], 1e-12)
	assert.InDelta(t, 1.0, radii[3], 1e-12)
	assert.InDelta(t, math.Sqrt2, radii[1], 1e-12)
	assert.InDelta(t, math.Sqrt2, radii[0], 1e-12, "single child inherits")
	for i, r := range radii {
		assert.Equal(t, r, g.Branches[i].Radius)
	}
	assert.True(t, g.HasRadii())
}

func TestPropagateRadii_RootOnly(t *testing.T) {
	g := NewGraph(r3.Vec{}, r3.Vec{Y: 0.2})

	radii, err := PropagateRadii(g, RadiusParams{LeafRadius: 0.05, InvertedGrowth: 2.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.05}, radii)
}

func TestPropagateRadii_ThreeWayMerge(t *testing.T) {
	g := NewGraph(r3.Vec{}, r3.Vec{Y: 1})
	for _, x := range []float64{-1, 0, 1} {
		g.AddChild(0, r3.Vec{X: x, Y: 2})
	}

	radii, err := PropagateRadii(g, RadiusParams{LeafRadius: 2, InvertedGrowth: 3})
	require.NoError(t, err)
	assert.InDelta(t, math.Cbrt(3*8), radii[0], 1e-9)
}

func TestPropagateRadii_Idempotent(t *testing.T) {
	res := growSphere(t, 7, 300)
	params := RadiusParams{LeafRadius: 0.01, InvertedGrowth: 2.2}

	first, err := PropagateRadii(res.Graph, params)
	require.NoError(t, err)
	second, err := PropagateRadii(res.Graph, params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPropagateRadii_ParentsNeverThinner(t *testing.T) {
	res := growSphere(t, 11, 400)

	_, err := PropagateRadii(res.Graph, RadiusParams{LeafRadius: 0.01, InvertedGrowth: 1.5})
	require.NoError(t, err)

	g := res.Graph
	for i := range g.Branches {
		for _, c := range g.Branches[i].Children {
			assert.GreaterOrEqual(t, g.Branches[i].Radius, g.Branches[c].Radius-1e-12,
				"branch %d thinner than child %d", i, c)
		}
	}
}

func TestPropagateRadii_Invalid(t *testing.T) {
	g := forkGraph()

	for _, p := range []RadiusParams{
		{LeafRadius: 0, InvertedGrowth: 2},
		{LeafRadius: -1, InvertedGrowth: 2},
		{LeafRadius: 1, InvertedGrowth: 0},
		{LeafRadius: math.NaN(), InvertedGrowth: 2},
	} {
		_, err := PropagateRadii(g, p)
		assert.True(t, errors.Is(err, ErrInvalidParams), "params %+v: got %v", p, err)
	}

	g.Branches[2].Parent = 0
	_, err := PropagateRadii(g, DefaultRadiusParams())
	assert.True(t, errors.Is(err, ErrInvalidGraph), "got %v", err)
}

func growSphere(t *testing.T, seed uint64, n int) *Result {
	t.Helper()
	rng := NewRand(seed)
	points := make([]r3.Vec, n)
	for i := range points {
		points[i] = r3.Add(r3.Vec{Y: 2}, r3.Scale(1.5*rng.Float64(), randomUnitVector(rng)))
	}
	params := DefaultGrowthParams()
	params.IterationCap = 2000
	params.RandomFactor = 0.25
	gr, err := NewGrower(params, NewRand(seed))
	require.NoError(t, err)
	res, err := gr.Grow(context.Background(), points)
	require.NoError(t, err)
	return res
}
