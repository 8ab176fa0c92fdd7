// Package testutil provides shared test fixtures for the tree packages.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/arbor/internal/pointgen"
	"github.com/banshee-data/arbor/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// ForkGraph returns a trunk from the origin to (0,1,0) with two children
// ending at (-1,2,0) and (1,2,0). Radii are not propagated.
func ForkGraph() *skeleton.Graph {
	g := skeleton.NewGraph(r3.Vec{}, r3.Vec{Y: 1})
	g.AddChild(0, r3.Vec{X: -1, Y: 2})
	g.AddChild(0, r3.Vec{X: 1, Y: 2})
	g.Frontier = g.Leaves()
	return g
}

// GrowSphereTree grows a tree into n points sampled from the unit sphere
// lifted to sit above the trunk, then propagates default radii.
func GrowSphereTree(t testing.TB, n int, seed uint64) (*skeleton.Result, []r3.Vec) {
	t.Helper()
	rng := skeleton.NewRand(seed)
	points := pointgen.Translate(pointgen.Sphere(n, rng), r3.Vec{Y: 1.5})

	params := skeleton.DefaultGrowthParams()
	params.IterationCap = 2000
	grower, err := skeleton.NewGrower(params, rng)
	if err != nil {
		t.Fatalf("NewGrower: %v", err)
	}
	res, err := grower.Grow(context.Background(), points)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if _, err := skeleton.PropagateRadii(res.Graph, skeleton.DefaultRadiusParams()); err != nil {
		t.Fatalf("PropagateRadii: %v", err)
	}
	return res, points
}
