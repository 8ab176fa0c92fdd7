package skeleton

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// forkGraph builds root -> A -> (B, C).
func forkGraph() *Graph {
	g := NewGraph(r3.Vec{}, r3.Vec{Y: 1})
	a := g.AddChild(0, r3.Vec{Y: 2})
	g.AddChild(a, r3.Vec{X: -1, Y: 3})
	g.AddChild(a, r3.Vec{X: 1, Y: 3})
	g.Frontier = g.Leaves()
	return g
}

func TestNewGraph(t *testing.T) {
	g := NewGraph(r3.Vec{}, r3.Vec{Y: 0.2})

	require.Equal(t, 1, g.Len())
	assert.True(t, g.Root().IsRoot())
	assert.True(t, g.Root().IsLeaf())
	assert.Equal(t, []int{0}, g.Frontier)
	assert.InDelta(t, 0.2, g.Root().Length(), 1e-12)
	assert.NoError(t, g.Validate())
}

func TestGraph_AddChild(t *testing.T) {
	g := forkGraph()

	require.Equal(t, 4, g.Len())
	assert.Equal(t, []int{1}, g.Branches[0].Children)
	assert.Equal(t, []int{2, 3}, g.Branches[1].Children)
	assert.Equal(t, g.Branches[1].End, g.Branches[2].Start)
	assert.Equal(t, g.Branches[1].End, g.Branches[3].Start)
	assert.Equal(t, []int{2, 3}, g.Leaves())
	assert.Equal(t, []int{0, 1, 2, 2}, g.Depths())
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {1, 3}}, g.Edges())
	assert.NoError(t, g.Validate())
}

func TestGraph_PostOrder(t *testing.T) {
	g := forkGraph()
	c := g.AddChild(2, r3.Vec{X: -2, Y: 4})

	var order []int
	g.PostOrder(func(i int) { order = append(order, i) })

	if diff := cmp.Diff([]int{c, 2, 3, 1, 0}, order); diff != "" {
		t.Errorf("post-order mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_PostOrderDeepChain(t *testing.T) {
	g := NewGraph(r3.Vec{}, r3.Vec{Y: 1})
	last := 0
	for i := 0; i < 200000; i++ {
		last = g.AddChild(last, r3.Add(g.Branches[last].End, r3.Vec{Y: 1}))
	}

	visited := 0
	first := -1
	g.PostOrder(func(i int) {
		if first < 0 {
			first = i
		}
		visited++
	})
	assert.Equal(t, g.Len(), visited)
	assert.Equal(t, last, first)
}

func TestGraph_Clone(t *testing.T) {
	g := forkGraph()
	c := g.Clone()
	c.Branches[1].Children[0] = 99
	c.Frontier[0] = 42

	assert.Equal(t, []int{2, 3}, g.Branches[1].Children)
	assert.Equal(t, []int{2, 3}, g.Frontier)
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Graph)
	}{
		{"empty", func(g *Graph) { g.Branches = nil }},
		{"root with parent", func(g *Graph) { g.Branches[0].Parent = 2 }},
		{"parent after child", func(g *Graph) { g.Branches[2].Parent = 3 }},
		{"detached start", func(g *Graph) { g.Branches[3].Start = r3.Vec{X: 7} }},
		{"missing child link", func(g *Graph) { g.Branches[1].Children = []int{2} }},
		{"duplicate child link", func(g *Graph) { g.Branches[1].Children = []int{2, 3, 3} }},
		{"frontier out of range", func(g *Graph) { g.Frontier = []int{9} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := forkGraph()
			tt.mutate(g)
			err := g.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGraph), "got %v", err)
		})
	}
}
