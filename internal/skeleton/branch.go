package skeleton

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// NoParent marks the root branch.
const NoParent = -1

// ErrInvalidGraph is returned when a graph violates the tree invariants.
var ErrInvalidGraph = errors.New("invalid branch graph")

// Branch is one straight segment of the skeleton.
type Branch struct {
	Start r3.Vec
	End   r3.Vec

	Parent   int   // index of the parent branch, NoParent for the root
	Children []int // indices in the order they were grown

	// Attractors holds the points assigned to this branch during the
	// current growth iteration. It is empty between iterations.
	Attractors []r3.Vec

	// Radius is the thickness at End. Zero until PropagateRadii runs.
	Radius float64
}

// Direction returns End - Start.
func (b *Branch) Direction() r3.Vec {
	return r3.Sub(b.End, b.Start)
}

// Length returns the segment length.
func (b *Branch) Length() float64 {
	return r3.Norm(b.Direction())
}

// IsLeaf reports whether the branch has no children.
func (b *Branch) IsLeaf() bool {
	return len(b.Children) == 0
}

// IsRoot reports whether the branch is the root.
func (b *Branch) IsRoot() bool {
	return b.Parent == NoParent
}

// Graph is an append-only arena of branches rooted at index 0.
type Graph struct {
	Branches []Branch

	// Frontier lists the leaves eligible for forward growth.
	Frontier []int
}

// NewGraph creates a graph holding only a root branch from start to end.
func NewGraph(start, end r3.Vec) *Graph {
	return &Graph{
		Branches: []Branch{{Start: start, End: end, Parent: NoParent}},
		Frontier: []int{0},
	}
}

// Len returns the number of branches.
func (g *Graph) Len() int {
	return len(g.Branches)
}

// Root returns the root branch.
func (g *Graph) Root() *Branch {
	return &g.Branches[0]
}

// AddChild appends a branch starting at the parent's end and returns its index.
// The parent's child list is updated; the frontier is left to the caller.
func (g *Graph) AddChild(parent int, end r3.Vec) int {
	idx := len(g.Branches)
	g.Branches = append(g.Branches, Branch{
		Start:  g.Branches[parent].End,
		End:    end,
		Parent: parent,
	})
	g.Branches[parent].Children = append(g.Branches[parent].Children, idx)
	return idx
}

// Leaves returns every childless branch in index order.
func (g *Graph) Leaves() []int {
	leaves := make([]int, 0, len(g.Branches)/2+1)
	for i := range g.Branches {
		if g.Branches[i].IsLeaf() {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

// Depths returns the number of edges between each branch and the root.
func (g *Graph) Depths() []int {
	depths := make([]int, len(g.Branches))
	for i := 1; i < len(g.Branches); i++ {
		depths[i] = depths[g.Branches[i].Parent] + 1
	}
	return depths
}

// Edges returns every parent/child pair, parents in index order.
func (g *Graph) Edges() [][2]int {
	edges := make([][2]int, 0, len(g.Branches))
	for i := range g.Branches {
		for _, c := range g.Branches[i].Children {
			edges = append(edges, [2]int{i, c})
		}
	}
	return edges
}

// PostOrder calls visit for every branch reachable from the root, children
// before their parent and siblings in growth order. The walk uses an explicit
// stack so deep skeletons cannot overflow the goroutine stack.
func (g *Graph) PostOrder(visit func(i int)) {
	if len(g.Branches) == 0 {
		return
	}
	type frame struct {
		node int
		next int // next child to descend into
	}
	stack := []frame{{node: 0}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := g.Branches[top.node].Children
		if top.next < len(children) {
			child := children[top.next]
			top.next++
			stack = append(stack, frame{node: child})
			continue
		}
		visit(top.node)
		stack = stack[:len(stack)-1]
	}
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Branches: make([]Branch, len(g.Branches)),
		Frontier: append([]int(nil), g.Frontier...),
	}
	for i, b := range g.Branches {
		b.Children = append([]int(nil), b.Children...)
		b.Attractors = append([]r3.Vec(nil), b.Attractors...)
		out.Branches[i] = b
	}
	return out
}

// Validate checks the tree invariants: a single root at index 0, parents
// preceding children, child starts matching parent ends and child lists that
// agree with parent links.
func (g *Graph) Validate() error {
	n := len(g.Branches)
	if n == 0 {
		return fmt.Errorf("%w: no root branch", ErrInvalidGraph)
	}
	if g.Branches[0].Parent != NoParent {
		return fmt.Errorf("%w: branch 0 has parent %d", ErrInvalidGraph, g.Branches[0].Parent)
	}
	childCount := 0
	for i := 1; i < n; i++ {
		b := &g.Branches[i]
		if b.Parent < 0 || b.Parent >= i {
			return fmt.Errorf("%w: branch %d has parent %d", ErrInvalidGraph, i, b.Parent)
		}
		if b.Start != g.Branches[b.Parent].End {
			return fmt.Errorf("%w: branch %d does not start at the end of branch %d", ErrInvalidGraph, i, b.Parent)
		}
	}
	for i := range g.Branches {
		for _, c := range g.Branches[i].Children {
			if c <= 0 || c >= n || g.Branches[c].Parent != i {
				return fmt.Errorf("%w: branch %d lists %d as a child", ErrInvalidGraph, i, c)
			}
			childCount++
		}
	}
	if childCount != n-1 {
		return fmt.Errorf("%w: %d child links for %d non-root branches", ErrInvalidGraph, childCount, n-1)
	}
	for _, f := range g.Frontier {
		if f < 0 || f >= n {
			return fmt.Errorf("%w: frontier index %d out of range", ErrInvalidGraph, f)
		}
	}
	return nil
}
