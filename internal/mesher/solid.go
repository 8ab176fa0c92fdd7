package mesher

import (
	"errors"
	"fmt"

	"github.com/banshee-data/arbor/internal/mesh"
	"github.com/banshee-data/arbor/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrMissingRadii is returned when a solid is requested before radii
	// have been propagated.
	ErrMissingRadii = errors.New("branch radii not propagated")
	// ErrInvalidOptions is returned for unusable mesh options.
	ErrInvalidOptions = errors.New("invalid mesher options")
)

// SolidOptions controls solid mesh resolution and leaf placement.
type SolidOptions struct {
	SphereSteps int // angular subdivisions of joint spheres
	ConeSteps   int // angular subdivisions of branch frustums

	EnableLeaves bool
	LeafScale    float64
	// Leaf is the fragment placed at every branch tip, modelled with its
	// stem running from the origin along -Z. Nil means PineNeedle.
	Leaf *mesh.Shape
}

// DefaultSolidOptions returns the stock resolution without leaves.
func DefaultSolidOptions() SolidOptions {
	return SolidOptions{SphereSteps: 5, ConeSteps: 16, LeafScale: 0.05}
}

// Validate checks step counts and the leaf scale.
func (o SolidOptions) Validate() error {
	if o.SphereSteps < mesh.MinSteps {
		return fmt.Errorf("%w: sphere steps %d below %d", ErrInvalidOptions, o.SphereSteps, mesh.MinSteps)
	}
	if o.ConeSteps < mesh.MinSteps {
		return fmt.Errorf("%w: cone steps %d below %d", ErrInvalidOptions, o.ConeSteps, mesh.MinSteps)
	}
	if o.EnableLeaves && !(o.LeafScale > 0) {
		return fmt.Errorf("%w: leaf scale %v must be positive", ErrInvalidOptions, o.LeafScale)
	}
	return nil
}

// Solid builds a triangle mesh of the graph. Every branch becomes a capped
// frustum from its parent's radius at Start to its own radius at End, with
// a sphere of its own radius covering the joint at End. Leaves, when
// enabled, are attached at the end of every childless branch with the
// fragment's stem pointing along the branch.
func Solid(g *skeleton.Graph, opts SolidOptions) (*mesh.Shape, error) {
	if err := opts.Validate(); err != nil {
		opsf("rejecting solid options: %v", err)
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("solid mesh: %w", err)
	}
	if !g.HasRadii() {
		return nil, ErrMissingRadii
	}

	leaf := opts.Leaf
	if opts.EnableLeaves && leaf == nil {
		leaf = PineNeedle()
	}

	out := &mesh.Shape{}
	joint := mesh.Sphere(opts.SphereSteps, 1)
	skipped, leaves := 0, 0
	for i := range g.Branches {
		b := &g.Branches[i]
		near := b.Radius
		if !b.IsRoot() {
			near = g.Branches[b.Parent].Radius
		}

		if seg := mesh.Segment(b.Start, b.End, near, b.Radius, opts.ConeSteps); seg != nil {
			out.Append(seg)
		} else {
			skipped++
		}
		at := mesh.Identity()
		at.Origin = b.End
		out.Append(joint.Transformed(at, b.Radius))
		tracef("branch %d: near=%.4f far=%.4f", i, near, b.Radius)

		if opts.EnableLeaves && b.IsLeaf() {
			frame := mesh.FrameFromZ(b.End, r3.Scale(-1, b.Direction()))
			out.Append(leaf.Transformed(frame, opts.LeafScale))
			leaves++
		}
	}
	if skipped > 0 {
		opsf("skipped %d zero-length branches", skipped)
	}
	diagf("solid mesh: branches=%d leaves=%d positions=%d triangles=%d",
		g.Len(), leaves, len(out.Positions), len(out.Triangles))
	return out, nil
}
