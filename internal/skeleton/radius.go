package skeleton

import (
	"fmt"
	"math"
)

// RadiusParams controls how thickness accumulates towards the root.
type RadiusParams struct {
	LeafRadius     float64 // radius assigned to every childless branch
	InvertedGrowth float64 // exponent p in r = (sum r_child^p)^(1/p)
}

// DefaultRadiusParams returns the stock radius settings.
func DefaultRadiusParams() RadiusParams {
	return RadiusParams{LeafRadius: 0.02, InvertedGrowth: 2}
}

// Validate checks that both values are positive and finite.
func (p RadiusParams) Validate() error {
	if !(p.LeafRadius > 0) || math.IsInf(p.LeafRadius, 0) {
		return fmt.Errorf("%w: leaf radius %v must be positive", ErrInvalidParams, p.LeafRadius)
	}
	if !(p.InvertedGrowth > 0) || math.IsInf(p.InvertedGrowth, 0) {
		return fmt.Errorf("%w: inverted growth %v must be positive", ErrInvalidParams, p.InvertedGrowth)
	}
	return nil
}

// PropagateRadii assigns a radius to every branch, leaves first: a leaf gets
// LeafRadius, a branch with one child inherits that child's radius and a
// branch with several children gets the p-norm of its children's radii.
// Results are stored on the branches and also returned indexed by branch.
// Running it twice yields the same radii.
func PropagateRadii(g *Graph, p RadiusParams) ([]float64, error) {
	if err := p.Validate(); err != nil {
		opsf("rejecting radius parameters: %v", err)
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("propagate radii: %w", err)
	}

	radii := make([]float64, g.Len())
	g.PostOrder(func(i int) {
		children := g.Branches[i].Children
		switch len(children) {
		case 0:
			radii[i] = p.LeafRadius
		case 1:
			radii[i] = radii[children[0]]
		default:
			sum := 0.0
			for _, c := range children {
				sum += math.Pow(radii[c], p.InvertedGrowth)
			}
			radii[i] = math.Pow(sum, 1/p.InvertedGrowth)
		}
	})
	for i := range g.Branches {
		g.Branches[i].Radius = radii[i]
	}
	diagf("radii propagated: branches=%d root=%.4f", g.Len(), radii[0])
	return radii, nil
}

// HasRadii reports whether every branch carries a positive radius.
func (g *Graph) HasRadii() bool {
	for i := range g.Branches {
		if !(g.Branches[i].Radius > 0) {
			return false
		}
	}
	return len(g.Branches) > 0
}
