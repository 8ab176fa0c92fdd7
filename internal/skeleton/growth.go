package skeleton

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidParams is returned when growth or radius parameters are unusable.
var ErrInvalidParams = errors.New("invalid skeleton parameters")

// StopReason explains why a growth run ended.
type StopReason string

const (
	// StopExhausted means every attractor point was consumed.
	StopExhausted StopReason = "exhausted"
	// StopIterationCap means the iteration budget ran out with points left.
	StopIterationCap StopReason = "iteration_cap"
)

// GrowthMode identifies which rule produced the branches of an iteration.
type GrowthMode string

const (
	ModeAttract GrowthMode = "attract"
	ModeForward GrowthMode = "forward"
	ModeNone    GrowthMode = "none"
)

// GrowthParams configures the space colonization run.
type GrowthParams struct {
	BranchLength    float64 // length of every new segment
	KillRange       float64 // points closer than this to a branch end are consumed
	AttractionRange float64 // points farther than this from every branch end are ignored
	RandomFactor    float64 // weight of the random direction perturbation
	IterationCap    int     // maximum number of growth iterations

	// RootStart is where the trunk begins. RootDirection is the trunk
	// heading; the zero vector means +Y.
	RootStart     r3.Vec
	RootDirection r3.Vec
}

// DefaultGrowthParams returns the stock tree settings.
func DefaultGrowthParams() GrowthParams {
	return GrowthParams{
		BranchLength:    0.2,
		KillRange:       0.5,
		AttractionRange: 1.0,
		RandomFactor:    0,
		IterationCap:    1000000,
	}
}

// Validate checks attraction_range > kill_range > branch_length > 0.
func (p GrowthParams) Validate() error {
	if !(p.BranchLength > 0) {
		return fmt.Errorf("%w: branch length %v must be positive", ErrInvalidParams, p.BranchLength)
	}
	if !(p.KillRange > p.BranchLength) {
		return fmt.Errorf("%w: kill range %v must exceed branch length %v", ErrInvalidParams, p.KillRange, p.BranchLength)
	}
	if !(p.AttractionRange > p.KillRange) {
		return fmt.Errorf("%w: attraction range %v must exceed kill range %v", ErrInvalidParams, p.AttractionRange, p.KillRange)
	}
	if !(p.RandomFactor >= 0) || math.IsInf(p.RandomFactor, 0) {
		return fmt.Errorf("%w: random factor %v must be finite and non-negative", ErrInvalidParams, p.RandomFactor)
	}
	if p.IterationCap < 0 {
		return fmt.Errorf("%w: iteration cap %d is negative", ErrInvalidParams, p.IterationCap)
	}
	if math.IsInf(p.AttractionRange, 0) {
		return fmt.Errorf("%w: attraction range must be finite", ErrInvalidParams)
	}
	if !finite(p.RootStart) || !finite(p.RootDirection) {
		return fmt.Errorf("%w: root start and direction must be finite", ErrInvalidParams)
	}
	return nil
}

// rootEnd returns the end of the trunk segment.
func (p GrowthParams) rootEnd() r3.Vec {
	dir, ok := unit(p.RootDirection)
	if !ok {
		dir = r3.Vec{Y: 1}
	}
	return r3.Add(p.RootStart, r3.Scale(p.BranchLength, dir))
}

// IterationSample describes the state after one growth iteration.
type IterationSample struct {
	Iteration int
	Mode      GrowthMode
	Branches  int // total branches after the iteration
	Frontier  int // frontier size after the iteration
	Remaining int // attractor points still alive
	Killed    int // points consumed by this iteration's kill pass
	Matched   int // points assigned to a branch
	Grown     int // branches appended this iteration
}

// Observer receives a sample after every iteration.
type Observer interface {
	OnIteration(IterationSample)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(IterationSample)

// OnIteration calls f(s).
func (f ObserverFunc) OnIteration(s IterationSample) { f(s) }

// Result is the outcome of a growth run.
type Result struct {
	Graph      *Graph
	Iterations int
	Remaining  []r3.Vec // attractor points left when growth stopped
	Reason     StopReason
	Elapsed    time.Duration
}

// Grower runs space colonization with a fixed parameter set.
type Grower struct {
	params   GrowthParams
	rng      *rand.Rand
	observer Observer
}

// GrowerOption configures optional Grower behaviour.
type GrowerOption func(*Grower)

// WithObserver registers an observer for per-iteration samples.
func WithObserver(o Observer) GrowerOption {
	return func(g *Grower) { g.observer = o }
}

// NewGrower validates params and returns a grower drawing randomness from rng.
// A nil rng gets a fixed seed.
func NewGrower(params GrowthParams, rng *rand.Rand, opts ...GrowerOption) (*Grower, error) {
	if err := params.Validate(); err != nil {
		opsf("rejecting growth parameters: %v", err)
		return nil, err
	}
	if rng == nil {
		rng = NewRand(0)
	}
	g := &Grower{params: params, rng: rng}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Params returns the parameters the grower was built with.
func (gr *Grower) Params() GrowthParams {
	return gr.params
}

// Grow runs growth over a copy of points until every point is consumed or the
// iteration cap is reached. The context is checked between iterations.
func (gr *Grower) Grow(ctx context.Context, points []r3.Vec) (*Result, error) {
	start := time.Now()
	p := gr.params

	alive := make([]r3.Vec, 0, len(points))
	for _, pt := range points {
		if !finite(pt) {
			continue
		}
		alive = append(alive, pt)
	}
	if dropped := len(points) - len(alive); dropped > 0 {
		opsf("dropped %d non-finite attractor points", dropped)
	}

	g := NewGraph(p.RootStart, p.rootEnd())
	ix := newEndIndex(p.AttractionRange)
	ix.add(0, g.Branches[0].End)

	run := &growthRun{params: p, rng: gr.rng, graph: g, index: ix}

	iter := 0
	for len(alive) > 0 && iter < p.IterationCap {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("growth stopped after %d iterations: %w", iter, err)
		}
		sample := IterationSample{Iteration: iter, Mode: ModeNone}

		before := len(alive)
		alive = run.kill(alive)
		sample.Killed = before - len(alive)
		iter++

		if len(alive) > 0 {
			sample.Matched = run.attract(alive)
			if sample.Matched > 0 {
				sample.Mode = ModeAttract
				sample.Grown = run.growTowardsAttractors()
			} else {
				sample.Mode = ModeForward
				sample.Grown = run.growForward()
			}
		}

		sample.Branches = g.Len()
		sample.Frontier = len(g.Frontier)
		sample.Remaining = len(alive)
		tracef("iteration %d: mode=%s killed=%d matched=%d grown=%d branches=%d remaining=%d",
			sample.Iteration, sample.Mode, sample.Killed, sample.Matched, sample.Grown, sample.Branches, sample.Remaining)
		if gr.observer != nil {
			gr.observer.OnIteration(sample)
		}
	}

	res := &Result{
		Graph:      g,
		Iterations: iter,
		Remaining:  alive,
		Reason:     StopExhausted,
		Elapsed:    time.Since(start),
	}
	if len(alive) > 0 {
		res.Reason = StopIterationCap
		opsf("iteration cap %d reached with %d attractor points left", p.IterationCap, len(alive))
	}
	diagf("growth finished: reason=%s iterations=%d branches=%d points=%d/%d elapsed=%v",
		res.Reason, res.Iterations, g.Len(), len(alive), len(points), res.Elapsed)
	return res, nil
}

// growthRun carries the mutable state of a single Grow call.
type growthRun struct {
	params GrowthParams
	rng    *rand.Rand
	graph  *Graph
	index  *endIndex
}

// kill removes points closer than the kill range to any branch end,
// preserving the order of the survivors.
func (r *growthRun) kill(points []r3.Vec) []r3.Vec {
	kept := points[:0]
	for _, pt := range points {
		if !r.index.within(pt, r.params.KillRange) {
			kept = append(kept, pt)
		}
	}
	return kept
}

// attract assigns every point to its nearest branch end within the
// attraction range and returns how many points were assigned.
func (r *growthRun) attract(points []r3.Vec) int {
	matched := 0
	for _, pt := range points {
		idx, _ := r.index.nearest(pt, r.params.AttractionRange)
		if idx < 0 {
			continue
		}
		b := &r.graph.Branches[idx]
		b.Attractors = append(b.Attractors, pt)
		matched++
	}
	return matched
}

// growTowardsAttractors grows one child from every branch with attractors,
// clears the assignments and rebuilds the frontier from the childless
// branches. A branch whose attractors pull in exactly opposing directions
// grows one child towards each of them instead.
func (r *growthRun) growTowardsAttractors() int {
	g := r.graph
	n := g.Len()
	grown := 0
	for i := 0; i < n; i++ {
		if len(g.Branches[i].Attractors) == 0 {
			continue
		}
		for _, dir := range r.attractorDirections(i) {
			r.addChild(i, dir)
			grown++
		}
		g.Branches[i].Attractors = g.Branches[i].Attractors[:0]
	}
	g.Frontier = g.Leaves()
	return grown
}

// attractorDirections returns the headings of the children branch i grows
// this iteration. Normally that is one perturbed mean heading. Only when the
// unit pulls cancel exactly does the branch grow one child per pull, whatever
// the random factor.
func (r *growthRun) attractorDirections(i int) []r3.Vec {
	b := &r.graph.Branches[i]
	var sum r3.Vec
	pulls := make([]r3.Vec, 0, len(b.Attractors))
	for _, a := range b.Attractors {
		u, ok := unit(r3.Sub(a, b.End))
		if !ok {
			continue
		}
		pulls = append(pulls, u)
		sum = r3.Add(sum, u)
	}

	if len(pulls) == 0 {
		return []r3.Vec{r.perturbOrKeep(i, r3.Vec{})}
	}
	mean := r3.Scale(1/float64(len(pulls)), sum)
	if _, ok := unit(mean); !ok && len(pulls) > 1 {
		dirs := make([]r3.Vec, len(pulls))
		for k, u := range pulls {
			dirs[k] = r.perturbOrKeep(i, u)
		}
		return dirs
	}
	return []r3.Vec{r.perturbOrKeep(i, mean)}
}

// growForward extends every frontier leaf along its own heading, replacing
// the leaf with its new child in place.
func (r *growthRun) growForward() int {
	g := r.graph
	for k, leaf := range g.Frontier {
		dir, _ := unit(g.Branches[leaf].Direction())
		g.Frontier[k] = r.addChild(leaf, r.perturbOrKeep(leaf, dir))
	}
	return len(g.Frontier)
}

// perturbOrKeep applies the random perturbation to dir. When the result has
// no direction the heading of branch i is reused.
func (r *growthRun) perturbOrKeep(i int, dir r3.Vec) r3.Vec {
	if d, ok := perturb(dir, r.params.RandomFactor, r.rng); ok {
		return d
	}
	if d, ok := unit(r.graph.Branches[i].Direction()); ok {
		return d
	}
	return r3.Vec{Y: 1}
}

func (r *growthRun) addChild(parent int, dir r3.Vec) int {
	g := r.graph
	end := r3.Add(g.Branches[parent].End, r3.Scale(r.params.BranchLength, dir))
	idx := g.AddChild(parent, end)
	r.index.add(idx, end)
	return idx
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
