// Package pipeline chains the tree stages: attractor thinning, growth,
// radius propagation and meshing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/arbor/internal/config"
	"github.com/banshee-data/arbor/internal/fsutil"
	"github.com/banshee-data/arbor/internal/mesh"
	"github.com/banshee-data/arbor/internal/mesher"
	"github.com/banshee-data/arbor/internal/meshio"
	"github.com/banshee-data/arbor/internal/pointgen"
	"github.com/banshee-data/arbor/internal/skeleton"
	"github.com/banshee-data/arbor/internal/timeutil"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoOutput is returned when neither mesh is requested.
var ErrNoOutput = errors.New("no mesh output requested")

// Config holds everything one pipeline run needs.
type Config struct {
	Growth skeleton.GrowthParams
	Radius skeleton.RadiusParams
	Solid  mesher.SolidOptions
	Seed   uint64

	// VoxelSize thins the attractor cloud before growth. Zero disables it.
	VoxelSize float64

	BuildSkeleton bool
	BuildSolid    bool

	// Observer, when set, receives every growth iteration.
	Observer skeleton.Observer
	// Clock times the stages. Nil uses the wall clock.
	Clock timeutil.Clock
}

// FromTreeConfig projects a tuning file onto a pipeline config that builds
// both meshes. An unset seed is drawn from clock.
func FromTreeConfig(tc *config.TreeConfig, clock timeutil.Clock) Config {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	seed, ok := tc.GetSeed()
	if !ok {
		seed = uint64(clock.Now().UnixNano())
	}
	return Config{
		Growth:        tc.GrowthParams(),
		Radius:        tc.RadiusParams(),
		Solid:         tc.SolidOptions(),
		Seed:          seed,
		VoxelSize:     tc.GetVoxelSize(),
		BuildSkeleton: true,
		BuildSolid:    true,
		Clock:         clock,
	}
}

// Validate checks every stage's parameters before any work starts.
func (c Config) Validate() error {
	if !c.BuildSkeleton && !c.BuildSolid {
		return ErrNoOutput
	}
	if err := c.Growth.Validate(); err != nil {
		return err
	}
	if err := c.Radius.Validate(); err != nil {
		return err
	}
	if c.BuildSolid {
		if err := c.Solid.Validate(); err != nil {
			return err
		}
	}
	if !(c.VoxelSize >= 0) {
		return fmt.Errorf("voxel size must be non-negative, got %v", c.VoxelSize)
	}
	return nil
}

// StageTiming is the wall time spent in one stage.
type StageTiming struct {
	Stage   string        `json:"stage"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Seed       uint64
	Attractors []r3.Vec // the cloud growth actually ran on
	Growth     *skeleton.Result
	Stats      skeleton.Stats
	Skeleton   *mesh.Shape // nil unless requested
	Solid      *mesh.Shape // nil unless requested
	Timings    []StageTiming
}

// Run executes the stages in order. points is not modified.
func Run(ctx context.Context, cfg Config, points []r3.Vec) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		opsf("rejecting pipeline config: %v", err)
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	res := &Result{Seed: cfg.Seed}
	stage := func(name string, fn func() error) error {
		start := clock.Now()
		err := fn()
		elapsed := clock.Since(start)
		res.Timings = append(res.Timings, StageTiming{Stage: name, Elapsed: elapsed})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		diagf("stage %s took %v", name, elapsed)
		return nil
	}

	attractors := points
	if cfg.VoxelSize > 0 {
		if err := stage("downsample", func() error {
			attractors = pointgen.VoxelDownsample(attractors, cfg.VoxelSize)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	res.Attractors = attractors

	if err := stage("grow", func() error {
		var opts []skeleton.GrowerOption
		if cfg.Observer != nil {
			opts = append(opts, skeleton.WithObserver(cfg.Observer))
		}
		grower, err := skeleton.NewGrower(cfg.Growth, skeleton.NewRand(cfg.Seed), opts...)
		if err != nil {
			return err
		}
		res.Growth, err = grower.Grow(ctx, attractors)
		return err
	}); err != nil {
		return nil, err
	}
	g := res.Growth.Graph

	if err := stage("radii", func() error {
		_, err := skeleton.PropagateRadii(g, cfg.Radius)
		return err
	}); err != nil {
		return nil, err
	}
	res.Stats = skeleton.Summarize(g)

	if cfg.BuildSkeleton {
		if err := stage("skeleton", func() error {
			res.Skeleton = mesher.Skeleton(g)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if cfg.BuildSolid {
		if err := stage("solid", func() error {
			solid, err := mesher.Solid(g, cfg.Solid)
			if err != nil {
				return err
			}
			solid.ComputeNormals()
			res.Solid = solid
			return nil
		}); err != nil {
			return nil, err
		}
	}

	diagf("run seed=%d points=%d/%d branches=%d leaves=%d reason=%s",
		cfg.Seed, len(attractors), len(points), res.Stats.Branches, res.Stats.Leaves, res.Growth.Reason)
	return res, nil
}

// LoadLeaf reads a leaf fragment mesh and triangulates its quads. The
// fragment is expected to have its stem along -Z from the origin.
func LoadLeaf(fsys fsutil.FileSystem, path string) (*mesh.Shape, error) {
	leaf, err := meshio.Load(fsys, path)
	if err != nil {
		opsf("cannot load leaf fragment %s: %v", path, err)
		return nil, err
	}
	if len(leaf.Triangles) == 0 && len(leaf.Quads) == 0 {
		return nil, fmt.Errorf("leaf fragment %s has no faces", path)
	}
	leaf.QuadsToTriangles()
	return leaf, nil
}
