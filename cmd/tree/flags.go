package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/banshee-data/arbor/internal/config"
	"github.com/banshee-data/arbor/internal/pointgen"
)

// options holds the command line of the tree command. Tuning flags only
// override the config file when they are given explicitly.
type options struct {
	configPath string
	input      string
	shape      string
	samples    int
	lift       float64

	output   string
	skeleton string
	dbPath   string
	plot     string
	chart    string
	progress string

	verbose     bool
	trace       bool
	showVersion bool

	fs *flag.FlagSet
}

func newFlagSet(name string) (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	o := &options{fs: fs}

	fs.StringVar(&o.configPath, "config", "", "JSON tuning file (built-in defaults when empty)")
	fs.StringVar(&o.input, "input", "", "mesh or point file (.ply, .obj, .asc) holding the attraction points")
	fs.StringVar(&o.shape, "shape", "sphere", fmt.Sprintf("generated point cloud when -input is empty (%s)", strings.Join(pointgen.Shapes(), ", ")))
	fs.IntVar(&o.samples, "samples", 1000, "number of generated points")
	fs.Float64Var(&o.lift, "lift", 1.5, "raise generated points along +Y so the crown sits above the trunk")

	fs.StringVar(&o.output, "output", "tree.ply", "solid tree mesh (.ply, .obj); empty to skip")
	fs.StringVar(&o.skeleton, "skeleton", "", "line skeleton mesh (.ply, .obj); empty to skip")
	fs.StringVar(&o.dbPath, "db", "", "SQLite run database to record the run in")
	fs.StringVar(&o.plot, "plot", "", "PNG progress plot path")
	fs.StringVar(&o.chart, "chart", "", "HTML 3-D skeleton chart path")
	fs.StringVar(&o.progress, "progress", "", "HTML progress chart path")

	fs.BoolVar(&o.verbose, "v", false, "log per-run diagnostics")
	fs.BoolVar(&o.trace, "trace", false, "log per-iteration growth telemetry")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")

	// Overrides for the tuning file. Defaults here are only shown in -help.
	fs.Float64("br_length", 0.2, "length of a single branch segment")
	fs.Float64("kill", 0.5, "branch-point distance at which attraction points are deleted")
	fs.Float64("attraction", 1.0, "distance within which attraction points pull a branch")
	fs.Float64("random_factor", 0, "influence of randomness on branch directions")
	fs.Int("iterations", 1000000, "growth iteration cap")
	fs.Uint64("seed", 0, "rng seed (defaults to the time)")
	fs.Float64("leaf_radius", 0.02, "radius of childless branches")
	fs.Float64("inverted_growth", 2, "exponent combining child radii")
	fs.Int("sphere_steps", 5, "joint sphere subdivisions")
	fs.Int("cone_steps", 16, "branch frustum subdivisions")
	fs.Bool("leaves", false, "attach a leaf fragment at every branch tip")
	fs.Float64("leaf_scale", 0.05, "leaf fragment scale")
	fs.String("leaf", "", "leaf fragment mesh replacing the pine needle")
	fs.Float64("voxel", 0, "voxel size for thinning the attraction points; 0 disables")
	fs.Bool("binary", false, "write binary PLY")

	return fs, o
}

// applyOverrides copies every explicitly set tuning flag onto cfg and
// revalidates it.
func (o *options) applyOverrides(cfg *config.TreeConfig) error {
	o.fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "br_length":
			cfg.BranchLength = ptr(v.(float64))
		case "kill":
			cfg.KillRange = ptr(v.(float64))
		case "attraction":
			cfg.AttractionRange = ptr(v.(float64))
		case "random_factor":
			cfg.RandomFactor = ptr(v.(float64))
		case "iterations":
			cfg.IterationCap = ptr(v.(int))
		case "seed":
			cfg.Seed = ptr(v.(uint64))
		case "leaf_radius":
			cfg.LeafRadius = ptr(v.(float64))
		case "inverted_growth":
			cfg.InvertedGrowth = ptr(v.(float64))
		case "sphere_steps":
			cfg.SphereSteps = ptr(v.(int))
		case "cone_steps":
			cfg.ConeSteps = ptr(v.(int))
		case "leaves":
			cfg.EnableLeaves = ptr(v.(bool))
		case "leaf_scale":
			cfg.LeafScale = ptr(v.(float64))
		case "leaf":
			cfg.LeafPath = ptr(v.(string))
		case "voxel":
			cfg.VoxelSize = ptr(v.(float64))
		case "binary":
			cfg.BinaryPLY = ptr(v.(bool))
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
