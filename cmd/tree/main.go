// Command tree grows a tree skeleton into a cloud of attraction points and
// writes it as a solid mesh, a line skeleton, or both.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/arbor/internal/config"
	"github.com/banshee-data/arbor/internal/fsutil"
	"github.com/banshee-data/arbor/internal/mesh"
	"github.com/banshee-data/arbor/internal/mesher"
	"github.com/banshee-data/arbor/internal/meshio"
	"github.com/banshee-data/arbor/internal/monitoring"
	"github.com/banshee-data/arbor/internal/pipeline"
	"github.com/banshee-data/arbor/internal/pointgen"
	"github.com/banshee-data/arbor/internal/report"
	"github.com/banshee-data/arbor/internal/security"
	"github.com/banshee-data/arbor/internal/skeleton"
	"github.com/banshee-data/arbor/internal/storage/sqlite"
	"github.com/banshee-data/arbor/internal/timeutil"
	"github.com/banshee-data/arbor/internal/version"
	"gonum.org/v1/gonum/spatial/r3"
)

func main() {
	fs, opts := newFlagSet("tree")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Println(version.String("tree"))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, fsutil.OSFileSystem{}, os.Stderr); err != nil {
		log.Fatalf("tree: %v", err)
	}
}

func setLogStreams(w io.Writer, verbose, trace bool) {
	lw := monitoring.StreamWriters(w, verbose, trace)
	skeleton.SetLogWriters(lw.Ops, lw.Diag, lw.Trace)
	mesher.SetLogWriters(lw.Ops, lw.Diag, lw.Trace)
	pointgen.SetLogWriters(lw.Ops, lw.Diag)
	pipeline.SetLogWriters(lw.Ops, lw.Diag)
}

func run(ctx context.Context, o *options, fsys fsutil.FileSystem, logw io.Writer) error {
	setLogStreams(logw, o.verbose, o.trace)

	cfg := config.EmptyTreeConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadTreeConfig(o.configPath); err != nil {
			return err
		}
	}
	if err := o.applyOverrides(cfg); err != nil {
		return err
	}
	if o.output == "" && o.skeleton == "" {
		return errors.New("nothing to write: set -output and/or -skeleton")
	}

	pcfg := pipeline.FromTreeConfig(cfg, timeutil.RealClock{})
	pcfg.BuildSolid = o.output != ""
	pcfg.BuildSkeleton = o.skeleton != ""
	if path := cfg.GetLeafPath(); path != "" && pcfg.BuildSolid {
		leaf, err := pipeline.LoadLeaf(fsys, path)
		if err != nil {
			return err
		}
		pcfg.Solid.Leaf = leaf
	}

	points, err := o.attractionPoints(fsys, pcfg.Seed)
	if err != nil {
		return err
	}

	recorder := report.NewProgressRecorder()
	pcfg.Observer = recorder
	res, err := pipeline.Run(ctx, pcfg, points)
	if err != nil {
		return err
	}
	log.Printf("grew %d branches (%d leaves, depth %d) in %d iterations: %s, seed %d",
		res.Stats.Branches, res.Stats.Leaves, res.Stats.MaxDepth, res.Growth.Iterations, res.Growth.Reason, res.Seed)

	save := meshio.SaveOptions{Binary: cfg.GetBinaryPLY()}
	outputs := []struct {
		path  string
		shape *mesh.Shape
	}{{o.output, res.Solid}, {o.skeleton, res.Skeleton}}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := security.ValidateOutputPath(out.path); err != nil {
			return err
		}
		if err := meshio.Save(fsys, out.path, out.shape, save); err != nil {
			return err
		}
		log.Printf("wrote %s (%d vertices)", out.path, len(out.shape.Positions))
	}

	if err := o.writeReports(fsys, res, recorder); err != nil {
		return err
	}

	if o.dbPath != "" {
		if err := recordRun(o.dbPath, res, len(points), cfg); err != nil {
			return err
		}
	}
	return nil
}

// attractionPoints loads -input or generates -samples points of -shape.
func (o *options) attractionPoints(fsys fsutil.FileSystem, seed uint64) ([]r3.Vec, error) {
	if o.input != "" {
		pts, err := meshio.LoadPoints(fsys, o.input)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded %d attraction points from %s", len(pts), o.input)
		return pts, nil
	}
	pts, err := pointgen.Generate(o.shape, o.samples, skeleton.NewRand(seed))
	if err != nil {
		return nil, err
	}
	return pointgen.Translate(pts, r3.Vec{Y: o.lift}), nil
}

func (o *options) writeReports(fsys fsutil.FileSystem, res *pipeline.Result, rec *report.ProgressRecorder) error {
	title := fmt.Sprintf("tree seed %d", res.Seed)
	reports := []struct {
		path   string
		render func(w io.Writer) error
	}{
		{o.plot, func(w io.Writer) error { return report.WriteProgressPlot(w, title, rec.Samples()) }},
		{o.progress, func(w io.Writer) error {
			return report.RenderProgressChart(w, report.ChartOptions{Title: title}, rec.Samples())
		}},
		{o.chart, func(w io.Writer) error {
			return report.RenderSkeletonChart(w, report.ChartOptions{Title: title}, res.Growth.Graph, res.Attractors)
		}},
	}
	for _, r := range reports {
		if r.path == "" {
			continue
		}
		if err := security.ValidateOutputPath(r.path); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := r.render(&buf); err != nil {
			return fmt.Errorf("%s: %w", r.path, err)
		}
		if err := fsutil.WriteFile(fsys, r.path, buf.Bytes()); err != nil {
			return err
		}
		log.Printf("wrote %s", r.path)
	}
	return nil
}

func recordRun(path string, res *pipeline.Result, inputPoints int, cfg *config.TreeConfig) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqlite.NewRunStore(db.DB, nil)
	run, err := sqlite.NewRun(res.Growth, res.Seed, inputPoints, cfg)
	if err != nil {
		return err
	}
	if err := store.Insert(run); err != nil {
		return err
	}
	if err := store.InsertBranches(run.RunID, res.Growth.Graph); err != nil {
		return err
	}
	log.Printf("recorded run %s in %s", run.RunID, path)
	return nil
}
