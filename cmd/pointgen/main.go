// Command pointgen fills a volume with random attraction points and writes
// them as a point cloud.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/arbor/internal/fsutil"
	"github.com/banshee-data/arbor/internal/meshio"
	"github.com/banshee-data/arbor/internal/monitoring"
	"github.com/banshee-data/arbor/internal/pointgen"
	"github.com/banshee-data/arbor/internal/security"
	"github.com/banshee-data/arbor/internal/skeleton"
	"github.com/banshee-data/arbor/internal/version"
	"gonum.org/v1/gonum/spatial/r3"
)

type options struct {
	shape       string
	file        string
	samples     int
	seed        uint64
	seedSet     bool
	output      string
	voxel       float64
	binary      bool
	verbose     bool
	showVersion bool
}

func newFlagSet() (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet("pointgen", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.shape, "shape", "sphere", fmt.Sprintf("shape to fill with points (%s, mesh)", strings.Join(pointgen.Shapes(), ", ")))
	fs.StringVar(&o.file, "file", "", "closed mesh to fill when -shape is mesh")
	fs.IntVar(&o.samples, "samples", 1000, "number of samples")
	fs.Uint64Var(&o.seed, "seed", 0, "rng seed (defaults to the time)")
	fs.StringVar(&o.output, "output", "points.ply", "output file (.ply, .obj, .asc)")
	fs.Float64Var(&o.voxel, "voxel", 0, "thin the cloud to one point per voxel of this size; 0 disables")
	fs.BoolVar(&o.binary, "binary", false, "write binary PLY")
	fs.BoolVar(&o.verbose, "v", false, "log diagnostics")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	return fs, o
}

func main() {
	fs, o := newFlagSet()
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if o.showVersion {
		fmt.Println(version.String("pointgen"))
		return
	}
	fs.Visit(func(f *flag.Flag) { o.seedSet = o.seedSet || f.Name == "seed" })
	if !o.seedSet {
		o.seed = uint64(time.Now().UnixNano())
	}
	if err := run(o, fsutil.OSFileSystem{}, os.Stderr); err != nil {
		log.Fatalf("pointgen: %v", err)
	}
}

func run(o *options, fsys fsutil.FileSystem, logw io.Writer) error {
	lw := monitoring.StreamWriters(logw, o.verbose, false)
	pointgen.SetLogWriters(lw.Ops, lw.Diag)

	rng := skeleton.NewRand(o.seed)
	var pts []r3.Vec
	var err error
	if o.shape == "mesh" {
		if o.file == "" {
			return errors.New("-shape mesh needs -file")
		}
		shape, lerr := meshio.Load(fsys, o.file)
		if lerr != nil {
			return lerr
		}
		pts, err = pointgen.InsideMesh(shape, o.samples, rng)
	} else {
		pts, err = pointgen.Generate(o.shape, o.samples, rng)
	}
	if err != nil {
		return err
	}
	if o.voxel > 0 {
		pts = pointgen.VoxelDownsample(pts, o.voxel)
	}

	if err := security.ValidateOutputPath(o.output); err != nil {
		return err
	}
	if err := meshio.Save(fsys, o.output, meshio.PointCloud(pts), meshio.SaveOptions{Binary: o.binary}); err != nil {
		return err
	}
	log.Printf("wrote %d %s points to %s (seed %d)", len(pts), o.shape, o.output, o.seed)
	return nil
}
