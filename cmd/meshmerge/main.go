// Command meshmerge concatenates mesh files into one, remapping element
// indices onto the combined vertex list.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/arbor/internal/fsutil"
	"github.com/banshee-data/arbor/internal/mesh"
	"github.com/banshee-data/arbor/internal/meshio"
	"github.com/banshee-data/arbor/internal/security"
	"github.com/banshee-data/arbor/internal/version"
)

type options struct {
	output      string
	binary      bool
	showVersion bool
}

func newFlagSet() (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet("meshmerge", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.output, "output", "merging.ply", "output file (.ply, .obj, .asc)")
	fs.BoolVar(&o.binary, "binary", false, "write binary PLY")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: meshmerge [-output file] input...\n")
		fs.PrintDefaults()
	}
	return fs, o
}

func main() {
	fs, o := newFlagSet()
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if o.showVersion {
		fmt.Println(version.String("meshmerge"))
		return
	}
	if err := merge(fsutil.OSFileSystem{}, fs.Args(), o.output, meshio.SaveOptions{Binary: o.binary}); err != nil {
		log.Fatalf("meshmerge: %v", err)
	}
}

func merge(fsys fsutil.FileSystem, inputs []string, out string, opts meshio.SaveOptions) error {
	if len(inputs) == 0 {
		return errors.New("no input files")
	}
	shapes := make([]*mesh.Shape, 0, len(inputs))
	for _, in := range inputs {
		sh, err := meshio.Load(fsys, in)
		if err != nil {
			return err
		}
		shapes = append(shapes, sh)
	}
	merged := mesh.Merge(shapes...)

	if err := security.ValidateOutputPath(out); err != nil {
		return err
	}
	if err := meshio.Save(fsys, out, merged, opts); err != nil {
		return err
	}
	log.Printf("merged %d files into %s (%d vertices)", len(inputs), out, len(merged.Positions))
	return nil
}
