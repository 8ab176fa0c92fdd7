// Package meshio reads and writes shapes and point clouds as PLY, Wavefront
// OBJ and ASC point lists.
package meshio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/arbor/internal/fsutil"
	"github.com/banshee-data/arbor/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrUnsupportedFormat is returned for unknown extensions or encodings.
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
	// ErrMalformed is returned when a file cannot be parsed.
	ErrMalformed = errors.New("malformed mesh file")
)

// Format identifies a file encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatPLY
	FormatOBJ
	FormatASC
)

func (f Format) String() string {
	switch f {
	case FormatPLY:
		return "ply"
	case FormatOBJ:
		return "obj"
	case FormatASC:
		return "asc"
	}
	return "unknown"
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ply":
		return FormatPLY
	case ".obj":
		return FormatOBJ
	case ".asc", ".xyz", ".pts", ".txt":
		return FormatASC
	}
	return FormatUnknown
}

// SaveOptions tunes encoding.
type SaveOptions struct {
	// Binary selects binary little-endian PLY. Ignored for other formats.
	Binary bool
}

// Save encodes shape according to the extension of path and writes it
// through fsys.
func Save(fsys fsutil.FileSystem, path string, shape *mesh.Shape, opts SaveOptions) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	var err error
	switch FormatOf(path) {
	case FormatPLY:
		if opts.Binary {
			err = WritePLYBinary(w, shape)
		} else {
			err = WritePLY(w, shape)
		}
	case FormatOBJ:
		err = WriteOBJ(w, shape)
	case FormatASC:
		err = WriteASC(w, shape.Positions)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fsutil.WriteFile(fsys, path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load reads a shape from path, choosing the decoder from the extension.
func Load(fsys fsutil.FileSystem, path string) (*mesh.Shape, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var shape *mesh.Shape
	switch FormatOf(path) {
	case FormatPLY:
		shape, err = ReadPLY(r)
	case FormatOBJ:
		shape, err = ReadOBJ(r)
	case FormatASC:
		var pts []r3.Vec
		pts, err = ReadASC(r)
		shape = PointCloud(pts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", path, ErrMalformed, err)
	}
	return shape, nil
}

// LoadPoints reads the vertex positions of any supported file.
func LoadPoints(fsys fsutil.FileSystem, path string) ([]r3.Vec, error) {
	shape, err := Load(fsys, path)
	if err != nil {
		return nil, err
	}
	return shape.Positions, nil
}

// PointCloud wraps positions in a shape whose only elements are points.
func PointCloud(positions []r3.Vec) *mesh.Shape {
	sh := &mesh.Shape{Positions: positions, Points: make([]int, len(positions))}
	for i := range sh.Points {
		sh.Points[i] = i
	}
	return sh
}
