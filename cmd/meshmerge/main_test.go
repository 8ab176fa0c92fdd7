package main

import (
	"errors"
	"io"
	"testing"

	"github.com/banshee-data/arbor/internal/fsutil"
	"github.com/banshee-data/arbor/internal/mesh"
	"github.com/banshee-data/arbor/internal/meshio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestMerge(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	tri := &mesh.Shape{
		Positions: []r3.Vec{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	line := &mesh.Shape{
		Positions: []r3.Vec{{Z: 1}, {Z: 2}},
		Lines:     [][2]int{{0, 1}},
	}
	require.NoError(t, meshio.Save(fsys, "tri.ply", tri, meshio.SaveOptions{}))
	require.NoError(t, meshio.Save(fsys, "line.obj", line, meshio.SaveOptions{}))

	require.NoError(t, merge(fsys, []string{"tri.ply", "line.obj"}, "out.ply", meshio.SaveOptions{Binary: true}))

	got, err := meshio.Load(fsys, "out.ply")
	require.NoError(t, err)
	assert.Len(t, got.Positions, 5)
	assert.Equal(t, [][3]int{{0, 1, 2}}, got.Triangles)
	assert.Equal(t, [][2]int{{3, 4}}, got.Lines)
}

func TestMergeErrors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	assert.Error(t, merge(fsys, nil, "out.ply", meshio.SaveOptions{}))
	assert.Error(t, merge(fsys, []string{"missing.ply"}, "out.ply", meshio.SaveOptions{}))
}

func TestFlagSet(t *testing.T) {
	fs, o := newFlagSet()
	fs.SetOutput(io.Discard)
	require.NoError(t, fs.Parse([]string{"-output", "tree.obj", "-binary", "a.ply", "b.ply"}))
	assert.Equal(t, "tree.obj", o.output)
	assert.True(t, o.binary)
	assert.Equal(t, []string{"a.ply", "b.ply"}, fs.Args())

	fs, o = newFlagSet()
	fs.SetOutput(io.Discard)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, "merging.ply", o.output)
	assert.False(t, o.binary)

	fs, _ = newFlagSet()
	fs.SetOutput(io.Discard)
	assert.Error(t, fs.Parse([]string{"-unknown"}))
}

func TestMergeUnsupportedOutput(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	tri := &mesh.Shape{
		Positions: []r3.Vec{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	require.NoError(t, meshio.Save(fsys, "tri.ply", tri, meshio.SaveOptions{}))

	err := merge(fsys, []string{"tri.ply"}, "out.stl", meshio.SaveOptions{})
	assert.True(t, errors.Is(err, meshio.ErrUnsupportedFormat), "got %v", err)
}
