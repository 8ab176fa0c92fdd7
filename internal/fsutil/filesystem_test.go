package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_RoundTrip(t *testing.T) {
	m := NewMemoryFileSystem()

	require.NoError(t, WriteFile(m, "out/tree.ply", []byte("ply\n")))

	data, err := ReadFile(m, "out/tree.ply")
	require.NoError(t, err)
	assert.Equal(t, "ply\n", string(data))

	info, err := m.Stat("out")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	info, err = m.Stat("out/./tree.ply")
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
	assert.Equal(t, []string{"out/tree.ply"}, m.Files("out/"))
}

func TestMemoryFileSystem_CreateCommitsOnClose(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := m.Create("a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)

	data, err := ReadFile(m, "a.txt")
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, w.Close())
	data, err = ReadFile(m, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.Open("nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = m.Stat("nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "nested", "points.asc")

	require.NoError(t, WriteFile(OSFileSystem{}, name, []byte("1 2 3\n")))
	data, err := ReadFile(OSFileSystem{}, name)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n", string(data))
}
