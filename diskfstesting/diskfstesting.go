// Package diskfstesting provides small helpers for building containers in
// tests, mirroring the role the teacher's own testing package plays for
// its disk images.
package diskfstesting

import (
	"testing"

	"github.com/rmilewski4/diskfs/layout"
	"github.com/rmilewski4/diskfs/volume"
	"github.com/stretchr/testify/require"
)

// NewMemoryVolume formats a fresh in-memory volume for a test, failing the
// test immediately on error.
func NewMemoryVolume(t *testing.T) *volume.Volume {
	v, err := volume.FormatMemory()
	require.NoError(t, err, "failed to format in-memory volume")
	return v
}

// NewFileVolume formats a fresh volume backed by a file under t.TempDir(),
// failing the test immediately on error.
func NewFileVolume(t *testing.T) *volume.Volume {
	path := t.TempDir() + "/container.img"
	v, err := volume.Format(path)
	require.NoError(t, err, "failed to format file-backed volume")
	return v
}

// WriteFile creates path as a regular file, opens it, and writes contents
// to it in one call, returning the number of bytes written. Useful for
// setting up fixtures before exercising read/list/move/remove.
func WriteFile(t *testing.T, v *volume.Volume, path string, contents []byte) int {
	require.NoError(t, v.Create(path, layout.FileTypeRegular), "failed to create %s", path)
	fd, err := v.Open(path)
	require.NoErrorf(t, err, "failed to open %s", path)
	defer func() { require.NoError(t, v.Close(fd)) }()

	n, err := v.Write(fd, contents)
	require.NoErrorf(t, err, "failed to write %s", path)
	return n
}
