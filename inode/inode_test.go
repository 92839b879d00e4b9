package inode_test

import (
	"testing"

	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawInodeEncodeDecode__RoundTrip(t *testing.T) {
	in := inode.RawInode{
		VacantFile:     0b101,
		FileType:       byte(layout.FileTypeDirectory),
		InodeNumber:    7,
		FileSize:       1234,
		LinkCount:      2,
		Direct:         [layout.DirectPointers]uint16{6, 7, 0, 0, 0, 0},
		Indirect:       0,
		DoubleIndirect: 0,
	}
	copy(in.Owner[:], "someone")

	encoded := in.Encode()
	assert.Len(t, encoded, layout.InodeSize)

	var out inode.RawInode
	require.NoError(t, out.Decode(encoded[:]))
	assert.Equal(t, in, out)
}

func TestRawInodeDecode__WrongSizeFails(t *testing.T) {
	var out inode.RawInode
	err := out.Decode(make([]byte, 10))
	assert.Error(t, err)
}

func TestVacantFileBits(t *testing.T) {
	var in inode.RawInode
	in.VacantFileSet(0)
	in.VacantFileSet(30)
	assert.True(t, in.VacantFileTest(0))
	assert.True(t, in.VacantFileTest(30))
	assert.False(t, in.VacantFileTest(1))

	in.VacantFileClear(0)
	assert.False(t, in.VacantFileTest(0))
	assert.True(t, in.VacantFileTest(30))
}

func TestIsDirectoryIsRegular(t *testing.T) {
	dir := inode.RawInode{FileType: byte(layout.FileTypeDirectory)}
	reg := inode.RawInode{FileType: byte(layout.FileTypeRegular)}
	assert.True(t, dir.IsDirectory())
	assert.False(t, dir.IsRegular())
	assert.True(t, reg.IsRegular())
	assert.False(t, reg.IsDirectory())
}
