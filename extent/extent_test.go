package extent_test

import (
	"testing"

	"github.com/rmilewski4/diskfs/block"
	"github.com/rmilewski4/diskfs/extent"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateForWrite__DirectTier(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	var in inode.RawInode
	loc, err := extent.LocateForWrite(dev, &in, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, loc.InBlockOffset)
	assert.Equal(t, in.Direct[0], loc.BlockID)
	assert.NotZero(t, loc.BlockID)

	// Writing again at another offset in the same block reuses the
	// already-allocated block.
	loc2, err := extent.LocateForWrite(dev, &in, 10)
	require.NoError(t, err)
	assert.Equal(t, loc.BlockID, loc2.BlockID)
	assert.EqualValues(t, 10, loc2.InBlockOffset)
}

func TestLocateForWrite__CrossesIntoIndirectTier(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	var in inode.RawInode
	offset := uint64(layout.DirectPointers) * layout.BlockSize
	loc, err := extent.LocateForWrite(dev, &in, offset)
	require.NoError(t, err)
	assert.NotZero(t, in.Indirect)
	assert.NotZero(t, loc.BlockID)
	assert.NotEqual(t, in.Indirect, loc.BlockID)
}

func TestLocateForWrite__CrossesIntoDoubleIndirectTier(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	var in inode.RawInode
	offset := uint64(layout.DirectPointers+layout.PointersPerBlock) * layout.BlockSize
	loc, err := extent.LocateForWrite(dev, &in, offset)
	require.NoError(t, err)
	assert.NotZero(t, in.DoubleIndirect)
	assert.NotZero(t, loc.BlockID)
}

func TestLocate__ReadThroughUnmappedBlockFails(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	in := inode.RawInode{FileSize: layout.BlockSize}
	_, err = extent.Locate(dev, &in, 0)
	assert.Error(t, err)
}

func TestLocate__ReadsBackWrittenBlock(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	var in inode.RawInode
	loc, err := extent.LocateForWrite(dev, &in, 0)
	require.NoError(t, err)

	data := make([]byte, layout.BlockSize)
	data[0] = 0xAB
	require.NoError(t, dev.Write(loc.BlockID, data))

	in.FileSize = layout.BlockSize
	readLoc, err := extent.Locate(dev, &in, 0)
	require.NoError(t, err)
	assert.Equal(t, loc.BlockID, readLoc.BlockID)
}

func TestLocate__OffsetPastFileSizeFails(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)
	in := inode.RawInode{FileSize: 10}
	_, err = extent.Locate(dev, &in, 10)
	assert.Error(t, err)
}
