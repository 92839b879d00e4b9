package block_test

import (
	"testing"

	"github.com/rmilewski4/diskfs/bitmap"
	"github.com/rmilewski4/diskfs/block"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMemory__ReservesMetadataRegions(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	for id := uint16(layout.FBMBlockStart); id < layout.FBMBlockStart+layout.FBMBlockCount; id++ {
		assert.Truef(t, dev.IsUsed(id), "FBM block %d should be marked used", id)
	}
	for id := uint16(layout.InodeTableStartBlock); id < layout.InodeTableStartBlock+layout.InodeTableBlocks; id++ {
		assert.Truef(t, dev.IsUsed(id), "inode table block %d should be marked used", id)
	}
	for id := uint32(layout.ReservedBlockIDStart); id < layout.BlockCount; id++ {
		assert.Truef(t, dev.IsUsed(uint16(id)), "reserved inode-bitmap block id %d should never be allocatable", id)
	}
	assert.False(t, dev.IsUsed(layout.FirstDataBlock))
	assert.Equal(t, layout.ReservedBlockIDStart, dev.TotalCount())
}

func TestAllocate__ReturnsFirstDataBlock(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	id, err := dev.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, layout.FirstDataBlock, id)
	assert.True(t, dev.IsUsed(id))
}

func TestReadWrite__RoundTrip(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	id, err := dev.Allocate()
	require.NoError(t, err)

	data := make([]byte, layout.BlockSize)
	for i := range data {
		data[i] = byte(i % 256)
	}
	require.NoError(t, dev.Write(id, data))

	readBack := make([]byte, layout.BlockSize)
	require.NoError(t, dev.Read(id, readBack))
	assert.Equal(t, data, readBack)
}

func TestRead__UnallocatedBlockFails(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	buf := make([]byte, layout.BlockSize)
	err = dev.Read(layout.FirstDataBlock, buf)
	assert.Error(t, err)
}

func TestRelease__FreesBlockForReuse(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	id, err := dev.Allocate()
	require.NoError(t, err)
	require.NoError(t, dev.Release(id))
	assert.False(t, dev.IsUsed(id))

	again, err := dev.Allocate()
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestRequest__FailsIfAlreadyUsed(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	err = dev.Request(layout.FBMBlockStart)
	assert.Error(t, err)
}

func TestUsedFreeTotalCounts(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	reserved := layout.FBMBlockCount + layout.InodeTableBlocks
	assert.Equal(t, reserved, dev.UsedCount())
	assert.Equal(t, layout.ReservedBlockIDStart-reserved, dev.FreeCount())

	_, err = dev.Allocate()
	require.NoError(t, err)
	assert.Equal(t, reserved+1, dev.UsedCount())
}

func TestUsedFreeCounts__UnaffectedByInodeAllocation(t *testing.T) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)

	before := dev.UsedCount()

	alloc := bitmap.NewOverlay(dev.FreeBitmapRawBytes(), layout.InodeCount)
	alloc.Set(0)

	assert.Equal(t, before, dev.UsedCount(), "inode bitmap bits must not be counted as block occupancy")
}
