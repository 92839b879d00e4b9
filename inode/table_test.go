package inode_test

import (
	"testing"

	"github.com/rmilewski4/diskfs/block"
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) (*block.Device, *inode.Table) {
	dev, err := block.CreateMemory()
	require.NoError(t, err)
	table, err := inode.NewTable(dev, dev.FreeBitmapRawBytes())
	require.NoError(t, err)
	return dev, table
}

func TestTableAllocateRelease(t *testing.T) {
	_, table := newTestTable(t)

	id, err := table.Allocate()
	require.NoError(t, err)
	assert.True(t, table.Test(id))

	require.NoError(t, table.Release(id))
	assert.False(t, table.Test(id))
}

func TestTableAllocate__ExhaustsAllSlots(t *testing.T) {
	_, table := newTestTable(t)

	for i := 0; i < layout.InodeCount; i++ {
		_, err := table.Allocate()
		require.NoErrorf(t, err, "allocation %d should have succeeded", i)
	}

	_, err := table.Allocate()
	assert.ErrorIs(t, err, diskoerrors.ErrOutOfInodes)
}

func TestTableReadWrite__RoundTrip(t *testing.T) {
	_, table := newTestTable(t)

	id, err := table.Allocate()
	require.NoError(t, err)

	raw := inode.RawInode{
		FileType:    byte(layout.FileTypeRegular),
		InodeNumber: id,
		FileSize:    42,
		LinkCount:   1,
	}
	require.NoError(t, table.Write(id, &raw))

	var readBack inode.RawInode
	require.NoError(t, table.Read(id, &readBack))
	assert.Equal(t, raw, readBack)
}

func TestTableWrite__PersistsAcrossReload(t *testing.T) {
	dev, table := newTestTable(t)

	id, err := table.Allocate()
	require.NoError(t, err)
	raw := inode.RawInode{FileType: byte(layout.FileTypeRegular), FileSize: 99, LinkCount: 1}
	require.NoError(t, table.Write(id, &raw))

	reloaded, err := inode.NewTable(dev, dev.FreeBitmapRawBytes())
	require.NoError(t, err)

	var readBack inode.RawInode
	require.NoError(t, reloaded.Read(id, &readBack))
	assert.Equal(t, raw, readBack)
}
