// Package fd implements the runtime-only pool of open-file descriptors: a
// fixed-size table of cursor records allocated and released the same way
// the inode table is, but never persisted across unmount.
package fd

import (
	"github.com/rmilewski4/diskfs/bitmap"
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/layout"
)

// RawDescriptor is the 6-byte open-file handle: which inode it addresses
// and where its cursor currently sits among the pointer tiers.
type RawDescriptor struct {
	InodeNum     uint8
	Usage        layout.FDUsage
	LocateOrder  uint16
	LocateOffset uint16
}

// BytePosition returns the descriptor's absolute byte offset into the
// file, derived from its (usage, locate_order, locate_offset) tuple per
// layout's tier byte-position formulas.
func (d *RawDescriptor) BytePosition() uint64 {
	switch d.Usage {
	case layout.UsageDirect:
		return uint64(d.LocateOrder)*layout.BlockSize + uint64(d.LocateOffset)
	case layout.UsageIndirect:
		return uint64(layout.DirectPointers+int(d.LocateOrder))*layout.BlockSize + uint64(d.LocateOffset)
	case layout.UsageDoubleIndirect:
		return uint64(layout.DirectPointers+layout.PointersPerBlock+int(d.LocateOrder))*layout.BlockSize + uint64(d.LocateOffset)
	default:
		return 0
	}
}

// SetFromBytePosition decomposes an absolute byte offset into the
// descriptor's (usage, locate_order, locate_offset) tuple.
func (d *RawDescriptor) SetFromBytePosition(pos uint64) {
	blk := pos / layout.BlockSize
	off := pos % layout.BlockSize

	switch {
	case blk < layout.DirectPointers:
		d.Usage = layout.UsageDirect
		d.LocateOrder = uint16(blk)
	case blk < layout.DirectPointers+layout.PointersPerBlock:
		d.Usage = layout.UsageIndirect
		d.LocateOrder = uint16(blk - layout.DirectPointers)
	default:
		d.Usage = layout.UsageDoubleIndirect
		d.LocateOrder = uint16(blk - layout.DirectPointers - layout.PointersPerBlock)
	}
	d.LocateOffset = uint16(off)
}

// Table is the fixed-size, runtime-only pool of open descriptors.
type Table struct {
	alloc bitmap.Bitmap
	slots [layout.FDCount]RawDescriptor
}

// NewTable returns an empty descriptor table.
func NewTable() *Table {
	return &Table{alloc: bitmap.New(layout.FDCount)}
}

// Allocate reserves the first free descriptor slot and returns its id.
func (t *Table) Allocate() (int, error) {
	i := t.alloc.FindFirstZero()
	if i < 0 {
		return 0, diskoerrors.ErrOutOfDescriptors
	}
	t.alloc.Set(i)
	t.slots[i] = RawDescriptor{}
	return i, nil
}

// Release frees a descriptor slot. It errors if the slot is not in use.
func (t *Table) Release(id int) error {
	if !t.inUse(id) {
		return diskoerrors.ErrInvalidArgument.WithMessage("descriptor not in use")
	}
	t.alloc.Clear(id)
	return nil
}

func (t *Table) inUse(id int) bool {
	return id >= 0 && id < layout.FDCount && t.alloc.Test(id)
}

// Get returns a pointer to the descriptor's live record, for use on the
// read/write/seek path. It returns ErrIOFailed if the slot is not in use,
// which also covers a descriptor severed out from under its caller by
// ReleaseAllForInode.
func (t *Table) Get(id int) (*RawDescriptor, error) {
	if !t.inUse(id) {
		return nil, diskoerrors.ErrIOFailed.WithMessage("descriptor not in use")
	}
	return &t.slots[id], nil
}

// ReleaseAllForInode severs every open descriptor pointing at the given
// inode, as required when that inode is removed out from under them.
func (t *Table) ReleaseAllForInode(inodeNum uint8) {
	for i := 0; i < layout.FDCount; i++ {
		if t.alloc.Test(i) && t.slots[i].InodeNum == inodeNum {
			t.alloc.Clear(i)
		}
	}
}
