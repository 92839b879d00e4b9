package inode

import (
	"github.com/rmilewski4/diskfs/bitmap"
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/layout"
)

// BlockReaderWriter is the subset of block.Device that Table needs to reach
// the inode table's blocks.
type BlockReaderWriter interface {
	Read(id uint16, buf []byte) error
	Write(id uint16, buf []byte) error
}

// Table is the inode sub-allocator: a 256-bit allocation bitmap overlaid on
// the reserved bytes block.Device.FreeBitmapRawBytes exposes, plus read and
// write access to the 256 fixed-size records spanning blocks
// layout.InodeTableStartBlock through layout.InodeTableStartBlock+layout.InodeTableBlocks-1.
type Table struct {
	dev    BlockReaderWriter
	alloc  bitmap.Bitmap
	blocks [layout.InodeTableBlocks][layout.BlockSize]byte
}

// NewTable loads the inode table's blocks from dev and overlays the
// allocation bitmap on allocBitmapStorage, which must be exactly
// layout.InodeBitmapBytes long (the tail of the free-block bitmap that
// block.Device.FreeBitmapRawBytes returns).
func NewTable(dev BlockReaderWriter, allocBitmapStorage []byte) (*Table, error) {
	t := &Table{
		dev:   dev,
		alloc: bitmap.NewOverlay(allocBitmapStorage, layout.InodeCount),
	}
	for i := 0; i < layout.InodeTableBlocks; i++ {
		if err := dev.Read(uint16(layout.InodeTableStartBlock+i), t.blocks[i][:]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) slot(id uint8) ([]byte, error) {
	if int(id) >= layout.InodeCount {
		return nil, diskoerrors.ErrInvalidArgument.WithMessage("inode id out of range")
	}
	byteOffset := int(id) * layout.InodeSize
	blockIdx := byteOffset / layout.BlockSize
	inBlock := byteOffset % layout.BlockSize
	return t.blocks[blockIdx][inBlock : inBlock+layout.InodeSize], nil
}

// Allocate finds the first free inode slot, marks it used, and returns its
// id.
func (t *Table) Allocate() (uint8, error) {
	i := t.alloc.FindFirstZero()
	if i < 0 {
		return 0, diskoerrors.ErrOutOfInodes
	}
	t.alloc.Set(i)
	return uint8(i), nil
}

// Release clears an inode's allocation bit.
func (t *Table) Release(id uint8) error {
	if int(id) >= layout.InodeCount {
		return diskoerrors.ErrInvalidArgument.WithMessage("inode id out of range")
	}
	t.alloc.Clear(int(id))
	return nil
}

// Test reports whether an inode id is currently allocated.
func (t *Table) Test(id uint8) bool {
	if int(id) >= layout.InodeCount {
		return false
	}
	return t.alloc.Test(int(id))
}

// Read copies the 64-byte record for id into raw.
func (t *Table) Read(id uint8, raw *RawInode) error {
	slot, err := t.slot(id)
	if err != nil {
		return err
	}
	return raw.Decode(slot)
}

// Write encodes raw and copies it into id's slot, then flushes the owning
// block back to the device.
func (t *Table) Write(id uint8, raw *RawInode) error {
	slot, err := t.slot(id)
	if err != nil {
		return err
	}
	encoded := raw.Encode()
	copy(slot, encoded[:])

	blockIdx := (int(id) * layout.InodeSize) / layout.BlockSize
	return t.dev.Write(uint16(layout.InodeTableStartBlock+blockIdx), t.blocks[blockIdx][:])
}
