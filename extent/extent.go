// Package extent translates a (file, byte-offset) pair into a (block id,
// in-block offset) pair by walking an inode's direct, single-indirect, and
// double-indirect pointers, allocating blocks lazily on the write path.
package extent

import (
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
)

// BlockReader is the read-only view extent needs of the block device.
type BlockReader interface {
	Read(id uint16, buf []byte) error
}

// BlockAllocator is the view extent needs of the block device on the write
// path: reading existing index blocks plus allocating and writing new
// ones.
type BlockAllocator interface {
	BlockReader
	Write(id uint16, buf []byte) error
	Allocate() (uint16, error)
}

// Location is where a given byte offset currently lives.
type Location struct {
	BlockID        uint16
	InBlockOffset  uint16
	BytesRemaining uint32 // bytes left in BlockID from InBlockOffset to the block's end
}

func tierIndices(blk uint64) (direct bool, indirectIdx uint64, indirect bool, outer, inner uint64, doubleIndirect bool) {
	if blk < layout.DirectPointers {
		return true, blk, false, 0, 0, false
	}
	blk -= layout.DirectPointers
	if blk < layout.PointersPerBlock {
		return false, blk, true, 0, 0, false
	}
	blk -= layout.PointersPerBlock
	return false, 0, false, blk / layout.PointersPerBlock, blk % layout.PointersPerBlock, true
}

func readPointerBlock(r BlockReader, blockID uint16) ([]uint16, error) {
	raw := make([]byte, layout.BlockSize)
	if err := r.Read(blockID, raw); err != nil {
		return nil, err
	}
	ptrs := make([]uint16, layout.PointersPerBlock)
	for i := range ptrs {
		ptrs[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return ptrs, nil
}

func writePointerBlock(w BlockAllocator, blockID uint16, ptrs []uint16) error {
	raw := make([]byte, layout.BlockSize)
	for i, p := range ptrs {
		raw[2*i] = byte(p)
		raw[2*i+1] = byte(p >> 8)
	}
	return w.Write(blockID, raw)
}

// Locate resolves a byte offset to its current block id for the read path.
// A zero pointer anywhere along the walk is an error: unmapped regions are
// never zero-filled on read.
func Locate(r BlockReader, ino *inode.RawInode, offset uint64) (Location, error) {
	if offset >= ino.FileSize {
		return Location{}, diskoerrors.ErrInvalidArgument.WithMessage("offset past end of file")
	}

	blk := offset / layout.BlockSize
	off := uint16(offset % layout.BlockSize)
	isDirect, directIdx, isIndirect, outer, inner, isDouble := tierIndices(blk)

	var blockID uint16
	switch {
	case isDirect:
		blockID = ino.Direct[directIdx]
	case isIndirect:
		if ino.Indirect == 0 {
			return Location{}, diskoerrors.ErrIOFailed.WithMessage("read through unmapped indirect pointer")
		}
		ptrs, err := readPointerBlock(r, ino.Indirect)
		if err != nil {
			return Location{}, err
		}
		blockID = ptrs[directIdx]
	case isDouble:
		if ino.DoubleIndirect == 0 {
			return Location{}, diskoerrors.ErrIOFailed.WithMessage("read through unmapped double-indirect pointer")
		}
		outerPtrs, err := readPointerBlock(r, ino.DoubleIndirect)
		if err != nil {
			return Location{}, err
		}
		if outerPtrs[outer] == 0 {
			return Location{}, diskoerrors.ErrIOFailed.WithMessage("read through unmapped indirect index block")
		}
		innerPtrs, err := readPointerBlock(r, outerPtrs[outer])
		if err != nil {
			return Location{}, err
		}
		blockID = innerPtrs[inner]
	}

	if blockID == 0 {
		return Location{}, diskoerrors.ErrIOFailed.WithMessage("read through unmapped block")
	}
	return Location{BlockID: blockID, InBlockOffset: off, BytesRemaining: uint32(layout.BlockSize - off)}, nil
}

// LocateForWrite resolves a byte offset to a block id for the write path,
// allocating the data block and any owning index blocks that don't exist
// yet. ino is mutated in place to record newly allocated pointers; the
// caller is responsible for persisting it afterward.
func LocateForWrite(a BlockAllocator, ino *inode.RawInode, offset uint64) (Location, error) {
	if offset >= layout.MaxFileSize {
		return Location{}, diskoerrors.ErrInvalidArgument.WithMessage("offset exceeds addressable file size")
	}

	blk := offset / layout.BlockSize
	off := uint16(offset % layout.BlockSize)
	isDirect, directIdx, isIndirect, outer, inner, isDouble := tierIndices(blk)

	var blockID uint16
	var err error

	switch {
	case isDirect:
		if ino.Direct[directIdx] == 0 {
			blockID, err = a.Allocate()
			if err != nil {
				return Location{}, err
			}
			ino.Direct[directIdx] = blockID
		} else {
			blockID = ino.Direct[directIdx]
		}

	case isIndirect:
		if ino.Indirect == 0 {
			idxBlock, err := a.Allocate()
			if err != nil {
				return Location{}, err
			}
			ino.Indirect = idxBlock
			if err := writePointerBlock(a, idxBlock, make([]uint16, layout.PointersPerBlock)); err != nil {
				return Location{}, err
			}
		}
		ptrs, err := readPointerBlock(a, ino.Indirect)
		if err != nil {
			return Location{}, err
		}
		if ptrs[directIdx] == 0 {
			blockID, err = a.Allocate()
			if err != nil {
				return Location{}, err
			}
			ptrs[directIdx] = blockID
			if err := writePointerBlock(a, ino.Indirect, ptrs); err != nil {
				return Location{}, err
			}
		} else {
			blockID = ptrs[directIdx]
		}

	case isDouble:
		if ino.DoubleIndirect == 0 {
			idxBlock, err := a.Allocate()
			if err != nil {
				return Location{}, err
			}
			ino.DoubleIndirect = idxBlock
			if err := writePointerBlock(a, idxBlock, make([]uint16, layout.PointersPerBlock)); err != nil {
				return Location{}, err
			}
		}
		outerPtrs, err := readPointerBlock(a, ino.DoubleIndirect)
		if err != nil {
			return Location{}, err
		}
		if outerPtrs[outer] == 0 {
			innerIdxBlock, err := a.Allocate()
			if err != nil {
				return Location{}, err
			}
			outerPtrs[outer] = innerIdxBlock
			if err := writePointerBlock(a, ino.DoubleIndirect, outerPtrs); err != nil {
				return Location{}, err
			}
			if err := writePointerBlock(a, innerIdxBlock, make([]uint16, layout.PointersPerBlock)); err != nil {
				return Location{}, err
			}
		}
		innerPtrs, err := readPointerBlock(a, outerPtrs[outer])
		if err != nil {
			return Location{}, err
		}
		if innerPtrs[inner] == 0 {
			blockID, err = a.Allocate()
			if err != nil {
				return Location{}, err
			}
			innerPtrs[inner] = blockID
			if err := writePointerBlock(a, outerPtrs[outer], innerPtrs); err != nil {
				return Location{}, err
			}
		} else {
			blockID = innerPtrs[inner]
		}
	}

	return Location{BlockID: blockID, InBlockOffset: off, BytesRemaining: uint32(layout.BlockSize - off)}, nil
}
