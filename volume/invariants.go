package volume

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
)

// CheckInvariants re-walks every inode and directory and reports every
// violation of I1-I4 it finds in one pass, instead of stopping at the
// first one. Open descriptors' cursors (I5) are not checked.
func (v *Volume) CheckInvariants() error {
	var result *multierror.Error

	usedByInode := make(map[uint16]uint8)

	for id := 0; id < layout.InodeCount; id++ {
		inodeID := uint8(id)
		if !v.inodes.Test(inodeID) {
			continue
		}
		var raw inode.RawInode
		if err := v.inodes.Read(inodeID, &raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("inode %d: %w", inodeID, err))
			continue
		}

		blocks, dataBlockCount, err := v.reachableBlocks(&raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("inode %d: walking pointers: %w", inodeID, err))
		}
		for _, b := range blocks {
			if !v.dev.IsUsed(b) {
				result = multierror.Append(result, fmt.Errorf(
					"I1: inode %d references block %d which is not marked used", inodeID, b))
			}
			if owner, already := usedByInode[b]; already {
				result = multierror.Append(result, fmt.Errorf(
					"block %d is reachable from both inode %d and inode %d", b, owner, inodeID))
			} else {
				usedByInode[b] = inodeID
			}
		}

		if raw.IsRegular() {
			addressable := uint64(dataBlockCount) * layout.BlockSize
			if raw.FileSize > addressable {
				result = multierror.Append(result, fmt.Errorf(
					"I4: inode %d has file_size %d exceeding %d addressable bytes",
					inodeID, raw.FileSize, addressable))
			}
		}

		if raw.IsDirectory() {
			entries, err := v.ReadDirEntries(&raw)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("inode %d: reading directory block: %w", inodeID, err))
				continue
			}
			if len(entries) != popcount32(raw.VacantFile) {
				result = multierror.Append(result, fmt.Errorf(
					"I2: inode %d has popcount(vacant_file)=%d but %d live entries",
					inodeID, popcount32(raw.VacantFile), len(entries)))
			}

			seenNames := make(map[string]bool, len(entries))
			for _, e := range entries {
				if seenNames[e.Name] {
					result = multierror.Append(result, fmt.Errorf(
						"I3: inode %d's directory has duplicate name %q", inodeID, e.Name))
				}
				seenNames[e.Name] = true

				if !v.inodes.Test(e.InodeNumber) {
					result = multierror.Append(result, fmt.Errorf(
						"inode %d's directory entry %q references unallocated inode %d",
						inodeID, e.Name, e.InodeNumber))
				}
			}
		}
	}

	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}

// reachableBlocks returns every nonzero block id an inode's pointers name,
// including the index blocks themselves, plus a separate count of just the
// data-bearing blocks (excluding index blocks) for I4's addressable-bytes
// computation.
func (v *Volume) reachableBlocks(raw *inode.RawInode) ([]uint16, int, error) {
	var blocks []uint16
	dataBlocks := 0
	for _, id := range raw.Direct {
		if id != 0 {
			blocks = append(blocks, id)
			dataBlocks++
		}
	}
	if raw.Indirect != 0 {
		blocks = append(blocks, raw.Indirect)
		ptrs, err := readPointers(v.dev, raw.Indirect)
		if err != nil {
			return blocks, dataBlocks, err
		}
		for _, id := range ptrs {
			if id != 0 {
				blocks = append(blocks, id)
				dataBlocks++
			}
		}
	}
	if raw.DoubleIndirect != 0 {
		blocks = append(blocks, raw.DoubleIndirect)
		outerPtrs, err := readPointers(v.dev, raw.DoubleIndirect)
		if err != nil {
			return blocks, dataBlocks, err
		}
		for _, outerID := range outerPtrs {
			if outerID == 0 {
				continue
			}
			blocks = append(blocks, outerID)
			innerPtrs, err := readPointers(v.dev, outerID)
			if err != nil {
				return blocks, dataBlocks, err
			}
			for _, id := range innerPtrs {
				if id != 0 {
					blocks = append(blocks, id)
					dataBlocks++
				}
			}
		}
	}
	return blocks, dataBlocks, nil
}

func popcount32(v uint32) int {
	count := 0
	for v != 0 {
		count += int(v & 1)
		v >>= 1
	}
	return count
}
