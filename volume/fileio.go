package volume

import (
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/extent"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/rmilewski4/diskfs/pathwalk"
)

// Open resolves path to an existing regular file, allocates a descriptor
// for it positioned at the start of the file, and returns the descriptor
// id.
func (v *Volume) Open(path string) (int, error) {
	res, err := v.resolve(path)
	if err != nil {
		return 0, err
	}
	if res.Kind != pathwalk.Found {
		return 0, diskoerrors.ErrNotFound
	}

	inodeID := res.ChildInodeID
	target, err := v.ReadInode(inodeID)
	if err != nil {
		return 0, err
	}
	if target.IsDirectory() {
		return 0, diskoerrors.ErrIsADirectory
	}

	id, err := v.fds.Allocate()
	if err != nil {
		return 0, err
	}
	descriptor, _ := v.fds.Get(id)
	descriptor.InodeNum = inodeID
	descriptor.Usage = layout.UsageDirect
	descriptor.LocateOrder = 0
	descriptor.LocateOffset = 0
	return id, nil
}

// Close releases a descriptor. It errors if the descriptor is not in use.
func (v *Volume) Close(fdID int) error {
	return v.fds.Release(fdID)
}

// Seek repositions a descriptor's cursor per layout.SeekWhence semantics
// and returns the new absolute byte position.
func (v *Volume) Seek(fdID int, offset int64, whence layout.SeekWhence) (int64, error) {
	descriptor, err := v.fds.Get(fdID)
	if err != nil {
		return 0, err
	}
	target, err := v.ReadInode(descriptor.InodeNum)
	if err != nil {
		return 0, err
	}

	var newPos int64
	switch whence {
	case layout.SeekSet:
		newPos = offset
	case layout.SeekCur:
		newPos = int64(descriptor.BytePosition()) + offset
	case layout.SeekEnd:
		newPos = int64(target.FileSize) + offset
		if newPos > int64(target.FileSize) {
			newPos = int64(target.FileSize)
		}
	default:
		return 0, diskoerrors.ErrInvalidArgument.WithMessage("unrecognized seek whence")
	}

	if newPos < 0 {
		newPos = 0
	}

	descriptor.SetFromBytePosition(uint64(newPos))
	return newPos, nil
}

// Read copies up to len(dst) bytes starting at the descriptor's cursor,
// short-reading at EOF and erroring on an unmapped block.
func (v *Volume) Read(fdID int, dst []byte) (int, error) {
	descriptor, err := v.fds.Get(fdID)
	if err != nil {
		return 0, err
	}
	target, err := v.ReadInode(descriptor.InodeNum)
	if err != nil {
		return 0, err
	}

	pos := descriptor.BytePosition()
	total := 0
	for total < len(dst) && pos < target.FileSize {
		loc, err := extent.Locate(v.dev, &target, pos)
		if err != nil {
			descriptor.SetFromBytePosition(pos)
			return total, err
		}

		remaining := uint64(target.FileSize) - pos
		toCopy := uint64(loc.BytesRemaining)
		if toCopy > remaining {
			toCopy = remaining
		}
		if want := uint64(len(dst) - total); toCopy > want {
			toCopy = want
		}

		buf := make([]byte, layout.BlockSize)
		if err := v.dev.Read(loc.BlockID, buf); err != nil {
			descriptor.SetFromBytePosition(pos)
			return total, err
		}
		copy(dst[total:], buf[loc.InBlockOffset:uint64(loc.InBlockOffset)+toCopy])

		total += int(toCopy)
		pos += toCopy
	}

	descriptor.SetFromBytePosition(pos)
	return total, nil
}

// Write copies up to len(src) bytes starting at the descriptor's cursor,
// allocating blocks lazily through extent.LocateForWrite. Out-of-space
// mid-write returns the bytes successfully written with the inode state
// reflecting exactly that much data.
func (v *Volume) Write(fdID int, src []byte) (int, error) {
	descriptor, err := v.fds.Get(fdID)
	if err != nil {
		return 0, err
	}
	var target inode.RawInode
	if err := v.inodes.Read(descriptor.InodeNum, &target); err != nil {
		return 0, err
	}

	pos := descriptor.BytePosition()
	total := 0
	var writeErr error

	for total < len(src) {
		loc, err := extent.LocateForWrite(v.dev, &target, pos)
		if err != nil {
			writeErr = err
			break
		}

		want := uint64(len(src) - total)
		toCopy := uint64(loc.BytesRemaining)
		if toCopy > want {
			toCopy = want
		}

		buf := make([]byte, layout.BlockSize)
		if err := v.dev.Read(loc.BlockID, buf); err != nil {
			writeErr = err
			break
		}
		copy(buf[loc.InBlockOffset:uint64(loc.InBlockOffset)+toCopy], src[total:total+int(toCopy)])
		if err := v.dev.Write(loc.BlockID, buf); err != nil {
			writeErr = err
			break
		}

		total += int(toCopy)
		pos += toCopy
	}

	if pos > target.FileSize {
		target.FileSize = pos
	}
	descriptor.SetFromBytePosition(pos)
	if err := v.inodes.Write(descriptor.InodeNum, &target); err != nil {
		return total, err
	}
	return total, writeErr
}
