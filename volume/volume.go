// Package volume implements the public file-system handle: format, mount,
// and unmount of a container, the open/close/seek/read/write state machine
// over it, and the directory operations built on top of the path resolver
// and extent mapper.
package volume

import (
	"github.com/rmilewski4/diskfs/block"
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/fd"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/rmilewski4/diskfs/pathwalk"
)

// Volume is the sole owner of a container's block device, inode table, and
// descriptor pool. It is not safe to share between callers; ordering
// between operations is simply call order.
type Volume struct {
	dev    *block.Device
	inodes *inode.Table
	fds    *fd.Table
}

// Format initializes a fresh container at path: a zeroed block device with
// its metadata regions reserved, an inode table with the root directory
// allocated at slot 0, and an empty descriptor pool.
func Format(path string) (*Volume, error) {
	dev, err := block.Create(path)
	if err != nil {
		return nil, err
	}
	return newFormattedVolume(dev)
}

// FormatMemory is Format's in-memory counterpart, for callers that want the
// container to live entirely in a byte buffer.
func FormatMemory() (*Volume, error) {
	dev, err := block.CreateMemory()
	if err != nil {
		return nil, err
	}
	return newFormattedVolume(dev)
}

func newFormattedVolume(dev *block.Device) (*Volume, error) {
	table, err := inode.NewTable(dev, dev.FreeBitmapRawBytes())
	if err != nil {
		return nil, err
	}

	rootID, err := table.Allocate()
	if err != nil {
		return nil, err
	}
	if rootID != pathwalk.RootInodeID {
		return nil, diskoerrors.ErrIOFailed.WithMessage("root inode did not land in slot 0")
	}

	root := inode.RawInode{
		FileType:    byte(layout.FileTypeDirectory),
		InodeNumber: rootID,
		LinkCount:   1,
	}
	if err := table.Write(rootID, &root); err != nil {
		return nil, err
	}

	return &Volume{dev: dev, inodes: table, fds: fd.NewTable()}, nil
}

// Mount re-attaches to an existing container file: the bitmap overlays are
// rebuilt from its current bytes, and a fresh, empty descriptor pool is
// created, since descriptors are never persisted across unmount.
func Mount(path string) (*Volume, error) {
	dev, err := block.Open(path)
	if err != nil {
		return nil, err
	}
	return newMountedVolume(dev)
}

// MountMemory is Mount's in-memory counterpart.
func MountMemory(data []byte) (*Volume, error) {
	dev, err := block.OpenMemory(data)
	if err != nil {
		return nil, err
	}
	return newMountedVolume(dev)
}

func newMountedVolume(dev *block.Device) (*Volume, error) {
	table, err := inode.NewTable(dev, dev.FreeBitmapRawBytes())
	if err != nil {
		return nil, err
	}
	return &Volume{dev: dev, inodes: table, fds: fd.NewTable()}, nil
}

// Unmount flushes every bitmap and inode write back to the backing store
// and releases the volume's in-memory resources. The descriptor pool is
// simply discarded, per its runtime-only lifecycle.
func (v *Volume) Unmount() error {
	return v.dev.Close()
}

// ReadInode satisfies pathwalk.DirReader.
func (v *Volume) ReadInode(id uint8) (inode.RawInode, error) {
	var raw inode.RawInode
	if !v.inodes.Test(id) {
		return raw, diskoerrors.ErrNotFound
	}
	err := v.inodes.Read(id, &raw)
	return raw, err
}

// ReadDirEntries satisfies pathwalk.DirReader.
func (v *Volume) ReadDirEntries(dirInode *inode.RawInode) ([]pathwalk.DirEntry, error) {
	if dirInode.Direct[0] == 0 {
		return nil, nil
	}
	blockBuf := make([]byte, layout.BlockSize)
	if err := v.dev.Read(dirInode.Direct[0], blockBuf); err != nil {
		return nil, err
	}
	return decodeLiveEntries(dirInode.VacantFile, blockBuf), nil
}

func (v *Volume) resolve(path string) (pathwalk.Resolution, error) {
	return pathwalk.Resolve(v, path)
}
