package volume

import (
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/rmilewski4/diskfs/pathwalk"
)

// Entry is one live directory listing result.
type Entry struct {
	Name string
	Type layout.FileType
}

// readOrAllocDirBlock returns the raw bytes of a directory inode's single
// directory block, allocating and zero-initializing it on first use.
func (v *Volume) readOrAllocDirBlock(parent *inode.RawInode) ([]byte, error) {
	if parent.Direct[0] == 0 {
		id, err := v.dev.Allocate()
		if err != nil {
			return nil, err
		}
		parent.Direct[0] = id
		zero := make([]byte, layout.BlockSize)
		if err := v.dev.Write(id, zero); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, layout.BlockSize)
	if err := v.dev.Read(parent.Direct[0], buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Create resolves path's parent directory, rejects it if the name already
// exists, allocates a child inode of the given type, and records it in the
// parent's directory block.
func (v *Volume) Create(path string, ftype layout.FileType) error {
	res, err := v.resolve(path)
	if err != nil {
		return err
	}
	if res.Kind == pathwalk.Found {
		return diskoerrors.ErrExists
	}
	if res.Kind == pathwalk.NotFound {
		return diskoerrors.ErrNotFound
	}

	var parent inode.RawInode
	if err := v.inodes.Read(res.ParentInodeID, &parent); err != nil {
		return err
	}
	if !parent.IsDirectory() {
		return diskoerrors.ErrNotADirectory
	}

	slot, err := findFreeSlot(parent.VacantFile)
	if err != nil {
		return err
	}

	block, err := v.readOrAllocDirBlock(&parent)
	if err != nil {
		return err
	}

	childID, err := v.inodes.Allocate()
	if err != nil {
		return err
	}
	child := inode.RawInode{
		FileType:    byte(ftype),
		InodeNumber: childID,
		LinkCount:   1,
	}
	if err := v.inodes.Write(childID, &child); err != nil {
		return err
	}

	entry := encodeDirent(res.ChildName, childID)
	copy(block[slotOffset(slot):slotOffset(slot)+layout.DirEntrySize], entry[:])
	if err := v.dev.Write(parent.Direct[0], block); err != nil {
		return err
	}

	parent.VacantFileSet(slot)
	return v.inodes.Write(res.ParentInodeID, &parent)
}

// List resolves path to a directory and returns its live entries.
func (v *Volume) List(path string) ([]Entry, error) {
	res, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if res.Kind != pathwalk.Found {
		return nil, diskoerrors.ErrNotFound
	}

	dir, err := v.ReadInode(res.ChildInodeID)
	if err != nil {
		return nil, err
	}
	if !dir.IsDirectory() {
		return nil, diskoerrors.ErrNotADirectory
	}

	dirents, err := v.ReadDirEntries(&dir)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		child, err := v.ReadInode(de.InodeNumber)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: de.Name, Type: layout.FileType(child.FileType)})
	}
	return out, nil
}

// removeEntryFromParent clears a directory slot and zeroes its bytes in the
// owning directory block.
func (v *Volume) removeEntryFromParent(parent *inode.RawInode, slot int) error {
	block, err := v.readOrAllocDirBlock(parent)
	if err != nil {
		return err
	}
	var empty [layout.DirEntrySize]byte
	copy(block[slotOffset(slot):slotOffset(slot)+layout.DirEntrySize], empty[:])
	if err := v.dev.Write(parent.Direct[0], block); err != nil {
		return err
	}
	parent.VacantFileClear(slot)
	return nil
}

// Move resolves src to an existing entry and dst to a not-yet-existing
// parent-and-name pair, relocating the directory entry without touching
// link_count.
func (v *Volume) Move(src, dst string) error {
	srcRes, err := v.resolve(src)
	if err != nil {
		return err
	}
	if srcRes.Kind != pathwalk.Found {
		return diskoerrors.ErrNotFound
	}

	dstRes, err := v.resolve(dst)
	if err != nil {
		return err
	}
	if dstRes.Kind == pathwalk.Found {
		return diskoerrors.ErrExists
	}
	if dstRes.Kind == pathwalk.NotFound {
		return diskoerrors.ErrNotFound
	}
	if dstRes.ParentInodeID == srcRes.ChildInodeID {
		return diskoerrors.ErrInvalidArgument.WithMessage("cannot move a directory into itself")
	}

	var srcParent inode.RawInode
	if err := v.inodes.Read(srcRes.ParentInodeID, &srcParent); err != nil {
		return err
	}
	srcEntries, err := v.ReadDirEntries(&srcParent)
	if err != nil {
		return err
	}
	srcSlot, ok := findSlotByName(srcEntries, srcRes.ChildName)
	if !ok {
		return diskoerrors.ErrNotFound
	}
	if err := v.removeEntryFromParent(&srcParent, srcSlot); err != nil {
		return err
	}
	if err := v.inodes.Write(srcRes.ParentInodeID, &srcParent); err != nil {
		return err
	}

	var dstParent inode.RawInode
	if err := v.inodes.Read(dstRes.ParentInodeID, &dstParent); err != nil {
		return err
	}
	dstSlot, err := findFreeSlot(dstParent.VacantFile)
	if err != nil {
		return err
	}
	block, err := v.readOrAllocDirBlock(&dstParent)
	if err != nil {
		return err
	}
	entry := encodeDirent(dstRes.ChildName, srcRes.ChildInodeID)
	copy(block[slotOffset(dstSlot):slotOffset(dstSlot)+layout.DirEntrySize], entry[:])
	if err := v.dev.Write(dstParent.Direct[0], block); err != nil {
		return err
	}
	dstParent.VacantFileSet(dstSlot)
	return v.inodes.Write(dstRes.ParentInodeID, &dstParent)
}

func findSlotByName(entries []pathwalk.DirEntry, name string) (int, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e.Slot, true
		}
	}
	return 0, false
}

// Remove resolves path and removes it: directories must be empty; regular
// files have every reachable block released before the inode slot itself
// is freed once link_count reaches zero. Open descriptors to the removed
// file are severed.
func (v *Volume) Remove(path string) error {
	res, err := v.resolve(path)
	if err != nil {
		return err
	}
	if res.Kind != pathwalk.Found {
		return diskoerrors.ErrNotFound
	}

	var target inode.RawInode
	if err := v.inodes.Read(res.ChildInodeID, &target); err != nil {
		return err
	}

	if target.IsDirectory() {
		if target.VacantFile != 0 {
			return diskoerrors.ErrDirectoryNotEmpty
		}
	} else if target.LinkCount <= 1 {
		if err := v.releaseAllBlocks(&target); err != nil {
			return err
		}
	}

	var parent inode.RawInode
	if err := v.inodes.Read(res.ParentInodeID, &parent); err != nil {
		return err
	}
	parentEntries, err := v.ReadDirEntries(&parent)
	if err != nil {
		return err
	}
	slot, ok := findSlotByName(parentEntries, res.ChildName)
	if !ok {
		return diskoerrors.ErrNotFound
	}
	if err := v.removeEntryFromParent(&parent, slot); err != nil {
		return err
	}
	if err := v.inodes.Write(res.ParentInodeID, &parent); err != nil {
		return err
	}

	target.LinkCount--
	if target.LinkCount == 0 {
		v.fds.ReleaseAllForInode(res.ChildInodeID)
		return v.inodes.Release(res.ChildInodeID)
	}
	return v.inodes.Write(res.ChildInodeID, &target)
}

// releaseAllBlocks walks every block id reachable through an inode's
// direct, indirect, and double-indirect pointers and releases each one,
// including the index blocks themselves.
func (v *Volume) releaseAllBlocks(target *inode.RawInode) error {
	for _, id := range target.Direct {
		if id != 0 {
			if err := v.dev.Release(id); err != nil {
				return err
			}
		}
	}

	if target.Indirect != 0 {
		ptrs, err := readPointers(v.dev, target.Indirect)
		if err != nil {
			return err
		}
		for _, id := range ptrs {
			if id != 0 {
				if err := v.dev.Release(id); err != nil {
					return err
				}
			}
		}
		if err := v.dev.Release(target.Indirect); err != nil {
			return err
		}
	}

	if target.DoubleIndirect != 0 {
		outerPtrs, err := readPointers(v.dev, target.DoubleIndirect)
		if err != nil {
			return err
		}
		for _, outerID := range outerPtrs {
			if outerID == 0 {
				continue
			}
			innerPtrs, err := readPointers(v.dev, outerID)
			if err != nil {
				return err
			}
			for _, id := range innerPtrs {
				if id != 0 {
					if err := v.dev.Release(id); err != nil {
						return err
					}
				}
			}
			if err := v.dev.Release(outerID); err != nil {
				return err
			}
		}
		if err := v.dev.Release(target.DoubleIndirect); err != nil {
			return err
		}
	}

	return nil
}

// Link resolves src to an existing inode and creates a new directory entry
// for it under dst, incrementing link_count.
func (v *Volume) Link(src, dst string) error {
	srcRes, err := v.resolve(src)
	if err != nil {
		return err
	}
	if srcRes.Kind != pathwalk.Found {
		return diskoerrors.ErrNotFound
	}

	dstRes, err := v.resolve(dst)
	if err != nil {
		return err
	}
	if dstRes.Kind == pathwalk.Found {
		return diskoerrors.ErrExists
	}
	if dstRes.Kind == pathwalk.NotFound {
		return diskoerrors.ErrNotFound
	}

	var dstParent inode.RawInode
	if err := v.inodes.Read(dstRes.ParentInodeID, &dstParent); err != nil {
		return err
	}
	slot, err := findFreeSlot(dstParent.VacantFile)
	if err != nil {
		return err
	}
	block, err := v.readOrAllocDirBlock(&dstParent)
	if err != nil {
		return err
	}
	entry := encodeDirent(dstRes.ChildName, srcRes.ChildInodeID)
	copy(block[slotOffset(slot):slotOffset(slot)+layout.DirEntrySize], entry[:])
	if err := v.dev.Write(dstParent.Direct[0], block); err != nil {
		return err
	}
	dstParent.VacantFileSet(slot)
	if err := v.inodes.Write(dstRes.ParentInodeID, &dstParent); err != nil {
		return err
	}

	var srcInode inode.RawInode
	if err := v.inodes.Read(srcRes.ChildInodeID, &srcInode); err != nil {
		return err
	}
	srcInode.LinkCount++
	return v.inodes.Write(srcRes.ChildInodeID, &srcInode)
}
