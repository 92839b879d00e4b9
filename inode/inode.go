// Package inode implements the sub-allocator of fixed-size inode records
// within the reserved span of blocks in a container, with its own
// allocation bitmap.
package inode

import (
	"bytes"
	"encoding/binary"

	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/layout"
)

// RawInode is the 64-byte on-disk inode record, laid out exactly as
// layout's field order requires.
type RawInode struct {
	VacantFile     uint32
	Owner          [18]byte
	FileType       byte
	InodeNumber    byte
	FileSize       uint64
	LinkCount      uint64
	Direct         [layout.DirectPointers]uint16
	Indirect       uint16
	DoubleIndirect uint16
	_              [8]byte // padding to round the record out to layout.InodeSize
}

// Encode writes the inode's wire representation into a layout.InodeSize
// byte buffer.
func (r *RawInode) Encode() [layout.InodeSize]byte {
	var out [layout.InodeSize]byte
	buf := bytes.NewBuffer(out[:0])
	// binary.Write never fails on a fixed-size struct with no unsupported
	// field types, so the error is safe to discard here.
	_ = binary.Write(buf, binary.LittleEndian, r)
	copy(out[:], buf.Bytes())
	return out
}

// Decode populates r from a layout.InodeSize byte buffer previously
// produced by Encode.
func (r *RawInode) Decode(data []byte) error {
	if len(data) != layout.InodeSize {
		return diskoerrors.ErrInvalidArgument.WithMessage("inode record must be exactly InodeSize bytes")
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, r)
}

// IsDirectory reports whether the inode's file type byte is the directory
// discriminant.
func (r *RawInode) IsDirectory() bool {
	return layout.FileType(r.FileType) == layout.FileTypeDirectory
}

// IsRegular reports whether the inode's file type byte is the regular-file
// discriminant.
func (r *RawInode) IsRegular() bool {
	return layout.FileType(r.FileType) == layout.FileTypeRegular
}

// VacantFileTest reports whether directory slot i is marked live in
// VacantFile.
func (r *RawInode) VacantFileTest(i int) bool {
	return r.VacantFile&(1<<uint(i)) != 0
}

// VacantFileSet marks directory slot i live.
func (r *RawInode) VacantFileSet(i int) {
	r.VacantFile |= 1 << uint(i)
}

// VacantFileClear marks directory slot i free.
func (r *RawInode) VacantFileClear(i int) {
	r.VacantFile &^= 1 << uint(i)
}
