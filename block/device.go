// Package block implements the fixed array of equal-size blocks that backs
// a container: allocation, release, and raw block I/O over a free-block
// bitmap overlaid on the container's own bytes.
package block

import (
	"io"
	"os"

	"github.com/rmilewski4/diskfs/bitmap"
	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/xaionaro-go/bytesextra"
)

// ContainerSize is the total number of bytes a freshly formatted container
// occupies.
const ContainerSize = layout.BlockCount * layout.BlockSize

// Device is a fixed array of layout.BlockCount blocks of layout.BlockSize
// bytes each, backed by an io.ReadWriteSeeker, with a free-block bitmap
// overlaid on blocks 0-1 of that same backing store.
type Device struct {
	stream      io.ReadWriteSeeker
	closer      io.Closer
	freeBitmap  bitmap.Bitmap
	fbmBlockBuf []byte
}

// Create builds a fresh, zeroed container at path and reserves the metadata
// regions.
func Create(path string) (*Device, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, diskoerrors.ErrIOFailed.WrapError(err)
	}
	if err := f.Truncate(ContainerSize); err != nil {
		f.Close()
		return nil, diskoerrors.ErrIOFailed.WrapError(err)
	}
	dev, err := newFormatted(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return dev, nil
}

// Open re-attaches to an existing container file, restoring the bitmap
// overlay from its current bytes without touching anything else.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, diskoerrors.ErrIOFailed.WrapError(err)
	}
	dev, err := newFromExisting(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return dev, nil
}

// CreateMemory builds a fresh, zeroed in-memory container of exactly
// ContainerSize bytes, for callers that want the "or memory region" case
// instead of a host file.
func CreateMemory() (*Device, error) {
	buf := make([]byte, ContainerSize)
	stream := bytesextra.NewReadWriteSeeker(buf)
	return newFormatted(stream, nil)
}

// OpenMemory re-attaches to an in-memory container previously produced by
// CreateMemory or Device.Serialize.
func OpenMemory(data []byte) (*Device, error) {
	if len(data) != ContainerSize {
		return nil, diskoerrors.ErrInvalidArgument.WithMessage("container is the wrong size")
	}
	stream := bytesextra.NewReadWriteSeeker(data)
	return newFromExisting(stream, nil)
}

func newFormatted(stream io.ReadWriteSeeker, closer io.Closer) (*Device, error) {
	dev := &Device{
		stream:      stream,
		closer:      closer,
		fbmBlockBuf: make([]byte, layout.FBMBlockCount*layout.BlockSize),
	}
	dev.freeBitmap = bitmap.NewOverlay(dev.fbmBlockBuf[:layout.FBMBytes], layout.BlockCount)

	for id := layout.FBMBlockStart; id < layout.FBMBlockStart+layout.FBMBlockCount; id++ {
		dev.freeBitmap.Set(id)
	}
	for id := layout.InodeTableStartBlock; id < layout.InodeTableStartBlock+layout.InodeTableBlocks; id++ {
		dev.freeBitmap.Set(id)
	}
	// Block ids in [ReservedBlockIDStart, BlockCount) are never marked here:
	// their bits in the free bitmap are the inode allocation bitmap's own
	// storage (see FreeBitmapRawBytes), and must start clear so that inode 0
	// reads as free. Allocate, Request, Release, Read, Write, and the used/
	// free counts all stay below ReservedBlockIDStart so these bits are
	// never interpreted as block-occupancy state.

	if err := dev.flushFBMBlocks(); err != nil {
		return nil, err
	}
	return dev, nil
}

func newFromExisting(stream io.ReadWriteSeeker, closer io.Closer) (*Device, error) {
	dev := &Device{
		stream:      stream,
		closer:      closer,
		fbmBlockBuf: make([]byte, layout.FBMBlockCount*layout.BlockSize),
	}
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return nil, diskoerrors.ErrIOFailed.WrapError(err)
	}
	if _, err := io.ReadFull(stream, dev.fbmBlockBuf); err != nil {
		return nil, diskoerrors.ErrIOFailed.WrapError(err)
	}
	dev.freeBitmap = bitmap.NewOverlay(dev.fbmBlockBuf[:layout.FBMBytes], layout.BlockCount)
	return dev, nil
}

func (d *Device) flushFBMBlocks() error {
	if _, err := d.stream.Seek(0, io.SeekStart); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	if _, err := d.stream.Write(d.fbmBlockBuf); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// FreeBitmapRawBytes exposes the 32-byte tail of the free-block bitmap's
// storage that backs the inode allocation bitmap overlay. Block ids at or
// past layout.ReservedBlockIDStart are never handed out by Allocate, so
// these bytes are free for inode.Table to use as its own allocation state
// without colliding with block occupancy.
func (d *Device) FreeBitmapRawBytes() []byte {
	return d.fbmBlockBuf[layout.InodeBitmapOffset : layout.InodeBitmapOffset+layout.InodeBitmapBytes]
}

// Allocate returns the lowest-indexed free block, marks it used, and
// returns its id. It never hands out a block id at or past
// layout.ReservedBlockIDStart; those bits belong to the inode allocation
// bitmap overlay, not to block occupancy.
func (d *Device) Allocate() (uint16, error) {
	i := d.freeBitmap.FindFirstZeroBefore(layout.ReservedBlockIDStart)
	if i < 0 {
		return 0, diskoerrors.ErrOutOfBlocks
	}
	d.freeBitmap.Set(i)
	if err := d.flushFBMBlocks(); err != nil {
		return 0, err
	}
	return uint16(i), nil
}

// Request marks a specific block used. It fails if the block is already in
// use or out of range.
func (d *Device) Request(id uint16) error {
	if int(id) >= layout.ReservedBlockIDStart {
		return diskoerrors.ErrInvalidArgument.WithMessage("block id out of range")
	}
	if d.freeBitmap.Test(int(id)) {
		return diskoerrors.ErrIOFailed.WithMessage("block already in use")
	}
	d.freeBitmap.Set(int(id))
	return d.flushFBMBlocks()
}

// Release clears the block's used bit. Contents are not zeroed.
func (d *Device) Release(id uint16) error {
	if int(id) >= layout.ReservedBlockIDStart {
		return diskoerrors.ErrInvalidArgument.WithMessage("block id out of range")
	}
	d.freeBitmap.Clear(int(id))
	return d.flushFBMBlocks()
}

// IsUsed reports whether a block's bit is set. Block ids at or past
// layout.ReservedBlockIDStart are never real blocks and always report used.
func (d *Device) IsUsed(id uint16) bool {
	if int(id) >= layout.ReservedBlockIDStart {
		return true
	}
	return d.freeBitmap.Test(int(id))
}

func (d *Device) blockOffset(id uint16) int64 {
	return int64(id) * layout.BlockSize
}

// Read copies one block's worth of bytes into buf, which must be exactly
// layout.BlockSize long. It fails on an out-of-range id or on a block whose
// bit is clear.
func (d *Device) Read(id uint16, buf []byte) error {
	if len(buf) != layout.BlockSize {
		return diskoerrors.ErrInvalidArgument.WithMessage("buffer must be exactly one block")
	}
	if int(id) >= layout.ReservedBlockIDStart {
		return diskoerrors.ErrInvalidArgument.WithMessage("block id out of range")
	}
	if !d.freeBitmap.Test(int(id)) {
		return diskoerrors.ErrIOFailed.WithMessage("read of unallocated block")
	}

	if _, err := d.stream.Seek(d.blockOffset(id), io.SeekStart); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Write copies buf, which must be exactly layout.BlockSize long, into the
// given block. It fails on an out-of-range id or on a block whose bit is
// clear.
func (d *Device) Write(id uint16, buf []byte) error {
	if len(buf) != layout.BlockSize {
		return diskoerrors.ErrInvalidArgument.WithMessage("buffer must be exactly one block")
	}
	if int(id) >= layout.ReservedBlockIDStart {
		return diskoerrors.ErrInvalidArgument.WithMessage("block id out of range")
	}
	if !d.freeBitmap.Test(int(id)) {
		return diskoerrors.ErrIOFailed.WithMessage("write to unallocated block")
	}

	if _, err := d.stream.Seek(d.blockOffset(id), io.SeekStart); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	if _, err := d.stream.Write(buf); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// UsedCount returns the number of blocks currently marked used, counting
// only the allocatable id range below layout.ReservedBlockIDStart; bits at
// or past that point are the inode allocation bitmap's storage; they are
// not block-occupancy state and are unaffected by inode allocation.
func (d *Device) UsedCount() int {
	return d.freeBitmap.PopcountBefore(layout.ReservedBlockIDStart)
}

// FreeCount returns the number of blocks currently marked free within the
// allocatable id range below layout.ReservedBlockIDStart.
func (d *Device) FreeCount() int {
	return layout.ReservedBlockIDStart - d.freeBitmap.PopcountBefore(layout.ReservedBlockIDStart)
}

// TotalCount returns the number of block ids Allocate can ever hand out.
// The ids at or past layout.ReservedBlockIDStart back the inode allocation
// bitmap overlay and are excluded.
func (d *Device) TotalCount() int {
	return layout.ReservedBlockIDStart
}

// Serialize copies the entire live container to a new host file at path.
func (d *Device) Serialize(path string) error {
	if err := d.flushFBMBlocks(); err != nil {
		return err
	}
	if _, err := d.stream.Seek(0, io.SeekStart); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}

	out, err := os.Create(path)
	if err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	defer out.Close()

	if _, err := io.Copy(out, d.stream); err != nil {
		return diskoerrors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Flush writes the in-memory bitmap blocks back to the backing store.
func (d *Device) Flush() error {
	return d.flushFBMBlocks()
}

// Close flushes and releases the backing store, if it owns one.
func (d *Device) Close() error {
	if err := d.flushFBMBlocks(); err != nil {
		return err
	}
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}
