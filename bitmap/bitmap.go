// Package bitmap implements a fixed-capacity bit vector that can either own
// its storage or be overlaid on bytes supplied by a caller, so the bitmap's
// bytes can live inside a block belonging to something else.
package bitmap

import (
	"math/bits"

	gobitmap "github.com/boljen/go-bitmap"
)

// Bitmap is a fixed-capacity bit vector. Bits are packed LSB-first within
// each byte; bytes are ordered by ascending bit position, matching
// github.com/boljen/go-bitmap's layout.
type Bitmap struct {
	bits gobitmap.Bitmap
	size int
}

// New allocates an owned bitmap with room for size bits, all initially
// clear.
func New(size int) Bitmap {
	return Bitmap{bits: make(gobitmap.Bitmap, (size+7)/8), size: size}
}

// NewOverlay wraps existing storage as a bitmap addressing size bits.
// Modifications through the returned Bitmap are visible through data, and
// vice versa. data must have at least (size+7)/8 bytes.
func NewOverlay(data []byte, size int) Bitmap {
	return Bitmap{bits: gobitmap.Bitmap(data), size: size}
}

// Bytes returns the backing storage. For an overlay bitmap this is the
// same slice the caller supplied to NewOverlay.
func (b Bitmap) Bytes() []byte {
	return b.bits
}

// CapacityBits returns the number of addressable bits.
func (b Bitmap) CapacityBits() int {
	return b.size
}

// CapacityBytes returns the number of bytes backing the bitmap.
func (b Bitmap) CapacityBytes() int {
	return len(b.bits)
}

// Test reports whether bit i is set.
func (b Bitmap) Test(i int) bool {
	return b.bits.Get(i)
}

// Set sets bit i.
func (b Bitmap) Set(i int) {
	b.bits.Set(i, true)
}

// Clear clears bit i.
func (b Bitmap) Clear(i int) {
	b.bits.Set(i, false)
}

// FindFirstZero returns the index of the lowest clear bit, or -1 if every
// bit is set.
func (b Bitmap) FindFirstZero() int {
	return b.FindFirstZeroBefore(b.size)
}

// FindFirstZeroBefore returns the index of the lowest clear bit in [0,
// limit), or -1 if every bit in that range is set. Use this to keep a scan
// from touching bits beyond limit that the bitmap's storage happens to
// share with something else.
func (b Bitmap) FindFirstZeroBefore(limit int) int {
	if limit > b.size {
		limit = b.size
	}
	for i := 0; i < limit; i++ {
		if !b.bits.Get(i) {
			return i
		}
	}
	return -1
}

// FindFirstSet returns the index of the lowest set bit, or -1 if every bit
// is clear.
func (b Bitmap) FindFirstSet() int {
	for i := 0; i < b.size; i++ {
		if b.bits.Get(i) {
			return i
		}
	}
	return -1
}

// Popcount returns the number of set bits.
func (b Bitmap) Popcount() int {
	return b.PopcountBefore(b.size)
}

// PopcountBefore returns the number of set bits in [0, limit), for counting
// occupancy over a sub-range of a bitmap whose remaining bits serve another
// purpose.
func (b Bitmap) PopcountBefore(limit int) int {
	if limit > b.size {
		limit = b.size
	}
	count := 0
	fullBytes := limit / 8
	for _, by := range b.bits[:fullBytes] {
		count += bits.OnesCount8(by)
	}
	for i := fullBytes * 8; i < limit; i++ {
		if b.bits.Get(i) {
			count++
		}
	}
	return count
}
