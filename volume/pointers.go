package volume

import "github.com/rmilewski4/diskfs/layout"

// blockReader is the minimal read-only view of the block device that
// readPointers needs.
type blockReader interface {
	Read(id uint16, buf []byte) error
}

// readPointers decodes an index block's layout.PointersPerBlock 16-bit
// little-endian block ids.
func readPointers(r blockReader, blockID uint16) ([]uint16, error) {
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
