// Package layout holds the fixed, bit-exact numeric constants the rest of
// the module builds on. Nothing here is configurable: a container produced
// with one build of this package must be mountable by any other.
package layout

const (
	// BlockSize is the size in bytes of one block.
	BlockSize = 4096
	// BlockCount is the total number of blocks in a container.
	BlockCount = 65536

	// FBMBlockStart is the first block of the free-block bitmap overlay.
	FBMBlockStart = 0
	// FBMBlockCount is how many blocks the free-block bitmap overlay spans.
	FBMBlockCount = 2
	// FBMBytes is the live length of the free-block bitmap: one bit per
	// block in the container, packed across the two FBM blocks with no
	// slack.
	FBMBytes = BlockCount / 8

	// InodeBitmapBytes is the size of the inode allocation bitmap: 256
	// inodes, one bit each.
	InodeBitmapBytes = InodeCount / 8
	// InodeBitmapOffset is the byte offset, within the free-block bitmap's
	// own byte range, where the inode allocation bitmap is aliased. It
	// covers the last InodeBitmapBytes bytes of the FBM, corresponding to
	// the top InodeCount block ids, which are permanently reserved.
	InodeBitmapOffset = FBMBytes - InodeBitmapBytes
	// ReservedBlockIDStart is the first block id permanently reserved to
	// back the inode allocation bitmap overlay. Block ids in
	// [ReservedBlockIDStart, BlockCount) are never handed out by
	// Device.Allocate and never read or written as ordinary blocks; their
	// corresponding free-bitmap bits are the inode allocation bitmap's own
	// storage, not block-occupancy state, and are left clear at format time
	// so inode 0 starts out free.
	ReservedBlockIDStart = BlockCount - InodeCount

	// InodeTableStartBlock is the first block of the inode table.
	InodeTableStartBlock = 2
	// InodeTableBlocks is how many blocks the inode table spans.
	InodeTableBlocks = 4
	// InodeCount is the number of inode slots.
	InodeCount = 256
	// InodeSize is the size in bytes of one inode record.
	InodeSize = 64
	// InodeTableBaseByte is the byte offset of the inode table's first slot
	// within the container.
	InodeTableBaseByte = InodeTableStartBlock * BlockSize

	// FirstDataBlock is the first block id available for file data and
	// index blocks.
	FirstDataBlock = InodeTableStartBlock + InodeTableBlocks

	// FDCount is the maximum number of simultaneously open files.
	FDCount = 256
	// FDSize is the size in bytes of one file-descriptor record.
	FDSize = 6

	// DirEntries is the maximum number of entries in one directory block.
	DirEntries = 31
	// FNameMax is the maximum name length including the terminator.
	FNameMax = 127
	// DirEntrySize is the on-disk size of one directory entry:
	// a FNameMax-byte name plus a 1-byte inode reference.
	DirEntrySize = FNameMax + 1

	// DirectPointers is the number of direct block pointers in an inode.
	DirectPointers = 6
	// PointersPerBlock is how many 16-bit block ids fit in one block,
	// used for both indirect and double-indirect index blocks.
	PointersPerBlock = BlockSize / 2

	// MaxAddressableBlocks is the number of block-relative indices
	// addressable through the direct/indirect/double-indirect tiers; valid
	// indices are below it.
	MaxAddressableBlocks = DirectPointers + PointersPerBlock + PointersPerBlock*PointersPerBlock
	// MaxFileSize is the number of bytes a file's pointer tiers can address;
	// valid byte offsets are below it.
	MaxFileSize = uint64(MaxAddressableBlocks) * BlockSize
)

// FDUsage identifies which pointer tier a descriptor's cursor currently
// addresses.
type FDUsage uint8

const (
	UsageDirect         FDUsage = 1
	UsageIndirect       FDUsage = 2
	UsageDoubleIndirect FDUsage = 4
)

// FileType is the single-byte type discriminant stored in an inode.
type FileType byte

const (
	FileTypeRegular   FileType = 'r'
	FileTypeDirectory FileType = 'd'
)

// SeekWhence mirrors the three seek origins the file I/O engine supports.
type SeekWhence int

const (
	SeekSet SeekWhence = iota
	SeekCur
	SeekEnd
)
