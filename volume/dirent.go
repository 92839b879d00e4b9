package volume

import (
	"bytes"

	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/rmilewski4/diskfs/pathwalk"
)

func encodeDirent(name string, inodeNumber uint8) [layout.DirEntrySize]byte {
	var out [layout.DirEntrySize]byte
	copy(out[:layout.FNameMax], name)
	out[layout.FNameMax] = inodeNumber
	return out
}

func decodeDirent(raw []byte) (string, uint8) {
	nameBytes := raw[:layout.FNameMax]
	end := bytes.IndexByte(nameBytes, 0)
	if end < 0 {
		end = len(nameBytes)
	}
	return string(nameBytes[:end]), raw[layout.FNameMax]
}

// slotOffset returns the byte offset of directory slot i within its
// directory block.
func slotOffset(i int) int {
	return i * layout.DirEntrySize
}

// decodeLiveEntries reads every directory slot whose bit is set in
// vacantFile out of a raw directory block.
func decodeLiveEntries(vacantFile uint32, block []byte) []pathwalk.DirEntry {
	entries := make([]pathwalk.DirEntry, 0, layout.DirEntries)
	for i := 0; i < layout.DirEntries; i++ {
		if vacantFile&(1<<uint(i)) == 0 {
			continue
		}
		off := slotOffset(i)
		name, inodeNum := decodeDirent(block[off : off+layout.DirEntrySize])
		entries = append(entries, pathwalk.DirEntry{Name: name, InodeNumber: inodeNum, Slot: i})
	}
	return entries
}

// findFreeSlot returns the lowest directory slot not marked live in
// vacantFile, or an error if all layout.DirEntries slots are occupied.
func findFreeSlot(vacantFile uint32) (int, error) {
	for i := 0; i < layout.DirEntries; i++ {
		if vacantFile&(1<<uint(i)) == 0 {
			return i, nil
		}
	}
	return 0, diskoerrors.ErrDirectoryFull
}
