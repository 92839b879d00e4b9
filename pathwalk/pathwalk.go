// Package pathwalk parses absolute paths and walks directory inodes to
// locate the inode a path names, or the parent inode and final component
// name for a path that does not yet exist.
package pathwalk

import (
	"strings"

	diskoerrors "github.com/rmilewski4/diskfs/errors"
	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"golang.org/x/exp/slices"
)

// removeDotComponents strips bare "." components from a split path, the
// same way a caller would expect cd-style self-references to be no-ops.
func removeDotComponents(parts []string) []string {
	for {
		index := slices.Index(parts, ".")
		if index < 0 {
			break
		}
		parts = slices.Delete(parts, index, index+1)
	}
	return slices.Clip(parts)
}

// RootInodeID is the fixed inode slot of the root directory.
const RootInodeID uint8 = 0

// DirEntry is one live record read out of a directory inode's block.
type DirEntry struct {
	Name        string
	InodeNumber uint8
	Slot        int
}

// DirReader is the minimal view pathwalk needs of a mounted volume: read an
// inode by id, and list the live entries of a directory inode.
type DirReader interface {
	ReadInode(id uint8) (inode.RawInode, error)
	ReadDirEntries(dirInode *inode.RawInode) ([]DirEntry, error)
}

// ResolutionKind discriminates the three outcomes Resolve can produce.
type ResolutionKind int

const (
	NotFound ResolutionKind = iota
	Found
	ParentOnly
)

// Resolution is the result of resolving a path.
type Resolution struct {
	Kind ResolutionKind
	// IsRoot is true only for the literal path "/", which names the root
	// inode directly and has no parent or child name.
	IsRoot        bool
	ParentInodeID uint8
	ChildName     string
	ChildInodeID  uint8
}

// splitPath validates and tokenizes an absolute path into its non-empty
// components, per the naming rules in layout (component length, no
// embedded separators).
func splitPath(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, diskoerrors.ErrInvalidArgument.WithMessage("path must be absolute")
	}
	if path == "/" {
		return nil, nil
	}
	if strings.HasSuffix(path, "/") {
		return nil, diskoerrors.ErrInvalidArgument.WithMessage("path must not end with /")
	}

	rawParts := strings.Split(path[1:], "/")
	parts := make([]string, 0, len(rawParts))
	for _, part := range rawParts {
		if part == "" {
			return nil, diskoerrors.ErrInvalidArgument.WithMessage("path component must not be empty")
		}
		if len(part) > layout.FNameMax-1 {
			return nil, diskoerrors.ErrInvalidArgument.WithMessage("path component too long")
		}
		parts = append(parts, part)
	}
	return removeDotComponents(parts), nil
}

// Resolve walks path starting from the root inode, reporting whether it
// names an existing object, or, for the not-yet-existing case that create
// and link need, the parent inode and the name that would be created.
func Resolve(dr DirReader, path string) (Resolution, error) {
	components, err := splitPath(path)
	if err != nil {
		return Resolution{}, err
	}
	if len(components) == 0 {
		return Resolution{Kind: Found, IsRoot: true, ChildInodeID: RootInodeID}, nil
	}

	currentID := RootInodeID
	for _, name := range components[:len(components)-1] {
		currentInode, err := dr.ReadInode(currentID)
		if err != nil {
			return Resolution{Kind: NotFound}, nil
		}
		if !currentInode.IsDirectory() {
			return Resolution{Kind: NotFound}, nil
		}

		entries, err := dr.ReadDirEntries(&currentInode)
		if err != nil {
			return Resolution{}, err
		}

		nextID, found := lookup(entries, name)
		if !found {
			return Resolution{Kind: NotFound}, nil
		}
		currentID = nextID
	}

	finalName := components[len(components)-1]
	parentInode, err := dr.ReadInode(currentID)
	if err != nil {
		return Resolution{Kind: NotFound}, nil
	}
	if !parentInode.IsDirectory() {
		return Resolution{Kind: NotFound}, nil
	}

	entries, err := dr.ReadDirEntries(&parentInode)
	if err != nil {
		return Resolution{}, err
	}

	childID, found := lookup(entries, finalName)
	if !found {
		return Resolution{
			Kind:          ParentOnly,
			ParentInodeID: currentID,
			ChildName:     finalName,
		}, nil
	}

	return Resolution{
		Kind:          Found,
		ParentInodeID: currentID,
		ChildName:     finalName,
		ChildInodeID:  childID,
	}, nil
}

func lookup(entries []DirEntry, name string) (uint8, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e.InodeNumber, true
		}
	}
	return 0, false
}
