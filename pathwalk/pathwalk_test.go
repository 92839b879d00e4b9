package pathwalk_test

import (
	"testing"

	"github.com/rmilewski4/diskfs/inode"
	"github.com/rmilewski4/diskfs/layout"
	"github.com/rmilewski4/diskfs/pathwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVolume is a minimal in-memory DirReader for exercising Resolve
// without a real block device.
type fakeVolume struct {
	inodes  map[uint8]inode.RawInode
	entries map[uint8][]pathwalk.DirEntry
}

func newFakeVolume() *fakeVolume {
	root := inode.RawInode{FileType: byte(layout.FileTypeDirectory), LinkCount: 1}
	return &fakeVolume{
		inodes:  map[uint8]inode.RawInode{0: root},
		entries: map[uint8][]pathwalk.DirEntry{0: {}},
	}
}

func (f *fakeVolume) ReadInode(id uint8) (inode.RawInode, error) {
	return f.inodes[id], nil
}

func (f *fakeVolume) ReadDirEntries(dirInode *inode.RawInode) ([]pathwalk.DirEntry, error) {
	return f.entries[dirInode.InodeNumber], nil
}

func (f *fakeVolume) addDir(parent uint8, name string, id uint8) {
	dir := inode.RawInode{FileType: byte(layout.FileTypeDirectory), InodeNumber: id, LinkCount: 1}
	f.inodes[id] = dir
	f.entries[id] = []pathwalk.DirEntry{}
	f.entries[parent] = append(f.entries[parent], pathwalk.DirEntry{Name: name, InodeNumber: id})
}

func (f *fakeVolume) addFile(parent uint8, name string, id uint8) {
	file := inode.RawInode{FileType: byte(layout.FileTypeRegular), InodeNumber: id, LinkCount: 1}
	f.inodes[id] = file
	f.entries[parent] = append(f.entries[parent], pathwalk.DirEntry{Name: name, InodeNumber: id})
}

func TestResolve__Root(t *testing.T) {
	fv := newFakeVolume()
	res, err := pathwalk.Resolve(fv, "/")
	require.NoError(t, err)
	assert.True(t, res.IsRoot)
	assert.Equal(t, pathwalk.Found, res.Kind)
	assert.Equal(t, pathwalk.RootInodeID, res.ChildInodeID)
}

func TestResolve__FoundTopLevelFile(t *testing.T) {
	fv := newFakeVolume()
	fv.addFile(0, "a", 1)

	res, err := pathwalk.Resolve(fv, "/a")
	require.NoError(t, err)
	assert.Equal(t, pathwalk.Found, res.Kind)
	assert.EqualValues(t, 1, res.ChildInodeID)
	assert.Equal(t, "a", res.ChildName)
}

func TestResolve__ParentOnlyForNewName(t *testing.T) {
	fv := newFakeVolume()
	res, err := pathwalk.Resolve(fv, "/newfile")
	require.NoError(t, err)
	assert.Equal(t, pathwalk.ParentOnly, res.Kind)
	assert.Equal(t, pathwalk.RootInodeID, res.ParentInodeID)
	assert.Equal(t, "newfile", res.ChildName)
}

func TestResolve__NestedDirectory(t *testing.T) {
	fv := newFakeVolume()
	fv.addDir(0, "d", 1)
	fv.addFile(1, "x", 2)

	res, err := pathwalk.Resolve(fv, "/d/x")
	require.NoError(t, err)
	assert.Equal(t, pathwalk.Found, res.Kind)
	assert.EqualValues(t, 2, res.ChildInodeID)
}

func TestResolve__IntermediateNotFoundMeansNotFound(t *testing.T) {
	fv := newFakeVolume()
	res, err := pathwalk.Resolve(fv, "/nope/x")
	require.NoError(t, err)
	assert.Equal(t, pathwalk.NotFound, res.Kind)
}

func TestResolve__IntermediateIsRegularFileMeansNotFound(t *testing.T) {
	fv := newFakeVolume()
	fv.addFile(0, "f", 1)

	res, err := pathwalk.Resolve(fv, "/f/x")
	require.NoError(t, err)
	assert.Equal(t, pathwalk.NotFound, res.Kind)
}

func TestResolve__TrailingSlashIsInvalid(t *testing.T) {
	fv := newFakeVolume()
	_, err := pathwalk.Resolve(fv, "/d/")
	assert.Error(t, err)
}

func TestResolve__RelativePathIsInvalid(t *testing.T) {
	fv := newFakeVolume()
	_, err := pathwalk.Resolve(fv, "relative/path")
	assert.Error(t, err)
}

func TestResolve__ComponentTooLongIsInvalid(t *testing.T) {
	fv := newFakeVolume()
	longName := make([]byte, layout.FNameMax)
	for i := range longName {
		longName[i] = 'a'
	}
	_, err := pathwalk.Resolve(fv, "/"+string(longName))
	assert.Error(t, err)
}

func TestResolve__DotComponentIsNoOp(t *testing.T) {
	fv := newFakeVolume()
	fv.addFile(0, "a", 1)

	res, err := pathwalk.Resolve(fv, "/./a")
	require.NoError(t, err)
	assert.Equal(t, pathwalk.Found, res.Kind)
	assert.EqualValues(t, 1, res.ChildInodeID)
}
