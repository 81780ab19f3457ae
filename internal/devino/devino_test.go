package devino

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/posixattr"
	"github.com/imgrepo/imgrepo/internal/storagemode"
)

// Build scans a BARE objects/ tree and records (device,inode) -> checksum
// for each eligible loose FILE object; Lookup then resolves a lstat of that
// same object file to its checksum (spec.md §4.3).
func TestBuildAndLookup(t *testing.T) {
	root := t.TempDir()
	objectsDir := filepath.Join(root, "objects")
	prefix := "ab"
	stem := strings.Repeat("0", 62)
	require.Len(t, stem, 62)
	require.NoError(t, os.MkdirAll(filepath.Join(objectsDir, prefix), 0o755))
	objPath := filepath.Join(objectsDir, prefix, stem+".file")
	require.NoError(t, os.WriteFile(objPath, []byte("body"), 0o644))

	c := New(storagemode.Bare)
	require.NoError(t, c.Build(objectsDir))

	info, err := posixattr.Lstat(objPath)
	require.NoError(t, err)

	csum, ok := c.Lookup(info)
	require.True(t, ok)
	want, err := objects.ParseChecksum(prefix + stem)
	require.NoError(t, err)
	require.Equal(t, want, csum)
}

// Two different source files that share (dev,ino) with a stored object
// (i.e. the same file looked up twice) both resolve to the same checksum.
func TestLookupIsStableAcrossCalls(t *testing.T) {
	root := t.TempDir()
	objectsDir := filepath.Join(root, "objects")
	prefix := "cd"
	stem := strings.Repeat("1", 62)
	require.NoError(t, os.MkdirAll(filepath.Join(objectsDir, prefix), 0o755))
	objPath := filepath.Join(objectsDir, prefix, stem+".file")
	require.NoError(t, os.WriteFile(objPath, []byte("x"), 0o644))

	c := New(storagemode.Bare)
	require.NoError(t, c.Build(objectsDir))

	info1, err := posixattr.Lstat(objPath)
	require.NoError(t, err)
	info2, err := posixattr.Lstat(objPath)
	require.NoError(t, err)

	csum1, ok1 := c.Lookup(info1)
	csum2, ok2 := c.Lookup(info2)
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, csum1, csum2)
}

// A lookup miss (unseen device/inode) is reported as not-found, never fatal.
func TestLookupMiss(t *testing.T) {
	c := New(storagemode.Bare)
	_, ok := c.Lookup(posixattr.Info{DeviceKnown: true, Device: 999, Inode: 999})
	require.False(t, ok)
}

// Build ignores object files whose suffix doesn't match the current storage
// mode (e.g. a .filez entry while scanning in BARE mode).
func TestBuildIgnoresMismatchedSuffix(t *testing.T) {
	root := t.TempDir()
	objectsDir := filepath.Join(root, "objects")
	prefix := "ef"
	stem := strings.Repeat("2", 62)
	require.NoError(t, os.MkdirAll(filepath.Join(objectsDir, prefix), 0o755))
	objPath := filepath.Join(objectsDir, prefix, stem+".filez")
	require.NoError(t, os.WriteFile(objPath, []byte("z"), 0o644))

	c := New(storagemode.Bare)
	require.NoError(t, c.Build(objectsDir))

	info, err := posixattr.Lstat(objPath)
	require.NoError(t, err)
	_, ok := c.Lookup(info)
	require.False(t, ok)
}

// Build on a nonexistent objects dir is a no-op, not an error (a fresh
// transaction before any object is ever written).
func TestBuildOnMissingObjectsDir(t *testing.T) {
	c := New(storagemode.Bare)
	require.NoError(t, c.Build(filepath.Join(t.TempDir(), "does-not-exist")))
}
