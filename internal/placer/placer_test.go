package placer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupDirs(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	objectsDir := filepath.Join(root, "objects")
	tmpDir := filepath.Join(root, "tmp")
	require.NoError(t, os.Mkdir(objectsDir, 0o755))
	require.NoError(t, os.Mkdir(tmpDir, 0o755))
	return objectsDir, tmpDir
}

func writeTemp(t *testing.T, tmpDir, name, body string) string {
	t.Helper()
	path := filepath.Join(tmpDir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// Placing a new object creates the prefix directory and the final file.
func TestPlaceCreatesPrefixDirAndFile(t *testing.T) {
	objectsDir, tmpDir := setupDirs(t)
	tmp := writeTemp(t, tmpDir, "tmp-1", "hello")

	require.NoError(t, Place(objectsDir, "ab", "cdef", "file", tmp))

	final := filepath.Join(objectsDir, "ab", "cdef.file")
	body, err := os.ReadFile(final)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))

	_, err = os.Lstat(tmp)
	require.True(t, os.IsNotExist(err))
}

// Duplicate tolerance: placing a second temp file at a destination that
// already exists unlinks the loser's temp and reports success, leaving a
// single object file with the first writer's content (spec.md §4.1 step 3).
func TestPlaceDuplicateDestinationIsTolerated(t *testing.T) {
	objectsDir, tmpDir := setupDirs(t)

	first := writeTemp(t, tmpDir, "tmp-1", "winner")
	require.NoError(t, Place(objectsDir, "ab", "cdef", "file", first))

	second := writeTemp(t, tmpDir, "tmp-2", "loser")
	require.NoError(t, Place(objectsDir, "ab", "cdef", "file", second))

	_, err := os.Lstat(second)
	require.True(t, os.IsNotExist(err), "loser temp should be unlinked")

	final := filepath.Join(objectsDir, "ab", "cdef.file")
	body, err := os.ReadFile(final)
	require.NoError(t, err)
	require.Equal(t, "winner", string(body))
}

// A prefix directory that already exists (created by a prior placement) is
// not an error on a second placement under the same prefix.
func TestPlaceReusesExistingPrefixDir(t *testing.T) {
	objectsDir, tmpDir := setupDirs(t)

	t1 := writeTemp(t, tmpDir, "tmp-1", "one")
	require.NoError(t, Place(objectsDir, "ab", "1111", "file", t1))

	t2 := writeTemp(t, tmpDir, "tmp-2", "two")
	require.NoError(t, Place(objectsDir, "ab", "2222", "file", t2))

	b1, err := os.ReadFile(filepath.Join(objectsDir, "ab", "1111.file"))
	require.NoError(t, err)
	require.Equal(t, "one", string(b1))
	b2, err := os.ReadFile(filepath.Join(objectsDir, "ab", "2222.file"))
	require.NoError(t, err)
	require.Equal(t, "two", string(b2))
}
