package repo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imgrepo/imgrepo/internal/mtree"
	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/posixattr"
	"github.com/imgrepo/imgrepo/internal/repoerr"
	"github.com/imgrepo/imgrepo/internal/storagemode"
)

// encodeFile builds the canonical FILE-object input stream (header +
// payload) that write_content/write_content_trusted expect, mirroring what
// internal/mtree's walker assembles for a regular file with mode 0644 and
// no owner/xattrs (spec.md §4.2 step 3 / §6 "FILE raw").
func encodeFile(t *testing.T, body []byte) []byte {
	t.Helper()
	header, err := objects.HeaderBytes(objects.FileAttr{
		Mode: 0o644,
		Type: objects.RegularFile,
		Size: uint64(len(body)),
	})
	require.NoError(t, err)
	return append(header, body...)
}

// Scenario 1 (spec.md §8): prepare then abort leaves a clean slate.
func TestPrepareThenAbort(t *testing.T) {
	r, err := Init(t.TempDir(), storagemode.Bare, nil)
	require.NoError(t, err)

	resumed, err := r.Prepare()
	require.NoError(t, err)
	require.False(t, resumed)
	require.True(t, r.Txn.InTransaction())

	require.NoError(t, r.Abort())
	require.False(t, r.Txn.InTransaction())

	_, err = os.Lstat(filepath.Join(r.Root, "transaction"))
	require.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Join(r.Root, "tmp"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

// Scenario 2: a trusted write of the same bytes twice places exactly one
// object and reports the duplicate in stats.
func TestWriteContentTrustedDuplicate(t *testing.T) {
	r, err := Init(t.TempDir(), storagemode.Bare, nil)
	require.NoError(t, err)
	_, err = r.Prepare()
	require.NoError(t, err)

	body := []byte("hello\n")
	encoded := encodeFile(t, body)
	expected := objects.Sum(encoded)

	c1, err := r.WriteContentTrusted(expected, bytes.NewReader(encoded), int64(len(body)))
	require.NoError(t, err)
	c2, err := r.WriteContentTrusted(expected, bytes.NewReader(encoded), int64(len(body)))
	require.NoError(t, err)
	require.Equal(t, c1, c2)

	objPath := filepath.Join(r.Root, "objects", c1.Prefix(), c1.Rest()+".file")
	_, err = os.Lstat(objPath)
	require.NoError(t, err)

	stats, err := r.Commit()
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.ContentObjectsTotal)
	require.EqualValues(t, 1, stats.ContentObjectsWritten)
	require.EqualValues(t, len(body), stats.ContentBytesWritten)
}

// Scenario 3: a hash mismatch on write_content is reported as Corrupt and
// leaves no object and an empty tmp/.
func TestWriteContentHashMismatch(t *testing.T) {
	r, err := Init(t.TempDir(), storagemode.Bare, nil)
	require.NoError(t, err)
	_, err = r.Prepare()
	require.NoError(t, err)

	wrong := objects.Checksum{0xde, 0xad, 0xbe, 0xef}
	encoded := encodeFile(t, []byte("hi"))

	_, werr := r.WriteContentVerified(wrong, bytes.NewReader(encoded), 2)
	require.Error(t, werr)
	var corrupt *repoerr.Corrupt
	require.ErrorAs(t, werr, &corrupt)
	require.Equal(t, wrong.Hex(), corrupt.Expected)

	entries, err := os.ReadDir(filepath.Join(r.Root, "tmp"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

// WriteContentVerified succeeds and places exactly one object when the
// caller's expected checksum is actually correct.
func TestWriteContentVerifiedSucceeds(t *testing.T) {
	r, err := Init(t.TempDir(), storagemode.Bare, nil)
	require.NoError(t, err)
	_, err = r.Prepare()
	require.NoError(t, err)

	body := []byte("verified body")
	encoded := encodeFile(t, body)
	expected := objects.Sum(encoded)

	got, err := r.WriteContentVerified(expected, bytes.NewReader(encoded), int64(len(body)))
	require.NoError(t, err)
	require.Equal(t, expected, got)

	objPath := filepath.Join(r.Root, "objects", got.Prefix(), got.Rest()+".file")
	_, err = os.Lstat(objPath)
	require.NoError(t, err)

	stats, err := r.Commit()
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.ContentObjectsWritten)
}

// Scenario 4: an empty-subdirectory tree commit is reproducible across a
// fresh repository.
func TestEmptyTreeCommitIsReproducible(t *testing.T) {
	build := func() (tree, meta, commit objects.Checksum) {
		r, err := Init(t.TempDir(), storagemode.Bare, nil)
		require.NoError(t, err)
		_, err = r.Prepare()
		require.NoError(t, err)

		srcDir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(srcDir, "a"), 0o755))

		root, err := r.IngestDirectory(srcDir, nil)
		require.NoError(t, err)

		rootTree, err := r.WriteMtree(root)
		require.NoError(t, err)

		c, err := r.WriteCommit(nil, "init", "", rootTree, root.MetaChecksum)
		require.NoError(t, err)

		_, err = r.Commit()
		require.NoError(t, err)
		return rootTree, root.MetaChecksum, c
	}

	t1, m1, c1 := build()
	t2, m2, c2 := build()
	require.Equal(t, t1, t2)
	require.Equal(t, m1, m2)
	require.Equal(t, c1, c2)
}

// Scenario 5: a stale transaction marker and leftover tmp/ files are
// reported as resumed and tmp/ is emptied regardless of prior contents.
func TestPrepareResumesAfterCrash(t *testing.T) {
	root := t.TempDir()
	r, err := Init(root, storagemode.Bare, nil)
	require.NoError(t, err)

	// Simulate a crash: leave the symlink marker and an orphan temp file.
	require.NoError(t, os.Symlink("pid=99999", filepath.Join(root, "transaction")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tmp", "orphan"), []byte("x"), 0o644))

	resumed, err := r.Prepare()
	require.NoError(t, err)
	require.True(t, resumed)

	stats, err := r.Commit()
	require.NoError(t, err)
	require.Zero(t, stats.ContentObjectsTotal)

	entries, err := os.ReadDir(filepath.Join(root, "tmp"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

// Scenario 6: a filter that skips subdirectory /b means its file never
// gets hashed, and exactly one content write is recorded.
func TestFilterSkipsSubdirectory(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a"), []byte("a-body"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(srcDir, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "b", "c"), []byte("c-body"), 0o644))

	r, err := Init(t.TempDir(), storagemode.Bare, nil)
	require.NoError(t, err)
	_, err = r.Prepare()
	require.NoError(t, err)

	modifier := &mtree.Modifier{
		Filter: func(absPath string, info posixattr.Info) (mtree.FilterResult, posixattr.Info) {
			if absPath == "/b" {
				return mtree.Skip, info
			}
			return mtree.Allow, info
		},
	}

	root, err := r.IngestDirectory(srcDir, modifier)
	require.NoError(t, err)

	_, hasA := root.Lookup("a")
	require.True(t, hasA)
	require.Empty(t, root.SubdirNames())

	stats, err := r.Commit()
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.ContentObjectsWritten)
}
