package objwriter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/require"

	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/storagemode"
)

func newWriter(t *testing.T, mode storagemode.Mode) *Writer {
	t.Helper()
	root := t.TempDir()
	objectsDir := filepath.Join(root, "objects")
	tmpDir := filepath.Join(root, "tmp")
	require.NoError(t, os.Mkdir(objectsDir, 0o755))
	require.NoError(t, os.Mkdir(tmpDir, 0o755))
	return &Writer{ObjectsDir: objectsDir, TmpDir: tmpDir, Mode: mode}
}

func encodeRegular(t *testing.T, body []byte, mode uint32) []byte {
	t.Helper()
	header, err := objects.HeaderBytes(objects.FileAttr{
		Mode: mode,
		Type: objects.RegularFile,
		Size: uint64(len(body)),
	})
	require.NoError(t, err)
	return append(header, body...)
}

func encodeSymlink(t *testing.T, target string) []byte {
	t.Helper()
	header, err := objects.HeaderBytes(objects.FileAttr{
		Mode:          0o777,
		Type:          objects.SymlinkFile,
		SymlinkTarget: target,
	})
	require.NoError(t, err)
	return header
}

// Writing a FILE under ARCHIVE mode produces a header followed by
// raw-deflate(body); reading the header back, inflating the remainder, and
// re-encoding yields the same checksum as the original canonical form
// (spec.md §8 "Round-trips": ARCHIVE write + decompress yields the same
// checksum).
func TestArchiveFileRoundTrip(t *testing.T) {
	w := newWriter(t, storagemode.Archive)
	body := []byte("hello archive world")
	encoded := encodeRegular(t, body, 0o644)
	expected := objects.Sum(encoded)

	res, err := w.Write(objects.FileKind, nil, bytes.NewReader(encoded), int64(len(body)), true)
	require.NoError(t, err)
	require.Equal(t, expected, res.Checksum)

	objPath := filepath.Join(w.ObjectsDir, res.Checksum.Prefix(), res.Checksum.Rest()+".filez")
	f, err := os.Open(objPath)
	require.NoError(t, err)
	defer f.Close()

	attr, err := objects.ReadFileHeader(f)
	require.NoError(t, err)
	require.Equal(t, objects.RegularFile, attr.Type)

	zr := flate.NewReader(f)
	decompressed, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, body, decompressed)

	headerBytes, err := objects.HeaderBytes(attr)
	require.NoError(t, err)
	reEncoded := append(headerBytes, decompressed...)
	require.Equal(t, expected, objects.Sum(reEncoded))
}

// A symlink whose target is the empty string writes successfully under
// BARE mode (spec.md §8 boundary behavior).
func TestBareEmptyTargetSymlink(t *testing.T) {
	w := newWriter(t, storagemode.Bare)
	encoded := encodeSymlink(t, "")
	expected := objects.Sum(encoded)

	res, err := w.Write(objects.FileKind, nil, bytes.NewReader(encoded), 0, true)
	require.NoError(t, err)
	require.Equal(t, expected, res.Checksum)

	objPath := filepath.Join(w.ObjectsDir, res.Checksum.Prefix(), res.Checksum.Rest()+".file")
	target, err := os.Readlink(objPath)
	require.NoError(t, err)
	require.Equal(t, "", target)
}

// Duplicate tolerance at the writer level: writing the same bytes twice
// yields the same checksum and exactly one object file, the second call
// reporting Placed=false.
func TestWriteDuplicateIsNotRewritten(t *testing.T) {
	w := newWriter(t, storagemode.Bare)
	encoded := encodeRegular(t, []byte("hi"), 0o644)

	res1, err := w.Write(objects.FileKind, nil, bytes.NewReader(encoded), 2, true)
	require.NoError(t, err)
	require.True(t, res1.Placed)

	res2, err := w.Write(objects.FileKind, nil, bytes.NewReader(encoded), 2, true)
	require.NoError(t, err)
	require.False(t, res2.Placed)
	require.Equal(t, res1.Checksum, res2.Checksum)
}

// A hash mismatch on a verified write (expected checksum supplied and the
// actual one computed) is reported as an error and leaves neither a placed
// object nor a temp file behind.
func TestWriteHashMismatchLeavesNoObject(t *testing.T) {
	w := newWriter(t, storagemode.Bare)
	encoded := encodeRegular(t, []byte("hi"), 0o644)
	var wrong objects.Checksum
	wrong[0] = 0xff

	_, err := w.Write(objects.FileKind, &wrong, bytes.NewReader(encoded), 2, true)
	require.Error(t, err)

	entries, err := os.ReadDir(w.TmpDir)
	require.NoError(t, err)
	require.Empty(t, entries)

	objEntries, err := os.ReadDir(w.ObjectsDir)
	require.NoError(t, err)
	require.Empty(t, objEntries)
}

// The fast path (step 1): if the expected checksum's object already exists,
// Write returns success without even reading the input.
func TestWriteFastPathSkipsRead(t *testing.T) {
	w := newWriter(t, storagemode.Bare)
	encoded := encodeRegular(t, []byte("hi"), 0o644)
	expected := objects.Sum(encoded)

	res1, err := w.Write(objects.FileKind, &expected, bytes.NewReader(encoded), 2, false)
	require.NoError(t, err)
	require.True(t, res1.Placed)

	res2, err := w.Write(objects.FileKind, &expected, explodingReader{}, 2, false)
	require.NoError(t, err)
	require.False(t, res2.Placed)
	require.Equal(t, expected, res2.Checksum)
}

type explodingReader struct{}

func (explodingReader) Read([]byte) (int, error) {
	panic("should not be read: fast path must skip it")
}
