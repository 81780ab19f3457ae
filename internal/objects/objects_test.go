package objects

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// Round-trip: writing a COMMIT then parsing it back recovers the original
// fields (spec.md §8 "Round-trips").
func TestCommitRoundTrip(t *testing.T) {
	var parent Checksum
	parent[0] = 0xaa
	var rootTree, rootMeta Checksum
	rootTree[0] = 0x11
	rootMeta[0] = 0x22

	c := Commit{
		Parent:       parent,
		HasParent:    true,
		Subject:      "a subject",
		Body:         "a body\nwith newlines",
		EpochSeconds: 1_700_000_000,
		RootTreeCsum: rootTree,
		RootMetaCsum: rootMeta,
	}
	encoded, err := c.Encode()
	require.NoError(t, err)

	decoded, err := DecodeCommit(encoded)
	require.NoError(t, err)
	require.Equal(t, c.Parent, decoded.Parent)
	require.True(t, decoded.HasParent)
	require.Equal(t, c.Subject, decoded.Subject)
	require.Equal(t, c.Body, decoded.Body)
	require.Equal(t, c.EpochSeconds, decoded.EpochSeconds)
	require.Equal(t, c.RootTreeCsum, decoded.RootTreeCsum)
	require.Equal(t, c.RootMetaCsum, decoded.RootMetaCsum)
	require.Empty(t, decoded.Signatures)
}

// A COMMIT with no parent round-trips HasParent=false.
func TestCommitRoundTripNoParent(t *testing.T) {
	c := Commit{Subject: "init", Body: ""}
	encoded, err := c.Encode()
	require.NoError(t, err)
	decoded, err := DecodeCommit(encoded)
	require.NoError(t, err)
	require.False(t, decoded.HasParent)
	require.True(t, decoded.Parent.IsZero())
}

// Determinism of trees: two DirTree values built from the same multisets of
// entries but inserted in different orders produce byte-identical encodings
// (spec.md §8 "Determinism of trees").
func TestDirTreeEncodeIsOrderIndependent(t *testing.T) {
	var c1, c2, c3 Checksum
	c1[0], c2[0], c3[0] = 1, 2, 3

	a := DirTree{
		Files: []DirTreeFile{{Name: "b", Checksum: c2}, {Name: "a", Checksum: c1}},
		Dirs:  []DirTreeDir{{Name: "z", TreeChecksum: c3, MetaChecksum: c1}},
	}
	b := DirTree{
		Files: []DirTreeFile{{Name: "a", Checksum: c1}, {Name: "b", Checksum: c2}},
		Dirs:  []DirTreeDir{{Name: "z", TreeChecksum: c3, MetaChecksum: c1}},
	}

	encA, err := a.Encode()
	require.NoError(t, err)
	encB, err := b.Encode()
	require.NoError(t, err)
	require.Equal(t, encA, encB)
}

// Boundary: an empty directory tree is ([],[]) and reproducible.
func TestEmptyDirTreeChecksumIsFixed(t *testing.T) {
	encoded, err := DirTree{}.Encode()
	require.NoError(t, err)
	// Two zero uint32 counts: eight zero bytes.
	require.Equal(t, "af5570f5a1810b7af78caf4bc70a660f0df51e42baf91d4de5b2328de0e83dfc", Sum(encoded).Hex())
	decoded, err := DecodeDirTree(encoded)
	require.NoError(t, err)
	require.Empty(t, decoded.Files)
	require.Empty(t, decoded.Dirs)
}

// Filenames with non-UTF8/control bytes are preserved byte-for-byte.
func TestDirTreeRoundTripPreservesRawNames(t *testing.T) {
	var c Checksum
	c[0] = 0x42
	weird := string([]byte{0x00, 0xff, '\n', 'a'})
	tree := DirTree{Files: []DirTreeFile{{Name: weird, Checksum: c}}}
	encoded, err := tree.Encode()
	require.NoError(t, err)
	decoded, err := DecodeDirTree(encoded)
	require.NoError(t, err)
	require.Equal(t, weird, decoded.Files[0].Name)
}

// FILE header round-trip for a symlink whose target is the empty string
// (spec.md §8 boundary behavior).
func TestFileHeaderRoundTripEmptySymlinkTarget(t *testing.T) {
	attr := FileAttr{Mode: 0o777, Type: SymlinkFile, SymlinkTarget: ""}
	encoded, err := HeaderBytes(attr)
	require.NoError(t, err)
	decoded, err := ReadFileHeader(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, SymlinkFile, decoded.Type)
	require.Equal(t, "", decoded.SymlinkTarget)
}

func TestChecksumPrefixRest(t *testing.T) {
	c, err := ParseChecksum("00112233445566778899aabbccddeeff0011223344556677889900aabbccddab")
	require.NoError(t, err)
	require.Equal(t, "00", c.Prefix())
	require.Equal(t, "112233445566778899aabbccddeeff0011223344556677889900aabbccddab", c.Rest())
}
