package txn

import (
	"bytes"
	"io"
	"time"

	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/repoerr"
)

// WriteMetadata writes an untrusted DIR_META or DIR_TREE object: the
// caller does not know the checksum ahead of time, so the writer computes
// it from the stream (spec.md §6 "write_metadata").
func (m *Manager) WriteMetadata(kind objects.Kind, input io.Reader, length int64) (objects.Checksum, error) {
	if err := m.requireInTransaction("write_metadata"); err != nil {
		return objects.Checksum{}, err
	}
	res, err := m.Writer.Write(kind, nil, input, length, true)
	if err != nil {
		return objects.Checksum{}, err
	}
	m.recordWrite(kind, res, length)
	return res.Checksum, nil
}

// WriteMetadataVerified writes a DIR_META or DIR_TREE object, hashing the
// stream and verifying it against expected — a Corrupt error on mismatch,
// matching the optional-expected form spec.md §6 "write_metadata(kind,
// expected?, value)" describes alongside the untrusted variant above and
// the trusted variant below.
func (m *Manager) WriteMetadataVerified(kind objects.Kind, expected objects.Checksum, input io.Reader, length int64) (objects.Checksum, error) {
	if err := m.requireInTransaction("write_metadata_verified"); err != nil {
		return objects.Checksum{}, err
	}
	res, err := m.Writer.Write(kind, &expected, input, length, true)
	if err != nil {
		return objects.Checksum{}, err
	}
	m.recordWrite(kind, res, length)
	return res.Checksum, nil
}

// WriteMetadataTrusted writes a DIR_META or DIR_TREE object whose checksum
// the caller already knows (e.g. replicated from another repository) and
// skips independent verification (spec.md §6 "write_metadata_trusted").
func (m *Manager) WriteMetadataTrusted(kind objects.Kind, expected objects.Checksum, input io.Reader, length int64) (objects.Checksum, error) {
	if err := m.requireInTransaction("write_metadata_trusted"); err != nil {
		return objects.Checksum{}, err
	}
	res, err := m.Writer.Write(kind, &expected, input, length, false)
	if err != nil {
		return objects.Checksum{}, err
	}
	m.recordWrite(kind, res, length)
	return res.Checksum, nil
}

// WriteContent writes an untrusted FILE object, computing its checksum from
// the stream as it is written; there is no expected checksum to compare
// against (spec.md §6 "write_content").
func (m *Manager) WriteContent(input io.Reader, declaredLength int64) (objects.Checksum, error) {
	if err := m.requireInTransaction("write_content"); err != nil {
		return objects.Checksum{}, err
	}
	res, err := m.Writer.Write(objects.FileKind, nil, input, declaredLength, true)
	if err != nil {
		return objects.Checksum{}, err
	}
	m.recordWrite(objects.FileKind, res, declaredLength)
	return res.Checksum, nil
}

// WriteContentVerified writes a FILE object, hashing the stream as it is
// written and verifying it against expected — a Corrupt error on mismatch
// (spec.md §6 "write_content(expected?, stream, length)", scenario 3). This
// is the verified counterpart WriteContent doesn't give a caller a way to
// reach without supplying expected: WriteContent never checks a checksum
// because it never receives one, and WriteContentTrusted skips hashing
// entirely.
func (m *Manager) WriteContentVerified(expected objects.Checksum, input io.Reader, declaredLength int64) (objects.Checksum, error) {
	if err := m.requireInTransaction("write_content_verified"); err != nil {
		return objects.Checksum{}, err
	}
	res, err := m.Writer.Write(objects.FileKind, &expected, input, declaredLength, true)
	if err != nil {
		return objects.Checksum{}, err
	}
	m.recordWrite(objects.FileKind, res, declaredLength)
	return res.Checksum, nil
}

// WriteContentTrusted writes a FILE object whose checksum is already known
// and skips verification (spec.md §6 "write_content_trusted").
func (m *Manager) WriteContentTrusted(expected objects.Checksum, input io.Reader, declaredLength int64) (objects.Checksum, error) {
	if err := m.requireInTransaction("write_content_trusted"); err != nil {
		return objects.Checksum{}, err
	}
	res, err := m.Writer.Write(objects.FileKind, &expected, input, declaredLength, false)
	if err != nil {
		return objects.Checksum{}, err
	}
	m.recordWrite(objects.FileKind, res, declaredLength)
	return res.Checksum, nil
}

// WriteCommit assembles and writes a COMMIT object binding rootTree and
// rootMeta to parent, stamped with the current time (spec.md §6
// "write_commit"). It does not update any ref; callers bind the result to
// a branch with SetRef/SetRefspec separately, in the same transaction.
func (m *Manager) WriteCommit(parent *objects.Checksum, subject, body string, rootTree, rootMeta objects.Checksum) (objects.Checksum, error) {
	if err := m.requireInTransaction("write_commit"); err != nil {
		return objects.Checksum{}, err
	}

	c := objects.Commit{
		Subject:      subject,
		Body:         body,
		EpochSeconds: uint64(time.Now().Unix()),
		RootTreeCsum: rootTree,
		RootMetaCsum: rootMeta,
	}
	if parent != nil {
		c.Parent = *parent
		c.HasParent = true
	}

	encoded, err := c.Encode()
	if err != nil {
		return objects.Checksum{}, &repoerr.IO{Context: "encode commit", Err: err}
	}
	res, err := m.Writer.Write(objects.CommitKind, nil, bytes.NewReader(encoded), int64(len(encoded)), true)
	if err != nil {
		return objects.Checksum{}, err
	}
	m.recordWrite(objects.CommitKind, res, int64(len(encoded)))
	return res.Checksum, nil
}
