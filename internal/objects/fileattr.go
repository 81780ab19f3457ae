package objects

import (
	"bytes"
	"fmt"
	"io"
)

// FileType distinguishes the two source types the repository can store in a
// FILE object; anything else is rejected by the caller before reaching this
// package (spec.md §4.2 step 3: "reject any file-type other than regular or
// symlink").
type FileType uint8

const (
	RegularFile FileType = iota + 1
	SymlinkFile
)

// FileAttr is the attribute record carried by every FILE object: owner,
// mode, type, optional symlink target, and xattrs. Size is the payload
// length for regulars and is not meaningful for symlinks.
type FileAttr struct {
	Mode          uint32
	Uid           uint32
	Gid           uint32
	Type          FileType
	SymlinkTarget string
	Size          uint64
	Xattrs        []Xattr
}

// WriteFileHeader writes the canonical attribute header shared by both BARE
// and ARCHIVE FILE encodings: size, uid, gid, mode, type, symlink target (LP,
// empty for regulars), then the sorted xattr list.
func WriteFileHeader(w io.Writer, a FileAttr) error {
	if err := writeUint64BE(w, a.Size); err != nil {
		return err
	}
	if err := writeUint32BE(w, a.Uid); err != nil {
		return err
	}
	if err := writeUint32BE(w, a.Gid); err != nil {
		return err
	}
	if err := writeUint32BE(w, a.Mode); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(a.Type)}); err != nil {
		return err
	}
	if err := writeBytesLP(w, []byte(a.SymlinkTarget)); err != nil {
		return err
	}
	xs := append([]Xattr(nil), a.Xattrs...)
	SortXattrs(xs)
	return writeXattrs(w, xs)
}

// ReadFileHeader parses a header written by WriteFileHeader.
func ReadFileHeader(r io.Reader) (FileAttr, error) {
	var a FileAttr
	var err error
	if a.Size, err = readUint64BE(r); err != nil {
		return a, err
	}
	if a.Uid, err = readUint32BE(r); err != nil {
		return a, err
	}
	if a.Gid, err = readUint32BE(r); err != nil {
		return a, err
	}
	if a.Mode, err = readUint32BE(r); err != nil {
		return a, err
	}
	var typeByte [1]byte
	if _, err := io.ReadFull(r, typeByte[:]); err != nil {
		return a, err
	}
	a.Type = FileType(typeByte[0])
	if a.Type != RegularFile && a.Type != SymlinkFile {
		return a, fmt.Errorf("objects: unknown file type byte %d", typeByte[0])
	}
	target, err := readBytesLP(r)
	if err != nil {
		return a, err
	}
	a.SymlinkTarget = string(target)
	if a.Xattrs, err = readXattrs(r); err != nil {
		return a, err
	}
	return a, nil
}

// HeaderBytes renders just the header (no payload). It is the first part of
// the canonical FILE stream, and the ARCHIVE encoding writes it as-is ahead
// of the compressed body: the header carries no length prefix there, and
// readers find its end by parsing it with ReadFileHeader.
func HeaderBytes(a FileAttr) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteFileHeader(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
