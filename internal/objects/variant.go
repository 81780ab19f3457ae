package objects

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// This file implements the canonical ("normal form") binary encoding shared
// by all four object kinds. All integers are big-endian on the wire, byte
// strings are length-prefixed with a uint32 BE length, matching spec.md §6's
// structural layout without attempting byte-for-byte GVariant compatibility
// (the spec only requires the encoding be structural and language-neutral).

func writeUint32BE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint64BE(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeBytesLP(w io.Writer, b []byte) error {
	if err := writeUint32BE(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readUint32BE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readUint64BE(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

const maxLPLength = 64 << 20 // 64MiB guards against corrupt-length DoS on read

func readBytesLP(r io.Reader) ([]byte, error) {
	n, err := readUint32BE(r)
	if err != nil {
		return nil, err
	}
	if n > maxLPLength {
		return nil, fmt.Errorf("objects: length-prefixed field too large (%d bytes)", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Xattr is a single extended attribute name/value pair.
type Xattr struct {
	Name  string
	Value []byte
}

// SortXattrs orders xattrs by name ascending, matching the a(ayay) ordering
// requirement spec.md §6 places on the xattrs list.
func SortXattrs(xs []Xattr) {
	sort.Slice(xs, func(i, j int) bool { return xs[i].Name < xs[j].Name })
}

func writeXattrs(w io.Writer, xs []Xattr) error {
	if err := writeUint32BE(w, uint32(len(xs))); err != nil {
		return err
	}
	for _, x := range xs {
		if err := writeBytesLP(w, []byte(x.Name)); err != nil {
			return err
		}
		if err := writeBytesLP(w, x.Value); err != nil {
			return err
		}
	}
	return nil
}

func readXattrs(r io.Reader) ([]Xattr, error) {
	count, err := readUint32BE(r)
	if err != nil {
		return nil, err
	}
	if count > 1<<16 {
		return nil, fmt.Errorf("objects: implausible xattr count %d", count)
	}
	xs := make([]Xattr, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := readBytesLP(r)
		if err != nil {
			return nil, err
		}
		value, err := readBytesLP(r)
		if err != nil {
			return nil, err
		}
		xs = append(xs, Xattr{Name: string(name), Value: value})
	}
	return xs, nil
}
