package objects

import "bytes"

// DirMeta is the owner/mode/xattrs metadata for one directory (DIR_META).
type DirMeta struct {
	Uid    uint32
	Gid    uint32
	Mode   uint32
	Xattrs []Xattr
}

// Encode renders the canonical DIR_META serialization: an (empty for now)
// metadata dict placeholder, uid, gid, mode, then the sorted xattr list —
// matching spec.md §6's `(a{sv} meta-dict, u uid, u gid, u mode, a(ayay)
// xattrs)` layout. The meta-dict is always empty; it exists as a forward
// extension point, the same role it plays in the wire format.
func (d DirMeta) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUint32BE(&buf, 0); err != nil { // empty meta-dict entry count
		return nil, err
	}
	if err := writeUint32BE(&buf, d.Uid); err != nil {
		return nil, err
	}
	if err := writeUint32BE(&buf, d.Gid); err != nil {
		return nil, err
	}
	if err := writeUint32BE(&buf, d.Mode); err != nil {
		return nil, err
	}
	xs := append([]Xattr(nil), d.Xattrs...)
	SortXattrs(xs)
	if err := writeXattrs(&buf, xs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDirMeta parses bytes produced by Encode.
func DecodeDirMeta(b []byte) (DirMeta, error) {
	var d DirMeta
	r := bytes.NewReader(b)
	metaCount, err := readUint32BE(r)
	if err != nil {
		return d, err
	}
	for i := uint32(0); i < metaCount; i++ {
		// Skip unknown meta-dict entries (key, then a type-tagged value we
		// don't interpret); forward compatibility placeholder.
		if _, err := readBytesLP(r); err != nil {
			return d, err
		}
		if _, err := readBytesLP(r); err != nil {
			return d, err
		}
	}
	if d.Uid, err = readUint32BE(r); err != nil {
		return d, err
	}
	if d.Gid, err = readUint32BE(r); err != nil {
		return d, err
	}
	if d.Mode, err = readUint32BE(r); err != nil {
		return d, err
	}
	if d.Xattrs, err = readXattrs(r); err != nil {
		return d, err
	}
	return d, nil
}
