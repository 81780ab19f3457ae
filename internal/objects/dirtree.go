package objects

import (
	"bytes"
	"io"
	"sort"
)

// DirTreeFile is one (name, file checksum) entry.
type DirTreeFile struct {
	Name     string
	Checksum Checksum
}

// DirTreeDir is one (name, subtree checksum, subtree meta checksum) entry.
type DirTreeDir struct {
	Name         string
	TreeChecksum Checksum
	MetaChecksum Checksum
}

// DirTree is a directory listing: sorted files and sorted subdirectories
// with their child content- and meta-checksums (spec.md §4.4 write_mtree).
type DirTree struct {
	Files []DirTreeFile
	Dirs  []DirTreeDir
}

// Encode renders the canonical DIR_TREE serialization. Both lists are
// re-sorted by name ascending here so that callers never need to remember
// to sort before encoding — determinism of trees (spec.md §8) depends on it.
func (t DirTree) Encode() ([]byte, error) {
	files := append([]DirTreeFile(nil), t.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	dirs := append([]DirTreeDir(nil), t.Dirs...)
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })

	var buf bytes.Buffer
	if err := writeUint32BE(&buf, uint32(len(files))); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := writeBytesLP(&buf, []byte(f.Name)); err != nil {
			return nil, err
		}
		if _, err := buf.Write(f.Checksum[:]); err != nil {
			return nil, err
		}
	}
	if err := writeUint32BE(&buf, uint32(len(dirs))); err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := writeBytesLP(&buf, []byte(d.Name)); err != nil {
			return nil, err
		}
		if _, err := buf.Write(d.TreeChecksum[:]); err != nil {
			return nil, err
		}
		if _, err := buf.Write(d.MetaChecksum[:]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeDirTree parses bytes produced by Encode.
func DecodeDirTree(b []byte) (DirTree, error) {
	var t DirTree
	r := bytes.NewReader(b)

	fileCount, err := readUint32BE(r)
	if err != nil {
		return t, err
	}
	t.Files = make([]DirTreeFile, 0, fileCount)
	for i := uint32(0); i < fileCount; i++ {
		name, err := readBytesLP(r)
		if err != nil {
			return t, err
		}
		var cs Checksum
		if _, err := io.ReadFull(r, cs[:]); err != nil {
			return t, err
		}
		t.Files = append(t.Files, DirTreeFile{Name: string(name), Checksum: cs})
	}

	dirCount, err := readUint32BE(r)
	if err != nil {
		return t, err
	}
	t.Dirs = make([]DirTreeDir, 0, dirCount)
	for i := uint32(0); i < dirCount; i++ {
		name, err := readBytesLP(r)
		if err != nil {
			return t, err
		}
		var tc, mc Checksum
		if _, err := io.ReadFull(r, tc[:]); err != nil {
			return t, err
		}
		if _, err := io.ReadFull(r, mc[:]); err != nil {
			return t, err
		}
		t.Dirs = append(t.Dirs, DirTreeDir{Name: string(name), TreeChecksum: tc, MetaChecksum: mc})
	}
	return t, nil
}
