package mtree

import (
	"bytes"

	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/objwriter"
	"github.com/imgrepo/imgrepo/internal/repoerr"
)

// WriteMtree serializes node into a DIR_TREE object, recursing into
// subdirectories first, and caches the resulting checksum on node
// (spec.md §4.4 "Serialization of the tree"). A node whose
// contents-checksum is already cached is returned as-is without writing
// anything.
func WriteMtree(writer *objwriter.Writer, node *Node) (objects.Checksum, error) {
	if csum, ok := node.ContentsChecksum(); ok {
		return csum, nil
	}
	if !node.HasMetaChecksum {
		return objects.Checksum{}, &repoerr.Precondition{Reason: "mtree node has no meta-checksum"}
	}

	tree := objects.DirTree{}
	for _, name := range node.sortedFileNames() {
		csum, _ := node.Lookup(name)
		tree.Files = append(tree.Files, objects.DirTreeFile{Name: name, Checksum: csum})
	}
	for _, name := range node.sortedSubdirNames() {
		child := node.subdirs[name]
		childCsum, err := WriteMtree(writer, child)
		if err != nil {
			return objects.Checksum{}, err
		}
		tree.Dirs = append(tree.Dirs, objects.DirTreeDir{
			Name:         name,
			TreeChecksum: childCsum,
			MetaChecksum: child.MetaChecksum,
		})
	}

	encoded, err := tree.Encode()
	if err != nil {
		return objects.Checksum{}, &repoerr.IO{Context: "encode dirtree", Err: err}
	}
	res, err := writer.Write(objects.DirTreeKind, nil, bytes.NewReader(encoded), int64(len(encoded)), true)
	if err != nil {
		return objects.Checksum{}, err
	}
	node.SetContentsChecksum(res.Checksum)
	return res.Checksum, nil
}
