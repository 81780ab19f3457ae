// Package mtree implements the mutable tree builder (spec.md §4.4, C4): a
// recursive walker that turns a source directory into an in-memory tree of
// per-directory file/subdir checksums, calling internal/objwriter for new
// content and internal/devino for the hardlink fast path. Grounded on
// spec.md §4.4's algorithm directly; the original's analogue is
// original_source/src/libostree/ostree-repo-commit.c's
// write_directory_to_mtree_internal and ostree_mutable_tree.c.
package mtree

import (
	"fmt"
	"sort"

	"github.com/imgrepo/imgrepo/internal/objects"
)

// Node is one directory in the mutable tree: a cached meta-checksum, an
// optional cached contents-checksum, and disjoint maps of child files and
// subdirectories (spec.md §3 "Mutable tree").
type Node struct {
	MetaChecksum     objects.Checksum
	HasMetaChecksum  bool
	contentsChecksum objects.Checksum
	hasContents      bool

	files   map[string]objects.Checksum
	subdirs map[string]*Node
}

// NewNode returns an empty tree node.
func NewNode() *Node {
	return &Node{
		files:   make(map[string]objects.Checksum),
		subdirs: make(map[string]*Node),
	}
}

// SetMeta records n's DIR_META checksum.
func (n *Node) SetMeta(csum objects.Checksum) {
	n.MetaChecksum = csum
	n.HasMetaChecksum = true
}

// ContentsChecksum reports the cached contents-checksum, if any.
func (n *Node) ContentsChecksum() (objects.Checksum, bool) {
	return n.contentsChecksum, n.hasContents
}

// SetContentsChecksum caches csum as n's contents-checksum, as produced by
// a fast subtree reuse or by a prior write_mtree call.
func (n *Node) SetContentsChecksum(csum objects.Checksum) {
	n.contentsChecksum = csum
	n.hasContents = true
}

// invalidate clears a cached contents-checksum; called whenever the file
// or subdir maps are mutated (spec.md §3 invariant 1).
func (n *Node) invalidate() {
	n.hasContents = false
	n.contentsChecksum = objects.Checksum{}
}

// SetFile records name's file checksum, invalidating any cached contents
// checksum. Fails if name already names a subdirectory (invariant 2).
func (n *Node) SetFile(name string, csum objects.Checksum) error {
	if _, isDir := n.subdirs[name]; isDir {
		return fmt.Errorf("mtree: %q is already a subdirectory", name)
	}
	n.files[name] = csum
	n.invalidate()
	return nil
}

// EnsureSubdir returns the child node for name, creating an empty one if
// absent. Fails if name already names a file (invariant 2).
func (n *Node) EnsureSubdir(name string) (*Node, error) {
	if _, isFile := n.files[name]; isFile {
		return nil, fmt.Errorf("mtree: %q is already a file", name)
	}
	if child, ok := n.subdirs[name]; ok {
		return child, nil
	}
	child := NewNode()
	n.subdirs[name] = child
	n.invalidate()
	return child, nil
}

// Lookup returns the already-recorded file checksum for name, if any.
// Subdirectories are not reported.
func (n *Node) Lookup(name string) (objects.Checksum, bool) {
	c, ok := n.files[name]
	return c, ok
}

// Empty reports whether n currently has no files and no subdirectories.
func (n *Node) Empty() bool {
	return len(n.files) == 0 && len(n.subdirs) == 0
}

// SubdirNames returns n's subdirectory names in ascending byte order.
func (n *Node) SubdirNames() []string {
	return n.sortedSubdirNames()
}

// sortedFileNames and sortedSubdirNames return n's child names in
// ascending byte order, the order write_mtree's serialization requires.
func (n *Node) sortedFileNames() []string {
	names := make([]string, 0, len(n.files))
	for name := range n.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (n *Node) sortedSubdirNames() []string {
	names := make([]string, 0, len(n.subdirs))
	for name := range n.subdirs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
