package posixattr

import "github.com/imgrepo/imgrepo/internal/objects"

// Target describes the ownership/mode/xattrs a freshly-written temp file
// must end up with before it is renamed into the object store.
type Target struct {
	Uid       uint32
	Gid       uint32
	Mode      uint32
	Xattrs    []objects.Xattr
	IsSymlink bool
}

// Apply drives the attribute-application ordering spec.md §4.2 step 7
// mandates for BARE-mode objects: chown, then xattrs, then (regular files
// only) chmod, then fsync. Ownership and xattrs must land before the mode
// bits so a setuid/setgid target is never briefly world-writable or
// missing its security-relevant xattrs under that mode; fsync must follow
// all three so a crash can't observe the data without its final
// attributes. Callers fsync the containing directory separately after the
// rename (internal/placer).
func Apply(path string, t Target) error {
	return apply(path, t)
}
