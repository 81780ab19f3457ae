// Package objects implements the data model of the content-addressed
// object store: object kinds, their canonical serialization, and the
// checksum that addresses them.
package objects

import (
	"fmt"

	"github.com/imgrepo/imgrepo/internal/storagemode"
)

// Kind tags the four object varieties the repository stores. The
// serialization and on-disk file-name suffix both depend on it.
type Kind uint8

const (
	// FileKind is a regular file body or symlink target plus owner/mode/xattrs.
	FileKind Kind = iota + 1
	// DirMetaKind is the owner/mode/xattrs for one directory.
	DirMetaKind
	// DirTreeKind is a directory listing of sorted files and subdirectories.
	DirTreeKind
	// CommitKind binds a tree root to a branch with commit metadata.
	CommitKind
)

func (k Kind) String() string {
	switch k {
	case FileKind:
		return "file"
	case DirMetaKind:
		return "dirmeta"
	case DirTreeKind:
		return "dirtree"
	case CommitKind:
		return "commit"
	default:
		panic(fmt.Sprintf("objects: invalid kind %d", uint8(k)))
	}
}

// Suffix returns the on-disk file extension for k under the given storage
// mode. Only FileKind varies with mode (plain vs compressed).
func (k Kind) Suffix(mode storagemode.Mode) string {
	switch k {
	case FileKind:
		if mode == storagemode.Archive {
			return "filez"
		}
		return "file"
	case DirMetaKind:
		return "dirmeta"
	case DirTreeKind:
		return "dirtree"
	case CommitKind:
		return "commit"
	default:
		panic(fmt.Sprintf("objects: invalid kind %d", uint8(k)))
	}
}
