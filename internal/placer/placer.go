// Package placer implements the loose object placer (spec.md §4.1, C1):
// the final, crash-safe step that makes a fully-written temp file visible
// under objects/<prefix>/<rest>.<suffix>. Grounded on the teacher's atomic
// rename-into-place helper (internal/infra/fs/atomic.go) generalized from
// "write a whole file atomically" to "place an already-written temp file",
// and on original_source/src/libostree/ostree-repo.c's
// commit_loose_object_trusted for the EEXIST-is-success race tolerance.
package placer

import (
	"errors"
	"os"
	"path/filepath"

	fs "github.com/imgrepo/imgrepo/internal/infra/fs"
	"github.com/imgrepo/imgrepo/internal/repoerr"
)

const objectDirMode = 0o777

// Place renames tmpPath (anywhere on the same filesystem as objectsDir,
// typically under tmp/) to objectsDir/prefix/rest.suffix, creating the
// prefix directory if needed. If the destination already exists — because
// another transaction placed the same content first, or this transaction
// computed the same checksum twice — tmpPath is unlinked and Place
// reports success: the object is already in the store (spec.md §4.1 step
// 3).
func Place(objectsDir, prefix, rest, suffix, tmpPath string) error {
	prefixDir := filepath.Join(objectsDir, prefix)
	if err := os.Mkdir(prefixDir, objectDirMode); err != nil && !errors.Is(err, os.ErrExist) {
		return &repoerr.IO{Context: "mkdir " + prefixDir, Err: err}
	}

	finalPath := filepath.Join(prefixDir, rest+"."+suffix)
	if raceLost(finalPath) {
		// os.Rename would silently replace the existing object here.
		_ = os.Remove(tmpPath)
		return nil
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		if errors.Is(err, os.ErrExist) || raceLost(finalPath) {
			_ = os.Remove(tmpPath)
			return nil
		}
		return &repoerr.IO{Context: "rename " + tmpPath + " -> " + finalPath, Err: err}
	}

	if err := fs.FsyncDir(prefixDir); err != nil {
		return &repoerr.IO{Context: "fsync " + prefixDir, Err: err}
	}
	return nil
}

// raceLost reports whether finalPath already exists. Place checks it before
// renaming, because os.Rename on most platforms simply replaces an existing
// regular file rather than failing, and again after a failed rename, for
// concurrent placers fighting over the same destination on a
// platform/filesystem where rename-over-existing is rejected with an error
// other than a plain ErrExist.
func raceLost(finalPath string) bool {
	_, err := os.Lstat(finalPath)
	return err == nil
}
