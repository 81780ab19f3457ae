//go:build !windows

package posixattr

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/imgrepo/imgrepo/internal/repoerr"
	"github.com/imgrepo/imgrepo/internal/xattrs"
)

func apply(path string, t Target) error {
	if t.IsSymlink {
		return applySymlink(path, t)
	}
	return applyRegular(path, t)
}

func applySymlink(path string, t Target) error {
	if err := unix.Lchown(path, int(t.Uid), int(t.Gid)); err != nil {
		return &repoerr.IO{Context: "lchown " + path, Err: err}
	}
	// Most platforms have no lchmod; symlink permission bits are ignored by
	// the kernel, so there is nothing to chmod here. Xattrs on symlinks are
	// best-effort (spec.md §9 "Symlink xattrs").
	if err := xattrs.Set(path, t.Xattrs, true); err != nil {
		return &repoerr.IO{Context: "lsetxattr " + path, Err: err}
	}
	return nil
}

func applyRegular(path string, t Target) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return &repoerr.IO{Context: "open " + path, Err: err}
	}
	defer f.Close()
	fd := int(f.Fd())

	if err := unix.Fchown(fd, int(t.Uid), int(t.Gid)); err != nil {
		return &repoerr.IO{Context: "fchown " + path, Err: err}
	}
	if err := xattrs.Set(path, t.Xattrs, false); err != nil {
		return &repoerr.IO{Context: "fsetxattr " + path, Err: err}
	}
	if err := fchmodRetry(fd, t.Mode); err != nil {
		return &repoerr.IO{Context: "fchmod " + path, Err: err}
	}
	if err := unix.Fsync(fd); err != nil {
		return &repoerr.IO{Context: "fsync " + path, Err: err}
	}
	return nil
}

// fchmodRetry retries Fchmod across EINTR, the same loop the reference
// implementation uses around its fchmod call when applying final file
// attributes.
func fchmodRetry(fd int, mode uint32) error {
	for {
		err := unix.Fchmod(fd, mode)
		if err == syscall.EINTR {
			continue
		}
		return err
	}
}
