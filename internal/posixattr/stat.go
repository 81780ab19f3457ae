// Package posixattr provides a platform-split file-info provider and the
// ordered attribute-application routine the object writer uses when
// materializing BARE-mode file objects (spec.md §4.2 step 7). The
// device/inode half of FileInfo is grounded on the teacher's
// device_unix.go/device_windows.go split (internal/infra/fs/txn, now
// repurposed here); the degraded-on-Windows shape follows rclone's
// backend/local/linkinfo_windows.go and read_device_unix.go (devUnset
// fallback when a platform can't answer).
package posixattr

// FileKind classifies the lstat result of a source path.
type FileKind uint8

const (
	KindRegular FileKind = iota + 1
	KindSymlink
	KindDirectory
	KindOther
)

// Info is an lstat-equivalent snapshot: it never follows the final symlink
// component, matching the object writer's need to classify the thing it was
// asked to ingest rather than whatever it points to.
type Info struct {
	Kind           FileKind
	Size           int64
	Mode           uint32
	Uid            uint32
	Gid            uint32
	SymlinkTarget  string
	Device         uint64
	Inode          uint64
	DeviceKnown    bool
}

// devUnset marks a platform/filesystem combination that can't report a
// stable device number (Windows today). Callers must not use this value as
// a hardlink-cache key.
const devUnset = ^uint64(0)
