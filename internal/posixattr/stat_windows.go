//go:build windows

package posixattr

import "os"

// Lstat reads path's metadata without following a trailing symlink. Windows
// has no uid/gid/mode concept comparable to POSIX and no cheap stable device
// number, so those fields come back zeroed/unset; BARE-mode ownership and
// permission bits are a no-op on this platform (spec.md §9 "Windows BARE
// mode").
func Lstat(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		// Perm() is all there is here: Windows has no setuid/setgid/sticky
		// bits for os.FileMode to carry, unlike the unix build's raw
		// syscall.Stat_t.Mode (see stat_unix.go).
		Size:        fi.Size(),
		Mode:        uint32(fi.Mode().Perm()),
		Device:      devUnset,
		DeviceKnown: false,
	}

	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		info.Kind = KindSymlink
		target, err := os.Readlink(path)
		if err != nil {
			return Info{}, err
		}
		info.SymlinkTarget = target
	case fi.Mode().IsDir():
		info.Kind = KindDirectory
	case fi.Mode().IsRegular():
		info.Kind = KindRegular
	default:
		info.Kind = KindOther
	}
	return info, nil
}

// SameDevice always reports false on Windows: without a stable device
// number the hardlink fast path (spec.md §4.3 C3) is disabled rather than
// risking a false-positive dedup across filesystems.
func SameDevice(a, b Info) bool {
	return false
}
