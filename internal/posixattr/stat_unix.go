//go:build !windows

package posixattr

import (
	"os"
	"syscall"
)

// Lstat reads path's metadata without following a trailing symlink.
func Lstat(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}
	return fromFileInfo(path, fi)
}

func fromFileInfo(path string, fi os.FileInfo) (Info, error) {
	info := Info{
		Size: fi.Size(),
		Mode: uint32(fi.Mode().Perm()),
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

	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		// Keep the permission bits plus setuid/setgid/sticky (S_ISUID/
		// S_ISGID/S_ISVTX), stripping only the file-type bits in the high
		// nibble; os.FileMode.Perm() alone would silently drop the special
		// bits, which the canonical FILE/DIR_META hash and the BARE fchmod
		// both need to carry (spec.md §4.2 step 7c, §8 "mode-bit safety").
		info.Mode = uint32(st.Mode) & 0o7777
		info.Uid = st.Uid
		info.Gid = st.Gid
		info.Device = uint64(st.Dev)
		info.Inode = uint64(st.Ino)
		info.DeviceKnown = true
	}
	return info, nil
}

// SameDevice reports whether two previously-lstatted paths live on the same
// filesystem device. The devino cache does not call it: its key already
// includes the device number.
func SameDevice(a, b Info) bool {
	if !a.DeviceKnown || !b.DeviceKnown {
		return false
	}
	return a.Device == b.Device
}
