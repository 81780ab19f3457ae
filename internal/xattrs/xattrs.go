// Package xattrs provides a best-effort extended-attribute provider used by
// the object writer and tree walker. Grounded on rclone's
// backend/local/xattr.go: read via List+Get, write via Set, tolerate
// ENOTSUP/ENOATTR/EINVAL by treating the platform as unsupported rather than
// failing the caller.
package xattrs

import (
	"sort"
	"syscall"

	"github.com/pkg/xattr"

	"github.com/imgrepo/imgrepo/internal/objects"
)

// Get returns the sorted xattr list for path, following symlinks only when
// followSymlinks is set. Returns (nil, nil) when xattrs are unsupported on
// this platform/filesystem — never an error the caller must special-case.
func Get(path string, followSymlinks bool) ([]objects.Xattr, error) {
	var names []string
	var err error
	if followSymlinks {
		names, err = xattr.List(path)
	} else {
		names, err = xattr.LList(path)
	}
	if err != nil {
		if isUnsupported(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	out := make([]objects.Xattr, 0, len(names))
	for _, name := range names {
		var v []byte
		if followSymlinks {
			v, err = xattr.Get(path, name)
		} else {
			v, err = xattr.LGet(path, name)
		}
		if err != nil {
			if isUnsupported(err) {
				return nil, nil
			}
			return nil, err
		}
		out = append(out, objects.Xattr{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Set applies xs to path. Symlink xattr support is platform-dependent
// (spec.md §9 "Symlink xattrs"); failures that indicate the platform simply
// doesn't support it are swallowed, anything else propagates.
func Set(path string, xs []objects.Xattr, onSymlink bool) error {
	for _, x := range xs {
		var err error
		if onSymlink {
			err = xattr.LSet(path, x.Name, x.Value)
		} else {
			err = xattr.Set(path, x.Name, x.Value)
		}
		if err != nil {
			if isUnsupported(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

func isUnsupported(err error) bool {
	xerr, ok := err.(*xattr.Error)
	if !ok {
		return false
	}
	switch xerr.Err {
	case syscall.ENOTSUP, syscall.EINVAL, xattr.ENOATTR:
		return true
	}
	return false
}
