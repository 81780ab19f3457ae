//go:build windows

package posixattr

// apply is a no-op on Windows: there is no POSIX owner/mode to set, and
// xattrs.Set already tolerates platforms that reject them (spec.md §9
// "Windows BARE mode").
func apply(path string, t Target) error {
	return nil
}
