// Package storagemode defines the two on-disk encodings a repository may
// use for FILE objects.
package storagemode

import "fmt"

// Mode is a sealed two-value type: the only values that satisfy it are the
// exported constants below. Keeping the underlying field unexported outside
// this package stops a caller from fabricating a third value and hitting an
// unreachable default branch deep in a switch, which is exactly the failure
// mode the original "uninitialized skip in a default: branch" bug required.
type Mode struct{ v uint8 }

const (
	bareVal = iota + 1
	archiveVal
)

var (
	// Bare stores FILE objects as ordinary files/symlinks with real
	// uid/gid/mode/xattrs preserved. Only root can losslessly read/write it.
	Bare = Mode{bareVal}

	// Archive stores FILE objects as a serialized attribute header followed
	// by raw-deflate compressed body for regulars. Runs under any uid.
	Archive = Mode{archiveVal}
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m.v {
	case bareVal:
		return "bare"
	case archiveVal:
		return "archive"
	default:
		panic(fmt.Sprintf("storagemode: invalid mode value %d", m.v))
	}
}

// Valid reports whether m is one of the two sealed values. Any Mode obtained
// through this package's exported constants is always valid; this guards
// against a zero-value Mode crossing a package boundary (e.g. via an
// unmarshaled config struct) and reaching a switch unexamined.
func (m Mode) Valid() bool {
	return m.v == bareVal || m.v == archiveVal
}

// Parse maps the on-disk config string ("bare"/"archive") to a Mode.
func Parse(s string) (Mode, error) {
	switch s {
	case "bare":
		return Bare, nil
	case "archive":
		return Archive, nil
	default:
		return Mode{}, fmt.Errorf("storagemode: unknown mode %q", s)
	}
}
