// Package repoerr defines the error taxonomy shared across the object-ingest
// core (spec.md §7). Each kind is a concrete struct carrying the fields a
// caller needs to act on it, generalizing the teacher's single TxnError
// (internal/infra/fs/txn) into one type per kind since the structured
// fields differ (expected/actual checksum vs. errno context vs. file type).
package repoerr

import "fmt"

// Cancelled is returned when a caller's cancellation was observed mid-write.
type Cancelled struct{ Op string }

func (e *Cancelled) Error() string { return fmt.Sprintf("%s: cancelled", e.Op) }

// IO wraps an underlying syscall/filesystem failure with the operation that
// triggered it.
type IO struct {
	Context string
	Err     error
}

func (e *IO) Error() string { return fmt.Sprintf("io error (%s): %v", e.Context, e.Err) }
func (e *IO) Unwrap() error { return e.Err }

// Corrupt is returned when a verified write's computed checksum disagrees
// with the checksum the caller expected.
type Corrupt struct {
	Kind     fmt.Stringer
	Expected string
	Actual   string
}

func (e *Corrupt) Error() string {
	return fmt.Sprintf("corrupt object: kind=%s expected=%s actual=%s", e.Kind, e.Expected, e.Actual)
}

// NotSupported is returned for any source file type other than regular or
// symlink (devices, sockets, fifos, ...).
type NotSupported struct{ FileType string }

func (e *NotSupported) Error() string { return fmt.Sprintf("not supported: file type %s", e.FileType) }

// Precondition is a caller programming error: a write/set-ref call outside
// a transaction, or prepare called while one is already open.
type Precondition struct{ Reason string }

func (e *Precondition) Error() string { return fmt.Sprintf("precondition failed: %s", e.Reason) }

// Exhausted is returned when a unique temp name could not be picked after
// the retry budget (128 attempts for symlink temp-naming, spec.md §4.2).
type Exhausted struct{ Op string }

func (e *Exhausted) Error() string { return fmt.Sprintf("%s: exhausted retry budget", e.Op) }

// Remote wraps an error propagated from the ref-updater collaborator.
type Remote struct{ Err error }

func (e *Remote) Error() string { return fmt.Sprintf("remote: %v", e.Err) }
func (e *Remote) Unwrap() error { return e.Err }
