package mtree

import "github.com/imgrepo/imgrepo/internal/posixattr"

// FilterResult is a modifier callback's verdict for one path.
type FilterResult uint8

const (
	Allow FilterResult = iota + 1
	Skip
)

// ModifierFlags bundles the walker behavior toggles a modifier can set
// (spec.md §4.4 "Modifier contract": "flags (at minimum SKIP_XATTRS)").
type ModifierFlags struct {
	SkipXattrs bool
}

// FilterFunc decides whether path is ingested and may rewrite its info
// before the walker acts on it. The walker always passes a copy of the
// on-disk info, so mutating it here never alters the original query
// (spec.md §4.4).
type FilterFunc func(absPath string, info posixattr.Info) (FilterResult, posixattr.Info)

// Modifier is a value-type replacement for the source's reference-counted,
// user-data-carrying commit modifier (spec.md §9 "Reference-counted
// modifier"): a plain struct holding flags and an owned closure. Nothing
// here needs manual reference counting since a modifier is owned by
// exactly one transaction for exactly one ingest call.
type Modifier struct {
	Flags  ModifierFlags
	Filter FilterFunc
}

// apply runs m's filter if present, defaulting to Allow with the info
// unchanged when no modifier is installed.
func (m *Modifier) apply(absPath string, info posixattr.Info) (FilterResult, posixattr.Info) {
	if m == nil || m.Filter == nil {
		return Allow, info
	}
	return m.Filter(absPath, info)
}

func (m *Modifier) skipXattrs() bool {
	return m != nil && m.Flags.SkipXattrs
}
