// Package refupdater defines the ref-updater collaborator contract
// (spec.md §6 "Ref updater": "apply(pending_refs) atomically updates the
// refs namespace") and a local-filesystem implementation. Ref resolution
// and branch listing themselves are out of scope for the core (spec.md
// §1); this package only applies the deferred writes a committed
// transaction hands it.
package refupdater

import (
	"os"
	"path/filepath"
	"sort"

	fs "github.com/imgrepo/imgrepo/internal/infra/fs"
	"github.com/imgrepo/imgrepo/internal/repoerr"
)

// Ref is one pending change: set Checksum, or set Delete to remove the ref
// entirely (spec.md §4.5 "a null checksum means delete on commit").
type Ref struct {
	Checksum string
	Delete   bool
}

// Updater atomically applies a batch of pending ref changes.
type Updater interface {
	Apply(pending map[string]Ref) error
}

// Local implements Updater against a repository's refs/ directory, one
// file per refspec (heads/<ref> or remotes/<remote>/<ref>), written with the same
// atomic-rename-plus-fsync discipline used for loose objects.
type Local struct {
	RefsDir string
}

// Apply writes or removes one file per pending refspec. A refspec
// containing "remote:ref" is stored under refs/remotes/<remote>/<ref>;
// otherwise under refs/heads/<ref>.
func (l *Local) Apply(pending map[string]Ref) error {
	// Sorting gives deterministic error reporting and log ordering; the
	// underlying filesystem operations are independent of order.
	refspecs := make([]string, 0, len(pending))
	for refspec := range pending {
		refspecs = append(refspecs, refspec)
	}
	sort.Strings(refspecs)

	for _, refspec := range refspecs {
		val := pending[refspec]
		path := l.pathFor(refspec)
		if val.Delete {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return &repoerr.Remote{Err: &repoerr.IO{Context: "remove ref " + refspec, Err: err}}
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
			return &repoerr.Remote{Err: &repoerr.IO{Context: "mkdir ref dir for " + refspec, Err: err}}
		}
		if err := fs.WriteFileSync(path, []byte(val.Checksum+"\n"), 0o644); err != nil {
			return &repoerr.Remote{Err: &repoerr.IO{Context: "write ref " + refspec, Err: err}}
		}
	}
	return nil
}

func (l *Local) pathFor(refspec string) string {
	for i := 0; i < len(refspec); i++ {
		if refspec[i] == ':' {
			remote, ref := refspec[:i], refspec[i+1:]
			return filepath.Join(l.RefsDir, "remotes", remote, ref)
		}
	}
	return filepath.Join(l.RefsDir, "heads", refspec)
}
