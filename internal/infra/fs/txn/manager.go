// Package txn implements the transaction and commit assembler (spec.md
// §4.5, C5): prepare/commit/abort lifecycle, the stale-transaction symlink
// marker, pending ref bookkeeping, and commit-object assembly. This
// package occupies the directory the teacher's own write-ahead transaction
// engine lived in (internal/infra/fs/txn/manager.go et al., all since
// rewritten); the lifecycle shape (prepare/commit/abort, a crash marker,
// recorded statistics) is carried over even though the staging model
// underneath it is entirely different.
package txn

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/imgrepo/imgrepo/internal/devino"
	"github.com/imgrepo/imgrepo/internal/infra/fs"
	"github.com/imgrepo/imgrepo/internal/objwriter"
	"github.com/imgrepo/imgrepo/internal/refupdater"
	"github.com/imgrepo/imgrepo/internal/repoerr"
	"github.com/imgrepo/imgrepo/internal/storagemode"
)

// Manager owns one repository's write-transaction state: it is not safe
// for concurrent use by more than one goroutine (spec.md §5 "pending_refs,
// devino_cache, and in_transaction are owned by the single writer and not
// locked"), except for the stats counters which carry their own mutex.
type Manager struct {
	RepoRoot          string
	ObjectsDir        string
	TmpDir            string
	Mode              storagemode.Mode
	ParentObjectsDirs []string // outermost parent first

	RefUpdater refupdater.Updater
	Log        fs.Logger

	Writer *objwriter.Writer
	Devino *devino.Cache

	// TxnID is a fresh ULID minted by each Prepare call, carried in every
	// lifecycle log line so a crash-resume's log output can be correlated
	// with the transaction that produced it.
	TxnID string

	statsMu sync.Mutex
	stats   Stats

	inTransaction bool
	pendingRefs   map[string]refupdater.Ref
}

// New builds a Manager rooted at repoRoot. Call Prepare before any write
// or set-ref call.
func New(repoRoot string, mode storagemode.Mode, updater refupdater.Updater) *Manager {
	objectsDir := repoRoot + "/objects"
	tmpDir := repoRoot + "/tmp"
	return &Manager{
		RepoRoot:   repoRoot,
		ObjectsDir: objectsDir,
		TmpDir:     tmpDir,
		Mode:       mode,
		RefUpdater: updater,
		Log:        fs.GetLogger(),
		Writer:     &objwriter.Writer{ObjectsDir: objectsDir, TmpDir: tmpDir, Mode: mode},
		Devino:     devino.New(mode),
	}
}

func (m *Manager) requireInTransaction(op string) error {
	if !m.inTransaction {
		return &repoerr.Precondition{Reason: op + " called outside a transaction"}
	}
	return nil
}

// InTransaction reports whether a transaction is currently open.
func (m *Manager) InTransaction() bool {
	return m.inTransaction
}
