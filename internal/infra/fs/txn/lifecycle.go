package txn

import (
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/imgrepo/imgrepo/internal/devino"
	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/refupdater"
	"github.com/imgrepo/imgrepo/internal/repoerr"
)

// Prepare opens a transaction: it detects and clears a stale marker left
// by a crashed prior process (spec.md §4.5 "Prepare"), resets the write
// statistics, and plants this process's own marker. resumed is true when
// a stale marker was found, signalling to the caller that the tmp/
// directory may hold orphaned temp files from the crashed writer; Prepare
// itself does not clean tmp/ (that happens on Commit/Abort) so a caller
// that wants to inspect the wreckage still can.
func (m *Manager) Prepare() (resumed bool, err error) {
	if m.inTransaction {
		return false, &repoerr.Precondition{Reason: "prepare called while a transaction is already open"}
	}

	resumed, err = m.detectStale()
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(m.TmpDir, 0o777); err != nil {
		return false, &repoerr.IO{Context: "mkdir " + m.TmpDir, Err: err}
	}
	if err := m.createMarker(); err != nil {
		return false, err
	}

	m.TxnID = ulid.Make().String()
	m.resetStats()
	m.pendingRefs = make(map[string]refupdater.Ref)
	m.inTransaction = true
	if resumed {
		m.Log.Warn("txn %s resumed after a stale marker (crash recovery)", m.TxnID)
	} else {
		m.Log.Info("txn %s prepared", m.TxnID)
	}
	return resumed, nil
}

// SetRefspec records a pending ref update, applied atomically on Commit.
// checksum nil means delete the ref.
func (m *Manager) SetRefspec(refspec string, checksum *objects.Checksum) error {
	if err := m.requireInTransaction("set_refspec"); err != nil {
		return err
	}
	if checksum == nil {
		m.pendingRefs[refspec] = refupdater.Ref{Delete: true}
		return nil
	}
	m.pendingRefs[refspec] = refupdater.Ref{Checksum: checksum.Hex()}
	return nil
}

// SetRef is SetRefspec with the remote/ref split spec.md §6 exposes as a
// convenience over the raw refspec form.
func (m *Manager) SetRef(remote *string, ref string, checksum *objects.Checksum) error {
	refspec := ref
	if remote != nil {
		refspec = *remote + ":" + ref
	}
	return m.SetRefspec(refspec, checksum)
}

// Commit applies all pending ref changes and closes the transaction,
// returning the accumulated write statistics (spec.md §4.5 "Commit").
func (m *Manager) Commit() (Stats, error) {
	if err := m.requireInTransaction("commit"); err != nil {
		return Stats{}, err
	}

	if len(m.pendingRefs) > 0 {
		if err := m.RefUpdater.Apply(m.pendingRefs); err != nil {
			return Stats{}, err
		}
	}

	stats := m.snapshotStats()
	m.cleanupTransactionState()
	if err := m.removeMarker(); err != nil {
		return stats, err
	}
	m.Log.Info("txn %s committed", m.TxnID)
	return stats, nil
}

// Abort discards all pending ref changes and closes the transaction
// without touching the refs namespace (spec.md §4.5 "Abort"). Safe to
// call on an already-closed manager; it is a no-op in that case.
func (m *Manager) Abort() error {
	if !m.inTransaction {
		return nil
	}
	m.cleanupTransactionState()
	return m.removeMarker()
}

func (m *Manager) cleanupTransactionState() {
	m.cleanTmp()
	m.Devino = devino.New(m.Mode)
	m.pendingRefs = nil
	m.inTransaction = false
}

// cleanTmp removes every entry under tmp/ — orphaned partial objects from
// this transaction (and, after a crash/resume, the previous one).
func (m *Manager) cleanTmp() {
	entries, err := os.ReadDir(m.TmpDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(m.TmpDir, e.Name()))
	}
}

// ScanHardlinks (re)builds the device+inode cache from this repository's
// object store and, if ParentObjectsDirs is set, from each parent in the
// chain, outermost first (spec.md §9 "Parent-repo chain"): a later scan's
// entries are never evicted by an earlier one, so the local repo's own
// objects always win a lookup tie.
func (m *Manager) ScanHardlinks() error {
	cache := devino.New(m.Mode)
	for _, dir := range m.ParentObjectsDirs {
		if err := cache.Build(dir); err != nil {
			return &repoerr.IO{Context: "scan hardlinks in " + dir, Err: err}
		}
	}
	if err := cache.Build(m.ObjectsDir); err != nil {
		return &repoerr.IO{Context: "scan hardlinks in " + m.ObjectsDir, Err: err}
	}
	m.Devino = cache
	return nil
}
