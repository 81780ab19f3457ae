package txn

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/imgrepo/imgrepo/internal/repoerr"
)

func (m *Manager) markerPath() string {
	return filepath.Join(m.RepoRoot, "transaction")
}

// detectStale reports whether a prior transaction's symlink marker is
// still present — the crash-recovery signal spec.md §4.5 "Prepare"
// describes — and removes it if so.
func (m *Manager) detectStale() (resumed bool, err error) {
	path := m.markerPath()
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &repoerr.IO{Context: "lstat " + path, Err: err}
	}
	if info.Mode()&os.ModeSymlink == 0 {
		// Not a symlink: not our marker, leave it alone.
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, &repoerr.IO{Context: "remove stale transaction marker", Err: err}
	}
	return true, nil
}

func (m *Manager) createMarker() error {
	target := fmt.Sprintf("pid=%d", os.Getpid())
	if err := os.Symlink(target, m.markerPath()); err != nil {
		return &repoerr.IO{Context: "create transaction marker", Err: err}
	}
	return nil
}

func (m *Manager) removeMarker() error {
	if err := os.Remove(m.markerPath()); err != nil && !os.IsNotExist(err) {
		return &repoerr.IO{Context: "remove transaction marker", Err: err}
	}
	return nil
}
