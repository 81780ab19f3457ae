package txn

import (
	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/objwriter"
)

// Stats is the write-count summary a transaction reports on commit
// (spec.md §6 "Statistics returned on commit"). Every field covers the
// entire transaction, not just the most recent write.
type Stats struct {
	MetadataObjectsWritten uint64
	ContentObjectsWritten  uint64
	ContentBytesWritten    uint64
	MetadataObjectsTotal   uint64
	ContentObjectsTotal    uint64
}

// recordWrite folds one objwriter.Result into the running stats under the
// kind-specific bucket spec.md §4.2 step 9 describes: FILE objects count
// as content, everything else (DIR_META, DIR_TREE, COMMIT) as metadata.
// declaredLength is only added to content_bytes_written when the write
// actually placed a new object; a deduplicated write contributes to the
// *_total counters but not to the written counters.
func (m *Manager) recordWrite(kind objects.Kind, res objwriter.Result, declaredLength int64) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	if kind == objects.FileKind {
		m.stats.ContentObjectsTotal++
		if res.Placed {
			m.stats.ContentObjectsWritten++
			m.stats.ContentBytesWritten += uint64(declaredLength)
		}
		return
	}
	m.stats.MetadataObjectsTotal++
	if res.Placed {
		m.stats.MetadataObjectsWritten++
	}
}

func (m *Manager) snapshotStats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

func (m *Manager) resetStats() {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	m.stats = Stats{}
}
