package projection

import (
	"sync"

	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// Memo caches the last projection of a collection. It recomputes only when
// the collection version or the spec key changes, so repeated views of an
// unchanged collection return the very same slice.
//
// Callers must bump the version on every change to the collection and must
// not modify a returned slice.
type Memo struct {
	Engine Engine

	mu      sync.Mutex
	valid   bool
	version uint64
	key     string
	rows    []models.Record
}

// NewMemo returns a memo projecting with e.
func NewMemo(e Engine) *Memo {
	return &Memo{Engine: e}
}

// View returns the projection of records under spec for the given version.
func (m *Memo) View(version uint64, records []models.Record, spec Spec) []models.Record {
	key := spec.Key()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.version == version && m.key == key {
		return m.rows
	}
	m.rows = m.Engine.Project(records, spec)
	m.version = version
	m.key = key
	m.valid = true
	return m.rows
}

// Invalidate forces the next View to recompute.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	m.valid = false
	m.rows = nil
	m.mu.Unlock()
}
