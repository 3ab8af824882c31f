package mutation

import (
	"sync"

	"github.com/dalemusser/raciconsole/internal/domain/models"
)

// Collection is the canonical, ordered record list of one view.
//
// Every change replaces the backing slice rather than writing into it, so a
// slice returned by Snapshot is never modified afterwards and may be shared.
// The version increases with every change; the fetch generation only
// with Replace.
type Collection struct {
	mu      sync.RWMutex
	records []models.Record
	version uint64
	fetches uint64
}

// NewCollection wraps records (which the collection takes ownership of).
func NewCollection(records []models.Record) *Collection {
	if records == nil {
		records = []models.Record{}
	}
	return &Collection{records: records, version: 1}
}

// Snapshot returns the current records and version.
func (c *Collection) Snapshot() ([]models.Record, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records, c.version
}

// Version returns the current version.
func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Find returns the record with id and its position.
func (c *Collection) Find(id string) (models.Record, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := indexOf(c.records, id)
	if i < 0 {
		return models.Record{}, -1, false
	}
	return c.records[i], i, true
}

// Replace swaps in a freshly fetched list.
func (c *Collection) Replace(records []models.Record) {
	if records == nil {
		records = []models.Record{}
	}
	c.mu.Lock()
	c.records = records
	c.version++
	c.fetches++
	c.mu.Unlock()
}

// fetchGeneration counts the lists installed by Replace.
func (c *Collection) fetchGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetches
}

// edit runs fn on a private copy of the records and installs the result
// if fn reports a change.
func (c *Collection) edit(fn func(rs []models.Record) ([]models.Record, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]models.Record, len(c.records), len(c.records)+1)
	copy(cp, c.records)
	next, changed := fn(cp)
	if !changed {
		return false
	}
	c.records = next
	c.version++
	return true
}

func (c *Collection) appendRecord(r models.Record) {
	c.edit(func(rs []models.Record) ([]models.Record, bool) {
		return append(rs, r), true
	})
}

// put replaces the record with id. It reports false if id is absent.
func (c *Collection) put(id string, r models.Record) bool {
	return c.edit(func(rs []models.Record) ([]models.Record, bool) {
		i := indexOf(rs, id)
		if i < 0 {
			return rs, false
		}
		rs[i] = r
		return rs, true
	})
}

// neighbours are the ids around a removed record, nearest first.
type neighbours struct {
	before []string
	after  []string
}

// remove deletes the record with id and returns it with its neighbours.
func (c *Collection) remove(id string) (models.Record, neighbours, bool) {
	var (
		removed models.Record
		around  neighbours
		found   bool
	)
	c.edit(func(rs []models.Record) ([]models.Record, bool) {
		i := indexOf(rs, id)
		if i < 0 {
			return rs, false
		}
		removed, found = rs[i], true
		around.before = make([]string, 0, i)
		for j := i - 1; j >= 0; j-- {
			around.before = append(around.before, rs[j].ID)
		}
		around.after = make([]string, 0, len(rs)-i-1)
		for j := i + 1; j < len(rs); j++ {
			around.after = append(around.after, rs[j].ID)
		}
		return append(rs[:i], rs[i+1:]...), true
	})
	return removed, around, found
}

// restore puts r back next to its nearest surviving neighbour: after the
// closest earlier record still present, else before the closest later one,
// else at the end. Nothing happens if r's id is present.
func (c *Collection) restore(r models.Record, around neighbours) bool {
	return c.edit(func(rs []models.Record) ([]models.Record, bool) {
		if indexOf(rs, r.ID) >= 0 {
			return rs, false
		}
		at := len(rs)
		if i := firstPresent(rs, around.before); i >= 0 {
			at = i + 1
		} else if i := firstPresent(rs, around.after); i >= 0 {
			at = i
		}
		return insertAt(rs, at, r), true
	})
}

// insert appends r unless its id is present.
func (c *Collection) insert(r models.Record) bool {
	return c.edit(func(rs []models.Record) ([]models.Record, bool) {
		if indexOf(rs, r.ID) >= 0 {
			return rs, false
		}
		return append(rs, r), true
	})
}

func insertAt(rs []models.Record, at int, r models.Record) []models.Record {
	rs = append(rs, models.Record{})
	copy(rs[at+1:], rs[at:])
	rs[at] = r
	return rs
}

func firstPresent(rs []models.Record, ids []string) int {
	for _, id := range ids {
		if i := indexOf(rs, id); i >= 0 {
			return i
		}
	}
	return -1
}

func indexOf(rs []models.Record, id string) int {
	for i := range rs {
		if rs[i].ID == id {
			return i
		}
	}
	return -1
}
