// Package snapshot holds the last-known synchronized state per issue:
// the record both sides agreed on, the remote timestamp, and the local
// file fingerprint at that moment. The change detector diffs against it
// and only the reconciler mutates it.
package snapshot

import (
	"sort"
	"sync"
	"time"

	"github.com/steveyegge/ghsync/internal/issue"
)

// Entry is one issue's snapshot: exactly one per issue number.
type Entry struct {
	Number          int
	Record          issue.Record
	RemoteUpdatedAt time.Time
	Fingerprint     string
	SyncedAt        time.Time
}

// Store is the snapshot table. Implementations must be safe for
// concurrent readers; writes are already serialized by the scheduler's
// pass lock.
type Store interface {
	// Get returns the entry for an issue number, if present.
	Get(number int) (Entry, bool, error)

	// Put inserts or replaces the entry for its issue number.
	Put(e Entry) error

	// All returns every entry ordered by issue number.
	All() ([]Entry, error)

	// Len returns the number of tracked issues.
	Len() (int, error)

	// Close releases underlying resources.
	Close() error
}

// Memory is the default in-process store, rebuilt each run from a full
// remote fetch plus a local directory scan.
type Memory struct {
	mu      sync.RWMutex
	entries map[int]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[int]Entry)}
}

// Get implements Store.Get.
func (m *Memory) Get(number int) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[number]
	return e, ok, nil
}

// Put implements Store.Put.
func (m *Memory) Put(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Number] = e
	return nil
}

// All implements Store.All.
func (m *Memory) All() ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// Len implements Store.Len.
func (m *Memory) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Close implements Store.Close. A no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
