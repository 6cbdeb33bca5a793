package searcher

import (
	"sort"

	"comboenum/game"
)

const (
	// DefaultTableSize bounds a table that was built without an explicit
	// capacity.
	DefaultTableSize = 1 << 20

	// evictFraction is the share of entries dropped when the table is full.
	evictFraction = 0.10
)

// Entry is the cached outcome for one state key: the best terminal value
// known below that state and how many plies down that terminal was when the
// entry was stored. Exhausted means the whole subtree below the state ended
// voluntarily, with no cutoff truncating it. Visits is the only freely
// mutable field; (Value, Depth) only ever improve.
type Entry struct {
	Value     float64
	Depth     int
	Exhausted bool
	Visits    int
}

// better reports whether (value, depth) strictly improves on the entry.
// Deeper is better: an entry that captured more search below it saves more
// recomputation, with value breaking ties.
func (e *Entry) better(value float64, depth int) bool {
	if depth != e.Depth {
		return depth > e.Depth
	}
	return value > e.Value
}

// TableStats is a point-in-time snapshot of table counters.
type TableStats struct {
	Size       int
	Hits       int
	Misses     int
	Stores     int
	Overwrites int
	Evictions  int
}

func (s TableStats) HitRate() float64 {
	probes := s.Hits + s.Misses
	if probes == 0 {
		return 0
	}
	return float64(s.Hits) / float64(probes)
}

// Table memoizes search outcomes by state-key hash with bounded memory. It
// is touched only from its worker's single thread of control, so it takes
// no locks.
type Table struct {
	capacity int
	entries  map[game.StateHash]*Entry
	stats    TableStats
}

func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultTableSize
	}
	return &Table{
		capacity: capacity,
		entries:  make(map[game.StateHash]*Entry),
	}
}

// Lookup returns the entry for key, or nil on a miss. It never fails; a
// miss is an answer, not an error.
func (t *Table) Lookup(key game.StateHash) *Entry {
	entry, ok := t.entries[key]
	if !ok {
		t.stats.Misses++
		return nil
	}
	t.stats.Hits++
	entry.Visits++
	return entry
}

// Store records an outcome for key. A first occurrence inserts; a repeat
// key overwrites only if (value, depth) is strictly better than what is
// cached, and keeps the existing entry on ties so repeated runs stay
// deterministic.
func (t *Table) Store(key game.StateHash, value float64, depth int, exhausted bool) {
	if entry, ok := t.entries[key]; ok {
		if entry.better(value, depth) {
			entry.Value = value
			entry.Depth = depth
			t.stats.Overwrites++
		}
		// Exhaustion never un-happens: the subtree is the same subtree.
		entry.Exhausted = entry.Exhausted || exhausted
		return
	}

	if len(t.entries) >= t.capacity {
		t.evict()
	}
	t.entries[key] = &Entry{Value: value, Depth: depth, Exhausted: exhausted}
	t.stats.Stores++
}

// evict drops a fixed fraction of entries, shallowest and least revisited
// first: they are the cheapest to recompute, while deep entries represent
// more captured search work. Evicting an entry on the active call stack is
// safe; it only costs recomputation.
func (t *Table) evict() {
	n := int(float64(t.capacity) * evictFraction)
	if n < 1 {
		n = 1
	}

	type victim struct {
		key   game.StateHash
		entry *Entry
	}
	victims := make([]victim, 0, len(t.entries))
	for k, e := range t.entries {
		victims = append(victims, victim{k, e})
	}
	sort.Slice(victims, func(i, j int) bool {
		a, b := victims[i], victims[j]
		if a.entry.Depth != b.entry.Depth {
			return a.entry.Depth < b.entry.Depth
		}
		if a.entry.Visits != b.entry.Visits {
			return a.entry.Visits < b.entry.Visits
		}
		return a.key < b.key
	})

	for _, v := range victims[:n] {
		delete(t.entries, v.key)
		t.stats.Evictions++
	}
}

func (t *Table) Len() int {
	return len(t.entries)
}

func (t *Table) Stats() TableStats {
	stats := t.stats
	stats.Size = len(t.entries)
	return stats
}
