package stats

import "github.com/zeebo/xxh3"

const initialTableSize = 1024

type entry struct {
	hash  uint64
	key   string
	used  bool
	stats RunningStats
}

// Table is the per-partition aggregate: an open-addressed hash table from
// key to RunningStats. Keys are looked up by their raw bytes, and a key
// string is allocated only the first time a key is seen. A Table is not
// safe for concurrent use; each worker owns its own.
type Table struct {
	entries []entry
	mask    uint64
	size    int
}

func NewTable() *Table {
	return &Table{
		entries: make([]entry, initialTableSize),
		mask:    initialTableSize - 1,
	}
}

// Fold adds value to the stats of key. key may be reused by the caller
// once Fold returns.
func (t *Table) Fold(key []byte, value float64) {
	if t.size >= len(t.entries)*3/4 {
		t.grow()
	}

	h := xxh3.Hash(key)
	for i := h & t.mask; ; i = (i + 1) & t.mask {
		e := &t.entries[i]
		if !e.used {
			*e = entry{hash: h, key: string(key), used: true, stats: newRunningStats(value)}
			t.size++
			return
		}
		if e.hash == h && e.key == string(key) {
			e.stats.Add(value)
			return
		}
	}
}

// Get returns the stats of key, if any value was folded for it.
func (t *Table) Get(key string) (RunningStats, bool) {
	h := xxh3.HashString(key)
	for i := h & t.mask; ; i = (i + 1) & t.mask {
		e := &t.entries[i]
		if !e.used {
			return RunningStats{}, false
		}
		if e.hash == h && e.key == key {
			return e.stats, true
		}
	}
}

// Len returns the number of distinct keys.
func (t *Table) Len() int { return t.size }

// Range calls fn for every key in unspecified order.
func (t *Table) Range(fn func(key string, s RunningStats)) {
	for i := range t.entries {
		if e := &t.entries[i]; e.used {
			fn(e.key, e.stats)
		}
	}
}

func (t *Table) grow() {
	old := t.entries
	t.entries = make([]entry, len(old)*2)
	t.mask = uint64(len(t.entries) - 1)
	for _, e := range old {
		if !e.used {
			continue
		}
		i := e.hash & t.mask
		for t.entries[i].used {
			i = (i + 1) & t.mask
		}
		t.entries[i] = e
	}
}
