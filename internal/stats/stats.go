// Package stats holds per-key running statistics in fixed-point tenths.
package stats

import (
	"fmt"
	"math"

	"github.com/dolthub/swiss"

	"github.com/example/brc/internal/fault"
)

// Entry accumulates the observations of one key. Min, Max and Sum are in
// tenths. An entry with Count > 0 always has Min <= Max.
type Entry struct {
	Name  string
	Count uint64
	Min   int64
	Max   int64
	Sum   int64
}

// NewEntry returns an entry with no observations.
func NewEntry(name string) *Entry {
	return &Entry{Name: name, Min: math.MaxInt64, Max: math.MinInt64}
}

// Add applies one observation.
func (e *Entry) Add(v int64) {
	e.Count++
	e.Sum += v
	if v < e.Min {
		e.Min = v
	}
	if v > e.Max {
		e.Max = v
	}
}

// Combine folds o into e.
func (e *Entry) Combine(o *Entry) {
	e.Count += o.Count
	e.Sum += o.Sum
	e.Min = min(e.Min, o.Min)
	e.Max = max(e.Max, o.Max)
}

// DefaultCapacity is the initial size of a table; the 1BRC key universe
// tops out around ten thousand names.
const DefaultCapacity = 1 << 14

// Table maps key identities to entries. A Table is owned by one goroutine
// at a time.
type Table struct {
	m *swiss.Map[uint64, *Entry]
}

// NewTable returns an empty table sized for capacity keys.
func NewTable(capacity int) *Table {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Table{m: swiss.NewMap[uint64, *Entry](uint32(capacity))}
}

// Seed registers name under id with no observations. Seeding an id twice
// keeps the first entry.
func (t *Table) Seed(id uint64, name string) {
	if _, ok := t.m.Get(id); !ok {
		t.m.Put(id, NewEntry(name))
	}
}

// Observe records value v for key under id, creating the entry on first
// sight. A different name already stored under id is a collision fault.
func (t *Table) Observe(id uint64, key []byte, v int64) error {
	e, ok := t.m.Get(id)
	if !ok {
		e = NewEntry(string(key))
		t.m.Put(id, e)
	} else if e.Name != string(key) {
		return fmt.Errorf("%q and %q: %w", e.Name, key, fault.ErrKeyCollision)
	}
	e.Add(v)
	return nil
}

// Merge folds every entry of o into t. o must not be used afterwards.
func (t *Table) Merge(o *Table) error {
	var err error
	o.m.Iter(func(id uint64, oe *Entry) bool {
		e, ok := t.m.Get(id)
		if !ok {
			t.m.Put(id, oe)
			return false
		}
		if e.Name != oe.Name {
			err = fmt.Errorf("%q and %q: %w", e.Name, oe.Name, fault.ErrKeyCollision)
			return true
		}
		e.Combine(oe)
		return false
	})
	return err
}

// Get returns the entry stored under id.
func (t *Table) Get(id uint64) (*Entry, bool) {
	return t.m.Get(id)
}

// Len is the number of keys in t, observed or seeded.
func (t *Table) Len() int { return t.m.Count() }

// Each calls fn for every entry in unspecified order.
func (t *Table) Each(fn func(id uint64, e *Entry)) {
	t.m.Iter(func(id uint64, e *Entry) bool {
		fn(id, e)
		return false
	})
}

// Entries returns a copy of every entry with at least one observation.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.Len())
	t.Each(func(_ uint64, e *Entry) {
		if e.Count > 0 {
			out = append(out, *e)
		}
	})
	return out
}
