// Package hashmap implements an open addressing hash table keyed by strings. Collisions are
// resolved by probing with a key dependent step, deletions leave tombstones, and the table
// grows to the next prime at least twice its capacity once three quarters of it is live.
package hashmap

import (
	"iter"
	log "log/slog"

	"github.com/sharedcode/idxstore"
)

const (
	// MinCapacity is the smallest table capacity ever allocated.
	MinCapacity = 11
	// MaxLoadFactor is the live entry ratio at which Put grows the table first.
	MaxLoadFactor = 0.75
)

type slotState uint8

const (
	empty slotState = iota
	occupied
	deleted
)

type slot[V any] struct {
	key   string
	value V
	state slotState
}

// Option customizes a Map.
type Option func(*options)

type options struct {
	hasher Hasher
}

// WithHasher replaces the MidSquare primary hash.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// Map is an open addressing hash table. It is not safe for concurrent use.
type Map[V any] struct {
	slots   []slot[V]
	size    int
	deleted int
	hasher  Hasher
}

// New returns a Map. A capacity > 0 initializes the table, otherwise the table stays
// uninitialized until Initialize is called.
func New[V any](capacity int, opts ...Option) *Map[V] {
	o := options{hasher: MidSquare}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Map[V]{hasher: o.hasher}
	if capacity > 0 {
		m.Initialize(capacity)
	}
	return m
}

// Initialize allocates nextPrime(max(MinCapacity, capacity)) empty slots, discarding any content.
func (m *Map[V]) Initialize(capacity int) error {
	if capacity <= 0 {
		return idxstore.NewError(idxstore.InvalidCapacity, capacity)
	}
	m.slots = make([]slot[V], nextPrime(max(MinCapacity, capacity)))
	m.size = 0
	m.deleted = 0
	return nil
}

// IsInitialized reports whether the table has slots allocated.
func (m *Map[V]) IsInitialized() bool {
	return m.slots != nil
}

// Capacity returns the slot count.
func (m *Map[V]) Capacity() int {
	return len(m.slots)
}

// Len returns the count of live entries.
func (m *Map[V]) Len() int {
	return m.size
}

// LoadFactor returns live entries divided by capacity.
func (m *Map[V]) LoadFactor() float64 {
	if len(m.slots) == 0 {
		return 0
	}
	return float64(m.size) / float64(len(m.slots))
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	var zero V
	if !m.IsInitialized() {
		return zero, false
	}
	i, found, _ := m.locate(key)
	if !found {
		return zero, false
	}
	return m.slots[i].value, true
}

// Contains reports whether key has a live entry.
func (m *Map[V]) Contains(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Put stores value under key, updating it in place when key is already present.
func (m *Map[V]) Put(key string, value V) error {
	if !m.IsInitialized() {
		return idxstore.NewError(idxstore.UninitializedStructure, key)
	}
	if m.atThreshold(m.size) {
		m.rehash(nextPrime(2 * len(m.slots)))
	} else if m.atThreshold(m.size + m.deleted) {
		// Only tombstones push the table over; purge them without growing.
		m.rehash(len(m.slots))
	}

	i, found, free := m.locate(key)
	if found {
		m.slots[i].value = value
		return nil
	}
	if free < 0 {
		return idxstore.NewError(idxstore.CapacityExhausted, key)
	}
	if m.slots[free].state == deleted {
		m.deleted--
	}
	m.slots[free] = slot[V]{key: key, value: value, state: occupied}
	m.size++
	return nil
}

// Delete tombstones the entry of key. It reports whether the key was present.
func (m *Map[V]) Delete(key string) (bool, error) {
	if !m.IsInitialized() {
		return false, idxstore.NewError(idxstore.UninitializedStructure, key)
	}
	i, found, _ := m.locate(key)
	if !found {
		return false, nil
	}
	var zero V
	m.slots[i].value = zero
	m.slots[i].state = deleted
	m.size--
	m.deleted++
	return true, nil
}

// Remap calls fn for every live entry and stores the returned value when fn reports a change.
// The table layout is left untouched. It returns the count of changed entries.
func (m *Map[V]) Remap(fn func(key string, value V) (V, bool)) int {
	changed := 0
	for i := range m.slots {
		s := &m.slots[i]
		if s.state != occupied {
			continue
		}
		if v, ok := fn(s.key, s.value); ok {
			s.value = v
			changed++
		}
	}
	return changed
}

// All returns a restartable sequence of the live entries in slot order.
// The map must not be mutated while the sequence is being consumed.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for i := range m.slots {
			if m.slots[i].state == occupied && !yield(m.slots[i].key, m.slots[i].value) {
				return
			}
		}
	}
}

// Keys returns a restartable sequence of the live keys in slot order.
func (m *Map[V]) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Clear empties every slot, keeping the current capacity.
func (m *Map[V]) Clear() {
	if m.slots != nil {
		clear(m.slots)
	}
	m.size = 0
	m.deleted = 0
}

// PerformanceStats is a slot occupancy snapshot.
type PerformanceStats struct {
	Capacity   int
	Size       int
	Empty      int
	Occupied   int
	Deleted    int
	LoadFactor float64
}

// PerformanceStats counts empty, occupied and tombstoned slots. It has no side effects.
func (m *Map[V]) PerformanceStats() PerformanceStats {
	ps := PerformanceStats{Capacity: len(m.slots), Size: m.size, LoadFactor: m.LoadFactor()}
	for i := range m.slots {
		switch m.slots[i].state {
		case empty:
			ps.Empty++
		case occupied:
			ps.Occupied++
		case deleted:
			ps.Deleted++
		}
	}
	return ps
}

func (m *Map[V]) atThreshold(n int) bool {
	return float64(n) >= float64(len(m.slots))*MaxLoadFactor
}

// locate walks key's probe sequence. It returns the slot holding key when found, and the
// first slot an insert may use: the first tombstone seen, else the empty slot that ended the walk.
func (m *Map[V]) locate(key string) (int, bool, int) {
	c := uint64(len(m.slots))
	h := m.hasher.Hash(key) % c
	step := weight(key) % c
	if step == 0 {
		step = 1
	}
	free := -1
	for i := uint64(0); i < c; i++ {
		j := int((h + i*step) % c)
		s := &m.slots[j]
		switch s.state {
		case empty:
			if free < 0 {
				free = j
			}
			return -1, false, free
		case deleted:
			if free < 0 {
				free = j
			}
		case occupied:
			if s.key == key {
				return j, true, free
			}
		}
	}
	return -1, false, free
}

func (m *Map[V]) rehash(capacity int) {
	old := m.slots
	m.slots = make([]slot[V], capacity)
	m.size = 0
	m.deleted = 0
	for i := range old {
		if old[i].state != occupied {
			continue
		}
		_, _, free := m.locate(old[i].key)
		m.slots[free] = old[i]
		m.size++
	}
	log.Debug("hashmap rehashed", "old_capacity", len(old), "capacity", capacity, "size", m.size)
}
