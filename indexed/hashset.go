package indexed

import (
	"iter"
	log "log/slog"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/compactstore"
	"github.com/sharedcode/idxstore/hashmap"
)

// HashSet is a 1:1 record set. Each key owns exactly one payload. It is not safe for
// concurrent use.
type HashSet[T any] struct {
	name        string
	index       *hashmap.Map[int]
	store       *compactstore.Store[T]
	cfg         config[T]
	relocations uint64
}

// NewHashSet returns an empty set whose table starts at capacity slots, or at
// idxstore.DefaultCapacity when capacity is not positive.
func NewHashSet[T any](name string, capacity int, opts ...Option[T]) *HashSet[T] {
	if capacity <= 0 {
		capacity = idxstore.DefaultCapacity
	}
	cfg := newConfig(opts)
	return &HashSet[T]{
		name:  name,
		index: hashmap.New[int](capacity, hashmap.WithHasher(cfg.hasher)),
		store: compactstore.New[T](capacity),
		cfg:   cfg,
	}
}

// Name returns the set name given at construction.
func (s *HashSet[T]) Name() string {
	return s.name
}

// Len returns the count of records.
func (s *HashSet[T]) Len() int {
	return s.store.Len()
}

// Insert adds payload under key. An existing key fails with DuplicateKey unless the set was
// built WithOverwrite, in which case the payload is replaced in place.
func (s *HashSet[T]) Insert(key string, payload T) error {
	if i, ok := s.index.Get(key); ok {
		if !s.cfg.overwrite {
			return idxstore.NewError(idxstore.DuplicateKey, key)
		}
		s.store.Update(i, payload)
		return nil
	}
	i := s.store.Add(payload)
	if err := s.index.Put(key, i); err != nil {
		// i is the last slot so this removal never relocates.
		s.store.Remove(i)
		return err
	}
	return nil
}

// Find returns the payload of key.
func (s *HashSet[T]) Find(key string) (T, bool) {
	var zero T
	i, ok := s.index.Get(key)
	if !ok {
		return zero, false
	}
	return s.store.Get(i)
}

// Contains reports whether key is in the set.
func (s *HashSet[T]) Contains(key string) bool {
	return s.index.Contains(key)
}

// Update replaces the payload of an existing key.
func (s *HashSet[T]) Update(key string, payload T) error {
	i, ok := s.index.Get(key)
	if !ok {
		return idxstore.NewError(idxstore.NotFound, key)
	}
	s.store.Update(i, payload)
	return nil
}

// RemoveOne removes the record of key. It returns false when key is absent.
func (s *HashSet[T]) RemoveOne(key string) (bool, error) {
	i, ok := s.index.Get(key)
	if !ok {
		return false, nil
	}
	if err := s.cfg.checkRemove(key); err != nil {
		return false, err
	}
	if _, err := s.index.Delete(key); err != nil {
		return false, err
	}
	rel, err := s.store.Remove(i)
	if err != nil {
		return false, idxstore.Errorf(idxstore.IntegrityViolation, "set %s: key %q held index %d: %v", s.name, key, i, err)
	}
	s.reconcile(rel)
	return true, nil
}

// RemoveAll removes every record of key and returns how many were removed, 0 or 1.
func (s *HashSet[T]) RemoveAll(key string) (int, error) {
	ok, err := s.RemoveOne(key)
	if !ok || err != nil {
		return 0, err
	}
	return 1, nil
}

// Keys iterates the keys in table slot order.
func (s *HashSet[T]) Keys() iter.Seq[string] {
	return s.index.Keys()
}

// All iterates key and payload pairs in table slot order.
func (s *HashSet[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for k, i := range s.index.All() {
			p, _ := s.store.Get(i)
			if !yield(k, p) {
				return
			}
		}
	}
}

// Clear removes every record. The table keeps its capacity.
func (s *HashSet[T]) Clear() {
	s.index.Clear()
	s.store.Clear()
}

// Stats returns a snapshot of the set's shape and table health.
func (s *HashSet[T]) Stats() Stats {
	ps := s.index.PerformanceStats()
	eff := 1.0
	if ps.Occupied+ps.Deleted > 0 {
		eff = float64(ps.Occupied) / float64(ps.Occupied+ps.Deleted)
	}
	return Stats{
		Name:        s.name,
		Shape:       OneToOne,
		Size:        s.store.Len(),
		Keys:        s.index.Len(),
		Capacity:    ps.Capacity,
		LoadFactor:  ps.LoadFactor,
		Tombstones:  ps.Deleted,
		Valid:       s.CheckIntegrity() == nil,
		Efficiency:  eff,
		Relocations: s.relocations,
	}
}

// CheckIntegrity verifies that every key maps to a distinct valid store index, that the index
// covers the whole store and, when the set knows how to key a payload, that each index resolves
// to a payload owned by its key.
func (s *HashSet[T]) CheckIntegrity() error {
	seen := make(map[int]string, s.index.Len())
	for k, i := range s.index.All() {
		if !s.store.IsValidIndex(i) {
			return idxstore.Errorf(idxstore.IntegrityViolation, "set %s: key %q holds invalid index %d", s.name, k, i)
		}
		if other, dup := seen[i]; dup {
			return idxstore.Errorf(idxstore.IntegrityViolation, "set %s: keys %q and %q share index %d", s.name, other, k, i)
		}
		seen[i] = k
		if s.cfg.keyOf != nil {
			p, _ := s.store.Get(i)
			if owner := s.cfg.keyOf(p); owner != k {
				return idxstore.Errorf(idxstore.IntegrityViolation, "set %s: key %q resolves to payload of %q", s.name, k, owner)
			}
		}
	}
	if len(seen) != s.store.Len() {
		return idxstore.Errorf(idxstore.IntegrityViolation, "set %s: %d keys for %d records", s.name, len(seen), s.store.Len())
	}
	return nil
}

func (s *HashSet[T]) reconcile(rel *compactstore.Relocation) {
	if rel == nil {
		return
	}
	n := s.index.Remap(func(_ string, v int) (int, bool) {
		if v == rel.MovedFrom {
			return rel.NewIndex, true
		}
		return v, false
	})
	s.relocations++
	log.Debug("reconciled relocation", "set", s.name, "from", rel.MovedFrom, "to", rel.NewIndex, "updated", n)
}
