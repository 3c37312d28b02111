package indexed

import (
	"iter"
	log "log/slog"
	"slices"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/chain"
	"github.com/sharedcode/idxstore/compactstore"
	"github.com/sharedcode/idxstore/rbtree"
)

// TreeSet is a 1:many record set. Keys are kept in order and each key owns a bucket of payloads
// kept in insertion order. It is not safe for concurrent use.
type TreeSet[T any] struct {
	name        string
	index       *rbtree.Tree[*chain.Chain[int]]
	store       *compactstore.Store[T]
	cfg         config[T]
	relocations uint64
}

// NewTreeSet returns an empty set.
func NewTreeSet[T any](name string, opts ...Option[T]) *TreeSet[T] {
	return &TreeSet[T]{
		name:  name,
		index: rbtree.New[*chain.Chain[int]](),
		store: compactstore.New[T](0),
		cfg:   newConfig(opts),
	}
}

// Name returns the set name given at construction.
func (s *TreeSet[T]) Name() string {
	return s.name
}

// Len returns the count of records across all keys.
func (s *TreeSet[T]) Len() int {
	return s.store.Len()
}

// KeyCount returns the count of distinct keys.
func (s *TreeSet[T]) KeyCount() int {
	return s.index.Len()
}

// Insert appends payload to key's bucket, creating the bucket if needed. With WithUniqueBy, a
// payload equal to one already in the bucket fails with DuplicateKey.
func (s *TreeSet[T]) Insert(key string, payload T) error {
	c, ok := s.index.Search(key)
	if ok && s.cfg.equal != nil {
		for i := range c.All() {
			if p, _ := s.store.Get(i); s.cfg.equal(p, payload) {
				return idxstore.NewError(idxstore.DuplicateKey, key)
			}
		}
	}
	i := s.store.Add(payload)
	if !ok {
		c = chain.New[int]()
		s.index.Insert(key, c)
	}
	c.Append(i)
	return nil
}

// Find returns key's payloads in insertion order, nil when key is absent.
func (s *TreeSet[T]) Find(key string) []T {
	c, ok := s.index.Search(key)
	if !ok {
		return nil
	}
	r := make([]T, 0, c.Len())
	for i := range c.All() {
		p, _ := s.store.Get(i)
		r = append(r, p)
	}
	return r
}

// Count returns the size of key's bucket.
func (s *TreeSet[T]) Count(key string) int {
	if c, ok := s.index.Search(key); ok {
		return c.Len()
	}
	return 0
}

// Contains reports whether key has at least one record.
func (s *TreeSet[T]) Contains(key string) bool {
	return s.index.Contains(key)
}

// RemoveOne removes the first record of key accepted by match, or the first record of key when
// match is nil. It returns false when nothing matched.
func (s *TreeSet[T]) RemoveOne(key string, match func(T) bool) (bool, error) {
	c, ok := s.index.Search(key)
	if !ok {
		return false, nil
	}
	target := -1
	for i := range c.All() {
		if p, _ := s.store.Get(i); match == nil || match(p) {
			target = i
			break
		}
	}
	if target < 0 {
		return false, nil
	}
	if err := s.cfg.checkRemove(key); err != nil {
		return false, err
	}
	s.unlink(key, c, target)
	if _, err := s.removeIndices([]int{target}); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveWhere removes every record of key accepted by match and returns how many were removed.
func (s *TreeSet[T]) RemoveWhere(key string, match func(T) bool) (int, error) {
	c, ok := s.index.Search(key)
	if !ok {
		return 0, nil
	}
	var targets []int
	for i := range c.All() {
		if p, _ := s.store.Get(i); match(p) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}
	if err := s.cfg.checkRemove(key); err != nil {
		return 0, err
	}
	for _, i := range targets {
		s.unlink(key, c, i)
	}
	return s.removeIndices(targets)
}

// RemoveAll removes key and all of its records and returns how many were removed.
func (s *TreeSet[T]) RemoveAll(key string) (int, error) {
	c, ok := s.index.Search(key)
	if !ok {
		return 0, nil
	}
	if err := s.cfg.checkRemove(key); err != nil {
		return 0, err
	}
	targets := c.ToSlice()
	s.index.Delete(key)
	return s.removeIndices(targets)
}

// Keys iterates the distinct keys in ascending order.
func (s *TreeSet[T]) Keys() iter.Seq[string] {
	return s.index.Keys()
}

// All iterates every record, keys ascending and each bucket in insertion order.
func (s *TreeSet[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for k, c := range s.index.InOrder() {
			for i := range c.All() {
				p, _ := s.store.Get(i)
				if !yield(k, p) {
					return
				}
			}
		}
	}
}

// Clear removes every record.
func (s *TreeSet[T]) Clear() {
	s.index.Clear()
	s.store.Clear()
}

// Export returns the key tree's structure, nil when the set is empty.
func (s *TreeSet[T]) Export() *rbtree.NodeView {
	return s.index.Export()
}

// Stats returns a snapshot of the set's shape and tree health.
func (s *TreeSet[T]) Stats() Stats {
	h := s.index.Height()
	return Stats{
		Name:        s.name,
		Shape:       OneToMany,
		Size:        s.store.Len(),
		Keys:        s.index.Len(),
		Height:      h,
		BlackHeight: s.index.BlackHeight(),
		Valid:       s.CheckIntegrity() == nil,
		Efficiency:  treeEfficiency(s.index.Len(), h),
		Relocations: s.relocations,
	}
}

// CheckIntegrity verifies the red-black properties of the key tree, that no bucket is empty and
// that the buckets together reference every store index exactly once.
func (s *TreeSet[T]) CheckIntegrity() error {
	if err := s.index.Validate(); err != nil {
		return idxstore.Errorf(idxstore.IntegrityViolation, "set %s: %v", s.name, err)
	}
	seen := make(map[int]string, s.store.Len())
	for k, c := range s.index.InOrder() {
		if c.IsEmpty() {
			return idxstore.Errorf(idxstore.IntegrityViolation, "set %s: key %q has an empty bucket", s.name, k)
		}
		for i := range c.All() {
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
	}
	if len(seen) != s.store.Len() {
		return idxstore.Errorf(idxstore.IntegrityViolation, "set %s: buckets reference %d of %d records", s.name, len(seen), s.store.Len())
	}
	return nil
}

// unlink drops index i from key's bucket and the key itself once the bucket empties.
func (s *TreeSet[T]) unlink(key string, c *chain.Chain[int], i int) {
	c.Remove(i)
	if c.IsEmpty() {
		s.index.Delete(key)
	}
}

// removeIndices removes store entries already unlinked from the tree. Highest index first, so
// a relocation never moves a payload that is still waiting to be removed.
func (s *TreeSet[T]) removeIndices(indices []int) (int, error) {
	slices.SortFunc(indices, func(a, b int) int { return b - a })
	for _, i := range indices {
		rel, err := s.store.Remove(i)
		if err != nil {
			return 0, idxstore.Errorf(idxstore.IntegrityViolation, "set %s: bucket held index %d: %v", s.name, i, err)
		}
		s.reconcile(rel)
	}
	return len(indices), nil
}

func (s *TreeSet[T]) reconcile(rel *compactstore.Relocation) {
	if rel == nil {
		return
	}
	n := 0
	for c := range s.index.Values() {
		if c.Replace(rel.MovedFrom, rel.NewIndex) {
			n++
		}
	}
	s.relocations++
	log.Debug("reconciled relocation", "set", s.name, "from", rel.MovedFrom, "to", rel.NewIndex, "updated", n)
}
