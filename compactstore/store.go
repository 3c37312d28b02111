// Package compactstore holds record payloads in a dense, zero based slice. Removing an element
// other than the last moves the last element into the vacated slot, so the store never has
// gaps, and reports that move to the caller.
package compactstore

import (
	"iter"

	"github.com/sharedcode/idxstore"
)

// Relocation reports that the payload formerly at MovedFrom now lives at NewIndex.
// Any structure holding MovedFrom as a reference must re-point it to NewIndex.
type Relocation struct {
	MovedFrom int
	NewIndex  int
}

// Store is a dense payload array. It is not safe for concurrent use.
type Store[T any] struct {
	items []T
}

// New returns an empty store with room for capacity payloads.
func New[T any](capacity int) *Store[T] {
	return &Store[T]{items: make([]T, 0, max(capacity, 0))}
}

// Len returns the count of payloads.
func (s *Store[T]) Len() int {
	return len(s.items)
}

// IsValidIndex reports whether 0 <= i < Len().
func (s *Store[T]) IsValidIndex(i int) bool {
	return i >= 0 && i < len(s.items)
}

// Add appends payload and returns its index, the new last index.
func (s *Store[T]) Add(payload T) int {
	s.items = append(s.items, payload)
	return len(s.items) - 1
}

// Get returns the payload at i. Out of range indices are reported as not found.
func (s *Store[T]) Get(i int) (T, bool) {
	if !s.IsValidIndex(i) {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Update replaces the payload at i. Out of range indices are reported as not found.
func (s *Store[T]) Update(i int, payload T) bool {
	if !s.IsValidIndex(i) {
		return false
	}
	s.items[i] = payload
	return true
}

// Remove deletes the payload at i. When i is not the last index the last payload is moved
// into i and the move is returned. A nil Relocation means nothing moved.
func (s *Store[T]) Remove(i int) (*Relocation, error) {
	if !s.IsValidIndex(i) {
		return nil, idxstore.NewError(idxstore.InvalidIndex, i)
	}
	last := len(s.items) - 1
	var zero T
	if i == last {
		s.items[last] = zero
		s.items = s.items[:last]
		return nil, nil
	}
	s.items[i] = s.items[last]
	s.items[last] = zero
	s.items = s.items[:last]
	return &Relocation{MovedFrom: last, NewIndex: i}, nil
}

// All returns a restartable sequence of index, payload pairs in index order.
func (s *Store[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range s.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Clear removes every payload.
func (s *Store[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}
