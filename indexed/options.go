// Package indexed composes the engine primitives into record sets.
//
// A HashSet maps each key to exactly one record (hash table + compact store). A TreeSet maps
// each key to an ordered bucket of records (red-black tree + chains + compact store). Both keep
// only compact store indices in their index structure, so whenever the store relocates a
// payload to stay dense, the set re-points the stored index before returning to the caller.
//
// Reconciliation scans every key of the index structure, O(keys) per relocation.
package indexed

import (
	"github.com/sharedcode/idxstore/hashmap"
)

// Option customizes a record set.
type Option[T any] func(*config[T])

type config[T any] struct {
	overwrite    bool
	equal        func(a, b T) bool
	keyOf        func(T) string
	beforeRemove func(key string) error
	hasher       hashmap.Hasher
}

func newConfig[T any](opts []Option[T]) config[T] {
	c := config[T]{hasher: hashmap.MidSquare}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithOverwrite makes HashSet.Insert replace the payload of an existing key instead of
// failing with DuplicateKey.
func WithOverwrite[T any]() Option[T] {
	return func(c *config[T]) {
		c.overwrite = true
	}
}

// WithUniqueBy makes TreeSet.Insert fail with DuplicateKey when the key's bucket already holds
// a payload equal to the new one.
func WithUniqueBy[T any](eq func(a, b T) bool) Option[T] {
	return func(c *config[T]) {
		c.equal = eq
	}
}

// WithKeyOf tells the set how to derive a payload's key, letting CheckIntegrity verify that
// every stored index resolves to a payload owned by that key.
func WithKeyOf[T any](fn func(T) string) Option[T] {
	return func(c *config[T]) {
		c.keyOf = fn
	}
}

// WithBeforeRemove registers a hook run before any record of key is removed. A non-nil error
// aborts the removal and leaves the set unchanged.
func WithBeforeRemove[T any](fn func(key string) error) Option[T] {
	return func(c *config[T]) {
		c.beforeRemove = fn
	}
}

// WithHasher selects the primary hash of a HashSet's table.
func WithHasher[T any](h hashmap.Hasher) Option[T] {
	return func(c *config[T]) {
		if h != nil {
			c.hasher = h
		}
	}
}

func (c config[T]) checkRemove(key string) error {
	if c.beforeRemove == nil {
		return nil
	}
	return c.beforeRemove(key)
}
