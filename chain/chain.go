// Package chain provides the collision bucket used by ordered record sets: a doubly linked
// list of values sharing one logical key, in insertion order.
package chain

import "iter"

// node represents an element in the doubly linked list.
type node[T comparable] struct {
	data T
	prev *node[T]
	next *node[T]
}

// Chain is a doubly linked list with O(1) append and O(n) removal by value.
// The zero value is an empty chain ready to use.
type Chain[T comparable] struct {
	head *node[T]
	tail *node[T]
	size int
}

// New creates a new empty chain, optionally seeded with values in order.
func New[T comparable](values ...T) *Chain[T] {
	c := &Chain[T]{}
	for _, v := range values {
		c.Append(v)
	}
	return c
}

// Len returns the number of elements in the chain.
func (c *Chain[T]) Len() int {
	return c.size
}

// IsEmpty reports whether the chain has no elements.
func (c *Chain[T]) IsEmpty() bool {
	return c.head == nil
}

// Append adds data at the tail of the chain.
func (c *Chain[T]) Append(data T) {
	n := &node[T]{data: data, prev: c.tail}
	if c.tail != nil {
		c.tail.next = n
	} else {
		c.head = n
	}
	c.tail = n
	c.size++
}

// First returns the head value.
func (c *Chain[T]) First() (T, bool) {
	var zero T
	if c.head == nil {
		return zero, false
	}
	return c.head.data, true
}

// Last returns the tail value.
func (c *Chain[T]) Last() (T, bool) {
	var zero T
	if c.tail == nil {
		return zero, false
	}
	return c.tail.data, true
}

// Remove unlinks the first element equal to data. It reports whether one was found.
func (c *Chain[T]) Remove(data T) bool {
	n := c.find(data)
	if n == nil {
		return false
	}
	c.unlink(n)
	return true
}

// Replace overwrites the first element equal to old with repl, keeping its position.
func (c *Chain[T]) Replace(old, repl T) bool {
	n := c.find(old)
	if n == nil {
		return false
	}
	n.data = repl
	return true
}

// Contains reports whether an element equal to data is in the chain.
func (c *Chain[T]) Contains(data T) bool {
	return c.find(data) != nil
}

// All returns a restartable sequence over the chain, head to tail.
// The chain must not be mutated while the sequence is being consumed.
func (c *Chain[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := c.head; n != nil; n = n.next {
			if !yield(n.data) {
				return
			}
		}
	}
}

// ToSlice materializes the chain, head to tail.
func (c *Chain[T]) ToSlice() []T {
	r := make([]T, 0, c.size)
	for n := c.head; n != nil; n = n.next {
		r = append(r, n.data)
	}
	return r
}

func (c *Chain[T]) find(data T) *node[T] {
	for n := c.head; n != nil; n = n.next {
		if n.data == data {
			return n
		}
	}
	return nil
}

// unlink unchains the node n from the list.
func (c *Chain[T]) unlink(n *node[T]) {
	if n == c.head {
		c.head = n.next
	}
	if n == c.tail {
		c.tail = n.prev
	}
	if p := n.prev; p != nil {
		p.next = n.next
	}
	if nxt := n.next; nxt != nil {
		nxt.prev = n.prev
	}
	n.next = nil
	n.prev = nil
	c.size--
}
