package rbtree

import "iter"

// InOrder returns a restartable sequence of the entries in ascending key order.
// The tree must not be mutated while the sequence is being consumed.
func (t *Tree[V]) InOrder() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		var stack []*node[V]
		x := t.root
		for x != t.sentinel || len(stack) > 0 {
			for x != t.sentinel {
				stack = append(stack, x)
				x = x.left
			}
			x = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(x.key, x.value) {
				return
			}
			x = x.right
		}
	}
}

// Keys returns a restartable sequence of the keys in ascending order.
func (t *Tree[V]) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for k := range t.InOrder() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns a restartable sequence of the values in ascending key order.
func (t *Tree[V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range t.InOrder() {
			if !yield(v) {
				return
			}
		}
	}
}
