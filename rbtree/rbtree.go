// Package rbtree implements an ordered map over string keys as a red-black tree.
//
// Insert, Delete and Search are O(log n). Every node's absent child, and the root's parent,
// is the tree's NIL sentinel: a single BLACK node, so rotations and fixups can follow
// parent/left/right links without nil checks.
package rbtree

import (
	"cmp"
)

// Color of a tree node.
type Color bool

const (
	Red   Color = false
	Black Color = true
)

func (c Color) String() string {
	if c == Black {
		return "BLACK"
	}
	return "RED"
}

// MarshalText encodes the color as "RED" or "BLACK".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type node[V any] struct {
	key    string
	value  V
	color  Color
	left   *node[V]
	right  *node[V]
	parent *node[V]
}

// Tree is a red-black tree keyed by strings in natural string order.
// It is not safe for concurrent use.
type Tree[V any] struct {
	root     *node[V]
	sentinel *node[V]
	size     int
}

// New returns an empty tree.
func New[V any]() *Tree[V] {
	s := &node[V]{color: Black}
	s.left, s.right, s.parent = s, s, s
	return &Tree[V]{root: s, sentinel: s}
}

// Len returns the count of keys.
func (t *Tree[V]) Len() int {
	return t.size
}

// Clear removes every key.
func (t *Tree[V]) Clear() {
	t.root = t.sentinel
	t.size = 0
}

// Search returns the value stored under key.
func (t *Tree[V]) Search(key string) (V, bool) {
	n := t.find(key)
	if n == t.sentinel {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Contains reports whether key is in the tree.
func (t *Tree[V]) Contains(key string) bool {
	return t.find(key) != t.sentinel
}

// Min returns the smallest key and its value.
func (t *Tree[V]) Min() (string, V, bool) {
	if t.root == t.sentinel {
		var zero V
		return "", zero, false
	}
	n := t.minimum(t.root)
	return n.key, n.value, true
}

// Max returns the largest key and its value.
func (t *Tree[V]) Max() (string, V, bool) {
	if t.root == t.sentinel {
		var zero V
		return "", zero, false
	}
	n := t.root
	for n.right != t.sentinel {
		n = n.right
	}
	return n.key, n.value, true
}

// Insert stores value under key. An existing key has its value overwritten in place.
func (t *Tree[V]) Insert(key string, value V) {
	y := t.sentinel
	x := t.root
	for x != t.sentinel {
		y = x
		switch c := cmp.Compare(key, x.key); {
		case c < 0:
			x = x.left
		case c > 0:
			x = x.right
		default:
			x.value = value
			return
		}
	}
	z := &node[V]{key: key, value: value, color: Red, left: t.sentinel, right: t.sentinel, parent: y}
	switch {
	case y == t.sentinel:
		t.root = z
	case key < y.key:
		y.left = z
	default:
		y.right = z
	}
	t.size++
	t.insertFixup(z)
}

func (t *Tree[V]) insertFixup(z *node[V]) {
	for z.parent.color == Red {
		if z.parent == z.parent.parent.left {
			uncle := z.parent.parent.right
			if uncle.color == Red {
				z.parent.color = Black
				uncle.color = Black
				z.parent.parent.color = Red
				z = z.parent.parent
				continue
			}
			if z == z.parent.right {
				z = z.parent
				t.rotateLeft(z)
			}
			z.parent.color = Black
			z.parent.parent.color = Red
			t.rotateRight(z.parent.parent)
		} else {
			uncle := z.parent.parent.left
			if uncle.color == Red {
				z.parent.color = Black
				uncle.color = Black
				z.parent.parent.color = Red
				z = z.parent.parent
				continue
			}
			if z == z.parent.left {
				z = z.parent
				t.rotateRight(z)
			}
			z.parent.color = Black
			z.parent.parent.color = Red
			t.rotateLeft(z.parent.parent)
		}
	}
	t.root.color = Black
}

// Delete removes key. It reports whether key was present.
func (t *Tree[V]) Delete(key string) bool {
	z := t.find(key)
	if z == t.sentinel {
		return false
	}
	// y is the node actually spliced out: z itself, or z's in-order successor whose
	// key and value move into z. Either way y has at most one real child.
	y := z
	if z.left != t.sentinel && z.right != t.sentinel {
		y = t.minimum(z.right)
		z.key, z.value = y.key, y.value
	}
	x := y.left
	if x == t.sentinel {
		x = y.right
	}
	x.parent = y.parent
	switch {
	case y.parent == t.sentinel:
		t.root = x
	case y == y.parent.left:
		y.parent.left = x
	default:
		y.parent.right = x
	}
	if y.color == Black {
		t.deleteFixup(x)
	}
	t.sentinel.parent = t.sentinel
	t.sentinel.color = Black
	t.size--
	return true
}

func (t *Tree[V]) deleteFixup(x *node[V]) {
	for x != t.root && x.color == Black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == Red {
				w.color = Black
				x.parent.color = Red
				t.rotateLeft(x.parent)
				w = x.parent.right
			}
			if w.left.color == Black && w.right.color == Black {
				w.color = Red
				x = x.parent
				continue
			}
			if w.right.color == Black {
				w.left.color = Black
				w.color = Red
				t.rotateRight(w)
				w = x.parent.right
			}
			w.color = x.parent.color
			x.parent.color = Black
			w.right.color = Black
			t.rotateLeft(x.parent)
			x = t.root
		} else {
			w := x.parent.left
			if w.color == Red {
				w.color = Black
				x.parent.color = Red
				t.rotateRight(x.parent)
				w = x.parent.left
			}
			if w.right.color == Black && w.left.color == Black {
				w.color = Red
				x = x.parent
				continue
			}
			if w.left.color == Black {
				w.right.color = Black
				w.color = Red
				t.rotateLeft(w)
				w = x.parent.left
			}
			w.color = x.parent.color
			x.parent.color = Black
			w.left.color = Black
			t.rotateRight(x.parent)
			x = t.root
		}
	}
	x.color = Black
}

func (t *Tree[V]) rotateLeft(x *node[V]) {
	y := x.right
	x.right = y.left
	if y.left != t.sentinel {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == t.sentinel:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *Tree[V]) rotateRight(x *node[V]) {
	y := x.left
	x.left = y.right
	if y.right != t.sentinel {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == t.sentinel:
		t.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

func (t *Tree[V]) find(key string) *node[V] {
	x := t.root
	for x != t.sentinel {
		switch c := cmp.Compare(key, x.key); {
		case c < 0:
			x = x.left
		case c > 0:
			x = x.right
		default:
			return x
		}
	}
	return t.sentinel
}

func (t *Tree[V]) minimum(x *node[V]) *node[V] {
	for x.left != t.sentinel {
		x = x.left
	}
	return x
}
