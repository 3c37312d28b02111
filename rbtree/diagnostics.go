package rbtree

import "fmt"

// Height returns the count of nodes on the longest root to leaf path. An empty tree has height 0.
func (t *Tree[V]) Height() int {
	return t.height(t.root)
}

func (t *Tree[V]) height(x *node[V]) int {
	if x == t.sentinel {
		return 0
	}
	return 1 + max(t.height(x.left), t.height(x.right))
}

// BlackHeight returns the count of BLACK nodes on a path from the root down to a NIL leaf,
// not counting the root and counting the NIL leaf. An empty tree has black-height 0.
// On an invalid tree the leftmost path is measured.
func (t *Tree[V]) BlackHeight() int {
	if t.root == t.sentinel {
		return 0
	}
	bh := 0
	for x := t.root.left; ; x = x.left {
		if x.color == Black {
			bh++
		}
		if x == t.sentinel {
			return bh
		}
	}
}

// IsValid reports whether the red-black properties and the search order hold.
func (t *Tree[V]) IsValid() bool {
	return t.Validate() == nil
}

// Validate returns a description of the first broken red-black property found: a RED or
// non BLACK root, a RED node with a RED child, unequal black counts on two paths, keys out of
// order, or a child whose parent link does not point back.
func (t *Tree[V]) Validate() error {
	if t.root == t.sentinel {
		if t.size != 0 {
			return fmt.Errorf("empty tree reports size %d", t.size)
		}
		return nil
	}
	if t.root.color != Black {
		return fmt.Errorf("root %q is RED", t.root.key)
	}
	if t.root.parent != t.sentinel {
		return fmt.Errorf("root %q has a parent", t.root.key)
	}
	if t.sentinel.color != Black {
		return fmt.Errorf("NIL sentinel is RED")
	}
	count := 0
	if _, err := t.validate(t.root, nil, nil, &count); err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("counted %d nodes, size is %d", count, t.size)
	}
	return nil
}

// validate returns the black count of the subtree at x including the NIL leaf.
func (t *Tree[V]) validate(x *node[V], lo, hi *string, count *int) (int, error) {
	if x == t.sentinel {
		return 1, nil
	}
	*count++
	if lo != nil && x.key <= *lo {
		return 0, fmt.Errorf("key %q not greater than %q", x.key, *lo)
	}
	if hi != nil && x.key >= *hi {
		return 0, fmt.Errorf("key %q not less than %q", x.key, *hi)
	}
	for _, c := range []*node[V]{x.left, x.right} {
		if c == t.sentinel {
			continue
		}
		if c.parent != x {
			return 0, fmt.Errorf("child %q does not point back to %q", c.key, x.key)
		}
		if x.color == Red && c.color == Red {
			return 0, fmt.Errorf("red node %q has red child %q", x.key, c.key)
		}
	}
	lb, err := t.validate(x.left, lo, &x.key, count)
	if err != nil {
		return 0, err
	}
	rb, err := t.validate(x.right, &x.key, hi, count)
	if err != nil {
		return 0, err
	}
	if lb != rb {
		return 0, fmt.Errorf("black height differs under %q: %d left, %d right", x.key, lb, rb)
	}
	if x.color == Black {
		lb++
	}
	return lb, nil
}

// NodeView is a read-only copy of one tree node, for visualization and inspection.
type NodeView struct {
	Key   string    `json:"key"`
	Color Color     `json:"color"`
	Left  *NodeView `json:"left,omitempty"`
	Right *NodeView `json:"right,omitempty"`
}

// Export copies the tree's shape. It returns nil for an empty tree.
func (t *Tree[V]) Export() *NodeView {
	return t.export(t.root)
}

func (t *Tree[V]) export(x *node[V]) *NodeView {
	if x == t.sentinel {
		return nil
	}
	return &NodeView{
		Key:   x.key,
		Color: x.color,
		Left:  t.export(x.left),
		Right: t.export(x.right),
	}
}
