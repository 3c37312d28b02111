package chain

import (
	"slices"
	"testing"
)

func TestChain_AppendAndOrder(t *testing.T) {
	c := New[int]()
	if !c.IsEmpty() || c.Len() != 0 {
		t.Fatalf("new chain not empty")
	}
	if _, ok := c.First(); ok {
		t.Fatalf("First on empty chain")
	}
	if _, ok := c.Last(); ok {
		t.Fatalf("Last on empty chain")
	}
	for i := 1; i <= 5; i++ {
		c.Append(i * 10)
	}
	if got := c.ToSlice(); !slices.Equal(got, []int{10, 20, 30, 40, 50}) {
		t.Fatalf("got %v", got)
	}
	if f, _ := c.First(); f != 10 {
		t.Errorf("first %d", f)
	}
	if l, _ := c.Last(); l != 50 {
		t.Errorf("last %d", l)
	}
}

func TestChain_Remove(t *testing.T) {
	tests := []struct {
		name   string
		remove int
		found  bool
		want   []int
	}{
		{"head", 1, true, []int{2, 3, 4}},
		{"middle", 3, true, []int{1, 2, 4}},
		{"tail", 4, true, []int{1, 2, 3}},
		{"missing", 9, false, []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(1, 2, 3, 4)
			if got := c.Remove(tt.remove); got != tt.found {
				t.Fatalf("Remove(%d) = %v, want %v", tt.remove, got, tt.found)
			}
			if got := c.ToSlice(); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if c.Len() != len(tt.want) {
				t.Fatalf("len %d", c.Len())
			}
			// Walk backwards to make sure prev links survived.
			var back []int
			for n := c.tail; n != nil; n = n.prev {
				back = append(back, n.data)
			}
			slices.Reverse(back)
			if !slices.Equal(back, tt.want) {
				t.Fatalf("backward walk %v", back)
			}
		})
	}
}

func TestChain_RemoveFirstEqualOnly(t *testing.T) {
	c := New(7, 8, 7)
	c.Remove(7)
	if got := c.ToSlice(); !slices.Equal(got, []int{8, 7}) {
		t.Fatalf("got %v", got)
	}
}

func TestChain_RemoveToEmpty(t *testing.T) {
	c := New(1)
	if !c.Remove(1) {
		t.Fatal("remove 1")
	}
	if !c.IsEmpty() || c.head != nil || c.tail != nil {
		t.Fatalf("chain should be empty")
	}
	c.Append(2)
	if f, _ := c.First(); f != 2 {
		t.Fatalf("append after empty")
	}
}

func TestChain_ReplaceKeepsPosition(t *testing.T) {
	c := New(4, 5, 6)
	if !c.Replace(5, 1) {
		t.Fatal("replace 5")
	}
	if c.Replace(42, 0) {
		t.Fatal("replace missing")
	}
	if got := c.ToSlice(); !slices.Equal(got, []int{4, 1, 6}) {
		t.Fatalf("got %v", got)
	}
	if !c.Contains(1) || c.Contains(5) {
		t.Fatalf("contains mismatch")
	}
}

func TestChain_AllIsRestartable(t *testing.T) {
	c := New("a", "b", "c")
	first := slices.Collect(c.All())
	second := slices.Collect(c.All())
	if !slices.Equal(first, second) || len(first) != 3 {
		t.Fatalf("%v vs %v", first, second)
	}
	var partial []string
	for v := range c.All() {
		partial = append(partial, v)
		if v == "b" {
			break
		}
	}
	if !slices.Equal(partial, []string{"a", "b"}) {
		t.Fatalf("early stop %v", partial)
	}
}
