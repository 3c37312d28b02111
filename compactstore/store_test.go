package compactstore

import (
	"testing"

	"github.com/sharedcode/idxstore"
)

func TestAddGetUpdate(t *testing.T) {
	s := New[string](0)
	for i, p := range []string{"a", "b", "c"} {
		if got := s.Add(p); got != i {
			t.Fatalf("Add(%s) = %d, want %d", p, got, i)
		}
	}
	if v, ok := s.Get(1); !ok || v != "b" {
		t.Fatalf("Get(1) = %q,%v", v, ok)
	}
	for _, i := range []int{-1, 3, 100} {
		if _, ok := s.Get(i); ok {
			t.Errorf("Get(%d) found", i)
		}
		if s.Update(i, "x") {
			t.Errorf("Update(%d) succeeded", i)
		}
		if s.IsValidIndex(i) {
			t.Errorf("IsValidIndex(%d)", i)
		}
	}
	if !s.Update(2, "C") {
		t.Fatal("Update(2)")
	}
	if v, _ := s.Get(2); v != "C" {
		t.Fatalf("got %s", v)
	}
}

func TestRemove_LastSlotNoRelocation(t *testing.T) {
	s := New[int](4)
	s.Add(10)
	s.Add(20)
	rel, err := s.Remove(1)
	if err != nil || rel != nil {
		t.Fatalf("Remove(last) = %v, %v", rel, err)
	}
	if s.Len() != 1 {
		t.Fatalf("len %d", s.Len())
	}
	rel, err = s.Remove(0)
	if err != nil || rel != nil || s.Len() != 0 {
		t.Fatalf("Remove(only) = %v, %v, len %d", rel, err, s.Len())
	}
}

// Scenario D: removing the first of N payloads moves the last one into slot 0.
func TestScenarioD_RemoveFirstRelocatesLast(t *testing.T) {
	s := New[string](0)
	for _, p := range []string{"p0", "p1", "p2", "p3"} {
		s.Add(p)
	}
	rel, err := s.Remove(0)
	if err != nil {
		t.Fatal(err)
	}
	if rel == nil || rel.MovedFrom != 3 || rel.NewIndex != 0 {
		t.Fatalf("relocation %+v", rel)
	}
	if v, _ := s.Get(0); v != "p3" {
		t.Fatalf("slot 0 holds %s", v)
	}
	if s.IsValidIndex(3) {
		t.Fatal("old last index still valid")
	}
	if s.Len() != 3 {
		t.Fatalf("len %d", s.Len())
	}
}

func TestRemove_InvalidIndex(t *testing.T) {
	s := New[int](0)
	if _, err := s.Remove(0); !idxstore.HasCode(err, idxstore.InvalidIndex) {
		t.Fatalf("want InvalidIndex, got %v", err)
	}
	s.Add(1)
	if _, err := s.Remove(-1); !idxstore.HasCode(err, idxstore.InvalidIndex) {
		t.Fatalf("want InvalidIndex, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatal("failed remove changed the store")
	}
}

func TestDensity_AfterMixedRemovals(t *testing.T) {
	s := New[int](0)
	for i := 0; i < 10; i++ {
		s.Add(i)
	}
	live := map[int]bool{}
	for i := 0; i < 10; i++ {
		live[i] = true
	}
	for _, i := range []int{4, 0, 7, 2, 2} {
		v, _ := s.Get(i)
		if _, err := s.Remove(i); err != nil {
			t.Fatal(err)
		}
		delete(live, v)
	}
	if s.Len() != len(live) {
		t.Fatalf("len %d, live %d", s.Len(), len(live))
	}
	seen := map[int]bool{}
	for i, v := range s.All() {
		if !s.IsValidIndex(i) || !live[v] || seen[v] {
			t.Fatalf("bad slot %d=%d", i, v)
		}
		seen[v] = true
	}
}

func TestClear(t *testing.T) {
	s := New[int](0)
	s.Add(1)
	s.Add(2)
	s.Clear()
	if s.Len() != 0 {
		t.Fatal("clear")
	}
	if s.Add(3) != 0 {
		t.Fatal("index after clear")
	}
}
