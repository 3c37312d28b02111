package indexed

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/sharedcode/idxstore"
)

func TestTreeSetBuckets(t *testing.T) {
	s := NewTreeSet[rec]("packages", WithKeyOf(recKey))
	s.Insert("bob", rec{"bob", 1})
	s.Insert("alice", rec{"alice", 2})
	s.Insert("bob", rec{"bob", 3})
	if s.Len() != 3 || s.KeyCount() != 2 {
		t.Errorf("Len = %d, KeyCount = %d", s.Len(), s.KeyCount())
	}
	if got := s.Find("bob"); !slices.Equal(got, []rec{{"bob", 1}, {"bob", 3}}) {
		t.Errorf("Find(bob) = %v", got)
	}
	if got := s.Find("carol"); got != nil {
		t.Errorf("Find(carol) = %v, want nil", got)
	}
	if got := slices.Collect(s.Keys()); !slices.Equal(got, []string{"alice", "bob"}) {
		t.Errorf("Keys = %v", got)
	}
	var order []int
	for _, p := range s.All() {
		order = append(order, p.N)
	}
	if !slices.Equal(order, []int{2, 1, 3}) {
		t.Errorf("All order = %v", order)
	}
	if s.Count("bob") != 2 || s.Count("carol") != 0 {
		t.Error("Count mismatch")
	}
}

func TestTreeSetUniqueBy(t *testing.T) {
	s := NewTreeSet("packages", WithUniqueBy(func(a, b rec) bool { return a.N == b.N }))
	s.Insert("k", rec{"k", 1})
	if err := s.Insert("k", rec{"k", 1}); !idxstore.HasCode(err, idxstore.DuplicateKey) {
		t.Errorf("Insert of equal payload got %v, want DuplicateKey", err)
	}
	if err := s.Insert("j", rec{"j", 1}); err != nil {
		t.Errorf("equal payload under another key failed, details: %v", err)
	}
}

func TestTreeSetRemoveOne(t *testing.T) {
	s := NewTreeSet[rec]("packages", WithKeyOf(recKey))
	for i := range 3 {
		s.Insert("a", rec{"a", i})
	}
	s.Insert("b", rec{"b", 10})

	if ok, err := s.RemoveOne("a", nil); !ok || err != nil {
		t.Fatalf("RemoveOne(a, nil) = %v, %v", ok, err)
	}
	if got := s.Find("a"); !slices.Equal(got, []rec{{"a", 1}, {"a", 2}}) {
		t.Errorf("Find(a) = %v", got)
	}
	if ok, _ := s.RemoveOne("a", func(r rec) bool { return r.N == 99 }); ok {
		t.Error("RemoveOne with no match reported a removal")
	}
	if ok, _ := s.RemoveOne("b", nil); !ok || s.Contains("b") {
		t.Error("removing the last record of b should drop the key")
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestTreeSetRemoveWhereAndAll(t *testing.T) {
	s := NewTreeSet[rec]("packages", WithKeyOf(recKey))
	for i := range 6 {
		s.Insert("x", rec{"x", i})
		s.Insert("y", rec{"y", i})
	}
	n, err := s.RemoveWhere("x", func(r rec) bool { return r.N%2 == 0 })
	if n != 3 || err != nil {
		t.Fatalf("RemoveWhere = %d, %v", n, err)
	}
	if got := s.Find("x"); !slices.Equal(got, []rec{{"x", 1}, {"x", 3}, {"x", 5}}) {
		t.Errorf("Find(x) = %v", got)
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
	if n, err := s.RemoveAll("y"); n != 6 || err != nil {
		t.Fatalf("RemoveAll(y) = %d, %v", n, err)
	}
	if s.Contains("y") || s.Len() != 3 {
		t.Errorf("RemoveAll left y=%v len=%d", s.Contains("y"), s.Len())
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.RemoveAll("nobody"); n != 0 {
		t.Errorf("RemoveAll(nobody) = %d", n)
	}
}

func TestTreeSetBeforeRemoveVeto(t *testing.T) {
	veto := errors.New("locked")
	s := NewTreeSet("packages", WithBeforeRemove[rec](func(string) error { return veto }))
	s.Insert("k", rec{"k", 1})
	s.Insert("k", rec{"k", 2})
	if _, err := s.RemoveAll("k"); !errors.Is(err, veto) {
		t.Errorf("RemoveAll got %v, want veto", err)
	}
	if _, err := s.RemoveWhere("k", func(rec) bool { return true }); !errors.Is(err, veto) {
		t.Errorf("RemoveWhere got %v, want veto", err)
	}
	if _, err := s.RemoveOne("k", nil); !errors.Is(err, veto) {
		t.Errorf("RemoveOne got %v, want veto", err)
	}
	if s.Len() != 2 || s.Count("k") != 2 {
		t.Error("vetoed removals changed the set")
	}
}

func TestTreeSetRandomOps(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s := NewTreeSet[rec]("random", WithKeyOf(recKey))
	model := map[string][]int{}
	for op := range 2000 {
		k := fmt.Sprintf("k%02d", r.Intn(25))
		switch r.Intn(4) {
		case 0, 1:
			s.Insert(k, rec{k, op})
			model[k] = append(model[k], op)
		case 2:
			if ok, _ := s.RemoveOne(k, nil); ok {
				model[k] = model[k][1:]
			}
		case 3:
			n, _ := s.RemoveWhere(k, func(p rec) bool { return p.N%3 == 0 })
			kept := model[k][:0]
			for _, v := range model[k] {
				if v%3 != 0 {
					kept = append(kept, v)
				}
			}
			if len(model[k])-len(kept) != n {
				t.Fatalf("RemoveWhere(%s) removed %d, want %d", k, n, len(model[k])-len(kept))
			}
			model[k] = kept
		}
		if len(model[k]) == 0 {
			delete(model, k)
		}
		if op%100 == 0 {
			if err := s.CheckIntegrity(); err != nil {
				t.Fatalf("op %d: %v", op, err)
			}
		}
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
	if s.KeyCount() != len(model) {
		t.Fatalf("KeyCount = %d, want %d", s.KeyCount(), len(model))
	}
	for k, want := range model {
		var got []int
		for _, p := range s.Find(k) {
			got = append(got, p.N)
		}
		if !slices.Equal(got, want) {
			t.Errorf("Find(%s) = %v, want %v", k, got, want)
		}
	}
}

func TestTreeSetStatsAndExport(t *testing.T) {
	s := NewTreeSet[rec]("packages")
	if st := s.Stats(); st.Efficiency != 1 || st.Height != 0 || !st.Valid {
		t.Errorf("empty Stats = %+v", st)
	}
	if s.Export() != nil {
		t.Error("Export of empty set should be nil")
	}
	for i := range 15 {
		k := fmt.Sprintf("%02d", i)
		s.Insert(k, rec{k, i})
	}
	st := s.Stats()
	if st.Shape != OneToMany || st.Keys != 15 || st.Size != 15 || st.Height < 4 || st.Efficiency > 1 {
		t.Errorf("Stats = %+v", st)
	}
	if v := s.Export(); v == nil || v.Color.String() != "BLACK" {
		t.Errorf("Export root = %+v", v)
	}
	s.Clear()
	if s.Len() != 0 || s.KeyCount() != 0 {
		t.Error("Clear left records")
	}
}
