package idxstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), time.Millisecond, 5, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry failed, details: %v", err)
	}
	if calls != 3 {
		t.Errorf("task ran %d times, want 3", calls)
	}
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry(context.Background(), time.Millisecond, 2, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if calls != 3 {
		t.Errorf("task ran %d times, want 3", calls)
	}
}

func TestRetry_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, time.Millisecond, 5, func(context.Context) error {
		return errors.New("never")
	})
	if err == nil {
		t.Fatal("expected an error on a canceled context")
	}
}

func TestUUID(t *testing.T) {
	a, b := NewUUID(), NewUUID()
	if a.IsNil() || a == b {
		t.Fatalf("NewUUID returned %v and %v", a, b)
	}
	if !NilUUID.IsNil() {
		t.Error("NilUUID is not nil")
	}
	p, err := ParseUUID(a.String())
	if err != nil || p != a {
		t.Fatalf("ParseUUID(%s) = %v, %v", a, p, err)
	}
	if _, err := ParseUUID("nope"); err == nil {
		t.Error("expected ParseUUID to fail")
	}
	if a.Compare(a) != 0 || a.Compare(b) != -b.Compare(a) {
		t.Error("Compare is not antisymmetric")
	}
	txt, _ := a.MarshalText()
	var u UUID
	if err := u.UnmarshalText(txt); err != nil || u != a {
		t.Errorf("UnmarshalText(%s) = %v, %v", txt, u, err)
	}
	m, err := ToMap(struct {
		ID UUID `json:"id"`
	}{a})
	if err != nil || m["id"] != a.String() {
		t.Errorf("ToMap = %v, %v", m, err)
	}
}
