package idxstore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorCodesWrapSentinels(t *testing.T) {
	cases := []struct {
		code     ErrorCode
		sentinel error
	}{
		{UninitializedStructure, ErrUninitialized},
		{CapacityExhausted, ErrCapacityExhausted},
		{InvalidCapacity, ErrInvalidCapacity},
		{DuplicateKey, ErrDuplicateKey},
		{InvalidIndex, ErrInvalidIndex},
		{IntegrityViolation, ErrIntegrityViolation},
		{NotFound, ErrNotFound},
		{DependentsExist, ErrDependentsExist},
		{InvalidArgument, ErrInvalidArgument},
	}
	for _, c := range cases {
		err := NewError(c.code, "k")
		if !errors.Is(err, c.sentinel) {
			t.Errorf("NewError(%v) does not wrap %v", c.code, c.sentinel)
		}
		if !HasCode(err, c.code) {
			t.Errorf("HasCode(NewError(%v)) = false", c.code)
		}
		if err = Errorf(c.code, "detail %d", 1); !errors.Is(err, c.sentinel) || !HasCode(err, c.code) {
			t.Errorf("Errorf(%v) lost its code or sentinel: %v", c.code, err)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(DuplicateKey, "alice")
	if !strings.Contains(err.Error(), "alice") || !strings.Contains(err.Error(), ErrDuplicateKey.Error()) {
		t.Errorf("unexpected message %q", err.Error())
	}
	wrapped := fmt.Errorf("insert failed: %w", err)
	var e Error
	if !errors.As(wrapped, &e) || e.UserData != "alice" {
		t.Errorf("errors.As lost the user data of %v", wrapped)
	}
	if HasCode(errors.New("plain"), NotFound) {
		t.Error("plain error reported a code")
	}
	if Unknown.String() == "" || ErrorCode(99).String() == "" {
		t.Error("expected every code to have a name")
	}
}
