package idxstore

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an idxstore Error.
type ErrorCode int

const (
	Unknown ErrorCode = iota
	// UninitializedStructure is returned when a structure is mutated before its capacity was set.
	UninitializedStructure
	// CapacityExhausted is returned when a probe sequence found no free or reusable slot.
	CapacityExhausted
	// InvalidCapacity is returned for a non-positive capacity request.
	InvalidCapacity
	// DuplicateKey is returned by record sets whose insert policy forbids overwriting.
	DuplicateKey
	// InvalidIndex is returned for out of range compact store access.
	InvalidIndex
	// IntegrityViolation means an index structure and its store disagree. It is a bug, not a runtime condition.
	IntegrityViolation
	NotFound
	DependentsExist
	InvalidArgument
)

var codeNames = map[ErrorCode]string{
	Unknown:                "unknown",
	UninitializedStructure: "uninitialized structure",
	CapacityExhausted:      "capacity exhausted",
	InvalidCapacity:        "invalid capacity",
	DuplicateKey:           "duplicate key",
	InvalidIndex:           "invalid index",
	IntegrityViolation:     "integrity violation",
	NotFound:               "not found",
	DependentsExist:        "dependents exist",
	InvalidArgument:        "invalid argument",
}

// String returns the readable name of the code.
func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Sentinel errors wrapped by Error so callers can use errors.Is.
var (
	ErrUninitialized      = errors.New("structure is not initialized")
	ErrCapacityExhausted  = errors.New("probe sequence exhausted, no free slot")
	ErrInvalidCapacity    = errors.New("capacity must be greater than zero")
	ErrDuplicateKey       = errors.New("key already exists")
	ErrInvalidIndex       = errors.New("index out of range")
	ErrIntegrityViolation = errors.New("index structure and store are inconsistent")
	ErrNotFound           = errors.New("not found")
	ErrDependentsExist    = errors.New("dependent records exist")
	ErrInvalidArgument    = errors.New("invalid argument")
)

var codeSentinels = map[ErrorCode]error{
	UninitializedStructure: ErrUninitialized,
	CapacityExhausted:      ErrCapacityExhausted,
	InvalidCapacity:        ErrInvalidCapacity,
	DuplicateKey:           ErrDuplicateKey,
	InvalidIndex:           ErrInvalidIndex,
	IntegrityViolation:     ErrIntegrityViolation,
	NotFound:               ErrNotFound,
	DependentsExist:        ErrDependentsExist,
	InvalidArgument:        ErrInvalidArgument,
}

// Error is the idxstore custom error.
type Error struct {
	Code     ErrorCode
	Err      error
	UserData any
}

func (e Error) Error() string {
	if e.UserData == nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v, user data: %v", e.Code, e.Err, e.UserData)
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (e Error) Unwrap() error {
	return e.Err
}

// NewError returns an Error of code wrapping the code's sentinel.
func NewError(code ErrorCode, userData any) error {
	err, ok := codeSentinels[code]
	if !ok {
		err = errors.New(code.String())
	}
	return Error{Code: code, Err: err, UserData: userData}
}

// Errorf returns an Error of code whose message is formatted and wraps the code's sentinel.
func Errorf(code ErrorCode, format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	if s, ok := codeSentinels[code]; ok {
		err = fmt.Errorf("%w: %w", s, err)
	}
	return Error{Code: code, Err: err}
}

// HasCode reports whether err is, or wraps, an Error of the given code.
func HasCode(err error, code ErrorCode) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
