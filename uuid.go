package idxstore

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
)

// UUID is a thin wrapper over github.com/google/uuid.UUID to keep callers decoupled from the external package.
type UUID uuid.UUID

// ParseUUID converts a string to a UUID. It returns an error if the input is not a valid UUID.
func ParseUUID(id string) (UUID, error) {
	u, err := uuid.Parse(id)
	return UUID(u), err
}

// NewUUID returns a new randomly generated UUID. Generation is retried with a short backoff
// and panics only if every attempt fails, which should never happen under normal conditions.
func NewUUID() UUID {
	var id uuid.UUID
	err := Retry(context.Background(), time.Millisecond, 10, func(context.Context) error {
		var err error
		id, err = uuid.NewRandom()
		return err
	})
	if err != nil {
		panic(err)
	}
	return UUID(id)
}

// NilUUID is the zero-value UUID.
var NilUUID UUID

// IsNil reports whether the UUID equals the zero-value UUID.
func (id UUID) IsNil() bool {
	return bytes.Equal(id[:], NilUUID[:])
}

// String returns the canonical string representation of the UUID.
func (id UUID) String() string {
	return uuid.UUID(id).String()
}

// Compare compares two UUIDs and returns -1 if x < y, 1 if x > y, and 0 if they are equal.
func (x UUID) Compare(y UUID) int {
	return bytes.Compare(x[:], y[:])
}

// MarshalText encodes the UUID in its canonical string form.
func (id UUID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText decodes a canonical string form UUID.
func (id *UUID) UnmarshalText(data []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(data); err != nil {
		return err
	}
	*id = UUID(u)
	return nil
}
