package idxstore

import (
	"encoding/json"
)

// Marshaler interface specifies encoding to byte array and back to the object.
type Marshaler interface {
	// Encodes any object to byte array.
	Marshal(v any) ([]byte, error)
	// Decodes byte array back to its Object type.
	Unmarshal(data []byte, v any) error
}

type defaultMarshaler struct{}

// NewMarshaler returns the default marshaler which uses the golang's json package.
func NewMarshaler() Marshaler {
	return defaultMarshaler{}
}

func (m defaultMarshaler) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (m defaultMarshaler) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ToMap converts a record to its JSON field map, the shape predicates are evaluated against.
func ToMap(v any) (map[string]any, error) {
	m := NewMarshaler()
	ba, err := m.Marshal(v)
	if err != nil {
		return nil, err
	}
	var r map[string]any
	if err := m.Unmarshal(ba, &r); err != nil {
		return nil, err
	}
	return r, nil
}
