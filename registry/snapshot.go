package registry

import (
	"os"

	"github.com/sharedcode/idxstore"
)

// ReadSnapshot decodes the JSON snapshot file at path.
func ReadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	ba, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := idxstore.NewMarshaler().Unmarshal(ba, &snap); err != nil {
		return snap, idxstore.Errorf(idxstore.InvalidArgument, "snapshot %s: %v", path, err)
	}
	return snap, nil
}

// WriteFile encodes the snapshot as JSON into the file at path.
func (snap Snapshot) WriteFile(path string) error {
	ba, err := idxstore.NewMarshaler().Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, ba, 0o644)
}
