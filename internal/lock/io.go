package lock

import (
	"encoding/json"
	"os"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// Write serializes the lock as indented JSON to path with owner read-write,
// group read-only permissions (0640), the same mode the artifact writer
// gives the generated tree it describes.
func Write(l Lock, path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return ztcerr.Wrap(ztcerr.HashMismatchArtifacts, err, "marshaling lock file")
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return ztcerr.Wrap(ztcerr.HashMismatchArtifacts, err, "writing lock file "+path)
	}
	return nil
}

// Read loads a previously written lock file.
func Read(path string) (Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lock{}, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "reading lock file "+path)
	}
	var l Lock
	if err := json.Unmarshal(data, &l); err != nil {
		return Lock{}, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "parsing lock file "+path)
	}
	return l, nil
}
