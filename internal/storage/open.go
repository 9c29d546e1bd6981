package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Open creates the store for the named backend at path, creating the parent
// directory when needed.
func Open(backend, path string) (Storage, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	switch backend {
	case "sqlite":
		return NewSQLite(path)
	case "bolt":
		return NewBolt(path)
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
