// Package filestore persists each logical store as one JSON snapshot on
// disk. Every mutation rewrites the whole snapshot through a temp file and an
// atomic rename, so a crash leaves either the previous snapshot or the new
// one, never a torn file. Mutations are serialized per store by a mutex and
// are rolled back in memory when the snapshot write fails, which keeps the
// in-process state and the durable state in agreement.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// loadSnapshot reads a snapshot into v. A missing file is not an error: the
// store simply starts empty.
func loadSnapshot(path string, v any) error {
	data, err := os.ReadFile(path)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("load snapshot %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	return nil
}

// saveSnapshot writes v to a temp file in the same directory, syncs it, and
// renames it over the target. Rename on the same filesystem is atomic.
func saveSnapshot(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")

	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", path, err)
	}

	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")

	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot %s: %w", path, err)
	}

	return nil
}
