// Package snapshot persists the extracted and filtered user collections as
// ordered JSON documents. Writes are atomic: the new snapshot is written to a
// temp file, synced, and renamed over the old one, so an aborted run leaves
// the previous snapshot intact.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mila1515/github-users/pkg/model"
)

var (
	// ErrSnapshotUnavailable indicates the snapshot file is missing or
	// cannot be parsed. The filter stage must not treat this as an empty
	// result set.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// ErrSnapshotEmpty indicates the snapshot parsed but holds no records.
	ErrSnapshotEmpty = errors.New("snapshot empty")
)

// Write persists the ordered record collection to path, fully replacing any
// prior snapshot. The old snapshot remains readable until the new one is
// committed by the rename.
func Write(path string, records []model.UserRecord) error {
	return writeJSON(path, records)
}

// WriteFiltered persists the filtered collection to path with the same
// atomic-replace semantics as Write.
func WriteFiltered(path string, records []model.FilteredUserRecord) error {
	return writeJSON(path, records)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	// Write to a temp file in the same directory so the rename is atomic.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}

// Load reads the ordered record collection from path.
// Returns ErrSnapshotUnavailable when the file is missing or malformed and
// ErrSnapshotEmpty when it holds no records.
func Load(path string) ([]model.UserRecord, error) {
	var records []model.UserRecord
	if err := loadJSON(path, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotEmpty, path)
	}
	return records, nil
}

// LoadFiltered reads the filtered collection from path. Unlike Load, an
// empty collection is valid here: a filter run may legitimately match zero
// records.
func LoadFiltered(path string) ([]model.FilteredUserRecord, error) {
	var records []model.FilteredUserRecord
	if err := loadJSON(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrSnapshotUnavailable, path, err)
	}
	return nil
}
