package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mila1515/github-users/pkg/model"
)

func testRecords() []model.UserRecord {
	created := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	return []model.UserRecord{
		{
			Login:     "alice",
			ID:        1,
			AvatarURL: model.String("https://avatars.example.com/u/1"),
			Bio:       model.String("engineer"),
			CreatedAt: model.Time(created),
		},
		{
			Login: "bob",
			ID:    2,
		},
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	if err := Write(path, testRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Login != "alice" || records[1].Login != "bob" {
		t.Errorf("order lost: %q, %q", records[0].Login, records[1].Login)
	}
	if records[0].Bio == nil || *records[0].Bio != "engineer" {
		t.Errorf("optional field lost: %v", records[0].Bio)
	}
	if records[1].Bio != nil {
		t.Errorf("absent field materialized: %v", records[1].Bio)
	}
}

func TestWrite_ReplacesPriorSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	if err := Write(path, testRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := Write(path, testRecords()[:1]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, write must fully replace, not append", len(records))
	}
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")

	if err := Write(path, testRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "users.json" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrSnapshotUnavailable) {
		t.Errorf("Load() error = %v, want ErrSnapshotUnavailable", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrSnapshotUnavailable) {
		t.Errorf("Load() error = %v, want ErrSnapshotUnavailable", err)
	}
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := Write(path, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrSnapshotEmpty) {
		t.Errorf("Load() error = %v, want ErrSnapshotEmpty", err)
	}
}

func TestLoadFiltered_EmptyIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.json")
	if err := WriteFiltered(path, []model.FilteredUserRecord{}); err != nil {
		t.Fatalf("WriteFiltered() error = %v", err)
	}

	records, err := LoadFiltered(path)
	if err != nil {
		t.Fatalf("LoadFiltered() error = %v, empty filtered set is a valid result", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}
