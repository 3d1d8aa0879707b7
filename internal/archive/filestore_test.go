package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestFileStorePutGetList(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := fs.Put(ctx, "2026-01-01_feedback_applied.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := fs.Get(ctx, "2026-01-01_feedback_applied.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("data = %s", data)
	}

	keys, err := fs.List(ctx, "2026-01-01")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("len(keys) = %d, want 1", len(keys))
	}
}

func TestFileStoreGetMissingReturnsErrNotFound(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, err = fs.Get(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
