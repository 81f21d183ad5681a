package store

import (
	"context"
	"testing"
	"time"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// storeUnderTest runs the shared backend contract against any Store.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Missing entry
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("Get(missing) = %v, want ASSET_NOT_FOUND", err)
	}

	// Round trip
	if err := s.Set(ctx, "tpl-1", []byte("pixels"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := s.Get(ctx, "tpl-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "pixels" {
		t.Errorf("Get = %q", data)
	}

	// Expiry
	if err := s.Set(ctx, "tpl-2", []byte("old"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := s.Get(ctx, "tpl-2"); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("expired entry should be ASSET_NOT_FOUND, got %v", err)
	}

	// Delete is idempotent
	if err := s.Delete(ctx, "tpl-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "tpl-1"); err != nil {
		t.Errorf("second Delete should not error: %v", err)
	}
	if _, err := s.Get(ctx, "tpl-1"); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("deleted entry should be ASSET_NOT_FOUND, got %v", err)
	}

	if err := s.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	storeUnderTest(t, s)
}

func TestFileStoreCleanupRemovesExpired(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Set(ctx, "keep", []byte("a"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "drop", []byte("b"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if err := s.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := s.Get(ctx, "keep"); err != nil {
		t.Errorf("live entry should survive cleanup: %v", err)
	}
	if _, err := s.Get(ctx, "drop"); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("expired entry should be gone, got %v", err)
	}
}

func TestFileStoreIDsCannotEscapeDir(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// Hostile IDs are hashed into safe paths.
	id := "../../etc/passwd"
	if err := s.Set(ctx, id, []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := s.Get(ctx, id)
	if err != nil || string(data) != "x" {
		t.Errorf("round trip failed: %v %q", err, data)
	}
}
