package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps templates as files in a directory, for single-instance
// deployments that must survive restarts.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed template store in dir.
// The directory is created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// fileEntry wraps stored data with its expiration.
type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves template bytes by ID.
func (s *FileStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry - treat as missing
		_ = os.Remove(s.path(id))
		return nil, notFound(id)
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(s.path(id))
		return nil, notFound(id)
	}
	return entry.Data, nil
}

// Set stores template bytes under id.
func (s *FileStore) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entry, err := json.Marshal(fileEntry{Data: data, ExpiresAt: time.Now().Add(ttl)})
	if err != nil {
		return err
	}

	path := s.path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, entry, 0644)
}

// Delete removes a template.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Cleanup removes expired entries by probing every stored file.
func (s *FileStore) Cleanup(ctx context.Context) error {
	return filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var entry fileEntry
		if json.Unmarshal(data, &entry) != nil || time.Now().After(entry.ExpiresAt) {
			_ = os.Remove(path)
		}
		return nil
	})
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// path converts an ID to a file path. IDs are hashed so arbitrary input
// can never escape the store directory, with a two-character fan-out
// subdirectory to keep directory sizes reasonable.
func (s *FileStore) path(id string) string {
	sum := sha256.Sum256([]byte(id))
	hash := hex.EncodeToString(sum[:])
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
