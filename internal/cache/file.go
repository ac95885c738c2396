package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// File is a filesystem-backed Store used by the batch CLI so snapshots
// survive across runs.
type File struct {
	dir string
	now func() time.Time
}

// fileEntry is the on-disk record. ExpiresAt is absolute so the TTL is
// per-entry rather than store-wide.
type fileEntry struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
	Data      []byte    `json:"data"`
}

// FileOption configures a File store.
type FileOption func(*File)

// WithFileClock sets the clock (for testing expiry).
func WithFileClock(now func() time.Time) FileOption {
	return func(f *File) {
		f.now = now
	}
}

// NewFile creates a file store rooted at dir, creating it if needed.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f := &File{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Get returns the value for key if present and unexpired. Corrupt or
// expired entries are removed and treated as a miss.
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := f.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		os.Remove(path)
		return nil, false, nil
	}

	if f.now().After(entry.ExpiresAt) {
		os.Remove(path)
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// Set stores value under key with the given TTL.
func (f *File) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := fileEntry{
		Key:       key,
		ExpiresAt: f.now().Add(ttl),
		Data:      value,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(f.keyPath(key), data, 0o600)
}

// Delete removes key. Deleting an absent key is not an error.
func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.keyPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all entries. The store directory is recreated so the cache
// stays usable afterwards.
func (f *File) Clear() error {
	if err := os.RemoveAll(f.dir); err != nil {
		return err
	}
	return os.MkdirAll(f.dir, 0o755)
}

// keyPath hashes the key so arbitrary key strings map to safe filenames.
func (f *File) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats summarizes the on-disk cache.
type Stats struct {
	Entries   int   `json:"entries"`
	TotalSize int64 `json:"total_size"`
}

// GetStats walks the cache directory and counts entries.
func (f *File) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := filepath.Walk(f.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}
