// Package cache provides the TTL-based read-through store used for built
// index documents. Freshness is judged by file modification time: there is
// no version counter and no invalidation, a stale file is simply rebuilt and
// overwritten. Concurrent writers for the same key are allowed; the last
// write wins.
package cache

import (
	"os"
	"path/filepath"
	"time"
)

// Store is a byte store with per-read freshness. Keys are slash-separated
// relative paths.
type Store interface {
	// Get returns the value for key if it exists and is younger than ttl.
	Get(key string, ttl time.Duration) ([]byte, bool)
	// Put stores the value for key, overwriting any previous value.
	Put(key string, data []byte) error
}

// FS is a filesystem-backed Store rooted at a directory.
type FS struct {
	root string
}

// NewFS creates a filesystem store rooted at dir.
func NewFS(dir string) *FS {
	return &FS{root: dir}
}

func (f *FS) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

// Get returns the cached bytes if the file exists and its mtime is younger
// than ttl.
func (f *FS) Get(key string, ttl time.Duration) ([]byte, bool) {
	p := f.path(key)
	st, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if time.Since(st.ModTime()) >= ttl {
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes the bytes for key, creating parent directories as needed.
func (f *FS) Put(key string, data []byte) error {
	p := f.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}
