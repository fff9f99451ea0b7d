// Package storage provides object-store implementations of api.Store.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Dir is a filesystem-rooted object store. Keys map to paths below the
// base directory; the content type is accepted and discarded, since the
// filesystem has nowhere to keep it.
type Dir struct {
	basePath string
}

// NewDir creates a Dir store rooted at basePath, creating it if needed.
func NewDir(basePath string) (*Dir, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Dir{basePath: basePath}, nil
}

// Get reads the object at key.
func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.basePath, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

// Put writes data to key, creating intermediate directories as needed.
func (d *Dir) Put(_ context.Context, key, _ string, data []byte) error {
	path := filepath.Join(d.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating object directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing object %s: %w", key, err)
	}
	return nil
}

// BasePath returns the root directory of the store.
func (d *Dir) BasePath() string {
	return d.basePath
}

// Object is one stored blob with its content type.
type Object struct {
	ContentType string
	Data        []byte
}

// Mem is an in-memory object store, safe for concurrent use. It exists
// for tests and dry runs.
type Mem struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMem creates an empty in-memory store.
func NewMem() *Mem {
	return &Mem{objects: make(map[string]Object)}
}

// Get reads the object at key.
func (m *Mem) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s does not exist", key)
	}
	return obj.Data, nil
}

// Put stores data under key.
func (m *Mem) Put(_ context.Context, key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = Object{ContentType: contentType, Data: data}
	return nil
}

// Lookup returns the stored object and whether it exists.
func (m *Mem) Lookup(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	return obj, ok
}

// Keys returns the keys of every stored object.
func (m *Mem) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
