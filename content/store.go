// ABOUTME: Content store abstraction read by the HTTP server and an in-memory map implementation.
// ABOUTME: MapStore is owned and mutated by its creator; every Get reads the live mapping.
package content

import (
	"sort"
	"sync"
)

// DefaultEntry is the key served at the root path unless configured otherwise.
const DefaultEntry = "specRunner.html"

// Store is the read side of a path -> body mapping.
type Store interface {
	Get(path string) ([]byte, bool)
}

// MapStore is an in-memory Store. Lookups are exact: keys are request paths
// relative to the root, without a leading slash.
type MapStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMapStore creates a MapStore seeded with string bodies.
func NewMapStore(files map[string]string) *MapStore {
	m := &MapStore{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		m.files[k] = []byte(v)
	}
	return m
}

// Get returns the body stored at path.
func (m *MapStore) Get(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.files[path]
	return body, ok
}

// Set stores body at path.
func (m *MapStore) Set(path, body string) {
	m.SetBytes(path, []byte(body))
}

// SetBytes stores body at path. The slice is retained.
func (m *MapStore) SetBytes(path string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = body
}

// Delete removes path.
func (m *MapStore) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

// Replace swaps in a whole new mapping at once.
func (m *MapStore) Replace(files map[string][]byte) {
	next := make(map[string][]byte, len(files))
	for k, v := range files {
		next[k] = v
	}
	m.mu.Lock()
	m.files = next
	m.mu.Unlock()
}

// Keys returns the stored paths in sorted order.
func (m *MapStore) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
