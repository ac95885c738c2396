package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock sets the clock (for testing expiry).
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value for key if present and unexpired. Expired entries
// are removed on read.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock: a Set may have raced the expiry.
		if cur, ok := m.entries[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true, nil
}

// Set stores value under key with the given TTL.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including any not yet lazily
// expired.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
