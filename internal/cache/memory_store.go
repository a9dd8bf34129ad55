package cache

import (
	"context"
	"path/filepath"
	"sync"
	"time"
)

// entry pairs a stored value with its absolute expiry, mirroring the
// minimal state go-redis tracks per key.
type entry struct {
	value   []byte
	expires time.Time
	noTTL   bool
}

// MemoryStore is an in-process Store used in place of a live Redis server:
// by tests, and by cmd/regimescope when the Redis cache is not connected
// on start. Its contents do not outlive the process.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.noTTL && time.Now().After(e.expires) {
		delete(m.data, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	if ttl <= 0 {
		m.data[key] = entry{value: v, noTTL: true}
		return nil
	}
	m.data[key] = entry{value: v, expires: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		matched, err := filepath.Match(pattern, k)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return -2 * time.Second, nil
	}
	if e.noTTL {
		return -1 * time.Second, nil
	}
	return time.Until(e.expires), nil
}
