// Package store defines the key-value capability controllers persist through.
//
// Implementations never return errors: a storage failure (disk full,
// read-only database, corrupt value) is logged and otherwise ignored so that
// it can never take a controller down with it.
package store

import (
	"encoding/json"
	"sync"

	"github.com/TobiSchelling/LitReview/internal/logger"
)

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MemoryStore) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// LoadJSON decodes the value under key into v. It reports false when the key
// is missing or the stored value does not decode.
func LoadJSON(s Store, key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logger.Warn("discarding unreadable stored value", "key", key, "err", err)
		return false
	}
	return true
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(s Store, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("encoding value for storage", "key", key, "err", err)
		return
	}
	s.Set(key, string(data))
}
