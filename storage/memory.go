package storage

import "sync"

// Memory is an in-memory KV. One instance is created per browser session.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ KV = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
	}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
}

func (m *Memory) Remove(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]string)
}
