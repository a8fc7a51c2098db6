package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Medium. It is used by tests and as a fallback
// when no durable storage can be opened.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailWrite, when set, is consulted before every Write and Remove. A
	// non-nil return is reported to the caller and nothing is stored.
	FailWrite func(key string) error
	// FailRead, when set, is consulted before every Read.
	FailRead func(key string) error

	writes int
}

// NewMemory returns an empty in-memory medium.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		if err := m.FailRead(key); err != nil {
			return nil, err
		}
	}
	val, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (m *Memory) Write(key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		if err := m.FailWrite(key); err != nil {
			return err
		}
	}
	m.data[key] = append([]byte(nil), val...)
	m.writes++
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		if err := m.FailWrite(key); err != nil {
			return err
		}
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Writes returns the number of successful writes so far.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
