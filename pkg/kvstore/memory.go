package kvstore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu          sync.RWMutex
	data        map[string][]byte
	subscribers map[string][]func(value []byte)
}

// NewMemory returns an in-process store, used in tests and as the default
// when no cache directory is configured.
func NewMemory() StoreI {
	return &memoryStore{
		data:        map[string][]byte{},
		subscribers: map[string][]func(value []byte){},
	}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *memoryStore) Subscribe(key string, fn func(value []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribers[key] = append(m.subscribers[key], fn)
}

// SimulateExternalChange lets tests inject a change as if another process
// wrote the key.
func (m *memoryStore) SimulateExternalChange(key string, value []byte) {
	m.mu.Lock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	subs := append([]func(value []byte){}, m.subscribers[key]...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

func (m *memoryStore) Close() error { return nil }

// ExternalChanger is implemented by stores that can replay an
// externally-originated write, for tests.
type ExternalChanger interface {
	SimulateExternalChange(key string, value []byte)
}
