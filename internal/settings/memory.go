package settings

import (
	"context"
	"sync"
)

// MemoryBackend keeps settings in process memory. Values are lost on exit.
type MemoryBackend struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]map[string]string),
	}
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, namespace, key string) (string, bool, error) {
	if err := validateKey(namespace, key); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	value, ok := m.data[namespace][key]
	return value, ok, nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(_ context.Context, namespace, key, value string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]string)
		m.data[namespace] = ns
	}
	ns[key] = value
	return nil
}

// Erase implements Backend.
func (m *MemoryBackend) Erase(_ context.Context, namespace, key string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.data[namespace], key)
	return nil
}

// HealthCheck implements Backend.
func (m *MemoryBackend) HealthCheck(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
