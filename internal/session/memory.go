package session

import (
	"context"
	"strings"
	"sync"
)

// MemoryBackend keeps values in process memory. Stores sharing one
// MemoryBackend see each other's writes and change broadcasts, the way tabs of
// one origin share browser storage.
type MemoryBackend struct {
	mu       sync.RWMutex
	values   map[string]string
	nextID   int
	watchers map[int]memoryWatcher
}

type memoryWatcher struct {
	prefix   string
	origin   string
	onChange func()
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values:   make(map[string]string),
		watchers: make(map[int]memoryWatcher),
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Broadcast notifies watchers on the same prefix registered by other origins.
func (m *MemoryBackend) Broadcast(_ context.Context, prefix, origin string) error {
	m.mu.RLock()
	var targets []func()
	for _, w := range m.watchers {
		if w.origin != origin && prefixesOverlap(w.prefix, prefix) {
			targets = append(targets, w.onChange)
		}
	}
	m.mu.RUnlock()

	for _, fn := range targets {
		fn()
	}
	return nil
}

func (m *MemoryBackend) Watch(_ context.Context, prefix, origin string, onChange func()) (func(), error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = memoryWatcher{prefix: prefix, origin: origin, onChange: onChange}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}, nil
}

func prefixesOverlap(a, b string) bool {
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}
