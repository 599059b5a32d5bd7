package session

import "sync"

// Bus is the in-process change channel. Every store mutation publishes once.
type Bus struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]func())}
}

// Subscribe registers fn and returns a func that removes it.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish synchronously invokes every listener.
func (b *Bus) Publish() {
	b.mu.RLock()
	handlers := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn()
	}
}
