package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans session lifecycle events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe registers handler for the listed types, or for every type
	// when none are given. The returned func removes the subscription.
	Subscribe(handler EventHandler, types ...EventType) (unsubscribe func())
}

type subscription struct {
	id      uint64
	types   []EventType
	handler EventHandler
}

func (s subscription) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

type inMemoryDispatcher struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewInMemoryDispatcher creates a synchronous dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{}
}

// Publish runs every matching handler in subscription order on the calling
// goroutine. Handler errors and panics are joined into the result.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	var matched []EventHandler
	for _, s := range d.subs {
		if s.wants(event.Type) {
			matched = append(matched, s.handler)
		}
	}
	d.mu.RUnlock()

	var errs []error
	for _, h := range matched {
		if err := invoke(ctx, h, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *inMemoryDispatcher) Subscribe(handler EventHandler, types ...EventType) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, types: slices.Clone(types), handler: handler})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			d.subs = slices.DeleteFunc(d.subs, func(s subscription) bool { return s.id == id })
		})
	}
}

func invoke(ctx context.Context, h EventHandler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panicked: %v", e.Type, r)
		}
	}()
	return h(ctx, e)
}
