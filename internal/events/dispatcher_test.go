package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRoutesByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var created, all []EventType
	d.Subscribe(func(_ context.Context, e Event) error {
		created = append(created, e.Type)
		return nil
	}, EventSessionCreated)
	d.Subscribe(func(_ context.Context, e Event) error {
		all = append(all, e.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionCreated}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionRevoked}))

	assert.Equal(t, []EventType{EventSessionCreated}, created)
	assert.Equal(t, []EventType{EventSessionCreated, EventSessionRevoked}, all)
}

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	ran := 0
	d.Subscribe(func(context.Context, Event) error { ran++; return boom }, EventLoginFailed)
	d.Subscribe(func(context.Context, Event) error { ran++; panic("bad handler") }, EventLoginFailed)
	d.Subscribe(func(context.Context, Event) error { ran++; return nil }, EventLoginFailed)

	err := d.Publish(context.Background(), Event{Type: EventLoginFailed})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "login_failed handler panicked: bad handler")
	assert.Equal(t, 3, ran)
}

func TestUnsubscribe(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	stop := d.Subscribe(func(context.Context, Event) error { calls++; return nil })
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionRotated}))

	stop()
	stop()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionRotated}))
	assert.Equal(t, 1, calls)
}
