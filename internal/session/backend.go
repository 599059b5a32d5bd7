package session

import "context"

// Backend is durable key/value storage for session values.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Watcher is implemented by backends that can deliver change signals across
// processes sharing the same storage.
type Watcher interface {
	// Broadcast announces that keys under prefix changed. origin identifies
	// the writing store so it can ignore its own announcement.
	Broadcast(ctx context.Context, prefix, origin string) error
	// Watch registers onChange for changes under prefix made by any origin
	// other than origin. The subscription is active when Watch returns; stop
	// ends it. onChange carries no payload: callers re-read the store.
	Watch(ctx context.Context, prefix, origin string, onChange func()) (stop func(), err error)
}
