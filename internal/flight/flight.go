// Package flight provides a single-slot coalescing guard: while one call is
// in progress, later callers wait for its result instead of starting their own.
package flight

import (
	"context"

	"golang.org/x/sync/singleflight"
)

const slot = "slot"

// Flight coalesces concurrent calls into at most one running operation.
// The slot is released as soon as the operation settles, before any waiter
// observes the result, so a caller that starts after a waiter resumes always
// runs a fresh operation. The zero value is ready to use.
type Flight[T any] struct {
	group singleflight.Group
}

// Do runs fn unless an operation is already in flight, in which case it waits
// for that one. shared reports whether the result was delivered to more than
// one caller.
//
// fn runs with a context detached from the caller's cancellation so that a
// caller giving up does not fail the operation for everyone else. If ctx ends
// first, Do returns ctx.Err() while the operation keeps running. A ctx that is
// already done never starts or joins an operation.
func (f *Flight[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (v T, shared bool, err error) {
	if err := ctx.Err(); err != nil {
		return v, false, err
	}
	detached := context.WithoutCancel(ctx)
	ch := f.group.DoChan(slot, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return v, res.Shared, res.Err
		}
		if res.Val != nil {
			v = res.Val.(T)
		}
		return v, res.Shared, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}

// Forget releases the slot so the next Do starts a new operation even if the
// current one has not settled yet.
func (f *Flight[T]) Forget() {
	f.group.Forget(slot)
}
