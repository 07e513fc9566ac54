package backend

import (
	"context"
	"errors"
	"time"
)

// Invoke runs call under a deadline of d.
//
// When the deadline elapses Invoke returns ErrTimeout immediately. The
// context handed to call is cancelled at that point, which aborts an
// in-flight HTTP request, and whatever call eventually returns is dropped.
// The timer is released on every return path.
func Invoke[T any](ctx context.Context, d time.Duration, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	// Buffered so a call that finishes after the deadline never blocks.
	done := make(chan outcome, 1)
	go func() {
		v, err := call(ctx)
		done <- outcome{value: v, err: err}
	}()

	var zero T
	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return zero, ErrTimeout
			}
			return zero, out.err
		}
		return out.value, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
