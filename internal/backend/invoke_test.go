package backend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeReturnsResult(t *testing.T) {
	got, err := Invoke(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestInvokePassesThroughFailure(t *testing.T) {
	want := &TransportError{Status: 500, Message: "boom"}
	_, err := Invoke(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, want
	})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "boom", te.Message)
}

func TestInvokeTimesOutAndCancels(t *testing.T) {
	var cancelled atomic.Bool
	finished := make(chan struct{})

	start := time.Now()
	_, err := Invoke(context.Background(), 100*time.Millisecond, func(ctx context.Context) (string, error) {
		defer close(finished)
		<-ctx.Done()
		cancelled.Store(true)
		return "", ctx.Err()
	})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 400*time.Millisecond)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("call never observed cancellation")
	}
	assert.True(t, cancelled.Load())
}

func TestInvokeDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	returned := make(chan struct{})

	got, err := Invoke(context.Background(), 50*time.Millisecond, func(ctx context.Context) (string, error) {
		defer close(returned)
		// Ignores its context on purpose.
		<-release
		return "late", nil
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Empty(t, got)

	close(release)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("call goroutine blocked after timeout")
	}
}

func TestInvokeParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Invoke(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, TimeoutNotice, Describe(ErrTimeout))
	assert.Equal(t, TimeoutNotice, Describe(errors.Join(errors.New("wrapped"), ErrTimeout)))
	assert.Equal(t, "model overloaded", Describe(&TransportError{Status: 503, Message: "model overloaded"}))
	assert.Contains(t, Describe(&NetworkError{Err: errors.New("connection refused")}), "connection refused")
	assert.Empty(t, Describe(nil))
}
