// SPDX-License-Identifier: EPL-2.0

package loading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gated returns a factory that blocks until release is closed.
func gated[T any](v T, err error) (Factory[T], chan struct{}) {
	release := make(chan struct{})
	return func(ctx context.Context) (T, error) {
		<-release
		return v, err
	}, release
}

// pollUntil polls l until it leaves StatusPending.
func pollUntil[T any](t *testing.T, l *Loading[T]) (Status, error) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, err := l.Poll()
		if status.Terminal() {
			return status, err
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("loading never resolved")
	return StatusPending, nil
}

func TestLoading_PendingUntilProduced(t *testing.T) {
	t.Parallel()

	fn, release := gated(42, nil)
	l := Request(context.Background(), fn)

	for range 5 {
		status, err := l.Poll()
		assert.Equal(t, StatusPending, status)
		assert.NoError(t, err)
	}

	v, ok := l.Result()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Nil(t, l.ResultPtr())

	close(release)

	status, err := pollUntil(t, l)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)

	v, ok = l.Result()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestLoading_TerminalIsIdempotent(t *testing.T) {
	t.Parallel()

	cause := errors.New("missing resource")
	l := Request(context.Background(), func(ctx context.Context) (string, error) {
		return "", cause
	})

	status, err := pollUntil(t, l)
	require.Equal(t, StatusFailed, status)
	require.ErrorIs(t, err, ErrLoad)
	require.ErrorIs(t, err, cause)

	for range 10 {
		again, againErr := l.Poll()
		assert.Equal(t, status, again)
		assert.Equal(t, err, againErr)
	}

	_, ok := l.Result()
	assert.False(t, ok)
	assert.Equal(t, err, l.Err())
}

func TestLoading_ResultPtrMutatesStoredValue(t *testing.T) {
	t.Parallel()

	type counter struct{ n int }
	l := Request(context.Background(), func(ctx context.Context) (counter, error) {
		return counter{n: 1}, nil
	})
	pollUntil(t, l)

	p := l.ResultPtr()
	require.NotNil(t, p)
	p.n++

	v, _ := l.Result()
	assert.Equal(t, 2, v.n)
}

func TestLoading_PanicBecomesFailure(t *testing.T) {
	t.Parallel()

	l := Request(context.Background(), func(ctx context.Context) (int, error) {
		panic("decoder exploded")
	})

	status, err := pollUntil(t, l)
	assert.Equal(t, StatusFailed, status)
	assert.ErrorIs(t, err, ErrPanic)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoading_DiscardBeforeResolve(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	finished := make(chan struct{})
	l := Request(context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		defer close(finished)
		return 7, nil
	})

	<-started
	l.Discard()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("producer was not cancelled")
	}

	status, err := l.Poll()
	assert.Equal(t, StatusFailed, status)
	assert.ErrorIs(t, err, ErrDiscarded)
	_, ok := l.Result()
	assert.False(t, ok)
}

func TestLoading_DiscardedProducerStillFinishes(t *testing.T) {
	t.Parallel()

	fn, release := gated("late", nil)
	l := Request(context.Background(), fn)
	l.Discard()

	// the producer ignores cancellation; posting must not block
	close(release)

	status, _ := l.Poll()
	assert.Equal(t, StatusFailed, status)
}

func TestLoading_Wait(t *testing.T) {
	t.Parallel()

	fn, release := gated(3.5, nil)
	l := Request(context.Background(), fn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	status, err := l.Wait(ctx)
	assert.Equal(t, StatusPending, status)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	status, err = l.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)

	v, ok := l.Result()
	assert.True(t, ok)
	assert.InDelta(t, 3.5, v, 0)
}

func TestReadyAndFailed(t *testing.T) {
	t.Parallel()

	r := Ready("cached")
	status, err := r.Poll()
	assert.Equal(t, StatusReady, status)
	assert.NoError(t, err)
	v, ok := r.Result()
	assert.True(t, ok)
	assert.Equal(t, "cached", v)

	f := Failed[int](nil)
	status, err = f.Poll()
	assert.Equal(t, StatusFailed, status)
	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, ErrNilResult)
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusReady, "ready"},
		{StatusFailed, "failed"},
		{Status(9), "Status(9)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}
