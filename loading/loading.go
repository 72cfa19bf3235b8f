// SPDX-License-Identifier: EPL-2.0

package loading

import (
	"context"
	"fmt"
)

// Status is the state of a Loading cell.
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool { return s != StatusPending }

// Factory produces the value of a Loading on a background goroutine. It must
// not share mutable state with the caller; ctx is cancelled when the owner
// discards the Loading.
type Factory[T any] func(ctx context.Context) (T, error)

type outcome[T any] struct {
	value T
	err   error
}

// Loading is a single-slot placeholder for a value produced in the
// background and collected by polling from the owning goroutine, typically
// once per frame.
//
// The producer writes its outcome exactly once into a one-element channel and
// never touches the Loading again. All other fields belong to the owner, so a
// Loading must not be used from more than one goroutine.
type Loading[T any] struct {
	done   chan outcome[T]
	cancel context.CancelFunc

	status Status
	value  T
	err    error
}

// Request starts fn on a new goroutine and returns immediately with a
// pending Loading.
func Request[T any](ctx context.Context, fn Factory[T]) *Loading[T] {
	ctx, cancel := context.WithCancel(ctx)
	l := &Loading[T]{
		done:   make(chan outcome[T], 1),
		cancel: cancel,
	}

	go produce(ctx, fn, l.done)

	return l
}

// produce runs fn and posts its outcome. It only holds the channel, so a
// discarded Loading can be collected while fn is still running.
func produce[T any](ctx context.Context, fn Factory[T], done chan<- outcome[T]) {
	var out outcome[T]
	defer func() {
		if r := recover(); r != nil {
			out = outcome[T]{err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
		done <- out
	}()

	out.value, out.err = fn(ctx)
}

// Ready returns an already resolved Loading holding v.
func Ready[T any](v T) *Loading[T] {
	return &Loading[T]{status: StatusReady, value: v, cancel: func() {}}
}

// Failed returns an already failed Loading.
func Failed[T any](err error) *Loading[T] {
	return &Loading[T]{status: StatusFailed, err: wrapLoad(err), cancel: func() {}}
}

func wrapLoad(err error) error {
	if err == nil {
		err = ErrNilResult
	}
	return fmt.Errorf("%w: %w", ErrLoad, err)
}

// Poll checks for the producer's outcome without blocking. While the
// producer runs it returns StatusPending and a nil error. Once the outcome
// has been observed every call returns the same terminal status; for
// StatusFailed the error wraps ErrLoad.
func (l *Loading[T]) Poll() (Status, error) {
	if l.status.Terminal() {
		return l.status, l.err
	}

	select {
	case out := <-l.done:
		l.cancel()
		if out.err != nil {
			l.status = StatusFailed
			l.err = wrapLoad(out.err)
			return l.status, l.err
		}
		l.status = StatusReady
		l.value = out.value
	default:
	}

	return l.status, l.err
}

// Status reports the last observed status; it does not poll.
func (l *Loading[T]) Status() Status { return l.status }

// Err is the failure observed by Poll, or nil.
func (l *Loading[T]) Err() error { return l.err }

// Result returns the value once Poll has observed StatusReady.
func (l *Loading[T]) Result() (T, bool) {
	if l.status != StatusReady {
		var zero T
		return zero, false
	}
	return l.value, true
}

// ResultPtr returns a pointer to the stored value once Poll has observed
// StatusReady, and nil otherwise. The pointer stays valid for the lifetime
// of the Loading.
func (l *Loading[T]) ResultPtr() *T {
	if l.status != StatusReady {
		return nil
	}
	return &l.value
}

// Wait blocks until the producer finishes or ctx is done. It is meant for
// callers without a frame loop; frame loops use Poll.
func (l *Loading[T]) Wait(ctx context.Context) (Status, error) {
	if l.status.Terminal() {
		return l.status, l.err
	}

	select {
	case out := <-l.done:
		l.done <- out
		return l.Poll()
	case <-ctx.Done():
		return l.status, ctx.Err()
	}
}

// Discard drops the Loading. The producer's context is cancelled and its
// result, if it ever arrives, is thrown away. After Discard the Loading
// reports StatusFailed with ErrDiscarded.
func (l *Loading[T]) Discard() {
	l.cancel()

	var zero T
	l.value = zero
	l.status = StatusFailed
	l.err = wrapLoad(ErrDiscarded)
}
