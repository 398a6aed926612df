package dispose

import (
	"context"
	"sync"

	"github.com/wippyai/wasm-heap/errors"
)

// Future is the result of an operation that completes later.
//
// A Future may carry a completion step. It runs once, on the first goroutine
// that receives the result through Await, before that result is returned.
type Future[T any] struct {
	val  T
	err  error
	done chan struct{}
	once sync.Once

	complete     func() (T, error)
	completeOnce sync.Once
}

// Settle completes a pending Future. Only the first call has an effect.
type Settle[T any] func(T, error)

// Pending returns an unsettled Future and the function that settles it.
func Pending[T any]() (*Future[T], Settle[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.settle
}

// Go runs fn on a new goroutine. A panic in fn rejects the Future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, settle := Pending[T]()
	go func() {
		var (
			v   T
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				settle(zero, errors.Recovered(errors.PhaseDispose, r))
				return
			}
			settle(v, err)
		}()
		v, err = fn()
	}()
	return f
}

// Resolved returns a Future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f, settle := Pending[T]()
	settle(v, nil)
	return f
}

// Rejected returns a Future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f, settle := Pending[T]()
	var zero T
	settle(zero, err)
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.val = v
		f.err = err
		close(f.done)
	})
}

// then returns a Future that becomes available together with src and
// produces its result by running complete on the awaiting goroutine.
func then[T, U any](src *Future[T], complete func(T, error) (U, error)) *Future[U] {
	return &Future[U]{
		done: src.done,
		complete: func() (U, error) {
			return complete(src.result())
		},
	}
}

// Ready returns true once Await would return without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done is closed when the result is available to Await.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the Future settles or ctx is canceled. The first
// successful Await runs the completion step, if any.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	return f.result()
}

// result returns the settled value, running the completion step first.
func (f *Future[T]) result() (T, error) {
	if f.complete != nil {
		f.completeOnce.Do(func() {
			f.val, f.err = f.complete()
		})
	}
	return f.val, f.err
}
