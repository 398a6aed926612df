package dispose

import (
	"github.com/wippyai/wasm-heap/errors"
)

// Using runs body with r and releases r exactly once on every exit path.
//
// On success a failing release is returned as the error. When body returns
// an error or panics, the release is attempted with TryDispose and the
// original error or panic is propagated unchanged.
func Using[R Disposable, T any](r R, body func(R) (T, error)) (result T, err error) {
	defer func() {
		if p := recover(); p != nil {
			TryDispose(r)
			panic(p)
		}
	}()

	result, err = body(r)
	if err != nil {
		TryDispose(r)
		return result, err
	}
	if _, derr := Checked(r); derr != nil {
		return result, derr
	}
	return result, nil
}

// UsingValue releases r and returns v. It is the bare-value form of Using.
func UsingValue[R Disposable, T any](r R, v T) (T, error) {
	if _, err := Checked(r); err != nil {
		return v, err
	}
	return v, nil
}

// UsingAsync calls body with r and releases r once the Future returned by
// body settles, whether it succeeds or fails. A panic inside body releases r
// before propagating.
//
// The release runs on the first goroutine that awaits the returned Future,
// never on a background goroutine, so r's heap is only touched by the flow
// that owns it. Until then r stays allocated and must not be used by any
// other flow. A Future that is never awaited never releases r; its arena or
// reclaimer does.
func UsingAsync[R Disposable, T any](r R, body func(R) *Future[T]) *Future[T] {
	defer func() {
		if p := recover(); p != nil {
			TryDispose(r)
			panic(p)
		}
	}()

	inner := body(r)
	if inner == nil {
		TryDispose(r)
		return Rejected[T](errors.InvalidArgument(errors.PhaseDispose, "async body returned a nil future"))
	}

	return then(inner, func(v T, err error) (T, error) {
		if err != nil {
			TryDispose(r)
			return v, err
		}
		if _, derr := Checked(r); derr != nil {
			return v, derr
		}
		return v, nil
	})
}
