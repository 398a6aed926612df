package dispose

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-heap/errors"
)

// Disposable is implemented by every object that owns a foreign resource.
type Disposable interface {
	// Dispose releases the resource. It returns true only on the call that
	// performed the release.
	Dispose() bool
	// IsDisposed reports whether the resource has been released.
	IsDisposed() bool
}

// Checker is implemented by resources that can report use after release.
type Checker interface {
	// CheckDisposed returns an error of kind already_disposed once released.
	CheckDisposed() error
}

// IsDisposable reports whether x can be released. Nil interfaces and typed
// nil pointers are not disposable.
func IsDisposable(x any) bool {
	d, ok := x.(Disposable)
	return ok && !isNil(d)
}

// Dispose releases x if it is disposable. Panics from the release propagate.
func Dispose(x any) bool {
	if !IsDisposable(x) {
		return false
	}
	return x.(Disposable).Dispose()
}

// TryDispose releases x if it is disposable and swallows a panicking release,
// returning false in that case.
func TryDispose(x any) (released bool) {
	if !IsDisposable(x) {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("dispose failed", zap.Any("panic", r))
			released = false
		}
	}()
	return x.(Disposable).Dispose()
}

// Checked releases d and converts a panicking release into an error.
func Checked(d Disposable) (released bool, err error) {
	if isNil(d) {
		return false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			released = false
			err = errors.Recovered(errors.PhaseDispose, r)
		}
	}()
	return d.Dispose(), nil
}

// DisposeAll releases every disposable found in items, descending into
// nested slices and arrays. Nil entries and bool markers are skipped.
// A failing release does not stop the walk; the last failure is returned
// after every item was visited. The count is the number of items that
// were actually released by this call.
func DisposeAll(items ...any) (int, error) {
	var w walker
	for _, item := range items {
		w.visit(item)
	}
	return w.count, w.err
}

type walker struct {
	err   error
	count int
}

func (w *walker) visit(item any) {
	switch v := item.(type) {
	case nil, bool:
		return
	case Disposable:
		w.release(v)
		return
	case []any:
		for _, x := range v {
			w.visit(x)
		}
		return
	case []Disposable:
		for _, x := range v {
			w.release(x)
		}
		return
	}

	rv := reflect.ValueOf(item)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			w.visit(rv.Index(i).Interface())
		}
	}
}

func (w *walker) release(d Disposable) {
	released, err := Checked(d)
	if err != nil {
		Logger().Warn("dispose failed during bulk release", zap.Error(err))
		w.err = err
		return
	}
	if released {
		w.count++
	}
}

func isNil(d any) bool {
	if d == nil {
		return true
	}
	rv := reflect.ValueOf(d)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
