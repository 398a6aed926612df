// Package dispose defines the release contract shared by every foreign-backed
// object and the combinators built on it.
//
// # Contract
//
// Dispose is idempotent: it returns true on the call that actually releases
// the resource and false on every later call. It never fails for the
// "already disposed" case. A Dispose that panics is treated as a failed
// release by the helpers in this package.
//
// # Combinators
//
//	TryDispose(x)        release, swallowing and logging any panic
//	Using(r, body)       run body, release r on every exit path
//	UsingAsync(r, body)  release r when the returned Future is awaited
//	DisposeAll(items...) release a nested collection, report the last failure
//
// Cleanup paths use TryDispose so that a failing release never replaces the
// error that caused the cleanup.
package dispose
