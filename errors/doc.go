// Package errors provides structured error types for the wasm-heap library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the operation path, a detail message, the offending value
// and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseView, errors.KindInvalidArgument).
//		Path("view", "set").
//		Value(offset).
//		Detail("offset %d + %d exceeds length %d", offset, n, length).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AlreadyDisposed(errors.PhaseCursor, "cursor")
//	err := errors.AllocationFailed(errors.PhaseAlloc, 4096)
//
// Phase-less sentinels match any phase of the same kind:
//
//	if errors.Is(err, errors.ErrAlreadyDisposed) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
