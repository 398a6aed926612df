package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAlloc   Phase = "alloc"   // foreign allocation
	PhaseDispose Phase = "dispose" // release paths
	PhaseView    Phase = "view"    // typed views over blocks
	PhaseArena   Phase = "arena"   // scope bookkeeping
	PhaseCursor  Phase = "cursor"  // iteration cursors
	PhaseForeign Phase = "foreign" // native engine calls
	PhaseRuntime Phase = "runtime" // runtime setup and teardown
	PhaseLoad    Phase = "load"    // engine module loading
)

// Kind categorizes the error
type Kind string

const (
	KindAlreadyDisposed  Kind = "already_disposed"
	KindAllocation       Kind = "allocation"
	KindInvalidArgument  Kind = "invalid_argument"
	KindForeignOperation Kind = "foreign_operation"
	KindNotInitialized   Kind = "not_initialized"
	KindInvalidData      Kind = "invalid_data"
)

// Sentinels for errors.Is checks that do not care about the phase.
var (
	ErrAlreadyDisposed  = &Error{Kind: KindAlreadyDisposed}
	ErrAllocation       = &Error{Kind: KindAllocation}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrForeignOperation = &Error{Kind: KindForeignOperation}
	ErrNotInitialized   = &Error{Kind: KindNotInitialized}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the operation path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AlreadyDisposed reports an operation on a released handle
func AlreadyDisposed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAlreadyDisposed,
		Detail: fmt.Sprintf("%s is disposed", what),
	}
}

// AllocationFailed reports a null offset returned for a nonzero request
func AllocationFailed(phase Phase, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Value:  size,
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// OutOfRange reports a bulk write that does not fit its destination
func OutOfRange(phase Phase, path []string, offset, count, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Path:   path,
		Detail: fmt.Sprintf("offset %d + count %d exceeds length %d", offset, count, length),
		Value:  offset,
	}
}

// ForeignFailure reports a nonzero status returned by a native call
func ForeignFailure(op string, status int32) *Error {
	return &Error{
		Phase:  PhaseForeign,
		Kind:   KindForeignOperation,
		Path:   []string{op},
		Detail: fmt.Sprintf("status %d", status),
		Value:  status,
	}
}

// NotInitialized creates a not-initialized error for a missing collaborator
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Recovered turns a value recovered from a panic into an error.
func Recovered(phase Phase, r any) *Error {
	if err, ok := r.(error); ok {
		return Wrap(phase, KindForeignOperation, err, "panicked")
	}
	return &Error{
		Phase:  phase,
		Kind:   KindForeignOperation,
		Detail: fmt.Sprintf("panicked: %v", r),
		Value:  r,
	}
}

// Load creates an engine loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
