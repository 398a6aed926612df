package native

import (
	"github.com/wippyai/wasm-heap/errors"
)

// Status is the result code of a native call.
type Status int32

const (
	StatusOK              Status = 0
	StatusInvalidHandle   Status = -1
	StatusAllocation      Status = -2
	StatusInvalidData     Status = -3
	StatusOutOfBounds     Status = -4
	StatusVersionMismatch Status = -5
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidHandle:
		return "invalid handle"
	case StatusAllocation:
		return "allocation failed"
	case StatusInvalidData:
		return "invalid data"
	case StatusOutOfBounds:
		return "out of bounds"
	case StatusVersionMismatch:
		return "version mismatch"
	default:
		return "unknown"
	}
}

// Err returns nil for StatusOK and a foreign_operation error naming op
// otherwise.
func (s Status) Err(op string) error {
	if s == StatusOK {
		return nil
	}
	e := errors.ForeignFailure(op, int32(s))
	e.Detail = e.Detail + " (" + s.String() + ")"
	return e
}
