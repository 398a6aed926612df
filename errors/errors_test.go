package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseView,
				Kind:   KindInvalidArgument,
				Path:   []string{"view", "set"},
				Detail: "offset too large",
			},
			contains: []string{"[view]", "invalid_argument", "view.set", "offset too large"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseCursor,
				Kind:  KindAlreadyDisposed,
			},
			contains: []string{"[cursor]", "already_disposed"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[alloc]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseForeign,
		Kind:  KindForeignOperation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseView,
		Kind:  KindInvalidArgument,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseView, Kind: KindInvalidArgument}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseArena, Kind: KindInvalidArgument}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseView, Kind: KindAllocation}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Error("phase-less sentinel should match on kind")
	}
	if errors.Is(err, ErrAlreadyDisposed) {
		t.Error("sentinel of another kind should not match")
	}
	if err.Is(errors.New("plain")) {
		t.Error("Is should not match foreign error types")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseView, KindInvalidArgument).
		Path("view", "set").
		Value(42).
		Cause(cause).
		Detail("offset %d exceeds %d", 42, 8).
		Build()

	if err.Phase != PhaseView {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseView)
	}
	if err.Kind != KindInvalidArgument {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidArgument)
	}
	if len(err.Path) != 2 || err.Path[1] != "set" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if err.Cause != cause {
		t.Error("Cause not set")
	}
	if err.Detail != "offset 42 exceeds 8" {
		t.Errorf("Detail = %q", err.Detail)
	}

	plain := New(PhaseArena, KindInvalidArgument).Detail("100%").Build()
	if plain.Detail != "100%" {
		t.Errorf("Detail without args = %q", plain.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("AlreadyDisposed", func(t *testing.T) {
		err := AlreadyDisposed(PhaseCursor, "cursor")
		if !errors.Is(err, ErrAlreadyDisposed) {
			t.Error("expected already_disposed kind")
		}
		if !strings.Contains(err.Error(), "cursor is disposed") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseAlloc, 1024)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail %q should mention size", err.Detail)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		err := OutOfRange(PhaseView, []string{"set"}, 3, 4, 5)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Error("range violation should be an invalid argument")
		}
		if err.Value != 3 {
			t.Errorf("Value = %v, want 3", err.Value)
		}
	})

	t.Run("ForeignFailure", func(t *testing.T) {
		err := ForeignFailure("cursor_next", 2)
		if err.Phase != PhaseForeign || !errors.Is(err, ErrForeignOperation) {
			t.Errorf("unexpected error %v", err)
		}
		if !strings.Contains(err.Error(), "cursor_next") {
			t.Errorf("message %q should contain op", err.Error())
		}
	})

	t.Run("Recovered", func(t *testing.T) {
		cause := errors.New("boom")
		if err := Recovered(PhaseDispose, cause); !errors.Is(err, cause) {
			t.Error("recovered error should wrap the panic value")
		}
		if err := Recovered(PhaseDispose, "boom"); !strings.Contains(err.Detail, "boom") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("NotInitialized", func(t *testing.T) {
		err := NotInitialized(PhaseRuntime, "heap")
		if err.Kind != KindNotInitialized || !strings.Contains(err.Detail, "heap") {
			t.Errorf("unexpected error %v", err)
		}
	})
}
