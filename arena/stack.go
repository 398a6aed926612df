package arena

import "context"

// Stack is a LIFO of started arenas. The same arena may appear several
// times when it is started repeatedly.
type Stack struct {
	entries []*Arena
}

var defaultStack = &Stack{}

// Default returns the process-wide stack.
func Default() *Stack {
	return defaultStack
}

// Current returns the top arena of the process-wide stack, or nil.
func Current() *Arena {
	return defaultStack.Current()
}

// NewStack creates an empty stack independent of the process-wide one.
func NewStack() *Stack {
	return &Stack{}
}

// Current returns the top arena, or nil when the stack is empty.
func (s *Stack) Current() *Arena {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// Depth returns the number of stack entries.
func (s *Stack) Depth() int {
	return len(s.entries)
}

// NewArena creates an arena that starts and stops on s.
func (s *Stack) NewArena() *Arena {
	return &Arena{
		stack:   s,
		index:   make(map[Member]int),
		escaped: make(map[Member]struct{}),
	}
}

func (s *Stack) push(a *Arena) {
	s.entries = append(s.entries, a)
}

// remove drops the occurrence of a nearest to the top.
func (s *Stack) remove(a *Arena) bool {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i] == a {
			copy(s.entries[i:], s.entries[i+1:])
			s.entries[len(s.entries)-1] = nil
			s.entries = s.entries[:len(s.entries)-1]
			return true
		}
	}
	return false
}

type contextKey struct{}

// NewContext returns a context carrying a.
func NewContext(ctx context.Context, a *Arena) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the arena carried by ctx, falling back to Current.
func FromContext(ctx context.Context) *Arena {
	if ctx != nil {
		if a, ok := ctx.Value(contextKey{}).(*Arena); ok {
			return a
		}
	}
	return Current()
}
