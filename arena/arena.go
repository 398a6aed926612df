package arena

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-heap/dispose"
)

// Member is anything an arena can release. Members are compared by
// identity, so they must be pointer-like.
type Member = dispose.Disposable

// Rebinder is implemented by members that keep a back-reference to their
// arena. Transfer calls RebindArena with the destination.
type Rebinder interface {
	RebindArena(a *Arena)
}

// Arena tracks members registered while it is current and releases them on
// Stop. It holds no ownership of the members beyond the right to release them.
type Arena struct {
	stack   *Stack
	index   map[Member]int
	escaped map[Member]struct{}
	members []Member
	holes   int
	nesting int
}

// New creates an arena on the process-wide stack.
func New() *Arena {
	return defaultStack.NewArena()
}

// Start pushes a onto its stack and increments the nesting counter.
func (a *Arena) Start() *Arena {
	a.nesting++
	a.stack.push(a)
	return a
}

// Stop removes the nearest stack entry of a, decrements the nesting counter
// and releases every registered member that was not escaped. The registered
// set is cleared regardless of the remaining nesting. A failing release does
// not stop the pass; the last failure is returned.
func (a *Arena) Stop() error {
	a.stack.remove(a)
	if a.nesting > 0 {
		a.nesting--
	}

	members := a.members
	a.members = nil
	a.holes = 0
	clear(a.index)

	var (
		last     error
		released int
		skipped  int
	)
	for _, m := range members {
		if m == nil {
			continue
		}
		if _, ok := a.escaped[m]; ok {
			skipped++
			continue
		}
		ok, err := dispose.Checked(m)
		if err != nil {
			Logger().Warn("arena member release failed", zap.Error(err))
			last = err
			continue
		}
		if ok {
			released++
		}
	}

	Logger().Debug("arena stopped",
		zap.Int("released", released),
		zap.Int("escaped", skipped),
		zap.Int("nesting", a.nesting))
	return last
}

// With starts a, runs fn and stops a on every exit path, including panics.
// The error of fn takes precedence over a release failure.
func (a *Arena) With(fn func(*Arena) error) (err error) {
	a.Start()
	defer func() {
		if serr := a.Stop(); err == nil {
			err = serr
		}
	}()
	return fn(a)
}

// Run is With for functions that produce a value.
func Run[T any](a *Arena, fn func(*Arena) (T, error)) (result T, err error) {
	err = a.With(func(a *Arena) error {
		var ferr error
		result, ferr = fn(a)
		return ferr
	})
	return result, err
}

// Register adds m to the registered set. Registering twice is a no-op.
func (a *Arena) Register(m Member) {
	if m == nil {
		return
	}
	if _, ok := a.index[m]; ok {
		return
	}
	a.index[m] = len(a.members)
	a.members = append(a.members, m)
}

// Unregister removes m from the registered and escaped sets.
func (a *Arena) Unregister(m Member) bool {
	delete(a.escaped, m)
	i, ok := a.index[m]
	if !ok {
		return false
	}
	delete(a.index, m)
	a.members[i] = nil
	a.holes++
	if a.holes > 32 && a.holes > len(a.members)/2 {
		a.compact()
	}
	return true
}

// Escape marks m so release passes skip it. The caller becomes responsible
// for releasing m or registering it elsewhere.
//
// The mark outlives Stop, so a holds a reference to m until m is
// unregistered or transferred away. Members that unregister themselves on
// Dispose drop the mark when released.
func (a *Arena) Escape(m Member) {
	if m == nil {
		return
	}
	a.escaped[m] = struct{}{}
}

// IsEscaped reports whether m was escaped from a.
func (a *Arena) IsEscaped(m Member) bool {
	_, ok := a.escaped[m]
	return ok
}

// Contains reports whether m is registered with a.
func (a *Arena) Contains(m Member) bool {
	_, ok := a.index[m]
	return ok
}

// Transfer moves m from a to dst. A nil dst leaves m unowned by any arena.
func (a *Arena) Transfer(m Member, dst *Arena) {
	if m == nil {
		return
	}
	a.Unregister(m)
	if dst != nil {
		dst.Register(m)
	}
	if r, ok := m.(Rebinder); ok {
		r.RebindArena(dst)
	}
}

// Size returns the number of registered members.
func (a *Arena) Size() int {
	return len(a.index)
}

// Escaped returns the number of escaped members.
func (a *Arena) Escaped() int {
	return len(a.escaped)
}

// Nesting returns the number of unmatched Start calls.
func (a *Arena) Nesting() int {
	return a.nesting
}

// OnStack reports whether a has at least one unmatched Start.
func (a *Arena) OnStack() bool {
	return a.nesting > 0
}

// Stack returns the stack a starts on.
func (a *Arena) Stack() *Stack {
	return a.stack
}

func (a *Arena) compact() {
	live := a.members[:0]
	for _, m := range a.members {
		if m != nil {
			a.index[m] = len(live)
			live = append(live, m)
		}
	}
	clear(a.members[len(live):])
	a.members = live
	a.holes = 0
}
