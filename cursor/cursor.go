package cursor

import (
	"iter"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-heap/arena"
	"github.com/wippyai/wasm-heap/errors"
	"github.com/wippyai/wasm-heap/memory"
	"github.com/wippyai/wasm-heap/native"
)

// Source is a native set a cursor can iterate.
type Source interface {
	// Offset returns the native handle of the set, or 0 once released.
	Offset() uint32
	// Version returns the change version of the set.
	Version() uint32
	// Native returns the engine that owns the set.
	Native() *native.Engine
	IsDisposed() bool
}

type state uint8

const (
	stateIdle state = iota
	stateActive
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateActive:
		return "active"
	default:
		return "closed"
	}
}

// Option configures a cursor.
type Option func(*Cursor)

// WithArena sets the arena the cursor registers with once its native handle
// exists. A nil arena leaves the cursor detached. The default is the
// current arena at construction.
func WithArena(a *arena.Arena) Option {
	return func(c *Cursor) {
		c.arena = a
		c.arenaSet = true
	}
}

// WithMinimum starts iteration at the first value >= min.
func WithMinimum(min uint32) Option {
	return func(c *Cursor) {
		c.min = min
	}
}

// WithReclaimer overrides the reclaimer for the native handle.
func WithReclaimer(r memory.Reclaimer) Option {
	return func(c *Cursor) {
		c.reclaimer = r
	}
}

// Cursor iterates a Source in ascending order.
type Cursor struct {
	src       Source
	arena     *arena.Arena
	reclaimer memory.Reclaimer
	handle    *memory.Block
	err       error
	min       uint32
	last      uint32
	version   uint32
	hasLast   bool
	arenaSet  bool
	state     state
}

// New creates an idle cursor over src.
func New(src Source, opts ...Option) *Cursor {
	c := &Cursor{src: src}
	for _, opt := range opts {
		opt(c)
	}
	if !c.arenaSet {
		c.arena = arena.Current()
	}
	return c
}

func (c *Cursor) open() error {
	eng := c.src.Native()
	version := c.src.Version()
	h, st := eng.CursorNew(c.src.Offset(), version, c.min)
	if err := st.Err("cursor_new"); err != nil {
		return err
	}

	opts := []memory.Option{
		memory.WithArena(c.arena),
		memory.WithRelease(eng.ReleaseCursor),
	}
	if c.reclaimer != nil {
		opts = append(opts, memory.WithReclaimer(c.reclaimer))
	}
	c.handle = memory.NewBlock(eng.Heap(), h, native.CursorSize, c, opts...)
	c.version = version
	c.state = stateActive
	return nil
}

// release frees the native handle, which also unregisters c from its arena.
func (c *Cursor) release() {
	if c.handle != nil {
		c.handle.Dispose()
		c.handle = nil
	}
}

// next returns the position just after the last produced value, never
// below the recorded minimum. ok is false when nothing can follow.
func (c *Cursor) next() (from uint32, ok bool) {
	if !c.hasLast || c.last < c.min {
		return c.min, true
	}
	if c.last == math.MaxUint32 {
		return 0, false
	}
	return c.last + 1, true
}

// resume re-arms an active cursor whose source changed.
func (c *Cursor) resume() bool {
	c.release()
	c.state = stateIdle
	from, ok := c.next()
	if !ok {
		return false
	}
	c.min = from
	Logger().Debug("source changed, resuming", zap.Uint32("min", c.min))
	return true
}

func (c *Cursor) fail(err error) (uint32, bool, error) {
	c.err = err
	c.close()
	return 0, false, err
}

// Next returns the next value. ok is false once the cursor is closed.
func (c *Cursor) Next() (value uint32, ok bool, err error) {
	if c.state == stateClosed {
		return 0, false, nil
	}
	if c.src.IsDisposed() {
		return c.fail(errors.AlreadyDisposed(errors.PhaseCursor, "cursor source"))
	}
	if c.state == stateActive && c.src.Version() != c.version {
		if !c.resume() {
			c.close()
			return 0, false, nil
		}
	}
	if c.state == stateIdle {
		if err := c.open(); err != nil {
			return c.fail(err)
		}
	}

	v, done, st := c.src.Native().CursorNext(c.handle.Offset())
	if err := st.Err("cursor_next"); err != nil {
		return c.fail(err)
	}
	if done {
		c.close()
		return 0, false, nil
	}
	c.last = v
	c.hasLast = true
	return v, true, nil
}

func (c *Cursor) close() bool {
	if c.state == stateClosed {
		return false
	}
	c.release()
	c.state = stateClosed
	return true
}

// Reset re-arms the cursor at its current minimum.
func (c *Cursor) Reset() *Cursor {
	return c.ResetTo(c.min)
}

// ResetTo frees any native handle and re-arms the cursor at min.
func (c *Cursor) ResetTo(min uint32) *Cursor {
	c.release()
	c.state = stateIdle
	c.min = min
	c.hasLast = false
	c.err = nil
	return c
}

// MoveToGreaterEqual skips values below min. It never moves backwards.
func (c *Cursor) MoveToGreaterEqual(min uint32) *Cursor {
	switch c.state {
	case stateIdle:
		c.min = max(c.min, min)
	case stateActive:
		if c.src.Version() != c.version {
			if !c.resume() {
				c.close()
				return c
			}
			c.min = max(c.min, min)
			return c
		}
		c.min = max(c.min, min)
		st := c.src.Native().CursorAdvance(c.handle.Offset(), min)
		if err := st.Err("cursor_advance"); err != nil {
			c.fail(err)
		}
	}
	return c
}

// Clone returns an idle cursor positioned where c would continue. A closed
// cursor clones into a closed cursor.
func (c *Cursor) Clone(opts ...Option) *Cursor {
	n := New(c.src, opts...)
	if c.state == stateClosed {
		n.state = stateClosed
		return n
	}
	from, ok := c.next()
	if !ok {
		n.state = stateClosed
		return n
	}
	n.min = from
	return n
}

// Return closes the cursor.
func (c *Cursor) Return() {
	c.close()
}

// Throw closes the cursor and returns err.
func (c *Cursor) Throw(err error) error {
	c.close()
	return err
}

// Dispose closes the cursor. It returns true on the first call.
func (c *Cursor) Dispose() bool {
	return c.close()
}

// IsDisposed reports whether the cursor is closed.
func (c *Cursor) IsDisposed() bool {
	return c.state == stateClosed
}

// CheckDisposed returns an already_disposed error once the cursor is closed.
func (c *Cursor) CheckDisposed() error {
	if c.state == stateClosed {
		return errors.AlreadyDisposed(errors.PhaseCursor, "cursor")
	}
	return nil
}

// RebindArena records a new owning arena after a transfer.
func (c *Cursor) RebindArena(a *arena.Arena) {
	c.arena = a
	if c.handle != nil {
		c.handle.RebindArena(a)
	}
}

// Arena returns the arena the cursor registers with.
func (c *Cursor) Arena() *arena.Arena {
	return c.arena
}

// Last returns the last value produced and whether there is one.
func (c *Cursor) Last() (uint32, bool) {
	return c.last, c.hasLast
}

// Err returns the error that closed the cursor, if any.
func (c *Cursor) Err() error {
	return c.err
}

// State returns "idle", "active" or "closed".
func (c *Cursor) State() string {
	return c.state.String()
}

// All yields the remaining values. Leaving the loop early closes the cursor.
// Errors end the sequence and are reported by Err.
func (c *Cursor) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		defer c.close()
		for {
			v, ok, err := c.Next()
			if err != nil || !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Pull converts the cursor into a pull-style iterator. stop closes it.
func (c *Cursor) Pull() (func() (uint32, bool), func()) {
	next, stop := iter.Pull(c.All())
	return next, func() {
		stop()
		c.close()
	}
}
