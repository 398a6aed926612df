package runtime

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-heap/arena"
	"github.com/wippyai/wasm-heap/bitmap"
	"github.com/wippyai/wasm-heap/cursor"
	"github.com/wippyai/wasm-heap/dispose"
	"github.com/wippyai/wasm-heap/engine"
	"github.com/wippyai/wasm-heap/errors"
	"github.com/wippyai/wasm-heap/memory"
	"github.com/wippyai/wasm-heap/native"
)

// Config holds runtime configuration. The zero value is usable.
type Config struct {
	// Engine configures the wazero heap.
	Engine *engine.Config

	// Reclaimer overrides the safety net for leaked blocks.
	// nil means a CleanupReclaimer owned by the runtime.
	Reclaimer memory.Reclaimer

	// Logger, when set, is installed in every package of the module.
	Logger *zap.Logger
}

// Runtime owns a foreign heap, the native engine on top of it and an arena
// stack for the objects it creates.
type Runtime struct {
	heap      *engine.WazeroHeap
	native    *native.Engine
	reclaimer memory.Reclaimer
	stack     *arena.Stack
}

// New creates a runtime. cfg may be nil.
func New(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger != nil {
		setLoggers(cfg.Logger)
	}

	heap, err := engine.NewWazeroHeapWithConfig(ctx, cfg.Engine)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindNotInitialized, err, "create heap")
	}

	reclaimer := cfg.Reclaimer
	if reclaimer == nil {
		reclaimer = memory.NewCleanupReclaimer()
	}

	return &Runtime{
		heap:      heap,
		native:    native.New(heap),
		reclaimer: reclaimer,
		stack:     arena.NewStack(),
	}, nil
}

func setLoggers(l *zap.Logger) {
	engine.SetLogger(l.Named("engine"))
	memory.SetLogger(l.Named("memory"))
	native.SetLogger(l.Named("native"))
	cursor.SetLogger(l.Named("cursor"))
	arena.SetLogger(l.Named("arena"))
	dispose.SetLogger(l.Named("dispose"))
}

// Heap returns the foreign heap.
func (r *Runtime) Heap() *engine.WazeroHeap {
	return r.heap
}

// Native returns the native engine.
func (r *Runtime) Native() *native.Engine {
	return r.native
}

// Stack returns the runtime's arena stack.
func (r *Runtime) Stack() *arena.Stack {
	return r.stack
}

// NewArena creates an arena on the runtime's stack.
func (r *Runtime) NewArena() *arena.Arena {
	return r.stack.NewArena()
}

// options returns the defaults for objects created through r, followed by
// the caller's overrides.
func (r *Runtime) options(opts []memory.Option) []memory.Option {
	return append([]memory.Option{
		memory.WithArena(r.stack.Current()),
		memory.WithReclaimer(r.reclaimer),
	}, opts...)
}

func (r *Runtime) checkOpen() error {
	if r.heap == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "runtime")
	}
	return nil
}

// Alloc allocates a raw block.
func (r *Runtime) Alloc(size uint32, opts ...memory.Option) (*memory.Block, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return memory.Allocate(r.heap, size, r.options(opts)...)
}

// NewBitmap creates an empty bitmap.
func (r *Runtime) NewBitmap(opts ...memory.Option) (*bitmap.Bitmap, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	r.Flush()
	return bitmap.New(r.native, r.options(opts)...)
}

// BitmapOf creates a bitmap holding values.
func (r *Runtime) BitmapOf(values []uint32, opts ...memory.Option) (*bitmap.Bitmap, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	r.Flush()
	return bitmap.FromValues(r.native, values, r.options(opts)...)
}

// Iterator returns a cursor over bm that registers with the runtime's
// current arena.
func (r *Runtime) Iterator(bm *bitmap.Bitmap, opts ...cursor.Option) *cursor.Cursor {
	return bm.Iterator(append([]cursor.Option{
		cursor.WithArena(r.stack.Current()),
		cursor.WithReclaimer(r.reclaimer),
	}, opts...)...)
}

// Bytes allocates a byte view holding a copy of src.
func (r *Runtime) Bytes(src []byte, opts ...memory.Option) (*memory.ByteView, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return memory.ViewOf(r.heap, src, r.options(opts)...)
}

// Int32s allocates an int32 view holding a copy of src.
func (r *Runtime) Int32s(src []int32, opts ...memory.Option) (*memory.Int32View, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return memory.ViewOf(r.heap, src, r.options(opts)...)
}

// Uint32s allocates a uint32 view holding a copy of src.
func (r *Runtime) Uint32s(src []uint32, opts ...memory.Option) (*memory.Uint32View, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return memory.ViewOf(r.heap, src, r.options(opts)...)
}

// Flush releases blocks queued by the reclaimer.
func (r *Runtime) Flush() int {
	if f, ok := r.reclaimer.(memory.Flusher); ok {
		return f.Flush()
	}
	return 0
}

// Stats is a snapshot of runtime usage.
type Stats struct {
	Heap        engine.Stats
	Native      native.Stats
	ArenaDepth  int
	Reclaimable int
}

// Stats returns a snapshot of heap, native and arena usage. A closed
// runtime reports zero stats.
func (r *Runtime) Stats() Stats {
	if r.heap == nil {
		return Stats{}
	}
	st := Stats{
		Heap:       r.heap.Stats(),
		Native:     r.native.Stats(),
		ArenaDepth: r.stack.Depth(),
	}
	if p, ok := r.reclaimer.(interface{ Pending() int }); ok {
		st.Reclaimable = p.Pending()
	}
	return st
}

// Close stops every arena still on the runtime's stack, then releases the
// heap. All failures are combined.
func (r *Runtime) Close(ctx context.Context) error {
	if r.heap == nil {
		return nil
	}

	var err error
	seen := make(map[*arena.Arena]struct{})
	for r.stack.Depth() > 0 {
		a := r.stack.Current()
		if _, ok := seen[a]; !ok {
			seen[a] = struct{}{}
			Logger().Debug("closing open arena", zap.Int("members", a.Size()))
		}
		err = multierr.Append(err, a.Stop())
	}

	if f, ok := r.reclaimer.(memory.Flusher); ok {
		f.Flush()
	}

	if cerr := r.heap.Close(ctx); cerr != nil {
		err = multierr.Append(err, errors.Wrap(errors.PhaseRuntime, errors.KindForeignOperation, cerr, "close heap"))
	}
	r.heap = nil
	return err
}

// Errors splits an error returned by Close into its parts.
func Errors(err error) []error {
	return multierr.Errors(err)
}
