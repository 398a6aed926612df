package runtime

import (
	"context"
	goerrors "errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/wasm-heap/arena"
	"github.com/wippyai/wasm-heap/engine"
	"github.com/wippyai/wasm-heap/errors"
	"github.com/wippyai/wasm-heap/memory"
)

func newRuntime(t *testing.T, cfg *Config) *Runtime {
	t.Helper()
	rt, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func TestNew_InvalidEngineConfig(t *testing.T) {
	_, err := New(context.Background(), &Config{
		Engine: &engine.Config{InitialPages: 8, MemoryLimitPages: 2},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRuntime_ArenaScope(t *testing.T) {
	rt := newRuntime(t, nil)

	var views []*memory.ByteView
	a := rt.NewArena()
	err := a.With(func(a *arena.Arena) error {
		for i := range 3 {
			v, err := rt.Bytes([]byte{byte(i)})
			if err != nil {
				return err
			}
			views = append(views, v)
		}
		if a.Size() != 3 {
			t.Fatalf("Size = %d, want 3", a.Size())
		}
		a.Escape(views[2])
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if !views[0].IsDisposed() || !views[1].IsDisposed() {
		t.Fatal("scoped views should be released")
	}
	if views[2].IsDisposed() {
		t.Fatal("escaped view must survive")
	}
	if a.Size() != 0 || a.Escaped() != 1 {
		t.Fatalf("Size=%d Escaped=%d", a.Size(), a.Escaped())
	}
	views[2].Dispose()

	if rt.Stats().Heap.LiveBlocks != 0 {
		t.Fatal("blocks leaked")
	}
}

func TestRuntime_RuntimeStackIsolated(t *testing.T) {
	rt := newRuntime(t, nil)

	global := arena.New().Start()
	defer global.Stop()

	v, err := rt.Int32s([]int32{1})
	if err != nil {
		t.Fatal(err)
	}
	defer v.Dispose()
	if global.Contains(v) {
		t.Fatal("runtime objects must not register with the process-wide stack")
	}
}

func TestRuntime_BitmapAndIterator(t *testing.T) {
	rt := newRuntime(t, nil)

	a := rt.NewArena()
	got, err := arena.Run(a, func(a *arena.Arena) ([]uint32, error) {
		bm, err := rt.BitmapOf([]uint32{3, 1, 2})
		if err != nil {
			return nil, err
		}
		it := rt.Iterator(bm)
		var out []uint32
		for {
			v, ok, err := it.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			out = append(out, v)
		}
		return out, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []uint32{1, 2, 3}) {
		t.Fatalf("values = %v", got)
	}

	st := rt.Stats()
	if st.Native.Bitmaps != 0 || st.Native.Cursors != 0 || st.Heap.LiveBlocks != 0 {
		t.Fatalf("objects leaked: %+v", st)
	}
}

func TestRuntime_CloseStopsOpenArenas(t *testing.T) {
	rt, err := New(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	a := rt.NewArena().Start()
	a.Start()
	v, err := rt.Uint32s([]uint32{7})
	if err != nil {
		t.Fatal(err)
	}
	bm, err := rt.NewBitmap()
	if err != nil {
		t.Fatal(err)
	}

	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !v.IsDisposed() || !bm.IsDisposed() {
		t.Fatal("Close should release members of open arenas")
	}
	if rt.Stack().Depth() != 0 {
		t.Fatal("stack should be empty after Close")
	}
	if err := rt.Close(context.Background()); err != nil {
		t.Fatal("second Close should be a no-op")
	}
}

func TestRuntime_StatsAfterClose(t *testing.T) {
	rt, err := New(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Uint32s([]uint32{1, 2}, memory.WithArena(nil)); err != nil {
		t.Fatal(err)
	}
	if rt.Stats().Heap.LiveBlocks == 0 {
		t.Fatal("open runtime should report live blocks")
	}

	if err := rt.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := rt.Stats(); st != (Stats{}) {
		t.Fatalf("closed runtime stats = %+v", st)
	}
	if _, err := rt.Alloc(8); !goerrors.Is(err, errors.ErrNotInitialized) {
		t.Fatalf("Alloc after Close = %v", err)
	}
	if _, err := rt.NewBitmap(); err == nil {
		t.Fatal("NewBitmap after Close should fail")
	}
}

type panicking struct{ disposed bool }

func (p *panicking) Dispose() bool {
	if p.disposed {
		return false
	}
	p.disposed = true
	panic(goerrors.New("release failed"))
}

func (p *panicking) IsDisposed() bool { return p.disposed }

func TestRuntime_CloseCombinesErrors(t *testing.T) {
	rt, err := New(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	a1 := rt.NewArena().Start()
	a1.Register(&panicking{})
	a2 := rt.NewArena().Start()
	a2.Register(&panicking{})

	err = rt.Close(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if n := len(Errors(err)); n != 2 {
		t.Fatalf("Errors = %d, want 2", n)
	}
}

func TestRuntime_Logger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rt := newRuntime(t, &Config{Logger: zap.New(core)})
	defer func() {
		engine.SetLogger(zap.NewNop())
		memory.SetLogger(zap.NewNop())
		arena.SetLogger(zap.NewNop())
	}()

	a := rt.NewArena()
	_ = a.With(func(*arena.Arena) error {
		_, err := rt.Bytes(make([]byte, 2*65536))
		return err
	})

	if logs.FilterMessage("heap grown").Len() == 0 {
		t.Error("expected heap growth to be logged")
	}
	if logs.FilterMessage("arena stopped").Len() == 0 {
		t.Error("expected arena stop to be logged")
	}
}

func TestRuntime_Flush(t *testing.T) {
	r := memory.NewCleanupReclaimer()
	rt := newRuntime(t, &Config{Reclaimer: r})
	if rt.Flush() != 0 || rt.Stats().Reclaimable != 0 {
		t.Fatal("nothing to reclaim yet")
	}

	rt2 := newRuntime(t, &Config{Reclaimer: memory.NopReclaimer{}})
	if rt2.Flush() != 0 {
		t.Fatal("NopReclaimer never flushes")
	}
}
