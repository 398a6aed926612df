package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmheap "github.com/wippyai/wasm-heap"
	"github.com/wippyai/wasm-heap/errors"
)

// WazeroHeap is a foreign heap whose linear memory is owned by a wazero
// module instance.
type WazeroHeap struct {
	runtime wazero.Runtime
	module  api.Module
	mem     api.Memory
	alloc   *allocator
	limit   uint32
}

// NewWazeroHeap creates a heap with default configuration.
func NewWazeroHeap(ctx context.Context) (*WazeroHeap, error) {
	return NewWazeroHeapWithConfig(ctx, nil)
}

// NewWazeroHeapWithConfig creates a heap with custom configuration.
func NewWazeroHeapWithConfig(ctx context.Context, cfg *Config) (*WazeroHeap, error) {
	limit := cfg.limitPages()
	initial := cfg.initialPages()
	if initial > limit {
		return nil, errors.InvalidArgument(errors.PhaseLoad, "initial pages exceed the memory limit")
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithMemoryLimitPages(limit)
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	mod, err := rt.InstantiateWithConfig(ctx, memoryModule(initial, 0),
		wazero.NewModuleConfig().WithName(cfg.moduleName()))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Load("instantiate memory module", err)
	}

	mem := mod.ExportedMemory("memory")
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.NotInitialized(errors.PhaseLoad, "exported memory")
	}

	h := &WazeroHeap{
		runtime: rt,
		module:  mod,
		mem:     mem,
		limit:   limit,
	}
	h.alloc = newAllocator(wazeroLinear{h})
	return h, nil
}

type wazeroLinear struct {
	h *WazeroHeap
}

func (l wazeroLinear) size() uint64 {
	return uint64(l.h.mem.Size())
}

func (l wazeroLinear) grow(pages uint32) bool {
	cur := uint32(l.size() / wasmheap.PageSize)
	if uint64(cur)+uint64(pages) > uint64(l.h.limit) {
		return false
	}
	_, ok := l.h.mem.Grow(pages)
	return ok
}

// Allocate returns the offset of a new block of at least size bytes, or 0.
func (h *WazeroHeap) Allocate(size uint32) uint32 {
	if h.mem == nil {
		return 0
	}
	return h.alloc.allocate(size)
}

// Free releases the block at offset. Unknown offsets are logged and ignored.
func (h *WazeroHeap) Free(offset uint32) {
	if offset == 0 || h.mem == nil {
		return
	}
	if !h.alloc.release(offset) {
		Logger().Warn("Free: unknown block",
			zap.Uint32("offset", offset),
			zap.String("module", h.module.Name()))
	}
}

// Memory returns the live backing store of the linear memory.
func (h *WazeroHeap) Memory() []byte {
	if h.mem == nil {
		return nil
	}
	data, ok := h.mem.Read(0, h.mem.Size())
	if !ok {
		return nil
	}
	return data
}

// Size returns the linear memory size in bytes.
func (h *WazeroHeap) Size() uint32 {
	if h.mem == nil {
		return 0
	}
	return h.mem.Size()
}

// BlockSize returns the aligned size of the live block at offset.
func (h *WazeroHeap) BlockSize(offset uint32) (uint32, bool) {
	return h.alloc.sizeOf(offset)
}

// Stats returns a snapshot of allocator usage.
func (h *WazeroHeap) Stats() Stats {
	if h.mem == nil {
		return Stats{}
	}
	return h.alloc.snapshot()
}

// Close releases the wazero runtime and the linear memory with it.
func (h *WazeroHeap) Close(ctx context.Context) error {
	if h.runtime == nil {
		return nil
	}
	err := h.runtime.Close(ctx)
	h.runtime = nil
	h.module = nil
	h.mem = nil
	return err
}

// Compile-time checks
var _ wasmheap.Heap = (*WazeroHeap)(nil)
var _ wasmheap.MemorySizer = (*WazeroHeap)(nil)
