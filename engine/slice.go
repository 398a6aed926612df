package engine

import (
	"go.uber.org/zap"

	wasmheap "github.com/wippyai/wasm-heap"
)

// SliceHeap is a foreign heap backed by a Go byte slice. Every growth
// allocates a new slice, so the backing store always moves.
type SliceHeap struct {
	buf   []byte
	alloc *allocator
	limit uint32
}

// NewSliceHeap creates a slice-backed heap. cfg.ModuleName is ignored.
func NewSliceHeap(cfg *Config) *SliceHeap {
	h := &SliceHeap{
		buf:   make([]byte, uint64(cfg.initialPages())*wasmheap.PageSize),
		limit: cfg.limitPages(),
	}
	h.alloc = newAllocator(sliceLinear{h})
	return h
}

type sliceLinear struct {
	h *SliceHeap
}

func (l sliceLinear) size() uint64 {
	return uint64(len(l.h.buf))
}

func (l sliceLinear) grow(pages uint32) bool {
	cur := uint64(len(l.h.buf)) / wasmheap.PageSize
	if cur+uint64(pages) > uint64(l.h.limit) {
		return false
	}
	next := make([]byte, (cur+uint64(pages))*wasmheap.PageSize)
	copy(next, l.h.buf)
	l.h.buf = next
	return true
}

// Allocate returns the offset of a new block of at least size bytes, or 0.
func (h *SliceHeap) Allocate(size uint32) uint32 {
	return h.alloc.allocate(size)
}

// Free releases the block at offset. Unknown offsets are ignored.
func (h *SliceHeap) Free(offset uint32) {
	if offset == 0 {
		return
	}
	if !h.alloc.release(offset) {
		Logger().Debug("Free: unknown block", zap.Uint32("offset", offset))
	}
}

// Memory returns the live backing store.
func (h *SliceHeap) Memory() []byte {
	return h.buf
}

// Size returns the memory size in bytes.
func (h *SliceHeap) Size() uint32 {
	return uint32(len(h.buf))
}

// BlockSize returns the aligned size of the live block at offset.
func (h *SliceHeap) BlockSize(offset uint32) (uint32, bool) {
	return h.alloc.sizeOf(offset)
}

// Stats returns a snapshot of allocator usage.
func (h *SliceHeap) Stats() Stats {
	return h.alloc.snapshot()
}

var _ wasmheap.Heap = (*SliceHeap)(nil)
var _ wasmheap.MemorySizer = (*SliceHeap)(nil)
