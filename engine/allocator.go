package engine

import (
	"math"
	"slices"
	"sort"

	"go.uber.org/zap"

	wasmheap "github.com/wippyai/wasm-heap"
)

const (
	// Alignment is the alignment of every block.
	Alignment = 8
	// HeapBase is the first offset handed out; everything below is reserved.
	HeapBase = 16
)

// linear is a growable linear memory.
type linear interface {
	size() uint64
	grow(pages uint32) bool
}

type span struct {
	off  uint32
	size uint32
}

// Stats tracks heap usage.
//
//   - Pages, Size: current linear memory size
//   - Top: end of the bump region
//   - InUse: bytes held by live blocks (after alignment)
//   - FreeBytes: bytes on the free list below Top
//   - LiveBlocks: number of live blocks
//   - Allocations, Frees, Grows, Failures: cumulative counters
type Stats struct {
	Pages       uint32
	Size        uint64
	Top         uint32
	InUse       uint64
	FreeBytes   uint64
	LiveBlocks  int
	Allocations uint64
	Frees       uint64
	Grows       uint64
	Failures    uint64
}

// allocator is a first-fit free-list allocator with a bump region on top.
type allocator struct {
	mem   linear
	live  map[uint32]uint32
	free  []span
	top   uint32
	stats Stats
}

func newAllocator(mem linear) *allocator {
	return &allocator{
		mem:  mem,
		live: make(map[uint32]uint32),
		top:  HeapBase,
	}
}

func alignUp(n uint32) (uint32, bool) {
	if n > math.MaxUint32-(Alignment-1) {
		return 0, false
	}
	return (n + Alignment - 1) &^ (Alignment - 1), true
}

func (a *allocator) allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	n, ok := alignUp(size)
	if !ok {
		a.stats.Failures++
		return 0
	}

	for i, s := range a.free {
		if s.size < n {
			continue
		}
		if s.size == n {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i] = span{off: s.off + n, size: s.size - n}
		}
		return a.commit(s.off, n)
	}

	end := uint64(a.top) + uint64(n)
	if end > math.MaxUint32 {
		a.stats.Failures++
		return 0
	}
	if cur := a.mem.size(); end > cur {
		pages := (end - cur + wasmheap.PageSize - 1) / wasmheap.PageSize
		if !a.mem.grow(uint32(pages)) {
			a.stats.Failures++
			Logger().Debug("heap growth refused",
				zap.Uint64("pages", pages),
				zap.Uint32("size", size))
			return 0
		}
		a.stats.Grows++
		Logger().Debug("heap grown",
			zap.Uint64("pages", pages),
			zap.Uint64("bytes", a.mem.size()))
	}

	off := a.top
	a.top = uint32(end)
	return a.commit(off, n)
}

func (a *allocator) commit(off, n uint32) uint32 {
	a.live[off] = n
	a.stats.Allocations++
	a.stats.InUse += uint64(n)
	return off
}

// release returns the block at off to the free list, coalescing with its
// neighbours. Blocks that end at the bump pointer lower it instead.
func (a *allocator) release(off uint32) bool {
	n, ok := a.live[off]
	if !ok {
		return false
	}
	delete(a.live, off)
	a.stats.Frees++
	a.stats.InUse -= uint64(n)

	s := span{off: off, size: n}
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > off })

	if i < len(a.free) && s.off+s.size == a.free[i].off {
		s.size += a.free[i].size
		a.free = slices.Delete(a.free, i, i+1)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == s.off {
		s.off = a.free[i-1].off
		s.size += a.free[i-1].size
		a.free = slices.Delete(a.free, i-1, i)
		i--
	}

	if s.off+s.size == a.top {
		a.top = s.off
		return true
	}
	a.free = slices.Insert(a.free, i, s)
	return true
}

func (a *allocator) sizeOf(off uint32) (uint32, bool) {
	n, ok := a.live[off]
	return n, ok
}

func (a *allocator) snapshot() Stats {
	st := a.stats
	st.Size = a.mem.size()
	st.Pages = uint32(st.Size / wasmheap.PageSize)
	st.Top = a.top
	st.LiveBlocks = len(a.live)
	st.FreeBytes = 0
	for _, s := range a.free {
		st.FreeBytes += uint64(s.size)
	}
	return st
}
