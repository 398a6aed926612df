package native

import (
	"encoding/binary"

	"go.uber.org/zap"

	wasmheap "github.com/wippyai/wasm-heap"
)

// Engine implements the native object surface on top of a foreign heap.
type Engine struct {
	heap  wasmheap.Heap
	table *Table
}

// New creates an engine allocating from heap.
func New(heap wasmheap.Heap) *Engine {
	return &Engine{
		heap:  heap,
		table: NewTable(),
	}
}

// Heap returns the heap objects are allocated from.
func (e *Engine) Heap() wasmheap.Heap {
	return e.heap
}

// Table returns the handle table.
func (e *Engine) Table() *Table {
	return e.table
}

// Free releases a plain allocation handed out by an engine call, such as
// the buffer returned by BitmapSerialize.
func (e *Engine) Free(ptr uint32) {
	e.heap.Free(ptr)
}

// Stats summarises live native objects.
type Stats struct {
	Bitmaps int
	Cursors int
}

// Stats returns the number of live objects per type.
func (e *Engine) Stats() Stats {
	return Stats{
		Bitmaps: e.table.Count(TypeBitmap),
		Cursors: e.table.Count(TypeCursor),
	}
}

// alloc allocates an object header and clears it.
func (e *Engine) alloc(size uint32) (uint32, Status) {
	ptr := e.heap.Allocate(size)
	if ptr == 0 {
		return 0, StatusAllocation
	}
	b, _ := e.span(ptr, size)
	clear(b)
	return ptr, StatusOK
}

func (e *Engine) span(ptr, size uint32) ([]byte, Status) {
	mem := e.heap.Memory()
	end := uint64(ptr) + uint64(size)
	if ptr == 0 || end > uint64(len(mem)) {
		return nil, StatusOutOfBounds
	}
	return mem[ptr:end], StatusOK
}

// readU32 and writeU32 treat a closed or too small memory as zeroed.
func (e *Engine) readU32(ptr uint32) uint32 {
	b, st := e.span(ptr, 4)
	if st != StatusOK {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (e *Engine) writeU32(ptr, v uint32) {
	if b, st := e.span(ptr, 4); st == StatusOK {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (e *Engine) drop(handle uint32, typeID TypeID) Status {
	if _, ok := e.table.GetTyped(handle, typeID); !ok {
		return StatusInvalidHandle
	}
	e.table.Remove(handle)
	e.heap.Free(handle)
	return StatusOK
}

func logStatus(op string, handle uint32, st Status) {
	if st != StatusOK {
		Logger().Warn("native release failed",
			zap.String("op", op),
			zap.Uint32("handle", handle),
			zap.Stringer("status", st))
	}
}
