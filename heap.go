package wasmheap

// Heap is the allocator surface of a foreign engine.
//
// Allocate returns 0 on failure. Free of an unknown offset is ignored.
// Memory returns the live backing store; any Allocate may grow the linear
// memory and relocate it, so the slice must be fetched again afterwards.
// Offsets stay valid across growth.
type Heap interface {
	Allocate(size uint32) uint32
	Free(offset uint32)
	Memory() []byte
}

// MemorySizer provides the current size of the linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// PageSize is the WebAssembly page size.
const PageSize = 65536
