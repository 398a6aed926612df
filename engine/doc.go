// Package engine provides the foreign heap: a growable WebAssembly linear
// memory and the allocator that hands out blocks inside it.
//
// # Implementations
//
//	WazeroHeap - linear memory owned by a wazero module instance
//	SliceHeap  - pure Go linear memory that moves on every growth
//
// Both satisfy wasmheap.Heap. Allocation failures are reported with the
// null offset 0, never with a panic; callers translate them into errors.
//
// # Layout
//
// Offset 0 is reserved as the null handle. Blocks are 8-byte aligned and
// carved from a first-fit free list, falling back to a bump pointer at the
// top of the used region. When the bump pointer would pass the end of the
// memory, the memory grows by whole 64KiB pages.
//
// # Growth hazard
//
// Growing may relocate the backing store. Memory returns the live slice at
// the time of the call; it must be fetched again after any Allocate.
// Offsets are stable across growth.
//
// # Thread Safety
//
// Heaps are NOT thread-safe and should be used by a single goroutine.
package engine
