// Package memory wraps foreign heap allocations in owning Go objects.
//
// # Blocks
//
// A Block owns one allocation: an offset into the foreign heap and a byte
// length. Offset 0 means released. Dispose frees the allocation exactly once
// and unregisters the block from its arena. A zero-size allocation yields a
// block that already looks released; it is not an error.
//
// New blocks register with the current arena unless WithArena says
// otherwise. WithArena(nil) creates a detached block.
//
// # Views
//
// View is a typed window over a block:
//
//	v, err := memory.ViewOf(heap, []uint32{1, 2, 3})
//	if err != nil {
//	    return err
//	}
//	defer v.Dispose()
//	last, _ := v.At(-1) // 3
//
// Views never cache the backing store. Every accessor fetches the live
// memory from the heap, because any allocation may grow and move it.
// Slices returned by Bytes are only valid until the next allocation.
//
// # Reclaim
//
// A Reclaimer is a safety net for blocks that become unreachable without
// being disposed. CleanupReclaimer queues their offsets from runtime cleanups
// and frees them on the next Allocate. Nothing depends on it running.
package memory
