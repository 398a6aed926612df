// Package wasmheap manages the lifetime of blocks that live in a WebAssembly
// linear memory instead of the Go heap.
//
// Objects that reference such blocks (byte and int32 views, bitmap handles,
// iteration cursors) are released explicitly. The library makes that release
// idempotent, batchable through arenas, and leak resistant under errors,
// panics and asynchronous completion.
//
// # Architecture Overview
//
//	wasmheap/          Root package with the Heap interface
//	├── engine/        wazero-backed linear memory and its allocator
//	├── dispose/       Disposable protocol, Using, DisposeAll, Future
//	├── arena/         Scoped bulk release, process-wide scope stack
//	├── memory/        Allocated blocks, typed views, GC reclaimer
//	├── native/        Foreign bitmap and cursor objects (roaring)
//	├── cursor/        Lazily created iteration cursors
//	├── bitmap/        Minimal bitmap facade over native objects
//	├── runtime/       High-level entry point wiring the above
//	└── errors/        Structured error types
//
// # Quick Start
//
//	rt, err := runtime.New(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	a := rt.NewArena()
//	err = a.With(func(a *arena.Arena) error {
//	    bm, err := rt.NewBitmap()
//	    if err != nil {
//	        return err
//	    }
//	    bm.Add(3, 1, 2)
//	    for v := range bm.Values() {
//	        fmt.Println(v)
//	    }
//	    return nil
//	}) // bm is released here
//
// # Thread Safety
//
// Nothing in this module is safe for concurrent use. The arena stack is
// process-wide state and assumes one logical flow at a time.
//
// # Memory Model
//
// Linear memory only grows. Growth may move the backing store, so views
// resolve it on every access. Never keep a slice returned by Heap.Memory or
// View.Bytes across a call that allocates.
package wasmheap
