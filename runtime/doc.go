// Package runtime ties the lifetime core together behind one entry point.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	a := rt.NewArena()
//	err = a.With(func(a *arena.Arena) error {
//	    bm, err := rt.NewBitmap() // registers with a
//	    if err != nil {
//	        return err
//	    }
//	    _ = bm.Add(3, 1, 2)
//	    for v := range bm.Values() {
//	        fmt.Println(v)
//	    }
//	    return nil
//	})
//
// # Scopes
//
// Objects created through a Runtime register with the top arena of the
// runtime's own Stack, not the process-wide one. Pass memory.WithArena to
// pick another arena or to create a detached object.
//
// # Close
//
// Close stops every arena left on the stack, flushes the reclaimer and
// closes the wazero runtime. Failures from each step are combined; use
// Errors to split them.
package runtime
