// Package cursor implements lazy iteration over a native set with a
// foreign cursor handle.
//
// A Cursor starts idle and holds nothing. The first Next creates the
// native cursor, registers the Cursor with its arena and starts producing
// values in ascending order. Exhaustion, Return, Throw and Dispose close
// the cursor: the native handle is freed at once and the arena forgets it.
//
//	c := cursor.New(bm)
//	for v := range c.All() {
//	    ...
//	}
//	if err := c.Err(); err != nil {
//	    return err
//	}
//
// Reset and ResetTo re-arm a cursor, even a closed one, so it can be
// iterated again from a minimum value.
//
// When the source changes while a cursor is active, the next call resumes
// just after the last value produced.
package cursor
