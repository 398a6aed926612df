// Package native is the foreign library surface the lifetime core talks to.
//
// Every object it creates lives at an offset in the foreign heap and is
// addressed by that offset. Calls never panic and never return Go errors;
// they report a Status, and callers turn non-OK statuses into errors with
// Status.Err.
//
// # Objects
//
//	bitmap - 8-byte header block (version u32, cardinality u32) plus a
//	         roaring bitmap held by the engine
//	cursor - 8-byte block (last u32, state u32) plus a roaring iterator
//
// The header fields are kept current in linear memory, so a reader with
// only the heap and the offset can observe them.
//
// # Handle Table
//
// The engine maps offsets to host-side values in a Table. Observers get a
// notification whenever an object is created or dropped:
//
//	eng := native.New(heap)
//	eng.Table().Subscribe(observer)
//
// # Thread Safety
//
// Engine is NOT thread-safe and should be used by a single goroutine.
package native
