package native

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Cursor block layout.
const (
	CursorLastOffset  = 0
	CursorStateOffset = 4
	CursorSize        = 8
)

// Cursor states stored at CursorStateOffset.
const (
	CursorFresh  uint32 = 0
	CursorActive uint32 = 1
	CursorDone   uint32 = 2
)

type cursor struct {
	it      roaring.IntPeekable
	bitmap  uint32
	version uint32
}

func (e *Engine) cursor(handle uint32) (*cursor, Status) {
	v, ok := e.table.GetTyped(handle, TypeCursor)
	if !ok {
		return nil, StatusInvalidHandle
	}
	return v.(*cursor), StatusOK
}

// liveCursor returns the cursor at handle if its bitmap still exists and
// has not changed since the cursor was created.
func (e *Engine) liveCursor(handle uint32) (*cursor, Status) {
	c, st := e.cursor(handle)
	if st != StatusOK {
		return nil, st
	}
	if _, ok := e.table.GetTyped(c.bitmap, TypeBitmap); !ok {
		return nil, StatusInvalidHandle
	}
	if e.readU32(c.bitmap+BitmapVersionOffset) != c.version {
		return nil, StatusVersionMismatch
	}
	return c, StatusOK
}

// CursorNew creates a cursor over bitmap positioned at the first value
// >= min. version must match the bitmap's current version.
func (e *Engine) CursorNew(bitmap, version, min uint32) (uint32, Status) {
	b, st := e.bitmap(bitmap)
	if st != StatusOK {
		return 0, st
	}
	if e.readU32(bitmap+BitmapVersionOffset) != version {
		return 0, StatusVersionMismatch
	}
	ptr, st := e.alloc(CursorSize)
	if st != StatusOK {
		return 0, st
	}
	it := b.rb.Iterator()
	it.AdvanceIfNeeded(min)
	e.table.Insert(ptr, TypeCursor, &cursor{it: it, bitmap: bitmap, version: version})
	return ptr, StatusOK
}

// CursorNext produces the next value. done is true once the cursor is
// exhausted; the cursor stays allocated until CursorFree.
func (e *Engine) CursorNext(handle uint32) (value uint32, done bool, st Status) {
	c, st := e.liveCursor(handle)
	if st != StatusOK {
		return 0, false, st
	}
	if !c.it.HasNext() {
		e.writeU32(handle+CursorStateOffset, CursorDone)
		return 0, true, StatusOK
	}
	value = c.it.Next()
	e.writeU32(handle+CursorLastOffset, value)
	e.writeU32(handle+CursorStateOffset, CursorActive)
	return value, false, StatusOK
}

// CursorAdvance skips values below min.
func (e *Engine) CursorAdvance(handle, min uint32) Status {
	c, st := e.liveCursor(handle)
	if st != StatusOK {
		return st
	}
	c.it.AdvanceIfNeeded(min)
	return StatusOK
}

// CursorFree releases a cursor.
func (e *Engine) CursorFree(handle uint32) Status {
	return e.drop(handle, TypeCursor)
}

// ReleaseCursor is CursorFree for release hooks; failures are logged.
func (e *Engine) ReleaseCursor(handle uint32) {
	logStatus("cursor_free", handle, e.CursorFree(handle))
}
