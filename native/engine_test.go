package native

import (
	"encoding/binary"
	goerrors "errors"
	"slices"
	"testing"

	"github.com/wippyai/wasm-heap/engine"
	"github.com/wippyai/wasm-heap/errors"
)

func newTestEngine(t *testing.T) (*Engine, *engine.SliceHeap) {
	t.Helper()
	h := engine.NewSliceHeap(nil)
	return New(h), h
}

func mustBitmap(t *testing.T, e *Engine, values ...uint32) uint32 {
	t.Helper()
	bm, st := e.BitmapNew()
	if st != StatusOK {
		t.Fatalf("BitmapNew: %v", st)
	}
	for _, v := range values {
		if st := e.BitmapAdd(bm, v); st != StatusOK {
			t.Fatalf("BitmapAdd(%d): %v", v, st)
		}
	}
	return bm
}

func TestStatus_Err(t *testing.T) {
	if StatusOK.Err("op") != nil {
		t.Fatal("StatusOK should not produce an error")
	}
	err := StatusInvalidHandle.Err("bitmap_add")
	if !goerrors.Is(err, errors.ErrForeignOperation) {
		t.Fatalf("expected foreign_operation, got %v", err)
	}
	var e *errors.Error
	if !goerrors.As(err, &e) || e.Value != int32(-1) || e.Path[0] != "bitmap_add" {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestBitmap_HeaderTracksChanges(t *testing.T) {
	e, h := newTestEngine(t)
	bm := mustBitmap(t, e)

	if v, _ := e.BitmapVersion(bm); v != 0 {
		t.Fatalf("fresh version = %d", v)
	}

	e.BitmapAdd(bm, 3)
	e.BitmapAdd(bm, 1)
	e.BitmapAdd(bm, 3)

	version, _ := e.BitmapVersion(bm)
	card, _ := e.BitmapCardinality(bm)
	if version != 2 || card != 2 {
		t.Fatalf("version=%d cardinality=%d, want 2/2", version, card)
	}

	mem := h.Memory()
	if binary.LittleEndian.Uint32(mem[bm+BitmapVersionOffset:]) != 2 ||
		binary.LittleEndian.Uint32(mem[bm+BitmapCardinalityOffset:]) != 2 {
		t.Fatal("header in linear memory is stale")
	}

	e.BitmapRemove(bm, 7)
	if v, _ := e.BitmapVersion(bm); v != 2 {
		t.Fatal("removing an absent value must not change the version")
	}
	e.BitmapRemove(bm, 1)
	if ok, _ := e.BitmapContains(bm, 1); ok {
		t.Fatal("value still present after remove")
	}
	if v, _ := e.BitmapVersion(bm); v != 3 {
		t.Fatal("remove should bump the version")
	}
}

func TestBitmap_AddMany(t *testing.T) {
	e, h := newTestEngine(t)
	bm := mustBitmap(t, e)

	ptr := h.Allocate(12)
	mem := h.Memory()
	for i, v := range []uint32{5, 9, 5} {
		binary.LittleEndian.PutUint32(mem[ptr+uint32(i*4):], v)
	}

	if st := e.BitmapAddMany(bm, ptr, 3); st != StatusOK {
		t.Fatalf("BitmapAddMany: %v", st)
	}
	if c, _ := e.BitmapCardinality(bm); c != 2 {
		t.Fatalf("cardinality = %d", c)
	}
	if v, _ := e.BitmapVersion(bm); v != 1 {
		t.Fatalf("bulk add should bump the version once, got %d", v)
	}

	if st := e.BitmapAddMany(bm, h.Size()-4, 2); st != StatusOutOfBounds {
		t.Fatalf("read past memory end = %v", st)
	}
}

func TestBitmap_InvalidHandle(t *testing.T) {
	e, _ := newTestEngine(t)
	bm := mustBitmap(t, e)

	if st := e.BitmapFree(bm); st != StatusOK {
		t.Fatal(st)
	}
	if st := e.BitmapFree(bm); st != StatusInvalidHandle {
		t.Fatalf("double free = %v", st)
	}
	if st := e.BitmapAdd(bm, 1); st != StatusInvalidHandle {
		t.Fatalf("add after free = %v", st)
	}
	if _, st := e.BitmapCardinality(12345); st != StatusInvalidHandle {
		t.Fatalf("unknown handle = %v", st)
	}
	if e.Stats().Bitmaps != 0 {
		t.Fatal("bitmap still counted")
	}
}

func TestBitmap_SerializeRoundTrip(t *testing.T) {
	e, h := newTestEngine(t)
	bm := mustBitmap(t, e, 1, 100, 70000)

	ptr, n, st := e.BitmapSerialize(bm)
	if st != StatusOK || ptr == 0 || n == 0 {
		t.Fatalf("BitmapSerialize = %d, %d, %v", ptr, n, st)
	}

	copyBm, st := e.BitmapDeserialize(ptr, n)
	if st != StatusOK {
		t.Fatalf("BitmapDeserialize: %v", st)
	}
	e.Free(ptr)

	arr, count, st := e.BitmapToArray(copyBm)
	if st != StatusOK || count != 3 {
		t.Fatalf("BitmapToArray = %d, %v", count, st)
	}
	got := make([]uint32, count)
	mem := h.Memory()
	for i := range got {
		got[i] = binary.LittleEndian.Uint32(mem[arr+uint32(i*4):])
	}
	if !slices.Equal(got, []uint32{1, 100, 70000}) {
		t.Fatalf("values = %v", got)
	}
	if c, _ := e.BitmapCardinality(copyBm); c != 3 {
		t.Fatal("deserialized header cardinality not set")
	}
}

func TestBitmap_DeserializeGarbage(t *testing.T) {
	e, h := newTestEngine(t)
	ptr := h.Allocate(8)
	copy(h.Memory()[ptr:], []byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4})

	if _, st := e.BitmapDeserialize(ptr, 8); st != StatusInvalidData {
		t.Fatalf("garbage = %v", st)
	}
	if e.Stats().Bitmaps != 0 {
		t.Fatal("failed deserialize created a bitmap")
	}
}

func TestBitmap_ToArrayEmpty(t *testing.T) {
	e, _ := newTestEngine(t)
	bm := mustBitmap(t, e)
	ptr, n, st := e.BitmapToArray(bm)
	if ptr != 0 || n != 0 || st != StatusOK {
		t.Fatalf("empty ToArray = %d, %d, %v", ptr, n, st)
	}
}

func drain(t *testing.T, e *Engine, c uint32) []uint32 {
	t.Helper()
	var out []uint32
	for {
		v, done, st := e.CursorNext(c)
		if st != StatusOK {
			t.Fatalf("CursorNext: %v", st)
		}
		if done {
			return out
		}
		out = append(out, v)
	}
}

func TestCursor_Ordering(t *testing.T) {
	e, h := newTestEngine(t)
	bm := mustBitmap(t, e, 3, 1, 2)
	version, _ := e.BitmapVersion(bm)

	c, st := e.CursorNew(bm, version, 0)
	if st != StatusOK {
		t.Fatal(st)
	}
	if got := drain(t, e, c); !slices.Equal(got, []uint32{1, 2, 3}) {
		t.Fatalf("values = %v", got)
	}
	if binary.LittleEndian.Uint32(h.Memory()[c+CursorStateOffset:]) != CursorDone {
		t.Fatal("state not marked done")
	}
	if binary.LittleEndian.Uint32(h.Memory()[c+CursorLastOffset:]) != 3 {
		t.Fatal("last value not recorded")
	}

	from, _ := e.CursorNew(bm, version, 2)
	if got := drain(t, e, from); !slices.Equal(got, []uint32{2, 3}) {
		t.Fatalf("values from 2 = %v", got)
	}

	if e.Stats().Cursors != 2 {
		t.Fatal("exhausted cursors stay allocated until freed")
	}
	e.CursorFree(c)
	e.ReleaseCursor(from)
	if e.Stats().Cursors != 0 {
		t.Fatal("cursors not released")
	}
}

func TestCursor_Advance(t *testing.T) {
	e, _ := newTestEngine(t)
	bm := mustBitmap(t, e, 1, 5, 9)
	c, _ := e.CursorNew(bm, 3, 0)

	v, _, _ := e.CursorNext(c)
	if v != 1 {
		t.Fatalf("first = %d", v)
	}
	if st := e.CursorAdvance(c, 6); st != StatusOK {
		t.Fatal(st)
	}
	if got := drain(t, e, c); !slices.Equal(got, []uint32{9}) {
		t.Fatalf("after advance = %v", got)
	}
}

func TestCursor_VersionMismatch(t *testing.T) {
	e, _ := newTestEngine(t)
	bm := mustBitmap(t, e, 1, 2)

	if _, st := e.CursorNew(bm, 0, 0); st != StatusVersionMismatch {
		t.Fatalf("stale version = %v", st)
	}

	c, _ := e.CursorNew(bm, 2, 0)
	e.BitmapAdd(bm, 3)
	if _, _, st := e.CursorNext(c); st != StatusVersionMismatch {
		t.Fatalf("next after change = %v", st)
	}
	if st := e.CursorAdvance(c, 0); st != StatusVersionMismatch {
		t.Fatalf("advance after change = %v", st)
	}
}

func TestCursor_BitmapFreed(t *testing.T) {
	e, _ := newTestEngine(t)
	bm := mustBitmap(t, e, 1)
	c, _ := e.CursorNew(bm, 1, 0)

	e.ReleaseBitmap(bm)
	if _, _, st := e.CursorNext(c); st != StatusInvalidHandle {
		t.Fatalf("next over freed bitmap = %v", st)
	}
	if st := e.CursorFree(c); st != StatusOK {
		t.Fatal("cursor must still be freeable")
	}
}
