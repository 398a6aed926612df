package bitmap

import (
	"iter"
	"slices"

	"github.com/wippyai/wasm-heap/cursor"
	"github.com/wippyai/wasm-heap/dispose"
	"github.com/wippyai/wasm-heap/errors"
	"github.com/wippyai/wasm-heap/memory"
	"github.com/wippyai/wasm-heap/native"
)

// Bitmap is a native roaring bitmap addressed by the offset of its header.
type Bitmap struct {
	*memory.Block
	eng *native.Engine
}

// New creates an empty bitmap.
func New(eng *native.Engine, opts ...memory.Option) (*Bitmap, error) {
	h, st := eng.BitmapNew()
	if err := st.Err("bitmap_new"); err != nil {
		return nil, err
	}
	return wrap(eng, h, opts), nil
}

func wrap(eng *native.Engine, handle uint32, opts []memory.Option) *Bitmap {
	b := &Bitmap{eng: eng}
	opts = append(slices.Clip(opts), memory.WithRelease(eng.ReleaseBitmap))
	b.Block = memory.NewBlock(eng.Heap(), handle, native.BitmapHeaderSize, b, opts...)
	return b
}

// FromValues creates a bitmap holding values.
func FromValues(eng *native.Engine, values []uint32, opts ...memory.Option) (*Bitmap, error) {
	b, err := New(eng, opts...)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return b, nil
	}
	view, err := memory.ViewOf(eng.Heap(), values, memory.WithArena(nil))
	if err != nil {
		dispose.TryDispose(b)
		return nil, err
	}
	if _, err := dispose.Using(view, func(v *memory.Uint32View) (struct{}, error) {
		return struct{}{}, b.AddView(v)
	}); err != nil {
		dispose.TryDispose(b)
		return nil, err
	}
	return b, nil
}

// Deserialize creates a bitmap from the portable roaring bytes in data.
func Deserialize(eng *native.Engine, data *memory.ByteView, opts ...memory.Option) (*Bitmap, error) {
	if err := data.CheckDisposed(); err != nil {
		return nil, err
	}
	h, st := eng.BitmapDeserialize(data.Offset(), uint32(data.Len()))
	if err := st.Err("bitmap_deserialize"); err != nil {
		return nil, err
	}
	return wrap(eng, h, opts), nil
}

// FromBytes copies data into the foreign heap and deserializes it.
func FromBytes(eng *native.Engine, data []byte, opts ...memory.Option) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, errors.InvalidArgument(errors.PhaseForeign, "empty serialized bitmap")
	}
	view, err := memory.ViewOf(eng.Heap(), data, memory.WithArena(nil))
	if err != nil {
		return nil, err
	}
	return dispose.Using(view, func(v *memory.ByteView) (*Bitmap, error) {
		return Deserialize(eng, v, opts...)
	})
}

// Native returns the engine that owns the bitmap.
func (b *Bitmap) Native() *native.Engine {
	return b.eng
}

// Add inserts values.
func (b *Bitmap) Add(values ...uint32) error {
	if err := b.CheckDisposed(); err != nil {
		return err
	}
	for _, v := range values {
		if err := b.eng.BitmapAdd(b.Offset(), v).Err("bitmap_add"); err != nil {
			return err
		}
	}
	return nil
}

// AddView inserts every value of v in one native call.
func (b *Bitmap) AddView(v *memory.Uint32View) error {
	if err := b.CheckDisposed(); err != nil {
		return err
	}
	if err := v.CheckDisposed(); err != nil {
		return err
	}
	return b.eng.BitmapAddMany(b.Offset(), v.Offset(), uint32(v.Len())).Err("bitmap_add_many")
}

// Remove deletes values.
func (b *Bitmap) Remove(values ...uint32) error {
	if err := b.CheckDisposed(); err != nil {
		return err
	}
	for _, v := range values {
		if err := b.eng.BitmapRemove(b.Offset(), v).Err("bitmap_remove"); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether v is present. A disposed bitmap holds nothing.
func (b *Bitmap) Has(v uint32) bool {
	if b.IsDisposed() {
		return false
	}
	ok, _ := b.eng.BitmapContains(b.Offset(), v)
	return ok
}

// Cardinality returns the number of values.
func (b *Bitmap) Cardinality() uint32 {
	if b.IsDisposed() {
		return 0
	}
	n, _ := b.eng.BitmapCardinality(b.Offset())
	return n
}

// Version returns the change version. It increases on every mutation that
// changes the set.
func (b *Bitmap) Version() uint32 {
	if b.IsDisposed() {
		return 0
	}
	v, _ := b.eng.BitmapVersion(b.Offset())
	return v
}

// Iterator returns an idle cursor over the bitmap.
func (b *Bitmap) Iterator(opts ...cursor.Option) *cursor.Cursor {
	return cursor.New(b, opts...)
}

// Values yields the values in ascending order with a detached cursor.
func (b *Bitmap) Values() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for v := range cursor.New(b, cursor.WithArena(nil)).All() {
			if !yield(v) {
				return
			}
		}
	}
}

// ToArray copies the values into a new view.
func (b *Bitmap) ToArray(opts ...memory.Option) (*memory.Uint32View, error) {
	if err := b.CheckDisposed(); err != nil {
		return nil, err
	}
	ptr, n, st := b.eng.BitmapToArray(b.Offset())
	if err := st.Err("bitmap_to_array"); err != nil {
		return nil, err
	}
	v, err := memory.WrapView[uint32](b.eng.Heap(), ptr, int(n), opts...)
	if err != nil {
		b.eng.Free(ptr)
		return nil, err
	}
	return v, nil
}

// Serialize writes the portable roaring format into a new view.
func (b *Bitmap) Serialize(opts ...memory.Option) (*memory.ByteView, error) {
	if err := b.CheckDisposed(); err != nil {
		return nil, err
	}
	ptr, n, st := b.eng.BitmapSerialize(b.Offset())
	if err := st.Err("bitmap_serialize"); err != nil {
		return nil, err
	}
	v, err := memory.WrapView[uint8](b.eng.Heap(), ptr, int(n), opts...)
	if err != nil {
		b.eng.Free(ptr)
		return nil, err
	}
	return v, nil
}
