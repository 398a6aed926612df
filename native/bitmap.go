package native

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap header layout.
const (
	BitmapVersionOffset     = 0
	BitmapCardinalityOffset = 4
	BitmapHeaderSize        = 8
)

type bitmap struct {
	rb *roaring.Bitmap
}

func (e *Engine) bitmap(handle uint32) (*bitmap, Status) {
	v, ok := e.table.GetTyped(handle, TypeBitmap)
	if !ok {
		return nil, StatusInvalidHandle
	}
	return v.(*bitmap), StatusOK
}

func (e *Engine) newBitmap(rb *roaring.Bitmap) (uint32, Status) {
	ptr, st := e.alloc(BitmapHeaderSize)
	if st != StatusOK {
		return 0, st
	}
	b := &bitmap{rb: rb}
	e.table.Insert(ptr, TypeBitmap, b)
	e.writeU32(ptr+BitmapCardinalityOffset, uint32(rb.GetCardinality()))
	return ptr, StatusOK
}

// touch bumps the version and refreshes the cardinality in the header.
func (e *Engine) touch(handle uint32, b *bitmap) {
	e.writeU32(handle+BitmapVersionOffset, e.readU32(handle+BitmapVersionOffset)+1)
	e.writeU32(handle+BitmapCardinalityOffset, uint32(b.rb.GetCardinality()))
}

// BitmapNew creates an empty bitmap.
func (e *Engine) BitmapNew() (uint32, Status) {
	return e.newBitmap(roaring.New())
}

// BitmapFree releases a bitmap. Cursors over it become invalid.
func (e *Engine) BitmapFree(handle uint32) Status {
	return e.drop(handle, TypeBitmap)
}

// ReleaseBitmap is BitmapFree for release hooks; failures are logged.
func (e *Engine) ReleaseBitmap(handle uint32) {
	logStatus("bitmap_free", handle, e.BitmapFree(handle))
}

// BitmapAdd adds v. The version changes only when the set changes.
func (e *Engine) BitmapAdd(handle, v uint32) Status {
	b, st := e.bitmap(handle)
	if st != StatusOK {
		return st
	}
	if b.rb.CheckedAdd(v) {
		e.touch(handle, b)
	}
	return StatusOK
}

// BitmapAddMany adds count little-endian u32 values read from ptr.
func (e *Engine) BitmapAddMany(handle, ptr, count uint32) Status {
	b, st := e.bitmap(handle)
	if st != StatusOK {
		return st
	}
	if count == 0 {
		return StatusOK
	}
	if uint64(count)*4 > math.MaxUint32 {
		return StatusOutOfBounds
	}
	raw, st := e.span(ptr, count*4)
	if st != StatusOK {
		return st
	}
	values := make([]uint32, count)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	before := b.rb.GetCardinality()
	b.rb.AddMany(values)
	if b.rb.GetCardinality() != before {
		e.touch(handle, b)
	}
	return StatusOK
}

// BitmapRemove removes v. The version changes only when the set changes.
func (e *Engine) BitmapRemove(handle, v uint32) Status {
	b, st := e.bitmap(handle)
	if st != StatusOK {
		return st
	}
	if b.rb.CheckedRemove(v) {
		e.touch(handle, b)
	}
	return StatusOK
}

// BitmapContains reports whether v is in the bitmap.
func (e *Engine) BitmapContains(handle, v uint32) (bool, Status) {
	b, st := e.bitmap(handle)
	if st != StatusOK {
		return false, st
	}
	return b.rb.Contains(v), StatusOK
}

// BitmapCardinality reads the cardinality from the header.
func (e *Engine) BitmapCardinality(handle uint32) (uint32, Status) {
	if _, st := e.bitmap(handle); st != StatusOK {
		return 0, st
	}
	return e.readU32(handle + BitmapCardinalityOffset), StatusOK
}

// BitmapVersion reads the change version from the header.
func (e *Engine) BitmapVersion(handle uint32) (uint32, Status) {
	if _, st := e.bitmap(handle); st != StatusOK {
		return 0, st
	}
	return e.readU32(handle + BitmapVersionOffset), StatusOK
}

// BitmapSerialize writes the portable roaring format into a new allocation
// and returns it. The caller owns the buffer and releases it with Free.
func (e *Engine) BitmapSerialize(handle uint32) (ptr, length uint32, st Status) {
	b, st := e.bitmap(handle)
	if st != StatusOK {
		return 0, 0, st
	}
	data, err := b.rb.ToBytes()
	if err != nil {
		return 0, 0, StatusInvalidData
	}
	if len(data) == 0 {
		return 0, 0, StatusOK
	}
	ptr = e.heap.Allocate(uint32(len(data)))
	if ptr == 0 {
		return 0, 0, StatusAllocation
	}
	copy(e.heap.Memory()[ptr:], data)
	return ptr, uint32(len(data)), StatusOK
}

// BitmapDeserialize creates a bitmap from length bytes of portable roaring
// data at ptr.
func (e *Engine) BitmapDeserialize(ptr, length uint32) (uint32, Status) {
	raw, st := e.span(ptr, length)
	if st != StatusOK {
		return 0, st
	}
	rb := roaring.New()
	if _, err := rb.ReadFrom(bytes.NewReader(bytes.Clone(raw))); err != nil {
		return 0, StatusInvalidData
	}
	return e.newBitmap(rb)
}

// BitmapToArray writes the values in ascending order into a new allocation
// of count u32s. An empty bitmap yields (0, 0, StatusOK).
func (e *Engine) BitmapToArray(handle uint32) (ptr, count uint32, st Status) {
	b, st := e.bitmap(handle)
	if st != StatusOK {
		return 0, 0, st
	}
	values := b.rb.ToArray()
	if len(values) == 0 {
		return 0, 0, StatusOK
	}
	if uint64(len(values))*4 > math.MaxUint32 {
		return 0, 0, StatusAllocation
	}
	ptr = e.heap.Allocate(uint32(len(values) * 4))
	if ptr == 0 {
		return 0, 0, StatusAllocation
	}
	for i, v := range values {
		e.writeU32(ptr+uint32(i*4), v)
	}
	return ptr, uint32(len(values)), StatusOK
}
