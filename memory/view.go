package memory

import (
	"encoding/binary"
	"io"
	"iter"
	"math"
	"slices"

	wasmheap "github.com/wippyai/wasm-heap"
	"github.com/wippyai/wasm-heap/dispose"
	"github.com/wippyai/wasm-heap/errors"
)

// Element is the set of element types a View can hold. Multi-byte elements
// are stored little-endian, the byte order of WebAssembly linear memory.
type Element interface {
	~uint8 | ~int32 | ~uint32
}

// View is a typed window over a Block. It holds no reference to the backing
// store; each accessor fetches the live memory from the heap.
type View[E Element] struct {
	*Block
	stride int
}

// Common instantiations.
type (
	ByteView   = View[uint8]
	Int32View  = View[int32]
	Uint32View = View[uint32]
)

func strideOf[E Element]() int {
	var zero E
	return binary.Size(zero)
}

func checkLength(n, stride int) error {
	if n < 0 {
		return errors.New(errors.PhaseView, errors.KindInvalidArgument).
			Detail("negative length %d", n).Value(n).Build()
	}
	if uint64(n)*uint64(stride) > math.MaxUint32 {
		return errors.New(errors.PhaseView, errors.KindInvalidArgument).
			Detail("length %d exceeds the address space", n).Value(n).Build()
	}
	return nil
}

func allocView[E Element](h wasmheap.Heap, n int, opts []Option) (*View[E], error) {
	stride := strideOf[E]()
	if err := checkLength(n, stride); err != nil {
		return nil, err
	}
	v := &View[E]{stride: stride}
	b, err := allocate(h, uint32(n*stride), v, opts)
	if err != nil {
		return nil, err
	}
	v.Block = b
	return v, nil
}

// WrapView takes ownership of n elements already allocated at offset.
// Offset 0 yields a released view. An invalid length is rejected before
// ownership is taken; the allocation then stays with the caller.
func WrapView[E Element](h wasmheap.Heap, offset uint32, n int, opts ...Option) (*View[E], error) {
	v := &View[E]{stride: strideOf[E]()}
	if err := checkLength(n, v.stride); err != nil {
		return nil, err
	}
	v.Block = NewBlock(h, offset, uint32(n*v.stride), v, opts...)
	return v, nil
}

// populate runs fill on a fresh view and disposes the view if fill fails
// or panics.
func populate[E Element](v *View[E], fill func(*View[E]) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			dispose.TryDispose(v)
			panic(r)
		}
		if err != nil {
			dispose.TryDispose(v)
		}
	}()
	return fill(v)
}

// NewView allocates a zero-filled view of n elements.
func NewView[E Element](h wasmheap.Heap, n int, opts ...Option) (*View[E], error) {
	v, err := allocView[E](h, n, opts)
	if err != nil {
		return nil, err
	}
	clear(v.Bytes())
	return v, nil
}

// ViewOf allocates a view holding a copy of src.
func ViewOf[E Element](h wasmheap.Heap, src []E, opts ...Option) (*View[E], error) {
	v, err := allocView[E](h, len(src), opts)
	if err != nil {
		return nil, err
	}
	if err := populate(v, func(v *View[E]) error { return v.Set(src, 0) }); err != nil {
		return nil, err
	}
	return v, nil
}

// ViewFromSeq allocates a view holding the values produced by seq.
func ViewFromSeq[E Element](h wasmheap.Heap, seq iter.Seq[E], opts ...Option) (*View[E], error) {
	return ViewOf(h, slices.Collect(seq), opts...)
}

// ViewFromView allocates a view on h holding a copy of src. src may live on
// another heap.
func ViewFromView[E Element](h wasmheap.Heap, src *View[E], opts ...Option) (*View[E], error) {
	if err := src.CheckDisposed(); err != nil {
		return nil, err
	}
	v, err := allocView[E](h, src.Len(), opts)
	if err != nil {
		return nil, err
	}
	// src.Bytes is fetched after the allocation above.
	if err := populate(v, func(v *View[E]) error {
		copy(v.Bytes(), src.Bytes())
		return nil
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadView allocates a view of n elements and fills it from r.
func ReadView[E Element](h wasmheap.Heap, r io.Reader, n int, opts ...Option) (*View[E], error) {
	v, err := allocView[E](h, n, opts)
	if err != nil {
		return nil, err
	}
	if err := populate(v, func(v *View[E]) error {
		buf := make([]byte, int(v.Block.Len()))
		if _, err := io.ReadFull(r, buf); err != nil {
			return errors.Wrap(errors.PhaseView, errors.KindInvalidData, err, "read view contents")
		}
		copy(v.Bytes(), buf)
		return nil
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// Len returns the number of elements, or 0 once released.
func (v *View[E]) Len() int {
	if v.Block == nil {
		return 0
	}
	return int(v.Block.Len()) / v.stride
}

// Stride returns the element size in bytes.
func (v *View[E]) Stride() int {
	return v.stride
}

// Shrink reduces the view to n elements. See Block.Shrink.
func (v *View[E]) Shrink(n int) bool {
	if n < 1 {
		return v.Dispose()
	}
	if n >= v.Len() {
		return false
	}
	return v.Block.Shrink(n * v.stride)
}

func (v *View[E]) load(mem []byte, i int) E {
	p := int(v.Offset()) + i*v.stride
	if v.stride == 1 {
		return E(mem[p])
	}
	return E(binary.LittleEndian.Uint32(mem[p:]))
}

func (v *View[E]) store(mem []byte, i int, val E) {
	p := int(v.Offset()) + i*v.stride
	if v.stride == 1 {
		mem[p] = byte(val)
		return
	}
	binary.LittleEndian.PutUint32(mem[p:], uint32(val))
}

func (v *View[E]) index(i int) (int, bool) {
	n := v.Len()
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// Set copies src into the view starting at element offset.
func (v *View[E]) Set(src []E, offset int) error {
	if err := v.CheckDisposed(); err != nil {
		return err
	}
	if offset < 0 {
		return errors.New(errors.PhaseView, errors.KindInvalidArgument).
			Detail("negative offset %d", offset).Value(offset).Build()
	}
	if offset+len(src) > v.Len() {
		return errors.OutOfRange(errors.PhaseView, []string{"set"}, offset, len(src), v.Len())
	}
	mem := v.Heap().Memory()
	for i, val := range src {
		v.store(mem, offset+i, val)
	}
	return nil
}

// At returns the element at i. Negative indexes count from the end.
func (v *View[E]) At(i int) (E, bool) {
	var zero E
	i, ok := v.index(i)
	if !ok {
		return zero, false
	}
	return v.load(v.Heap().Memory(), i), true
}

// SetAt stores val at i. Negative indexes count from the end. It returns
// false without writing when i is out of range.
func (v *View[E]) SetAt(i int, val E) bool {
	i, ok := v.index(i)
	if !ok {
		return false
	}
	v.store(v.Heap().Memory(), i, val)
	return true
}

// Fill stores val in every element.
func (v *View[E]) Fill(val E) error {
	if err := v.CheckDisposed(); err != nil {
		return err
	}
	mem := v.Heap().Memory()
	for i := range v.Len() {
		v.store(mem, i, val)
	}
	return nil
}

// ToSlice copies the elements into a new Go slice.
func (v *View[E]) ToSlice() []E {
	if v.IsDisposed() {
		return nil
	}
	out := make([]E, v.Len())
	v.CopyTo(out)
	return out
}

// CopyTo copies up to len(dst) elements into dst and returns the count.
func (v *View[E]) CopyTo(dst []E) int {
	n := min(len(dst), v.Len())
	if n == 0 {
		return 0
	}
	mem := v.Heap().Memory()
	for i := range n {
		dst[i] = v.load(mem, i)
	}
	return n
}

// All yields index/element pairs. The memory is fetched again for every
// element, so the loop body may allocate.
func (v *View[E]) All() iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for i := 0; i < v.Len(); i++ {
			if !yield(i, v.load(v.Heap().Memory(), i)) {
				return
			}
		}
	}
}

// WriteTo writes the raw little-endian contents to w.
func (v *View[E]) WriteTo(w io.Writer) (int64, error) {
	if err := v.CheckDisposed(); err != nil {
		return 0, err
	}
	buf := slices.Clone(v.Bytes())
	n, err := w.Write(buf)
	return int64(n), err
}
