package memory

import (
	wasmheap "github.com/wippyai/wasm-heap"
	"github.com/wippyai/wasm-heap/arena"
	"github.com/wippyai/wasm-heap/errors"
)

// Option configures block creation.
type Option func(*options)

type options struct {
	arena     *arena.Arena
	reclaimer Reclaimer
	release   func(offset uint32)
	arenaSet  bool
}

// WithArena registers the new object with a instead of the current arena.
// A nil arena creates a detached object.
func WithArena(a *arena.Arena) Option {
	return func(o *options) {
		o.arena = a
		o.arenaSet = true
	}
}

// WithReclaimer overrides the default reclaimer.
func WithReclaimer(r Reclaimer) Option {
	return func(o *options) {
		o.reclaimer = r
	}
}

// WithRelease replaces the foreign free used by Dispose. Objects created by
// a native library use it to run their own destructor.
func WithRelease(fn func(offset uint32)) Option {
	return func(o *options) {
		o.release = fn
	}
}

func resolve(h wasmheap.Heap, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.arenaSet {
		o.arena = arena.Current()
	}
	if o.reclaimer == nil {
		o.reclaimer = defaultReclaimer
	}
	if o.release == nil {
		o.release = h.Free
	}
	return o
}

// Block owns one allocation in a foreign heap.
type Block struct {
	heap    wasmheap.Heap
	arena   *arena.Arena
	owner   arena.Member
	release func(uint32)
	cancel  func()
	offset  uint32
	length  uint32
}

// Allocate allocates size bytes from h. A zero size yields a block that is
// already released.
func Allocate(h wasmheap.Heap, size uint32, opts ...Option) (*Block, error) {
	return allocate(h, size, nil, opts)
}

func allocate(h wasmheap.Heap, size uint32, owner arena.Member, opts []Option) (*Block, error) {
	o := resolve(h, opts)
	if f, ok := o.reclaimer.(Flusher); ok {
		f.Flush()
	}
	if size == 0 {
		return &Block{heap: h, release: o.release}, nil
	}
	off := h.Allocate(size)
	if off == 0 {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, size)
	}
	return newBlock(h, off, size, owner, o), nil
}

// NewBlock takes ownership of an existing allocation. owner is the object
// registered with the arena; nil registers the block itself.
func NewBlock(h wasmheap.Heap, offset, length uint32, owner arena.Member, opts ...Option) *Block {
	return newBlock(h, offset, length, owner, resolve(h, opts))
}

func newBlock(h wasmheap.Heap, offset, length uint32, owner arena.Member, o options) *Block {
	b := &Block{
		heap:    h,
		release: o.release,
		offset:  offset,
		length:  length,
	}
	if offset == 0 {
		b.length = 0
		return b
	}
	if owner == nil {
		owner = b
	}
	b.owner = owner
	if o.arena != nil {
		b.arena = o.arena
		o.arena.Register(owner)
	}
	b.cancel = o.reclaimer.Track(b, offset, o.release)
	return b
}

// Offset returns the block's offset, or 0 once released.
func (b *Block) Offset() uint32 {
	return b.offset
}

// Len returns the length in bytes, or 0 once released.
func (b *Block) Len() uint32 {
	return b.length
}

// Heap returns the heap the block lives in.
func (b *Block) Heap() wasmheap.Heap {
	return b.heap
}

// Arena returns the arena the block is registered with, or nil.
func (b *Block) Arena() *arena.Arena {
	return b.arena
}

// IsDisposed reports whether the block was released.
func (b *Block) IsDisposed() bool {
	return b.offset == 0
}

// CheckDisposed returns an already_disposed error once the block was released.
func (b *Block) CheckDisposed() error {
	if b.offset == 0 {
		return errors.AlreadyDisposed(errors.PhaseDispose, "block")
	}
	return nil
}

// Dispose releases the allocation. It returns true only on the first call
// on a live block.
func (b *Block) Dispose() bool {
	if b.offset == 0 {
		return false
	}
	off := b.offset
	b.offset = 0
	b.length = 0
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.arena != nil {
		b.arena.Unregister(b.owner)
		b.arena = nil
	}
	b.release(off)
	return true
}

// Shrink reduces the reported length to n bytes without reallocating.
// n < 1 disposes the block; n >= Len is a no-op returning false.
func (b *Block) Shrink(n int) bool {
	if n < 1 {
		return b.Dispose()
	}
	if uint64(n) >= uint64(b.length) {
		return false
	}
	b.length = uint32(n)
	return true
}

// RebindArena records a new owning arena after a transfer.
func (b *Block) RebindArena(a *arena.Arena) {
	b.arena = a
}

// Bytes returns the live bytes of the block. The slice is only valid until
// the next allocation on the same heap.
func (b *Block) Bytes() []byte {
	if b.offset == 0 {
		return nil
	}
	mem := b.heap.Memory()
	end := uint64(b.offset) + uint64(b.length)
	if end > uint64(len(mem)) {
		return nil
	}
	return mem[b.offset:end:end]
}
