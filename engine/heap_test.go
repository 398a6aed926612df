package engine

import (
	"bytes"
	"context"
	"testing"

	wasmheap "github.com/wippyai/wasm-heap"
)

func TestMemoryModule(t *testing.T) {
	want := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
		// Memory section: one memory, min 1
		0x05, 0x03, 0x01, 0x00, 0x01,
		// Export section: "memory" -> memory 0
		0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}
	if got := memoryModule(1, 0); !bytes.Equal(got, want) {
		t.Fatalf("memoryModule(1, 0) = %x, want %x", got, want)
	}

	withMax := memoryModule(2, 300)
	if !bytes.Equal(withMax[8:13], []byte{0x05, 0x05, 0x01, 0x01, 0x02}) {
		t.Fatalf("unexpected memory section prefix %x", withMax[8:13])
	}
	if !bytes.Equal(withMax[13:15], []byte{0xac, 0x02}) {
		t.Fatalf("max should be LEB128 encoded, got %x", withMax[13:15])
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg *Config
	if cfg.moduleName() != defaultModuleName {
		t.Errorf("moduleName = %q", cfg.moduleName())
	}
	if cfg.initialPages() != 1 {
		t.Errorf("initialPages = %d", cfg.initialPages())
	}
	if cfg.limitPages() != maxPages {
		t.Errorf("limitPages = %d", cfg.limitPages())
	}
	if (&Config{MemoryLimitPages: 256}).limitPages() != 256 {
		t.Error("explicit limit should be kept")
	}
}

func TestNewWazeroHeapWithConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg   *Config
		name  string
		pages uint32
	}{
		{nil, "nil config", 1},
		{&Config{}, "default config", 1},
		{&Config{InitialPages: 4}, "four pages", 4},
		{&Config{MemoryLimitPages: 256, ModuleName: "custom"}, "16MB limit", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, err := NewWazeroHeapWithConfig(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("NewWazeroHeapWithConfig failed: %v", err)
			}
			defer h.Close(ctx)

			if h.Size() != tc.pages*wasmheap.PageSize {
				t.Errorf("Size = %d, want %d", h.Size(), tc.pages*wasmheap.PageSize)
			}
		})
	}
}

func TestNewWazeroHeap_InitialAboveLimit(t *testing.T) {
	_, err := NewWazeroHeapWithConfig(context.Background(), &Config{InitialPages: 4, MemoryLimitPages: 2})
	if err == nil {
		t.Fatal("expected error when initial pages exceed the limit")
	}
}

func TestWazeroHeap_ReadWriteAcrossGrowth(t *testing.T) {
	ctx := context.Background()
	h, err := NewWazeroHeap(ctx)
	if err != nil {
		t.Fatalf("NewWazeroHeap failed: %v", err)
	}
	defer h.Close(ctx)

	off := h.Allocate(4)
	if off == 0 {
		t.Fatal("Allocate failed")
	}
	copy(h.Memory()[off:], []byte{1, 2, 3, 4})

	big := h.Allocate(4 * wasmheap.PageSize)
	if big == 0 {
		t.Fatal("large Allocate failed")
	}
	if h.Stats().Grows == 0 {
		t.Fatal("large allocation should grow the memory")
	}

	mem := h.Memory()
	if uint32(len(mem)) != h.Size() {
		t.Fatalf("Memory length %d != Size %d", len(mem), h.Size())
	}
	if !bytes.Equal(mem[off:off+4], []byte{1, 2, 3, 4}) {
		t.Fatalf("data at stable offset lost after growth: %v", mem[off:off+4])
	}
}

func TestWazeroHeap_LimitRefusesGrowth(t *testing.T) {
	ctx := context.Background()
	h, err := NewWazeroHeapWithConfig(ctx, &Config{MemoryLimitPages: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(ctx)

	if h.Allocate(2*wasmheap.PageSize) != 0 {
		t.Fatal("allocation beyond the limit should return 0")
	}
}

func TestWazeroHeap_Close(t *testing.T) {
	ctx := context.Background()
	h, err := NewWazeroHeap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := h.Close(ctx); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if h.Allocate(8) != 0 || h.Memory() != nil || h.Size() != 0 {
		t.Fatal("closed heap should refuse work")
	}
	h.Free(16)
}

func TestSliceHeap_Relocates(t *testing.T) {
	h := NewSliceHeap(nil)
	off := h.Allocate(4)
	before := h.Memory()
	copy(before[off:], []byte{9, 8, 7, 6})

	h.Allocate(2 * wasmheap.PageSize)
	after := h.Memory()

	if &before[0] == &after[0] {
		t.Fatal("growth should move the backing store")
	}
	if !bytes.Equal(after[off:off+4], []byte{9, 8, 7, 6}) {
		t.Fatal("contents should be carried over")
	}
}
