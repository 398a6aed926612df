package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-heap/arena"
	"github.com/wippyai/wasm-heap/engine"
	"github.com/wippyai/wasm-heap/memory"
	"github.com/wippyai/wasm-heap/runtime"
)

type options struct {
	values  []uint32
	pages   uint32
	limit   uint32
	verbose bool
}

func main() {
	var (
		pages       = flag.Uint("pages", 1, "Initial memory size in 64KiB pages")
		limit       = flag.Uint("limit", 0, "Memory limit in pages (0 = 4GiB)")
		values      = flag.String("values", "3,1,2", "Comma-separated values for the demo bitmap")
		verbose     = flag.Bool("v", false, "Log engine and arena events to stderr")
		interactive = flag.Bool("i", term.IsTerminal(int(os.Stdout.Fd())), "Interactive mode with TUI")
	)
	flag.Parse()

	vals, err := parseValues(*values)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts := options{
		values:  vals,
		pages:   uint32(*pages),
		limit:   uint32(*limit),
		verbose: *verbose,
	}

	if *interactive {
		err = runInteractive(opts)
	} else {
		err = run(os.Stdout, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseValues(s string) ([]uint32, error) {
	var out []uint32
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", f, err)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func newRuntime(ctx context.Context, opts options) (*runtime.Runtime, error) {
	cfg := &runtime.Config{
		Engine: &engine.Config{
			ModuleName:       "heapview",
			InitialPages:     opts.pages,
			MemoryLimitPages: opts.limit,
		},
	}
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		cfg.Logger = l
	}
	return runtime.New(ctx, cfg)
}

func printStats(w io.Writer, step string, rt *runtime.Runtime) {
	st := rt.Stats()
	fmt.Fprintf(w, "%-28s pages=%-3d top=%-8d in-use=%-8d free=%-6d blocks=%-3d bitmaps=%d cursors=%d arenas=%d\n",
		step, st.Heap.Pages, st.Heap.Top, st.Heap.InUse, st.Heap.FreeBytes,
		st.Heap.LiveBlocks, st.Native.Bitmaps, st.Native.Cursors, st.ArenaDepth)
}

// run executes the scripted workload and prints heap usage after each step.
func run(w io.Writer, opts options) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	printStats(w, "start", rt)

	var kept *memory.Int32View
	a := rt.NewArena()
	err = a.With(func(a *arena.Arena) error {
		small, err := rt.Bytes([]byte("heap"))
		if err != nil {
			return err
		}
		off := small.Offset()
		printStats(w, "bytes view", rt)

		kept, err = rt.Int32s([]int32{-1, 0, 1})
		if err != nil {
			return err
		}
		a.Escape(kept)
		printStats(w, "int32 view (escaped)", rt)

		bm, err := rt.BitmapOf(opts.values)
		if err != nil {
			return err
		}
		printStats(w, "bitmap", rt)

		it := rt.Iterator(bm)
		var got []string
		for {
			v, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			got = append(got, strconv.FormatUint(uint64(v), 10))
		}
		fmt.Fprintf(w, "values: [%s]\n", strings.Join(got, " "))
		printStats(w, "iterated", rt)

		data, err := bm.Serialize()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "serialized: %d bytes\n", data.Len())

		if _, err := rt.Alloc(2 * 65536); err != nil {
			return err
		}
		printStats(w, "grown", rt)
		fmt.Fprintf(w, "bytes view offset stable: %v, contents: %q\n",
			small.Offset() == off, slices.Clone(small.Bytes()))
		return nil
	})
	if err != nil {
		return err
	}
	printStats(w, "arena stopped", rt)

	fmt.Fprintf(w, "escaped view: %v\n", kept.ToSlice())
	kept.Dispose()
	printStats(w, "escaped view released", rt)
	return nil
}
