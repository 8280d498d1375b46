package main

import (
	"context"
	"encoding/hex"
	"fmt"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/memory"
	"github.com/wippyai/hermes-ffi/transcoder"
)

// workspace is the linear memory conversions run in: an in-process
// buffer or a wazero guest memory.
type workspace struct {
	mem   hermesffi.Memory
	heap  *memory.Heap
	guest *memory.Guest
	tc    *transcoder.Transcoder
}

func newWorkspace(ctx context.Context, cfg *fileConfig, guest bool) (*workspace, error) {
	w := &workspace{}
	var alloc hermesffi.Allocator
	if guest {
		g, err := memory.NewGuest(ctx, &memory.GuestConfig{Pages: cfg.Heap.GuestPages, Heap: *cfg.heap()})
		if err != nil {
			return nil, fmt.Errorf("guest memory: %w", err)
		}
		w.guest, w.mem, w.heap, alloc = g, g.Memory, g.Heap, g.Allocator
	} else {
		buf := memory.NewBuffer(cfg.Heap.Size)
		w.mem = buf
		w.heap = memory.NewHeap(buf, cfg.heap())
		alloc = w.heap
	}
	w.tc = transcoder.New(w.mem, alloc, cfg.transcoder())
	return w, nil
}

func (w *workspace) backend() string {
	if w.guest != nil {
		return "wazero guest"
	}
	return "buffer"
}

func (w *workspace) Close(ctx context.Context) error {
	if w.guest != nil {
		return w.guest.Close(ctx)
	}
	return nil
}

// conversion is the outcome of one forward, reverse and release cycle.
type conversion struct {
	reverseErr error
	releaseErr error
	dump       string
	roundTrip  []byte
	live       memory.Stats
	after      memory.Stats
	addr       uint32
	size       uint32
	kind       hermes.Kind
}

// leaked reports whether the release left allocations behind.
func (c *conversion) leaked() bool {
	return c.after.LiveBlocks != 0 || c.after.Faults != 0
}

// convert runs msg through the full record lifecycle.
func (w *workspace) convert(msg hermes.Message) (*conversion, error) {
	before := w.heap.Stats()
	rec, err := w.tc.Forward(msg)
	if err != nil {
		return nil, err
	}

	c := &conversion{kind: rec.Kind(), addr: rec.Addr(), size: rec.Size(), live: w.heap.Stats()}
	c.live.LiveBlocks -= before.LiveBlocks
	c.live.LiveBytes -= before.LiveBytes

	if raw, err := w.mem.Read(rec.Addr(), rec.Size()); err == nil {
		c.dump = hex.Dump(raw)
	}

	if back, err := w.tc.Reverse(rec); err != nil {
		c.reverseErr = err
	} else if c.roundTrip, err = hermes.Marshal(hermes.FormatJSON, back); err != nil {
		c.reverseErr = err
	}

	c.releaseErr = w.tc.Release(rec)
	c.after = w.heap.Stats()
	c.after.LiveBlocks -= before.LiveBlocks
	c.after.LiveBytes -= before.LiveBytes
	c.after.Faults -= before.Faults
	return c, nil
}
