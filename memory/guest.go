package memory

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/hermes-ffi/errors"
)

// GuestConfig holds configuration for a hosted guest memory.
type GuestConfig struct {
	// Pages is the initial memory size in 64 KiB pages. 0 means 1.
	Pages uint32

	// Heap configures the allocator behind cabi_realloc.
	// Base defaults to 1024 so low guest addresses stay unused.
	Heap HeapConfig
}

// Guest is a wazero runtime hosting a guest module that exports one
// linear memory and a cabi_realloc. The guest's cabi_realloc is an
// import from the "allocator" host module, served by a Heap over the
// guest memory, so every allocation crosses the guest call boundary
// exactly as it would with a real guest allocator.
type Guest struct {
	rt        wazero.Runtime
	mod       api.Module
	Memory    *Wrapper
	Heap      *Heap
	Allocator *AllocatorWrapper
}

// NewGuest instantiates the guest memory and allocator.
func NewGuest(ctx context.Context, cfg *GuestConfig) (*Guest, error) {
	pages := uint32(1)
	heapCfg := HeapConfig{Base: 1024}
	if cfg != nil {
		if cfg.Pages > 0 {
			pages = cfg.Pages
		}
		heapCfg = cfg.Heap
		if heapCfg.Base == 0 {
			heapCfg.Base = 1024
		}
	}
	if pages > 65536 {
		return nil, errors.InvalidInput(errors.PhaseMemory, "guest memory exceeds 65536 pages")
	}

	rt := wazero.NewRuntime(ctx)

	// heap is bound once the guest memory exists; the guest cannot call
	// cabi_realloc before that.
	var heap *Heap
	_, err := rt.NewHostModuleBuilder("allocator").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, oldPtr, oldSize, align, newSize uint32) uint32 {
			if heap == nil {
				return 0
			}
			if newSize == 0 {
				heap.Free(oldPtr, oldSize, align)
				return 0
			}
			p, err := heap.Alloc(newSize, align)
			if err != nil {
				return 0
			}
			return p
		}).
		Export("cabi_realloc").
		Instantiate(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidData, err, "instantiate allocator host module")
	}

	compiled, err := rt.CompileModule(ctx, guestModule(pages))
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidData, err, "compile guest module")
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("guest"))
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidData, err, "instantiate guest module")
	}

	mem := WrapMemory(mod.ExportedMemory("memory"))
	heap = NewHeap(mem, &heapCfg)

	return &Guest{
		rt:        rt,
		mod:       mod,
		Memory:    mem,
		Heap:      heap,
		Allocator: WrapAllocator(ctx, mod.ExportedFunction("cabi_realloc")),
	}, nil
}

// Close shuts the runtime down.
func (g *Guest) Close(ctx context.Context) error {
	return g.rt.Close(ctx)
}

// guestModule encodes a module that imports allocator.cabi_realloc,
// declares a memory of the given pages and exports both.
func guestModule(pages uint32) []byte {
	m := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version

		// type section: (i32, i32, i32, i32) -> i32
		0x01, 0x09, 0x01, 0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,

		// import section: allocator.cabi_realloc, func type 0
		0x02, 0x1a, 0x01,
		0x09, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'o', 'r',
		0x0c, 'c', 'a', 'b', 'i', '_', 'r', 'e', 'a', 'l', 'l', 'o', 'c',
		0x00, 0x00,
	}

	limits := append([]byte{0x01, 0x00}, uleb128(pages)...) // 1 memory, no max
	m = append(m, 0x05, byte(len(limits)))
	m = append(m, limits...)

	m = append(m,
		0x07, 0x19, 0x02, // export section: 25 bytes, 2 exports
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, // memory 0
		0x0c, 'c', 'a', 'b', 'i', '_', 'r', 'e', 'a', 'l', 'l', 'o', 'c', 0x00, 0x00, // func 0
	)
	return m
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
