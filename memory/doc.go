// Package memory provides linear memory backends for foreign records.
//
// Four pieces are offered:
//
// # Buffer
//
// An in-process little-endian byte space implementing hermesffi.Memory,
// for foreign callers that share a Go-allocated region:
//
//	buf := memory.NewBuffer(1 << 20)
//
// # Heap
//
// A first-fit allocator over any Memory region with live-block accounting,
// used to verify that every record release frees exactly what its
// construction allocated:
//
//	heap := memory.NewHeap(buf, &memory.HeapConfig{Base: 1024})
//	stats := heap.Stats() // Allocs, Frees, LiveBlocks, LiveBytes, Faults
//
// # wazero adapters
//
// Wraps a WebAssembly guest memory and a cabi_realloc-style guest allocator:
//
//	mem := memory.WrapMemory(instance.ExportedMemory("memory"))
//	alloc := memory.WrapAllocator(ctx, instance.ExportedFunction("cabi_realloc"))
//
// A Heap may also manage a region of a guest memory directly when the guest
// does not export an allocator.
//
// # Guest
//
// NewGuest hosts a bare guest memory in its own wazero runtime and serves
// cabi_realloc from a Heap, so records cross a real guest call boundary:
//
//	g, _ := memory.NewGuest(ctx, &memory.GuestConfig{Pages: 4})
//	defer g.Close(ctx)
//	tc := transcoder.New(g.Memory, g.Allocator, nil)
package memory
