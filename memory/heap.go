package memory

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/internal/abi"
)

// DefaultHeapBase keeps the first bytes of memory unused so that no
// allocation can ever be mistaken for the null pointer.
const DefaultHeapBase = 16

// HeapConfig holds configuration for heap creation
type HeapConfig struct {
	// Base is the first usable address. 0 means DefaultHeapBase.
	Base uint32

	// Limit is one past the last usable address.
	// 0 means the memory size when the memory implements MemorySizer.
	Limit uint32

	// Scrub zeroes blocks when they are freed, so stale pointers read
	// empty data instead of the previous record.
	Scrub bool
}

// Block describes one live allocation.
type Block struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// Stats is a snapshot of heap accounting.
type Stats struct {
	Allocs     uint64
	Frees      uint64
	Faults     uint64
	LiveBytes  uint64
	LiveBlocks int
}

type span struct {
	addr uint32
	size uint32
}

func (s span) end() uint32 { return s.addr + s.size }

// Heap is a first-fit allocator over a region of linear memory.
// Every live block is tracked, so frees of unknown blocks and size
// mismatches are detected and counted as faults instead of corrupting
// the free list.
type Heap struct {
	mem   hermesffi.Memory
	live  map[uint32]Block
	free  []span
	stats Stats
	mu    sync.Mutex
	base  uint32
	limit uint32
	top   uint32
	scrub bool
}

// NewHeap creates a heap managing mem from cfg.Base to cfg.Limit.
func NewHeap(mem hermesffi.Memory, cfg *HeapConfig) *Heap {
	h := &Heap{
		mem:  mem,
		live: make(map[uint32]Block),
		base: DefaultHeapBase,
	}
	if cfg != nil {
		if cfg.Base > 0 {
			h.base = cfg.Base
		}
		h.limit = cfg.Limit
		h.scrub = cfg.Scrub
	}
	if h.limit == 0 {
		if sizer, ok := mem.(hermesffi.MemorySizer); ok {
			h.limit = sizer.Size()
		} else {
			h.limit = math.MaxUint32
		}
	}
	h.top = h.base
	return h
}

// Alloc reserves size bytes aligned to align.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseMemory, "alignment must be a power of two")
	}
	n := size
	if n == 0 {
		n = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ptr, ok := h.takeFree(n, align)
	if !ok {
		start := abi.AlignTo(h.top, align)
		end, fits := abi.SafeAddU32(start, n)
		if !fits || start < h.top || end > h.limit {
			Logger().Debug("heap exhausted",
				zap.Uint32("size", size),
				zap.Uint32("align", align),
				zap.Uint32("top", h.top),
				zap.Uint32("limit", h.limit))
			return 0, errors.AllocationFailed(errors.PhaseMemory, size, align, nil)
		}
		if start > h.top {
			h.insertFree(span{addr: h.top, size: start - h.top})
		}
		h.top = end
		ptr = start
	}

	h.live[ptr] = Block{Ptr: ptr, Size: size, Align: align}
	h.stats.Allocs++
	h.stats.LiveBlocks++
	h.stats.LiveBytes += uint64(size)
	return ptr, nil
}

func (h *Heap) takeFree(n, align uint32) (uint32, bool) {
	for i, s := range h.free {
		start := abi.AlignTo(s.addr, align)
		end, ok := abi.SafeAddU32(start, n)
		if !ok || start < s.addr || end > s.end() {
			continue
		}
		var parts []span
		if start > s.addr {
			parts = append(parts, span{addr: s.addr, size: start - s.addr})
		}
		if end < s.end() {
			parts = append(parts, span{addr: end, size: s.end() - end})
		}
		h.free = append(h.free[:i], append(parts, h.free[i+1:]...)...)
		return start, true
	}
	return 0, false
}

// Free releases a block. Unknown pointers and size or alignment
// mismatches are recorded as faults.
func (h *Heap) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	if align == 0 {
		align = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.live[ptr]
	if !ok {
		h.stats.Faults++
		Logger().Warn("free of unknown block",
			zap.Uint32("addr", ptr),
			zap.Uint32("size", size))
		return
	}
	if b.Size != size || b.Align != align {
		h.stats.Faults++
		Logger().Warn("free size mismatch",
			zap.Uint32("addr", ptr),
			zap.Uint32("size", size),
			zap.Uint32("align", align),
			zap.Uint32("allocated_size", b.Size),
			zap.Uint32("allocated_align", b.Align))
	}

	delete(h.live, ptr)
	h.stats.Frees++
	h.stats.LiveBlocks--
	h.stats.LiveBytes -= uint64(b.Size)

	n := b.Size
	if n == 0 {
		n = 1
	}
	if h.scrub {
		_ = h.mem.Write(ptr, make([]byte, n))
	}
	h.insertFree(span{addr: ptr, size: n})

	if last := len(h.free) - 1; last >= 0 && h.free[last].end() == h.top {
		h.top = h.free[last].addr
		h.free = h.free[:last]
	}
}

// insertFree adds s to the sorted free list, merging adjacent spans.
func (h *Heap) insertFree(s span) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].addr >= s.addr })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].end() == h.free[i+1].addr {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].end() == h.free[i].addr {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

// Stats returns a snapshot of the heap counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Live returns the live blocks ordered by address.
func (h *Heap) Live() []Block {
	h.mu.Lock()
	defer h.mu.Unlock()

	blocks := make([]Block, 0, len(h.live))
	for _, b := range h.live {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Ptr < blocks[j].Ptr })
	return blocks
}

// Owns reports whether ptr is the start of a live block.
func (h *Heap) Owns(ptr uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.live[ptr]
	return ok
}

// Top returns the end of the bump region; addresses at or above it are untouched.
func (h *Heap) Top() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.top
}
