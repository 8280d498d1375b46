package abi

import (
	"sync"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
)

// Allocation is one staged block. Blocks with a Drop function are owned
// by another package and are handed back to it instead of being freed.
type Allocation struct {
	Drop  func(ptr uint32) error
	Ptr   uint32
	Size  uint32
	Align uint32
}

// AllocationList stages every block a lowering makes so a failure can
// return linear memory to the state it had before the lowering began.
type AllocationList struct {
	allocations []Allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocations: make([]Allocation, 0, 8)}
	},
}

const maxPooledAllocationCapacity = 128

// NewAllocationList returns an empty list from the pool.
func NewAllocationList() *AllocationList {
	return allocationListPool.Get().(*AllocationList)
}

func (al *AllocationList) recycle() {
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.allocations = al.allocations[:0]
	allocationListPool.Put(al)
}

// Add stages a block allocated by the caller.
func (al *AllocationList) Add(ptr, size, align uint32) {
	al.allocations = append(al.allocations, Allocation{Ptr: ptr, Size: size, Align: align})
}

// AddDrop stages a block whose release belongs to drop.
func (al *AllocationList) AddDrop(ptr uint32, drop func(ptr uint32) error) {
	al.allocations = append(al.allocations, Allocation{Ptr: ptr, Drop: drop})
}

// Alloc allocates and stages a block.
func (al *AllocationList) Alloc(alloc hermesffi.Allocator, size, align uint32, path []string) (uint32, error) {
	ptr, err := alloc.Alloc(size, align)
	if err != nil {
		return 0, errors.New(errors.PhaseEncode, errors.KindAllocation).
			Path(path...).
			Detail("failed to allocate %d bytes (align %d)", size, align).
			Cause(err).
			Build()
	}
	if ptr == 0 {
		return 0, errors.New(errors.PhaseEncode, errors.KindAllocation).
			Path(path...).
			Detail("allocator returned null for %d bytes", size).
			Build()
	}
	al.Add(ptr, size, align)
	return ptr, nil
}

// CString writes s as a staged C string and returns its address.
func (al *AllocationList) CString(mem hermesffi.Memory, alloc hermesffi.Allocator, s string, limit uint32, path []string) (uint32, error) {
	ptr, size, err := WriteCString(mem, alloc, s, limit, path)
	if err != nil {
		return 0, err
	}
	al.Add(ptr, size, 1)
	return ptr, nil
}

// Count returns the number of staged blocks.
func (al *AllocationList) Count() int {
	return len(al.allocations)
}

// Commit keeps every staged block and returns the list to the pool.
// The list is invalid afterwards.
func (al *AllocationList) Commit() {
	al.recycle()
}

// Rollback frees every staged block, newest first, and returns the list to
// the pool. The first drop failure is reported after all blocks are handled.
// The list is invalid afterwards.
func (al *AllocationList) Rollback(alloc hermesffi.Allocator) error {
	var first error
	for i := len(al.allocations) - 1; i >= 0; i-- {
		a := al.allocations[i]
		if a.Ptr == 0 {
			continue
		}
		if a.Drop != nil {
			if err := a.Drop(a.Ptr); err != nil && first == nil {
				first = err
			}
			continue
		}
		if alloc != nil {
			alloc.Free(a.Ptr, a.Size, a.Align)
		}
	}
	al.recycle()
	return first
}
