package ontology

import (
	"math"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/internal/abi"
)

// LowerIntentClassifierResult allocates a CIntentClassifierResult for r.
func LowerIntentClassifierResult(mem hermesffi.Memory, alloc hermesffi.Allocator, r *IntentClassifierResult) (uint32, error) {
	if r == nil {
		return 0, errors.NilPointer(errors.PhaseEncode, []string{"intent"}, "*ontology.IntentClassifierResult")
	}
	al := abi.NewAllocationList()
	ptr, err := lowerIntent(mem, alloc, al, r)
	if err != nil {
		al.Rollback(alloc)
		return 0, err
	}
	al.Commit()
	return ptr, nil
}

func lowerIntent(mem hermesffi.Memory, alloc hermesffi.Allocator, al *abi.AllocationList, r *IntentClassifierResult) (uint32, error) {
	path := []string{"intent"}
	ptr, err := al.Alloc(alloc, IntentClassifierResultSize, IntentClassifierResultAlign, path)
	if err != nil {
		return 0, err
	}
	name, err := al.CString(mem, alloc, r.IntentName, abi.MaxStringSize, append(path, "intent_name"))
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU32(ptr+offIntentName, name); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(ptr+offProbability, math.Float32bits(r.Probability)); err != nil {
		return 0, err
	}
	return ptr, nil
}

// LowerSlot allocates a CSlot for s.
func LowerSlot(mem hermesffi.Memory, alloc hermesffi.Allocator, s *Slot) (uint32, error) {
	if s == nil {
		return 0, errors.NilPointer(errors.PhaseEncode, []string{"slot"}, "*ontology.Slot")
	}
	al := abi.NewAllocationList()
	ptr, err := al.Alloc(alloc, SlotSize, SlotAlign, []string{"slot"})
	if err == nil {
		err = writeSlot(mem, alloc, al, ptr, s, []string{"slot"})
	}
	if err != nil {
		al.Rollback(alloc)
		return 0, err
	}
	al.Commit()
	return ptr, nil
}

// LowerSlotList allocates a CSlotList holding every slot in list.
// An empty list is stored with a null data pointer.
func LowerSlotList(mem hermesffi.Memory, alloc hermesffi.Allocator, list SlotList) (uint32, error) {
	if uint64(len(list)) > abi.MaxArrayLength {
		return 0, errors.Overflow(errors.PhaseEncode, []string{"slots"}, len(list), abi.MaxArrayLength)
	}
	al := abi.NewAllocationList()
	ptr, err := lowerSlotList(mem, alloc, al, list)
	if err != nil {
		al.Rollback(alloc)
		return 0, err
	}
	al.Commit()
	return ptr, nil
}

func lowerSlotList(mem hermesffi.Memory, alloc hermesffi.Allocator, al *abi.AllocationList, list SlotList) (uint32, error) {
	path := []string{"slots"}
	ptr, err := al.Alloc(alloc, SlotListSize, SlotListAlign, path)
	if err != nil {
		return 0, err
	}

	var data uint32
	if len(list) > 0 {
		data, err = al.Alloc(alloc, uint32(len(list))*SlotSize, SlotAlign, path)
		if err != nil {
			return 0, err
		}
		for i := range list {
			if err := writeSlot(mem, alloc, al, data+uint32(i)*SlotSize, &list[i], path); err != nil {
				return 0, err
			}
		}
	}

	if err := mem.WriteU32(ptr+offSlotListData, data); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(ptr+offSlotListSize, uint32(len(list))); err != nil {
		return 0, err
	}
	return ptr, nil
}

func writeSlot(mem hermesffi.Memory, alloc hermesffi.Allocator, al *abi.AllocationList, base uint32, s *Slot, path []string) error {
	strs := [...]struct {
		name   string
		value  string
		offset uint32
	}{
		{"value", s.Value, offSlotValue},
		{"raw_value", s.RawValue, offSlotRawValue},
		{"entity", s.Entity, offSlotEntity},
		{"slot_name", s.SlotName, offSlotName},
	}
	for _, f := range strs {
		p, err := al.CString(mem, alloc, f.value, abi.MaxStringSize, append(path, f.name))
		if err != nil {
			return err
		}
		if err := mem.WriteU32(base+f.offset, p); err != nil {
			return err
		}
	}
	if err := mem.WriteU32(base+offSlotRangeStart, uint32(s.RangeStart)); err != nil {
		return err
	}
	return mem.WriteU32(base+offSlotRangeEnd, uint32(s.RangeEnd))
}
