package ontology

import (
	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/internal/abi"
)

// ReleaseIntentClassifierResult frees a structure built by
// LowerIntentClassifierResult. A null ptr is a no-op.
func ReleaseIntentClassifierResult(mem hermesffi.Memory, alloc hermesffi.Allocator, ptr uint32) error {
	if ptr == 0 {
		return nil
	}
	name, err := mem.ReadU32(ptr + offIntentName)
	if err != nil {
		return err
	}
	if err := abi.FreeCString(mem, alloc, name, abi.MaxStringSize, []string{"intent", "intent_name"}); err != nil {
		return err
	}
	alloc.Free(ptr, IntentClassifierResultSize, IntentClassifierResultAlign)
	return nil
}

// ReleaseSlot frees a structure built by LowerSlot. A null ptr is a no-op.
func ReleaseSlot(mem hermesffi.Memory, alloc hermesffi.Allocator, ptr uint32) error {
	if ptr == 0 {
		return nil
	}
	if err := releaseSlotFields(mem, alloc, ptr, []string{"slot"}); err != nil {
		return err
	}
	alloc.Free(ptr, SlotSize, SlotAlign)
	return nil
}

// ReleaseSlotList frees a structure built by LowerSlotList. A null ptr is a no-op.
func ReleaseSlotList(mem hermesffi.Memory, alloc hermesffi.Allocator, ptr uint32) error {
	if ptr == 0 {
		return nil
	}
	path := []string{"slots"}
	data, err := mem.ReadU32(ptr + offSlotListData)
	if err != nil {
		return err
	}
	size, err := mem.ReadU32(ptr + offSlotListSize)
	if err != nil {
		return err
	}
	if int32(size) < 0 || size > abi.MaxArrayLength {
		return errors.Malformed(errors.PhaseRelease, path, "slot list size out of range")
	}
	if data == 0 && size != 0 {
		return errors.Malformed(errors.PhaseRelease, path, "null slot data with non-zero size")
	}

	if data != 0 {
		for i := uint32(0); i < size; i++ {
			if err := releaseSlotFields(mem, alloc, data+i*SlotSize, path); err != nil {
				return err
			}
		}
		if size > 0 {
			alloc.Free(data, size*SlotSize, SlotAlign)
		}
	}
	alloc.Free(ptr, SlotListSize, SlotListAlign)
	return nil
}

func releaseSlotFields(mem hermesffi.Memory, alloc hermesffi.Allocator, base uint32, path []string) error {
	for _, off := range [...]uint32{offSlotValue, offSlotRawValue, offSlotEntity, offSlotName} {
		p, err := mem.ReadU32(base + off)
		if err != nil {
			return err
		}
		if err := abi.FreeCString(mem, alloc, p, abi.MaxStringSize, path); err != nil {
			return err
		}
	}
	return nil
}
