package transcoder

import (
	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/ontology"
)

type releaseFunc func(hermesffi.Memory, hermesffi.Allocator, uint32) error

// opaqueReleasers maps ontology type names to the routine that owns
// their foreign teardown.
var opaqueReleasers = map[string]releaseFunc{
	opaqueIntentClassifierResult: ontology.ReleaseIntentClassifierResult,
	opaqueSlot:                   ontology.ReleaseSlot,
	opaqueSlotList:               ontology.ReleaseSlotList,
}

func opaqueReleaser(name string) (releaseFunc, error) {
	fn, ok := opaqueReleasers[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRelease, "opaque release routine", name)
	}
	return fn, nil
}

func lowerIntent(r *ontology.IntentClassifierResult) func(hermesffi.Memory, hermesffi.Allocator) (uint32, error) {
	return func(mem hermesffi.Memory, alloc hermesffi.Allocator) (uint32, error) {
		return ontology.LowerIntentClassifierResult(mem, alloc, r)
	}
}

func lowerSlot(s *ontology.Slot) func(hermesffi.Memory, hermesffi.Allocator) (uint32, error) {
	return func(mem hermesffi.Memory, alloc hermesffi.Allocator) (uint32, error) {
		return ontology.LowerSlot(mem, alloc, s)
	}
}

func lowerSlotList(list ontology.SlotList) func(hermesffi.Memory, hermesffi.Allocator) (uint32, error) {
	return func(mem hermesffi.Memory, alloc hermesffi.Allocator) (uint32, error) {
		return ontology.LowerSlotList(mem, alloc, list)
	}
}
