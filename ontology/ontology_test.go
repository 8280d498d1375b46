package ontology

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/internal/abi"
	"github.com/wippyai/hermes-ffi/memory"
)

func newHeap(t *testing.T, size uint32) (*memory.Buffer, *memory.Heap) {
	t.Helper()
	buf := memory.NewBuffer(size)
	return buf, memory.NewHeap(buf, nil)
}

func assertClean(t *testing.T, h *memory.Heap) {
	t.Helper()
	st := h.Stats()
	if st.LiveBlocks != 0 {
		t.Errorf("live blocks = %d, want 0 (%v)", st.LiveBlocks, h.Live())
	}
	if st.Faults != 0 {
		t.Errorf("heap faults = %d, want 0", st.Faults)
	}
}

func TestIntentClassifierResult_LowerRelease(t *testing.T) {
	buf, h := newHeap(t, 4096)

	ptr, err := LowerIntentClassifierResult(buf, h, &IntentClassifierResult{
		IntentName:  "turnOnLights",
		Probability: 0.87,
	})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if ptr%IntentClassifierResultAlign != 0 {
		t.Errorf("ptr %d not aligned", ptr)
	}

	namePtr, _ := buf.ReadU32(ptr + offIntentName)
	name, err := abi.ReadCString(buf, namePtr, abi.MaxStringSize, nil)
	if err != nil {
		t.Fatalf("ReadCString: %v", err)
	}
	if name != "turnOnLights" {
		t.Errorf("intent_name = %q", name)
	}
	bits, _ := buf.ReadU32(ptr + offProbability)
	if got := math.Float32frombits(bits); got != 0.87 {
		t.Errorf("probability = %v", got)
	}
	if n := h.Stats().LiveBlocks; n != 2 {
		t.Errorf("live blocks = %d, want 2", n)
	}

	if err := ReleaseIntentClassifierResult(buf, h, ptr); err != nil {
		t.Fatalf("Release: %v", err)
	}
	assertClean(t, h)
}

func TestIntentClassifierResult_Nil(t *testing.T) {
	buf, h := newHeap(t, 1024)
	_, err := LowerIntentClassifierResult(buf, h, nil)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindNilPointer {
		t.Fatalf("expected nil pointer error, got %v", err)
	}
}

func TestSlot_LowerRelease(t *testing.T) {
	buf, h := newHeap(t, 4096)

	s := Slot{
		RawValue:   "living room",
		Value:      "livingroom",
		Entity:     "room",
		SlotName:   "location",
		RangeStart: 18,
		RangeEnd:   29,
	}
	ptr, err := LowerSlot(buf, h, &s)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	want := map[uint32]string{
		offSlotValue:    "livingroom",
		offSlotRawValue: "living room",
		offSlotEntity:   "room",
		offSlotName:     "location",
	}
	for off, w := range want {
		p, _ := buf.ReadU32(ptr + off)
		got, err := abi.ReadCString(buf, p, abi.MaxStringSize, nil)
		if err != nil {
			t.Fatalf("offset %d: %v", off, err)
		}
		if got != w {
			t.Errorf("offset %d = %q, want %q", off, got, w)
		}
	}
	start, _ := buf.ReadU32(ptr + offSlotRangeStart)
	end, _ := buf.ReadU32(ptr + offSlotRangeEnd)
	if int32(start) != 18 || int32(end) != 29 {
		t.Errorf("range = %d..%d", int32(start), int32(end))
	}

	if err := ReleaseSlot(buf, h, ptr); err != nil {
		t.Fatalf("Release: %v", err)
	}
	assertClean(t, h)
}

func TestSlot_RejectsEmbeddedNul(t *testing.T) {
	buf, h := newHeap(t, 4096)

	_, err := LowerSlot(buf, h, &Slot{Value: "ok", RawValue: "ok", Entity: "bad\x00", SlotName: "x"})
	if !stderrors.Is(err, errors.ErrInvalidStringEncoding) {
		t.Fatalf("expected invalid string encoding, got %v", err)
	}
	assertClean(t, h)
}

func TestSlotList_LowerRelease(t *testing.T) {
	tests := []struct {
		name  string
		list  SlotList
		live  int
		empty bool
	}{
		{name: "empty", list: SlotList{}, live: 1, empty: true},
		{name: "one", list: SlotList{{Value: "a", RawValue: "a", Entity: "e", SlotName: "s"}}, live: 6},
		{
			name: "three",
			list: SlotList{
				{Value: "a", RawValue: "A", Entity: "e", SlotName: "s1", RangeStart: 0, RangeEnd: 1},
				{Value: "b", RawValue: "B", Entity: "e", SlotName: "s2", RangeStart: 2, RangeEnd: 3},
				{Value: "", RawValue: "", Entity: "", SlotName: "", RangeStart: -1, RangeEnd: -1},
			},
			live: 14,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, h := newHeap(t, 8192)

			ptr, err := LowerSlotList(buf, h, tt.list)
			if err != nil {
				t.Fatalf("Lower: %v", err)
			}
			if n := h.Stats().LiveBlocks; n != tt.live {
				t.Errorf("live blocks = %d, want %d", n, tt.live)
			}

			data, _ := buf.ReadU32(ptr + offSlotListData)
			size, _ := buf.ReadU32(ptr + offSlotListSize)
			if int(size) != len(tt.list) {
				t.Errorf("size = %d, want %d", size, len(tt.list))
			}
			if tt.empty != (data == 0) {
				t.Errorf("data = %d, empty = %v", data, tt.empty)
			}

			if err := ReleaseSlotList(buf, h, ptr); err != nil {
				t.Fatalf("Release: %v", err)
			}
			assertClean(t, h)
		})
	}
}

func TestSlotList_RollbackOnFailure(t *testing.T) {
	buf, h := newHeap(t, 8192)

	list := SlotList{
		{Value: "a", RawValue: "a", Entity: "e", SlotName: "s"},
		{Value: "b", RawValue: "\xff", Entity: "e", SlotName: "s"},
	}
	_, err := LowerSlotList(buf, h, list)
	if !stderrors.Is(err, errors.ErrInvalidStringEncoding) {
		t.Fatalf("expected invalid string encoding, got %v", err)
	}
	assertClean(t, h)
}

func TestSlotList_AllocationFailureRollsBack(t *testing.T) {
	// room for the list header and array but not every string
	buf := memory.NewBuffer(128)
	h := memory.NewHeap(buf, &memory.HeapConfig{Limit: 96})

	list := SlotList{
		{Value: "aaaaaaaaaaaaaaaa", RawValue: "bbbbbbbbbbbbbbbb", Entity: "cccccccccccccccc", SlotName: "dddddddddddddddd"},
	}
	_, err := LowerSlotList(buf, h, list)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindAllocation {
		t.Fatalf("expected allocation error, got %v", err)
	}
	assertClean(t, h)
}

func TestRelease_NullIsNoop(t *testing.T) {
	buf, h := newHeap(t, 256)
	if err := ReleaseIntentClassifierResult(buf, h, 0); err != nil {
		t.Error(err)
	}
	if err := ReleaseSlot(buf, h, 0); err != nil {
		t.Error(err)
	}
	if err := ReleaseSlotList(buf, h, 0); err != nil {
		t.Error(err)
	}
	assertClean(t, h)
}

func TestReleaseSlotList_MalformedSize(t *testing.T) {
	buf, h := newHeap(t, 1024)

	ptr, err := h.Alloc(SlotListSize, SlotListAlign)
	if err != nil {
		t.Fatal(err)
	}
	_ = buf.WriteU32(ptr+offSlotListData, 0)
	_ = buf.WriteU32(ptr+offSlotListSize, 3)

	err = ReleaseSlotList(buf, h, ptr)
	if !stderrors.Is(err, errors.ErrMalformedForeignInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}
