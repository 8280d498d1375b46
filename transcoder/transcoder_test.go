package transcoder

import (
	"context"
	stderrors "errors"
	"reflect"
	"sync"
	"testing"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/internal/abi"
	"github.com/wippyai/hermes-ffi/memory"
	"github.com/wippyai/hermes-ffi/ontology"
)

func newTestTranscoder(t *testing.T, cfg *Config) (*Transcoder, *memory.Buffer, *memory.Heap) {
	t.Helper()
	buf := memory.NewBuffer(1 << 16)
	h := memory.NewHeap(buf, nil)
	return New(buf, h, cfg), buf, h
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

func isKind(err error, kind errors.Kind) bool {
	return stderrors.Is(err, &errors.Error{Kind: kind})
}

// fieldAddr returns the address of a top-level field of rec.
func fieldAddr(t *testing.T, rec *Record, name string) uint32 {
	t.Helper()
	f, ok := rec.Layout().Field(name)
	if !ok {
		t.Fatalf("layout %s has no field %q", rec.Layout().Name, name)
	}
	return rec.Addr() + f.Offset
}

func readString(t *testing.T, mem hermesffi.Memory, ptr uint32) string {
	t.Helper()
	s, err := abi.ReadCString(mem, ptr, abi.MaxStringSize, nil)
	if err != nil {
		t.Fatalf("ReadCString(%d): %v", ptr, err)
	}
	return s
}

func TestRoundTrip_Examples(t *testing.T) {
	for _, k := range hermes.Kinds() {
		if !Reversible(k) {
			continue
		}
		t.Run(k.String(), func(t *testing.T) {
			tc, _, h := newTestTranscoder(t, nil)
			msg := hermes.Example(k)

			rec, err := tc.Forward(msg)
			if err != nil {
				t.Fatalf("Forward: %v", err)
			}
			if rec.Kind() != k {
				t.Errorf("Kind = %v, want %v", rec.Kind(), k)
			}
			if rec.Addr() == 0 || rec.Addr()%rec.Layout().Align != 0 {
				t.Errorf("addr = %d, align %d", rec.Addr(), rec.Layout().Align)
			}

			got, err := tc.Reverse(rec)
			if err != nil {
				t.Fatalf("Reverse: %v", err)
			}
			if !reflect.DeepEqual(got, msg) {
				t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", got, msg)
			}

			if err := tc.Release(rec); err != nil {
				t.Fatalf("Release: %v", err)
			}
			assertClean(t, h)
		})
	}
}

func TestRoundTrip_Absent(t *testing.T) {
	tests := []hermes.Message{
		&hermes.SiteMessage{SiteID: "kitchen"},
		&hermes.TextCapturedMessage{Text: "", SiteID: "kitchen"},
		&hermes.NluQueryMessage{Input: "hi"},
		&hermes.NluQueryMessage{Input: "hi", IntentFilter: []string{}},
		&hermes.PlayBytesMessage{ID: "s", SiteID: "kitchen"},
		&hermes.AudioFrameMessage{SiteID: "kitchen"},
		&hermes.SayMessage{Text: "hello", SiteID: "kitchen"},
		&hermes.SayFinishedMessage{},
		&hermes.StartSessionMessage{Init: &hermes.SessionInitAction{}},
		&hermes.StartSessionMessage{Init: &hermes.SessionInitAction{IntentFilter: []string{}}},
		&hermes.StartSessionMessage{Init: &hermes.SessionInitNotification{Text: "Dinner is ready"}},
		&hermes.SessionStartedMessage{SessionID: "abc123", SiteID: "kitchen"},
		&hermes.ContinueSessionMessage{SessionID: "abc123", Text: "Which room?"},
		&hermes.EndSessionMessage{SessionID: "abc123"},
		&hermes.SessionEndedMessage{
			SessionID:   "abc123",
			Termination: hermes.SessionTermination{Reason: hermes.TerminationTimeout},
			SiteID:      "kitchen",
		},
		&hermes.VersionMessage{},
		&hermes.ErrorMessage{Error: "boom"},
	}

	for _, msg := range tests {
		t.Run(msg.Kind().String(), func(t *testing.T) {
			tc, _, h := newTestTranscoder(t, nil)
			rec, err := tc.Forward(msg)
			if err != nil {
				t.Fatalf("Forward: %v", err)
			}
			got, err := tc.Reverse(rec)
			if err != nil {
				t.Fatalf("Reverse: %v", err)
			}
			if !reflect.DeepEqual(got, msg) {
				t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", got, msg)
			}
			if err := tc.Release(rec); err != nil {
				t.Fatalf("Release: %v", err)
			}
			assertClean(t, h)
		})
	}
}

func TestForward_SiteMessage(t *testing.T) {
	tc, buf, h := newTestTranscoder(t, nil)

	rec, err := tc.Forward(&hermes.SiteMessage{SiteID: "kitchen", SessionID: hermes.Some("abc123")})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if rec.Size() != 8 {
		t.Errorf("Size = %d, want 8", rec.Size())
	}

	site, _ := buf.ReadU32(fieldAddr(t, rec, "site_id"))
	session, _ := buf.ReadU32(fieldAddr(t, rec, "session_id"))
	if s := readString(t, buf, site); s != "kitchen" {
		t.Errorf("site_id = %q", s)
	}
	if s := readString(t, buf, session); s != "abc123" {
		t.Errorf("session_id = %q", s)
	}
	if st := h.Stats(); st.LiveBlocks != 3 || st.LiveBytes != 8+8+7 {
		t.Errorf("stats after forward = %+v", st)
	}

	if err := tc.Release(rec); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if st := h.Stats(); st.Frees != 3 {
		t.Errorf("frees = %d, want 3", st.Frees)
	}
	assertClean(t, h)
}

func TestForward_NullFields(t *testing.T) {
	tc, buf, h := newTestTranscoder(t, nil)

	rec, err := tc.Forward(&hermes.SiteMessage{SiteID: "kitchen"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if p, _ := buf.ReadU32(fieldAddr(t, rec, "session_id")); p != 0 {
		t.Errorf("session_id = %#x, want null", p)
	}
	if n := h.Stats().LiveBlocks; n != 2 {
		t.Errorf("live blocks = %d, want 2", n)
	}
	if err := tc.Release(rec); err != nil {
		t.Fatal(err)
	}

	rec, err = tc.Forward(&hermes.PlayBytesMessage{ID: "s", WavBytes: []byte{}, SiteID: "kitchen"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	p, _ := buf.ReadU32(fieldAddr(t, rec, "wav_bytes"))
	n, _ := buf.ReadU32(fieldAddr(t, rec, "wav_bytes_len"))
	if p != 0 || n != 0 {
		t.Errorf("empty buffer stored as (%#x, %d), want (0, 0)", p, n)
	}
	got, err := tc.Reverse(rec)
	if err != nil {
		t.Fatal(err)
	}
	if b := got.(*hermes.PlayBytesMessage).WavBytes; b != nil {
		t.Errorf("WavBytes = %v, want nil", b)
	}
	if err := tc.Release(rec); err != nil {
		t.Fatal(err)
	}

	rec, err = tc.Forward(&hermes.NluQueryMessage{Input: "hi", IntentFilter: []string{}})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	arr, _ := buf.ReadU32(fieldAddr(t, rec, "intent_filter"))
	if arr == 0 {
		t.Fatal("empty intent filter stored as null")
	}
	data, _ := buf.ReadU32(arr)
	size, _ := buf.ReadU32(arr + 4)
	if data != 0 || size != 0 {
		t.Errorf("empty array = (%#x, %d), want (0, 0)", data, size)
	}
	if err := tc.Release(rec); err != nil {
		t.Fatal(err)
	}
	assertClean(t, h)
}

func TestForward_VersionLayout(t *testing.T) {
	tc, buf, h := newTestTranscoder(t, nil)
	rec, err := tc.Forward(&hermes.VersionMessage{Version: hermes.Version{Major: 1, Minor: 2, Patch: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Addr()%8 != 0 {
		t.Errorf("version record at %d is not 8-aligned", rec.Addr())
	}
	for i, want := range []uint64{1, 2, 3} {
		if got, _ := buf.ReadU64(rec.Addr() + uint32(i)*8); got != want {
			t.Errorf("word %d = %d, want %d", i, got, want)
		}
	}
	if err := tc.Release(rec); err != nil {
		t.Fatal(err)
	}
	assertClean(t, h)
}

func TestForward_RejectsAndRollsBack(t *testing.T) {
	badSlot := &ontology.Slot{RawValue: "a\x00b", Value: "v", Entity: "e", SlotName: "s"}

	tests := []struct {
		msg  hermes.Message
		name string
		kind errors.Kind
	}{
		{name: "nul in first field", msg: &hermes.SiteMessage{SiteID: "kit\x00chen"}, kind: errors.KindInvalidStringEncoding},
		{name: "nul in optional", msg: &hermes.SiteMessage{SiteID: "kitchen", SessionID: hermes.Some("a\x00")}, kind: errors.KindInvalidStringEncoding},
		{name: "invalid utf8", msg: &hermes.SayMessage{Text: "ok", SiteID: "\xff\xfe"}, kind: errors.KindInvalidStringEncoding},
		{
			name: "nul in intent filter",
			msg:  &hermes.NluQueryMessage{Input: "hi", IntentFilter: []string{"a", "b\x00"}, ID: hermes.Some("q")},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul in action text",
			msg: &hermes.StartSessionMessage{
				Init:   &hermes.SessionInitAction{Text: hermes.Some("x\x00"), IntentFilter: []string{"a"}},
				SiteID: hermes.Some("kitchen"),
			},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul in action filter",
			msg: &hermes.StartSessionMessage{
				Init:       &hermes.SessionInitAction{Text: hermes.Some("x"), IntentFilter: []string{"a", "\x00"}},
				CustomData: hermes.Some("ctx"),
			},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul in notification",
			msg:  &hermes.StartSessionMessage{Init: &hermes.SessionInitNotification{Text: "\x00"}},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul in termination error",
			msg: &hermes.SessionEndedMessage{
				SessionID:   "abc",
				CustomData:  hermes.Some("ctx"),
				Termination: hermes.SessionTermination{Reason: hermes.TerminationError, Error: "bad\x00"},
				SiteID:      "kitchen",
			},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul after termination",
			msg: &hermes.SessionEndedMessage{
				SessionID:   "abc",
				Termination: hermes.SessionTermination{Reason: hermes.TerminationError, Error: "bad"},
				SiteID:      "kit\x00chen",
			},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul in slot",
			msg:  &hermes.NluSlotMessage{ID: hermes.Some("q"), Input: "in", IntentName: "i", Slot: badSlot},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul after slot",
			msg: &hermes.NluSlotMessage{
				Input:      "in",
				IntentName: "i",
				Slot:       &ontology.Slot{RawValue: "r", Value: "v", Entity: "e", SlotName: "s"},
				SessionID:  hermes.Some("\x00"),
			},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul in slot list",
			msg: &hermes.IntentMessage{
				SessionID: "abc",
				SiteID:    "kitchen",
				Input:     "in",
				Intent:    ontology.IntentClassifierResult{IntentName: "i", Probability: 1},
				Slots:     ontology.SlotList{{RawValue: "r", Value: "v", Entity: "e", SlotName: "s"}, *badSlot},
			},
			kind: errors.KindInvalidStringEncoding,
		},
		{
			name: "nul after slot list",
			msg: &hermes.NluIntentMessage{
				Input:     "in",
				Intent:    ontology.IntentClassifierResult{IntentName: "i"},
				Slots:     ontology.SlotList{{RawValue: "r", Value: "v", Entity: "e", SlotName: "s"}},
				SessionID: hermes.Some("x\x00"),
			},
			kind: errors.KindInvalidStringEncoding,
		},
		{name: "missing init", msg: &hermes.StartSessionMessage{SiteID: hermes.Some("kitchen")}, kind: errors.KindInvalidData},
		{name: "typed nil init", msg: &hermes.StartSessionMessage{Init: (*hermes.SessionInitAction)(nil)}, kind: errors.KindInvalidData},
		{
			name: "zero termination",
			msg:  &hermes.SessionEndedMessage{SessionID: "abc", CustomData: hermes.Some("ctx"), SiteID: "kitchen"},
			kind: errors.KindInvalidEnum,
		},
		{
			name: "unknown termination",
			msg: &hermes.SessionEndedMessage{
				SessionID:   "abc",
				Termination: hermes.SessionTermination{Reason: 7},
				SiteID:      "kitchen",
			},
			kind: errors.KindInvalidEnum,
		},
		{
			name: "message on non-error termination",
			msg: &hermes.SessionEndedMessage{
				SessionID:   "abc",
				CustomData:  hermes.Some("ctx"),
				Termination: hermes.SessionTermination{Reason: hermes.TerminationTimeout, Error: "lost"},
				SiteID:      "kitchen",
			},
			kind: errors.KindInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, _, h := newTestTranscoder(t, nil)
			rec, err := tc.Forward(tt.msg)
			if err == nil {
				tc.Release(rec)
				t.Fatal("expected error")
			}
			if !isKind(err, tt.kind) {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
			if st := h.Stats(); st.Allocs == 0 {
				t.Error("nothing was allocated before the failure")
			}
			assertClean(t, h)
		})
	}
}

func TestForward_Limits(t *testing.T) {
	tests := []struct {
		cfg  *Config
		msg  hermes.Message
		name string
	}{
		{
			name: "string",
			cfg:  &Config{MaxStringSize: 4},
			msg:  &hermes.SiteMessage{SiteID: "kit", SessionID: hermes.Some("abc123")},
		},
		{
			name: "buffer",
			cfg:  &Config{MaxBufferSize: 2},
			msg:  &hermes.AudioFrameMessage{WavFrame: []byte{1, 2, 3}, SiteID: "kitchen"},
		},
		{
			name: "array",
			cfg:  &Config{MaxArrayLength: 1},
			msg:  &hermes.ContinueSessionMessage{SessionID: "a", Text: "b", IntentFilter: []string{"x", "y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, _, h := newTestTranscoder(t, tt.cfg)
			_, err := tc.Forward(tt.msg)
			if !isKind(err, errors.KindOverflow) {
				t.Errorf("error = %v, want overflow", err)
			}
			assertClean(t, h)
		})
	}
}

// failingAllocator lets n allocations through and fails the rest.
type failingAllocator struct {
	*memory.Heap
	n int
}

func (a *failingAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.n == 0 {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, align, nil)
	}
	a.n--
	return a.Heap.Alloc(size, align)
}

func TestForward_AllocationFailureAtEveryStep(t *testing.T) {
	for _, k := range hermes.Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			msg := hermes.Example(k)
			for n := 0; ; n++ {
				buf := memory.NewBuffer(1 << 16)
				h := memory.NewHeap(buf, nil)
				tc := New(buf, &failingAllocator{Heap: h, n: n}, nil)

				rec, err := tc.Forward(msg)
				if err == nil {
					if n == 0 {
						t.Fatal("forward succeeded without allocating")
					}
					if err := tc.Release(rec); err != nil {
						t.Fatalf("Release: %v", err)
					}
					assertClean(t, h)
					return
				}
				if !isKind(err, errors.KindAllocation) {
					t.Fatalf("step %d: error = %v, want allocation failure", n, err)
				}
				assertClean(t, h)
				if n > 64 {
					t.Fatal("forward never succeeded")
				}
			}
		})
	}
}

func TestForward_Nil(t *testing.T) {
	tc, _, _ := newTestTranscoder(t, nil)
	for _, msg := range []hermes.Message{nil, (*hermes.SiteMessage)(nil)} {
		if _, err := tc.Forward(msg); !isKind(err, errors.KindNilPointer) {
			t.Errorf("Forward(%#v) error = %v, want nil pointer", msg, err)
		}
	}
	if _, err := tc.Reverse(nil); !isKind(err, errors.KindNilPointer) {
		t.Errorf("Reverse(nil) error = %v", err)
	}
	if err := tc.Release(nil); !isKind(err, errors.KindNilPointer) {
		t.Errorf("Release(nil) error = %v", err)
	}
}

func TestReverse_IntentFamilyUnsupported(t *testing.T) {
	for _, k := range []hermes.Kind{hermes.KindNluSlot, hermes.KindNluIntent, hermes.KindIntent} {
		t.Run(k.String(), func(t *testing.T) {
			tc, _, h := newTestTranscoder(t, nil)
			rec, err := tc.Forward(hermes.Example(k))
			if err != nil {
				t.Fatalf("Forward: %v", err)
			}

			_, err = tc.Reverse(rec)
			if !stderrors.Is(err, errors.ErrUnsupportedReverseConversion) {
				t.Errorf("Reverse error = %v, want unsupported reverse", err)
			}
			if _, err := tc.ReverseAt(k, rec.Addr()); !stderrors.Is(err, errors.ErrUnsupportedReverseConversion) {
				t.Errorf("ReverseAt error = %v, want unsupported reverse", err)
			}
			if rec.Released() {
				t.Error("failed reverse released the record")
			}

			if err := tc.Release(rec); err != nil {
				t.Fatalf("Release: %v", err)
			}
			assertClean(t, h)

			if _, err := tc.Reverse(rec); !stderrors.Is(err, errors.ErrUnsupportedReverseConversion) {
				t.Errorf("Reverse after release = %v, want unsupported reverse", err)
			}
		})
	}
}

func TestRelease_Twice(t *testing.T) {
	tc, _, h := newTestTranscoder(t, nil)
	rec, err := tc.Forward(hermes.Example(hermes.KindSessionEnded))
	if err != nil {
		t.Fatal(err)
	}
	if err := tc.Release(rec); err != nil {
		t.Fatal(err)
	}
	frees := h.Stats().Frees

	if err := tc.Release(rec); !stderrors.Is(err, errors.ErrReleased) {
		t.Errorf("second Release = %v, want released", err)
	}
	if _, err := tc.Reverse(rec); !stderrors.Is(err, errors.ErrReleased) {
		t.Errorf("Reverse after release = %v, want released", err)
	}
	if h.Stats().Frees != frees {
		t.Error("second release freed memory")
	}
	assertClean(t, h)
}

func TestRelease_Concurrent(t *testing.T) {
	tc, _, h := newTestTranscoder(t, nil)
	rec, err := tc.Forward(hermes.Example(hermes.KindStartSession))
	if err != nil {
		t.Fatal(err)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tc.Release(rec) == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if oks != 1 {
		t.Errorf("%d releases succeeded, want 1", oks)
	}
	assertClean(t, h)
}

func TestReverseAt(t *testing.T) {
	tc, _, h := newTestTranscoder(t, nil)
	msg := hermes.Example(hermes.KindSay)
	rec, err := tc.Forward(msg)
	if err != nil {
		t.Fatal(err)
	}

	got, err := tc.ReverseAt(hermes.KindSay, rec.Addr())
	if err != nil {
		t.Fatalf("ReverseAt: %v", err)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Errorf("ReverseAt = %#v", got)
	}
	if _, err := tc.ReverseAt(hermes.KindSay, 0); !stderrors.Is(err, errors.ErrMalformedForeignInput) {
		t.Errorf("ReverseAt(0) = %v, want malformed", err)
	}
	if _, err := tc.ReverseAt(hermes.Kind(0), rec.Addr()); !isKind(err, errors.KindUnsupported) {
		t.Errorf("ReverseAt(kind 0) = %v, want unsupported", err)
	}

	if err := tc.Release(rec); err != nil {
		t.Fatal(err)
	}
	assertClean(t, h)
}

func TestAdopt(t *testing.T) {
	tc, _, h := newTestTranscoder(t, nil)
	built, err := tc.Forward(hermes.Example(hermes.KindContinueSession))
	if err != nil {
		t.Fatal(err)
	}

	rec, err := tc.Adopt(hermes.KindContinueSession, built.Addr())
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if rec.Released() || rec.Size() != built.Size() {
		t.Errorf("adopted record = %+v", rec)
	}
	if err := tc.Release(rec); err != nil {
		t.Fatalf("Release: %v", err)
	}
	assertClean(t, h)

	if _, err := tc.Adopt(hermes.KindSite, 0); !stderrors.Is(err, errors.ErrMalformedForeignInput) {
		t.Errorf("Adopt(0) = %v, want malformed", err)
	}
	if _, err := tc.Adopt(hermes.Kind(99), 64); !isKind(err, errors.KindUnsupported) {
		t.Errorf("Adopt(kind 99) = %v, want unsupported", err)
	}
}

func TestTranscoder_Guest(t *testing.T) {
	ctx := context.Background()
	g, err := memory.NewGuest(ctx, &memory.GuestConfig{Pages: 2})
	if err != nil {
		t.Fatalf("NewGuest: %v", err)
	}
	defer g.Close(ctx)

	tc := New(g.Memory, g.Allocator, nil)
	for _, k := range hermes.Kinds() {
		msg := hermes.Example(k)
		rec, err := tc.Forward(msg)
		if err != nil {
			t.Fatalf("%s: Forward: %v", k, err)
		}
		if Reversible(k) {
			got, err := tc.Reverse(rec)
			if err != nil {
				t.Fatalf("%s: Reverse: %v", k, err)
			}
			if !reflect.DeepEqual(got, msg) {
				t.Errorf("%s: round trip mismatch", k)
			}
		}
		if err := tc.Release(rec); err != nil {
			t.Fatalf("%s: Release: %v", k, err)
		}
	}
	assertClean(t, g.Heap)
}
