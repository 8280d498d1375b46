package transcoder

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/memory"
)

// poke32 overwrites a word and returns a func restoring it.
func poke32(t *testing.T, buf *memory.Buffer, addr, v uint32) func() {
	t.Helper()
	old, err := buf.ReadU32(addr)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.WriteU32(addr, v); err != nil {
		t.Fatal(err)
	}
	return func() { _ = buf.WriteU32(addr, old) }
}

func poke8(t *testing.T, buf *memory.Buffer, addr uint32, v uint8) func() {
	t.Helper()
	old, err := buf.ReadU8(addr)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.WriteU8(addr, v); err != nil {
		t.Fatal(err)
	}
	return func() { _ = buf.WriteU8(addr, old) }
}

func word(t *testing.T, buf *memory.Buffer, addr uint32) uint32 {
	t.Helper()
	v, err := buf.ReadU32(addr)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// initValueAddr returns the address of the union payload pointer inside
// the inline session init of a start-session record.
func initValueAddr(t *testing.T, rec *Record) uint32 {
	t.Helper()
	f, _ := sessionInitLayout.Field("value")
	return fieldAddr(t, rec, "init") + f.Offset
}

func terminationAddr(t *testing.T, rec *Record, name string) uint32 {
	t.Helper()
	f, _ := sessionTerminationLayout.Field(name)
	return fieldAddr(t, rec, "termination") + f.Offset
}

func TestReverse_Malformed(t *testing.T) {
	nominal := &hermes.SessionEndedMessage{
		SessionID:   "abc123",
		Termination: hermes.SessionTermination{Reason: hermes.TerminationNominal},
		SiteID:      "kitchen",
	}
	notification := &hermes.StartSessionMessage{Init: &hermes.SessionInitNotification{Text: "Dinner is ready"}}

	tests := []struct {
		msg     hermes.Message
		corrupt func(t *testing.T, buf *memory.Buffer, rec *Record) func()
		name    string
	}{
		{
			name: "null required string",
			msg:  hermes.Example(hermes.KindSite),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke32(t, buf, fieldAddr(t, rec, "site_id"), 0)
			},
		},
		{
			name: "invalid utf8",
			msg:  hermes.Example(hermes.KindSite),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke8(t, buf, word(t, buf, fieldAddr(t, rec, "site_id")), 0xff)
			},
		},
		{
			name: "null buffer with length",
			msg:  hermes.Example(hermes.KindPlayBytes),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke32(t, buf, fieldAddr(t, rec, "wav_bytes"), 0)
			},
		},
		{
			name: "null array entry",
			msg:  hermes.Example(hermes.KindNluQuery),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				arr := word(t, buf, fieldAddr(t, rec, "intent_filter"))
				return poke32(t, buf, word(t, buf, arr)+4, 0)
			},
		},
		{
			name: "null array data",
			msg:  hermes.Example(hermes.KindContinueSession),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				arr := word(t, buf, fieldAddr(t, rec, "intent_filter"))
				return poke32(t, buf, arr, 0)
			},
		},
		{
			name: "boolean byte 2",
			msg:  hermes.Example(hermes.KindStartSession),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				f, _ := actionSessionInitLayout.Field("can_be_enqueued")
				return poke8(t, buf, word(t, buf, initValueAddr(t, rec))+f.Offset, 2)
			},
		},
		{
			name: "init type 3",
			msg:  hermes.Example(hermes.KindStartSession),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke32(t, buf, fieldAddr(t, rec, "init"), 3)
			},
		},
		{
			name: "null notification",
			msg:  notification,
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke32(t, buf, initValueAddr(t, rec), 0)
			},
		},
		{
			name: "termination type 0",
			msg:  hermes.Example(hermes.KindSessionEnded),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke32(t, buf, terminationAddr(t, rec, "termination_type"), 0)
			},
		},
		{
			name: "termination type 7",
			msg:  hermes.Example(hermes.KindSessionEnded),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke32(t, buf, terminationAddr(t, rec, "termination_type"), 7)
			},
		},
		{
			name: "error termination without data",
			msg:  hermes.Example(hermes.KindSessionEnded),
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				return poke32(t, buf, terminationAddr(t, rec, "data"), 0)
			},
		},
		{
			name: "nominal termination with data",
			msg:  nominal,
			corrupt: func(t *testing.T, buf *memory.Buffer, rec *Record) func() {
				site := word(t, buf, fieldAddr(t, rec, "site_id"))
				return poke32(t, buf, terminationAddr(t, rec, "data"), site)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, buf, h := newTestTranscoder(t, nil)
			rec, err := tc.Forward(tt.msg)
			if err != nil {
				t.Fatalf("Forward: %v", err)
			}

			restore := tt.corrupt(t, buf, rec)
			got, err := tc.Reverse(rec)
			if !stderrors.Is(err, errors.ErrMalformedForeignInput) {
				t.Errorf("Reverse = (%#v, %v), want malformed input", got, err)
			}
			if got != nil {
				t.Errorf("Reverse returned a partial message: %#v", got)
			}
			restore()

			if err := tc.Release(rec); err != nil {
				t.Fatalf("Release: %v", err)
			}
			assertClean(t, h)
		})
	}
}

func TestReverse_OversizedBuffer(t *testing.T) {
	tc, buf, h := newTestTranscoder(t, &Config{MaxBufferSize: 4})
	rec, err := tc.Forward(&hermes.AudioFrameMessage{WavFrame: []byte{1, 2}, SiteID: "kitchen"})
	if err != nil {
		t.Fatal(err)
	}

	restore := poke32(t, buf, fieldAddr(t, rec, "wav_frame_len"), 1<<20)
	if _, err := tc.Reverse(rec); !isKind(err, errors.KindOverflow) {
		t.Errorf("Reverse = %v, want overflow", err)
	}
	restore()

	got, err := tc.Reverse(rec)
	if err != nil {
		t.Fatal(err)
	}
	frame := got.(*hermes.AudioFrameMessage).WavFrame
	if string(frame) != "\x01\x02" {
		t.Errorf("WavFrame = %v", frame)
	}

	// the copy must not alias linear memory
	frame[0] = 9
	if b, _ := buf.ReadU8(word(t, buf, fieldAddr(t, rec, "wav_frame"))); b != 1 {
		t.Errorf("memory changed through the reversed buffer: %d", b)
	}

	if err := tc.Release(rec); err != nil {
		t.Fatal(err)
	}
	assertClean(t, h)
}
