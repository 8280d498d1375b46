package hermes

import (
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/hermes-ffi/errors"
)

func TestKinds(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 22 {
		t.Fatalf("len(Kinds()) = %d, want 22", len(kinds))
	}
	seen := make(map[string]bool)
	for _, k := range kinds {
		name := k.String()
		if seen[name] {
			t.Errorf("duplicate kind name %q", name)
		}
		seen[name] = true

		parsed, err := ParseKind(name)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", name, err)
		}
		if parsed != k {
			t.Errorf("ParseKind(%q) = %v, want %v", name, parsed, k)
		}

		msg, err := New(k)
		if err != nil {
			t.Fatalf("New(%v): %v", k, err)
		}
		if msg.Kind() != k {
			t.Errorf("New(%v).Kind() = %v", k, msg.Kind())
		}
		if ex := Example(k); ex == nil || ex.Kind() != k {
			t.Errorf("Example(%v) = %v", k, ex)
		}
	}
}

func TestKind_Invalid(t *testing.T) {
	if Kind(0).Valid() || Kind(200).Valid() {
		t.Error("out-of-range kind reported valid")
	}
	if Kind(0).String() != "unknown" {
		t.Errorf("Kind(0).String() = %q", Kind(0).String())
	}
	if _, err := New(Kind(0)); err == nil {
		t.Error("New(0) should fail")
	}
	if _, err := ParseKind("nope"); err == nil {
		t.Error("ParseKind(nope) should fail")
	}
	if Example(Kind(99)) != nil {
		t.Error("Example(99) should be nil")
	}
}

func TestTerminationReason_Text(t *testing.T) {
	for r := TerminationNominal; r <= TerminationError; r++ {
		text, err := r.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", r, err)
		}
		var back TerminationReason
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if back != r {
			t.Errorf("round trip %d -> %s -> %d", r, text, back)
		}
	}

	if _, err := TerminationReason(7).MarshalText(); err == nil {
		t.Error("reason 7 should not marshal")
	}
	var r TerminationReason
	if err := r.UnmarshalText([]byte("exploded")); err == nil {
		t.Error("unknown reason should not unmarshal")
	}
}

func TestSessionInit_Types(t *testing.T) {
	var a SessionInit = &SessionInitAction{}
	var n SessionInit = &SessionInitNotification{Text: "hi"}
	if a.InitType() != InitAction || n.InitType() != InitNotification {
		t.Error("unexpected init discriminants")
	}
	if InitType(9).String() != "unknown" {
		t.Error("unexpected name for unknown init type")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatCBOR} {
		for _, k := range Kinds() {
			t.Run(string(format)+"/"+k.String(), func(t *testing.T) {
				msg := Example(k)
				data, err := Marshal(format, msg)
				if err != nil {
					t.Fatalf("Marshal: %v", err)
				}
				got, err := Unmarshal(format, data)
				if err != nil {
					t.Fatalf("Unmarshal: %v", err)
				}
				if !reflect.DeepEqual(got, msg) {
					t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, msg)
				}
			})
		}
	}
}

func TestCodec_PreservesAbsence(t *testing.T) {
	tests := []Message{
		&SiteMessage{SiteID: "kitchen"},
		&NluQueryMessage{Input: "x"},
		&NluQueryMessage{Input: "x", IntentFilter: []string{}},
		&SayFinishedMessage{},
		&StartSessionMessage{Init: &SessionInitNotification{Text: "ding"}},
		&StartSessionMessage{Init: &SessionInitAction{}},
		&SessionEndedMessage{SessionID: "s", SiteID: "x", Termination: SessionTermination{Reason: TerminationTimeout}},
	}
	for _, format := range []Format{FormatJSON, FormatCBOR} {
		for _, msg := range tests {
			data, err := Marshal(format, msg)
			if err != nil {
				t.Fatalf("%s %v: Marshal: %v", format, msg.Kind(), err)
			}
			got, err := Unmarshal(format, data)
			if err != nil {
				t.Fatalf("%s %v: Unmarshal: %v", format, msg.Kind(), err)
			}
			if !reflect.DeepEqual(got, msg) {
				t.Errorf("%s: got %#v, want %#v", format, got, msg)
			}
		}
	}
}

func TestCodec_JSONShape(t *testing.T) {
	data, err := Marshal(FormatJSON, &SiteMessage{SiteID: "kitchen", SessionID: Some("abc123")})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"kind":"site","message":{"siteId":"kitchen","sessionId":"abc123"}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	data, err = Marshal(FormatJSON, &StartSessionMessage{Init: &SessionInitNotification{Text: "ding"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"init":{"type":"notification","text":"ding"`) {
		t.Errorf("unexpected start session shape: %s", data)
	}
}

func TestCodec_CBORDeterministic(t *testing.T) {
	msg := Example(KindSessionEnded)
	first, err := Marshal(FormatCBOR, msg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Marshal(FormatCBOR, msg)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("non-deterministic encoding: %x != %x", first, second)
	}
}

func TestCodec_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		kind   errors.Kind
	}{
		{"unknown kind", FormatJSON, `{"kind":"teleport","message":{}}`, errors.KindInvalidData},
		{"missing kind", FormatJSON, `{"message":{}}`, errors.KindInvalidEnum},
		{"missing message", FormatJSON, `{"kind":"site"}`, errors.KindInvalidData},
		{"missing init", FormatJSON, `{"kind":"start_session","message":{"siteId":"x"}}`, errors.KindInvalidData},
		{"bad init type", FormatJSON, `{"kind":"start_session","message":{"init":{"type":"shout"}}}`, errors.KindInvalidData},
		{"notification without text", FormatJSON, `{"kind":"start_session","message":{"init":{"type":"notification"}}}`, errors.KindInvalidData},
		{"bad reason", FormatJSON, `{"kind":"session_ended","message":{"termination":{"reason":"meltdown"}}}`, errors.KindInvalidData},
		{"not json", FormatJSON, `{`, errors.KindInvalidData},
		{"not cbor", FormatCBOR, "\xff\xff", errors.KindInvalidData},
		{"unknown format", Format("xml"), `<site/>`, errors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.format, []byte(tt.data))
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", e.Kind, tt.kind, err)
			}
		})
	}
}

func TestMarshal_Errors(t *testing.T) {
	if _, err := Marshal(FormatJSON, nil); err == nil {
		t.Error("nil message should fail")
	}
	if _, err := Marshal(FormatJSON, &StartSessionMessage{}); err == nil {
		t.Error("start session without init should fail")
	}
	if _, err := Marshal(Format("xml"), &SiteMessage{}); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "cbor"} {
		if f, err := ParseFormat(name); err != nil || string(f) != name {
			t.Errorf("ParseFormat(%q) = %q, %v", name, f, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat(yaml) should fail")
	}
}
