package transcoder

import (
	"math"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/internal/abi"
	"github.com/wippyai/hermes-ffi/transcoder/layout"
)

// encoder carries one forward conversion. Every block it allocates is
// staged in al; the first error sticks and later writes become no-ops.
type encoder struct {
	mem   hermesffi.Memory
	alloc hermesffi.Allocator
	al    *abi.AllocationList
	err   error
	cfg   *Config
}

// recordWriter writes the fields of one record instance at base.
type recordWriter struct {
	enc  *encoder
	rec  *layout.Record
	path []string
	base uint32
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// block allocates a zeroed instance of rec and returns a writer for it.
func (e *encoder) block(rec *layout.Record, path []string) (recordWriter, uint32) {
	w := recordWriter{enc: e, rec: rec, path: path}
	if e.err != nil {
		return w, 0
	}
	ptr, err := e.al.Alloc(e.alloc, rec.Size, rec.Align, path)
	if err != nil {
		e.fail(err)
		return w, 0
	}
	if err := e.mem.Write(ptr, make([]byte, rec.Size)); err != nil {
		e.fail(err)
		return w, 0
	}
	w.base = ptr
	return w, ptr
}

func (w recordWriter) fieldPath(name string) []string {
	p := make([]string, len(w.path), len(w.path)+1)
	copy(p, w.path)
	return append(p, name)
}

// field resolves name and checks its shape. A mismatch means the writer
// and the layout table disagree.
func (w recordWriter) field(name string, shape layout.Shape) (*layout.Field, bool) {
	if w.enc.err != nil {
		return nil, false
	}
	f, ok := w.rec.Field(name)
	if !ok || f.Shape != shape {
		w.enc.fail(errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Path(w.fieldPath(name)...).
			Detail("layout %s has no %s field %q", w.rec.Name, shape, name).
			Build())
		return nil, false
	}
	return f, true
}

func (w recordWriter) putU32(f *layout.Field, v uint32) {
	if err := w.enc.mem.WriteU32(w.base+f.Offset, v); err != nil {
		w.enc.fail(err)
	}
}

func (w recordWriter) str(name, s string) {
	f, ok := w.field(name, layout.String)
	if !ok {
		return
	}
	ptr, err := w.enc.al.CString(w.enc.mem, w.enc.alloc, s, w.enc.cfg.MaxStringSize, w.fieldPath(name))
	if err != nil {
		w.enc.fail(err)
		return
	}
	w.putU32(f, ptr)
}

// optStr writes s, or null when s is nil.
func (w recordWriter) optStr(name string, s *string) {
	f, ok := w.field(name, layout.String)
	if !ok {
		return
	}
	if s == nil {
		if !f.Nullable {
			w.enc.fail(errors.NilPointer(errors.PhaseEncode, w.fieldPath(name), "*string"))
		}
		return
	}
	w.str(name, *s)
}

func (w recordWriter) boolean(name string, v bool) {
	f, ok := w.field(name, layout.Bool)
	if !ok {
		return
	}
	if err := w.enc.mem.WriteU8(w.base+f.Offset, abi.BoolByte(v)); err != nil {
		w.enc.fail(err)
	}
}

func (w recordWriter) f32(name string, v float32) {
	if f, ok := w.field(name, layout.F32); ok {
		w.putU32(f, math.Float32bits(v))
	}
}

func (w recordWriter) u64(name string, v uint64) {
	f, ok := w.field(name, layout.U64)
	if !ok {
		return
	}
	if err := w.enc.mem.WriteU64(w.base+f.Offset, v); err != nil {
		w.enc.fail(err)
	}
}

func (w recordWriter) enum(name string, v int32) {
	f, ok := w.field(name, layout.Enum)
	if !ok {
		return
	}
	if v < 1 || v > f.Max {
		w.enc.fail(errors.InvalidEnum(errors.PhaseEncode, w.fieldPath(name), v, w.rec.Name+"."+name))
		return
	}
	w.putU32(f, uint32(v))
}

// buf writes data as an owned block plus its length sibling. An empty
// buffer is stored as a null pointer with length 0.
func (w recordWriter) buf(name string, data []byte) {
	f, ok := w.field(name, layout.Buffer)
	if !ok {
		return
	}
	lf, ok := w.field(f.Sibling, layout.Length)
	if !ok {
		return
	}
	if uint64(len(data)) > uint64(w.enc.cfg.MaxBufferSize) {
		w.enc.fail(errors.Overflow(errors.PhaseEncode, w.fieldPath(name), len(data), w.enc.cfg.MaxBufferSize))
		return
	}

	var ptr uint32
	if len(data) > 0 {
		var err error
		ptr, err = w.enc.al.Alloc(w.enc.alloc, uint32(len(data)), 1, w.fieldPath(name))
		if err != nil {
			w.enc.fail(err)
			return
		}
		if err := w.enc.mem.Write(ptr, data); err != nil {
			w.enc.fail(err)
			return
		}
	}
	w.putU32(f, ptr)
	w.putU32(lf, uint32(len(data)))
}

// strings writes items as a CArrayString. A nil slice is null when the
// field is nullable; an empty slice is a present array of size 0.
func (w recordWriter) strings(name string, items []string) {
	f, ok := w.field(name, layout.StringArray)
	if !ok {
		return
	}
	if items == nil {
		if !f.Nullable {
			w.enc.fail(errors.NilPointer(errors.PhaseEncode, w.fieldPath(name), "[]string"))
		}
		return
	}

	path := w.fieldPath(name)
	if uint64(len(items)) > uint64(w.enc.cfg.MaxArrayLength) {
		w.enc.fail(errors.Overflow(errors.PhaseEncode, path, len(items), w.enc.cfg.MaxArrayLength))
		return
	}

	e := w.enc
	arr, err := e.al.Alloc(e.alloc, layout.StringArraySize, layout.StringArrayAlign, path)
	if err != nil {
		e.fail(err)
		return
	}

	var data uint32
	if len(items) > 0 {
		tableSize, ok := abi.SafeMulU32(uint32(len(items)), abi.PointerSize)
		if !ok {
			e.fail(errors.Overflow(errors.PhaseEncode, path, len(items), e.cfg.MaxArrayLength))
			return
		}
		data, err = e.al.Alloc(e.alloc, tableSize, abi.PointerSize, path)
		if err != nil {
			e.fail(err)
			return
		}
		for i, s := range items {
			p, err := e.al.CString(e.mem, e.alloc, s, e.cfg.MaxStringSize, path)
			if err != nil {
				e.fail(err)
				return
			}
			if err := e.mem.WriteU32(data+uint32(i)*abi.PointerSize, p); err != nil {
				e.fail(err)
				return
			}
		}
	}

	if err := e.mem.WriteU32(arr+layout.StringArrayDataOffset, data); err != nil {
		e.fail(err)
		return
	}
	if err := e.mem.WriteU32(arr+layout.StringArraySizeOffset, uint32(len(items))); err != nil {
		e.fail(err)
		return
	}
	w.putU32(f, arr)
}

// opaque stores a pointer produced by an ontology lowering routine. The
// block is staged with the ontology release routine so a later failure
// hands it back to its owner.
func (w recordWriter) opaque(name string, present bool, lower func(hermesffi.Memory, hermesffi.Allocator) (uint32, error)) {
	f, ok := w.field(name, layout.Opaque)
	if !ok {
		return
	}
	if !present {
		if !f.Nullable {
			w.enc.fail(errors.NilPointer(errors.PhaseEncode, w.fieldPath(name), f.Opaque))
		}
		return
	}
	release, err := opaqueReleaser(f.Opaque)
	if err != nil {
		w.enc.fail(err)
		return
	}

	e := w.enc
	ptr, err := lower(e.mem, e.alloc)
	if err != nil {
		e.fail(err)
		return
	}
	e.al.AddDrop(ptr, func(p uint32) error { return release(e.mem, e.alloc, p) })
	w.putU32(f, ptr)
}

// inline returns a writer for the nested record stored in place at name.
func (w recordWriter) inline(name string) recordWriter {
	f, ok := w.field(name, layout.Embedded)
	if !ok {
		return recordWriter{enc: w.enc, rec: w.rec, path: w.path}
	}
	return recordWriter{enc: w.enc, rec: f.Elem, path: w.fieldPath(name), base: w.base + f.Offset}
}

// encode writes the fields of msg into w.
func encode(w recordWriter, msg hermes.Message) {
	switch m := msg.(type) {
	case *hermes.SiteMessage:
		w.str("site_id", m.SiteID)
		w.optStr("session_id", m.SessionID)

	case *hermes.HotwordDetectedMessage:
		w.str("site_id", m.SiteID)
		w.str("model_id", m.ModelID)

	case *hermes.TextCapturedMessage:
		w.str("text", m.Text)
		w.f32("likelihood", m.Likelihood)
		w.f32("seconds", m.Seconds)
		w.str("site_id", m.SiteID)
		w.optStr("session_id", m.SessionID)

	case *hermes.NluQueryMessage:
		w.str("input", m.Input)
		w.strings("intent_filter", m.IntentFilter)
		w.optStr("id", m.ID)
		w.optStr("session_id", m.SessionID)

	case *hermes.NluSlotQueryMessage:
		w.str("input", m.Input)
		w.str("intent_name", m.IntentName)
		w.str("slot_name", m.SlotName)
		w.optStr("id", m.ID)
		w.optStr("session_id", m.SessionID)

	case *hermes.PlayBytesMessage:
		w.str("id", m.ID)
		w.buf("wav_bytes", m.WavBytes)
		w.str("site_id", m.SiteID)
		w.optStr("session_id", m.SessionID)

	case *hermes.AudioFrameMessage:
		w.buf("wav_frame", m.WavFrame)
		w.str("site_id", m.SiteID)

	case *hermes.PlayFinishedMessage:
		w.str("id", m.ID)
		w.str("site_id", m.SiteID)
		w.optStr("session_id", m.SessionID)

	case *hermes.SayMessage:
		w.str("text", m.Text)
		w.optStr("lang", m.Lang)
		w.optStr("id", m.ID)
		w.str("site_id", m.SiteID)
		w.optStr("session_id", m.SessionID)

	case *hermes.SayFinishedMessage:
		w.optStr("id", m.ID)
		w.optStr("session_id", m.SessionID)

	case *hermes.NluSlotMessage:
		w.optStr("id", m.ID)
		w.str("input", m.Input)
		w.str("intent_name", m.IntentName)
		w.opaque("slot", m.Slot != nil, lowerSlot(m.Slot))
		w.optStr("session_id", m.SessionID)

	case *hermes.NluIntentNotRecognizedMessage:
		w.str("input", m.Input)
		w.optStr("id", m.ID)
		w.optStr("session_id", m.SessionID)

	case *hermes.NluIntentMessage:
		w.optStr("id", m.ID)
		w.str("input", m.Input)
		w.opaque("intent", true, lowerIntent(&m.Intent))
		w.opaque("slots", m.Slots != nil, lowerSlotList(m.Slots))
		w.optStr("session_id", m.SessionID)

	case *hermes.IntentMessage:
		w.str("session_id", m.SessionID)
		w.optStr("custom_data", m.CustomData)
		w.str("site_id", m.SiteID)
		w.str("input", m.Input)
		w.opaque("intent", true, lowerIntent(&m.Intent))
		w.opaque("slots", m.Slots != nil, lowerSlotList(m.Slots))

	case *hermes.StartSessionMessage:
		writeSessionInit(w.inline("init"), m.Init)
		w.optStr("custom_data", m.CustomData)
		w.optStr("site_id", m.SiteID)

	case *hermes.SessionStartedMessage:
		w.str("session_id", m.SessionID)
		w.optStr("custom_data", m.CustomData)
		w.str("site_id", m.SiteID)
		w.optStr("reactivated_from_session_id", m.ReactivatedFromSessionID)

	case *hermes.SessionQueuedMessage:
		w.str("session_id", m.SessionID)
		w.optStr("custom_data", m.CustomData)
		w.str("site_id", m.SiteID)

	case *hermes.ContinueSessionMessage:
		w.str("session_id", m.SessionID)
		w.str("text", m.Text)
		w.strings("intent_filter", m.IntentFilter)

	case *hermes.EndSessionMessage:
		w.str("session_id", m.SessionID)
		w.optStr("text", m.Text)

	case *hermes.SessionEndedMessage:
		w.str("session_id", m.SessionID)
		w.optStr("custom_data", m.CustomData)
		writeSessionTermination(w.inline("termination"), m.Termination)
		w.str("site_id", m.SiteID)

	case *hermes.VersionMessage:
		w.u64("major", m.Version.Major)
		w.u64("minor", m.Version.Minor)
		w.u64("patch", m.Version.Patch)

	case *hermes.ErrorMessage:
		w.optStr("session_id", m.SessionID)
		w.str("error", m.Error)
		w.optStr("context", m.Context)

	default:
		w.enc.fail(errors.Unsupported(errors.PhaseEncode, "message type "+abi.TypeName(msg)))
	}
}
