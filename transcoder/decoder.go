package transcoder

import (
	"math"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/internal/abi"
	"github.com/wippyai/hermes-ffi/transcoder/layout"
)

// decoder carries one reverse conversion. The first error sticks and
// later reads return zero values.
type decoder struct {
	mem hermesffi.Memory
	err error
	cfg *Config
}

// recordReader reads the fields of one record instance at base.
type recordReader struct {
	dec  *decoder
	rec  *layout.Record
	path []string
	base uint32
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) reader(rec *layout.Record, base uint32, path []string) recordReader {
	return recordReader{dec: d, rec: rec, path: path, base: base}
}

func (r recordReader) fieldPath(name string) []string {
	p := make([]string, len(r.path), len(r.path)+1)
	copy(p, r.path)
	return append(p, name)
}

func (r recordReader) field(name string, shape layout.Shape) (*layout.Field, bool) {
	if r.dec.err != nil {
		return nil, false
	}
	f, ok := r.rec.Field(name)
	if !ok || f.Shape != shape {
		r.dec.fail(errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(r.fieldPath(name)...).
			Detail("layout %s has no %s field %q", r.rec.Name, shape, name).
			Build())
		return nil, false
	}
	return f, true
}

func (r recordReader) u32(f *layout.Field) uint32 {
	v, err := r.dec.mem.ReadU32(r.base + f.Offset)
	if err != nil {
		r.dec.fail(err)
		return 0
	}
	return v
}

// pointer reads a pointer field and rejects null for required fields.
func (r recordReader) pointer(name string, shape layout.Shape) (uint32, *layout.Field, bool) {
	f, ok := r.field(name, shape)
	if !ok {
		return 0, nil, false
	}
	p := r.u32(f)
	if r.dec.err != nil {
		return 0, nil, false
	}
	if p == 0 && !f.Nullable {
		r.dec.fail(errors.Malformed(errors.PhaseDecode, r.fieldPath(name), "null pointer in required field"))
		return 0, nil, false
	}
	return p, f, true
}

func (r recordReader) cstring(ptr uint32, path []string) string {
	s, err := abi.ReadCString(r.dec.mem, ptr, r.dec.cfg.MaxStringSize, path)
	if err != nil {
		r.dec.fail(err)
		return ""
	}
	return s
}

func (r recordReader) str(name string) string {
	p, _, ok := r.pointer(name, layout.String)
	if !ok || p == 0 {
		return ""
	}
	return r.cstring(p, r.fieldPath(name))
}

// optStr returns nil for a null pointer.
func (r recordReader) optStr(name string) *string {
	p, _, ok := r.pointer(name, layout.String)
	if !ok || p == 0 {
		return nil
	}
	s := r.cstring(p, r.fieldPath(name))
	if r.dec.err != nil {
		return nil
	}
	return &s
}

func (r recordReader) boolean(name string) bool {
	f, ok := r.field(name, layout.Bool)
	if !ok {
		return false
	}
	b, err := r.dec.mem.ReadU8(r.base + f.Offset)
	if err != nil {
		r.dec.fail(err)
		return false
	}
	switch b {
	case 0:
		return false
	case 1:
		return true
	default:
		r.dec.fail(errors.New(errors.PhaseDecode, errors.KindMalformedInput).
			Path(r.fieldPath(name)...).
			Value(b).
			Detail("boolean byte %d is neither 0 nor 1", b).
			Build())
		return false
	}
}

func (r recordReader) f32(name string) float32 {
	f, ok := r.field(name, layout.F32)
	if !ok {
		return 0
	}
	return math.Float32frombits(r.u32(f))
}

func (r recordReader) u64(name string) uint64 {
	f, ok := r.field(name, layout.U64)
	if !ok {
		return 0
	}
	v, err := r.dec.mem.ReadU64(r.base + f.Offset)
	if err != nil {
		r.dec.fail(err)
		return 0
	}
	return v
}

// enum reads a discriminant and rejects values outside 1..Max.
func (r recordReader) enum(name string) int32 {
	f, ok := r.field(name, layout.Enum)
	if !ok {
		return 0
	}
	v := int32(r.u32(f))
	if r.dec.err != nil {
		return 0
	}
	if v < 1 || v > f.Max {
		r.dec.fail(errors.InvalidDiscriminant(errors.PhaseDecode, r.fieldPath(name), v, f.Max))
		return 0
	}
	return v
}

// buf copies a byte buffer out. A zero length yields nil.
func (r recordReader) buf(name string) []byte {
	f, ok := r.field(name, layout.Buffer)
	if !ok {
		return nil
	}
	lf, ok := r.field(f.Sibling, layout.Length)
	if !ok {
		return nil
	}
	p := r.u32(f)
	n := r.u32(lf)
	if r.dec.err != nil {
		return nil
	}
	path := r.fieldPath(name)
	if int32(n) < 0 || n > r.dec.cfg.MaxBufferSize {
		r.dec.fail(errors.Overflow(errors.PhaseDecode, path, int32(n), r.dec.cfg.MaxBufferSize))
		return nil
	}
	if n == 0 {
		return nil
	}
	if p == 0 {
		r.dec.fail(errors.Malformed(errors.PhaseDecode, path, "null buffer with non-zero length"))
		return nil
	}
	data, err := r.dec.mem.Read(p, n)
	if err != nil {
		r.dec.fail(err)
		return nil
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// optStrings copies a CArrayString out. A null array yields nil; a
// present empty array yields an empty non-nil slice.
func (r recordReader) optStrings(name string) []string {
	arr, _, ok := r.pointer(name, layout.StringArray)
	if !ok || arr == 0 {
		return nil
	}
	path := r.fieldPath(name)
	mem := r.dec.mem

	data, err := mem.ReadU32(arr + layout.StringArrayDataOffset)
	if err != nil {
		r.dec.fail(err)
		return nil
	}
	size, err := mem.ReadU32(arr + layout.StringArraySizeOffset)
	if err != nil {
		r.dec.fail(err)
		return nil
	}
	if int32(size) < 0 {
		r.dec.fail(errors.Malformed(errors.PhaseDecode, path, "negative array size"))
		return nil
	}
	if size > r.dec.cfg.MaxArrayLength {
		r.dec.fail(errors.Overflow(errors.PhaseDecode, path, size, r.dec.cfg.MaxArrayLength))
		return nil
	}
	if data == 0 && size > 0 {
		r.dec.fail(errors.Malformed(errors.PhaseDecode, path, "null array data with non-zero size"))
		return nil
	}

	out := make([]string, 0, size)
	for i := uint32(0); i < size; i++ {
		p, err := mem.ReadU32(data + i*abi.PointerSize)
		if err != nil {
			r.dec.fail(err)
			return nil
		}
		if p == 0 {
			r.dec.fail(errors.Malformed(errors.PhaseDecode, path, "null string in array"))
			return nil
		}
		s := r.cstring(p, path)
		if r.dec.err != nil {
			return nil
		}
		out = append(out, s)
	}
	return out
}

// inline returns a reader for the nested record stored in place at name.
func (r recordReader) inline(name string) recordReader {
	f, ok := r.field(name, layout.Embedded)
	if !ok {
		return r
	}
	return r.dec.reader(f.Elem, r.base+f.Offset, r.fieldPath(name))
}

// decode copies a reversible record out into a native message.
func decode(r recordReader, kind hermes.Kind) hermes.Message {
	switch kind {
	case hermes.KindSite:
		return &hermes.SiteMessage{
			SiteID:    r.str("site_id"),
			SessionID: r.optStr("session_id"),
		}
	case hermes.KindHotwordDetected:
		return &hermes.HotwordDetectedMessage{
			SiteID:  r.str("site_id"),
			ModelID: r.str("model_id"),
		}
	case hermes.KindTextCaptured:
		return &hermes.TextCapturedMessage{
			Text:       r.str("text"),
			Likelihood: r.f32("likelihood"),
			Seconds:    r.f32("seconds"),
			SiteID:     r.str("site_id"),
			SessionID:  r.optStr("session_id"),
		}
	case hermes.KindNluQuery:
		return &hermes.NluQueryMessage{
			Input:        r.str("input"),
			IntentFilter: r.optStrings("intent_filter"),
			ID:           r.optStr("id"),
			SessionID:    r.optStr("session_id"),
		}
	case hermes.KindNluSlotQuery:
		return &hermes.NluSlotQueryMessage{
			Input:      r.str("input"),
			IntentName: r.str("intent_name"),
			SlotName:   r.str("slot_name"),
			ID:         r.optStr("id"),
			SessionID:  r.optStr("session_id"),
		}
	case hermes.KindPlayBytes:
		return &hermes.PlayBytesMessage{
			ID:        r.str("id"),
			WavBytes:  r.buf("wav_bytes"),
			SiteID:    r.str("site_id"),
			SessionID: r.optStr("session_id"),
		}
	case hermes.KindAudioFrame:
		return &hermes.AudioFrameMessage{
			WavFrame: r.buf("wav_frame"),
			SiteID:   r.str("site_id"),
		}
	case hermes.KindPlayFinished:
		return &hermes.PlayFinishedMessage{
			ID:        r.str("id"),
			SiteID:    r.str("site_id"),
			SessionID: r.optStr("session_id"),
		}
	case hermes.KindSay:
		return &hermes.SayMessage{
			Text:      r.str("text"),
			Lang:      r.optStr("lang"),
			ID:        r.optStr("id"),
			SiteID:    r.str("site_id"),
			SessionID: r.optStr("session_id"),
		}
	case hermes.KindSayFinished:
		return &hermes.SayFinishedMessage{
			ID:        r.optStr("id"),
			SessionID: r.optStr("session_id"),
		}
	case hermes.KindNluIntentNotRecognized:
		return &hermes.NluIntentNotRecognizedMessage{
			Input:     r.str("input"),
			ID:        r.optStr("id"),
			SessionID: r.optStr("session_id"),
		}
	case hermes.KindStartSession:
		return &hermes.StartSessionMessage{
			Init:       readSessionInit(r.inline("init")),
			CustomData: r.optStr("custom_data"),
			SiteID:     r.optStr("site_id"),
		}
	case hermes.KindSessionStarted:
		return &hermes.SessionStartedMessage{
			SessionID:                r.str("session_id"),
			CustomData:               r.optStr("custom_data"),
			SiteID:                   r.str("site_id"),
			ReactivatedFromSessionID: r.optStr("reactivated_from_session_id"),
		}
	case hermes.KindSessionQueued:
		return &hermes.SessionQueuedMessage{
			SessionID:  r.str("session_id"),
			CustomData: r.optStr("custom_data"),
			SiteID:     r.str("site_id"),
		}
	case hermes.KindContinueSession:
		return &hermes.ContinueSessionMessage{
			SessionID:    r.str("session_id"),
			Text:         r.str("text"),
			IntentFilter: r.optStrings("intent_filter"),
		}
	case hermes.KindEndSession:
		return &hermes.EndSessionMessage{
			SessionID: r.str("session_id"),
			Text:      r.optStr("text"),
		}
	case hermes.KindSessionEnded:
		return &hermes.SessionEndedMessage{
			SessionID:   r.str("session_id"),
			CustomData:  r.optStr("custom_data"),
			Termination: readSessionTermination(r.inline("termination")),
			SiteID:      r.str("site_id"),
		}
	case hermes.KindVersion:
		return &hermes.VersionMessage{Version: hermes.Version{
			Major: r.u64("major"),
			Minor: r.u64("minor"),
			Patch: r.u64("patch"),
		}}
	case hermes.KindError:
		return &hermes.ErrorMessage{
			SessionID: r.optStr("session_id"),
			Error:     r.str("error"),
			Context:   r.optStr("context"),
		}
	default:
		r.dec.fail(errors.UnsupportedReverse(kind.String(), "no copy-out routine"))
		return nil
	}
}
