package transcoder

import (
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/transcoder/layout"
)

// writeSessionInit encodes the session-initiation mode into an inline
// CSessionInit: the discriminant plus an owned pointer to the variant
// payload (a CActionSessionInit block or a string).
func writeSessionInit(w recordWriter, init hermes.SessionInit) {
	if w.enc.err != nil {
		return
	}
	if init == nil || isNilInit(init) {
		w.enc.fail(errors.InvalidData(errors.PhaseEncode, w.path, "session init is required"))
		return
	}

	f, ok := w.field("value", layout.Union)
	if !ok {
		return
	}
	disc := int32(init.InitType())
	w.enum(f.Sibling, disc)
	if w.enc.err != nil {
		return
	}
	variant := f.Variants[disc-1]
	path := w.fieldPath(variant.Name)

	switch v := init.(type) {
	case *hermes.SessionInitAction:
		aw, ptr := w.enc.block(variant.Elem, path)
		aw.optStr("text", v.Text)
		aw.strings("intent_filter", v.IntentFilter)
		aw.boolean("can_be_enqueued", v.CanBeEnqueued)
		if w.enc.err == nil {
			w.putU32(f, ptr)
		}
	case *hermes.SessionInitNotification:
		ptr, err := w.enc.al.CString(w.enc.mem, w.enc.alloc, v.Text, w.enc.cfg.MaxStringSize, path)
		if err != nil {
			w.enc.fail(err)
			return
		}
		w.putU32(f, ptr)
	}
}

func isNilInit(init hermes.SessionInit) bool {
	switch v := init.(type) {
	case *hermes.SessionInitAction:
		return v == nil
	case *hermes.SessionInitNotification:
		return v == nil
	}
	return false
}

// readSessionInit decodes an inline CSessionInit.
func readSessionInit(r recordReader) hermes.SessionInit {
	f, ok := r.field("value", layout.Union)
	if !ok {
		return nil
	}
	disc := r.enum(f.Sibling)
	p := r.u32(f)
	if r.dec.err != nil {
		return nil
	}
	if p == 0 {
		r.dec.fail(errors.Malformed(errors.PhaseDecode, r.fieldPath("value"), "null session init payload"))
		return nil
	}

	variant := f.Variants[disc-1]
	path := r.fieldPath(variant.Name)

	switch hermes.InitType(disc) {
	case hermes.InitAction:
		ar := r.dec.reader(variant.Elem, p, path)
		init := &hermes.SessionInitAction{
			Text:          ar.optStr("text"),
			IntentFilter:  ar.optStrings("intent_filter"),
			CanBeEnqueued: ar.boolean("can_be_enqueued"),
		}
		if r.dec.err != nil {
			return nil
		}
		return init
	case hermes.InitNotification:
		text := r.cstring(p, path)
		if r.dec.err != nil {
			return nil
		}
		return &hermes.SessionInitNotification{Text: text}
	}
	return nil
}

// writeSessionTermination encodes an inline CSessionTermination. Only the
// error reason carries a payload; a message on any other reason is
// rejected rather than dropped.
func writeSessionTermination(w recordWriter, t hermes.SessionTermination) {
	if w.enc.err != nil {
		return
	}
	if !t.Reason.Valid() {
		w.enc.fail(errors.InvalidEnum(errors.PhaseEncode, w.fieldPath("termination_type"), int32(t.Reason), "hermes.TerminationReason"))
		return
	}
	if t.Reason != hermes.TerminationError && t.Error != "" {
		w.enc.fail(errors.InvalidData(errors.PhaseEncode, w.fieldPath("data"), "termination reason "+t.Reason.String()+" carries an error message"))
		return
	}
	w.enum("termination_type", int32(t.Reason))
	if t.Reason == hermes.TerminationError {
		w.str("data", t.Error)
	}
}

// readSessionTermination decodes an inline CSessionTermination, rejecting
// a payload on non-error reasons and a missing payload on the error reason.
func readSessionTermination(r recordReader) hermes.SessionTermination {
	reason := hermes.TerminationReason(r.enum("termination_type"))
	f, ok := r.field("data", layout.String)
	if !ok {
		return hermes.SessionTermination{}
	}
	p := r.u32(f)
	if r.dec.err != nil {
		return hermes.SessionTermination{}
	}

	path := r.fieldPath("data")
	if reason == hermes.TerminationError {
		if p == 0 {
			r.dec.fail(errors.Malformed(errors.PhaseDecode, path, "error termination without a message"))
			return hermes.SessionTermination{}
		}
		return hermes.SessionTermination{Reason: reason, Error: r.cstring(p, path)}
	}
	if p != 0 {
		r.dec.fail(errors.New(errors.PhaseDecode, errors.KindMalformedInput).
			Path(path...).
			Detail("termination reason %s carries a payload", reason).
			Build())
		return hermes.SessionTermination{}
	}
	return hermes.SessionTermination{Reason: reason}
}
