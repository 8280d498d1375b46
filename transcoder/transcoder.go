package transcoder

import (
	"go.uber.org/zap"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/internal/abi"
)

// Transcoder converts native messages to foreign records in one linear
// memory and back. It holds no per-call state and is safe for concurrent
// use when the memory and allocator are.
type Transcoder struct {
	mem   hermesffi.Memory
	alloc hermesffi.Allocator
	cfg   Config
}

// New creates a transcoder over mem and alloc. A nil cfg uses defaults.
func New(mem hermesffi.Memory, alloc hermesffi.Allocator, cfg *Config) *Transcoder {
	return &Transcoder{mem: mem, alloc: alloc, cfg: cfg.resolve()}
}

// Memory returns the linear memory records live in.
func (t *Transcoder) Memory() hermesffi.Memory { return t.mem }

// Allocator returns the allocator records are allocated from.
func (t *Transcoder) Allocator() hermesffi.Allocator { return t.alloc }

// Config returns the effective limits.
func (t *Transcoder) Config() Config { return t.cfg }

// Forward builds the foreign record for msg. The returned Record owns
// every allocation; on error nothing stays allocated.
func (t *Transcoder) Forward(msg hermes.Message) (*Record, error) {
	if abi.IsNil(msg) {
		return nil, errors.NilPointer(errors.PhaseEncode, nil, "hermes.Message")
	}
	kind := msg.Kind()
	lay, ok := Layout(kind)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseEncode, "message kind "+kind.String())
	}

	enc := &encoder{mem: t.mem, alloc: t.alloc, al: abi.NewAllocationList(), cfg: &t.cfg}
	w, addr := enc.block(lay, []string{lay.Name})
	if enc.err == nil {
		encode(w, msg)
	}

	if enc.err != nil {
		staged := enc.al.Count()
		if err := enc.al.Rollback(t.alloc); err != nil {
			Logger().Warn("forward rollback incomplete",
				zap.Stringer("kind", kind),
				zap.Error(err))
		}
		Logger().Debug("forward rolled back",
			zap.Stringer("kind", kind),
			zap.Int("staged", staged),
			zap.Error(enc.err))
		return nil, enc.err
	}

	blocks := enc.al.Count()
	enc.al.Commit()
	Logger().Debug("forward",
		zap.Stringer("kind", kind),
		zap.Uint32("addr", addr),
		zap.Uint32("size", lay.Size),
		zap.Int("blocks", blocks))
	return newRecord(kind, lay, addr), nil
}

// Reverse copies rec out into a new native message without taking
// ownership. Records of the intent-result family cannot be reversed.
func (t *Transcoder) Reverse(rec *Record) (hermes.Message, error) {
	if rec == nil {
		return nil, errors.NilPointer(errors.PhaseDecode, nil, "*transcoder.Record")
	}
	if !Reversible(rec.kind) {
		return nil, errors.UnsupportedReverse(rec.layout.Name, "ontology structures have no copy-out routine")
	}
	if rec.Released() {
		return nil, errors.Released(errors.PhaseDecode, "record")
	}
	return t.reverse(rec.kind, rec.addr)
}

// ReverseAt copies out the record of kind at addr, typically an address
// handed over by the foreign side. Ownership stays with the caller.
func (t *Transcoder) ReverseAt(kind hermes.Kind, addr uint32) (hermes.Message, error) {
	lay, ok := Layout(kind)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseDecode, "message kind "+kind.String())
	}
	if !Reversible(kind) {
		return nil, errors.UnsupportedReverse(lay.Name, "ontology structures have no copy-out routine")
	}
	if addr == 0 {
		return nil, errors.Malformed(errors.PhaseDecode, []string{lay.Name}, "null record pointer")
	}
	return t.reverse(kind, addr)
}

func (t *Transcoder) reverse(kind hermes.Kind, addr uint32) (hermes.Message, error) {
	lay := records[kind]
	dec := &decoder{mem: t.mem, cfg: &t.cfg}
	msg := decode(dec.reader(lay, addr, []string{lay.Name}), kind)
	if dec.err != nil {
		return nil, dec.err
	}
	return msg, nil
}

// Release frees every allocation rec owns. Only the first call releases;
// later calls return a released error.
func (t *Transcoder) Release(rec *Record) error {
	if rec == nil {
		return errors.NilPointer(errors.PhaseRelease, nil, "*transcoder.Record")
	}
	if !rec.markReleased() {
		return errors.Released(errors.PhaseRelease, "record")
	}

	rl := releaser{t: t}
	path := []string{rec.layout.Name}
	if err := rl.fields(rec.layout, rec.addr, path); err != nil {
		Logger().Warn("release aborted",
			zap.Stringer("kind", rec.kind),
			zap.Uint32("addr", rec.addr),
			zap.Error(err))
		return err
	}
	t.alloc.Free(rec.addr, rec.layout.Size, rec.layout.Align)

	Logger().Debug("release",
		zap.Stringer("kind", rec.kind),
		zap.Uint32("addr", rec.addr),
		zap.Uint32("size", rec.layout.Size))
	return nil
}

// Adopt takes ownership of a record of kind at addr built by the foreign
// side in the same memory with the same allocator, so it can be read and
// released through this transcoder.
func (t *Transcoder) Adopt(kind hermes.Kind, addr uint32) (*Record, error) {
	lay, ok := Layout(kind)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseDecode, "message kind "+kind.String())
	}
	if addr == 0 {
		return nil, errors.Malformed(errors.PhaseDecode, []string{lay.Name}, "null record pointer")
	}
	return newRecord(kind, lay, addr), nil
}
