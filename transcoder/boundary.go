package transcoder

import (
	stderrors "errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/resource"
)

// Boundary hands records to foreign callers as integer handles. A record
// cannot be released while a Read holds a borrow on its handle, and every
// handle is released exactly once.
type Boundary struct {
	t     *Transcoder
	table *resource.Table[*Record]
}

// NewBoundary creates an empty handle table over t.
func NewBoundary(t *Transcoder) *Boundary {
	b := &Boundary{t: t, table: resource.NewTable[*Record]()}
	b.table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		if ce := Logger().Check(zap.DebugLevel, "boundary handle"); ce != nil {
			ce.Write(
				zap.Stringer("event", e.Type),
				zap.Uint32("handle", uint32(e.Handle)),
				zap.Stringer("kind", hermes.Kind(e.Tag)))
		}
	}))
	return b
}

// Transcoder returns the underlying transcoder.
func (b *Boundary) Transcoder() *Transcoder { return b.t }

// Export converts msg and returns a handle owning the record.
func (b *Boundary) Export(msg hermes.Message) (resource.Handle, error) {
	rec, err := b.t.Forward(msg)
	if err != nil {
		return 0, err
	}
	return b.insert(rec)
}

// Import adopts a foreign-built record of kind at addr.
func (b *Boundary) Import(kind hermes.Kind, addr uint32) (resource.Handle, error) {
	rec, err := b.t.Adopt(kind, addr)
	if err != nil {
		return 0, err
	}
	return b.insert(rec)
}

func (b *Boundary) insert(rec *Record) (resource.Handle, error) {
	h, err := b.table.Insert(uint32(rec.kind), rec)
	if err != nil {
		// the table is closed; the record would otherwise leak
		if rerr := b.t.Release(rec); rerr != nil {
			Logger().Warn("release after closed insert failed", zap.Error(rerr))
		}
		return 0, b.tableError(errors.PhaseEncode, err, 0)
	}
	return h, nil
}

// Read copies out the record behind h while holding a borrow on it.
func (b *Boundary) Read(h resource.Handle) (hermes.Message, error) {
	rec, err := b.table.Borrow(h)
	if err != nil {
		return nil, b.tableError(errors.PhaseDecode, err, h)
	}
	defer b.table.ReturnBorrow(h)
	return b.t.Reverse(rec)
}

// Address returns the kind and linear memory address behind h.
func (b *Boundary) Address(h resource.Handle) (hermes.Kind, uint32, error) {
	rec, ok := b.table.Get(h)
	if !ok {
		return 0, 0, errors.NotFound(errors.PhaseDecode, "handle", handleName(h))
	}
	return rec.kind, rec.addr, nil
}

// Release removes h from the table and releases its record. It fails
// with a busy error while a Read holds a borrow, and with a not-found
// error for handles that were never issued or are already released.
func (b *Boundary) Release(h resource.Handle) error {
	rec, err := b.table.Remove(h)
	if err != nil {
		return b.tableError(errors.PhaseRelease, err, h)
	}
	return b.t.Release(rec)
}

// Len returns the number of outstanding handles.
func (b *Boundary) Len() int {
	return b.table.Len()
}

// Close releases every outstanding record and refuses further handles.
// The first release failure is returned after all records are visited.
// While a Read holds a borrow Close fails with a busy error and nothing
// is released.
func (b *Boundary) Close() error {
	var first error
	err := b.table.Close(func(h resource.Handle, _ uint32, rec *Record) {
		if err := b.t.Release(rec); err != nil && first == nil {
			first = err
		}
	})
	if stderrors.Is(err, resource.ErrBorrowed) {
		return errors.New(errors.PhaseRelease, errors.KindBusy).
			Detail("boundary has handles borrowed by a reader").
			Cause(err).
			Build()
	}
	if err != nil {
		return err
	}
	return first
}

func (b *Boundary) tableError(phase errors.Phase, err error, h resource.Handle) error {
	switch {
	case stderrors.Is(err, resource.ErrBorrowed):
		return errors.New(phase, errors.KindBusy).
			Path(handleName(h)).
			Detail("handle is borrowed by a reader").
			Cause(err).
			Build()
	case stderrors.Is(err, resource.ErrNotFound):
		return errors.New(phase, errors.KindNotFound).
			Path(handleName(h)).
			Detail("handle not found or already released").
			Cause(err).
			Build()
	case stderrors.Is(err, resource.ErrClosed):
		return errors.New(phase, errors.KindReleased).
			Detail("boundary closed").
			Cause(err).
			Build()
	default:
		return err
	}
}

func handleName(h resource.Handle) string {
	return "handle#" + strconv.FormatUint(uint64(h), 10)
}
