package transcoder

import (
	"sync/atomic"

	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/transcoder/layout"
)

const (
	recordLive uint32 = iota
	recordReleased
)

// Record owns one foreign record in linear memory and everything it
// points to. A Record is released exactly once through Transcoder.Release.
type Record struct {
	layout *layout.Record
	addr   uint32
	state  atomic.Uint32
	kind   hermes.Kind
}

func newRecord(kind hermes.Kind, lay *layout.Record, addr uint32) *Record {
	return &Record{kind: kind, layout: lay, addr: addr}
}

// Kind returns the message kind of the record.
func (r *Record) Kind() hermes.Kind { return r.kind }

// Addr returns the record's address in linear memory.
func (r *Record) Addr() uint32 { return r.addr }

// Size returns the size of the top-level record block.
func (r *Record) Size() uint32 { return r.layout.Size }

// Layout returns the record's layout.
func (r *Record) Layout() *layout.Record { return r.layout }

// Released reports whether the record has been released.
func (r *Record) Released() bool {
	return r.state.Load() == recordReleased
}

// markReleased is the single point that decides which Release call owns
// the teardown.
func (r *Record) markReleased() bool {
	return r.state.CompareAndSwap(recordLive, recordReleased)
}
