// Package hermesffi marshals Hermes voice-assistant protocol messages across a
// foreign boundary.
//
// Native messages (package hermes) are converted into fixed-layout C records
// living in a 32-bit linear memory: a WebAssembly guest's memory hosted by
// wazero, or an in-process buffer shared with a foreign caller. The foreign
// side sees NUL-terminated strings, pointer + 32-bit length buffers, null
// pointers for absent values and integer discriminants for tagged unions.
//
// # Architecture Overview
//
//	hermesffi/           Root package with core Memory and Allocator interfaces
//	├── hermes/          Native message types and JSON/CBOR envelopes
//	├── ontology/        Opaque NLU results with their own lower/release routines
//	├── transcoder/      Forward, reverse and release of foreign records
//	├── resource/        Handle table for records owned by the foreign side
//	├── memory/          Linear memory backends (buffer, heap, wazero)
//	├── errors/          Structured error types
//	└── cmd/hermes-ffi/  Layout inspection and conversion tool
//
// # Quick Start
//
//	buf := memory.NewBuffer(1 << 20)
//	heap := memory.NewHeap(buf, nil)
//	tc := transcoder.New(buf, heap, nil)
//
//	rec, err := tc.Forward(&hermes.SiteMessage{SiteID: "kitchen"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// hand rec.Addr() to the foreign side ...
//	msg, err := tc.Reverse(rec)
//	_ = tc.Release(rec)
//
// # Ownership
//
// Forward allocates every piece of a record and returns an owning *Record.
// Reverse copies a record out without consuming it. Release frees exactly
// what Forward allocated and can succeed only once per record.
//
// # Thread Safety
//
// Transcoder is safe for concurrent use when its Memory and Allocator are.
// A record must not be released while another goroutine reads it; the
// transcoder.Boundary handle table enforces this with borrows.
package hermesffi
