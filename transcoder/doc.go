// Package transcoder converts Hermes messages to and from fixed-layout
// foreign records in a 32-bit linear memory.
//
//	┌──────────────────────────────────────────────────────────────┐
//	│ hermes.Message ──Forward──▶ Record (linear memory) ──Release │
//	│        ▲                        │                            │
//	│        └────────Reverse─────────┘                            │
//	└──────────────────────────────────────────────────────────────┘
//
// # Record Layout
//
// Every message kind has one record layout (see Layout). Fields follow C
// layout rules on a 32-bit target:
//
//	Field           Size    Alignment
//	──────────────────────────────────
//	bool            1       1
//	i32/f32/enum    4       4
//	u64             8       8
//	string          4       4 (pointer to NUL-terminated bytes)
//	buffer          4       4 (pointer, length in a sibling field)
//	string array    4       4 (pointer to { data, size })
//	nested record   inline  max field align
//
// Null pointers mean "absent" and only appear in nullable fields; a
// zero-length buffer is stored as a null pointer with length 0.
//
// # Forward
//
// Forward allocates the record and all of its content through the
// Allocator. Every block is staged; if any field fails (an embedded NUL
// or invalid UTF-8 in a string, a limit, an allocation) all staged
// blocks are freed and the allocator's live set is unchanged.
//
// # Reverse
//
// Reverse copies a record into a newly allocated message. It validates
// what the foreign side could have corrupted: null required pointers,
// boolean bytes other than 0 and 1, out-of-range discriminants and
// termination payloads. The intent-result family (NluSlot, NluIntent and
// Intent) holds opaque ontology structures and always fails with
// errors.ErrUnsupportedReverseConversion.
//
// # Release
//
// Release walks the record's layout and frees nested content before the
// blocks that point to it. A Record is released once; later calls
// return errors.ErrReleased.
//
// # Handles
//
// Boundary maps records to integer handles for callers that cannot hold
// Go pointers:
//
//	b := transcoder.NewBoundary(tc)
//	h, _ := b.Export(&hermes.SiteMessage{SiteID: "kitchen"})
//	msg, _ := b.Read(h)
//	_ = b.Release(h)
//
// # Thread Safety
//
// Transcoder holds no per-call state and is safe for concurrent use when
// the memory and allocator are. Boundary is safe for concurrent use.
//
// # Error Handling
//
// Errors use the structured types from the errors package:
//
//	[encode] invalid_string_encoding at CSiteMessage.site_id: Go type string - embedded NUL at byte 3: ...
//	[decode] malformed_input at CSessionEndedMessage.termination.termination_type: discriminant 9 out of range (valid 1..6)
package transcoder
