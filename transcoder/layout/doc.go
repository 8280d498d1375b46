// Package layout describes foreign record layouts on a 32-bit target.
//
// A Record is an ordered list of Fields. NewRecord computes offsets with
// C layout rules: every field is aligned to its own alignment, and the
// record size is rounded up to the largest field alignment.
//
// # Shapes
//
//	Shape        Size  Align  Meaning
//	──────────────────────────────────────────────────────────────
//	Bool         1     1      u8, 1 = true, 0 = false
//	I32          4     4      signed 32-bit scalar
//	U64          8     8      unsigned 64-bit scalar
//	F32          4     4      IEEE-754 single
//	Enum         4     4      discriminant 1..Max
//	Length       4     4      count paired with a Buffer
//	String       4     4      owned NUL-terminated string pointer
//	Buffer       4     4      owned byte block, length in Sibling
//	StringArray  4     4      owned pointer to a CArrayString
//	Embedded     inline       nested record stored in place
//	RecordPtr    4     4      owned pointer to a nested record
//	Opaque       4     4      owned pointer to an ontology structure
//	Union        4     4      pointer whose pointee is chosen by Sibling
//
// # Usage
//
//	rec := layout.MustRecord("CSiteMessage",
//	    layout.Str("site_id"),
//	    layout.OptStr("session_id"),
//	)
//	f, _ := rec.Field("session_id") // f.Offset == 4, rec.Size == 8
package layout
