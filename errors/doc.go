// Package errors provides structured error types for the hermes-ffi library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path inside the foreign record, the native Go
// type involved, a human-readable detail and an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindInvalidStringEncoding).
//		Path("CSayMessage", "text").
//		GoType("string").
//		Detail("embedded NUL at byte 3").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidStringEncoding(path, data, 3)
//	err := errors.Malformed(errors.PhaseDecode, path, "null required pointer")
//
// The sentinels ErrInvalidStringEncoding, ErrUnsupportedReverseConversion,
// ErrMalformedForeignInput and ErrReleased match any error of their Kind,
// whatever the phase:
//
//	if errors.Is(err, hferrors.ErrMalformedForeignInput) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
