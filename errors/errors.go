package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode  Phase = "encode"  // native to foreign
	PhaseDecode  Phase = "decode"  // foreign to native
	PhaseRelease Phase = "release" // foreign record deallocation
	PhaseMemory  Phase = "memory"  // linear memory and allocator operations
	PhaseCodec   Phase = "codec"   // native message envelopes (JSON/CBOR)
	PhaseConfig  Phase = "config"  // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidStringEncoding Kind = "invalid_string_encoding"
	KindUnsupportedReverse    Kind = "unsupported_reverse"
	KindMalformedInput        Kind = "malformed_input"
	KindReleased              Kind = "released"
	KindBusy                  Kind = "busy"
	KindOutOfBounds           Kind = "out_of_bounds"
	KindInvalidData           Kind = "invalid_data"
	KindUnsupported           Kind = "unsupported"
	KindAllocation            Kind = "allocation"
	KindOverflow              Kind = "overflow"
	KindNilPointer            Kind = "nil_pointer"
	KindInvalidEnum           Kind = "invalid_enum"
	KindNotFound              Kind = "not_found"
	KindInvalidInput          Kind = "invalid_input"
)

// Sentinels for errors.Is checks that ignore the phase.
var (
	ErrInvalidStringEncoding        = &Error{Kind: KindInvalidStringEncoding}
	ErrUnsupportedReverseConversion = &Error{Kind: KindUnsupportedReverse}
	ErrMalformedForeignInput        = &Error{Kind: KindMalformedInput}
	ErrReleased                     = &Error{Kind: KindReleased}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidStringEncoding reports a native string that cannot be represented as
// a NUL-terminated foreign string. nulAt is the byte index of the first
// embedded NUL, or -1 when the string is not valid UTF-8.
func InvalidStringEncoding(path []string, data []byte, nulAt int) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	detail := fmt.Sprintf("invalid UTF-8 sequence: %x", preview)
	if nulAt >= 0 {
		detail = fmt.Sprintf("embedded NUL at byte %d: %x", nulAt, preview)
	}
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindInvalidStringEncoding,
		Path:   path,
		GoType: "string",
		Detail: detail,
		Value:  nulAt,
	}
}

// UnsupportedReverse reports a record kind whose copy-out path does not exist.
func UnsupportedReverse(record, reason string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnsupportedReverse,
		Path:   []string{record},
		Detail: reason,
	}
}

// Malformed creates a malformed foreign input error
func Malformed(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedInput,
		Path:   path,
		Detail: detail,
	}
}

// InvalidDiscriminant creates a malformed input error for an enum or union tag
// outside 1..maxValid.
func InvalidDiscriminant(phase Phase, path []string, disc int32, maxValid int32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedInput,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (valid 1..%d)", disc, maxValid),
		Value:  disc,
	}
}

// Released reports use of a record or handle after its release.
func Released(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReleased,
		Detail: what + " already released",
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access at %d (length %d) out of bounds", offset, length),
		Value:  offset,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v exceeds limit %d", value, limit),
		Value:  value,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		GoType: enumType,
		Detail: fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
