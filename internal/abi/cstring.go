package abi

import (
	"strings"
	"unicode/utf8"
	"unsafe"

	hermesffi "github.com/wippyai/hermes-ffi"
	"github.com/wippyai/hermes-ffi/errors"
)

// CheckCString reports whether s can be represented as a foreign C string.
// It returns the index of the first embedded NUL, or -1 when s is not
// valid UTF-8, together with ok=false.
func CheckCString(s string) (int, bool) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return i, false
	}
	if !utf8.ValidString(s) {
		return -1, false
	}
	return 0, true
}

// WriteCString allocates len(s)+1 bytes, copies s and its terminator and
// returns the block address and size. Nothing stays allocated on error.
func WriteCString(mem hermesffi.Memory, alloc hermesffi.Allocator, s string, limit uint32, path []string) (uint32, uint32, error) {
	if at, ok := CheckCString(s); !ok {
		return 0, 0, errors.InvalidStringEncoding(path, []byte(s), at)
	}
	if uint64(len(s)) > uint64(limit) {
		return 0, 0, errors.Overflow(errors.PhaseEncode, path, len(s), limit)
	}

	size := uint32(len(s)) + 1
	ptr, err := alloc.Alloc(size, 1)
	if err != nil {
		return 0, 0, errors.New(errors.PhaseEncode, errors.KindAllocation).
			Path(path...).
			Detail("failed to allocate %d bytes for string", size).
			Cause(err).
			Build()
	}

	data := make([]byte, size)
	copy(data, unsafe.Slice(unsafe.StringData(s), len(s)))
	if err := mem.Write(ptr, data); err != nil {
		alloc.Free(ptr, size, 1)
		return 0, 0, err
	}
	return ptr, size, nil
}

// StrLen measures the C string at ptr, scanning at most limit bytes.
func StrLen(mem hermesffi.Memory, ptr uint32, limit uint32, phase errors.Phase, path []string) (uint32, error) {
	for n := uint32(0); n <= limit; n++ {
		b, err := mem.ReadU8(ptr + n)
		if err != nil {
			return 0, errors.New(phase, errors.KindMalformedInput).
				Path(path...).
				Detail("unterminated string at 0x%x", ptr).
				Cause(err).
				Build()
		}
		if b == 0 {
			return n, nil
		}
	}
	return 0, errors.Overflow(phase, path, "unterminated string", limit)
}

// ReadCString copies the C string at ptr into a Go string.
func ReadCString(mem hermesffi.Memory, ptr uint32, limit uint32, path []string) (string, error) {
	n, err := StrLen(mem, ptr, limit, errors.PhaseDecode, path)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	data, err := mem.Read(ptr, n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.Malformed(errors.PhaseDecode, path, "string is not valid UTF-8")
	}
	return string(data), nil
}

// FreeCString measures and frees the C string at ptr. A null ptr is a no-op.
func FreeCString(mem hermesffi.Memory, alloc hermesffi.Allocator, ptr uint32, limit uint32, path []string) error {
	if ptr == 0 {
		return nil
	}
	n, err := StrLen(mem, ptr, limit, errors.PhaseRelease, path)
	if err != nil {
		return err
	}
	alloc.Free(ptr, n+1, 1)
	return nil
}
