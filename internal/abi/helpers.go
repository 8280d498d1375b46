package abi

import (
	"math"
	"reflect"
)

// PointerSize is the width of a foreign pointer in bytes.
const PointerSize = 4

const (
	MaxStringSize  = 1 << 24 // 16 MB max string size
	MaxBufferSize  = 1 << 28 // 256 MB max byte buffer
	MaxArrayLength = 1 << 20 // 1M max array elements
)

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// IsNil reports whether value is nil or a nil pointer.
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// BoolByte encodes a boolean as the single-byte foreign scalar.
func BoolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
