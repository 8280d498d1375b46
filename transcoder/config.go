package transcoder

import (
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/internal/abi"
)

// Config holds conversion limits.
type Config struct {
	// MaxStringSize bounds a single string in bytes, excluding the terminator.
	// 0 means 16 MB.
	MaxStringSize uint32

	// MaxBufferSize bounds a byte buffer. 0 means 256 MB.
	MaxBufferSize uint32

	// MaxArrayLength bounds the element count of a string array. 0 means 1M.
	MaxArrayLength uint32
}

// DefaultConfig returns the default limits.
func DefaultConfig() *Config {
	return &Config{
		MaxStringSize:  abi.MaxStringSize,
		MaxBufferSize:  abi.MaxBufferSize,
		MaxArrayLength: abi.MaxArrayLength,
	}
}

const (
	maxStringLimit = abi.MaxStringSize * 16
	maxBufferLimit = 1<<31 - 1
	maxArrayLimit  = (1<<31 - 1) / abi.PointerSize
)

// resolve fills zero limits with defaults and clamps the rest to what
// a 32-bit foreign side can represent, so a Transcoder built from an
// unvalidated Config never emits a length that wraps.
func (c *Config) resolve() Config {
	out := *DefaultConfig()
	if c == nil {
		return out
	}
	if c.MaxStringSize > 0 {
		out.MaxStringSize = min(c.MaxStringSize, maxStringLimit)
	}
	if c.MaxBufferSize > 0 {
		out.MaxBufferSize = min(c.MaxBufferSize, maxBufferLimit)
	}
	if c.MaxArrayLength > 0 {
		out.MaxArrayLength = min(c.MaxArrayLength, maxArrayLimit)
	}
	return out
}

// Validate rejects limits a 32-bit foreign side cannot represent.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.MaxStringSize > maxStringLimit {
		return errors.InvalidInput(errors.PhaseConfig, "max string size exceeds 256 MB")
	}
	if c.MaxArrayLength > maxArrayLimit {
		return errors.InvalidInput(errors.PhaseConfig, "max array length does not fit a 32-bit pointer table")
	}
	if c.MaxBufferSize > maxBufferLimit {
		return errors.InvalidInput(errors.PhaseConfig, "max buffer size does not fit an i32 length")
	}
	return nil
}
