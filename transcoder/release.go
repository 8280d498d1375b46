package transcoder

import (
	"github.com/wippyai/hermes-ffi/errors"
	"github.com/wippyai/hermes-ffi/internal/abi"
	"github.com/wippyai/hermes-ffi/transcoder/layout"
)

// releaser walks a record layout and frees everything the record owns.
// Nested content is freed before the block that points to it. Null
// pointers are skipped. The walk stops at the first malformed field.
type releaser struct {
	t *Transcoder
}

func (rl releaser) fieldPath(path []string, name string) []string {
	p := make([]string, len(path), len(path)+1)
	copy(p, path)
	return append(p, name)
}

func (rl releaser) read(addr uint32) (uint32, error) {
	return rl.t.mem.ReadU32(addr)
}

// fields releases the content of the record instance at base, not the
// block itself.
func (rl releaser) fields(rec *layout.Record, base uint32, path []string) error {
	mem, alloc, cfg := rl.t.mem, rl.t.alloc, &rl.t.cfg

	for i := range rec.Fields {
		f := &rec.Fields[i]
		addr := base + f.Offset
		fpath := rl.fieldPath(path, f.Name)

		switch f.Shape {
		case layout.String:
			p, err := rl.read(addr)
			if err != nil {
				return err
			}
			if err := abi.FreeCString(mem, alloc, p, cfg.MaxStringSize, fpath); err != nil {
				return err
			}

		case layout.Buffer:
			p, err := rl.read(addr)
			if err != nil {
				return err
			}
			if p == 0 {
				continue
			}
			lf, _ := rec.Field(f.Sibling)
			n, err := rl.read(base + lf.Offset)
			if err != nil {
				return err
			}
			if int32(n) < 0 {
				return errors.Malformed(errors.PhaseRelease, fpath, "negative buffer length")
			}
			alloc.Free(p, n, 1)

		case layout.StringArray:
			p, err := rl.read(addr)
			if err != nil {
				return err
			}
			if err := rl.stringArray(p, fpath); err != nil {
				return err
			}

		case layout.Embedded:
			if err := rl.fields(f.Elem, addr, fpath); err != nil {
				return err
			}

		case layout.RecordPtr:
			p, err := rl.read(addr)
			if err != nil {
				return err
			}
			if err := rl.block(f.Elem, p, fpath); err != nil {
				return err
			}

		case layout.Opaque:
			p, err := rl.read(addr)
			if err != nil {
				return err
			}
			if p == 0 {
				continue
			}
			release, err := opaqueReleaser(f.Opaque)
			if err != nil {
				return err
			}
			if err := release(mem, alloc, p); err != nil {
				return err
			}

		case layout.Union:
			if err := rl.union(rec, f, base, fpath); err != nil {
				return err
			}
		}
	}
	return nil
}

// block releases a pointed-to record instance and then its block.
func (rl releaser) block(rec *layout.Record, ptr uint32, path []string) error {
	if ptr == 0 {
		return nil
	}
	if err := rl.fields(rec, ptr, path); err != nil {
		return err
	}
	rl.t.alloc.Free(ptr, rec.Size, rec.Align)
	return nil
}

func (rl releaser) union(rec *layout.Record, f *layout.Field, base uint32, path []string) error {
	df, _ := rec.Field(f.Sibling)
	raw, err := rl.read(base + df.Offset)
	if err != nil {
		return err
	}
	disc := int32(raw)
	if disc < 1 || disc > df.Max {
		return errors.InvalidDiscriminant(errors.PhaseRelease, rl.fieldPath(path[:len(path)-1], f.Sibling), disc, df.Max)
	}

	p, err := rl.read(base + f.Offset)
	if err != nil {
		return err
	}
	if p == 0 {
		return nil
	}

	v := f.Variants[disc-1]
	switch v.Shape {
	case layout.String:
		return abi.FreeCString(rl.t.mem, rl.t.alloc, p, rl.t.cfg.MaxStringSize, path)
	case layout.RecordPtr:
		return rl.block(v.Elem, p, path)
	}
	return nil
}

func (rl releaser) stringArray(arr uint32, path []string) error {
	if arr == 0 {
		return nil
	}
	mem, alloc, cfg := rl.t.mem, rl.t.alloc, &rl.t.cfg

	data, err := mem.ReadU32(arr + layout.StringArrayDataOffset)
	if err != nil {
		return err
	}
	size, err := mem.ReadU32(arr + layout.StringArraySizeOffset)
	if err != nil {
		return err
	}
	if int32(size) < 0 || size > cfg.MaxArrayLength {
		return errors.Malformed(errors.PhaseRelease, path, "string array size out of range")
	}

	if data != 0 {
		for i := uint32(0); i < size; i++ {
			p, err := mem.ReadU32(data + i*abi.PointerSize)
			if err != nil {
				return err
			}
			if err := abi.FreeCString(mem, alloc, p, cfg.MaxStringSize, path); err != nil {
				return err
			}
		}
		alloc.Free(data, size*abi.PointerSize, abi.PointerSize)
	}
	alloc.Free(arr, layout.StringArraySize, layout.StringArrayAlign)
	return nil
}
