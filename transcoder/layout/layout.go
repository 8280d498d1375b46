package layout

import (
	"fmt"

	"github.com/wippyai/hermes-ffi/internal/abi"
)

// Shape is the foreign representation of a field.
type Shape uint8

const (
	Bool Shape = iota + 1
	I32
	U64
	F32
	Enum
	Length
	String
	Buffer
	StringArray
	Embedded
	RecordPtr
	Opaque
	Union
)

var shapeNames = [...]string{
	Bool:        "bool",
	I32:         "i32",
	U64:         "u64",
	F32:         "f32",
	Enum:        "enum",
	Length:      "length",
	String:      "string",
	Buffer:      "buffer",
	StringArray: "string_array",
	Embedded:    "embedded",
	RecordPtr:   "record_ptr",
	Opaque:      "opaque",
	Union:       "union",
}

func (s Shape) String() string {
	if s == 0 || int(s) >= len(shapeNames) {
		return "unknown"
	}
	return shapeNames[s]
}

// Pointer reports whether the shape is stored as a 32-bit pointer.
func (s Shape) Pointer() bool {
	switch s {
	case String, Buffer, StringArray, RecordPtr, Opaque, Union:
		return true
	}
	return false
}

// Info holds size and alignment.
type Info struct {
	Size  uint32
	Align uint32
}

// Info returns the size and alignment of a shape. Embedded has no fixed
// size; use the nested record's Info.
func (s Shape) Info() Info {
	switch s {
	case Bool:
		return Info{Size: 1, Align: 1}
	case U64:
		return Info{Size: 8, Align: 8}
	case Embedded:
		return Info{}
	default:
		return Info{Size: abi.PointerSize, Align: abi.PointerSize}
	}
}

// CArrayString geometry: { data: ptr -> u32[size], size: i32 }.
const (
	StringArraySize       = 8
	StringArrayAlign      = 4
	StringArrayDataOffset = 0
	StringArraySizeOffset = 4
)

// Variant is one alternative of a Union, selected by discriminant
// index+1. Shape is String or RecordPtr.
type Variant struct {
	Elem  *Record
	Name  string
	Shape Shape
}

// Field describes one field of a record.
type Field struct {
	Elem     *Record
	Name     string
	Sibling  string
	Opaque   string
	Variants []Variant
	Offset   uint32
	Size     uint32
	Align    uint32
	Max      int32
	Shape    Shape
	Nullable bool
}

// Record is a compiled foreign record layout.
type Record struct {
	index  map[string]int
	Name   string
	Fields []Field
	Size   uint32
	Align  uint32
}

// Info returns the record's size and alignment.
func (r *Record) Info() Info {
	return Info{Size: r.Size, Align: r.Align}
}

// Field looks a field up by name.
func (r *Record) Field(name string) (*Field, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return &r.Fields[i], true
}

// NewRecord computes offsets for fields and validates sibling references.
func NewRecord(name string, fields ...Field) (*Record, error) {
	r := &Record{
		Name:   name,
		Fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
		Align:  1,
	}
	copy(r.Fields, fields)

	offset := uint32(0)
	for i := range r.Fields {
		f := &r.Fields[i]
		if _, dup := r.index[f.Name]; dup {
			return nil, fmt.Errorf("layout %s: duplicate field %q", name, f.Name)
		}
		r.index[f.Name] = i

		info := f.Shape.Info()
		if f.Shape == Embedded {
			if f.Elem == nil {
				return nil, fmt.Errorf("layout %s.%s: inline record without element", name, f.Name)
			}
			info = f.Elem.Info()
		}
		f.Size, f.Align = info.Size, info.Align

		offset = abi.AlignTo(offset, f.Align)
		f.Offset = offset
		offset += f.Size

		if f.Align > r.Align {
			r.Align = f.Align
		}
	}
	r.Size = abi.AlignTo(offset, r.Align)

	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRecord is NewRecord for static layouts; it panics on error.
func MustRecord(name string, fields ...Field) *Record {
	r, err := NewRecord(name, fields...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Record) validate() error {
	for i := range r.Fields {
		f := &r.Fields[i]
		switch f.Shape {
		case Buffer:
			s, ok := r.Field(f.Sibling)
			if !ok || s.Shape != Length {
				return fmt.Errorf("layout %s.%s: buffer sibling %q is not a length", r.Name, f.Name, f.Sibling)
			}
		case Enum:
			if f.Max < 1 {
				return fmt.Errorf("layout %s.%s: enum without values", r.Name, f.Name)
			}
		case Union:
			s, ok := r.Field(f.Sibling)
			if !ok || s.Shape != Enum {
				return fmt.Errorf("layout %s.%s: union discriminant %q is not an enum", r.Name, f.Name, f.Sibling)
			}
			if int(s.Max) != len(f.Variants) {
				return fmt.Errorf("layout %s.%s: %d variants for enum max %d", r.Name, f.Name, len(f.Variants), s.Max)
			}
			for _, v := range f.Variants {
				if v.Shape != String && v.Shape != RecordPtr {
					return fmt.Errorf("layout %s.%s: variant %s has shape %s", r.Name, f.Name, v.Name, v.Shape)
				}
				if v.Shape == RecordPtr && v.Elem == nil {
					return fmt.Errorf("layout %s.%s: variant %s without element", r.Name, f.Name, v.Name)
				}
			}
		case RecordPtr:
			if f.Elem == nil {
				return fmt.Errorf("layout %s.%s: record pointer without element", r.Name, f.Name)
			}
		case Opaque:
			if f.Opaque == "" {
				return fmt.Errorf("layout %s.%s: opaque field without a type name", r.Name, f.Name)
			}
		case 0:
			return fmt.Errorf("layout %s.%s: missing shape", r.Name, f.Name)
		}
	}
	return nil
}

// Str is a required string field.
func Str(name string) Field { return Field{Name: name, Shape: String} }

// OptStr is a nullable string field.
func OptStr(name string) Field { return Field{Name: name, Shape: String, Nullable: true} }

// Scalar is a Bool, I32, U64 or F32 field.
func Scalar(name string, shape Shape) Field { return Field{Name: name, Shape: shape} }

// Buf is a byte buffer whose length lives in the Length field lengthField.
func Buf(name, lengthField string) Field {
	return Field{Name: name, Shape: Buffer, Sibling: lengthField}
}

// Len is the length companion of a Buf.
func Len(name string) Field { return Field{Name: name, Shape: Length} }

// Strings is a string array field.
func Strings(name string, nullable bool) Field {
	return Field{Name: name, Shape: StringArray, Nullable: nullable}
}

// EnumOf is a discriminant accepting 1..maxValue.
func EnumOf(name string, maxValue int32) Field {
	return Field{Name: name, Shape: Enum, Max: maxValue}
}

// Inline embeds r in place.
func Inline(name string, r *Record) Field { return Field{Name: name, Shape: Embedded, Elem: r} }

// Ptr is an owned pointer to r.
func Ptr(name string, r *Record, nullable bool) Field {
	return Field{Name: name, Shape: RecordPtr, Elem: r, Nullable: nullable}
}

// OpaqueOf is an owned pointer to the ontology structure typeName.
func OpaqueOf(name, typeName string, nullable bool) Field {
	return Field{Name: name, Shape: Opaque, Opaque: typeName, Nullable: nullable}
}

// UnionOf is a pointer selected by the Enum field disc.
func UnionOf(name, disc string, variants ...Variant) Field {
	return Field{Name: name, Shape: Union, Sibling: disc, Variants: variants}
}
