package model

import (
	"strings"

	"github.com/fwupd/fustruct-go/pkg/diag"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// Schema is a resolved schema file.
type Schema struct {
	// Filename is the schema path as given to Load or Build.
	Filename string
	// Types holds enums and structs in declaration order.
	Types   []Type
	Enums   []*Enum
	Structs []*Struct
	// Uses are the recorded "use" paths.
	Uses []string

	byName map[string]Type
}

// Type is an *Enum or a *Struct.
type Type interface {
	TypeName() string
	TypePos() diag.Pos
}

// Lookup returns the type named name.
func (s *Schema) Lookup(name string) (Type, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Struct returns the struct named name, or nil.
func (s *Schema) Struct(name string) *Struct {
	st, _ := s.byName[name].(*Struct)
	return st
}

// Enum returns the enum named name, or nil.
func (s *Schema) Enum(name string) *Enum {
	e, _ := s.byName[name].(*Enum)
	return e
}

// Enum is a resolved enumeration.
type Enum struct {
	Name    string
	Pos     diag.Pos
	Derives []string
	// Bits is the wire width. It is a whole number of bytes unless the
	// repr is a sub-byte or odd width such as u4.
	Bits int
	// Endian applies to multi-byte enums.
	Endian wire.Endian
	// Repr is the #[repr] argument as written; empty when the width was
	// inferred.
	Repr     string
	Bitflags bool
	Variants []*Variant
	// Sentinel is the uN::MAX variant, if any.
	Sentinel *Variant
	// Used is set when a struct field refers to the enum.
	Used bool
}

// Variant is an enum member.
type Variant struct {
	Name  string
	Pos   diag.Pos
	Value uint64
	// Text is the value as written; empty for auto-incremented variants.
	Text     string
	Sentinel bool
}

// TypeName implements Type.
func (e *Enum) TypeName() string { return e.Name }

// TypePos implements Type.
func (e *Enum) TypePos() diag.Pos { return e.Pos }

// StorageBits is the width of the Go integer holding the enum: 8, 16, 32
// or 64.
func (e *Enum) StorageBits() int {
	return storageBits(e.Bits)
}

// HasDerive reports whether the enum derives name.
func (e *Enum) HasDerive(name string) bool {
	return contains(e.Derives, name)
}

// Variant returns the variant called name, or nil.
func (e *Enum) Variant(name string) *Variant {
	for _, v := range e.Variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Lookup returns the variant with discriminant v. Unknown values map to the
// sentinel when there is one and to nil otherwise.
func (e *Enum) Lookup(v uint64) *Variant {
	for _, vr := range e.Variants {
		if vr.Value == v {
			return vr
		}
	}
	return e.Sentinel
}

// KnownMask is the OR of all non-sentinel variant values.
func (e *Enum) KnownMask() uint64 {
	var m uint64
	for _, v := range e.Variants {
		if !v.Sentinel {
			m |= v.Value
		}
	}
	return m
}

// Struct is a resolved structure.
type Struct struct {
	Name    string
	Pos     diag.Pos
	Derives []string
	Packed  bool
	Fields  []*Field
	Groups  []*BitGroup
	// Size is the total wire size in bytes.
	Size int
	// Nested is set when another struct embeds this one.
	Nested bool
}

// TypeName implements Type.
func (s *Struct) TypeName() string { return s.Name }

// TypePos implements Type.
func (s *Struct) TypePos() diag.Pos { return s.Pos }

// HasDerive reports whether the struct derives name.
func (s *Struct) HasDerive(name string) bool {
	return contains(s.Derives, name)
}

// Field returns the field called name, or nil.
func (s *Struct) Field(name string) *Field {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasConstants reports whether any field, including those of nested
// structs, carries a constant.
func (s *Struct) HasConstants() bool {
	for _, f := range s.Fields {
		if f.Constant != nil {
			return true
		}
		if f.Struct != nil && f.Struct.HasConstants() {
			return true
		}
	}
	return false
}

// Kind classifies a field's wire representation.
type Kind uint8

const (
	// KindUint is u8, u16, u24, u32 or u64.
	KindUint Kind = iota + 1
	// KindInt is i8, i16, i32 or i64.
	KindInt
	// KindChar is a single char.
	KindChar
	// KindString is [char; N].
	KindString
	// KindBytes is [u8; N].
	KindBytes
	// KindGuid is Guid.
	KindGuid
	// KindEnum is a whole-byte enum reference.
	KindEnum
	// KindBits is a bitfield member: uN with N not a whole byte, or an enum
	// with such a repr.
	KindBits
	// KindStruct is a nested struct.
	KindStruct
	// KindStructArray is [Struct; N].
	KindStructArray
	// KindIntArray is an array of multi-byte or signed integers, e.g.
	// [u16le; 4].
	KindIntArray
)

var kindNames = [...]string{
	KindUint:        "uint",
	KindInt:         "int",
	KindChar:        "char",
	KindString:      "string",
	KindBytes:       "bytes",
	KindGuid:        "guid",
	KindEnum:        "enum",
	KindBits:        "bits",
	KindStruct:      "struct",
	KindStructArray: "struct-array",
	KindIntArray:    "int-array",
}

// String returns the kind name used in the IR.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Field is a resolved struct member.
type Field struct {
	Name string
	Pos  diag.Pos
	// TypeText is the type as written, e.g. "u32le" or "[char; 4]".
	TypeText string
	Kind     Kind
	// Bits is the integer width for KindUint, KindInt, KindEnum, KindBits
	// and the element width for KindIntArray.
	Bits   int
	Signed bool
	Endian wire.Endian
	// ExplicitEndian is set when the type carried a le or be suffix.
	ExplicitEndian bool
	// Offset and Size are in bytes. For KindBits they describe the whole
	// container; Shift gives the member's position inside it.
	Offset int
	Size   int
	// Len is the element count of array kinds.
	Len    int
	Enum   *Enum
	Struct *Struct
	Group  *BitGroup
	Shift  int

	Constant *Value
	Default  *Value

	// Parent is the containing struct.
	Parent *Struct
}

// Enabled reports whether the field gets accessors. Fields named reserved
// or starting with an underscore are layout-only.
func (f *Field) Enabled() bool {
	return f.Name != "reserved" && !strings.HasPrefix(f.Name, "_")
}

// QualifiedName returns "Struct.field".
func (f *Field) QualifiedName() string {
	if f.Parent == nil {
		return f.Name
	}
	return f.Parent.Name + "." + f.Name
}

// ElemSize is the byte width of one element of an array kind, or Size for
// scalar kinds.
func (f *Field) ElemSize() int {
	if f.Len > 0 {
		return f.Size / f.Len
	}
	return f.Size
}

// IsArray reports whether the field has a length.
func (f *Field) IsArray() bool {
	return f.Len > 0
}

// IsInteger reports whether the field decodes to a single integer.
func (f *Field) IsInteger() bool {
	switch f.Kind {
	case KindUint, KindInt, KindEnum, KindBits:
		return true
	}
	return false
}

// BitGroup is a run of consecutive bitfield members sharing one container
// integer.
type BitGroup struct {
	Offset int
	// Size is the container width in bytes: 1, 2, 3, 4 or 8.
	Size   int
	Endian wire.Endian
	// UsedBits is the sum of the member widths.
	UsedBits int
	Fields   []*Field
}

// Value is a resolved constant or default.
type Value struct {
	// Text is the expression as written.
	Text string
	// Int holds integer, char and enum values.
	Int uint64
	// Bytes holds the exact wire bytes of string, byte array and Guid
	// values, padded to the field size.
	Bytes []byte
	// Variant is set for enum values given by name.
	Variant *Variant
	// Fill marks a single-byte pattern repeated over a byte array.
	Fill bool
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// storageBits rounds a width up to a Go integer size.
func storageBits(bits int) int {
	switch {
	case bits <= 8:
		return 8
	case bits <= 16:
		return 16
	case bits <= 32:
		return 32
	default:
		return 64
	}
}
