package traits

import (
	"fmt"

	"github.com/fwupd/fustruct-go/pkg/model"
)

// Signature is one public function or method of the generated API.
type Signature struct {
	// Type is the schema type the function belongs to.
	Type string
	// Trait is the operation that produced it; Getters and Setters for
	// field accessors.
	Trait Trait
	// Name is the Go identifier.
	Name string
	// Decl is the Go declaration without a body.
	Decl string
}

// Functions returns the public API of the plan in declaration order.
func (p *Plan) Functions() []Signature {
	var out []Signature
	for _, t := range p.Schema.Types {
		switch t := t.(type) {
		case *model.Enum:
			out = append(out, p.enums[t].functions()...)
		case *model.Struct:
			out = append(out, p.structs[t].functions()...)
		}
	}
	return out
}

func (ep *EnumPlan) functions() []Signature {
	name := ep.Enum.Name
	var out []Signature
	add := func(t Trait, fn, decl string) {
		out = append(out, Signature{Type: name, Trait: t, Name: fn, Decl: decl})
	}
	if ep.Export(ToString) == ExportPublic {
		add(ToString, "String", fmt.Sprintf("func (v %s) String() string", name))
	}
	if ep.Export(FromString) == ExportPublic {
		fn := name + "FromString"
		add(FromString, fn, fmt.Sprintf("func %s(s string) (%s, error)", fn, name))
	}
	if ep.Export(ToBitString) == ExportPublic {
		add(ToBitString, "BitString", fmt.Sprintf("func (v %s) BitString() string", name))
	}
	return out
}

func (sp *StructPlan) functions() []Signature {
	name := sp.Struct.Name
	ptr := "*" + name
	var out []Signature
	add := func(t Trait, fn, decl string) {
		out = append(out, Signature{Type: name, Trait: t, Name: fn, Decl: decl})
	}
	pub := func(t Trait) bool { return sp.Export(t) == ExportPublic }

	if pub(New) {
		add(New, NewFunc(name), fmt.Sprintf("func %s() %s", NewFunc(name), ptr))
	}
	if pub(Default) {
		add(Default, DefaultFunc(name), fmt.Sprintf("func %s() %s", DefaultFunc(name), ptr))
	}
	if pub(Parse) {
		fn := ParseFunc(name)
		add(Parse, fn, fmt.Sprintf("func %s(buf []byte, offset int) (%s, error)", fn, ptr))
	}
	if pub(ParseBytes) {
		fn := ParseFunc(name) + "Bytes"
		add(ParseBytes, fn, fmt.Sprintf("func %s(buf []byte, offset int) (%s, []byte, error)", fn, ptr))
	}
	if pub(ParseStream) {
		fn := ParseFunc(name) + "Stream"
		add(ParseStream, fn, fmt.Sprintf("func %s(r io.Reader) (%s, error)", fn, ptr))
	}
	if pub(Validate) {
		fn := ValidateFunc(name)
		add(Validate, fn, fmt.Sprintf("func %s(buf []byte, offset int) error", fn))
	}
	if pub(ValidateBytes) {
		fn := ValidateFunc(name) + "Bytes"
		add(ValidateBytes, fn, fmt.Sprintf("func %s(buf []byte, offset int) ([]byte, error)", fn))
	}
	if pub(ValidateStream) {
		fn := ValidateFunc(name) + "Stream"
		add(ValidateStream, fn, fmt.Sprintf("func %s(r io.Reader) error", fn))
	}
	for _, fp := range sp.Fields {
		if fp.Getter == ExportPublic {
			add(Getters, GetterName(fp.Field), "func (st "+ptr+") "+GetterSig(fp.Field))
		}
		if fp.Setter == ExportPublic {
			add(Setters, SetterName(fp.Field), "func (st "+ptr+") "+SetterSig(fp.Field))
		}
	}
	add("", "Bytes", fmt.Sprintf("func (st %s) Bytes() []byte", ptr))
	if pub(ToString) {
		add(ToString, "String", fmt.Sprintf("func (st %s) String() string", ptr))
	}
	return out
}

// NewFunc is the name of the New constructor of a struct.
func NewFunc(name string) string { return "New" + name }

// DefaultFunc is the name of the Default constructor of a struct.
func DefaultFunc(name string) string { return "Default" + name }

// ParseFunc is the name of the Parse function of a struct. The Bytes and
// Stream variants append a suffix.
func ParseFunc(name string) string { return "Parse" + name }

// ValidateFunc is the name of the Validate function of a struct.
func ValidateFunc(name string) string { return "Validate" + name }

// GetterName returns the accessor name of f. Names that would shadow the
// Bytes or String methods get a "Field" suffix.
func GetterName(f *model.Field) string {
	n := model.GoName(f.Name)
	if n == "Bytes" || n == "String" {
		n += "Field"
	}
	return n
}

// SetterName returns the mutator name of f.
func SetterName(f *model.Field) string {
	return "Set" + model.GoName(f.Name)
}

// GoType returns the Go type an accessor of f uses. Arrays of structs
// report the element type.
func GoType(f *model.Field) string {
	switch f.Kind {
	case model.KindUint, model.KindBits:
		if f.Enum != nil {
			return f.Enum.Name
		}
		return UintType(f.Bits)
	case model.KindInt:
		return fmt.Sprintf("int%d", f.Bits)
	case model.KindChar:
		return "byte"
	case model.KindString:
		return "string"
	case model.KindBytes:
		return "[]byte"
	case model.KindGuid:
		return "wire.Guid"
	case model.KindEnum:
		return f.Enum.Name
	case model.KindStruct, model.KindStructArray:
		return "*" + f.Struct.Name
	case model.KindIntArray:
		elem := UintType(f.Bits)
		if f.Signed {
			elem = fmt.Sprintf("int%d", f.Bits)
		}
		return fmt.Sprintf("[%d]%s", f.Len, elem)
	}
	return "any"
}

// UintType returns the smallest Go unsigned type holding bits bits.
func UintType(bits int) string {
	switch {
	case bits <= 8:
		return "uint8"
	case bits <= 16:
		return "uint16"
	case bits <= 32:
		return "uint32"
	default:
		return "uint64"
	}
}

// GetterErr reports whether the accessor of f returns an error. Character
// arrays can hold invalid UTF-8 and struct arrays take an index.
func GetterErr(f *model.Field) bool {
	return f.Kind == model.KindString || f.Kind == model.KindStructArray
}

// SetterErr reports whether the mutator of f returns an error, which is
// the case when the Go type can hold values the wire width cannot.
func SetterErr(f *model.Field) bool {
	switch f.Kind {
	case model.KindBits, model.KindString, model.KindBytes, model.KindStructArray:
		return true
	case model.KindUint, model.KindIntArray:
		return f.Bits == 24
	case model.KindEnum:
		return f.Enum.Bits != f.Enum.StorageBits()
	}
	return false
}

// GetterSig is the method signature of the accessor of f.
func GetterSig(f *model.Field) string {
	name, typ := GetterName(f), GoType(f)
	switch {
	case f.Kind == model.KindStructArray:
		return fmt.Sprintf("%s(idx int) (%s, error)", name, typ)
	case GetterErr(f):
		return fmt.Sprintf("%s() (%s, error)", name, typ)
	}
	return fmt.Sprintf("%s() %s", name, typ)
}

// SetterSig is the method signature of the mutator of f.
func SetterSig(f *model.Field) string {
	name, typ := SetterName(f), GoType(f)
	switch {
	case f.Kind == model.KindStructArray:
		return fmt.Sprintf("%s(idx int, v %s) error", name, typ)
	case SetterErr(f):
		return fmt.Sprintf("%s(v %s) error", name, typ)
	}
	return fmt.Sprintf("%s(v %s)", name, typ)
}
