package schema

import "github.com/fwupd/fustruct-go/pkg/diag"

// Derives lists the trait names accepted inside #[derive(...)].
var Derives = []string{
	"New",
	"Default",
	"Parse",
	"ParseStream",
	"ParseBytes",
	"Validate",
	"ValidateStream",
	"ValidateBytes",
	"ToString",
	"FromString",
	"Getters",
	"Setters",
	"ToBitString",
}

// IsDerive reports whether name is a known derive.
func IsDerive(name string) bool {
	for _, d := range Derives {
		if d == name {
			return true
		}
	}
	return false
}

// File is a parsed schema file.
type File struct {
	Name string
	// Attrs are the inner #![...] attributes.
	Attrs []Attr
	Uses  []Use
	Decls []Decl
}

// Use is a "use path;" line. It has no effect on generation.
type Use struct {
	Pos  diag.Pos
	Path string
}

// Ident is a name with its position.
type Ident struct {
	Pos  diag.Pos
	Name string
}

// Attr is one attribute such as #[derive(New, Parse)] or #[repr(u8)].
type Attr struct {
	Pos  diag.Pos
	Name string
	Args []Ident
}

// Decl is an *EnumDecl or a *StructDecl.
type Decl interface {
	DeclName() string
	DeclPos() diag.Pos
	DeclAttrs() []Attr
}

// EnumDecl is an enum declaration.
type EnumDecl struct {
	Pos      diag.Pos
	Name     string
	Attrs    []Attr
	Variants []*Variant
}

// Variant is one enum member with an optional explicit value.
type Variant struct {
	Pos   diag.Pos
	Name  string
	Value *Expr
}

// StructDecl is a struct declaration.
type StructDecl struct {
	Pos    diag.Pos
	Name   string
	Attrs  []Attr
	Fields []*FieldDecl
}

// FieldDecl is "name: Type [= default | == constant]".
type FieldDecl struct {
	Pos      diag.Pos
	Name     string
	Type     *TypeExpr
	Default  *Expr
	Constant *Expr
}

// TypeExpr names a field type. Array types carry the element name and a
// length expression.
type TypeExpr struct {
	Pos   diag.Pos
	Name  string
	Array bool
	Len   *Expr
}

// String renders the type as written, e.g. "[char; 4]".
func (t *TypeExpr) String() string {
	if !t.Array {
		return t.Name
	}
	return "[" + t.Name + "; " + t.Len.Text + "]"
}

// ExprKind classifies a literal expression.
type ExprKind uint8

const (
	// ExprInt is an integer that fits in 64 bits, possibly written 1 << k.
	ExprInt ExprKind = iota + 1
	// ExprHex is a hex literal too wide for 64 bits; Bytes holds its value
	// big-endian with one byte per two digits.
	ExprHex
	// ExprString is a double-quoted literal; Bytes holds the decoded bytes.
	ExprString
	// ExprIdent names an enum variant.
	ExprIdent
	// ExprMax is uN::MAX.
	ExprMax
	// ExprStructSize is $struct_size.
	ExprStructSize
	// ExprStructOffset is $struct_offset.
	ExprStructOffset
)

// Expr is a literal value on the right of "=" or "==".
type Expr struct {
	Pos  diag.Pos
	Kind ExprKind
	// Text is the source form kept verbatim, e.g. "u64::MAX" or "1 << 3".
	Text string
	// Value is set for ExprInt and ExprMax.
	Value uint64
	// Bytes is set for ExprHex and ExprString. For ExprInt written in hex it
	// holds the literal's bytes as well.
	Bytes []byte
	// Name is set for ExprIdent; for ExprMax it is the type, e.g. "u64".
	Name string
	// Shift is set when the value was written 1 << k.
	Shift bool
	// HexDigits is the digit count of a hex literal, 0 otherwise.
	HexDigits int
	// Negative marks an ExprInt written with a leading '-'; Value holds its
	// magnitude.
	Negative bool
}

// DeclName implements Decl.
func (d *EnumDecl) DeclName() string { return d.Name }

// DeclPos implements Decl.
func (d *EnumDecl) DeclPos() diag.Pos { return d.Pos }

// DeclAttrs implements Decl.
func (d *EnumDecl) DeclAttrs() []Attr { return d.Attrs }

// DeclName implements Decl.
func (d *StructDecl) DeclName() string { return d.Name }

// DeclPos implements Decl.
func (d *StructDecl) DeclPos() diag.Pos { return d.Pos }

// DeclAttrs implements Decl.
func (d *StructDecl) DeclAttrs() []Attr { return d.Attrs }

// findAttr returns the first attribute named name.
func findAttr(attrs []Attr, name string) (Attr, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// DeriveNames returns the derives of a declaration in source order.
func DeriveNames(d Decl) []string {
	var out []string
	for _, a := range d.DeclAttrs() {
		if a.Name != "derive" {
			continue
		}
		for _, arg := range a.Args {
			out = append(out, arg.Name)
		}
	}
	return out
}

// Repr returns the #[repr(...)] arguments of a declaration.
func Repr(d Decl) ([]Ident, bool) {
	a, ok := findAttr(d.DeclAttrs(), "repr")
	if !ok {
		return nil, false
	}
	return a.Args, true
}
