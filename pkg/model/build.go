package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/fwupd/fustruct-go/pkg/diag"
	"github.com/fwupd/fustruct-go/pkg/schema"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// Load parses src and builds it.
func Load(filename string, src []byte) (*Schema, diag.List) {
	f, err := schema.Parse(filename, src)
	if err != nil {
		var se *schema.Error
		if errors.As(err, &se) {
			return nil, diag.List{se.Diagnostic()}
		}
		var l diag.List
		l.Errorf(diag.Pos{Filename: filename}, diag.CodeSyntax, "%v", err)
		return nil, l
	}
	return Build(f)
}

// Build resolves and lays out a parsed file. The returned schema is
// complete only when the list holds no errors.
func Build(f *schema.File) (*Schema, diag.List) {
	b := &builder{
		s: &Schema{
			Filename: f.Name,
			byName:   make(map[string]Type),
		},
		enumDecls:   make(map[*Enum]*schema.EnumDecl),
		structDecls: make(map[*Struct]*schema.StructDecl),
		state:       make(map[*Struct]layoutState),
	}
	for _, u := range f.Uses {
		b.s.Uses = append(b.s.Uses, u.Path)
	}
	b.declare(f)
	for _, e := range b.s.Enums {
		b.resolveEnum(e)
	}
	for _, st := range b.s.Structs {
		b.layout(st)
	}
	for _, st := range b.s.Structs {
		b.resolveValues(st)
	}
	b.checkUsage()
	b.diags.Sort()
	return b.s, b.diags
}

type layoutState uint8

const (
	layoutPending layoutState = iota
	layoutActive
	layoutDone
)

type builder struct {
	s           *Schema
	diags       diag.List
	enumDecls   map[*Enum]*schema.EnumDecl
	structDecls map[*Struct]*schema.StructDecl
	state       map[*Struct]layoutState
}

var (
	enumDerives = map[string]bool{"ToString": true, "FromString": true, "ToBitString": true}
	// structs take every derive except the enum-only ones
	enumOnlyDerives = map[string]bool{"FromString": true, "ToBitString": true}
)

func (b *builder) declare(f *schema.File) {
	for _, d := range f.Decls {
		name := d.DeclName()
		if prev, ok := b.s.byName[name]; ok {
			b.diags.Errorf(d.DeclPos(), diag.CodeDuplicateName, "%s is already declared at %s", name, prev.TypePos())
			continue
		}
		derives := b.checkAttrs(d)
		var t Type
		switch d := d.(type) {
		case *schema.EnumDecl:
			e := &Enum{Name: d.Name, Pos: d.Pos, Derives: derives}
			b.enumDecls[e] = d
			b.s.Enums = append(b.s.Enums, e)
			t = e
		case *schema.StructDecl:
			st := &Struct{Name: d.Name, Pos: d.Pos, Derives: derives, Packed: true}
			b.structDecls[st] = d
			b.s.Structs = append(b.s.Structs, st)
			t = st
		default:
			continue
		}
		b.s.byName[name] = t
		b.s.Types = append(b.s.Types, t)
	}
}

// checkAttrs validates the attribute list of d and returns its derives
// without duplicates.
func (b *builder) checkAttrs(d schema.Decl) []string {
	_, isEnum := d.(*schema.EnumDecl)
	var derives []string
	seen := make(map[string]bool)
	for _, a := range d.DeclAttrs() {
		switch a.Name {
		case "derive":
			for _, arg := range a.Args {
				switch {
				case !schema.IsDerive(arg.Name):
					b.diags.Errorf(arg.Pos, diag.CodeUnknownDerive, "unknown derive %q", arg.Name)
				case isEnum && !enumDerives[arg.Name]:
					b.diags.Errorf(arg.Pos, diag.CodeUnknownDerive, "derive %s does not apply to enum %s", arg.Name, d.DeclName())
				case !isEnum && enumOnlyDerives[arg.Name]:
					b.diags.Errorf(arg.Pos, diag.CodeUnknownDerive, "derive %s does not apply to struct %s", arg.Name, d.DeclName())
				case !seen[arg.Name]:
					seen[arg.Name] = true
					derives = append(derives, arg.Name)
				}
			}
		case "repr":
		default:
			b.diags.Warnf(a.Pos, diag.CodeUnknownAttribute, "unknown attribute #[%s] is ignored", a.Name)
		}
	}
	return derives
}

// intType matches u8, u16le, i32be and the bitfield widths u1..u63.
var intType = regexp.MustCompile(`^([ui])([0-9]+)(le|be)?$`)

type intSpec struct {
	bits     int
	signed   bool
	endian   wire.Endian
	explicit bool
}

func parseIntType(name string) (intSpec, bool) {
	m := intType.FindStringSubmatch(name)
	if m == nil {
		return intSpec{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 || n > 64 {
		return intSpec{}, false
	}
	spec := intSpec{bits: n, signed: m[1] == "i"}
	switch m[3] {
	case "le":
		spec.explicit = true
	case "be":
		spec.endian, spec.explicit = wire.BigEndian, true
	}
	return spec, true
}

// wholeWidth reports whether bits is a width with a byte-aligned wire form.
func wholeWidth(bits int, signed bool) bool {
	switch bits {
	case 8, 16, 32, 64:
		return true
	case 24:
		return !signed
	}
	return false
}

func (b *builder) resolveEnum(e *Enum) {
	d := b.enumDecls[e]
	args, hasRepr := schema.Repr(d)
	if hasRepr {
		if len(args) != 1 {
			b.diags.Errorf(d.Pos, diag.CodeInvalidRepr, "enum %s repr must name one unsigned integer type", e.Name)
			hasRepr = false
		} else if spec, ok := parseIntType(args[0].Name); !ok || spec.signed {
			b.diags.Errorf(args[0].Pos, diag.CodeInvalidRepr, "%s is not a valid enum repr", args[0].Name)
			hasRepr = false
		} else {
			e.Bits, e.Endian, e.Repr = spec.bits, spec.endian, args[0].Name
			if spec.bits > 8 && spec.bits%8 == 0 && !spec.explicit {
				b.diags.Warnf(args[0].Pos, diag.CodeImplicitEndian, "enum %s repr %s has no le or be suffix, using little-endian", e.Name, args[0].Name)
			}
		}
	}
	if len(d.Variants) == 0 {
		b.diags.Errorf(d.Pos, diag.CodeInvalidValue, "enum %s has no variants", e.Name)
	}

	var next uint64
	afterSentinel, wrapped := false, false
	for _, vd := range d.Variants {
		v := &Variant{Name: vd.Name, Pos: vd.Pos}
		switch {
		case vd.Value == nil:
			if afterSentinel || wrapped {
				b.diags.Errorf(vd.Pos, diag.CodeInvalidValue, "variant %s.%s needs an explicit value", e.Name, vd.Name)
			}
			v.Value = next
		case vd.Value.Kind == schema.ExprInt && vd.Value.Negative:
			b.diags.Errorf(vd.Value.Pos, diag.CodeConstantOutOfRange, "variant %s.%s cannot be negative, got %s", e.Name, vd.Name, vd.Value.Text)
		case vd.Value.Kind == schema.ExprInt:
			v.Value, v.Text = vd.Value.Value, vd.Value.Text
			if vd.Value.Shift {
				e.Bitflags = true
			}
		case vd.Value.Kind == schema.ExprMax:
			v.Sentinel, v.Text = true, vd.Value.Text
			if e.Sentinel != nil {
				b.diags.Errorf(vd.Pos, diag.CodeInvalidValue, "enum %s already has sentinel %s", e.Name, e.Sentinel.Name)
				v.Sentinel = false
				v.Value = vd.Value.Value
			} else {
				e.Sentinel = v
			}
		default:
			b.diags.Errorf(vd.Value.Pos, diag.CodeInvalidValue, "variant %s.%s needs an integer value, got %s", e.Name, vd.Name, vd.Value.Text)
		}
		e.Variants = append(e.Variants, v)
		if v.Sentinel {
			afterSentinel = true
			continue
		}
		afterSentinel = false
		next = v.Value + 1
		wrapped = next == 0
	}
	if e.HasDerive("ToBitString") {
		e.Bitflags = true
	}

	if !hasRepr {
		e.Bits = storageBits(bitsFor(e.KnownMaxValue()))
		e.Endian = wire.LittleEndian
	}
	if e.Sentinel != nil {
		e.Sentinel.Value = wire.MaxUint(e.StorageBits())
	}

	limit := wire.MaxUint(e.Bits)
	seen := make(map[uint64]*Variant)
	for _, v := range e.Variants {
		if !v.Sentinel && v.Value > limit {
			b.diags.Errorf(v.Pos, diag.CodeConstantOutOfRange, "variant %s.%s = %#x does not fit in %d bits", e.Name, v.Name, v.Value, e.Bits)
			continue
		}
		if prev, ok := seen[v.Value]; ok {
			b.diags.Errorf(v.Pos, diag.CodeDuplicateDiscrim, "variant %s.%s has the same value %#x as %s", e.Name, v.Name, v.Value, prev.Name)
			continue
		}
		seen[v.Value] = v
	}
}

// KnownMaxValue is the largest non-sentinel discriminant.
func (e *Enum) KnownMaxValue() uint64 {
	var m uint64
	for _, v := range e.Variants {
		if !v.Sentinel && v.Value > m {
			m = v.Value
		}
	}
	return m
}

func bitsFor(v uint64) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return max(n, 1)
}

func (b *builder) checkStructRepr(st *Struct, d *schema.StructDecl) {
	args, ok := schema.Repr(d)
	if !ok {
		return
	}
	for _, a := range args {
		if a.Name != "C" && a.Name != "packed" {
			b.diags.Errorf(a.Pos, diag.CodeInvalidRepr, "struct %s repr must be (C, packed), got %s", st.Name, a.Name)
		}
	}
}

// layout assigns offsets to st and its nested structs. It reports false
// when st is already being laid out further up the stack.
func (b *builder) layout(st *Struct) bool {
	switch b.state[st] {
	case layoutDone:
		return true
	case layoutActive:
		return false
	}
	b.state[st] = layoutActive
	d := b.structDecls[st]
	b.checkStructRepr(st, d)

	offset := 0
	var run []*Field
	flush := func() {
		if len(run) == 0 {
			return
		}
		offset += b.packGroup(st, run, offset)
		run = nil
	}
	for _, fd := range d.Fields {
		f := &Field{Name: fd.Name, Pos: fd.Pos, TypeText: fd.Type.String(), Parent: st}
		st.Fields = append(st.Fields, f)
		if !b.resolveFieldType(f, fd.Type) {
			continue
		}
		if f.Kind == KindBits {
			run = append(run, f)
			continue
		}
		flush()
		f.Offset = offset
		offset += f.Size
	}
	flush()
	st.Size = offset
	b.state[st] = layoutDone
	return true
}

// packGroup places a bitfield run at offset and returns the container size.
func (b *builder) packGroup(st *Struct, run []*Field, offset int) int {
	g := &BitGroup{Offset: offset, Fields: run}
	for _, f := range run {
		g.UsedBits += f.Bits
	}
	first, last := run[0], run[len(run)-1]
	span := first.Name
	if len(run) > 1 {
		span += ".." + last.Name
	}

	switch {
	case g.UsedBits <= 8:
		g.Size = 1
	case g.UsedBits <= 16:
		g.Size = 2
	case g.UsedBits <= 24:
		g.Size = 3
	case g.UsedBits <= 32:
		g.Size = 4
	case g.UsedBits <= 64:
		g.Size = 8
	default:
		b.diags.Errorf(first.Pos, diag.CodeBitfieldMisaligned, "bitfield group %s in %s is %d bits wide, the maximum is 64", span, st.Name, g.UsedBits)
		g.Size = (g.UsedBits + 7) / 8
	}

	var explicit *Field
	for _, f := range run {
		if !f.ExplicitEndian {
			continue
		}
		if explicit == nil {
			explicit = f
			g.Endian = f.Endian
			continue
		}
		if f.Endian != g.Endian {
			b.diags.Errorf(f.Pos, diag.CodeBitfieldMisaligned, "bitfield %s is %s but %s in the same group is %s", f.Name, f.Endian, explicit.Name, explicit.Endian)
		}
	}
	if explicit == nil && g.Size > 1 {
		b.diags.Warnf(first.Pos, diag.CodeImplicitEndian, "bitfield group %s in %s has no le or be suffix, using little-endian", span, st.Name)
	}
	if g.UsedBits < 8*g.Size {
		b.diags.Warnf(first.Pos, diag.CodeBitfieldPadding, "bitfield group %s in %s uses %d of %d bits", span, st.Name, g.UsedBits, 8*g.Size)
	}

	shift := 0
	for _, f := range run {
		f.Group = g
		f.Offset = offset
		f.Size = g.Size
		f.Shift = shift
		f.Endian = g.Endian
		shift += f.Bits
	}
	st.Groups = append(st.Groups, g)
	return g.Size
}

func (b *builder) resolveFieldType(f *Field, te *schema.TypeExpr) bool {
	if te.Array {
		return b.resolveArray(f, te)
	}
	switch te.Name {
	case "char":
		f.Kind, f.Bits, f.Size = KindChar, 8, 1
		return true
	case "Guid":
		f.Kind, f.Size = KindGuid, wire.GuidSize
		return true
	}
	if spec, ok := parseIntType(te.Name); ok {
		f.Bits, f.Signed, f.Endian, f.ExplicitEndian = spec.bits, spec.signed, spec.endian, spec.explicit
		switch {
		case wholeWidth(spec.bits, spec.signed):
			f.Kind = KindUint
			if spec.signed {
				f.Kind = KindInt
			}
			f.Size = spec.bits / 8
			if f.Size > 1 && !spec.explicit {
				b.diags.Warnf(te.Pos, diag.CodeImplicitEndian, "field %s type %s has no le or be suffix, using little-endian", f.QualifiedName(), te.Name)
			}
			return true
		case !spec.signed && spec.bits < 64:
			f.Kind = KindBits
			return true
		default:
			b.diags.Errorf(te.Pos, diag.CodeWidthUnknown, "type %s of field %s has no known width", te.Name, f.QualifiedName())
			return false
		}
	}
	switch t := b.s.byName[te.Name].(type) {
	case *Enum:
		t.Used = true
		f.Enum, f.Bits, f.Endian = t, t.Bits, t.Endian
		if spec, ok := parseIntType(t.Repr); ok {
			f.ExplicitEndian = spec.explicit
		}
		if t.Bits%8 != 0 {
			f.Kind = KindBits
			return true
		}
		f.Kind, f.Size = KindEnum, t.Bits/8
		if t.Repr == "" && f.Size > 1 {
			b.diags.Warnf(te.Pos, diag.CodeImplicitEndian, "enum %s has no repr, field %s uses little-endian", t.Name, f.QualifiedName())
		}
		return true
	case *Struct:
		if !b.nest(f, t, te) {
			return false
		}
		f.Kind, f.Struct, f.Size = KindStruct, t, t.Size
		return true
	}
	b.diags.Errorf(te.Pos, diag.CodeUnknownType, "unknown type %s for field %s", te.Name, f.QualifiedName())
	return false
}

func (b *builder) nest(f *Field, t *Struct, te *schema.TypeExpr) bool {
	if !b.layout(t) {
		b.diags.Errorf(te.Pos, diag.CodeUnresolvedStructSize, "struct %s contains itself through field %s", t.Name, f.QualifiedName())
		return false
	}
	t.Nested = true
	return true
}

func (b *builder) resolveArray(f *Field, te *schema.TypeExpr) bool {
	n := te.Len.Value
	if n == 0 {
		b.diags.Errorf(te.Len.Pos, diag.CodeInvalidValue, "array field %s must have a positive length", f.QualifiedName())
		return false
	}
	if n > 1<<24 {
		b.diags.Errorf(te.Len.Pos, diag.CodeInvalidValue, "array field %s length %d is too large", f.QualifiedName(), n)
		return false
	}
	f.Len = int(n)
	switch te.Name {
	case "char":
		f.Kind, f.Bits, f.Size = KindString, 8, f.Len
		return true
	case "u8", "u8le", "u8be":
		f.Kind, f.Bits, f.Size = KindBytes, 8, f.Len
		return true
	case "Guid":
		b.diags.Errorf(te.Pos, diag.CodeWidthUnknown, "arrays of Guid are not supported, field %s", f.QualifiedName())
		return false
	}
	if spec, ok := parseIntType(te.Name); ok {
		if !wholeWidth(spec.bits, spec.signed) {
			b.diags.Errorf(te.Pos, diag.CodeBitfieldMisaligned, "bitfield %s of type %s cannot be an array", f.QualifiedName(), te.Name)
			return false
		}
		f.Kind = KindIntArray
		f.Bits, f.Signed, f.Endian, f.ExplicitEndian = spec.bits, spec.signed, spec.endian, spec.explicit
		f.Size = f.Len * spec.bits / 8
		if spec.bits > 8 && !spec.explicit {
			b.diags.Warnf(te.Pos, diag.CodeImplicitEndian, "field %s element type %s has no le or be suffix, using little-endian", f.QualifiedName(), te.Name)
		}
		return true
	}
	switch t := b.s.byName[te.Name].(type) {
	case *Struct:
		if !b.nest(f, t, te) {
			return false
		}
		f.Kind, f.Struct, f.Size = KindStructArray, t, f.Len*t.Size
		return true
	case *Enum:
		t.Used = true
		b.diags.Errorf(te.Pos, diag.CodeWidthUnknown, "arrays of enum %s are not supported, field %s", t.Name, f.QualifiedName())
		return false
	}
	b.diags.Errorf(te.Pos, diag.CodeUnknownType, "unknown type %s for field %s", te.Name, f.QualifiedName())
	return false
}

func (b *builder) resolveValues(st *Struct) {
	d := b.structDecls[st]
	for i, fd := range d.Fields {
		f := st.Fields[i]
		if f.Kind == 0 {
			continue
		}
		if fd.Constant != nil {
			f.Constant = b.value(st, f, fd.Constant, true)
		}
		if fd.Default != nil {
			f.Default = b.value(st, f, fd.Default, false)
		}
	}
}

func (b *builder) value(st *Struct, f *Field, e *schema.Expr, constant bool) *Value {
	v := &Value{Text: e.Text}
	fail := func(code diag.Code, format string, args ...any) *Value {
		b.diags.Errorf(e.Pos, code, "%s: %s", f.QualifiedName(), fmt.Sprintf(format, args...))
		return nil
	}

	intOf := func() (uint64, bool) {
		switch e.Kind {
		case schema.ExprInt, schema.ExprMax:
			return e.Value, true
		case schema.ExprStructSize:
			return uint64(st.Size), true
		case schema.ExprStructOffset:
			return uint64(f.Offset), true
		}
		return 0, false
	}

	switch f.Kind {
	case KindUint, KindInt, KindBits, KindEnum:
		if f.Enum != nil && e.Kind == schema.ExprIdent {
			vr := f.Enum.Variant(e.Name)
			if vr == nil {
				return fail(diag.CodeInvalidValue, "enum %s has no variant %s", f.Enum.Name, e.Name)
			}
			v.Int, v.Variant = vr.Value, vr
		} else {
			n, ok := intOf()
			if !ok {
				return fail(diag.CodeInvalidValue, "%s needs an integer value, got %s", f.TypeText, e.Text)
			}
			v.Int = n
			if f.Enum != nil {
				if vr := f.Enum.Lookup(n); vr != nil && !vr.Sentinel {
					v.Variant = vr
				}
			}
		}
		if e.Negative {
			// signed values are stored as two's complement of the field width
			if f.Kind != KindInt {
				return fail(diag.CodeConstantOutOfRange, "value %s is negative but %s is unsigned", e.Text, f.TypeText)
			}
			if e.Value > 1<<(f.Bits-1) {
				return fail(diag.CodeConstantOutOfRange, "value %s does not fit in %s (minimum -%#x)", e.Text, f.TypeText, uint64(1)<<(f.Bits-1))
			}
			v.Int = -e.Value & wire.MaxUint(f.Bits)
			break
		}
		limit := wire.MaxUint(f.Bits)
		if f.Kind == KindInt {
			limit = wire.MaxUint(f.Bits - 1)
		}
		if v.Int > limit {
			return fail(diag.CodeConstantOutOfRange, "value %s does not fit in %s (maximum %#x)", e.Text, f.TypeText, limit)
		}
	case KindChar:
		switch {
		case e.Kind == schema.ExprString && len(e.Bytes) == 1:
			v.Int = uint64(e.Bytes[0])
		case e.Kind == schema.ExprInt && !e.Negative && e.Value <= 0xFF:
			v.Int = e.Value
		default:
			return fail(diag.CodeInvalidValue, "char needs a one-byte value, got %s", e.Text)
		}
	case KindString:
		if e.Kind != schema.ExprString {
			return fail(diag.CodeInvalidValue, "%s needs a string value, got %s", f.TypeText, e.Text)
		}
		if len(e.Bytes) > f.Size {
			return fail(diag.CodeConstantOutOfRange, "string %s is longer than %d bytes", e.Text, f.Size)
		}
		v.Bytes = padded(e.Bytes, f.Size)
	case KindBytes:
		switch {
		case e.Kind == schema.ExprString && len(e.Bytes) <= f.Size:
			v.Bytes = padded(e.Bytes, f.Size)
		case e.HexDigits == 2*f.Size:
			v.Bytes = padded(e.Bytes, f.Size)
		case e.HexDigits == 2 && !constant:
			v.Fill = true
			v.Bytes = make([]byte, f.Size)
			for i := range v.Bytes {
				v.Bytes[i] = e.Bytes[0]
			}
		default:
			return fail(diag.CodeInvalidValue, "data has to be %d bytes exactly, got %s", f.Size, e.Text)
		}
	case KindGuid:
		switch {
		case e.HexDigits == 2*wire.GuidSize:
			v.Bytes = padded(e.Bytes, wire.GuidSize)
		case e.Kind == schema.ExprString:
			g, err := wire.ParseGuid(string(e.Bytes))
			if err != nil {
				return fail(diag.CodeInvalidValue, "%v", err)
			}
			v.Bytes = g[:]
		default:
			return fail(diag.CodeInvalidValue, "Guid needs 16 bytes of hex or a GUID string, got %s", e.Text)
		}
	default:
		return fail(diag.CodeInvalidValue, "%s fields cannot have a value", f.Kind)
	}
	return v
}

func padded(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (b *builder) checkUsage() {
	for _, e := range b.s.Enums {
		if !e.Used && len(e.Derives) == 0 {
			b.diags.Warnf(e.Pos, diag.CodeUnusedEnum, "enum %s is not used by any struct and derives nothing", e.Name)
		}
	}
	for _, st := range b.s.Structs {
		if len(st.Derives) == 0 && !st.Nested {
			b.diags.Warnf(st.Pos, diag.CodeStructNoDerive, "struct %s derives nothing and is not nested in another struct", st.Name)
		}
	}
}
