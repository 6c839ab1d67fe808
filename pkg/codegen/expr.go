package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/traits"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// codecName is the suffix of the wire accessor for a size-byte integer,
// e.g. "U16LE".
func codecName(size int, endian wire.Endian) string {
	return fmt.Sprintf("U%d%s", 8*size, strings.ToUpper(endian.String()))
}

// storageType is the Go type the wire accessors use for size bytes.
func storageType(size int) string {
	return traits.UintType(8 * size)
}

// at joins a base offset expression and a constant: at("offset", 4) is
// "offset+4", at("", 4) is "4".
func at(base string, n int) string {
	switch {
	case base == "":
		return strconv.Itoa(n)
	case n == 0:
		return base
	}
	return base + "+" + strconv.Itoa(n)
}

// load reads a size-byte unsigned integer of buf at off.
func load(buf, off string, size int, endian wire.Endian) string {
	if size == 1 {
		return fmt.Sprintf("%s[%s]", buf, off)
	}
	return fmt.Sprintf("wire.%s(%s[%s:])", codecName(size, endian), buf, off)
}

// store writes val, already of storageType(size), to buf at off.
func store(buf, off string, size int, endian wire.Endian, val string) string {
	if size == 1 {
		return fmt.Sprintf("%s[%s] = %s", buf, off, val)
	}
	return fmt.Sprintf("wire.Put%s(%s[%s:], %s)", codecName(size, endian), buf, off, val)
}

// rawExpr is the field's wire integer as uint64, before any enum or sign
// conversion. Bitfield members are extracted from their container.
func rawExpr(f *model.Field, buf, off string) string {
	raw := load(buf, off, f.Size, f.Endian)
	if f.Kind == model.KindBits {
		return fmt.Sprintf("wire.Bits(uint64(%s), %d, %d)", raw, f.Shift, f.Bits)
	}
	return "uint64(" + raw + ")"
}

// valueExpr is the field's value typed as traits.GoType for the integer
// kinds and char.
func valueExpr(f *model.Field, buf, off string) string {
	raw := load(buf, off, f.Size, f.Endian)
	switch {
	case f.Kind == model.KindBits:
		return fmt.Sprintf("%s(wire.Bits(uint64(%s), %d, %d))", traits.GoType(f), raw, f.Shift, f.Bits)
	case f.Enum != nil:
		return f.Enum.Name + "(" + raw + ")"
	case f.Kind == model.KindInt:
		return traits.GoType(f) + "(" + raw + ")"
	}
	return raw
}

// byteList renders b as a Go []byte literal.
func byteList(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("0x%02x", c)
	}
	return "[]byte{" + strings.Join(parts, ", ") + "}"
}

// hexConst renders an integer constant.
func hexConst(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

// lowerFirst turns an exported name into its unexported form.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// funcName is the generated name of a function at the given export level:
// the exported name when public, its unexported form when private and ""
// when not generated.
func funcName(level traits.Export, public string) string {
	switch level {
	case traits.ExportPublic:
		return public
	case traits.ExportPrivate:
		return lowerFirst(public)
	}
	return ""
}
