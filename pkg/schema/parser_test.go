package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/diag"
)

const cabSchema = `
use crate::util::Guid;

#[derive(ToString)]
#[repr(u16le)]
enum FuCabCompression {
    None = 0x0000,
    Mszip,
    Quantum,
    Lzx,
}

#[derive(New, ValidateStream, ParseStream, Default)]
#[repr(C, packed)]
struct FuStructCabHeader {
    signature: [char; 4] == "MSCF",
    reserved1: [u8; 4],
    size: u32le,
    reserved2: [u8; 4],
    off_cffile: u32le,
    version_minor: u8 = 3,
    hdr_size: u16le = $struct_size,
    compression: FuCabCompression,
    sentinel: u64 = u64::MAX,
    flag: u32 = 1 << 31,
}
`

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse("test.rs", []byte(src))
	require.NoError(t, err)
	return f
}

func parseErr(t *testing.T, src string) *Error {
	t.Helper()
	_, err := Parse("test.rs", []byte(src))
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "want *schema.Error, got %T", err)
	return se
}

func TestParseDeclarations(t *testing.T) {
	f := mustParse(t, cabSchema)
	require.Len(t, f.Decls, 2)
	require.Len(t, f.Uses, 1)
	assert.Equal(t, "crate::util::Guid", f.Uses[0].Path)

	e, ok := f.Decls[0].(*EnumDecl)
	require.True(t, ok)
	assert.Equal(t, "FuCabCompression", e.Name)
	assert.Equal(t, []string{"ToString"}, DeriveNames(e))
	repr, ok := Repr(e)
	require.True(t, ok)
	assert.Equal(t, "u16le", repr[0].Name)
	require.Len(t, e.Variants, 4)
	assert.Equal(t, uint64(0), e.Variants[0].Value.Value)
	assert.Nil(t, e.Variants[1].Value)

	s, ok := f.Decls[1].(*StructDecl)
	require.True(t, ok)
	assert.Equal(t, []string{"New", "ValidateStream", "ParseStream", "Default"}, DeriveNames(s))
	require.Len(t, s.Fields, 10)

	sig := s.Fields[0]
	assert.Equal(t, "signature", sig.Name)
	assert.True(t, sig.Type.Array)
	assert.Equal(t, "char", sig.Type.Name)
	assert.Equal(t, uint64(4), sig.Type.Len.Value)
	assert.Equal(t, "[char; 4]", sig.Type.String())
	require.NotNil(t, sig.Constant)
	assert.Equal(t, ExprString, sig.Constant.Kind)
	assert.Equal(t, []byte("MSCF"), sig.Constant.Bytes)
	assert.Nil(t, sig.Default)

	assert.Equal(t, ExprStructSize, s.Fields[6].Default.Kind)
	assert.Equal(t, "compression", s.Fields[7].Name)
	assert.Equal(t, "FuCabCompression", s.Fields[7].Type.Name)

	mx := s.Fields[8].Default
	assert.Equal(t, ExprMax, mx.Kind)
	assert.Equal(t, "u64::MAX", mx.Text)
	assert.Equal(t, ^uint64(0), mx.Value)

	shift := s.Fields[9].Default
	assert.True(t, shift.Shift)
	assert.Equal(t, uint64(1)<<31, shift.Value)
	assert.Equal(t, "1 << 31", shift.Text)
}

func TestParseIsIdempotent(t *testing.T) {
	a := mustParse(t, cabSchema)
	b := mustParse(t, cabSchema)
	assert.Equal(t, a, b)
}

func TestParseTrailingCommaOptional(t *testing.T) {
	f := mustParse(t, "struct FuStructA { a: u8, b: u8 }\nenum FuB { X, Y }")
	assert.Len(t, f.Decls[0].(*StructDecl).Fields, 2)
	assert.Len(t, f.Decls[1].(*EnumDecl).Variants, 2)
}

func TestParseMultiByteStringLiteral(t *testing.T) {
	f := mustParse(t, `struct FuStructZip { magic: [char; 4] == "PK\x03\x04" }`)
	c := f.Decls[0].(*StructDecl).Fields[0].Constant
	assert.Equal(t, []byte{'P', 'K', 3, 4}, c.Bytes)
}

func TestParseWideHexLiteral(t *testing.T) {
	f := mustParse(t, `struct FuStructG { id: Guid = 0x00112233445566778899aabbccddeeff }`)
	d := f.Decls[0].(*StructDecl).Fields[0].Default
	assert.Equal(t, ExprHex, d.Kind)
	assert.Equal(t, 32, d.HexDigits)
	assert.Len(t, d.Bytes, 16)
	assert.Equal(t, byte(0xff), d.Bytes[15])
}

func TestParseNegativeLiteral(t *testing.T) {
	f := mustParse(t, "struct FuStructA { a: i8 = -1, b: i16le == - 0x20 }")
	fields := f.Decls[0].(*StructDecl).Fields
	d := fields[0].Default
	assert.Equal(t, ExprInt, d.Kind)
	assert.True(t, d.Negative)
	assert.Equal(t, uint64(1), d.Value)
	assert.Equal(t, "-1", d.Text)
	c := fields[1].Constant
	assert.True(t, c.Negative)
	assert.Equal(t, uint64(0x20), c.Value)
	assert.Equal(t, "-0x20", c.Text)
}

func TestParseInnerAttributes(t *testing.T) {
	f := mustParse(t, "#![allow(dead_code)]\nstruct FuStructA { a: u8 }")
	require.Len(t, f.Attrs, 1)
	assert.Equal(t, "allow", f.Attrs[0].Name)
}

func TestParseEnumQualifiedDefault(t *testing.T) {
	f := mustParse(t, "struct FuStructA { c: FuZipCompression = FuZipCompression::Deflate }")
	d := f.Decls[0].(*StructDecl).Fields[0].Default
	assert.Equal(t, ExprIdent, d.Kind)
	assert.Equal(t, "Deflate", d.Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
		line int
		msg  string
	}{
		{
			name: "duplicate declaration",
			src:  "struct FuStructA { a: u8 }\nenum FuStructA { X }",
			code: diag.CodeDuplicateName,
			line: 2,
			msg:  "already declared",
		},
		{
			name: "minus without integer",
			src:  "struct FuStructA { a: i8 = -X }",
			code: diag.CodeSyntax,
			msg:  "after '-'",
		},
		{
			name: "duplicate field",
			src:  "struct FuStructA {\n a: u8,\n a: u16le,\n}",
			code: diag.CodeDuplicateName,
			line: 3,
		},
		{
			name: "duplicate variant",
			src:  "enum FuA { X, X }",
			code: diag.CodeDuplicateName,
		},
		{
			name: "unknown derive",
			src:  "#[derive(New, Frobnicate)]\nstruct FuStructA { a: u8 }",
			code: diag.CodeUnknownDerive,
			line: 1,
			msg:  `unknown derive "Frobnicate"`,
		},
		{
			name: "missing field type",
			src:  "struct FuStructA {\n  a: ,\n}",
			code: diag.CodeWidthUnknown,
			line: 2,
			msg:  "missing type for field a",
		},
		{
			name: "field without colon",
			src:  "struct FuStructA { a, }",
			code: diag.CodeWidthUnknown,
		},
		{
			name: "malformed integer",
			src:  "struct FuStructA { a: u8 = 0xG1 }",
			code: diag.CodeSyntax,
			msg:  "malformed integer",
		},
		{
			name: "const dialect",
			src:  "struct FuStructA { a: u8 const= 5 }",
			code: diag.CodeMixedDialect,
			msg:  "'const='",
		},
		{
			name: "default and constant",
			src:  "struct FuStructA { a: u8 = 1 == 2 }",
			code: diag.CodeMixedDialect,
		},
		{
			name: "unexpected token",
			src:  "struct FuStructA { a: u8 ; }",
			code: diag.CodeSyntax,
			msg:  "expected '}'",
		},
		{
			name: "dangling attribute",
			src:  "#[derive(New)]",
			code: diag.CodeSyntax,
		},
		{
			name: "shift overflow",
			src:  "enum FuA { X = 1 << 64 }",
			code: diag.CodeConstantOutOfRange,
		},
		{
			name: "bad MAX type",
			src:  "enum FuA { X = i8::MAX }",
			code: diag.CodeInvalidValue,
		},
		{
			name: "non literal array length",
			src:  "struct FuStructA { a: [u8; N] }",
			code: diag.CodeWidthUnknown,
		},
		{
			name: "enum uses ==",
			src:  "enum FuA { X == 1 }",
			code: diag.CodeSyntax,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := parseErr(t, tt.src)
			assert.Equal(t, tt.code, se.Code, se.Error())
			if tt.line != 0 {
				assert.Equal(t, tt.line, se.Pos.Line)
			}
			if tt.msg != "" {
				assert.Contains(t, se.Message, tt.msg)
			}
			assert.Equal(t, "test.rs", se.Pos.Filename)
		})
	}
}

func TestErrorDiagnostic(t *testing.T) {
	se := parseErr(t, "struct FuStructA {\n  a: u8 = \"x\n}")
	d := se.Diagnostic()
	assert.Equal(t, diag.SeverityError, d.Severity)
	assert.Equal(t, "test.rs:2:11: error: unterminated string [syntax]", d.String())
}
