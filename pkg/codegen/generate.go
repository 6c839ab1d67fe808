package codegen

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/tools/imports"

	"github.com/fwupd/fustruct-go/pkg/inspect"
	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/traits"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// RuntimeImport is the import path of the runtime package generated code
// depends on.
const RuntimeImport = "github.com/fwupd/fustruct-go/pkg/wire"

// ErrNoPackage is returned when Options does not name a package.
var ErrNoPackage = errors.New("codegen: no package name")

// Options controls the generated file.
type Options struct {
	// Package is the package clause of the generated file.
	Package string

	// Filename is the schema path recorded in the header. Only its base
	// name is written so that output does not depend on the working
	// directory.
	Filename string

	// Source is the schema text whose digest is recorded in the header.
	Source []byte

	// Header is extra comment text placed above the package clause.
	Header string

	// Runtime overrides RuntimeImport.
	Runtime string
}

// Digest returns the hex blake3 digest of src as written to the header.
func Digest(src []byte) string {
	sum := blake3.Sum256(src)
	return fmt.Sprintf("%x", sum[:])
}

// Generate produces the formatted Go source for s. Nothing is returned on
// error.
func Generate(s *model.Schema, p *traits.Plan, opts Options) ([]byte, error) {
	if opts.Package == "" {
		return nil, ErrNoPackage
	}
	if s == nil || p == nil {
		return nil, errors.New("codegen: nil schema or plan")
	}

	data := buildFile(s, p, opts)
	var b strings.Builder
	renderTemplate(&b, "file", data)

	name := strings.TrimSuffix(filepath.Base(opts.Filename), filepath.Ext(opts.Filename))
	out, err := imports.Process(name+"_gen.go", []byte(b.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return out, nil
}

// --- Template data types ---

type fileData struct {
	Header  []string
	Source  string
	Digest  string
	Package string
	Runtime string
	Enums   []*enumData
	Structs []*structData
}

type enumData struct {
	Name      string
	Type      string
	Bits      int
	Variants  []variantData
	Doc       string
	Bitflags  bool
	StringFn  string
	Cases     []caseData
	Fallback  string
	FromFn    string
	ByNameFn  string
	Names     []caseData
	BitString bool
	FlagsVar  string
	Flags     []caseData
	ZeroName  string
	Known     bool
	KnownList string

	// textFn is the method the struct formatter calls for the value
	// text.
	textFn string
}

type variantData struct {
	Const string
	Value string
}

// caseData pairs a constant with a string, in either direction.
type caseData struct {
	Const string
	Text  string
}

type structData struct {
	Name      string
	SizeConst string
	Size      int

	NewFn     string
	Inits     []string
	DefaultFn string

	CheckFn  string
	Checks   []string
	DecodeFn string

	ParseFn          string
	ParseBytesFn     string
	ParseStreamFn    string
	ValidateFn       string
	ValidateBytesFn  string
	ValidateStreamFn string

	Accessors []accessorData

	Format  bool
	Lines   []string
	ToStrFn bool
}

type accessorData struct {
	Doc  string
	Sig  string
	Body []string
}

func buildFile(s *model.Schema, p *traits.Plan, opts Options) *fileData {
	fd := &fileData{
		Source:  filepath.Base(opts.Filename),
		Digest:  Digest(opts.Source),
		Package: opts.Package,
		Runtime: opts.Runtime,
	}
	if fd.Runtime == "" {
		fd.Runtime = RuntimeImport
	}
	if h := strings.TrimSpace(opts.Header); h != "" {
		fd.Header = strings.Split(h, "\n")
	}

	enums := make(map[*model.Enum]*enumData, len(s.Enums))
	for _, e := range s.Enums {
		ed := buildEnum(e, p.Enum(e))
		enums[e] = ed
		fd.Enums = append(fd.Enums, ed)
	}
	for _, st := range s.Structs {
		fd.Structs = append(fd.Structs, buildStruct(st, p, enums))
	}
	// known and the string form are also needed by the struct code, so
	// they are finalized once every struct has been seen.
	for _, ed := range fd.Enums {
		ed.finish()
	}
	return fd
}

// --- Enums ---

func buildEnum(e *model.Enum, ep *traits.EnumPlan) *enumData {
	ed := &enumData{
		Name:     e.Name,
		Type:     traits.UintType(e.StorageBits()),
		Bits:     e.Bits,
		Bitflags: e.Bitflags,
		StringFn: funcName(ep.Export(traits.ToString), "String"),
		FromFn:   funcName(ep.Export(traits.FromString), e.Name+"FromString"),
	}
	if ed.StringFn == "string" {
		ed.StringFn = "toString"
	}
	ed.Doc = fmt.Sprintf("%s is a %d bit enumeration.", e.Name, e.Bits)
	if e.Bitflags {
		ed.Doc = fmt.Sprintf("%s is a %d bit set of flags.", e.Name, e.Bits)
	}

	seenValue := make(map[uint64]bool)
	seenName := make(map[string]bool)
	var known []string
	for _, v := range e.Variants {
		c := e.Name + model.GoName(v.Name)
		ed.Variants = append(ed.Variants, variantData{Const: c, Value: hexConst(v.Value)})
		text := model.KebabCase(v.Name)
		if !seenValue[v.Value] {
			seenValue[v.Value] = true
			ed.Cases = append(ed.Cases, caseData{Const: c, Text: text})
			known = append(known, c)
		}
		if key := model.NormalizeVariant(v.Name); !seenName[key] {
			seenName[key] = true
			ed.Names = append(ed.Names, caseData{Const: c, Text: key})
		}
		if v.Sentinel {
			ed.Fallback = text
			continue
		}
		if v.Value == 0 && ed.ZeroName == "" {
			ed.ZeroName = text
		}
		ed.Flags = append(ed.Flags, caseData{Const: c, Text: text})
	}
	ed.KnownList = strings.Join(known, ", ")

	if ed.FromFn != "" {
		ed.ByNameFn = lowerFirst(e.Name) + "ByName"
	}
	if ep.Export(traits.ToBitString) != traits.ExportNone {
		ed.BitString = true
		ed.FlagsVar = lowerFirst(e.Name) + "Flags"
	}
	return ed
}

// text returns the method giving the display text of a value, requesting
// the unexported string form when nothing else provides one.
func (ed *enumData) text() string {
	if ed.BitString {
		return "BitString"
	}
	if ed.StringFn == "" {
		ed.textFn = "toString"
		return "toString"
	}
	return ed.StringFn
}

// needsKnown marks the enum as validated by a struct.
func (ed *enumData) needsKnown() {
	ed.Known = true
}

func (ed *enumData) finish() {
	if ed.StringFn == "" && ed.textFn != "" {
		ed.StringFn = ed.textFn
	}
}

// --- Structs ---

func buildStruct(st *model.Struct, p *traits.Plan, enums map[*model.Enum]*enumData) *structData {
	sp := p.Struct(st)
	name := st.Name
	sd := &structData{
		Name:      name,
		SizeConst: name + "Size",
		Size:      st.Size,
		NewFn:     funcName(sp.Export(traits.New), traits.NewFunc(name)),
		DefaultFn: funcName(sp.Export(traits.Default), traits.DefaultFunc(name)),

		ParseFn:          funcName(sp.Export(traits.Parse), traits.ParseFunc(name)),
		ParseBytesFn:     funcName(sp.Export(traits.ParseBytes), traits.ParseFunc(name)+"Bytes"),
		ParseStreamFn:    funcName(sp.Export(traits.ParseStream), traits.ParseFunc(name)+"Stream"),
		ValidateFn:       funcName(sp.Export(traits.Validate), traits.ValidateFunc(name)),
		ValidateBytesFn:  funcName(sp.Export(traits.ValidateBytes), traits.ValidateFunc(name)+"Bytes"),
		ValidateStreamFn: funcName(sp.Export(traits.ValidateStream), traits.ValidateFunc(name)+"Stream"),
	}
	if sp.Export(traits.ValidateInternal) != traits.ExportNone {
		sd.CheckFn = checkFunc(name)
		sd.Checks = buildChecks(st, p, enums)
	}
	if sp.Export(traits.ParseInternal) != traits.ExportNone {
		sd.DecodeFn = "decode" + name
	}
	if sd.NewFn != "" {
		sd.Inits = buildInits(st)
	}
	for _, fp := range sp.Fields {
		if fp.Getter == traits.ExportPublic {
			sd.Accessors = append(sd.Accessors, getter(fp.Field))
		}
		if fp.Setter == traits.ExportPublic {
			sd.Accessors = append(sd.Accessors, setter(fp.Field))
		}
	}
	if lvl := sp.Export(traits.ToString); lvl != traits.ExportNone {
		sd.Format = true
		sd.ToStrFn = lvl == traits.ExportPublic
		sd.Lines = buildFormat(st, enums)
	}
	return sd
}

func checkFunc(name string) string { return "check" + name }

// buildInits copies the constants, defaults and fill patterns of the New
// image, one statement per field. Nested structs contribute their own
// fields at their absolute offsets.
func buildInits(st *model.Struct) []string {
	image := inspect.New(st).Bytes()
	var out []string
	done := make(map[int]bool)
	var walk func(st *model.Struct, base int, prefix string)
	walk = func(st *model.Struct, base int, prefix string) {
		for _, f := range st.Fields {
			off := base + f.Offset
			switch f.Kind {
			case model.KindStruct:
				walk(f.Struct, off, prefix+f.Name+".")
				continue
			case model.KindStructArray:
				for i := 0; i < f.Len; i++ {
					walk(f.Struct, off+i*f.Struct.Size, fmt.Sprintf("%s%s[%d].", prefix, f.Name, i))
				}
				continue
			}
			if (f.Constant == nil && f.Default == nil) || done[off] {
				continue
			}
			done[off] = true
			if f.Size == 1 {
				out = append(out, fmt.Sprintf("st.buf[%d] = 0x%02x // %s%s", off, image[off], prefix, f.Name))
				continue
			}
			out = append(out, fmt.Sprintf("copy(st.buf[%d:%d], %s) // %s%s",
				off, off+f.Size, byteList(image[off:off+f.Size]), prefix, f.Name))
		}
	}
	walk(st, 0, "")
	return out
}

// buildChecks lists the statements of the validator: constants, enum
// discriminants and the validators of nested structs, in field order.
func buildChecks(st *model.Struct, p *traits.Plan, enums map[*model.Enum]*enumData) []string {
	var out []string
	for _, f := range st.Fields {
		off := at("offset", f.Offset)
		q := f.QualifiedName()
		switch f.Kind {
		case model.KindStruct:
			out = append(out, fmt.Sprintf("if err := %s(buf, %s); err != nil {\nreturn err\n}", checkFunc(f.Struct.Name), off))
			continue
		case model.KindStructArray:
			out = append(out, fmt.Sprintf("for i := 0; i < %d; i++ {\nif err := %s(buf, %s+i*%d); err != nil {\nreturn err\n}\n}",
				f.Len, checkFunc(f.Struct.Name), off, f.Struct.Size))
			continue
		}
		if c := f.Constant; c != nil {
			if c.Bytes != nil {
				out = append(out, fmt.Sprintf("if err := wire.CheckConstant(buf, %s, %s, %q); err != nil {\nreturn err\n}",
					off, byteList(c.Bytes), q))
			} else {
				out = append(out, fmt.Sprintf("if err := wire.CheckConstantUint(%s, %s, %s, %q); err != nil {\nreturn err\n}",
					rawExpr(f, "buf", off), hexConst(c.Int), off, q))
			}
		}
		if e := f.Enum; e != nil && !e.Bitflags && e.Sentinel == nil {
			enums[e].needsKnown()
			out = append(out, fmt.Sprintf("if v := %s; !v.known() {\nreturn wire.InvalidData(%q, %s, fmt.Sprintf(\"unknown %s value 0x%%x\", uint64(v)))\n}",
				valueExpr(f, "buf", off), q, off, e.Name))
		}
	}
	return out
}

// buildFormat lists the statements of the format method, producing the
// same text as inspect.Formatter.
func buildFormat(st *model.Struct, enums map[*model.Enum]*enumData) []string {
	var out []string
	for _, f := range st.Fields {
		if !f.Enabled() {
			continue
		}
		lo, hi := f.Offset, f.Offset+f.Size
		off := at("", f.Offset)
		switch f.Kind {
		case model.KindStruct:
			out = append(out, fmt.Sprintf("{\nvar v %s\ncopy(v.buf[:], st.buf[%d:%d])\nb.WriteString(\"\\n\" + indent + %q)\nv.format(b, indent+\"  \")\n}",
				f.Struct.Name, lo, hi, f.Name+":"))
		case model.KindStructArray:
			sz := f.Struct.Size
			out = append(out, fmt.Sprintf("for i := 0; i < %d; i++ {\nvar v %s\ncopy(v.buf[:], st.buf[%d+i*%d:])\nfmt.Fprintf(b, \"\\n%%s%s[%%d]:\", indent, i)\nv.format(b, indent+\"  \")\n}",
				f.Len, f.Struct.Name, lo, sz, f.Name))
		case model.KindUint, model.KindBits, model.KindEnum:
			if f.Enum == nil {
				out = append(out, printf(f.Name, "0x%x", valueExpr(f, "st.buf", off)))
				continue
			}
			fn := enums[f.Enum].text()
			out = append(out, fmt.Sprintf("{\nv := %s\n%s\n}", valueExpr(f, "st.buf", off),
				printf(f.Name, "%s", fmt.Sprintf("wire.FormatEnum(uint64(v), v.%s())", fn))))
		case model.KindInt:
			out = append(out, printf(f.Name, "%d", valueExpr(f, "st.buf", off)))
		case model.KindChar:
			out = append(out, printf(f.Name, "0x%02x", fmt.Sprintf("st.buf[%d]", lo)))
		case model.KindString:
			out = append(out, printf(f.Name, "%s", fmt.Sprintf("wire.FormatString(st.buf[%d:%d])", lo, hi)))
		case model.KindBytes:
			out = append(out, printf(f.Name, "0x%s", fmt.Sprintf("wire.Hex(st.buf[%d:%d])", lo, hi)))
		case model.KindGuid:
			out = append(out, printf(f.Name, "%s", fmt.Sprintf("wire.Guid(st.buf[%d:%d]).String()", lo, hi)))
		case model.KindIntArray:
			out = append(out, printf(f.Name, "%s", fmt.Sprintf("wire.FormatArray(st.buf[%d:%d], %d, wire.%s, %t)",
				lo, hi, f.ElemSize(), endianName(f), f.Signed)))
		}
	}
	return out
}

func printf(name, verb, arg string) string {
	return fmt.Sprintf("fmt.Fprintf(b, \"\\n%%s%s: %s\", indent, %s)", name, verb, arg)
}

func endianName(f *model.Field) string {
	if f.Endian == wire.BigEndian {
		return "BigEndian"
	}
	return "LittleEndian"
}
