package codegen

import (
	"fmt"
	"strings"
	"text/template"
)

// funcMap provides helper functions available to all templates.
var funcMap = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"hex":   func(v int) string { return fmt.Sprintf("0x%x", v) },
	"accessorCtx": func(name string, a accessorData) accessorCtx {
		return accessorCtx{Struct: name, A: a}
	},
}

// accessorCtx binds an accessor to its receiver type.
type accessorCtx struct {
	Struct string
	A      accessorData
}

// templates holds all parsed code generation templates. Output is not
// indented; Generate formats it.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	fileTmpl +
		enumTmpl +
		structTmpl +
		constructorsTmpl +
		decodeTmpl +
		accessorTmpl +
		formatTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
}

// --- Template definitions ---

const fileTmpl = `{{define "file" -}}
// Code generated by fu-structgen. DO NOT EDIT.
// source: {{.Source}}
// blake3: {{.Digest}}
{{range .Header -}}
// {{.}}
{{end}}
package {{.Package}}

import (
"fmt"
"io"
"strings"

"{{.Runtime}}"
)
{{range .Enums}}
{{template "enum" .}}
{{end}}
{{range .Structs}}
{{template "struct" .}}
{{end}}
{{- end}}`

const enumTmpl = `{{define "enum" -}}
{{$name := .Name -}}
// {{.Doc}}
type {{$name}} {{.Type}}

const (
{{range .Variants -}}
{{.Const}} {{$name}} = {{.Value}}
{{end -}}
)
{{if .StringFn}}
// {{.StringFn}} returns the variant name{{if .Fallback}}, or {{quote .Fallback}} for unknown values{{end}}.
func (v {{$name}}) {{.StringFn}}() string {
switch v {
{{range .Cases -}}
case {{.Const}}:
return {{quote .Text}}
{{end -}}
}
return {{quote .Fallback}}
}
{{end}}
{{- if .FromFn}}
// {{.FromFn}} parses a variant name. Case, '-' and '_' are ignored.
{{- if .Bitflags}}
// Lists may be separated by ',' or '|' and contain 0x hex words.
{{- end}}
func {{.FromFn}}(s string) ({{$name}}, error) {
{{if .Bitflags -}}
v, err := wire.ParseFlags({{quote $name}}, s, {{.ByNameFn}})
return {{$name}}(v), err
{{- else -}}
if v, ok := {{.ByNameFn}}(s); ok {
return {{$name}}(v), nil
}
return 0, wire.UnknownVariant({{quote $name}}, s)
{{- end}}
}

func {{.ByNameFn}}(s string) (uint64, bool) {
switch wire.NormalizeVariant(s) {
{{range .Names -}}
case {{quote .Text}}:
return uint64({{.Const}}), true
{{end -}}
}
return 0, false
}
{{end}}
{{- if .BitString}}
var {{.FlagsVar}} = []wire.Flag{
{{range .Flags -}}
{Name: {{quote .Text}}, Value: uint64({{.Const}})},
{{end -}}
}

// BitString returns the names of the set flags joined by '|'. Unknown bits
// follow as one hex word.
func (v {{$name}}) BitString() string {
return wire.FormatFlags(uint64(v), {{quote .ZeroName}}, {{.FlagsVar}})
}
{{end}}
{{- if .Known}}
func (v {{$name}}) known() bool {
switch v {
case {{.KnownList}}:
return true
}
return false
}
{{end}}
{{- end}}`

const structTmpl = `{{define "struct" -}}
{{$name := .Name -}}
// {{.SizeConst}} is the wire size of {{$name}}.
const {{.SizeConst}} = {{hex .Size}}

// {{$name}} holds the {{.Size}} wire bytes of the structure.
type {{$name}} struct {
buf [{{.SizeConst}}]byte
}

{{template "constructors" .}}
{{template "decode" .}}
{{range .Accessors}}
{{template "accessor" (accessorCtx $name .)}}
{{end}}
// Bytes returns a copy of the wire bytes.
func (st *{{$name}}) Bytes() []byte {
return append([]byte(nil), st.buf[:]...)
}

{{template "format" .}}
{{- end}}`

const constructorsTmpl = `{{define "constructors" -}}
{{$name := .Name -}}
{{if .NewFn -}}
// {{.NewFn}} returns a {{$name}} with its constants and defaults set.
func {{.NewFn}}() *{{$name}} {
{{if .Inits -}}
st := &{{$name}}{}
{{range .Inits -}}
{{.}}
{{end -}}
return st
{{- else -}}
return &{{$name}}{}
{{- end}}
}

{{end}}
{{- if .DefaultFn -}}
// {{.DefaultFn}} returns a zero-filled {{$name}}.
func {{.DefaultFn}}() *{{$name}} {
return &{{$name}}{}
}

{{end}}
{{- end}}`

const decodeTmpl = `{{define "decode" -}}
{{$name := .Name -}}
{{if .CheckFn -}}
func {{.CheckFn}}(buf []byte, offset int) error {
if err := wire.CheckBounds(buf, offset, {{.SizeConst}}, {{quote $name}}); err != nil {
return err
}
{{range .Checks -}}
{{.}}
{{end -}}
return nil
}

{{end}}
{{- if .DecodeFn -}}
func {{.DecodeFn}}(buf []byte, offset int) (*{{$name}}, error) {
if err := {{.CheckFn}}(buf, offset); err != nil {
return nil, err
}
st := &{{$name}}{}
copy(st.buf[:], buf[offset:])
return st, nil
}

{{end}}
{{- if .ParseFn -}}
// {{.ParseFn}} decodes a {{$name}} from buf at offset.
func {{.ParseFn}}(buf []byte, offset int) (*{{$name}}, error) {
return {{.DecodeFn}}(buf, offset)
}

{{end}}
{{- if .ParseBytesFn -}}
// {{.ParseBytesFn}} decodes a {{$name}} from buf at offset and returns the
// bytes that follow it.
func {{.ParseBytesFn}}(buf []byte, offset int) (*{{$name}}, []byte, error) {
st, err := {{.ParseFn}}(buf, offset)
if err != nil {
return nil, nil, err
}
return st, buf[offset+{{.SizeConst}}:], nil
}

{{end}}
{{- if .ParseStreamFn -}}
// {{.ParseStreamFn}} consumes one {{$name}} from r. Error offsets count
// from the start of r when it is a *wire.Stream and from the start of the
// record otherwise.
func {{.ParseStreamFn}}(r io.Reader) (*{{$name}}, error) {
start := wire.StreamOffset(r)
buf, err := wire.ReadStream(r, {{.SizeConst}})
if err != nil {
return nil, wire.WithField(err, {{quote $name}})
}
st, err := {{.DecodeFn}}(buf, 0)
if err != nil {
return nil, wire.ShiftOffset(err, start)
}
return st, nil
}

{{end}}
{{- if .ValidateFn -}}
// {{.ValidateFn}} checks the constants of a {{$name}} in buf at offset.
func {{.ValidateFn}}(buf []byte, offset int) error {
return {{.CheckFn}}(buf, offset)
}

{{end}}
{{- if .ValidateBytesFn -}}
// {{.ValidateBytesFn}} checks a {{$name}} in buf at offset and returns the
// bytes that follow it.
func {{.ValidateBytesFn}}(buf []byte, offset int) ([]byte, error) {
if err := {{.ValidateFn}}(buf, offset); err != nil {
return nil, err
}
return buf[offset+{{.SizeConst}}:], nil
}

{{end}}
{{- if .ValidateStreamFn -}}
// {{.ValidateStreamFn}} consumes one {{$name}} from r and checks it. Error
// offsets count from the start of r when it is a *wire.Stream.
func {{.ValidateStreamFn}}(r io.Reader) error {
start := wire.StreamOffset(r)
buf, err := wire.ReadStream(r, {{.SizeConst}})
if err != nil {
return wire.WithField(err, {{quote $name}})
}
return wire.ShiftOffset({{.CheckFn}}(buf, 0), start)
}

{{end}}
{{- end}}`

const accessorTmpl = `{{define "accessor" -}}
// {{.A.Doc}}
func (st *{{.Struct}}) {{.A.Sig}} {
{{range .A.Body -}}
{{.}}
{{end -}}
}
{{- end}}`

const formatTmpl = `{{define "format" -}}
{{$name := .Name -}}
{{if .Format -}}
{{if .ToStrFn -}}
// String returns the fields of st, one per line.
func (st *{{$name}}) String() string {
var b strings.Builder
b.WriteString({{quote (print $name ":")}})
st.format(&b, "  ")
return b.String()
}

{{end -}}
func (st *{{$name}}) format(b *strings.Builder, indent string) {
{{range .Lines -}}
{{.}}
{{end -}}
}
{{end}}
{{- end}}`
