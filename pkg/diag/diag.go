package diag

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Pos is a position in a schema file. Line and Column are 1-based; a zero
// Line means the position is unknown.
type Pos struct {
	Filename string `yaml:"file,omitempty" cbor:"1,keyasint,omitempty"`
	Line     int    `yaml:"line,omitempty" cbor:"2,keyasint,omitempty"`
	Column   int    `yaml:"column,omitempty" cbor:"3,keyasint,omitempty"`
}

// String returns "file:line:col", dropping unknown parts.
func (p Pos) String() string {
	name := p.Filename
	if name == "" {
		name = "<input>"
	}
	switch {
	case p.Line == 0:
		return name
	case p.Column == 0:
		return fmt.Sprintf("%s:%d", name, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", name, p.Line, p.Column)
	}
}

// IsValid reports whether the position has a line.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// Severity is the severity of a diagnostic.
type Severity uint8

const (
	// SeverityWarning does not stop generation unless promoted.
	SeverityWarning Severity = 1
	// SeverityError aborts generation.
	SeverityError Severity = 2
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Code identifies a class of diagnostic. Codes are stable and appear in
// brackets at the end of printed diagnostics.
type Code string

// Error codes.
const (
	CodeSyntax               Code = "syntax"
	CodeDuplicateName        Code = "duplicate-name"
	CodeUnknownType          Code = "unknown-type"
	CodeWidthUnknown         Code = "width-unknown"
	CodeDuplicateDiscrim     Code = "duplicate-discriminant"
	CodeConstantOutOfRange   Code = "constant-out-of-range"
	CodeUnresolvedStructSize Code = "unresolved-struct-size"
	CodeBitfieldMisaligned   Code = "bitfield-misaligned"
	CodeUnknownDerive        Code = "unknown-derive"
	CodeInvalidRepr          Code = "invalid-repr"
	CodeMixedDialect         Code = "mixed-dialect"
	CodeInvalidValue         Code = "invalid-value"
)

// Warning codes.
const (
	CodeImplicitEndian   Code = "implicit-endian"
	CodeBitfieldPadding  Code = "bitfield-padding"
	CodeUnusedEnum       Code = "unused-enum"
	CodeStructNoDerive   Code = "struct-no-derive"
	CodeUnknownAttribute Code = "unknown-attribute"
)

// Diagnostic is one finding about a schema.
type Diagnostic struct {
	Pos      Pos
	Severity Severity
	Code     Code
	Message  string
}

// String returns "file:line:col: severity: message [code]".
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Pos.String())
	b.WriteString(": ")
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Code != "" {
		b.WriteString(" [")
		b.WriteString(string(d.Code))
		b.WriteString("]")
	}
	return b.String()
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Add appends d.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Errorf appends an error.
func (l *List) Errorf(pos Pos, code Code, format string, args ...any) {
	l.Add(Diagnostic{Pos: pos, Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning.
func (l *List) Warnf(pos Pos, code Code, format string, args ...any) {
	l.Add(Diagnostic{Pos: pos, Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any entry has error severity.
func (l List) HasErrors() bool {
	return slices.ContainsFunc(l, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// Errors returns the error-severity entries.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the warning-severity entries.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Promote returns a copy with every warning turned into an error.
func (l List) Promote() List {
	out := slices.Clone(l)
	for i := range out {
		out[i].Severity = SeverityError
	}
	return out
}

// Sort orders the list by file, line and column. Entries at the same
// position keep their relative order.
func (l List) Sort() {
	slices.SortStableFunc(l, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Pos.Filename, b.Pos.Filename),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Column, b.Pos.Column),
		)
	})
}

// Err returns nil when the list holds no errors and an *Error otherwise.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return &Error{List: l.Errors()}
}

// ErrSchema is matched by errors.Is against any *Error.
var ErrSchema = errors.New("schema error")

// Error is a failed compilation. List holds only error-severity entries.
type Error struct {
	List List
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch len(e.List) {
	case 0:
		return ErrSchema.Error()
	case 1:
		return e.List[0].String()
	default:
		return fmt.Sprintf("%s (and %d more errors)", e.List[0], len(e.List)-1)
	}
}

// Unwrap returns ErrSchema.
func (e *Error) Unwrap() error {
	return ErrSchema
}
