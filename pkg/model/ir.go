package model

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// IR is the exported layout description of a schema. CBOR encoding uses
// integer keys.
type IR struct {
	Schema  string     `cbor:"1,keyasint" yaml:"schema"`
	Enums   []IREnum   `cbor:"2,keyasint,omitempty" yaml:"enums,omitempty"`
	Structs []IRStruct `cbor:"3,keyasint,omitempty" yaml:"structs,omitempty"`
}

// IREnum describes an enum.
type IREnum struct {
	Name     string      `cbor:"1,keyasint" yaml:"name"`
	Bits     int         `cbor:"2,keyasint" yaml:"bits"`
	Endian   string      `cbor:"3,keyasint" yaml:"endian"`
	Bitflags bool        `cbor:"4,keyasint,omitempty" yaml:"bitflags,omitempty"`
	Derives  []string    `cbor:"5,keyasint,omitempty" yaml:"derives,omitempty,flow"`
	Variants []IRVariant `cbor:"6,keyasint" yaml:"variants"`
}

// IRVariant describes an enum variant.
type IRVariant struct {
	Name     string `cbor:"1,keyasint" yaml:"name"`
	Value    uint64 `cbor:"2,keyasint" yaml:"value"`
	String   string `cbor:"3,keyasint" yaml:"string"`
	Sentinel bool   `cbor:"4,keyasint,omitempty" yaml:"sentinel,omitempty"`
}

// IRStruct describes a struct.
type IRStruct struct {
	Name    string    `cbor:"1,keyasint" yaml:"name"`
	Size    int       `cbor:"2,keyasint" yaml:"size"`
	Derives []string  `cbor:"3,keyasint,omitempty" yaml:"derives,omitempty,flow"`
	Fields  []IRField `cbor:"4,keyasint" yaml:"fields"`
}

// IRField describes a field. Shift and Bits are set for bitfields.
type IRField struct {
	Name     string `cbor:"1,keyasint" yaml:"name"`
	Type     string `cbor:"2,keyasint" yaml:"type"`
	Kind     string `cbor:"3,keyasint" yaml:"kind"`
	Offset   int    `cbor:"4,keyasint" yaml:"offset"`
	Size     int    `cbor:"5,keyasint" yaml:"size"`
	Endian   string `cbor:"6,keyasint,omitempty" yaml:"endian,omitempty"`
	Len      int    `cbor:"7,keyasint,omitempty" yaml:"len,omitempty"`
	Bits     int    `cbor:"8,keyasint,omitempty" yaml:"bits,omitempty"`
	Shift    int    `cbor:"9,keyasint,omitempty" yaml:"shift,omitempty"`
	Constant string `cbor:"10,keyasint,omitempty" yaml:"constant,omitempty"`
	Default  string `cbor:"11,keyasint,omitempty" yaml:"default,omitempty"`
}

// irEncMode encodes with RFC 8949 core deterministic rules so identical
// schemas produce identical bytes.
var irEncMode cbor.EncMode

var irDecMode cbor.DecMode

func init() {
	var err error
	irEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create IR CBOR encoder mode: %v", err))
	}
	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	irDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create IR CBOR decoder mode: %v", err))
	}
}

// ToIR converts a resolved schema to its layout description.
func ToIR(s *Schema) *IR {
	ir := &IR{Schema: s.Filename}
	for _, e := range s.Enums {
		ie := IREnum{
			Name:     e.Name,
			Bits:     e.Bits,
			Endian:   e.Endian.String(),
			Bitflags: e.Bitflags,
			Derives:  e.Derives,
		}
		for _, v := range e.Variants {
			ie.Variants = append(ie.Variants, IRVariant{Name: v.Name, Value: v.Value, String: KebabCase(v.Name), Sentinel: v.Sentinel})
		}
		ir.Enums = append(ir.Enums, ie)
	}
	for _, st := range s.Structs {
		is := IRStruct{Name: st.Name, Size: st.Size, Derives: st.Derives}
		for _, f := range st.Fields {
			is.Fields = append(is.Fields, irField(f))
		}
		ir.Structs = append(ir.Structs, is)
	}
	return ir
}

func irField(f *Field) IRField {
	out := IRField{
		Name:   f.Name,
		Type:   f.TypeText,
		Kind:   f.Kind.String(),
		Offset: f.Offset,
		Size:   f.Size,
		Len:    f.Len,
	}
	if f.Size > 1 && (f.IsInteger() || f.Kind == KindIntArray) {
		out.Endian = f.Endian.String()
	}
	if f.Kind == KindBits {
		out.Bits, out.Shift = f.Bits, f.Shift
	}
	if f.Constant != nil {
		out.Constant = f.Constant.String()
	}
	if f.Default != nil {
		out.Default = f.Default.String()
	}
	return out
}

// String renders the resolved value: integers in hex, byte values as hex
// digits, enum values by variant name.
func (v *Value) String() string {
	switch {
	case v.Variant != nil:
		return v.Variant.Name
	case v.Fill:
		return fmt.Sprintf("fill 0x%02x", v.Bytes[0])
	case v.Bytes != nil:
		return fmt.Sprintf("0x%x", v.Bytes)
	default:
		return fmt.Sprintf("0x%x", v.Int)
	}
}

// MarshalIR encodes the layout description of s as deterministic CBOR.
func MarshalIR(s *Schema) ([]byte, error) {
	return irEncMode.Marshal(ToIR(s))
}

// UnmarshalIR decodes CBOR produced by MarshalIR.
func UnmarshalIR(data []byte) (*IR, error) {
	var ir IR
	if err := irDecMode.Unmarshal(data, &ir); err != nil {
		return nil, fmt.Errorf("decoding IR: %w", err)
	}
	return &ir, nil
}

// MarshalIRYAML renders the layout description of s as YAML.
func MarshalIRYAML(s *Schema) ([]byte, error) {
	return yaml.Marshal(ToIR(s))
}

// WriteLayout prints a human-readable offset table for every struct.
func WriteLayout(w io.Writer, s *Schema) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, st := range s.Structs {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\tsize 0x%x (%d)\n", st.Name, st.Size, st.Size)
		for _, f := range st.Fields {
			loc := fmt.Sprintf("0x%04x", f.Offset)
			if f.Kind == KindBits {
				loc += fmt.Sprintf(":%d", f.Shift)
			}
			var extra []string
			if f.Constant != nil {
				extra = append(extra, "== "+f.Constant.String())
			}
			if f.Default != nil {
				extra = append(extra, "= "+f.Default.String())
			}
			width := fmt.Sprintf("%d", f.Size)
			if f.Kind == KindBits {
				width = fmt.Sprintf("%d bits", f.Bits)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", loc, f.Name, f.TypeText, width, strings.Join(extra, " "))
		}
	}
	return tw.Flush()
}
