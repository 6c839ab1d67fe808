package inspect

import (
	"fmt"
	"strings"

	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// Formatter renders records as an indented field tree, the same text the
// generated String methods produce.
type Formatter struct {
	// IndentWidth is the number of spaces per indent level.
	IndentWidth int

	// ShowOffsets appends the byte offset of each field.
	ShowOffsets bool

	// ShowHidden includes reserved and underscore fields.
	ShowHidden bool
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{IndentWidth: 2}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// Format renders r. Lines are separated by newlines with none at the end.
func (f *Formatter) Format(r *Record) string {
	var lines []string
	lines = append(lines, r.st.Name+":")
	lines = f.fields(lines, r.buf, 0, r.st, 1)
	return strings.Join(lines, "\n")
}

// FormatHex renders the wire bytes of r as a hex dump.
func (f *Formatter) FormatHex(r *Record) string {
	return wire.HexDump(r.buf)
}

func (f *Formatter) fields(lines []string, buf []byte, base int, st *model.Struct, depth int) []string {
	for _, fld := range st.Fields {
		if !fld.Enabled() && !f.ShowHidden {
			continue
		}
		off := base + fld.Offset
		switch fld.Kind {
		case model.KindStruct:
			lines = append(lines, f.line(depth, fld.Name+":", off))
			lines = f.fields(lines, buf, off, fld.Struct, depth+1)
			continue
		case model.KindStructArray:
			for i := 0; i < fld.Len; i++ {
				elem := off + i*fld.Struct.Size
				lines = append(lines, f.line(depth, fmt.Sprintf("%s[%d]:", fld.Name, i), elem))
				lines = f.fields(lines, buf, elem, fld.Struct, depth+1)
			}
			continue
		}
		lines = append(lines, f.line(depth, fld.Name+": "+FormatValue(buf, base, fld), off))
	}
	return lines
}

func (f *Formatter) line(depth int, content string, off int) string {
	if f.ShowOffsets {
		content += fmt.Sprintf("  @0x%04x", off)
	}
	return f.Indent(depth, content)
}

// FormatValue renders one scalar or array field of the struct at base.
func FormatValue(buf []byte, base int, fld *model.Field) string {
	off := base + fld.Offset
	switch fld.Kind {
	case model.KindUint, model.KindBits, model.KindEnum:
		v := getUint(buf, base, fld)
		if fld.Enum == nil {
			return fmt.Sprintf("0x%x", v)
		}
		if fld.Enum.HasDerive("ToBitString") {
			return wire.FormatEnum(v, EnumBitString(fld.Enum, v))
		}
		return wire.FormatEnum(v, EnumString(fld.Enum, v))
	case model.KindInt:
		return fmt.Sprintf("%d", signExtend(getUint(buf, base, fld), fld.Bits))
	case model.KindChar:
		return fmt.Sprintf("0x%02x", buf[off])
	case model.KindString:
		return wire.FormatString(buf[off : off+fld.Size])
	case model.KindBytes:
		return "0x" + wire.Hex(buf[off:off+fld.Size])
	case model.KindGuid:
		return wire.Guid(buf[off : off+wire.GuidSize]).String()
	case model.KindIntArray:
		return wire.FormatArray(buf[off:off+fld.Size], fld.ElemSize(), fld.Endian, fld.Signed)
	}
	return ""
}
