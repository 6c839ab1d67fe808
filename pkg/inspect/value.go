package inspect

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// getUint decodes an integer-like field of a buffer sized by construction.
func getUint(buf []byte, base int, f *model.Field) uint64 {
	off := base + f.Offset
	switch f.Kind {
	case model.KindBits:
		return wire.Bits(wire.Uint(buf[off:], f.Size, f.Endian), f.Shift, f.Bits)
	case model.KindChar:
		return uint64(buf[off])
	}
	return wire.Uint(buf[off:], f.Size, f.Endian)
}

// putUint encodes an integer-like field. Signed values arrive as two's
// complement and are truncated to the field width.
func putUint(buf []byte, base int, f *model.Field, v uint64) error {
	off := base + f.Offset
	var err error
	switch f.Kind {
	case model.KindBits:
		err = wire.WriteBits(buf, off, f.Size, f.Endian, f.Shift, f.Bits, v)
	case model.KindInt:
		err = wire.WriteUint(buf, off, f.Size, f.Endian, v&wire.MaxUint(f.Bits))
	default:
		err = wire.WriteUint(buf, off, f.Size, f.Endian, v)
	}
	return wire.WithField(err, f.QualifiedName())
}

func signExtend(v uint64, bits int) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

func getField(buf []byte, base int, f *model.Field) (any, error) {
	off := base + f.Offset
	switch f.Kind {
	case model.KindUint, model.KindBits, model.KindEnum:
		v := getUint(buf, base, f)
		if f.Enum != nil {
			return EnumValue{Enum: f.Enum, Value: v}, nil
		}
		return v, nil
	case model.KindInt:
		return signExtend(getUint(buf, base, f), f.Bits), nil
	case model.KindChar:
		return buf[off], nil
	case model.KindString:
		s, err := wire.DecodeString(buf[off : off+f.Size])
		if err != nil {
			return nil, wire.InvalidData(f.QualifiedName(), off, "not valid UTF-8")
		}
		return s, nil
	case model.KindBytes:
		return append([]byte(nil), buf[off:off+f.Size]...), nil
	case model.KindGuid:
		var g wire.Guid
		copy(g[:], buf[off:off+wire.GuidSize])
		return g, nil
	case model.KindStruct:
		return subRecord(buf, off, f.Struct), nil
	case model.KindStructArray:
		out := make([]*Record, f.Len)
		for i := range out {
			out[i] = subRecord(buf, off+i*f.Struct.Size, f.Struct)
		}
		return out, nil
	case model.KindIntArray:
		if f.Signed {
			out := make([]int64, f.Len)
			for i := range out {
				out[i] = signExtend(wire.Uint(buf[off+i*f.ElemSize():], f.ElemSize(), f.Endian), f.Bits)
			}
			return out, nil
		}
		out := make([]uint64, f.Len)
		for i := range out {
			out[i] = wire.Uint(buf[off+i*f.ElemSize():], f.ElemSize(), f.Endian)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, f.QualifiedName())
}

func subRecord(buf []byte, off int, st *model.Struct) *Record {
	r := &Record{st: st, buf: make([]byte, st.Size)}
	copy(r.buf, buf[off:off+st.Size])
	return r
}

func getElem(buf []byte, loc location) (any, error) {
	f := loc.field
	off := loc.base + f.Offset + loc.index*f.ElemSize()
	switch f.Kind {
	case model.KindStructArray:
		return subRecord(buf, off, f.Struct), nil
	case model.KindIntArray:
		v := wire.Uint(buf[off:], f.ElemSize(), f.Endian)
		if f.Signed {
			return signExtend(v, f.Bits), nil
		}
		return v, nil
	default:
		return buf[off], nil
	}
}

func setField(buf []byte, base int, f *model.Field, v any) error {
	off := base + f.Offset
	name := f.QualifiedName()
	switch f.Kind {
	case model.KindUint, model.KindBits, model.KindEnum, model.KindChar:
		n, err := toUint(f, v)
		if err != nil {
			return err
		}
		if f.Kind == model.KindChar && n > 0xFF {
			return wire.OutOfRange(name, n, 0xFF)
		}
		return putUint(buf, base, f, n)
	case model.KindInt:
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := checkSigned(name, n, f.Bits); err != nil {
			return err
		}
		return putUint(buf, base, f, uint64(n))
	case model.KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: %s takes a string, got %T", ErrNotSettable, name, v)
		}
		return wire.WithField(wire.WriteString(buf, off, f.Size, s), name)
	case model.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("%w: %s takes []byte, got %T", ErrNotSettable, name, v)
		}
		if len(b) > f.Size {
			return wire.OutOfRange(name, uint64(len(b)), uint64(f.Size))
		}
		clear(buf[off : off+f.Size])
		copy(buf[off:], b)
		return nil
	case model.KindGuid:
		switch g := v.(type) {
		case wire.Guid:
			return wire.WriteGuid(buf, off, g)
		case string:
			parsed, err := wire.ParseGuid(g)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return wire.WriteGuid(buf, off, parsed)
		}
		return fmt.Errorf("%w: %s takes a wire.Guid, got %T", ErrNotSettable, name, v)
	case model.KindStruct:
		rec, ok := v.(*Record)
		if !ok || rec.st != f.Struct {
			return fmt.Errorf("%w: %s takes a %s record", ErrNotSettable, name, f.Struct.Name)
		}
		copy(buf[off:off+f.Size], rec.buf)
		return nil
	}
	return fmt.Errorf("%w: %s needs an index", ErrNotSettable, name)
}

func setElem(buf []byte, loc location, v any) error {
	f := loc.field
	name := fmt.Sprintf("%s[%d]", f.QualifiedName(), loc.index)
	off := loc.base + f.Offset + loc.index*f.ElemSize()
	switch f.Kind {
	case model.KindStructArray:
		rec, ok := v.(*Record)
		if !ok || rec.st != f.Struct {
			return fmt.Errorf("%w: %s takes a %s record", ErrNotSettable, name, f.Struct.Name)
		}
		copy(buf[off:off+f.Struct.Size], rec.buf)
		return nil
	case model.KindIntArray:
		if f.Signed {
			n, err := toInt(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := checkSigned(name, n, f.Bits); err != nil {
				return err
			}
			x := uint64(n) & wire.MaxUint(f.Bits)
			return wire.WithField(wire.WriteUint(buf, off, f.ElemSize(), f.Endian, x), name)
		}
		n, err := toUint(f, v)
		if err != nil {
			return err
		}
		return wire.WithField(wire.WriteUint(buf, off, f.ElemSize(), f.Endian, n), name)
	case model.KindBytes:
		n, err := toUint(f, v)
		if err != nil {
			return err
		}
		return wire.WithField(wire.WriteUint(buf, off, 1, wire.LittleEndian, n), name)
	}
	return fmt.Errorf("%w: elements of %s", ErrNotSettable, name)
}

func checkSigned(name string, n int64, bits int) error {
	if bits >= 64 {
		return nil
	}
	lo, hi := -int64(1)<<(bits-1), int64(1)<<(bits-1)-1
	if n < lo || n > hi {
		return wire.OutOfRange(name, uint64(n), uint64(hi))
	}
	return nil
}

// toUint converts v for an unsigned or enum field.
func toUint(f *model.Field, v any) (uint64, error) {
	switch x := v.(type) {
	case EnumValue:
		if f.Enum == nil || x.Enum != f.Enum {
			return 0, fmt.Errorf("%w: %s does not take %s", ErrNotSettable, f.QualifiedName(), x.Enum.Name)
		}
		return x.Value, nil
	case string:
		if f.Enum == nil {
			return 0, fmt.Errorf("%w: %s takes an integer, got %q", ErrNotSettable, f.QualifiedName(), x)
		}
		return EnumFromString(f.Enum, x)
	case uint:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", f.QualifiedName(), err)
	}
	if n < 0 {
		return 0, wire.OutOfRange(f.QualifiedName(), uint64(n), wire.MaxUint(f.Bits))
	}
	return uint64(n), nil
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	}
	return 0, fmt.Errorf("%w: cannot use %T as an integer", ErrNotSettable, v)
}

// parseText converts user input to the value Set expects for f. elem is
// set for an indexed path.
func parseText(f *model.Field, elem bool, text string) (any, error) {
	text = strings.TrimSpace(text)
	if elem {
		if f.Kind == model.KindStructArray {
			return nil, fmt.Errorf("%w: struct elements are set field by field", ErrNotSettable)
		}
		if f.Signed {
			return strconv.ParseInt(text, 0, 64)
		}
		return strconv.ParseUint(text, 0, 64)
	}
	switch f.Kind {
	case model.KindUint, model.KindBits, model.KindEnum:
		if f.Enum != nil {
			if v, err := EnumFromString(f.Enum, text); err == nil {
				return v, nil
			}
		}
		return strconv.ParseUint(text, 0, 64)
	case model.KindInt:
		return strconv.ParseInt(text, 0, 64)
	case model.KindChar:
		if len(text) == 1 {
			return uint64(text[0]), nil
		}
		return strconv.ParseUint(text, 0, 8)
	case model.KindString:
		if s, err := strconv.Unquote(text); err == nil {
			return s, nil
		}
		return text, nil
	case model.KindBytes:
		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
		return hex.DecodeString(text)
	case model.KindGuid:
		return wire.ParseGuid(text)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotSettable, f.QualifiedName())
}
