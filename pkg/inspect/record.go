package inspect

import (
	"errors"
	"fmt"
	"io"

	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// Record errors.
var (
	ErrFieldNotFound = errors.New("field not found")
	ErrNotSettable   = errors.New("field cannot be set")
	ErrIndex         = errors.New("index out of range")
)

// Record is one decoded structure. It owns a copy of its wire bytes.
type Record struct {
	st  *model.Struct
	buf []byte
}

// New returns a record with constants, defaults and fill patterns applied,
// including those of nested structs.
func New(st *model.Struct) *Record {
	r := Default(st)
	applyDefaults(r.buf, 0, st)
	return r
}

// Default returns a zero-filled record.
func Default(st *model.Struct) *Record {
	return &Record{st: st, buf: make([]byte, st.Size)}
}

// Parse decodes st from buf at offset and validates it.
func Parse(st *model.Struct, buf []byte, offset int) (*Record, error) {
	if err := wire.CheckBounds(buf, offset, st.Size, st.Name); err != nil {
		return nil, err
	}
	if err := validate(buf, offset, st); err != nil {
		return nil, err
	}
	r := &Record{st: st, buf: make([]byte, st.Size)}
	copy(r.buf, buf[offset:offset+st.Size])
	return r, nil
}

// ParseBytes is Parse that also returns the bytes following the struct.
func ParseBytes(st *model.Struct, buf []byte, offset int) (*Record, []byte, error) {
	r, err := Parse(st, buf, offset)
	if err != nil {
		return nil, nil, err
	}
	return r, buf[offset+st.Size:], nil
}

// ParseStream consumes exactly one st from reader. Error offsets are
// positions in the stream when reader is a *wire.Stream.
func ParseStream(st *model.Struct, reader io.Reader) (*Record, error) {
	start := wire.StreamOffset(reader)
	b, err := wire.ReadStream(reader, st.Size)
	if err != nil {
		return nil, wire.WithField(err, st.Name)
	}
	if err := validate(b, 0, st); err != nil {
		return nil, wire.ShiftOffset(err, start)
	}
	return &Record{st: st, buf: b}, nil
}

// Validate checks the constants and enum discriminants of st in buf at
// offset.
func Validate(st *model.Struct, buf []byte, offset int) error {
	if err := wire.CheckBounds(buf, offset, st.Size, st.Name); err != nil {
		return err
	}
	return validate(buf, offset, st)
}

// Struct returns the struct the record decodes.
func (r *Record) Struct() *model.Struct {
	return r.st
}

// Bytes returns a copy of the wire form.
func (r *Record) Bytes() []byte {
	return append([]byte(nil), r.buf...)
}

// Get returns the value at path.
func (r *Record) Get(path string) (any, error) {
	loc, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	if loc.index >= 0 {
		return getElem(r.buf, loc)
	}
	return getField(r.buf, loc.base, loc.field)
}

// Set stores v at path. Enum fields take an EnumValue, an integer or a
// variant name; nested structs take a *Record of the same struct.
func (r *Record) Set(path string, v any) error {
	loc, err := r.resolve(path)
	if err != nil {
		return err
	}
	if loc.index >= 0 {
		return setElem(r.buf, loc, v)
	}
	return setField(r.buf, loc.base, loc.field, v)
}

// SetText parses text according to the type at path and stores it.
func (r *Record) SetText(path, text string) error {
	loc, err := r.resolve(path)
	if err != nil {
		return err
	}
	v, err := parseText(loc.field, loc.index >= 0, text)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if loc.index >= 0 {
		return setElem(r.buf, loc, v)
	}
	return setField(r.buf, loc.base, loc.field, v)
}

// location is a resolved path: field lives in the struct starting at base.
// index is the element index for array paths and -1 otherwise.
type location struct {
	field *model.Field
	base  int
	index int
}

func (r *Record) resolve(path string) (location, error) {
	p, err := ParsePath(path)
	if err != nil {
		return location{}, err
	}
	st, base := r.st, 0
	for i, e := range p {
		f := st.Field(e.Name)
		if f == nil {
			return location{}, fmt.Errorf("%w: %s.%s", ErrFieldNotFound, st.Name, e.Name)
		}
		last := i == len(p)-1
		if e.Index >= 0 {
			if !f.IsArray() {
				return location{}, fmt.Errorf("%w: %s is not an array", ErrInvalidPath, f.QualifiedName())
			}
			if e.Index >= f.Len {
				return location{}, fmt.Errorf("%w: %s[%d], length %d", ErrIndex, f.QualifiedName(), e.Index, f.Len)
			}
		}
		if last {
			return location{field: f, base: base, index: e.Index}, nil
		}
		switch {
		case f.Kind == model.KindStruct && e.Index < 0:
			base += f.Offset
		case f.Kind == model.KindStructArray && e.Index >= 0:
			base += f.Offset + e.Index*f.Struct.Size
		default:
			return location{}, fmt.Errorf("%w: %s has no members", ErrInvalidPath, f.QualifiedName())
		}
		st = f.Struct
	}
	return location{}, ErrEmptyPath
}

func applyDefaults(buf []byte, base int, st *model.Struct) {
	for _, f := range st.Fields {
		off := base + f.Offset
		switch f.Kind {
		case model.KindStruct:
			applyDefaults(buf, off, f.Struct)
			continue
		case model.KindStructArray:
			for i := 0; i < f.Len; i++ {
				applyDefaults(buf, off+i*f.Struct.Size, f.Struct)
			}
			continue
		}
		v := f.Constant
		if v == nil {
			v = f.Default
		}
		if v == nil {
			continue
		}
		if v.Bytes != nil {
			copy(buf[off:off+f.Size], v.Bytes)
			continue
		}
		// values were range checked by the analyzer
		_ = putUint(buf, base, f, v.Int)
	}
}

func validate(buf []byte, base int, st *model.Struct) error {
	for _, f := range st.Fields {
		off := base + f.Offset
		switch f.Kind {
		case model.KindStruct:
			if err := validate(buf, off, f.Struct); err != nil {
				return err
			}
			continue
		case model.KindStructArray:
			for i := 0; i < f.Len; i++ {
				if err := validate(buf, off+i*f.Struct.Size, f.Struct); err != nil {
					return err
				}
			}
			continue
		}
		if c := f.Constant; c != nil {
			var err error
			if c.Bytes != nil {
				err = wire.CheckConstant(buf, off, c.Bytes, f.QualifiedName())
			} else {
				err = wire.CheckConstantUint(getUint(buf, base, f), c.Int, off, f.QualifiedName())
			}
			if err != nil {
				return err
			}
		}
		if f.Enum != nil {
			if err := checkDiscriminant(f.Enum, getUint(buf, base, f), off, f.QualifiedName()); err != nil {
				return err
			}
		}
	}
	return nil
}
