package codegen

import (
	"fmt"

	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/traits"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// getter builds the public accessor of f.
func getter(f *model.Field) accessorData {
	a := accessorData{
		Doc: fmt.Sprintf("%s returns the %s field.", traits.GetterName(f), f.Name),
		Sig: traits.GetterSig(f),
	}
	lo, hi := f.Offset, f.Offset+f.Size
	off := at("", f.Offset)
	switch f.Kind {
	case model.KindString:
		a.Body = []string{
			fmt.Sprintf("s, err := wire.DecodeString(st.buf[%d:%d])", lo, hi),
			"if err != nil {",
			fmt.Sprintf("return \"\", wire.InvalidData(%q, %d, \"not valid UTF-8\")", f.QualifiedName(), lo),
			"}",
			"return s, nil",
		}
	case model.KindBytes:
		a.Body = []string{fmt.Sprintf("return append([]byte(nil), st.buf[%d:%d]...)", lo, hi)}
	case model.KindGuid:
		a.Body = []string{fmt.Sprintf("return wire.Guid(st.buf[%d:%d])", lo, hi)}
	case model.KindStruct:
		a.Body = []string{
			fmt.Sprintf("v := &%s{}", f.Struct.Name),
			fmt.Sprintf("copy(v.buf[:], st.buf[%d:%d])", lo, hi),
			"return v",
		}
	case model.KindStructArray:
		a.Doc = fmt.Sprintf("%s returns element idx of the %s field.", traits.GetterName(f), f.Name)
		sz := f.Struct.Size
		a.Body = append(indexCheck(f, "nil, "),
			fmt.Sprintf("off := %d + idx*%d", lo, sz),
			fmt.Sprintf("v := &%s{}", f.Struct.Name),
			fmt.Sprintf("copy(v.buf[:], st.buf[off:off+%d])", sz),
			"return v, nil",
		)
	case model.KindIntArray:
		es := f.ElemSize()
		elem := load("st.buf", fmt.Sprintf("%d+i*%d", lo, es), es, f.Endian)
		if f.Signed {
			elem = fmt.Sprintf("int%d(%s)", f.Bits, elem)
		}
		a.Body = []string{
			"var v " + traits.GoType(f),
			"for i := range v {",
			"v[i] = " + elem,
			"}",
			"return v",
		}
	default:
		a.Body = []string{"return " + valueExpr(f, "st.buf", off)}
	}
	return a
}

// setter builds the public mutator of f.
func setter(f *model.Field) accessorData {
	a := accessorData{
		Doc: fmt.Sprintf("%s sets the %s field.", traits.SetterName(f), f.Name),
		Sig: traits.SetterSig(f),
	}
	lo, hi := f.Offset, f.Offset+f.Size
	off := at("", f.Offset)
	q := f.QualifiedName()
	switch f.Kind {
	case model.KindUint, model.KindEnum, model.KindInt, model.KindChar:
		val := "v"
		if f.Kind != model.KindUint && f.Kind != model.KindChar {
			val = storageType(f.Size) + "(v)"
		}
		if traits.SetterErr(f) {
			limit := wire.MaxUint(8 * f.Size)
			a.Body = append(rangeCheck(q, "uint64(v)", limit),
				store("st.buf", off, f.Size, f.Endian, val),
				"return nil",
			)
			break
		}
		a.Body = []string{store("st.buf", off, f.Size, f.Endian, val)}
	case model.KindBits:
		a.Body = append(rangeCheck(q, "uint64(v)", wire.MaxUint(f.Bits)),
			fmt.Sprintf("c := wire.SetBits(uint64(%s), %d, %d, uint64(v))", load("st.buf", off, f.Size, f.Endian), f.Shift, f.Bits),
			store("st.buf", off, f.Size, f.Endian, storageType(f.Size)+"(c)"),
			"return nil",
		)
	case model.KindString:
		a.Body = []string{fmt.Sprintf("return wire.WithField(wire.WriteString(st.buf[:], %d, %d, v), %q)", lo, f.Size, q)}
	case model.KindBytes:
		a.Body = append(rangeCheck(q, "uint64(len(v))", uint64(f.Size)),
			fmt.Sprintf("clear(st.buf[%d:%d])", lo, hi),
			fmt.Sprintf("copy(st.buf[%d:%d], v)", lo, hi),
			"return nil",
		)
	case model.KindGuid:
		a.Body = []string{fmt.Sprintf("copy(st.buf[%d:%d], v[:])", lo, hi)}
	case model.KindStruct:
		a.Body = []string{fmt.Sprintf("copy(st.buf[%d:%d], v.buf[:])", lo, hi)}
	case model.KindStructArray:
		a.Doc = fmt.Sprintf("%s sets element idx of the %s field.", traits.SetterName(f), f.Name)
		sz := f.Struct.Size
		a.Body = append(indexCheck(f, ""),
			fmt.Sprintf("off := %d + idx*%d", lo, sz),
			fmt.Sprintf("copy(st.buf[off:off+%d], v.buf[:])", sz),
			"return nil",
		)
	case model.KindIntArray:
		es := f.ElemSize()
		elemOff := fmt.Sprintf("%d+i*%d", lo, es)
		val := storageType(es) + "(x)"
		if traits.SetterErr(f) {
			a.Body = append([]string{"for _, x := range v {"},
				rangeCheck(q, "uint64(x)", wire.MaxUint(8*es))...)
			a.Body = append(a.Body,
				"}",
				"for i, x := range v {",
				store("st.buf", elemOff, es, f.Endian, val),
				"}",
				"return nil",
			)
			break
		}
		a.Body = []string{
			"for i, x := range v {",
			store("st.buf", elemOff, es, f.Endian, val),
			"}",
		}
	}
	return a
}

// rangeCheck returns OutOfRange when expr exceeds limit.
func rangeCheck(field, expr string, limit uint64) []string {
	return []string{
		fmt.Sprintf("if %s > %s {", expr, hexConst(limit)),
		fmt.Sprintf("return wire.OutOfRange(%q, %s, %s)", field, expr, hexConst(limit)),
		"}",
	}
}

// indexCheck rejects an element index outside the array. zero holds the
// leading return values of the accessor.
func indexCheck(f *model.Field, zero string) []string {
	return []string{
		fmt.Sprintf("if idx < 0 || idx >= %d {", f.Len),
		fmt.Sprintf("return %swire.OutOfRange(%q, uint64(idx), %d)", zero, f.QualifiedName(), f.Len-1),
		"}",
	}
}
