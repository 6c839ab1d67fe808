package traits

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fwupd/fustruct-go/pkg/model"
)

// Plan holds the export levels of every type and field of a schema.
type Plan struct {
	Schema *model.Schema

	structs map[*model.Struct]*StructPlan
	enums   map[*model.Enum]*EnumPlan
}

// StructPlan is the plan of one struct.
type StructPlan struct {
	Struct *model.Struct
	Fields []*FieldPlan

	plan    *Plan
	exports exports
}

// FieldPlan holds the accessor levels of one field.
type FieldPlan struct {
	Field  *model.Field
	Getter Export
	Setter Export
}

// EnumPlan is the plan of one enum.
type EnumPlan struct {
	Enum *model.Enum

	exports exports
}

// Build expands the derive lists of s. The schema must have been built
// without errors.
func Build(s *model.Schema) *Plan {
	p := &Plan{
		Schema:  s,
		structs: make(map[*model.Struct]*StructPlan, len(s.Structs)),
		enums:   make(map[*model.Enum]*EnumPlan, len(s.Enums)),
	}
	for _, e := range s.Enums {
		p.enums[e] = &EnumPlan{Enum: e, exports: make(exports)}
	}
	for _, st := range s.Structs {
		sp := &StructPlan{Struct: st, plan: p, exports: make(exports)}
		for _, f := range st.Fields {
			sp.Fields = append(sp.Fields, &FieldPlan{Field: f})
		}
		p.structs[st] = sp
	}
	for _, e := range s.Enums {
		ep := p.enums[e]
		for _, d := range e.Derives {
			ep.exports.raise(Trait(d), ExportPublic)
		}
	}
	for _, st := range s.Structs {
		sp := p.structs[st]
		for _, d := range st.Derives {
			sp.addPublic(Trait(d))
		}
	}
	return p
}

// Struct returns the plan of st.
func (p *Plan) Struct(st *model.Struct) *StructPlan {
	return p.structs[st]
}

// Enum returns the plan of e.
func (p *Plan) Enum(e *model.Enum) *EnumPlan {
	return p.enums[e]
}

// Export returns the level of t.
func (sp *StructPlan) Export(t Trait) Export {
	return sp.exports.get(t)
}

// Field returns the plan of f.
func (sp *StructPlan) Field(f *model.Field) *FieldPlan {
	for _, fp := range sp.Fields {
		if fp.Field == f {
			return fp
		}
	}
	return nil
}

// Export returns the level of t.
func (ep *EnumPlan) Export(t Trait) Export {
	return ep.exports.get(t)
}

func (sp *StructPlan) addPublic(t Trait) {
	switch t {
	case Getters, Setters:
		for _, fp := range sp.Fields {
			if fp.Field.Constant == nil {
				fp.raise(t, ExportPublic)
			}
		}
	default:
		sp.addPrivate(t)
		sp.exports.raise(t, ExportPublic)
	}

	switch t {
	case Parse, ParseBytes, ParseStream:
		sp.addPublic(Getters)
	case New:
		sp.addPublic(Setters)
	}
}

func (sp *StructPlan) addPrivate(t Trait) {
	if !sp.exports.raise(t, ExportPrivate) {
		return
	}
	switch t {
	case Validate, ValidateStream:
		sp.addPrivate(ValidateInternal)
	case ValidateBytes:
		sp.addPrivate(Validate)
	case Parse, ParseStream:
		sp.addPrivate(ParseInternal)
	case ParseBytes:
		sp.addPrivate(Parse)
	case ParseInternal:
		sp.addPrivate(ValidateInternal)
		sp.checkedFields()
	case ValidateInternal:
		sp.checkedFields()
	case ToString:
		for _, fp := range sp.Fields {
			f := fp.Field
			if f.Struct != nil {
				sp.plan.structs[f.Struct].addPrivate(ToString)
			}
			if f.Enum != nil && f.Constant == nil && f.Enabled() {
				sp.plan.enums[f.Enum].exports.raise(ToString, ExportPrivate)
			}
		}
	case New:
		for _, fp := range sp.Fields {
			if fp.Field.Constant != nil && fp.Field.Kind != model.KindBytes {
				fp.raise(Setters, ExportPrivate)
			}
		}
	}
}

// checkedFields marks what validation reads: constant scalars and the
// validators of nested structs.
func (sp *StructPlan) checkedFields() {
	for _, fp := range sp.Fields {
		f := fp.Field
		if f.Constant != nil && f.Kind != model.KindString && f.Kind != model.KindBytes {
			fp.raise(Getters, ExportPrivate)
		}
		if f.Struct != nil {
			sp.plan.structs[f.Struct].addPrivate(ValidateInternal)
		}
	}
}

func (fp *FieldPlan) raise(t Trait, level Export) {
	if !fp.Field.Enabled() {
		return
	}
	switch t {
	case Getters:
		fp.Getter = max(fp.Getter, level)
	case Setters:
		fp.Setter = max(fp.Setter, level)
	}
}

// Describe writes the export levels of every type as a table.
func (p *Plan) Describe(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range p.Schema.Types {
		switch t := t.(type) {
		case *model.Enum:
			ep := p.enums[t]
			fmt.Fprintf(tw, "enum %s\n", t.Name)
			for _, tr := range EnumTraits {
				if lvl := ep.Export(tr); lvl != ExportNone {
					fmt.Fprintf(tw, "  %s\t%s\n", tr, lvl)
				}
			}
		case *model.Struct:
			sp := p.structs[t]
			fmt.Fprintf(tw, "struct %s\n", t.Name)
			for _, tr := range StructTraits {
				if lvl := sp.Export(tr); lvl != ExportNone {
					fmt.Fprintf(tw, "  %s\t%s\n", tr, lvl)
				}
			}
			for _, fp := range sp.Fields {
				if fp.Getter == ExportNone && fp.Setter == ExportNone {
					continue
				}
				fmt.Fprintf(tw, "  .%s\tget %s\tset %s\n", fp.Field.Name, fp.Getter, fp.Setter)
			}
		}
	}
	return tw.Flush()
}
