package inspect

import (
	"errors"
	"fmt"

	"github.com/fwupd/fustruct-go/pkg/model"
)

// ErrStructNotFound is returned for a struct name the schema does not
// declare.
var ErrStructNotFound = errors.New("struct not found")

// Inspector decodes buffers against the structs of one schema.
type Inspector struct {
	schema *model.Schema
}

// NewInspector creates a new Inspector for the given schema.
func NewInspector(s *model.Schema) *Inspector {
	return &Inspector{schema: s}
}

// Schema returns the underlying schema.
func (i *Inspector) Schema() *model.Schema {
	return i.schema
}

// Structs returns the struct names in declaration order.
func (i *Inspector) Structs() []string {
	names := make([]string, 0, len(i.schema.Structs))
	for _, st := range i.schema.Structs {
		names = append(names, st.Name)
	}
	return names
}

// Lookup returns the struct called name.
func (i *Inspector) Lookup(name string) (*model.Struct, error) {
	st := i.schema.Struct(name)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrStructNotFound, name)
	}
	return st, nil
}

// New returns a New record of the struct called name.
func (i *Inspector) New(name string) (*Record, error) {
	st, err := i.Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(st), nil
}

// Parse decodes the struct called name from buf at offset.
func (i *Inspector) Parse(name string, buf []byte, offset int) (*Record, error) {
	st, err := i.Lookup(name)
	if err != nil {
		return nil, err
	}
	return Parse(st, buf, offset)
}

// Detect returns every struct with at least one constant that parses at
// offset. Structs without constants would match any input and are skipped.
func (i *Inspector) Detect(buf []byte, offset int) []*Record {
	var out []*Record
	for _, st := range i.schema.Structs {
		if !st.HasConstants() {
			continue
		}
		if r, err := Parse(st, buf, offset); err == nil {
			out = append(out, r)
		}
	}
	return out
}
