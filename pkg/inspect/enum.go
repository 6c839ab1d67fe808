package inspect

import (
	"fmt"
	"strings"

	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

// EnumValue is the decoded value of an enum field. Value keeps the raw
// discriminant, so unknown values survive a round trip.
type EnumValue struct {
	Enum  *model.Enum
	Value uint64
}

// Name returns the variant string, or "" when the value is unknown and the
// enum has no sentinel.
func (v EnumValue) Name() string {
	return EnumString(v.Enum, v.Value)
}

// String returns Name, or the value in hex when there is no name.
func (v EnumValue) String() string {
	if n := v.Name(); n != "" {
		return n
	}
	return fmt.Sprintf("0x%x", v.Value)
}

// Known reports whether the value names a declared variant.
func (v EnumValue) Known() bool {
	vr := v.Enum.Lookup(v.Value)
	return vr != nil && (!vr.Sentinel || vr.Value == v.Value)
}

// EnumString maps v to its kebab-case variant name. Unknown values map to
// the sentinel name when there is one and to "" otherwise.
func EnumString(e *model.Enum, v uint64) string {
	if vr := e.Lookup(v); vr != nil {
		return model.KebabCase(vr.Name)
	}
	return ""
}

// EnumBitString renders a bitflags value as "a|b". Bits no variant covers
// are appended as a single hex word so that EnumFromString restores the
// exact value.
func EnumBitString(e *model.Enum, v uint64) string {
	var zero string
	flags := make([]wire.Flag, 0, len(e.Variants))
	for _, vr := range e.Variants {
		if vr.Sentinel {
			continue
		}
		if vr.Value == 0 && zero == "" {
			zero = model.KebabCase(vr.Name)
		}
		flags = append(flags, wire.Flag{Name: model.KebabCase(vr.Name), Value: vr.Value})
	}
	return wire.FormatFlags(v, zero, flags)
}

// EnumFromString parses a variant name. Matching ignores case and the
// characters '-' and '_'. Bitflags enums also accept lists separated by ','
// or '|' whose items are names or 0x hex words.
func EnumFromString(e *model.Enum, s string) (uint64, error) {
	lookup := func(name string) (uint64, bool) {
		if vr := variantByName(e, name); vr != nil {
			return vr.Value, true
		}
		return 0, false
	}
	if e.Bitflags {
		return wire.ParseFlags(e.Name, s, lookup)
	}
	if v, ok := lookup(s); ok {
		return v, nil
	}
	return 0, wire.UnknownVariant(e.Name, s)
}

func variantByName(e *model.Enum, s string) *model.Variant {
	want := model.NormalizeVariant(strings.TrimSpace(s))
	for _, vr := range e.Variants {
		if model.NormalizeVariant(vr.Name) == want {
			return vr
		}
	}
	return nil
}

// checkDiscriminant reports InvalidData for a value a non-bitflags enum
// without a sentinel does not declare.
func checkDiscriminant(e *model.Enum, v uint64, offset int, field string) error {
	if e.Bitflags || e.Sentinel != nil || e.Lookup(v) != nil {
		return nil
	}
	return wire.InvalidData(field, offset, fmt.Sprintf("unknown %s value 0x%x", e.Name, v))
}
