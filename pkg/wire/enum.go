package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Flag is one named bit of a bitflags enum.
type Flag struct {
	Name  string
	Value uint64
}

// NormalizeVariant folds a variant name for matching: lower case, with '-'
// and '_' removed.
func NormalizeVariant(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

// UnknownVariant is the error for a name enum does not declare.
func UnknownVariant(enum, s string) error {
	return fmt.Errorf("%w: %s has no variant %q", ErrInvalidData, enum, s)
}

// ParseFlags parses a list of names or 0x hex words separated by ',' or
// '|'. lookup resolves one name.
func ParseFlags(enum, s string, lookup func(string) (uint64, bool)) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("%w: empty %s value", ErrInvalidData, enum)
	}
	var v uint64
	for _, tok := range strings.Split(strings.ReplaceAll(s, "|", ","), ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return 0, fmt.Errorf("%w: empty element in %s value %q", ErrInvalidData, enum, s)
		}
		if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
			n, err := strconv.ParseUint(tok[2:], 16, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %s word %q is not hex", ErrInvalidData, enum, tok)
			}
			v |= n
			continue
		}
		n, ok := lookup(tok)
		if !ok {
			return 0, UnknownVariant(enum, tok)
		}
		v |= n
	}
	return v, nil
}

// FormatFlags renders v as the names of the flags it contains, joined by
// '|'. Bits no flag covers follow as one hex word. Zero renders as zero,
// or "0x0" when zero is empty.
func FormatFlags(v uint64, zero string, flags []Flag) string {
	if v == 0 {
		if zero != "" {
			return zero
		}
		return "0x0"
	}
	var parts []string
	rest := v
	for _, f := range flags {
		if f.Value == 0 || v&f.Value != f.Value {
			continue
		}
		parts = append(parts, f.Name)
		rest &^= f.Value
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", rest))
	}
	return strings.Join(parts, "|")
}

// FormatEnum renders an enum value as "0x2 [name]", or just the hex value
// when text is empty.
func FormatEnum(v uint64, text string) string {
	if text == "" {
		return fmt.Sprintf("0x%x", v)
	}
	return fmt.Sprintf("0x%x [%s]", v, text)
}
