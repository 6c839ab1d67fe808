package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a runtime failure.
type Kind uint8

const (
	// KindShortBuffer indicates there were not enough bytes for the requested
	// field or structure.
	KindShortBuffer Kind = 1

	// KindInvalidFormat indicates a constant field did not hold its declared
	// value.
	KindInvalidFormat Kind = 2

	// KindInvalidData indicates bytes that are well-sized but meaningless,
	// such as a character array that is not UTF-8 or an unknown enum
	// discriminant.
	KindInvalidData Kind = 3

	// KindOutOfRange indicates a value does not fit the declared field width.
	KindOutOfRange Kind = 4
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindShortBuffer:
		return "SHORT_BUFFER"
	case KindInvalidFormat:
		return "INVALID_FORMAT"
	case KindInvalidData:
		return "INVALID_DATA"
	case KindOutOfRange:
		return "OUT_OF_RANGE"
	default:
		return "UNKNOWN"
	}
}

// Sentinel errors matched by errors.Is against any *Error of that kind.
var (
	ErrShortBuffer   = errors.New("wire: short buffer")
	ErrInvalidFormat = errors.New("wire: invalid format")
	ErrInvalidData   = errors.New("wire: invalid data")
	ErrOutOfRange    = errors.New("wire: value out of range")
)

// Error describes a runtime failure. Only the members relevant to Kind are
// set.
type Error struct {
	Kind Kind

	// Field is the qualified field name, e.g. "FuStructCabHeader.signature".
	// Empty when the failure is about a whole structure.
	Field string

	// Offset is the byte offset of the failing access.
	Offset int

	// Need and Have are the byte counts of a ShortBuffer failure. Write is
	// set when the failing access was a write.
	Need  int
	Have  int
	Write bool

	// Expected and Got are the constant and observed bytes of an
	// InvalidFormat failure. Integer constants set Numeric and carry the
	// values in WantUint and GotUint instead.
	Expected []byte
	Got      []byte
	Numeric  bool
	WantUint uint64
	GotUint  uint64

	// Value and Max describe an OutOfRange failure.
	Value uint64
	Max   uint64

	// Reason is a free-form detail for InvalidData.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindShortBuffer:
		verb, prep := "read", "from"
		if e.Write {
			verb, prep = "write", "to"
		}
		if e.Offset < 0 {
			fmt.Fprintf(&b, "attempted to %s 0x%02x bytes at negative offset %d %s buffer of 0x%02x", verb, e.Need, e.Offset, prep, e.Have)
		} else {
			fmt.Fprintf(&b, "attempted to %s 0x%02x bytes at offset 0x%02x %s buffer of 0x%02x", verb, e.Need, e.Offset, prep, e.Have)
		}
	case KindInvalidFormat:
		if e.Numeric {
			fmt.Fprintf(&b, "constant %s was not valid, expected 0x%x and got 0x%x @0x%x", e.name(), e.WantUint, e.GotUint, e.Offset)
		} else {
			fmt.Fprintf(&b, "constant %s was not valid, expected %s and got %s @0x%x", e.name(), formatConstant(e.Expected), formatConstant(e.Got), e.Offset)
		}
		return b.String()
	case KindInvalidData:
		fmt.Fprintf(&b, "%s is invalid @0x%x", e.name(), e.Offset)
		if e.Reason != "" {
			b.WriteString(": ")
			b.WriteString(e.Reason)
		}
		return b.String()
	case KindOutOfRange:
		fmt.Fprintf(&b, "value 0x%x for %s is out of range, maximum 0x%x", e.Value, e.name(), e.Max)
		return b.String()
	default:
		b.WriteString("unknown wire error")
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " for %s", e.Field)
	}
	return b.String()
}

func (e *Error) name() string {
	if e.Field == "" {
		return "value"
	}
	return e.Field
}

// Unwrap returns the sentinel error for the kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindShortBuffer:
		return ErrShortBuffer
	case KindInvalidFormat:
		return ErrInvalidFormat
	case KindInvalidData:
		return ErrInvalidData
	case KindOutOfRange:
		return ErrOutOfRange
	default:
		return nil
	}
}

// ShortBuffer returns a ShortBuffer error for an access of need bytes at
// offset into a buffer of have bytes.
func ShortBuffer(field string, offset, need, have int) error {
	return &Error{Kind: KindShortBuffer, Field: field, Offset: offset, Need: need, Have: have}
}

func shortWrite(field string, offset, need, have int) error {
	return &Error{Kind: KindShortBuffer, Field: field, Offset: offset, Need: need, Have: have, Write: true}
}

// InvalidFormat returns an InvalidFormat error. The byte slices are copied.
func InvalidFormat(field string, offset int, expected, got []byte) error {
	return &Error{
		Kind:     KindInvalidFormat,
		Field:    field,
		Offset:   offset,
		Expected: append([]byte(nil), expected...),
		Got:      append([]byte(nil), got...),
	}
}

// InvalidData returns an InvalidData error.
func InvalidData(field string, offset int, reason string) error {
	return &Error{Kind: KindInvalidData, Field: field, Offset: offset, Reason: reason}
}

// OutOfRange returns an OutOfRange error for value exceeding max.
func OutOfRange(field string, value, max uint64) error {
	return &Error{Kind: KindOutOfRange, Field: field, Value: value, Max: max}
}

// WithField returns err with its field name set when it is an *Error without
// one. Other errors are returned unchanged.
func WithField(err error, field string) error {
	var we *Error
	if !errors.As(err, &we) || we.Field != "" {
		return err
	}
	cp := *we
	cp.Field = field
	return &cp
}

// formatConstant renders constant bytes as a quoted string when printable and
// as hex otherwise.
func formatConstant(b []byte) string {
	printable := len(b) > 0
	for _, c := range b {
		if c == 0 {
			continue
		}
		if c < 0x20 || c > 0x7e {
			printable = false
			break
		}
	}
	if printable {
		return "'" + strings.TrimRight(string(b), "\x00") + "'"
	}
	return "0x" + Hex(b)
}

// ShiftOffset returns err with its offset moved by delta when it is an
// *Error. Decoders of a stream use it to report positions in the stream.
func ShiftOffset(err error, delta int) error {
	var we *Error
	if delta == 0 || !errors.As(err, &we) {
		return err
	}
	cp := *we
	cp.Offset += delta
	return &cp
}
