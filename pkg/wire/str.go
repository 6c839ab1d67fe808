package wire

import (
	"bytes"
	"unicode/utf8"
)

// ReadString decodes the n-byte character array at offset. The result stops
// at the first NUL. Bytes that are not valid UTF-8 fail with InvalidData.
func ReadString(buf []byte, offset, n int) (string, error) {
	if err := CheckBounds(buf, offset, n, ""); err != nil {
		return "", err
	}
	return DecodeString(buf[offset : offset+n])
}

// DecodeString is ReadString over an exact-size array.
func DecodeString(b []byte) (string, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if !utf8.Valid(b) {
		return "", InvalidData("", 0, "not valid UTF-8")
	}
	return string(b), nil
}

// WriteString stores s in the n-byte character array at offset, padding
// with NUL. Strings longer than n fail with OutOfRange.
func WriteString(buf []byte, offset, n int, s string) error {
	if len(s) > n {
		return OutOfRange("", uint64(len(s)), uint64(n))
	}
	if err := checkWrite(buf, offset, n); err != nil {
		return err
	}
	EncodeString(buf[offset:offset+n], s)
	return nil
}

// EncodeString copies s into b and zeroes the remainder. The caller checks
// the length.
func EncodeString(b []byte, s string) {
	k := copy(b, s)
	clear(b[k:])
}

// CheckConstant compares the len(want) bytes at offset against want and
// returns InvalidFormat naming field when they differ.
func CheckConstant(buf []byte, offset int, want []byte, field string) error {
	if err := CheckBounds(buf, offset, len(want), field); err != nil {
		return err
	}
	got := buf[offset : offset+len(want)]
	if !bytes.Equal(got, want) {
		return InvalidFormat(field, offset, want, got)
	}
	return nil
}

// CheckConstantUint compares a decoded integer field against want.
func CheckConstantUint(got, want uint64, offset int, field string) error {
	if got == want {
		return nil
	}
	return &Error{
		Kind:     KindInvalidFormat,
		Field:    field,
		Offset:   offset,
		Numeric:  true,
		WantUint: want,
		GotUint:  got,
	}
}
