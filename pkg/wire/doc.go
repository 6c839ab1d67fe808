// Package wire is the runtime used by code generated with fu-structgen.
//
// Generated structures keep their wire form in a fixed-size byte array and
// call into this package to move values in and out of it. Every function is a
// pure function of its arguments; nothing here retains a reference to a
// caller's buffer after returning.
//
// # Bounded access
//
// The Read* and Write* functions take a (buffer, offset) pair and fail with a
// ShortBuffer error instead of panicking when the access would overrun:
//
//	v, err := wire.ReadU32LE(buf, 0x10)
//
// The unchecked accessors (U16LE, PutU32BE, ...) are for buffers whose size
// is known by construction, such as the backing array of a generated type.
//
// # Errors
//
// All failures are *Error values. Use errors.Is with ErrShortBuffer,
// ErrInvalidFormat, ErrInvalidData or ErrOutOfRange to classify them, and
// errors.As to read the offset, field name and the expected and observed
// bytes.
//
// # Byte order
//
// Nothing depends on host byte order. Bitfields are packed LSB-first inside a
// little- or big-endian container integer.
package wire
