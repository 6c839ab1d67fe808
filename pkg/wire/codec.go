package wire

import "encoding/binary"

// Endian is the byte order of a multi-byte field.
type Endian uint8

const (
	// LittleEndian stores the least significant byte first.
	LittleEndian Endian = 0
	// BigEndian stores the most significant byte first.
	BigEndian Endian = 1
)

// String returns "le" or "be".
func (e Endian) String() string {
	if e == BigEndian {
		return "be"
	}
	return "le"
}

// Max24 is the largest value a 24-bit field can hold.
const Max24 = 0xFFFFFF

// CheckBounds returns a ShortBuffer error unless n bytes are available at
// offset.
func CheckBounds(buf []byte, offset, n int, field string) error {
	if offset < 0 || n < 0 || offset > len(buf) || len(buf)-offset < n {
		return ShortBuffer(field, offset, n, len(buf))
	}
	return nil
}

func checkWrite(buf []byte, offset, n int) error {
	if offset < 0 || n < 0 || offset > len(buf) || len(buf)-offset < n {
		return shortWrite("", offset, n, len(buf))
	}
	return nil
}

// --- unchecked accessors for buffers sized by construction ---

// U16LE decodes a little-endian uint16 from the start of b.
func U16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// U16BE decodes a big-endian uint16 from the start of b.
func U16BE(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// U24LE decodes a little-endian 24-bit value from the start of b.
func U24LE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// U24BE decodes a big-endian 24-bit value from the start of b.
func U24BE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// U32LE decodes a little-endian uint32 from the start of b.
func U32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// U32BE decodes a big-endian uint32 from the start of b.
func U32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// U64LE decodes a little-endian uint64 from the start of b.
func U64LE(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

// U64BE decodes a big-endian uint64 from the start of b.
func U64BE(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// PutU16LE encodes v little-endian into the start of b.
func PutU16LE(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// PutU16BE encodes v big-endian into the start of b.
func PutU16BE(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }

// PutU24LE encodes the low 24 bits of v little-endian into the start of b.
func PutU24LE(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// PutU24BE encodes the low 24 bits of v big-endian into the start of b.
func PutU24BE(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// PutU32LE encodes v little-endian into the start of b.
func PutU32LE(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// PutU32BE encodes v big-endian into the start of b.
func PutU32BE(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

// PutU64LE encodes v little-endian into the start of b.
func PutU64LE(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

// PutU64BE encodes v big-endian into the start of b.
func PutU64BE(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }

// Uint decodes an unsigned integer of size bytes (1 to 8) from the start of b.
func Uint(b []byte, size int, endian Endian) uint64 {
	var v uint64
	for i := 0; i < size; i++ {
		if endian == BigEndian {
			v = v<<8 | uint64(b[i])
		} else {
			v |= uint64(b[i]) << (8 * i)
		}
	}
	return v
}

// PutUint encodes the low size bytes of v into the start of b.
func PutUint(b []byte, size int, endian Endian, v uint64) {
	for i := 0; i < size; i++ {
		shift := 8 * i
		if endian == BigEndian {
			shift = 8 * (size - 1 - i)
		}
		b[i] = byte(v >> shift)
	}
}

// MaxUint returns the largest value representable in bits bits.
func MaxUint(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// --- bounded readers ---

// ReadU8 reads one byte at offset.
func ReadU8(buf []byte, offset int) (uint8, error) {
	if err := CheckBounds(buf, offset, 1, ""); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

// ReadI8 reads one signed byte at offset.
func ReadI8(buf []byte, offset int) (int8, error) {
	v, err := ReadU8(buf, offset)
	return int8(v), err
}

// ReadU16LE reads a little-endian uint16 at offset.
func ReadU16LE(buf []byte, offset int) (uint16, error) {
	if err := CheckBounds(buf, offset, 2, ""); err != nil {
		return 0, err
	}
	return U16LE(buf[offset:]), nil
}

// ReadU16BE reads a big-endian uint16 at offset.
func ReadU16BE(buf []byte, offset int) (uint16, error) {
	if err := CheckBounds(buf, offset, 2, ""); err != nil {
		return 0, err
	}
	return U16BE(buf[offset:]), nil
}

// ReadU24LE reads a little-endian 24-bit value at offset.
func ReadU24LE(buf []byte, offset int) (uint32, error) {
	if err := CheckBounds(buf, offset, 3, ""); err != nil {
		return 0, err
	}
	return U24LE(buf[offset:]), nil
}

// ReadU24BE reads a big-endian 24-bit value at offset.
func ReadU24BE(buf []byte, offset int) (uint32, error) {
	if err := CheckBounds(buf, offset, 3, ""); err != nil {
		return 0, err
	}
	return U24BE(buf[offset:]), nil
}

// ReadU32LE reads a little-endian uint32 at offset.
func ReadU32LE(buf []byte, offset int) (uint32, error) {
	if err := CheckBounds(buf, offset, 4, ""); err != nil {
		return 0, err
	}
	return U32LE(buf[offset:]), nil
}

// ReadU32BE reads a big-endian uint32 at offset.
func ReadU32BE(buf []byte, offset int) (uint32, error) {
	if err := CheckBounds(buf, offset, 4, ""); err != nil {
		return 0, err
	}
	return U32BE(buf[offset:]), nil
}

// ReadU64LE reads a little-endian uint64 at offset.
func ReadU64LE(buf []byte, offset int) (uint64, error) {
	if err := CheckBounds(buf, offset, 8, ""); err != nil {
		return 0, err
	}
	return U64LE(buf[offset:]), nil
}

// ReadU64BE reads a big-endian uint64 at offset.
func ReadU64BE(buf []byte, offset int) (uint64, error) {
	if err := CheckBounds(buf, offset, 8, ""); err != nil {
		return 0, err
	}
	return U64BE(buf[offset:]), nil
}

// ReadUint reads an unsigned integer of size bytes at offset.
func ReadUint(buf []byte, offset, size int, endian Endian) (uint64, error) {
	if err := CheckBounds(buf, offset, size, ""); err != nil {
		return 0, err
	}
	return Uint(buf[offset:], size, endian), nil
}

// --- bounded writers ---

// WriteU8 writes one byte at offset.
func WriteU8(buf []byte, offset int, v uint8) error {
	if err := checkWrite(buf, offset, 1); err != nil {
		return err
	}
	buf[offset] = v
	return nil
}

// WriteI8 writes one signed byte at offset.
func WriteI8(buf []byte, offset int, v int8) error {
	return WriteU8(buf, offset, uint8(v))
}

// WriteU16LE writes v little-endian at offset.
func WriteU16LE(buf []byte, offset int, v uint16) error {
	if err := checkWrite(buf, offset, 2); err != nil {
		return err
	}
	PutU16LE(buf[offset:], v)
	return nil
}

// WriteU16BE writes v big-endian at offset.
func WriteU16BE(buf []byte, offset int, v uint16) error {
	if err := checkWrite(buf, offset, 2); err != nil {
		return err
	}
	PutU16BE(buf[offset:], v)
	return nil
}

// WriteU24LE writes v as a little-endian 24-bit value at offset.
func WriteU24LE(buf []byte, offset int, v uint32) error {
	if v > Max24 {
		return OutOfRange("", uint64(v), Max24)
	}
	if err := checkWrite(buf, offset, 3); err != nil {
		return err
	}
	PutU24LE(buf[offset:], v)
	return nil
}

// WriteU24BE writes v as a big-endian 24-bit value at offset.
func WriteU24BE(buf []byte, offset int, v uint32) error {
	if v > Max24 {
		return OutOfRange("", uint64(v), Max24)
	}
	if err := checkWrite(buf, offset, 3); err != nil {
		return err
	}
	PutU24BE(buf[offset:], v)
	return nil
}

// WriteU32LE writes v little-endian at offset.
func WriteU32LE(buf []byte, offset int, v uint32) error {
	if err := checkWrite(buf, offset, 4); err != nil {
		return err
	}
	PutU32LE(buf[offset:], v)
	return nil
}

// WriteU32BE writes v big-endian at offset.
func WriteU32BE(buf []byte, offset int, v uint32) error {
	if err := checkWrite(buf, offset, 4); err != nil {
		return err
	}
	PutU32BE(buf[offset:], v)
	return nil
}

// WriteU64LE writes v little-endian at offset.
func WriteU64LE(buf []byte, offset int, v uint64) error {
	if err := checkWrite(buf, offset, 8); err != nil {
		return err
	}
	PutU64LE(buf[offset:], v)
	return nil
}

// WriteU64BE writes v big-endian at offset.
func WriteU64BE(buf []byte, offset int, v uint64) error {
	if err := checkWrite(buf, offset, 8); err != nil {
		return err
	}
	PutU64BE(buf[offset:], v)
	return nil
}

// WriteUint writes v as an unsigned integer of size bytes at offset. Values
// that do not fit in size bytes fail with OutOfRange.
func WriteUint(buf []byte, offset, size int, endian Endian, v uint64) error {
	if max := MaxUint(8 * size); v > max {
		return OutOfRange("", v, max)
	}
	if err := checkWrite(buf, offset, size); err != nil {
		return err
	}
	PutUint(buf[offset:], size, endian, v)
	return nil
}

// WriteBytes copies src into buf at offset.
func WriteBytes(buf []byte, offset int, src []byte) error {
	if err := checkWrite(buf, offset, len(src)); err != nil {
		return err
	}
	copy(buf[offset:], src)
	return nil
}

// ReadBytes returns a copy of n bytes at offset.
func ReadBytes(buf []byte, offset, n int) ([]byte, error) {
	if err := CheckBounds(buf, offset, n, ""); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[offset:offset+n])
	return out, nil
}

// Fill sets n bytes at offset to v.
func Fill(buf []byte, offset, n int, v byte) error {
	if err := checkWrite(buf, offset, n); err != nil {
		return err
	}
	for i := offset; i < offset+n; i++ {
		buf[i] = v
	}
	return nil
}
