package wire

// Bits extracts width bits starting at bit shift of container value v.
// Bit 0 is the least significant bit.
func Bits(v uint64, shift, width int) uint64 {
	return (v >> shift) & MaxUint(width)
}

// SetBits returns v with width bits starting at shift replaced by x. Bits of
// x above width are discarded.
func SetBits(v uint64, shift, width int, x uint64) uint64 {
	mask := MaxUint(width) << shift
	return (v &^ mask) | ((x << shift) & mask)
}

// ReadBits reads a bitfield member from the size-byte container at offset.
func ReadBits(buf []byte, offset, size int, endian Endian, shift, width int) (uint64, error) {
	v, err := ReadUint(buf, offset, size, endian)
	if err != nil {
		return 0, err
	}
	return Bits(v, shift, width), nil
}

// WriteBits updates a bitfield member inside the size-byte container at
// offset, leaving the other members of the container unchanged. Values wider
// than width fail with OutOfRange.
func WriteBits(buf []byte, offset, size int, endian Endian, shift, width int, x uint64) error {
	if max := MaxUint(width); x > max {
		return OutOfRange("", x, max)
	}
	v, err := ReadUint(buf, offset, size, endian)
	if err != nil {
		return shortWrite("", offset, size, len(buf))
	}
	PutUint(buf[offset:], size, endian, SetBits(v, shift, width, x))
	return nil
}
