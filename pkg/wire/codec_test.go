package wire

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadersBigAndLittleEndian(t *testing.T) {
	buf := []byte{0xD0, 0x0D, 0xFE, 0xED, 0x00, 0x00, 0x04, 0x00}

	v32, err := ReadU32BE(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xD00DFEED), v32)

	v32, err = ReadU32BE(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), v32)

	v16, err := ReadU16LE(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0DD0), v16)

	v24, err := ReadU24LE(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xEDFE0D), v24)

	v24, err = ReadU24BE(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0DFEED), v24)

	v64, err := ReadU64BE(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xD00DFEED00000400), v64)

	i8, err := ReadI8([]byte{0xFF}, 0)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)
}

func TestReadShortBuffer(t *testing.T) {
	_, err := ReadU32LE([]byte{1, 2, 3}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortBuffer))

	var we *Error
	require.True(t, errors.As(err, &we))
	assert.Equal(t, 4, we.Need)
	assert.Equal(t, 3, we.Have)
	assert.Equal(t, "attempted to read 0x04 bytes at offset 0x00 from buffer of 0x03", err.Error())

	_, err = ReadU8(nil, 0)
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = ReadU16BE([]byte{1, 2}, -1)
	assert.ErrorIs(t, err, ErrShortBuffer)
	assert.Equal(t, "attempted to read 0x02 bytes at negative offset -1 from buffer of 0x02", err.Error())

	err = CheckBounds(make([]byte, 16), -16, 16, "FuStructDfuFtr")
	assert.Equal(t, "attempted to read 0x10 bytes at negative offset -16 from buffer of 0x10 for FuStructDfuFtr", err.Error())
}

func TestWriteShortBuffer(t *testing.T) {
	err := WriteU16LE(make([]byte, 3), 2, 7)
	require.ErrorIs(t, err, ErrShortBuffer)
	assert.True(t, strings.HasPrefix(err.Error(), "attempted to write 0x02 bytes at offset 0x02"))

	err = WriteU8(make([]byte, 1), -2, 7)
	assert.Equal(t, "attempted to write 0x01 bytes at negative offset -2 to buffer of 0x01", err.Error())
}

func TestEndiannessByteOrder(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		endian Endian
		value  uint64
	}{
		{"u16le", 2, LittleEndian, 0x1234},
		{"u16be", 2, BigEndian, 0x1234},
		{"u24le", 3, LittleEndian, 0x123456},
		{"u24be", 3, BigEndian, 0x123456},
		{"u32le", 4, LittleEndian, 0xDEADBEEF},
		{"u32be", 4, BigEndian, 0xDEADBEEF},
		{"u64le", 8, LittleEndian, 0x0102030405060708},
		{"u64be", 8, BigEndian, 0x0102030405060708},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.size)
			require.NoError(t, WriteUint(buf, 0, tt.size, tt.endian, tt.value))
			for i := 0; i < tt.size; i++ {
				shift := 8 * i
				if tt.endian == BigEndian {
					shift = 8 * (tt.size - 1 - i)
				}
				assert.Equal(t, byte(tt.value>>shift), buf[i], "byte %d", i)
			}
			got, err := ReadUint(buf, 0, tt.size, tt.endian)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestTypedWritersMatchGeneric(t *testing.T) {
	a := make([]byte, 8)
	b := make([]byte, 8)
	require.NoError(t, WriteU32BE(a, 0, 0xCAFEBABE))
	require.NoError(t, WriteUint(b, 0, 4, BigEndian, 0xCAFEBABE))
	assert.Equal(t, a, b)

	require.NoError(t, WriteU64LE(a, 0, 42))
	assert.Equal(t, uint64(42), U64LE(a))

	require.NoError(t, WriteU24BE(a, 0, 0xABCDEF))
	assert.Equal(t, []byte{0xAB, 0xCD, 0xEF}, a[:3])
}

func TestWriteOutOfRange(t *testing.T) {
	err := WriteU24LE(make([]byte, 3), 0, 0x1000000)
	require.ErrorIs(t, err, ErrOutOfRange)

	err = WriteUint(make([]byte, 2), 0, 2, LittleEndian, 0x10000)
	var we *Error
	require.True(t, errors.As(err, &we))
	assert.Equal(t, uint64(0xFFFF), we.Max)
}

func TestBytesHelpers(t *testing.T) {
	buf := make([]byte, 6)
	require.NoError(t, Fill(buf, 2, 4, 0xFF))
	assert.Equal(t, []byte{0, 0, 0xFF, 0xFF, 0xFF, 0xFF}, buf)

	out, err := ReadBytes(buf, 1, 2)
	require.NoError(t, err)
	out[0] = 9
	assert.Equal(t, byte(0), buf[1], "ReadBytes must copy")

	require.NoError(t, WriteBytes(buf, 0, []byte{1, 2}))
	assert.True(t, bytes.HasPrefix(buf, []byte{1, 2}))
	assert.ErrorIs(t, WriteBytes(buf, 5, []byte{1, 2}), ErrShortBuffer)
}

func TestMaxUint(t *testing.T) {
	assert.Equal(t, uint64(1), MaxUint(1))
	assert.Equal(t, uint64(0xF), MaxUint(4))
	assert.Equal(t, uint64(0xFFFFFF), MaxUint(24))
	assert.Equal(t, ^uint64(0), MaxUint(64))
}
