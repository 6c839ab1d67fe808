package dfu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/wire"
)

func TestDfuRoundTrip(t *testing.T) {
	st := NewFuStructDfuFtr()
	assert.Equal(t, uint16(0x0100), st.Ver())
	st.SetRelease(0x1234)
	st.SetPid(0xA1B2)
	st.SetVid(0x273F)
	st.SetCrc(0xDEADBEEF)

	image := append([]byte{0xAA, 0xBB}, st.Bytes()...)
	assert.Equal(t, []byte{0x55, 0x46, 0x44, 0x10}, image[10:14])

	got, err := ParseFuStructDfuFtr(image, 2)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), got.Release())
	assert.Equal(t, uint16(0xA1B2), got.Pid())
	assert.Equal(t, uint16(0x273F), got.Vid())
	assert.Equal(t, uint32(0xDEADBEEF), got.Crc())
	assert.Equal(t, st.Bytes(), got.Bytes())

	_, rest, err := ParseFuStructDfuFtrBytes(append(image, 0x01), 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, rest)

	assert.Contains(t, got.String(), "FuStructDfuFtr:\n  release: 0x1234")
}

func TestDfuValidate(t *testing.T) {
	buf := NewFuStructDfuFtr().Bytes()
	rest, err := ValidateFuStructDfuFtrBytes(buf, 0)
	require.NoError(t, err)
	assert.Empty(t, rest)

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
		is     error
		msg    string
	}{
		{
			name:   "length constant",
			mutate: func(b []byte) []byte { b[11] = 0x11; return b },
			is:     wire.ErrInvalidFormat,
			msg:    "constant FuStructDfuFtr.len was not valid, expected 0x10 and got 0x11 @0xb",
		},
		{
			name:   "signature",
			mutate: func(b []byte) []byte { b[8] = 'X'; return b },
			is:     wire.ErrInvalidFormat,
			msg:    "FuStructDfuFtr.sig",
		},
		{
			name:   "short",
			mutate: func(b []byte) []byte { return b[:15] },
			is:     wire.ErrShortBuffer,
			msg:    "attempted to read 0x10 bytes at offset 0x00 from buffer of 0x0f",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.mutate(NewFuStructDfuFtr().Bytes())
			_, err := ValidateFuStructDfuFtrBytes(b, 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is))
			assert.ErrorContains(t, err, tt.msg)

			_, err = ParseFuStructDfuFtr(b, 0)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
