package zip

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/wire"
)

func localHeader(size uint32) []byte {
	st := NewFuStructZipLocal()
	st.SetCompression(FuZipCompressionDeflate)
	st.SetCompressedSize(size)
	st.SetFilenameSize(8)
	return st.Bytes()
}

func TestZipLocalStream(t *testing.T) {
	var archive []byte
	archive = append(archive, localHeader(10)...)
	archive = append(archive, localHeader(20)...)

	s := wire.NewStream(bytes.NewReader(archive))
	for _, want := range []uint32{10, 20} {
		st, err := ParseFuStructZipLocalStream(s)
		require.NoError(t, err)
		assert.Equal(t, want, st.CompressedSize())
		assert.Equal(t, FuZipCompressionDeflate, st.Compression())
		assert.Equal(t, uint16(8), st.FilenameSize())
	}
	assert.Equal(t, 2*FuStructZipLocalSize, s.Offset())

	_, err := ParseFuStructZipLocalStream(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrShortBuffer))
	assert.EqualError(t, err, "attempted to read 0x1e bytes at offset 0x3c from buffer of 0x00 for FuStructZipLocal")
}

// TestZipStreamOffsets checks that a failure in the second record counts
// from the start of the archive only when the reader is a wire.Stream.
func TestZipStreamOffsets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b []byte)
		field  string
		offset int
		is     error
	}{
		{"magic", func(b []byte) { b[0] = 'X' }, "FuStructZipLocal.magic", 0, wire.ErrInvalidFormat},
		{"compression", func(b []byte) { b[8] = 0x0c }, "FuStructZipLocal.compression", 8, wire.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			second := localHeader(20)
			tt.mutate(second)
			archive := append(localHeader(10), second...)

			for _, stream := range []bool{true, false} {
				var r io.Reader = bytes.NewReader(archive)
				base := 0
				if stream {
					r = wire.NewStream(r)
					base = FuStructZipLocalSize
				}
				_, err := ParseFuStructZipLocalStream(r)
				require.NoError(t, err)

				err = ValidateFuStructZipLocalStream(r)
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.is))
				var we *wire.Error
				require.True(t, errors.As(err, &we))
				assert.Equal(t, tt.field, we.Field)
				assert.Equal(t, base+tt.offset, we.Offset, "stream %v", stream)
			}
		})
	}
}

func TestZipEocd(t *testing.T) {
	st := NewFuStructZipEocd()
	st.SetCdNumber(2)
	st.SetCdOffset(0x1234)
	buf := st.Bytes()
	assert.Equal(t, []byte{0x50, 0x4B, 0x05, 0x06}, buf[:4])

	s := wire.NewStream(bytes.NewReader(append(localHeader(1), buf...)))
	_, err := ParseFuStructZipLocalStream(s)
	require.NoError(t, err)
	got, err := ParseFuStructZipEocdStream(s)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), got.CdNumber())
	assert.Equal(t, uint32(0x1234), got.CdOffset())

	buf[0] = 0
	err = ValidateFuStructZipEocdStream(bytes.NewReader(buf))
	assert.EqualError(t, err, "constant FuStructZipEocd.magic was not valid, expected 0x6054b50 and got 0x6054b00 @0x0")
}

func TestZipCompressionText(t *testing.T) {
	v, err := FuZipCompressionFromString("DEFLATE")
	require.NoError(t, err)
	assert.Equal(t, FuZipCompressionDeflate, v)
	assert.Equal(t, "deflate", v.String())

	st, err := ParseFuStructZipLocal(localHeader(3), 0)
	require.NoError(t, err)
	assert.Contains(t, st.String(), "compression: 0x8 [deflate]")
}
