package cab

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/wire"
)

func TestCabHeader(t *testing.T) {
	st := NewFuStructCabHeader()
	assert.Equal(t, uint8(3), st.VersionMinor())
	assert.Equal(t, uint8(1), st.VersionMajor())
	assert.Equal(t, uint16(1), st.NrFolders())
	st.SetSize(0x200)
	st.SetOffCffile(0x2c)
	st.SetNrFiles(2)
	st.SetSetId(0x1234)

	buf := st.Bytes()
	assert.Equal(t, []byte("MSCF"), buf[:4])
	require.NoError(t, ValidateFuStructCabHeader(buf, 0))

	folder := NewFuStructCabFolder()
	folder.SetOffCfdata(0x50)
	folder.SetNdatab(1)
	folder.SetCompression(FuCabCompressionMszip)
	cabinet := append(buf, folder.Bytes()...)

	got, rest, err := ParseFuStructCabHeaderBytes(cabinet, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x200), got.Size())
	assert.Equal(t, uint32(0x2c), got.OffCffile())
	assert.Equal(t, uint16(2), got.NrFiles())
	assert.Equal(t, uint16(0x1234), got.SetId())
	assert.Len(t, rest, FuStructCabFolderSize)

	gotFolder, err := ParseFuStructCabFolder(cabinet, FuStructCabHeaderSize)
	require.NoError(t, err)
	assert.Equal(t, FuCabCompressionMszip, gotFolder.Compression())
	assert.Equal(t, "mszip", gotFolder.Compression().String())
	assert.Contains(t, gotFolder.String(), "compression: 0x1 [mszip]")

	cabinet[FuStructCabHeaderSize+6] = 0x09
	_, err = ParseFuStructCabFolder(cabinet, FuStructCabHeaderSize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrInvalidData))
	assert.ErrorContains(t, err, "FuStructCabFolder.compression is invalid @0x2a")
}

func TestCabSignature(t *testing.T) {
	buf := NewFuStructCabHeader().Bytes()
	copy(buf, "MSCE")
	err := ValidateFuStructCabHeader(buf, 0)
	require.Error(t, err)
	assert.EqualError(t, err, `constant FuStructCabHeader.signature was not valid, expected 'MSCF' and got 'MSCE' @0x0`)

	_, err = ParseFuStructCabHeaderStream(bytes.NewReader(buf))
	assert.True(t, errors.Is(err, wire.ErrInvalidFormat))
}

func TestCabFileStream(t *testing.T) {
	file := NewFuStructCabFile()
	file.SetUsize(0x400)
	file.SetIndex(1)
	file.SetFattr(0x20)

	s := wire.NewStream(bytes.NewReader(append(file.Bytes(), "fw.bin\x00"...)))
	got, err := ParseFuStructCabFileStream(s)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x400), got.Usize())
	assert.Equal(t, uint16(1), got.Index())
	assert.Equal(t, uint16(0x20), got.Fattr())
	assert.Equal(t, FuStructCabFileSize, s.Offset())
	assert.Contains(t, got.String(), "FuStructCabFile:\n  usize: 0x400")
}
