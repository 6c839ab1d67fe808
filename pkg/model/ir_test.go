package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMarshalIRDeterministic(t *testing.T) {
	path := filepath.Join("..", "..", "testdata", "selftest.rs")
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	var first []byte
	for i := 0; i < 3; i++ {
		s, diags := Load(path, src)
		require.False(t, diags.HasErrors())
		data, err := MarshalIR(s)
		require.NoError(t, err)
		if first == nil {
			first = data
			continue
		}
		assert.True(t, bytes.Equal(first, data), "run %d produced different bytes", i)
	}
}

func TestUnmarshalIRRoundTrip(t *testing.T) {
	for _, name := range []string{"cab.rs", "flags.rs", "selftest.rs"} {
		t.Run(name, func(t *testing.T) {
			s := loadFile(t, name)
			data, err := MarshalIR(s)
			require.NoError(t, err)
			ir, err := UnmarshalIR(data)
			require.NoError(t, err)
			assert.Equal(t, ToIR(s), ir)
		})
	}
}

func TestUnmarshalIRRejectsGarbage(t *testing.T) {
	_, err := UnmarshalIR([]byte{0xFF, 0x00})
	assert.Error(t, err)
}

func TestToIR(t *testing.T) {
	s := loadFile(t, "flags.rs")
	ir := ToIR(s)
	require.Len(t, ir.Enums, 2)

	flags := ir.Enums[0]
	assert.Equal(t, "FwupdDeviceFlags", flags.Name)
	assert.Equal(t, 64, flags.Bits)
	assert.True(t, flags.Bitflags)
	last := flags.Variants[len(flags.Variants)-1]
	assert.Equal(t, IRVariant{Name: "Unknown", Value: ^uint64(0), String: "unknown", Sentinel: true}, last)
	assert.Equal(t, "needs-reboot", flags.Variants[9].String)

	require.Len(t, ir.Structs, 1)
	rec := ir.Structs[0]
	assert.Equal(t, 16, rec.Size)
	assert.Equal(t, IRField{Name: "flags", Type: "FwupdDeviceFlags", Kind: "enum", Offset: 4, Size: 8, Endian: "le", Default: "Updatable"}, rec.Fields[1])
}

func TestToIRBitfields(t *testing.T) {
	s := loadFile(t, "selftest.rs")
	ir := ToIR(s)
	var bits IRStruct
	for _, st := range ir.Structs {
		if st.Name == "FuStructSelfTestBits" {
			bits = st
		}
	}
	require.Len(t, bits.Fields, 4)
	middle := bits.Fields[1]
	assert.Equal(t, "bits", middle.Kind)
	assert.Equal(t, 1, middle.Bits)
	assert.Equal(t, 4, middle.Shift)
	assert.Equal(t, 2, middle.Size)
	assert.Equal(t, "le", middle.Endian)
}

func TestMarshalIRYAML(t *testing.T) {
	s := loadFile(t, "dfu.rs")
	data, err := MarshalIRYAML(s)
	require.NoError(t, err)

	var ir IR
	require.NoError(t, yaml.Unmarshal(data, &ir))
	require.Len(t, ir.Structs, 1)
	st := ir.Structs[0]
	assert.Equal(t, "FuStructDfuFtr", st.Name)
	assert.Equal(t, 16, st.Size)
	assert.Equal(t, "sig", st.Fields[4].Name)
	assert.Equal(t, "string", st.Fields[4].Kind)
	assert.Equal(t, "0x554644", st.Fields[4].Constant)
	assert.Equal(t, "0x10", st.Fields[5].Constant)
	assert.Contains(t, string(data), "name: FuStructDfuFtr")
}

func TestWriteLayout(t *testing.T) {
	s := loadFile(t, "selftest.rs")
	var buf bytes.Buffer
	require.NoError(t, WriteLayout(&buf, s))
	out := buf.String()

	for _, want := range []string{
		"FuStructSelfTest ",
		"size 0x4a (74)",
		"0x0000",
		"signature",
		"== 0x12345678",
		"= fill 0xff",
		"0x0000:4",
		"1 bits",
		"[FuStructSelfTestEntry; 2]",
	} {
		assert.Contains(t, out, want)
	}
}
