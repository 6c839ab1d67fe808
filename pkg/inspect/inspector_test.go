package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectorLookup(t *testing.T) {
	in := NewInspector(loadSchema(t, "cab.rs"))
	assert.Equal(t, []string{"FuStructCabHeader", "FuStructCabFolder", "FuStructCabFile"}, in.Structs())

	st, err := in.Lookup("FuStructCabFolder")
	require.NoError(t, err)
	assert.Equal(t, 8, st.Size)

	_, err = in.Lookup("FuStructMissing")
	assert.ErrorIs(t, err, ErrStructNotFound)
	_, err = in.New("FuStructMissing")
	assert.ErrorIs(t, err, ErrStructNotFound)
	_, err = in.Parse("FuStructMissing", nil, 0)
	assert.ErrorIs(t, err, ErrStructNotFound)
}

func TestInspectorParse(t *testing.T) {
	in := NewInspector(loadSchema(t, "cab.rs"))
	r, err := in.Parse("FuStructCabHeader", cabHeaderBytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, "FuStructCabHeader", r.Struct().Name)

	r, err = in.New("FuStructCabHeader")
	require.NoError(t, err)
	assert.Equal(t, []byte("MSCF"), r.Bytes()[:4])
}

func TestInspectorDetect(t *testing.T) {
	s := loadSchema(t, "selftest.rs")
	in := NewInspector(s)

	buf := append([]byte{0xAA}, New(s.Struct("FuStructSelfTest")).Bytes()...)
	found := in.Detect(buf, 1)
	require.Len(t, found, 1)
	assert.Equal(t, "FuStructSelfTest", found[0].Struct().Name)

	assert.Empty(t, in.Detect(buf, 0))
	assert.Empty(t, in.Detect(make([]byte, 80), 0), "structs without constants are not candidates")
}
