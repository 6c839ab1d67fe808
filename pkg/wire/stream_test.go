package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTracksOffset(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{1, 2, 3, 4, 5}))
	b, err := s.Next(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, 2, s.Offset())
	assert.Equal(t, 2, StreamOffset(s))

	_, err = s.Next(4)
	require.ErrorIs(t, err, ErrShortBuffer)
	var we *Error
	require.True(t, errors.As(err, &we))
	assert.Equal(t, 2, we.Offset)
	assert.Equal(t, 4, we.Need)
	assert.Equal(t, 3, we.Have)
}

func TestReadStream(t *testing.T) {
	b, err := ReadStream(bytes.NewReader([]byte{9, 8}), 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8}, b)
	assert.Equal(t, 0, StreamOffset(bytes.NewReader(nil)))
}
