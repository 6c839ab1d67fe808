package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		input string
		want  Path
	}{
		{"signature", Path{{Name: "signature", Index: -1}}},
		{"bits.lower", Path{{Name: "bits", Index: -1}, {Name: "lower", Index: -1}}},
		{"entries[1].id", Path{{Name: "entries", Index: 1}, {Name: "id", Index: -1}}},
		{"words[0x2]", Path{{Name: "words", Index: 2}}},
		{" _padding ", Path{{Name: "_padding", Index: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{"", ErrEmptyPath},
		{"   ", ErrEmptyPath},
		{".a", ErrInvalidPath},
		{"a.", ErrInvalidPath},
		{"a..b", ErrInvalidPath},
		{"a[1", ErrInvalidPath},
		{"[1]", ErrInvalidPath},
		{"a-b", ErrInvalidPath},
		{"a[x]", ErrInvalidNumber},
		{"a[-1]", ErrInvalidNumber},
		{"a[0xg]", ErrInvalidNumber},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParsePath(tt.input)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPathString(t *testing.T) {
	p, err := ParsePath("entries[0x1].value")
	require.NoError(t, err)
	assert.Equal(t, "entries[1].value", p.String())
}
