package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Pos:      Pos{Filename: "cab.rs", Line: 12, Column: 5},
		Severity: SeverityError,
		Code:     CodeUnknownType,
		Message:  "unknown type FuCabFoo",
	}
	assert.Equal(t, "cab.rs:12:5: error: unknown type FuCabFoo [unknown-type]", d.String())
}

func TestPosString(t *testing.T) {
	tests := []struct {
		pos  Pos
		want string
	}{
		{Pos{}, "<input>"},
		{Pos{Filename: "a.rs"}, "a.rs"},
		{Pos{Filename: "a.rs", Line: 3}, "a.rs:3"},
		{Pos{Filename: "a.rs", Line: 3, Column: 9}, "a.rs:3:9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.pos.String())
	}
}

func TestListErrAndPromote(t *testing.T) {
	var l List
	l.Warnf(Pos{Filename: "x.rs", Line: 2}, CodeImplicitEndian, "field %s has no endian suffix", "size")
	assert.False(t, l.HasErrors())
	assert.NoError(t, l.Err())
	assert.Len(t, l.Warnings(), 1)

	strict := l.Promote()
	require.True(t, strict.HasErrors())
	assert.Equal(t, SeverityWarning, l[0].Severity, "Promote must not modify the receiver")

	err := strict.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "[implicit-endian]")
}

func TestErrorMessageCountsExtra(t *testing.T) {
	var l List
	l.Errorf(Pos{Line: 1}, CodeSyntax, "one")
	l.Errorf(Pos{Line: 2}, CodeSyntax, "two")
	l.Errorf(Pos{Line: 3}, CodeSyntax, "three")
	assert.Equal(t, "<input>:1: error: one [syntax] (and 2 more errors)", l.Err().Error())
}

func TestListSort(t *testing.T) {
	l := List{
		{Pos: Pos{Filename: "b.rs", Line: 1}, Message: "b1"},
		{Pos: Pos{Filename: "a.rs", Line: 5, Column: 2}, Message: "a5"},
		{Pos: Pos{Filename: "a.rs", Line: 5, Column: 1}, Message: "a5c1"},
	}
	l.Sort()
	assert.Equal(t, "a5c1", l[0].Message)
	assert.Equal(t, "a5", l[1].Message)
	assert.Equal(t, "b1", l[2].Message)
}
