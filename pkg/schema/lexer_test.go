package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/diag"
)

func tokenTypes(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestLexPunctuation(t *testing.T) {
	toks, err := Lex("t.rs", []byte(`#![x] { } [ ] ( ) , : :: ; = == << - $struct_size $struct_offset`))
	require.NoError(t, err)
	assert.Equal(t, []TokenType{
		HASH, BANG, LBRACKET, IDENT, RBRACKET,
		LBRACE, RBRACE, LBRACKET, RBRACKET, LPAREN, RPAREN,
		COMMA, COLON, COLONCOLON, SEMICOLON, ASSIGN, EQUALS, SHL, MINUS,
		STRUCT_SIZE, STRUCT_OFFSET, EOF,
	}, tokenTypes(toks))
}

func TestLexKeywordsAndComments(t *testing.T) {
	src := "// leading comment\nenum Foo { // trailing\n}\nstruct use"
	toks, err := Lex("t.rs", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []TokenType{ENUM, IDENT, LBRACE, RBRACE, STRUCT, USE, EOF}, tokenTypes(toks))
	assert.Equal(t, diag.Pos{Filename: "t.rs", Line: 2, Column: 1}, toks[0].Pos)
	assert.Equal(t, diag.Pos{Filename: "t.rs", Line: 2, Column: 6}, toks[1].Pos)
}

func TestLexIntegers(t *testing.T) {
	toks, err := Lex("t.rs", []byte("42 0x1F 0b1010 1_000 0xDEAD_BEEF"))
	require.NoError(t, err)
	var lexemes []string
	for _, tok := range toks[:len(toks)-1] {
		assert.Equal(t, INT, tok.Type)
		lexemes = append(lexemes, tok.Lexeme)
	}
	assert.Equal(t, []string{"42", "0x1F", "0b1010", "1000", "0xDEADBEEF"}, lexemes)
}

func TestLexMalformedInteger(t *testing.T) {
	for _, src := range []string{"0x", "0b102", "12ab", "0xZZ", "1_"} {
		t.Run(src, func(t *testing.T) {
			_, err := Lex("t.rs", []byte(src))
			require.Error(t, err)
			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, diag.CodeSyntax, se.Code)
			assert.Contains(t, se.Message, "malformed integer")
			assert.Equal(t, 1, se.Pos.Column)
		})
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex("t.rs", []byte(`"PK\x03\x04" "a\tb\n\\\"\0"`))
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), toks[0].Bytes)
	assert.Equal(t, []byte("a\tb\n\\\"\x00"), toks[1].Bytes)
	assert.Equal(t, `"PK\x03\x04"`, toks[0].Lexeme)
}

func TestLexStringErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"open`, "unterminated string"},
		{"\"line\nbreak\"", "unterminated string"},
		{`"\q"`, "unknown escape"},
		{`"\x4"`, `invalid \x escape`},
	}
	for _, tt := range tests {
		_, err := Lex("t.rs", []byte(tt.src))
		require.Error(t, err, tt.src)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestLexUnexpectedCharacter(t *testing.T) {
	_, err := Lex("t.rs", []byte("struct Foo {\n  a: u8 @\n}"))
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Pos.Line)
	assert.Equal(t, 9, se.Pos.Column)
	assert.True(t, errors.Is(err, diag.ErrSchema))
}

func TestLexUnknownSigil(t *testing.T) {
	_, err := Lex("t.rs", []byte("$len"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sigil $len")
}
