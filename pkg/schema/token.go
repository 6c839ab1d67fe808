package schema

import "github.com/fwupd/fustruct-go/pkg/diag"

// TokenType identifies the category of a token.
type TokenType int

const (
	EOF TokenType = iota

	IDENT
	INT
	STRING

	// keywords
	ENUM
	STRUCT
	USE

	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	LPAREN   // (
	RPAREN   // )

	COMMA      // ,
	COLON      // :
	COLONCOLON // ::
	SEMICOLON  // ;
	ASSIGN     // =
	EQUALS     // ==
	SHL        // <<
	HASH       // #
	BANG       // !
	MINUS      // -

	STRUCT_SIZE   // $struct_size
	STRUCT_OFFSET // $struct_offset
)

var tokenNames = [...]string{
	EOF:           "end of file",
	IDENT:         "identifier",
	INT:           "integer",
	STRING:        "string",
	ENUM:          "'enum'",
	STRUCT:        "'struct'",
	USE:           "'use'",
	LBRACE:        "'{'",
	RBRACE:        "'}'",
	LBRACKET:      "'['",
	RBRACKET:      "']'",
	LPAREN:        "'('",
	RPAREN:        "')'",
	COMMA:         "','",
	COLON:         "':'",
	COLONCOLON:    "'::'",
	SEMICOLON:     "';'",
	ASSIGN:        "'='",
	EQUALS:        "'=='",
	SHL:           "'<<'",
	HASH:          "'#'",
	BANG:          "'!'",
	MINUS:         "'-'",
	STRUCT_SIZE:   "$struct_size",
	STRUCT_OFFSET: "$struct_offset",
}

// String returns a human-readable token name for error messages.
func (t TokenType) String() string {
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return "token"
}

var keywords = map[string]TokenType{
	"enum":   ENUM,
	"struct": STRUCT,
	"use":    USE,
}

var sigils = map[string]TokenType{
	"struct_size":   STRUCT_SIZE,
	"struct_offset": STRUCT_OFFSET,
}

// Token is one lexical unit.
type Token struct {
	Type TokenType
	// Lexeme is the source text. For INT it has '_' separators removed; for
	// STRING it is the quoted source form.
	Lexeme string
	// Bytes holds the decoded contents of a STRING.
	Bytes []byte
	Pos   diag.Pos
}

func (t Token) describe() string {
	switch t.Type {
	case IDENT, INT:
		return t.Type.String() + " " + t.Lexeme
	case STRING:
		return "string " + t.Lexeme
	default:
		return t.Type.String()
	}
}
