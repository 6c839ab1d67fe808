package schema

import (
	"strings"

	"github.com/fwupd/fustruct-go/pkg/diag"
)

// lexer scans a whole source file into tokens. Columns count bytes.
type lexer struct {
	filename string
	src      []byte
	pos      int
	line     int
	col      int
}

func newLexer(filename string, src []byte) *lexer {
	return &lexer{filename: filename, src: src, line: 1, col: 1}
}

func (l *lexer) here() diag.Pos {
	return diag.Pos{Filename: l.filename, Line: l.line, Column: l.col}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) errorf(pos diag.Pos, code diag.Code, format string, args ...any) error {
	return newError(pos, code, format, args...)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// skipSpaceAndComments skips whitespace and "//" line comments. A UTF-8 byte
// order mark at the start of the file is ignored as well.
func (l *lexer) skipSpaceAndComments() {
	if l.pos == 0 && strings.HasPrefix(string(l.src), "\ufeff") {
		l.pos = 3
	}
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case isSpace(c):
			l.advance()
		case c == '/' && l.peek2() == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) scanIdent() Token {
	pos := l.here()
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENT
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Pos: pos}
}

// scanInt accepts decimal, 0x hex and 0b binary literals with optional '_'
// separators. Trailing identifier characters make the literal malformed.
func (l *lexer) scanInt() (Token, error) {
	pos := l.here()
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.peek()) {
		l.advance()
	}
	raw := string(l.src[start:l.pos])
	lexeme := strings.ReplaceAll(raw, "_", "")

	digits, valid := lexeme, isDigitOf10
	switch {
	case strings.HasPrefix(lexeme, "0x"), strings.HasPrefix(lexeme, "0X"):
		digits, valid = lexeme[2:], isDigitOf16
	case strings.HasPrefix(lexeme, "0b"), strings.HasPrefix(lexeme, "0B"):
		digits, valid = lexeme[2:], isDigitOf2
	}
	if digits == "" || strings.HasSuffix(raw, "_") {
		return Token{}, l.errorf(pos, diag.CodeSyntax, "malformed integer %q", raw)
	}
	for i := 0; i < len(digits); i++ {
		if !valid(digits[i]) {
			return Token{}, l.errorf(pos, diag.CodeSyntax, "malformed integer %q", raw)
		}
	}
	return Token{Type: INT, Lexeme: lexeme, Pos: pos}, nil
}

func isDigitOf10(c byte) bool { return isDigit(c) }
func isDigitOf2(c byte) bool  { return c == '0' || c == '1' }
func isDigitOf16(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// scanString reads a double-quoted literal. The opening quote has not been
// consumed yet.
func (l *lexer) scanString() (Token, error) {
	pos := l.here()
	start := l.pos
	l.advance()
	var out []byte
	for {
		if l.pos >= len(l.src) || l.peek() == '\n' {
			return Token{}, l.errorf(pos, diag.CodeSyntax, "unterminated string")
		}
		c := l.advance()
		if c == '"' {
			break
		}
		if c != '\\' {
			out = append(out, c)
			continue
		}
		escPos := l.here()
		e := l.advance()
		switch e {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		case '\\', '"', '\'':
			out = append(out, e)
		case 'x':
			h, lo := l.peek(), l.peek2()
			if !isDigitOf16(h) || !isDigitOf16(lo) {
				return Token{}, l.errorf(escPos, diag.CodeSyntax, `invalid \x escape, want two hex digits`)
			}
			l.advance()
			l.advance()
			out = append(out, hexVal(h)<<4|hexVal(lo))
		default:
			return Token{}, l.errorf(escPos, diag.CodeSyntax, "unknown escape sequence \\%c", e)
		}
	}
	if out == nil {
		out = []byte{}
	}
	return Token{Type: STRING, Lexeme: string(l.src[start:l.pos]), Bytes: out, Pos: pos}, nil
}

func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	pos := l.here()
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Pos: pos}, nil
	}
	c := l.peek()
	switch {
	case isIdentStart(c):
		return l.scanIdent(), nil
	case isDigit(c):
		return l.scanInt()
	case c == '"':
		return l.scanString()
	}

	single := func(tt TokenType) (Token, error) {
		l.advance()
		return Token{Type: tt, Lexeme: string(c), Pos: pos}, nil
	}
	double := func(tt TokenType, lexeme string) (Token, error) {
		l.advance()
		l.advance()
		return Token{Type: tt, Lexeme: lexeme, Pos: pos}, nil
	}

	switch c {
	case '{':
		return single(LBRACE)
	case '}':
		return single(RBRACE)
	case '[':
		return single(LBRACKET)
	case ']':
		return single(RBRACKET)
	case '(':
		return single(LPAREN)
	case ')':
		return single(RPAREN)
	case ',':
		return single(COMMA)
	case ';':
		return single(SEMICOLON)
	case '#':
		return single(HASH)
	case '!':
		return single(BANG)
	case '-':
		return single(MINUS)
	case ':':
		if l.peek2() == ':' {
			return double(COLONCOLON, "::")
		}
		return single(COLON)
	case '=':
		if l.peek2() == '=' {
			return double(EQUALS, "==")
		}
		return single(ASSIGN)
	case '<':
		if l.peek2() == '<' {
			return double(SHL, "<<")
		}
	case '$':
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && isIdentChar(l.peek()) {
			l.advance()
		}
		name := string(l.src[start:l.pos])
		if tt, ok := sigils[name]; ok {
			return Token{Type: tt, Lexeme: "$" + name, Pos: pos}, nil
		}
		return Token{}, l.errorf(pos, diag.CodeSyntax, "unknown sigil $%s", name)
	}
	return Token{}, l.errorf(pos, diag.CodeSyntax, "unexpected character %q", rune(c))
}

// Lex returns all tokens of src, ending with an EOF token.
func Lex(filename string, src []byte) ([]Token, error) {
	l := newLexer(filename, src)
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}
