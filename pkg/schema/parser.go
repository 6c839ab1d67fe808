package schema

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/fwupd/fustruct-go/pkg/diag"
)

// Parse reads a schema file. The first syntax error is returned as an
// *Error.
//
// Grammar:
//
//	file      = { attr | use | enum | struct } EOF
//	attr      = "#" [ "!" ] "[" IDENT [ "(" IDENT { "," IDENT } [ "," ] ")" ] "]"
//	use       = "use" IDENT { "::" ( IDENT | "{" ... "}" ) } ";"
//	enum      = "enum" IDENT "{" [ variant { "," variant } [ "," ] ] "}"
//	variant   = IDENT [ "=" value ]
//	struct    = "struct" IDENT "{" [ field { "," field } [ "," ] ] "}"
//	field     = IDENT ":" type [ ( "=" | "==" ) value ]
//	type      = IDENT | "[" IDENT ";" INT "]"
//	value     = INT [ "<<" INT ] | STRING | IDENT [ "::" IDENT ]
//	          | "$struct_size" | "$struct_offset"
func Parse(filename string, src []byte) (*File, error) {
	toks, err := Lex(filename, src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, declared: make(map[string]diag.Pos)}
	return p.parseFile(filename)
}

type parser struct {
	toks     []Token
	pos      int
	declared map[string]diag.Pos
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) advance() Token {
	tok := p.toks[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(tt TokenType, context string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, newError(tok.Pos, diag.CodeSyntax, "expected %s %s, got %s", tt, context, tok.describe())
	}
	return p.advance(), nil
}

func (p *parser) parseFile(filename string) (*File, error) {
	f := &File{Name: filename}
	var pending []Attr
	for {
		tok := p.peek()
		switch tok.Type {
		case EOF:
			if len(pending) > 0 {
				return nil, newError(pending[0].Pos, diag.CodeSyntax, "attribute is not followed by a declaration")
			}
			return f, nil
		case HASH:
			attr, inner, err := p.parseAttr()
			if err != nil {
				return nil, err
			}
			if inner {
				f.Attrs = append(f.Attrs, attr)
			} else {
				pending = append(pending, attr)
			}
		case USE:
			u, err := p.parseUse()
			if err != nil {
				return nil, err
			}
			f.Uses = append(f.Uses, u)
		case ENUM:
			d, err := p.parseEnum(pending)
			if err != nil {
				return nil, err
			}
			pending = nil
			f.Decls = append(f.Decls, d)
		case STRUCT:
			d, err := p.parseStruct(pending)
			if err != nil {
				return nil, err
			}
			pending = nil
			f.Decls = append(f.Decls, d)
		default:
			return nil, newError(tok.Pos, diag.CodeSyntax, "expected declaration, got %s", tok.describe())
		}
	}
}

func (p *parser) parseAttr() (Attr, bool, error) {
	hash := p.advance()
	inner := false
	if p.peek().Type == BANG {
		p.advance()
		inner = true
	}
	if _, err := p.expect(LBRACKET, "after '#'"); err != nil {
		return Attr{}, false, err
	}
	name, err := p.expect(IDENT, "attribute name")
	if err != nil {
		return Attr{}, false, err
	}
	attr := Attr{Pos: hash.Pos, Name: name.Lexeme}
	if p.peek().Type == LPAREN {
		p.advance()
		for p.peek().Type != RPAREN {
			arg, err := p.expect(IDENT, "in attribute arguments")
			if err != nil {
				return Attr{}, false, err
			}
			if attr.Name == "derive" && !IsDerive(arg.Lexeme) {
				return Attr{}, false, newError(arg.Pos, diag.CodeUnknownDerive, "unknown derive %q", arg.Lexeme)
			}
			attr.Args = append(attr.Args, Ident{Pos: arg.Pos, Name: arg.Lexeme})
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
		if _, err := p.expect(RPAREN, "to close attribute arguments"); err != nil {
			return Attr{}, false, err
		}
	}
	if _, err := p.expect(RBRACKET, "to close attribute"); err != nil {
		return Attr{}, false, err
	}
	return attr, inner, nil
}

func (p *parser) parseUse() (Use, error) {
	kw := p.advance()
	var b strings.Builder
	for {
		tok := p.peek()
		switch tok.Type {
		case SEMICOLON:
			p.advance()
			if b.Len() == 0 {
				return Use{}, newError(kw.Pos, diag.CodeSyntax, "empty use path")
			}
			return Use{Pos: kw.Pos, Path: b.String()}, nil
		case EOF:
			return Use{}, newError(kw.Pos, diag.CodeSyntax, "use path is missing ';'")
		case COMMA:
			b.WriteString(", ")
		default:
			b.WriteString(tok.Lexeme)
		}
		p.advance()
	}
}

func (p *parser) declare(name Token) error {
	if prev, ok := p.declared[name.Lexeme]; ok {
		return newError(name.Pos, diag.CodeDuplicateName, "%s is already declared at %s", name.Lexeme, prev)
	}
	p.declared[name.Lexeme] = name.Pos
	return nil
}

func (p *parser) parseEnum(attrs []Attr) (*EnumDecl, error) {
	kw := p.advance()
	name, err := p.expect(IDENT, "enum name")
	if err != nil {
		return nil, err
	}
	if err := p.declare(name); err != nil {
		return nil, err
	}
	d := &EnumDecl{Pos: kw.Pos, Name: name.Lexeme, Attrs: attrs}
	if len(attrs) > 0 {
		d.Pos = attrs[0].Pos
	}
	if _, err := p.expect(LBRACE, "after enum name"); err != nil {
		return nil, err
	}
	seen := make(map[string]diag.Pos)
	for p.peek().Type != RBRACE {
		vt, err := p.expect(IDENT, "variant name")
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[vt.Lexeme]; ok {
			return nil, newError(vt.Pos, diag.CodeDuplicateName, "variant %s.%s is already declared at %s", d.Name, vt.Lexeme, prev)
		}
		seen[vt.Lexeme] = vt.Pos
		v := &Variant{Pos: vt.Pos, Name: vt.Lexeme}
		switch p.peek().Type {
		case ASSIGN:
			p.advance()
			if v.Value, err = p.parseValue(); err != nil {
				return nil, err
			}
		case EQUALS:
			return nil, newError(p.peek().Pos, diag.CodeSyntax, "enum variant %s uses '==', want '='", vt.Lexeme)
		}
		d.Variants = append(d.Variants, v)
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RBRACE, "to close enum "+d.Name); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseStruct(attrs []Attr) (*StructDecl, error) {
	kw := p.advance()
	name, err := p.expect(IDENT, "struct name")
	if err != nil {
		return nil, err
	}
	if err := p.declare(name); err != nil {
		return nil, err
	}
	d := &StructDecl{Pos: kw.Pos, Name: name.Lexeme, Attrs: attrs}
	if len(attrs) > 0 {
		d.Pos = attrs[0].Pos
	}
	if _, err := p.expect(LBRACE, "after struct name"); err != nil {
		return nil, err
	}
	seen := make(map[string]diag.Pos)
	for p.peek().Type != RBRACE {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[f.Name]; ok {
			return nil, newError(f.Pos, diag.CodeDuplicateName, "field %s.%s is already declared at %s", d.Name, f.Name, prev)
		}
		seen[f.Name] = f.Pos
		d.Fields = append(d.Fields, f)
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RBRACE, "to close struct "+d.Name); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseField() (*FieldDecl, error) {
	nt, err := p.expect(IDENT, "field name")
	if err != nil {
		return nil, err
	}
	f := &FieldDecl{Pos: nt.Pos, Name: nt.Lexeme}
	if p.peek().Type != COLON {
		return nil, newError(p.peek().Pos, diag.CodeWidthUnknown, "field %s has no type", f.Name)
	}
	p.advance()
	if f.Type, err = p.parseType(f.Name); err != nil {
		return nil, err
	}

	tok := p.peek()
	switch {
	case tok.Type == ASSIGN:
		p.advance()
		f.Default, err = p.parseValue()
	case tok.Type == EQUALS:
		p.advance()
		f.Constant, err = p.parseValue()
	case tok.Type == IDENT && tok.Lexeme == "const":
		return nil, newError(tok.Pos, diag.CodeMixedDialect, "'const=' is not supported, write '== value' for a constant or '= value' for a default")
	}
	if err != nil {
		return nil, err
	}
	if next := p.peek(); next.Type == ASSIGN || next.Type == EQUALS {
		return nil, newError(next.Pos, diag.CodeMixedDialect, "field %s has both a default and a constant", f.Name)
	}
	return f, nil
}

func (p *parser) parseType(field string) (*TypeExpr, error) {
	tok := p.peek()
	switch tok.Type {
	case IDENT:
		p.advance()
		return &TypeExpr{Pos: tok.Pos, Name: tok.Lexeme}, nil
	case LBRACKET:
		p.advance()
		elem, err := p.expect(IDENT, "array element type")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "after array element type"); err != nil {
			return nil, err
		}
		lt := p.peek()
		if lt.Type != INT {
			return nil, newError(lt.Pos, diag.CodeWidthUnknown, "array length of %s must be an integer literal, got %s", field, lt.describe())
		}
		length, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if length.Kind != ExprInt {
			return nil, newError(lt.Pos, diag.CodeConstantOutOfRange, "array length %s is too large", lt.Lexeme)
		}
		if _, err := p.expect(RBRACKET, "to close array type"); err != nil {
			return nil, err
		}
		return &TypeExpr{Pos: tok.Pos, Name: elem.Lexeme, Array: true, Len: length}, nil
	default:
		return nil, newError(tok.Pos, diag.CodeWidthUnknown, "missing type for field %s", field)
	}
}

func (p *parser) parseValue() (*Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.advance()
		e, err := intExpr(tok)
		if err != nil {
			return nil, err
		}
		if p.peek().Type == SHL {
			p.advance()
			st, err := p.expect(INT, "shift count")
			if err != nil {
				return nil, err
			}
			k, err := intExpr(st)
			if err != nil {
				return nil, err
			}
			if e.Kind != ExprInt || k.Kind != ExprInt || k.Value >= 64 || bits.Len64(e.Value)+int(k.Value) > 64 {
				return nil, newError(tok.Pos, diag.CodeConstantOutOfRange, "%s << %s does not fit in 64 bits", tok.Lexeme, st.Lexeme)
			}
			return &Expr{
				Pos:   tok.Pos,
				Kind:  ExprInt,
				Text:  tok.Lexeme + " << " + st.Lexeme,
				Value: e.Value << k.Value,
				Shift: true,
			}, nil
		}
		return e, nil
	case MINUS:
		p.advance()
		it, err := p.expect(INT, "after '-'")
		if err != nil {
			return nil, err
		}
		e, err := intExpr(it)
		if err != nil {
			return nil, err
		}
		if e.Kind != ExprInt || e.Value > 1<<63 {
			return nil, newError(tok.Pos, diag.CodeConstantOutOfRange, "integer -%s does not fit in 64 bits", it.Lexeme)
		}
		return &Expr{Pos: tok.Pos, Kind: ExprInt, Text: "-" + it.Lexeme, Value: e.Value, Negative: true}, nil
	case STRING:
		p.advance()
		return &Expr{Pos: tok.Pos, Kind: ExprString, Text: tok.Lexeme, Bytes: tok.Bytes}, nil
	case STRUCT_SIZE:
		p.advance()
		return &Expr{Pos: tok.Pos, Kind: ExprStructSize, Text: tok.Lexeme}, nil
	case STRUCT_OFFSET:
		p.advance()
		return &Expr{Pos: tok.Pos, Kind: ExprStructOffset, Text: tok.Lexeme}, nil
	case IDENT:
		p.advance()
		if p.peek().Type != COLONCOLON {
			return &Expr{Pos: tok.Pos, Kind: ExprIdent, Text: tok.Lexeme, Name: tok.Lexeme}, nil
		}
		p.advance()
		rhs, err := p.expect(IDENT, "after '::'")
		if err != nil {
			return nil, err
		}
		text := tok.Lexeme + "::" + rhs.Lexeme
		if rhs.Lexeme != "MAX" {
			return &Expr{Pos: tok.Pos, Kind: ExprIdent, Text: text, Name: rhs.Lexeme}, nil
		}
		width, ok := unsignedWidth(tok.Lexeme)
		if !ok {
			return nil, newError(tok.Pos, diag.CodeInvalidValue, "%s is not an unsigned integer type", tok.Lexeme)
		}
		return &Expr{Pos: tok.Pos, Kind: ExprMax, Text: text, Name: tok.Lexeme, Value: maxOf(width)}, nil
	default:
		return nil, newError(tok.Pos, diag.CodeSyntax, "expected value, got %s", tok.describe())
	}
}

// intExpr converts an INT token. Hex literals wider than 64 bits become
// ExprHex.
func intExpr(tok Token) (*Expr, error) {
	lex := tok.Lexeme
	base, digits := 10, lex
	switch {
	case strings.HasPrefix(lex, "0x"), strings.HasPrefix(lex, "0X"):
		base, digits = 16, lex[2:]
	case strings.HasPrefix(lex, "0b"), strings.HasPrefix(lex, "0B"):
		base, digits = 2, lex[2:]
	}
	e := &Expr{Pos: tok.Pos, Kind: ExprInt, Text: lex}
	if base == 16 {
		e.HexDigits = len(digits)
		e.Bytes = hexBytes(digits)
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if base == 16 {
			e.Kind = ExprHex
			return e, nil
		}
		return nil, newError(tok.Pos, diag.CodeConstantOutOfRange, "integer %s does not fit in 64 bits", lex)
	}
	e.Value = v
	return e, nil
}

// hexBytes decodes hex digits big-endian, left-padding an odd count.
func hexBytes(digits string) []byte {
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return out
}

// unsignedWidth returns N for "uN", ignoring an endian suffix.
func unsignedWidth(name string) (int, bool) {
	name = strings.TrimSuffix(strings.TrimSuffix(name, "le"), "be")
	if !strings.HasPrefix(name, "u") {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 1 || n > 64 {
		return 0, false
	}
	return n, true
}

func maxOf(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}
