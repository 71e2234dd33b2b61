// Package lexer turns QCL source text into a stream of positioned tokens.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/qclabs/qcl/lang/diag"
	"github.com/qclabs/qcl/token"
)

// Lexer scans a source string into tokens, accumulating recoverable
// diagnostics for invalid bytes instead of aborting.
type Lexer struct {
	src    string
	pos    int // byte offset of the next unread byte
	line   int
	col    int
	diags  diag.List
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Diagnostics returns the diagnostics accumulated so far.
func (l *Lexer) Diagnostics() diag.List { return l.diags }

// Tokens scans the entire source and returns every token, ending with EOF.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) here() token.Span {
	return token.Span{Line: l.line, Column: l.col, ByteStart: l.pos, ByteEnd: l.pos}
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.peekByteAt(1) == '/':
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		case b == '/' && l.peekByteAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) {
				if l.peekByte() == '*' && l.peekByteAt(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool  { return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isAlnum(b byte) bool  { return isAlpha(b) || isDigit(b) }

// Next scans and returns the next token, advancing the cursor.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()
	start := l.here()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Span: start}
	}

	b := l.peekByte()
	switch {
	case isDigit(b):
		return l.lexNumber(start)
	case isAlpha(b):
		return l.lexIdentOrKeyword(start)
	case b == '"':
		return l.lexString(start)
	case b == '|':
		if tok, ok := l.tryLexQubitLit(start); ok {
			return tok
		}
		return l.lexOperator(start)
	default:
		return l.lexOperator(start)
	}
}

func (l *Lexer) lexNumber(start token.Span) token.Token {
	begin := l.pos
	for l.pos < len(l.src) && isDigit(l.peekByte()) {
		l.advance()
	}
	isFloat := false
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	lit := l.src[begin:l.pos]
	sp := l.spanSince(start)
	if isFloat {
		return token.Token{Kind: token.FloatLit, Literal: lit, Span: sp}
	}
	return token.Token{Kind: token.IntLit, Literal: lit, Span: sp}
}

func (l *Lexer) lexIdentOrKeyword(start token.Span) token.Token {
	begin := l.pos
	for l.pos < len(l.src) && isAlnum(l.peekByte()) {
		l.advance()
	}
	lit := l.src[begin:l.pos]
	sp := l.spanSince(start)
	if kw, ok := token.Keywords[lit]; ok {
		return token.Token{Kind: kw, Literal: lit, Span: sp}
	}
	return token.Token{Kind: token.Ident, Literal: lit, Span: sp}
}

func (l *Lexer) lexString(start token.Span) token.Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.src) && l.peekByte() != '"' {
		c := l.advance()
		if c == '\\' && l.pos < len(l.src) {
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteByte(c)
	}
	if l.pos < len(l.src) {
		l.advance() // closing quote
	}
	return token.Token{Kind: token.StringLit, Literal: b.String(), Span: l.spanSince(start)}
}

// tryLexQubitLit attempts `|[01]+⟩` (or the ASCII digraph `|...>`, which the
// teacher's source tree and tests use interchangeably). Returns ok=false and
// restores the lexer to its state before the `|` (no bytes consumed) if the
// lookahead does not match, so the caller falls back to the `|` operator.
func (l *Lexer) tryLexQubitLit(start token.Span) (token.Token, bool) {
	save := *l
	l.advance() // consume '|'
	begin := l.pos
	if !isDigit(l.peekByte()) {
		*l = save
		return token.Token{}, false
	}
	for l.pos < len(l.src) && (l.peekByte() == '0' || l.peekByte() == '1') {
		l.advance()
	}
	bits := l.src[begin:l.pos]
	if l.peekByte() == '>' {
		l.advance()
	} else if r, size := utf8.DecodeRuneInString(l.src[l.pos:]); r == '⟩' {
		l.pos += size
		l.col++
	} else {
		*l = save
		return token.Token{}, false
	}
	return token.Token{Kind: token.QubitLit, Literal: bits, Span: l.spanSince(start)}, true
}

func (l *Lexer) lexOperator(start token.Span) token.Token {
	b := l.advance()
	two := func(next byte, k token.Kind, single token.Kind) token.Token {
		if l.peekByte() == next {
			l.advance()
			return token.Token{Kind: k, Literal: string(b) + string(next), Span: l.spanSince(start)}
		}
		return token.Token{Kind: single, Literal: string(b), Span: l.spanSince(start)}
	}
	switch b {
	case '=':
		return two('=', token.Eq, token.Assign)
	case '!':
		return two('=', token.NotEq, token.Bang)
	case '<':
		return two('=', token.LtEq, token.Lt)
	case '>':
		return two('=', token.GtEq, token.Gt)
	case '+':
		if l.peekByte() == '+' {
			l.advance()
			return token.Token{Kind: token.PlusPlus, Literal: "++", Span: l.spanSince(start)}
		}
		return two('=', token.PlusEq, token.Plus)
	case '-':
		if l.peekByte() == '-' {
			l.advance()
			return token.Token{Kind: token.MinusMinus, Literal: "--", Span: l.spanSince(start)}
		}
		if l.peekByte() == '>' {
			l.advance()
			return token.Token{Kind: token.Arrow, Literal: "->", Span: l.spanSince(start)}
		}
		return two('=', token.MinusEq, token.Minus)
	case '*':
		return two('=', token.StarEq, token.Star)
	case '/':
		return two('=', token.SlashEq, token.Slash)
	case '&':
		return two('&', token.AndAnd, token.Amp)
	case '|':
		return two('|', token.OrOr, token.Pipe)
	case '^':
		return token.Token{Kind: token.Caret, Literal: "^", Span: l.spanSince(start)}
	case '(':
		return token.Token{Kind: token.LParen, Literal: "(", Span: l.spanSince(start)}
	case ')':
		return token.Token{Kind: token.RParen, Literal: ")", Span: l.spanSince(start)}
	case '{':
		return token.Token{Kind: token.LBrace, Literal: "{", Span: l.spanSince(start)}
	case '}':
		return token.Token{Kind: token.RBrace, Literal: "}", Span: l.spanSince(start)}
	case '[':
		return token.Token{Kind: token.LBracket, Literal: "[", Span: l.spanSince(start)}
	case ']':
		return token.Token{Kind: token.RBracket, Literal: "]", Span: l.spanSince(start)}
	case ',':
		return token.Token{Kind: token.Comma, Literal: ",", Span: l.spanSince(start)}
	case ':':
		return token.Token{Kind: token.Colon, Literal: ":", Span: l.spanSince(start)}
	case ';':
		return token.Token{Kind: token.Semi, Literal: ";", Span: l.spanSince(start)}
	case '.':
		return token.Token{Kind: token.Dot, Literal: ".", Span: l.spanSince(start)}
	default:
		sp := l.spanSince(start)
		l.diags = append(l.diags, diag.Diagnostic{
			Kind: diag.LexError, Severity: diag.SeverityError,
			Message: "unexpected byte " + string(b), Span: sp,
		})
		return token.Token{Kind: token.Invalid, Literal: string(b), Span: sp}
	}
}

func (l *Lexer) spanSince(start token.Span) token.Span {
	return token.Span{Line: start.Line, Column: start.Column, ByteStart: start.ByteStart, ByteEnd: l.pos}
}
