// Package lexer converts MarkQL source text into a stream of tokens with
// byte offsets, per spec §4.1. It never raises errors out of band: an
// unterminated block comment yields a deterministic Invalid token instead
// of panicking or returning an error, so the parser (and the linter, which
// is "parse+validate and collect diagnostics") can turn it into a
// Diagnostic uniformly.
package lexer

import (
	"strings"

	"github.com/darhnoel/markql-sub000/internal/token"
)

// Lexer scans a single MarkQL statement's source text.
type Lexer struct {
	src []byte
	pos int
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: []byte(src)}
}

// Tokenize scans the entire source and returns all tokens, terminated by an
// EOF token. An Invalid token (e.g. from an unterminated block comment)
// does not stop scanning early — it is emitted and scanning continues so a
// caller that wants every diagnostic in one pass still can, but the parser
// itself stops at the first Invalid/unexpected token it meets.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
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

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		switch {
		case isSpace(b):
			l.pos++
		case b == '-' && l.peekByteAt(1) == '-':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case b == '/' && l.peekByteAt(1) == '*':
			idx := strings.Index(string(l.src[l.pos+2:]), "*/")
			if idx < 0 {
				// Unterminated: leave pos at the "/*"; caller sees this via Next.
				return
			}
			l.pos += 2 + idx + 2
		default:
			return
		}
	}
}

// Next scans and returns the next token, advancing the internal cursor.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()

	start := l.pos
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Offset: start, End: start}
	}

	// Detect unterminated block comment: skipTrivia left us at a "/*" with
	// no closing "*/" anywhere in the remaining source.
	if l.peekByte() == '/' && l.peekByteAt(1) == '*' {
		l.pos = len(l.src)
		return token.Token{Kind: token.Invalid, Lit: string(l.src[start:]), Offset: start, End: len(l.src)}
	}

	b := l.src[l.pos]

	switch {
	case isIdentStart(b):
		return l.lexIdentOrKeyword(start)
	case isDigit(b):
		return l.lexNumber(start)
	case b == '\'' || b == '"':
		return l.lexString(start, b)
	}

	switch b {
	case ',':
		l.pos++
		return token.Token{Kind: token.Comma, Lit: ",", Offset: start, End: l.pos}
	case ':':
		l.pos++
		return token.Token{Kind: token.Colon, Lit: ":", Offset: start, End: l.pos}
	case '.':
		l.pos++
		return token.Token{Kind: token.Dot, Lit: ".", Offset: start, End: l.pos}
	case '(':
		l.pos++
		return token.Token{Kind: token.LParen, Lit: "(", Offset: start, End: l.pos}
	case ')':
		l.pos++
		return token.Token{Kind: token.RParen, Lit: ")", Offset: start, End: l.pos}
	case ';':
		l.pos++
		return token.Token{Kind: token.Semicolon, Lit: ";", Offset: start, End: l.pos}
	case '*':
		l.pos++
		return token.Token{Kind: token.Star, Lit: "*", Offset: start, End: l.pos}
	case '~':
		l.pos++
		return token.Token{Kind: token.Tilde, Lit: "~", Offset: start, End: l.pos}
	case '=':
		l.pos++
		return token.Token{Kind: token.Eq, Lit: "=", Offset: start, End: l.pos}
	case '!':
		if l.peekByteAt(1) == '=' {
			l.pos += 2
			return token.Token{Kind: token.NotEq, Lit: "!=", Offset: start, End: l.pos}
		}
	case '<':
		switch l.peekByteAt(1) {
		case '=':
			l.pos += 2
			return token.Token{Kind: token.Lte, Lit: "<=", Offset: start, End: l.pos}
		case '>':
			l.pos += 2
			return token.Token{Kind: token.NotEq, Lit: "<>", Offset: start, End: l.pos}
		default:
			l.pos++
			return token.Token{Kind: token.Lt, Lit: "<", Offset: start, End: l.pos}
		}
	case '>':
		if l.peekByteAt(1) == '=' {
			l.pos += 2
			return token.Token{Kind: token.Gte, Lit: ">=", Offset: start, End: l.pos}
		}
		l.pos++
		return token.Token{Kind: token.Gt, Lit: ">", Offset: start, End: l.pos}
	}

	// Unknown byte: consume one byte as Invalid so the parser can report a
	// precise span and scanning can, in principle, continue.
	l.pos++
	return token.Token{Kind: token.Invalid, Lit: string(b), Offset: start, End: l.pos}
}

func (l *Lexer) lexIdentOrKeyword(start int) token.Token {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	lit := string(l.src[start:l.pos])
	if kw, ok := token.Lookup(strings.ToUpper(lit)); ok {
		return token.Token{Kind: kw, Lit: lit, Offset: start, End: l.pos}
	}
	return token.Token{Kind: token.Ident, Lit: lit, Offset: start, End: l.pos}
}

func (l *Lexer) lexNumber(start int) token.Token {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	return token.Token{Kind: token.Int, Lit: string(l.src[start:l.pos]), Offset: start, End: l.pos}
}

// lexString scans a quoted string literal. Quote characters terminate the
// literal unconditionally — per spec §4.1 there is no escape processing.
func (l *Lexer) lexString(start int, quote byte) token.Token {
	l.pos++ // opening quote
	contentStart := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		l.pos++
	}
	content := string(l.src[contentStart:l.pos])
	if l.pos < len(l.src) {
		l.pos++ // closing quote
		return token.Token{Kind: token.String, Lit: content, Offset: start, End: l.pos}
	}
	// Unterminated string: an Invalid token spanning to EOF whose Lit is
	// the content read so far; the parser reports it as an unexpected
	// token.
	return token.Token{Kind: token.Invalid, Lit: content, Offset: start, End: l.pos}
}

// LineCol converts a byte offset into a 1-based line and column, for
// building caret snippets (spec §4.9).
func LineCol(src string, offset int) (line, col int) {
	line = 1
	col = 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
