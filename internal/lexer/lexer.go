// Package lexer provides soul source code tokenization.
package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/kolkov/soul/internal/token"
)

// Error is a lexical error: an unexpected or malformed character sequence.
type Error struct {
	Message string
	Span    token.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Span.Start, e.Message)
}

// Lexer tokenizes soul source code.
type Lexer struct {
	src string         // Source code
	ch  byte           // Current character (0 at EOF)
	pos token.Position // Position of current character
}

// New creates a new Lexer for the given source code.
func New(fileName, src string) *Lexer {
	l := &Lexer{
		src: src,
		pos: token.Start(fileName, src),
	}
	if len(src) > 0 {
		l.ch = src[0]
	}
	return l
}

// Tokenize scans the whole source and returns its tokens terminated by EOF.
// The first unexpected character aborts scanning.
func Tokenize(fileName, src string) ([]token.Token, error) {
	l := New(fileName, src)
	var toks []token.Token
	for {
		tok, err := l.Scan()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Scan scans and returns the next token.
func (l *Lexer) Scan() (token.Token, error) {
	l.skipWhitespace()

	start := l.pos
	if l.eof() {
		return token.Token{Kind: token.EOF, Start: start, End: start}, nil
	}

	switch l.ch {
	case '\n', ';':
		l.next()
		return l.make(token.Newline, start), nil

	case '+':
		return l.operator(start, token.Plus, token.PlusEquals), nil
	case '-':
		return l.operator(start, token.Minus, token.MinusEquals), nil
	case '*':
		return l.operator(start, token.Multiply, token.MultiplyEquals), nil
	case '/':
		return l.operator(start, token.Divide, token.DivideEquals), nil
	case '^':
		return l.operator(start, token.Power, token.PowerEquals), nil
	case '%':
		return l.operator(start, token.Modulo, token.ModuloEquals), nil
	case '<':
		return l.operator(start, token.LessThan, token.LessThanEquals), nil
	case '>':
		return l.operator(start, token.GreaterThan, token.GreaterThanEquals), nil

	case '=':
		l.next()
		if l.ch == '=' {
			l.next()
			return l.make(token.DoubleEquals, start), nil
		}
		if l.ch == '>' {
			l.next()
			return l.make(token.Arrow, start), nil
		}
		return l.make(token.Equals, start), nil

	case '!':
		l.next()
		if l.ch == '=' {
			l.next()
			return l.make(token.NotEquals, start), nil
		}
		return token.Token{}, l.errorf(start, "expected '=' after '!'")

	case '(':
		l.next()
		return l.make(token.LeftParen, start), nil
	case ')':
		l.next()
		return l.make(token.RightParen, start), nil
	case '{':
		l.next()
		return l.make(token.LeftBrace, start), nil
	case '}':
		l.next()
		return l.make(token.RightBrace, start), nil
	case '[':
		l.next()
		return l.make(token.LeftBracket, start), nil
	case ']':
		l.next()
		return l.make(token.RightBracket, start), nil
	case ':':
		l.next()
		return l.make(token.Colon, start), nil
	case ',':
		l.next()
		return l.make(token.Comma, start), nil
	case '.':
		if isDigit(l.peek()) {
			return l.scanNumber(start)
		}
		l.next()
		return l.make(token.Dot, start), nil

	case '"':
		return l.scanString(start)
	case '\'':
		return l.scanChar(start)

	default:
		if isDigit(l.ch) {
			return l.scanNumber(start)
		}
		if isIdentStart(l.ch) {
			return l.scanIdent(start), nil
		}
		r, _ := utf8.DecodeRuneInString(l.src[l.pos.Index:])
		return token.Token{}, l.errorf(start, "unexpected character %q", r)
	}
}

// operator scans a one-character operator that may be followed by '='.
func (l *Lexer) operator(start token.Position, single, compound token.Kind) token.Token {
	l.next()
	if l.ch == '=' {
		l.next()
		return l.make(compound, start)
	}
	return l.make(single, start)
}

func (l *Lexer) make(kind token.Kind, start token.Position) token.Token {
	return token.Token{Kind: kind, Start: start, End: l.pos}
}

func (l *Lexer) scanNumber(start token.Position) (token.Token, error) {
	isFloat := false
	for isDigit(l.ch) {
		l.next()
	}
	if l.ch == '.' && isDigit(l.peek()) {
		isFloat = true
		l.next()
		for isDigit(l.ch) {
			l.next()
		}
		if l.ch == '.' && isDigit(l.peek()) {
			return token.Token{}, l.errorf(l.pos, "unexpected second decimal point in number")
		}
	}

	text := l.src[start.Index:l.pos.Index]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token.Token{}, l.errorf(start, "invalid float literal %s", text)
		}
		return token.Token{Kind: token.Float, Literal: token.FloatLit(f), Start: start, End: l.pos}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token.Token{}, l.errorf(start, "integer literal %s out of range", text)
	}
	return token.Token{Kind: token.Int, Literal: token.IntLit(n), Start: start, End: l.pos}, nil
}

func (l *Lexer) scanString(start token.Position) (token.Token, error) {
	l.next() // consume opening quote

	var sb []byte
	for !l.eof() && l.ch != '"' {
		if l.ch == '\\' {
			l.next()
			b, ok := escape(l.ch)
			if !ok || l.eof() {
				return token.Token{}, l.errorf(l.pos, "unknown escape sequence")
			}
			sb = append(sb, b)
			l.next()
			continue
		}
		sb = append(sb, l.ch)
		l.next()
	}

	if l.eof() {
		return token.Token{}, l.errorf(start, "unterminated string")
	}
	l.next() // consume closing quote

	return token.Token{Kind: token.String, Literal: token.StrLit(string(sb)), Start: start, End: l.pos}, nil
}

func (l *Lexer) scanChar(start token.Position) (token.Token, error) {
	l.next() // consume opening quote

	var r rune
	switch {
	case l.eof() || l.ch == '\'':
		return token.Token{}, l.errorf(start, "empty char literal")
	case l.ch == '\\':
		l.next()
		b, ok := escape(l.ch)
		if !ok || l.eof() {
			return token.Token{}, l.errorf(l.pos, "unknown escape sequence")
		}
		r = rune(b)
		l.next()
	default:
		var size int
		r, size = utf8.DecodeRuneInString(l.src[l.pos.Index:])
		for i := 0; i < size; i++ {
			l.next()
		}
	}

	if l.ch != '\'' {
		return token.Token{}, l.errorf(start, "unterminated char literal")
	}
	l.next()

	return token.Token{Kind: token.Char, Literal: token.CharLit(r), Start: start, End: l.pos}, nil
}

func (l *Lexer) scanIdent(start token.Position) token.Token {
	for isIdentContinue(l.ch) {
		l.next()
	}
	name := l.src[start.Index:l.pos.Index]
	kind := token.LookupIdent(name)
	lit := token.StrLit(name)
	if kind == token.Boolean {
		lit = token.BoolLit(name == "true")
	}
	return token.Token{Kind: kind, Literal: lit, Start: start, End: l.pos}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.next()
		case l.ch == '#':
			for !l.eof() && l.ch != '\n' {
				l.next()
			}
		default:
			return
		}
	}
}

func (l *Lexer) eof() bool {
	return l.pos.Index >= len(l.src)
}

func (l *Lexer) next() {
	if l.eof() {
		return
	}
	l.pos = l.pos.Advance(l.ch)
	if l.eof() {
		l.ch = 0
		return
	}
	l.ch = l.src[l.pos.Index]
}

// peek returns the character after the current one (0 at EOF).
func (l *Lexer) peek() byte {
	if l.pos.Index+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos.Index+1]
}

func (l *Lexer) errorf(pos token.Position, format string, args ...any) *Error {
	end := pos
	if pos.Index < len(l.src) {
		end = pos.Advance(l.src[pos.Index])
	}
	return &Error{Message: fmt.Sprintf(format, args...), Span: token.MakeSpan(pos, end)}
}

// escape maps the character after a backslash to the byte it denotes.
func escape(ch byte) (byte, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '"', '\'':
		return ch, true
	default:
		return 0, false
	}
}

// Helper functions

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
