// Package token defines lexical tokens for soul.
package token

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind represents a lexical token type.
type Kind uint8

const (
	// Special tokens
	None    Kind = iota // <none>
	EOF                 // EOF
	Newline             // <newline>

	// Literals
	literalStart
	Int        // int
	Float      // float
	String     // string
	Char       // char
	Boolean    // boolean
	Identifier // identifier
	Keyword    // keyword
	literalEnd

	// Operators and delimiters
	operatorStart
	Plus     // +
	Minus    // -
	Multiply // *
	Divide   // /
	Power    // ^
	Modulo   // %

	Equals         // =
	PlusEquals     // +=
	MinusEquals    // -=
	MultiplyEquals // *=
	DivideEquals   // /=
	PowerEquals    // ^=
	ModuloEquals   // %=

	DoubleEquals      // ==
	NotEquals         // !=
	LessThan          // <
	LessThanEquals    // <=
	GreaterThan       // >
	GreaterThanEquals // >=

	Arrow        // =>
	Colon        // :
	Comma        // ,
	Dot          // .
	LeftParen    // (
	RightParen   // )
	LeftBrace    // {
	RightBrace   // }
	LeftBracket  // [
	RightBracket // ]
	operatorEnd
)

var kindNames = [...]string{
	None:              "<none>",
	EOF:               "end of file",
	Newline:           "newline",
	Int:               "int",
	Float:             "float",
	String:            "string",
	Char:              "char",
	Boolean:           "boolean",
	Identifier:        "identifier",
	Keyword:           "keyword",
	Plus:              "+",
	Minus:             "-",
	Multiply:          "*",
	Divide:            "/",
	Power:             "^",
	Modulo:            "%",
	Equals:            "=",
	PlusEquals:        "+=",
	MinusEquals:       "-=",
	MultiplyEquals:    "*=",
	DivideEquals:      "/=",
	PowerEquals:       "^=",
	ModuloEquals:      "%=",
	DoubleEquals:      "==",
	NotEquals:         "!=",
	LessThan:          "<",
	LessThanEquals:    "<=",
	GreaterThan:       ">",
	GreaterThanEquals: ">=",
	Arrow:             "=>",
	Colon:             ":",
	Comma:             ",",
	Dot:               ".",
	LeftParen:         "(",
	RightParen:        ")",
	LeftBrace:         "{",
	RightBrace:        "}",
	LeftBracket:       "[",
	RightBracket:      "]",
}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("token(%d)", k)
}

// IsOperator returns true if the kind is an operator or delimiter.
func (k Kind) IsOperator() bool {
	return k > operatorStart && k < operatorEnd
}

// IsLiteral returns true if the kind carries a literal value.
func (k Kind) IsLiteral() bool {
	return k > literalStart && k < literalEnd
}

// IsAssign returns true for = and the compound assignment operators.
func (k Kind) IsAssign() bool {
	return k >= Equals && k <= ModuloEquals
}

// IsComparison returns true for the comparison operators.
func (k Kind) IsComparison() bool {
	return k >= DoubleEquals && k <= GreaterThanEquals
}

// BinaryOf returns the arithmetic operator a compound assignment applies.
// For plain = it returns None.
func (k Kind) BinaryOf() Kind {
	switch k {
	case PlusEquals:
		return Plus
	case MinusEquals:
		return Minus
	case MultiplyEquals:
		return Multiply
	case DivideEquals:
		return Divide
	case PowerEquals:
		return Power
	case ModuloEquals:
		return Modulo
	default:
		return None
	}
}

// keywords is the fixed keyword set.
var keywords = map[string]bool{
	"val":    true,
	"var":    true,
	"and":    true,
	"or":     true,
	"not":    true,
	"if":     true,
	"then":   true,
	"else":   true,
	"for":    true,
	"to":     true,
	"step":   true,
	"while":  true,
	"fun":    true,
	"return": true,
	"class":  true,
	"new":    true,
	"soul":   true,
	"null":   true,
}

// IsKeyword reports whether name is a reserved word.
func IsKeyword(name string) bool {
	return keywords[name]
}

// LookupIdent returns the kind for a scanned identifier:
// Keyword, Boolean, or Identifier.
func LookupIdent(name string) Kind {
	if keywords[name] {
		return Keyword
	}
	if name == "true" || name == "false" {
		return Boolean
	}
	return Identifier
}

// LiteralKind tags the variant held by a Literal.
type LiteralKind uint8

const (
	LitNone LiteralKind = iota
	LitInt
	LitFloat
	LitString
	LitChar
	LitBool
)

// Literal is the value carried by a token.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Char  rune
	Bool  bool
}

// IntLit creates an Int literal.
func IntLit(n int64) Literal { return Literal{Kind: LitInt, Int: n} }

// FloatLit creates a Float literal.
func FloatLit(f float64) Literal { return Literal{Kind: LitFloat, Float: f} }

// StrLit creates a String literal.
func StrLit(s string) Literal { return Literal{Kind: LitString, Str: s} }

// CharLit creates a Char literal.
func CharLit(r rune) Literal { return Literal{Kind: LitChar, Char: r} }

// BoolLit creates a Boolean literal.
func BoolLit(b bool) Literal { return Literal{Kind: LitBool, Bool: b} }

// String returns the literal in source form.
func (l Literal) String() string {
	switch l.Kind {
	case LitInt:
		return strconv.FormatInt(l.Int, 10)
	case LitFloat:
		return FormatFloat(l.Float)
	case LitString:
		return strconv.Quote(l.Str)
	case LitChar:
		return strconv.QuoteRune(l.Char)
	case LitBool:
		return strconv.FormatBool(l.Bool)
	default:
		return ""
	}
}

// FormatFloat formats f in the shortest decimal form that still reads
// back as a float: integral values keep a ".0" suffix.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

// Token is a scanned token with its literal value and source span.
type Token struct {
	Kind    Kind
	Literal Literal
	Start   Position
	End     Position
}

// Span returns the source span of the token.
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.End}
}

// Text returns the identifier or keyword name carried by the token.
func (t Token) Text() string {
	return t.Literal.Str
}

// Is reports whether t is the keyword kw.
func (t Token) Is(kw string) bool {
	return t.Kind == Keyword && t.Literal.Str == kw
}

// String returns a description of the token for error messages.
func (t Token) String() string {
	switch t.Kind {
	case Identifier:
		return fmt.Sprintf("identifier %q", t.Literal.Str)
	case Keyword:
		return fmt.Sprintf("keyword %q", t.Literal.Str)
	case Int, Float, String, Char, Boolean:
		return t.Literal.String()
	default:
		if t.Kind.IsOperator() {
			return fmt.Sprintf("'%s'", t.Kind)
		}
		return t.Kind.String()
	}
}
