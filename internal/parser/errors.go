// Package parser provides a recursive descent parser for soul.
package parser

import (
	"fmt"

	"github.com/kolkov/soul/internal/token"
)

// Error represents a syntax error encountered during parsing.
// It implements the error interface and includes source span information.
type Error struct {
	Message string     // Human-readable error message
	Span    token.Span // Tokens the error refers to
	Got     string     // Token that was found (optional)
	Want    string     // Token that was expected (optional)
}

// Error returns a formatted error message with position information.
func (e *Error) Error() string {
	if e.Span.Start.IsValid() {
		return fmt.Sprintf("%s: %s", e.Span.Start, e.Message)
	}
	return e.Message
}

// AtEOF reports whether the error was raised at the end of input.
// Interactive callers use it to ask for a continuation line.
func (e *Error) AtEOF() bool {
	return e.Got == token.EOF.String()
}

// errorf creates an Error covering tok with a formatted message.
func errorf(tok token.Token, format string, args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Span:    tok.Span(),
		Got:     tok.Kind.String(),
	}
}

// expectedError creates an Error for an unexpected token.
func expectedError(tok token.Token, want string) *Error {
	return &Error{
		Message: fmt.Sprintf("expected %s, got %s", want, tok),
		Span:    tok.Span(),
		Want:    want,
		Got:     tok.Kind.String(),
	}
}
