package soul

import (
	"errors"
	"fmt"

	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/interp"
	"github.com/kolkov/soul/internal/lexer"
	"github.com/kolkov/soul/internal/parser"
	"github.com/kolkov/soul/internal/stdlib"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/vm"
)

// LexError represents an unexpected or malformed character sequence.
type LexError struct {
	File    string // File name given to Compile
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description
	err     error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", location(e.File, e.Line, e.Column), e.Message)
}

func (e *LexError) Unwrap() error { return e.err }

// ParseError represents a syntax error in soul source code.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", location(e.File, e.Line, e.Column), e.Message)
}

func (e *ParseError) Unwrap() error { return e.err }

// AtEOF reports whether the parser ran out of input. An interactive
// caller can read another line and try again.
func (e *ParseError) AtEOF() bool {
	var perr *parser.Error
	return errors.As(e.err, &perr) && perr.AtEOF()
}

// CompileError represents a program the bytecode compiler rejected.
type CompileError struct {
	Message string
	err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %s", e.Message)
}

func (e *CompileError) Unwrap() error { return e.err }

// RuntimeError represents an error during execution.
type RuntimeError struct {
	File    string
	Line    int // 0 if the position is unknown
	Column  int
	Message string
	// Trace lists the active calls from the outermost inwards.
	Trace []string
	err   error
}

func (e *RuntimeError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("runtime error: %s", e.Message)
	}
	return fmt.Sprintf("runtime error at %s: %s", location(e.File, e.Line, e.Column), e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.err }

// ExitError represents a call to exit or error with a non-zero status.
type ExitError struct {
	Code int // Exit status code
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// IsExitError reports whether err is an ExitError and returns the exit code.
// Returns (code, true) if err is an ExitError, or (0, false) otherwise.
func IsExitError(err error) (int, bool) {
	var e *ExitError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

func location(file string, line, col int) string {
	if file == "" {
		return fmt.Sprintf("%d:%d", line, col)
	}
	return fmt.Sprintf("%s:%d:%d", file, line, col)
}

// convertError turns an internal error into its public type.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var (
		lexErr     *lexer.Error
		parseErr   *parser.Error
		compileErr *compiler.Error
		vmErr      *vm.Error
		rtErr      *interp.Error
		exitErr    *stdlib.ExitError
	)
	switch {
	case errors.As(err, &exitErr):
		return &ExitError{Code: exitErr.Code}
	case errors.As(err, &lexErr):
		p := lexErr.Span.Start
		return &LexError{File: p.FileName, Line: p.Line, Column: p.Column, Message: lexErr.Message, err: err}
	case errors.As(err, &parseErr):
		p := parseErr.Span.Start
		return &ParseError{File: p.FileName, Line: p.Line, Column: p.Column, Message: parseErr.Message, err: err}
	case errors.As(err, &compileErr):
		return &CompileError{Message: compileErr.Error(), err: err}
	case errors.As(err, &vmErr):
		return runtimeError(vmErr.Span.Start, vmErr.Message, nil, err)
	case errors.As(err, &rtErr):
		trace := make([]string, len(rtErr.Trace))
		for i, f := range rtErr.Trace {
			trace[i] = f.Name
		}
		return runtimeError(rtErr.Span.Start, rtErr.Message, trace, err)
	}
	return &RuntimeError{Message: err.Error(), err: err}
}

func runtimeError(p token.Position, msg string, trace []string, err error) *RuntimeError {
	return &RuntimeError{File: p.FileName, Line: p.Line, Column: p.Column, Message: msg, Trace: trace, err: err}
}
