// Package diag renders soul errors for people: the position, the offending
// source line with a caret underline and, for runtime errors, the call
// traceback.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/interp"
	"github.com/kolkov/soul/internal/lexer"
	"github.com/kolkov/soul/internal/parser"
	"github.com/kolkov/soul/internal/scope"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/vm"
)

// Diagnostic is the printable form of an error.
type Diagnostic struct {
	Kind    string // "syntax error", "runtime error", ...
	Message string
	Span    token.Span
	Trace   []scope.Frame
}

// From extracts a Diagnostic from err. It reports false when err carries
// no soul error.
func From(err error) (Diagnostic, bool) {
	var (
		lexErr     *lexer.Error
		parseErr   *parser.Error
		compileErr *compiler.Error
		vmErr      *vm.Error
		rtErr      *interp.Error
	)
	switch {
	case errors.As(err, &lexErr):
		return Diagnostic{Kind: "syntax error", Message: lexErr.Message, Span: lexErr.Span}, true
	case errors.As(err, &parseErr):
		return Diagnostic{Kind: "syntax error", Message: parseErr.Message, Span: parseErr.Span}, true
	case errors.As(err, &compileErr):
		return Diagnostic{Kind: "compile error", Message: compileErr.Message, Span: compileErr.Span}, true
	case errors.As(err, &vmErr):
		return Diagnostic{Kind: "runtime error", Message: vmErr.Message, Span: vmErr.Span}, true
	case errors.As(err, &rtErr):
		return Diagnostic{Kind: "runtime error", Message: rtErr.Message, Span: rtErr.Span, Trace: rtErr.Trace}, true
	}
	return Diagnostic{}, false
}

// Render formats err for display. Errors that are not soul errors render
// as their message.
func Render(err error) string {
	if err == nil {
		return ""
	}
	d, ok := From(err)
	if !ok {
		return err.Error()
	}
	return d.String()
}

// String renders the diagnostic:
//
//	script.soul:1:12: runtime error: division by zero
//	  fun f() => 1 / 0
//	             ^^^^^
//	traceback (most recent call last):
//	  <program>
//	  f, called at script.soul:2:1
func (d Diagnostic) String() string {
	var sb strings.Builder

	if d.Span.Start.IsValid() {
		fmt.Fprintf(&sb, "%s: ", d.Span.Start)
	}
	fmt.Fprintf(&sb, "%s: %s\n", d.Kind, d.Message)

	if line := d.Span.Start.LineText(); d.Span.Start.IsValid() && line != "" {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n  ")
		sb.WriteString(underline(line, d.Span))
		sb.WriteByte('\n')
	}

	if len(d.Trace) > 1 {
		sb.WriteString("traceback (most recent call last):\n")
		for _, f := range d.Trace {
			sb.WriteString("  ")
			sb.WriteString(f.Name)
			if f.Site.Start.IsValid() {
				fmt.Fprintf(&sb, ", called at %s", f.Site.Start)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// underline returns the caret line for span on line. Tabs before the
// span are kept so the carets line up. A span running past the line is
// cut at its end; an empty span gets one caret.
func underline(line string, span token.Span) string {
	start := span.Start.Column - 1
	if start > len(line) {
		start = len(line)
	}
	end := len(line)
	if span.End.Line == span.Start.Line && span.End.Column-1 < end {
		end = span.End.Column - 1
	}

	var sb strings.Builder
	for i := 0; i < start; i++ {
		if line[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(strings.Repeat("^", max(end-start, 1)))
	return sb.String()
}
