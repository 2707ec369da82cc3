package token

import (
	"fmt"
	"strings"
)

// Position represents a position in source code.
type Position struct {
	// Index is the byte offset from the start of source (0-indexed).
	Index int
	// Line number (1-indexed).
	Line int
	// Column is the byte offset on the line (1-indexed).
	Column int
	// FileName is the name of the source file (optional).
	FileName string
	// FileContent is the full source text, kept for diagnostics.
	FileContent string
}

// Start returns the position of the first character of the given source.
func Start(fileName, content string) Position {
	return Position{
		Line:        1,
		Column:      1,
		FileName:    fileName,
		FileContent: content,
	}
}

// Advance returns the position after consuming ch.
// A newline increments the line and resets the column.
func (p Position) Advance(ch byte) Position {
	p.Index++
	if ch == '\n' {
		p.Line++
		p.Column = 1
	} else {
		p.Column++
	}
	return p
}

// String returns a string representation of the position.
// Format: "filename:line:column" or "line:column" if filename is empty.
func (p Position) String() string {
	if p.FileName != "" {
		return fmt.Sprintf("%s:%d:%d", p.FileName, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before returns true if p is before other in the source.
func (p Position) Before(other Position) bool {
	return p.Index < other.Index
}

// LineText returns the full text of the line p is on, without the newline.
func (p Position) LineText() string {
	if p.Index > len(p.FileContent) {
		return ""
	}
	start := strings.LastIndexByte(p.FileContent[:p.Index], '\n') + 1
	end := strings.IndexByte(p.FileContent[start:], '\n')
	if end < 0 {
		return p.FileContent[start:]
	}
	return p.FileContent[start : start+end]
}

// Span represents a range in source code from Start to End.
// End is the position just after the last character.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan creates a Span from two positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// String returns a string representation of the span.
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s-%d", s.Start.String(), s.End.Column)
	}
	return fmt.Sprintf("%s-%d:%d", s.Start.String(), s.End.Line, s.End.Column)
}

// Text returns the source text covered by the span.
func (s Span) Text() string {
	src := s.Start.FileContent
	if s.Start.Index < 0 || s.End.Index > len(src) || s.Start.Index > s.End.Index {
		return ""
	}
	return src[s.Start.Index:s.End.Index]
}

// Contains returns true if the span contains the given position.
func (s Span) Contains(p Position) bool {
	return p.Index >= s.Start.Index && p.Index < s.End.Index
}

// NoPos is a zero Position used when position is unknown.
var NoPos = Position{}
