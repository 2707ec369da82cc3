package interp

import (
	"fmt"

	"github.com/kolkov/soul/internal/scope"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/types"
)

// Error is a runtime error with the position of the failing node and the
// call stack at the time.
type Error struct {
	Message string
	Span    token.Span
	Trace   []scope.Frame
	Err     error
}

func (e *Error) Error() string {
	if e.Span.Start.IsValid() {
		return fmt.Sprintf("%s: %s", e.Span.Start, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// returnSignal carries a return value up to the enclosing call.
type returnSignal struct {
	value types.Value
}

func (r *returnSignal) Error() string {
	return "return outside of function"
}
