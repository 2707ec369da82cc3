package soul

import (
	"context"

	"github.com/kolkov/soul/internal/interp"
	"github.com/kolkov/soul/internal/parser"
	"github.com/kolkov/soul/internal/runtime"
	"github.com/kolkov/soul/internal/types"
)

// SessionFile is the file name Session uses in error positions.
const SessionFile = "<stdin>"

// Session evaluates source snippets one after another in a shared global
// scope, as a REPL does. Sessions always use the tree-walking interpreter.
// A Session is not safe for concurrent use.
type Session struct {
	in *interp.Interpreter
}

// NewSession creates a session with the builtins and config's globals
// bound. If config is nil, default configuration is used.
func NewSession(config *Config) (*Session, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	cfg.applyDefaults()

	in, err := newInterpreter(&cfg, runtime.NewRegexCache(runtime.DefaultCacheSize))
	if err != nil {
		return nil, convertError(err)
	}
	return &Session{in: in}, nil
}

// Eval parses and evaluates source. Names bound by earlier calls stay
// visible. A syntax error leaves the session unchanged; a runtime error
// keeps whatever bindings were made before it.
func (s *Session) Eval(source string) (Value, error) {
	return s.EvalContext(context.Background(), source)
}

// EvalContext is like Eval with a context for cancellation.
func (s *Session) EvalContext(ctx context.Context, source string) (Value, error) {
	root, err := parser.ParseSource(SessionFile, source)
	if err != nil {
		return types.Null(), convertError(err)
	}
	v, err := s.in.Eval(ctx, root)
	if err != nil {
		return types.Null(), convertError(err)
	}
	return v, nil
}

// Lookup returns the value of a global bound in the session.
func (s *Session) Lookup(name string) (Value, bool) {
	return s.in.Lookup(name)
}

// Close flushes and closes the files opened during the session.
func (s *Session) Close() error {
	return s.in.Close()
}
