// Package interp evaluates a soul AST directly.
//
// The interpreter owns a scope arena and a global scope that persist across
// calls to Eval, so one Interpreter can serve a whole REPL session. Values
// of array and object type are copied whenever they are bound to a name;
// instances are shared.
package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kolkov/soul/internal/ast"
	"github.com/kolkov/soul/internal/runtime"
	"github.com/kolkov/soul/internal/scope"
	"github.com/kolkov/soul/internal/stdlib"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/types"
)

// DefaultMaxDepth is the call depth at which a run fails.
const DefaultMaxDepth = 512

// ErrMaxDepth is wrapped by the error raised when calls nest too deeply.
var ErrMaxDepth = errors.New("maximum call depth exceeded")

// Config holds interpreter configuration.
type Config struct {
	Output   io.Writer // print and println; nil means os.Stdout
	Stderr   io.Writer // error; nil means os.Stderr
	Logger   *slog.Logger
	MaxDepth int // zero means DefaultMaxDepth
	Regex    *runtime.RegexCache
}

// Interpreter is a tree-walking evaluator.
type Interpreter struct {
	arena    *scope.Arena
	global   scope.ID
	root     *scope.Context
	env      *stdlib.Env
	logger   *slog.Logger
	maxDepth int
}

// New creates an interpreter with the builtins bound in its global scope.
func New(cfg Config) *Interpreter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	arena := scope.NewArena(logger)
	global := arena.Push(scope.None, "<program>")
	env := &stdlib.Env{
		Output: cfg.Output,
		Stderr: cfg.Stderr,
		Regex:  cfg.Regex,
		Logger: logger,
	}
	stdlib.Register(arena, global, env)

	return &Interpreter{
		arena:    arena,
		global:   global,
		root:     scope.Root("<program>", global),
		env:      env,
		logger:   logger,
		maxDepth: maxDepth,
	}
}

// Declare binds a reassignable global.
func (in *Interpreter) Declare(name string, v types.Value) {
	in.arena.Declare(in.global, name, v.Clone(), true)
}

// Lookup returns the value of a global.
func (in *Interpreter) Lookup(name string) (types.Value, bool) {
	sym, ok := in.arena.LookupLocal(in.global, name)
	if !ok {
		return types.Null(), false
	}
	return sym.Value, true
}

// Arena exposes the scope arena, mainly for tests and tracing.
func (in *Interpreter) Arena() *scope.Arena {
	return in.arena
}

// Close flushes and closes the files the program opened.
func (in *Interpreter) Close() error {
	return in.env.Files.CloseAll()
}

// Eval evaluates node in the global scope. A top-level return ends the
// program with its value.
func (in *Interpreter) Eval(ctx context.Context, node ast.Node) (types.Value, error) {
	v, err := in.eval(ctx, in.root, node)
	var ret *returnSignal
	if errors.As(err, &ret) {
		return ret.value, nil
	}
	return v, err
}

// errorf creates a runtime error at node.
func (in *Interpreter) errorf(c *scope.Context, node ast.Node, cause error, format string, args ...any) error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Span:    node.Span(),
		Trace:   c.Trace(),
		Err:     cause,
	}
}

// wrap gives a builtin's error the position of the call. Errors that
// already carry a position, returns and exits pass through unchanged.
func (in *Interpreter) wrap(c *scope.Context, node ast.Node, err error) error {
	var (
		rtErr *Error
		ret   *returnSignal
		exit  *stdlib.ExitError
	)
	if errors.As(err, &rtErr) || errors.As(err, &ret) || errors.As(err, &exit) {
		return err
	}
	return in.errorf(c, node, err, "%v", err)
}

func (in *Interpreter) eval(ctx context.Context, c *scope.Context, node ast.Node) (types.Value, error) {
	switch n := node.(type) {
	case *ast.Number:
		return types.FromLiteral(n.Value), nil
	case *ast.String:
		return types.Str(n.Value), nil
	case *ast.Char:
		return types.Char(n.Value), nil
	case *ast.Boolean:
		return types.Bool(n.Value), nil
	case *ast.Null:
		return types.Null(), nil

	case *ast.Statements:
		return in.evalStatements(ctx, c, n)

	case *ast.VarAccess:
		v, err := in.arena.Get(c.Scope, n.Name)
		if err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}
		return v, nil

	case *ast.VarAssign:
		v, err := in.eval(ctx, c, n.Value)
		if err != nil {
			return types.Null(), err
		}
		in.arena.Declare(c.Scope, n.Name, v.Clone(), n.Reassignable)
		return v, nil

	case *ast.VarReassign:
		return in.evalReassign(ctx, c, n)

	case *ast.UnaryOp:
		v, err := in.eval(ctx, c, n.Operand)
		if err != nil {
			return types.Null(), err
		}
		if n.Op.Is("not") {
			return types.Bool(!v.Truthy()), nil
		}
		r, err := types.UnaryOp(n.Op.Kind, v)
		if err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}
		return r, nil

	case *ast.BinOp:
		return in.evalBinary(ctx, c, n)

	case *ast.If:
		return in.evalIf(ctx, c, n)
	case *ast.While:
		return in.evalWhile(ctx, c, n)
	case *ast.For:
		return in.evalFor(ctx, c, n)

	case *ast.Return:
		v := types.Null()
		if n.Value != nil {
			var err error
			if v, err = in.eval(ctx, c, n.Value); err != nil {
				return types.Null(), err
			}
		}
		return types.Null(), &returnSignal{value: v}

	case *ast.FunctionDef:
		fn := in.makeFunction(c, n)
		v := types.Func(fn)
		if n.Name != "" {
			in.arena.Declare(c.Scope, n.Name, v, false)
		}
		return v, nil

	case *ast.Call:
		return in.evalCall(ctx, c, n)

	case *ast.Array:
		elems := make([]types.Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := in.eval(ctx, c, e)
			if err != nil {
				return types.Null(), err
			}
			elems[i] = v.Clone()
		}
		return types.NewArray(elems), nil

	case *ast.ObjectDef:
		obj := types.NewObject()
		for _, entry := range n.Entries {
			v, err := in.eval(ctx, c, entry.Value)
			if err != nil {
				return types.Null(), err
			}
			obj.Set(entry.Key, v.Clone())
		}
		return types.ObjectOf(obj), nil

	case *ast.ObjectPropAccess:
		return in.evalPropAccess(ctx, c, n)
	case *ast.ObjectPropEdit:
		return in.evalPropEdit(ctx, c, n)

	case *ast.ClassDef:
		return in.evalClassDef(ctx, c, n)
	case *ast.ClassInit:
		return in.evalClassInit(ctx, c, n)

	default:
		return types.Null(), in.errorf(c, node, nil, "cannot evaluate %T", node)
	}
}

// evalStatements evaluates each node in the current scope and yields the
// value of the last one.
func (in *Interpreter) evalStatements(ctx context.Context, c *scope.Context, s *ast.Statements) (types.Value, error) {
	result := types.Null()
	for _, n := range s.Nodes {
		v, err := in.eval(ctx, c, n)
		if err != nil {
			return types.Null(), err
		}
		result = v
	}
	return result, nil
}

func (in *Interpreter) evalReassign(ctx context.Context, c *scope.Context, n *ast.VarReassign) (types.Value, error) {
	v, err := in.eval(ctx, c, n.Value)
	if err != nil {
		return types.Null(), err
	}

	if op := n.Op.BinaryOf(); op != token.None {
		cur, err := in.arena.Get(c.Scope, n.Name)
		if err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}
		if v, err = types.BinaryOp(op, cur, v); err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}
	}

	if _, err := in.arena.GetAndSet(c.Scope, n.Name, v.Clone()); err != nil {
		return types.Null(), in.errorf(c, n, err, "%v", err)
	}
	return v, nil
}

func (in *Interpreter) evalBinary(ctx context.Context, c *scope.Context, n *ast.BinOp) (types.Value, error) {
	l, err := in.eval(ctx, c, n.Left)
	if err != nil {
		return types.Null(), err
	}

	if n.IsLogical() {
		switch {
		case n.Op.Is("and") && !l.Truthy():
			return types.Bool(false), nil
		case n.Op.Is("or") && l.Truthy():
			return types.Bool(true), nil
		}
		r, err := in.eval(ctx, c, n.Right)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(r.Truthy()), nil
	}

	r, err := in.eval(ctx, c, n.Right)
	if err != nil {
		return types.Null(), err
	}
	v, err := types.BinaryOp(n.Op.Kind, l, r)
	if err != nil {
		return types.Null(), in.errorf(c, n, err, "%v", err)
	}
	return v, nil
}
