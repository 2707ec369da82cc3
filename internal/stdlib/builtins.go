// Package stdlib registers the built-in functions of soul.
package stdlib

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/kolkov/soul/internal/runtime"
	"github.com/kolkov/soul/internal/scope"
	"github.com/kolkov/soul/internal/types"
)

// ExitError terminates a run with a status code. It is raised by exit and
// error and passes through every call frame unchanged.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// Env is what the builtins write to and share across one run.
type Env struct {
	Output io.Writer // print, println
	Stderr io.Writer // error
	Regex  *runtime.RegexCache
	Files  *runtime.Files // write_file, read_line, ...
	Logger *slog.Logger
}

func (env *Env) applyDefaults() {
	if env.Output == nil {
		env.Output = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.Regex == nil {
		env.Regex = runtime.NewRegexCache(0)
	}
	if env.Files == nil {
		env.Files = runtime.NewFiles()
	}
	if env.Logger == nil {
		env.Logger = slog.New(slog.DiscardHandler)
	}
}

// Builtins returns the built-in functions bound to env.
func Builtins(env *Env) []*types.Builtin {
	env.applyDefaults()
	return []*types.Builtin{
		{Name: "print", Arity: 1, Fn: env.print},
		{Name: "println", Arity: 1, Fn: env.println},
		{Name: "error", Arity: 1, Fn: env.raise},
		{Name: "exit", Arity: 1, Fn: exit},
		{Name: "len", Arity: 1, Fn: length},
		{Name: "str", Arity: 1, Fn: str},
		{Name: "type", Arity: 1, Fn: typeOf},
		{Name: "keys", Arity: 1, Fn: keys},
		{Name: "matches", Arity: 2, Fn: env.matches},
		{Name: "find", Arity: 2, Fn: env.find},
		{Name: "replace", Arity: 3, Fn: env.replace},
		{Name: "split", Arity: 2, Fn: env.split},
		{Name: "read_file", Arity: 1, Fn: readFile},
		{Name: "read_line", Arity: 1, Fn: env.readLine},
		{Name: "write_file", Arity: 2, Fn: env.writeFile},
		{Name: "append_file", Arity: 2, Fn: env.appendFile},
		{Name: "close_file", Arity: 1, Fn: env.closeFile},
	}
}

// Register binds every builtin as a val in the scope id.
func Register(arena *scope.Arena, id scope.ID, env *Env) {
	builtins := Builtins(env)
	for _, b := range builtins {
		arena.Declare(id, b.Name, types.NativeOf(b), false)
	}
	env.Logger.Debug("register builtins", slog.Int("count", len(builtins)))
}

func (env *Env) print(args []types.Value) (types.Value, error) {
	_, err := io.WriteString(env.Output, args[0].String())
	return types.Null(), err
}

func (env *Env) println(args []types.Value) (types.Value, error) {
	_, err := io.WriteString(env.Output, args[0].String()+"\n")
	return types.Null(), err
}

func (env *Env) raise(args []types.Value) (types.Value, error) {
	if _, err := io.WriteString(env.Stderr, args[0].String()+"\n"); err != nil {
		return types.Null(), err
	}
	return types.Null(), &ExitError{Code: 1}
}

func exit(args []types.Value) (types.Value, error) {
	if args[0].Kind() != types.KindInt {
		return types.Null(), argError("exit", 1, "int", args[0])
	}
	return types.Null(), &ExitError{Code: int(args[0].AsInt())}
}

func length(args []types.Value) (types.Value, error) {
	v := args[0]
	switch v.Kind() {
	case types.KindString:
		return types.Int(int64(utf8.RuneCountInString(v.AsStr()))), nil
	case types.KindArray:
		return types.Int(int64(len(v.AsArray().Elems))), nil
	case types.KindObject:
		return types.Int(int64(v.AsObject().Len())), nil
	case types.KindInstance:
		return types.Int(int64(v.AsInstance().Props.Len())), nil
	}
	return types.Null(), argError("len", 1, "string, array or object", v)
}

func str(args []types.Value) (types.Value, error) {
	return types.Str(args[0].String()), nil
}

func typeOf(args []types.Value) (types.Value, error) {
	return types.Str(args[0].Kind().String()), nil
}

func keys(args []types.Value) (types.Value, error) {
	var obj *types.Object
	switch v := args[0]; v.Kind() {
	case types.KindObject:
		obj = v.AsObject()
	case types.KindInstance:
		obj = v.AsInstance().Props
	default:
		return types.Null(), argError("keys", 1, "object", v)
	}

	names := obj.Keys()
	elems := make([]types.Value, len(names))
	for i, k := range names {
		elems[i] = types.Str(k)
	}
	return types.NewArray(elems), nil
}

func (env *Env) matches(args []types.Value) (types.Value, error) {
	s, re, err := env.textAndPattern("matches", args)
	if err != nil {
		return types.Null(), err
	}
	return types.Bool(re.MatchString(s)), nil
}

// find returns the first match of the pattern in the string, or null.
func (env *Env) find(args []types.Value) (types.Value, error) {
	s, re, err := env.textAndPattern("find", args)
	if err != nil {
		return types.Null(), err
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return types.Null(), nil
	}
	return types.Str(s[loc[0]:loc[1]]), nil
}

func (env *Env) replace(args []types.Value) (types.Value, error) {
	s, re, err := env.textAndPattern("replace", args)
	if err != nil {
		return types.Null(), err
	}
	if args[2].Kind() != types.KindString {
		return types.Null(), argError("replace", 3, "string", args[2])
	}
	return types.Str(re.ReplaceAllString(s, args[2].AsStr())), nil
}

func (env *Env) split(args []types.Value) (types.Value, error) {
	s, re, err := env.textAndPattern("split", args)
	if err != nil {
		return types.Null(), err
	}
	parts := re.Split(s)
	elems := make([]types.Value, len(parts))
	for i, p := range parts {
		elems[i] = types.Str(p)
	}
	return types.NewArray(elems), nil
}

func (env *Env) textAndPattern(name string, args []types.Value) (string, *runtime.Regex, error) {
	if args[0].Kind() != types.KindString {
		return "", nil, argError(name, 1, "string", args[0])
	}
	if args[1].Kind() != types.KindString {
		return "", nil, argError(name, 2, "string", args[1])
	}
	re, err := env.Regex.Get(args[1].AsStr())
	if err != nil {
		return "", nil, fmt.Errorf("%s: invalid pattern: %w", name, err)
	}
	return args[0].AsStr(), re, nil
}

func argError(name string, n int, want string, got types.Value) error {
	return fmt.Errorf("%s: argument %d must be %s, got %s", name, n, want, got.Kind())
}
