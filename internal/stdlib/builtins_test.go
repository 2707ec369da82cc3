package stdlib

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/soul/internal/scope"
	"github.com/kolkov/soul/internal/types"
)

// Helper to call a builtin by name.
func call(t *testing.T, env *Env, name string, args ...types.Value) (types.Value, error) {
	t.Helper()
	for _, b := range Builtins(env) {
		if b.Name == name {
			if len(args) != b.Arity {
				t.Fatalf("%s takes %d arguments, test passed %d", name, b.Arity, len(args))
			}
			return b.Fn(args)
		}
	}
	t.Fatalf("no builtin %s", name)
	return types.Null(), nil
}

func strs(ss ...string) types.Value {
	elems := make([]types.Value, len(ss))
	for i, s := range ss {
		elems[i] = types.Str(s)
	}
	return types.NewArray(elems)
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	env := &Env{Output: &out}

	call(t, env, "print", types.Str("a"))
	call(t, env, "print", types.Int(1))
	call(t, env, "println", types.NewArray([]types.Value{types.Str("x"), types.Char('y')}))
	v, err := call(t, env, "println", types.Float(2))
	if err != nil || !v.IsNull() {
		t.Errorf("println returned %s, %v", v.Repr(), err)
	}

	if got, want := out.String(), "a1[\"x\", 'y']\n2.0\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestErrorAndExit(t *testing.T) {
	var stderr bytes.Buffer
	env := &Env{Stderr: &stderr}

	_, err := call(t, env, "error", types.Str("boom"))
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Errorf("error() = %v, want exit 1", err)
	}
	if stderr.String() != "boom\n" {
		t.Errorf("stderr = %q", stderr.String())
	}

	_, err = call(t, env, "exit", types.Int(3))
	if !errors.As(err, &exit) || exit.Code != 3 {
		t.Errorf("exit(3) = %v", err)
	}

	_, err = call(t, env, "exit", types.Str("3"))
	if errors.As(err, &exit) {
		t.Error("exit accepted a string")
	}
}

func TestValueBuiltins(t *testing.T) {
	obj := types.NewObject()
	obj.Set("b", types.Int(1))
	obj.Set("a", types.Int(2))

	tests := []struct {
		name string
		fn   string
		arg  types.Value
		want types.Value
	}{
		{"len string", "len", types.Str("héllo"), types.Int(5)},
		{"len array", "len", strs("a", "b"), types.Int(2)},
		{"len object", "len", types.ObjectOf(obj), types.Int(2)},
		{"str int", "str", types.Int(42), types.Str("42")},
		{"str array", "str", strs("a"), types.Str(`["a"]`)},
		{"type float", "type", types.Float(1), types.Str("float")},
		{"type null", "type", types.Null(), types.Str("null")},
		{"type bool", "type", types.Bool(true), types.Str("boolean")},
		{"keys", "keys", types.ObjectOf(obj), strs("b", "a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, &Env{}, tt.fn, tt.arg)
			if err != nil {
				t.Fatal(err)
			}
			if !types.Equal(got, tt.want) {
				t.Errorf("%s(%s) = %s, want %s", tt.fn, tt.arg.Repr(), got.Repr(), tt.want.Repr())
			}
		})
	}

	if _, err := call(t, &Env{}, "len", types.Int(1)); err == nil {
		t.Error("len(1) succeeded")
	}
	if _, err := call(t, &Env{}, "keys", strs()); err == nil {
		t.Error("keys([]) succeeded")
	}
}

func TestRegexBuiltins(t *testing.T) {
	env := &Env{}

	v, err := call(t, env, "matches", types.Str("abc123"), types.Str(`\d+$`))
	if err != nil || !v.AsBool() {
		t.Errorf("matches = %s, %v", v.Repr(), err)
	}

	v, err = call(t, env, "replace", types.Str("a1b22"), types.Str("[0-9]+"), types.Str("#"))
	if err != nil || v.AsStr() != "a#b#" {
		t.Errorf("replace = %s, %v", v.Repr(), err)
	}

	v, err = call(t, env, "split", types.Str("a, b,c"), types.Str(`,\s*`))
	if err != nil || !types.Equal(v, strs("a", "b", "c")) {
		t.Errorf("split = %s, %v", v.Repr(), err)
	}

	v, err = call(t, env, "find", types.Str("id: 42, 7"), types.Str("[0-9]+"))
	if err != nil || v.Repr() != `"42"` {
		t.Errorf("find = %s, %v", v.Repr(), err)
	}
	v, err = call(t, env, "find", types.Str("none"), types.Str("[0-9]+"))
	if err != nil || !v.IsNull() {
		t.Errorf("find without match = %s, %v", v.Repr(), err)
	}

	if env.Regex.Len() != 3 {
		t.Errorf("regex cache holds %d patterns, want 3", env.Regex.Len())
	}

	_, err = call(t, env, "matches", types.Str("x"), types.Str("[bad"))
	if err == nil || !strings.Contains(err.Error(), "invalid pattern") {
		t.Errorf("bad pattern error = %v", err)
	}
	_, err = call(t, env, "split", types.Int(1), types.Str(","))
	if err == nil || !strings.Contains(err.Error(), "argument 1 must be string") {
		t.Errorf("non-string argument error = %v", err)
	}
}

func TestRegister(t *testing.T) {
	arena := scope.NewArena(nil)
	global := arena.Push(scope.None, "<program>")
	Register(arena, global, &Env{})

	sym, ok := arena.LookupLocal(global, "println")
	if !ok {
		t.Fatal("println not registered")
	}
	if sym.Reassignable {
		t.Error("builtins must not be reassignable")
	}
	if b := sym.Value.AsBuiltin(); b == nil || b.Arity != 1 {
		t.Errorf("println = %s", sym.Value.Repr())
	}
	if _, err := arena.GetAndSet(global, "print", types.Null()); !errors.Is(err, scope.ErrConstant) {
		t.Errorf("reassigning print: %v", err)
	}
}
