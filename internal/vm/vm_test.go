package vm

import (
	"errors"
	"testing"

	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/parser"
	"github.com/kolkov/soul/internal/types"
)

// Helper to compile and run a program, returning the last popped value.
func runSource(t *testing.T, source string) (types.Value, error) {
	t.Helper()

	root, err := parser.ParseSource("test", source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	bc, err := compiler.Compile(root)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	vm := New(bc)
	err = vm.Run()
	return vm.LastPopped(), err
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   types.Value
	}{
		{"1 + 2", types.Int(3)},
		{"1 + 2 * 3", types.Int(7)},
		{"(1 + 2) * 3", types.Int(9)},
		{"2 ^ 3 ^ 2", types.Int(512)},
		{"7 / 2", types.Int(3)},
		{"7.0 / 2", types.Float(3.5)},
		{"2 ^ -1", types.Float(0.5)},
		{"-3 + +1", types.Int(-2)},
		{"- -4", types.Int(4)},
		{"1.5 * 2", types.Float(3)},
		{`"ab" + 'c'`, types.Str("abc")},
		{`"ab" * 2`, types.Str("abab")},
		{"1\n2\n3", types.Int(3)},
		{"true", types.Bool(true)},
		{"null", types.Null()},
		{"", types.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := runSource(t, tt.source)
			if err != nil {
				t.Fatalf("run error: %v", err)
			}
			if got.Kind() != tt.want.Kind() || !types.Equal(got, tt.want) {
				t.Errorf("got %s (%s), want %s (%s)", got.Repr(), got.Kind(), tt.want.Repr(), tt.want.Kind())
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		source string
		want   error
		column int
	}{
		{"1 / 0", types.ErrDivisionByZero, 1},
		{"1 + (2 / 0)", types.ErrDivisionByZero, 6},
		{`"a" - 1`, types.ErrTypeMismatch, 1},
		{`-"a"`, types.ErrTypeMismatch, 1},
		{"true + 1", types.ErrTypeMismatch, 1},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := runSource(t, tt.source)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var vmErr *Error
			if !errors.As(err, &vmErr) {
				t.Fatalf("error is %T, want *vm.Error", err)
			}
			if vmErr.Span.Start.Line != 1 || vmErr.Span.Start.Column != tt.column {
				t.Errorf("error at %d:%d, want 1:%d", vmErr.Span.Start.Line, vmErr.Span.Start.Column, tt.column)
			}
		})
	}
}

func TestStackOverflow(t *testing.T) {
	bc := &compiler.Bytecode{Constants: []string{"1"}}
	for range 3 {
		bc.Instructions = append(bc.Instructions, compiler.Make(compiler.Constant, 0)...)
	}

	vm := NewWithConfig(bc, Config{StackSize: 2})
	if err := vm.Run(); !errors.Is(err, ErrStackOverflow) {
		t.Errorf("error = %v, want ErrStackOverflow", err)
	}
}

func TestDefaultStackSize(t *testing.T) {
	bc := &compiler.Bytecode{Constants: []string{"1"}}
	for range DefaultStackSize {
		bc.Instructions = append(bc.Instructions, compiler.Make(compiler.Constant, 0)...)
	}

	vm := New(bc)
	if err := vm.Run(); err != nil {
		t.Fatalf("filling the stack failed: %v", err)
	}
	if vm.StackTop().AsInt() != 1 {
		t.Errorf("StackTop() = %s", vm.StackTop().Repr())
	}

	bc.Instructions = append(bc.Instructions, compiler.Make(compiler.Constant, 0)...)
	if err := New(bc).Run(); !errors.Is(err, ErrStackOverflow) {
		t.Errorf("error = %v, want ErrStackOverflow", err)
	}
}

func TestMalformedBytecode(t *testing.T) {
	tests := []struct {
		name string
		bc   *compiler.Bytecode
	}{
		{"unknown opcode", &compiler.Bytecode{Instructions: compiler.Instructions{0x42}}},
		{"truncated constant", &compiler.Bytecode{Instructions: compiler.Instructions{0x00, 0x00}}},
		{"constant out of range", &compiler.Bytecode{Instructions: compiler.Make(compiler.Constant, 3)}},
		{"pop empty", &compiler.Bytecode{Instructions: compiler.Make(compiler.Pop)}},
		{"add underflow", &compiler.Bytecode{
			Constants:    []string{"1"},
			Instructions: append(compiler.Make(compiler.Constant, 0), compiler.Make(compiler.Add)...),
		}},
		{"bad constant", &compiler.Bytecode{Constants: []string{"xyz"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.bc).Run()
			var vmErr *Error
			if !errors.As(err, &vmErr) {
				t.Errorf("error = %v, want *vm.Error", err)
			}
		})
	}
}

func TestRunTwice(t *testing.T) {
	root, err := parser.ParseSource("test", "40 + 2")
	if err != nil {
		t.Fatal(err)
	}
	bc, err := compiler.Compile(root)
	if err != nil {
		t.Fatal(err)
	}

	vm := New(bc)
	for range 2 {
		if err := vm.Run(); err != nil {
			t.Fatal(err)
		}
		if vm.LastPopped().AsInt() != 42 {
			t.Errorf("LastPopped() = %s, want 42", vm.LastPopped().Repr())
		}
	}
}
