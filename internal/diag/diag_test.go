package diag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/interp"
	"github.com/kolkov/soul/internal/parser"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/vm"
)

func runErr(t *testing.T, src string) error {
	t.Helper()
	root, err := parser.ParseSource("test", src)
	if err != nil {
		return err
	}
	_, err = interp.New(interp.Config{}).Eval(context.Background(), root)
	if err == nil {
		t.Fatalf("%q succeeded", src)
	}
	return err
}

func TestRenderSyntaxError(t *testing.T) {
	err := runErr(t, "var a = 1 $ 2")
	want := "test:1:11: syntax error: unexpected character '$'\n" +
		"  var a = 1 $ 2\n" +
		"  " + strings.Repeat(" ", 10) + "^\n"
	if got := Render(err); got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}

	err = runErr(t, "fun f(a, a) => a")
	if got := Render(err); !strings.HasPrefix(got, `test:1:10: syntax error: duplicate parameter "a"`) {
		t.Errorf("Render = %q", got)
	}
}

func TestRenderRuntimeError(t *testing.T) {
	err := runErr(t, "fun f() => 1 / 0\nf()")
	got := Render(err)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("Render =\n%s", got)
	}
	if !strings.HasPrefix(lines[0], "test:1:12: runtime error: ") ||
		!strings.Contains(lines[0], "division by zero") {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "  fun f() => 1 / 0" {
		t.Errorf("source line = %q", lines[1])
	}
	if want := "  " + strings.Repeat(" ", 11) + "^^^^^"; lines[2] != want {
		t.Errorf("underline = %q, want %q", lines[2], want)
	}
	if lines[3] != "traceback (most recent call last):" {
		t.Errorf("traceback header = %q", lines[3])
	}
	if lines[4] != "  <program>" || lines[5] != "  f, called at test:2:1" {
		t.Errorf("frames = %q, %q", lines[4], lines[5])
	}
}

func TestRenderNoTraceAtTopLevel(t *testing.T) {
	got := Render(runErr(t, "x"))
	if strings.Contains(got, "traceback") {
		t.Errorf("top-level error rendered a traceback:\n%s", got)
	}
	if !strings.HasPrefix(got, "test:1:1: runtime error: 'x' is not defined\n") {
		t.Errorf("Render = %q", got)
	}
}

func TestRenderVMError(t *testing.T) {
	root, err := parser.ParseSource("test", "1 + 2\n3 / 0")
	if err != nil {
		t.Fatal(err)
	}
	bc, err := compiler.Compile(root)
	if err != nil {
		t.Fatal(err)
	}
	err = vm.New(bc).Run()
	if err == nil {
		t.Fatal("expected division error")
	}

	d, ok := From(err)
	if !ok {
		t.Fatalf("From(%v) failed", err)
	}
	if d.Kind != "runtime error" || d.Span.Start.Line != 2 {
		t.Errorf("diagnostic = %+v", d)
	}
	if !strings.Contains(Render(err), "  3 / 0\n  ^^^^^\n") {
		t.Errorf("Render =\n%s", Render(err))
	}
}

func TestRenderForeignErrors(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q", got)
	}
	if got := Render(errors.New("plain")); got != "plain" {
		t.Errorf("Render(plain) = %q", got)
	}

	wrapped := fmt.Errorf("running: %w", runErr(t, "x"))
	if _, ok := From(wrapped); !ok {
		t.Error("From did not unwrap")
	}
}

func TestUnderline(t *testing.T) {
	pos := func(line, col int) token.Position {
		return token.Position{Line: line, Column: col}
	}

	tests := []struct {
		name string
		line string
		span token.Span
		want string
	}{
		{"single", "a + b", token.MakeSpan(pos(1, 3), pos(1, 4)), "  ^"},
		{"range", "a + b", token.MakeSpan(pos(1, 1), pos(1, 6)), "^^^^^"},
		{"empty", "ab", token.MakeSpan(pos(1, 3), pos(1, 3)), "  ^"},
		{"tabs", "\t\tx", token.MakeSpan(pos(1, 3), pos(1, 4)), "\t\t^"},
		{"multi-line", "{ a", token.MakeSpan(pos(1, 1), pos(3, 2)), "^^^"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := underline(tt.line, tt.span); got != tt.want {
				t.Errorf("underline = %q, want %q", got, tt.want)
			}
		})
	}
}
