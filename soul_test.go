package soul_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kolkov/soul"
	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/interp"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		program string
		config  *soul.Config
		want    string // Repr of the result
		output  string
	}{
		{
			name:    "precedence",
			program: "1 + 2 * 3",
			want:    "7",
		},
		{
			name:    "instance holding itself",
			program: "class A { var me = null\n fun() => { soul.me = soul } }\nprintln(new A())\nstr(new A())",
			want:    `"A {me: A {...}}"`,
			output:  "A {me: A {...}}\n",
		},
		{
			name:    "grouping",
			program: "(1 + 2) * 3",
			want:    "9",
		},
		{
			name:    "power",
			program: "2 ^ 3 ^ 2",
			want:    "512",
		},
		{
			name:    "scope chain",
			program: "var a = 1\nfun f() => a = 2\nf()\na",
			want:    "2",
		},
		{
			name:    "for ascending",
			program: "var a = 0\nfor i = 1 to 3 then a += i\na",
			want:    "6",
		},
		{
			name:    "for descending",
			program: "for i = 3 to 1 step -1 then print(i)",
			want:    "[null, null, null]",
			output:  "321",
		},
		{
			name:    "class",
			program: "class K { var a = [0]; fun() => { soul.a = [69]; } }  new K().a",
			want:    "[69]",
		},
		{
			name:    "print",
			program: `println("hello")`,
			want:    "null",
			output:  "hello\n",
		},
		{
			name:    "globals",
			program: `println("hello " + name)` + "\nn * 3",
			config:  &soul.Config{Globals: map[string]any{"name": "world", "n": 2}},
			want:    "6",
			output:  "hello world\n",
		},
		{
			name:    "tree walk forced",
			program: "7 / 2",
			config:  &soul.Config{ForceTreeWalk: true},
			want:    "3",
		},
		{
			name:    "regex builtins",
			program: `split(replace("a1b2c", "[0-9]", "-"), "-")`,
			want:    `["a", "b", "c"]`,
		},
		{
			name:    "empty program",
			program: "",
			want:    "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg := soul.Config{}
			if tt.config != nil {
				cfg = *tt.config
			}
			cfg.Output = &out

			got, err := soul.Run("test", tt.program, &cfg)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got.Repr() != tt.want {
				t.Errorf("Run() = %s, want %s", got.Repr(), tt.want)
			}
			if out.String() != tt.output {
				t.Errorf("output = %q, want %q", out.String(), tt.output)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	prog, err := soul.Compile("test", "1 + 2")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !prog.Compiled() {
		t.Error("arithmetic should run on the VM")
	}

	// Run multiple times, on both executors
	for _, cfg := range []*soul.Config{nil, {ForceTreeWalk: true}, nil} {
		got, err := prog.Run(cfg)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got.String() != "3" {
			t.Errorf("Run() = %s, want 3", got)
		}
	}

	prog, err = soul.Compile("test", "var a = 1")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if prog.Compiled() {
		t.Error("variables should need the tree-walker")
	}
}

func TestMustCompile(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustCompile() should panic on invalid program")
		}
	}()

	_ = soul.MustCompile("test", "fun f(")
}

func TestMustCompileValid(t *testing.T) {
	prog := soul.MustCompile("test", "1")
	if prog == nil {
		t.Error("MustCompile() returned nil for valid program")
	}
}

func TestSyntaxErrors(t *testing.T) {
	_, err := soul.Compile("test", "1 $ 2")
	var lexErr *soul.LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if lexErr.Line != 1 || lexErr.Column != 3 || lexErr.File != "test" {
		t.Errorf("LexError = %+v", lexErr)
	}
	if got, want := err.Error(), "lex error at test:1:3: unexpected character '$'"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	tests := []struct {
		src   string
		atEOF bool
	}{
		{"fun f(", true},
		{"1 +", true},
		{"if a then {", true},
		{")", false},
		{"var 1 = 2", false},
	}
	for _, tt := range tests {
		_, err := soul.Compile("test", tt.src)
		var parseErr *soul.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("%q: expected *ParseError, got %T", tt.src, err)
			continue
		}
		if parseErr.AtEOF() != tt.atEOF {
			t.Errorf("%q: AtEOF() = %v, want %v", tt.src, parseErr.AtEOF(), tt.atEOF)
		}
	}
}

func TestRuntimeError(t *testing.T) {
	_, err := soul.Run("test", "fun f() => 1 / 0\nf()", nil)

	var rtErr *soul.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rtErr.Line != 1 || rtErr.Column != 12 {
		t.Errorf("position = %d:%d, want 1:12", rtErr.Line, rtErr.Column)
	}
	if strings.Join(rtErr.Trace, ",") != "<program>,f" {
		t.Errorf("Trace = %v", rtErr.Trace)
	}
	if !strings.HasPrefix(err.Error(), "runtime error at test:1:12: ") {
		t.Errorf("Error() = %q", err)
	}

	rendered := soul.Render(err)
	for _, want := range []string{"fun f() => 1 / 0", "^^^^^", "f, called at test:2:1"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() missing %q:\n%s", want, rendered)
		}
	}

	// The VM reports positions too
	_, err = soul.Run("calc", "1\n  (2 / 0)", nil)
	if !errors.As(err, &rtErr) || rtErr.Line != 2 || rtErr.Column != 4 {
		t.Fatalf("VM error = %v", err)
	}
	want := "calc:2:4: runtime error: division by zero\n" +
		"    (2 / 0)\n" +
		"     ^^^^^\n"
	if got := soul.Render(err); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestOversizedRepeat(t *testing.T) {
	for _, src := range []string{
		`"ab" * 9223372036854775807`,
		`fun f(n) => "x" * n` + "\nf(9223372036854775807)",
	} {
		_, err := soul.Run("test", src, nil)
		var rtErr *soul.RuntimeError
		if !errors.As(err, &rtErr) || !strings.Contains(rtErr.Message, "result too large") {
			t.Errorf("Run(%q) error = %v, want a runtime error", src, err)
		}
	}
}

func TestMaxDepth(t *testing.T) {
	_, err := soul.Run("test", "fun r() => r()\nr()", &soul.Config{MaxDepth: 20})
	if !errors.Is(err, interp.ErrMaxDepth) {
		t.Errorf("error = %v, want max depth", err)
	}
}

func TestExitError(t *testing.T) {
	_, err := soul.Run("test", "exit(42)", nil)
	code, ok := soul.IsExitError(err)
	if !ok {
		t.Errorf("expected ExitError, got %T", err)
	}
	if code != 42 {
		t.Errorf("exit code = %d, want 42", code)
	}

	var stderr bytes.Buffer
	_, err = soul.Run("test", `error("failed")`, &soul.Config{Stderr: &stderr})
	if code, _ := soul.IsExitError(err); code != 1 {
		t.Errorf("error() exit code = %d, want 1", code)
	}
	if stderr.String() != "failed\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestExitZero(t *testing.T) {
	_, err := soul.Run("test", "exit(0)\n1 / 0", nil)
	if err != nil {
		t.Errorf("exit(0) should not return error, got %v", err)
	}
}

func TestExec(t *testing.T) {
	var out bytes.Buffer
	err := soul.Exec("test", "for i = 1 to 3 then print(i * i)", &out, nil)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if out.String() != "149" {
		t.Errorf("output = %q, want %q", out.String(), "149")
	}
}

func TestRunClosesFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	cfg := &soul.Config{Globals: map[string]any{"path": path}}

	src := "write_file(path, \"a\\n\")\nfor i = 1 to 2 then write_file(path, i)"
	if _, err := soul.Run("test", src, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\n12" {
		t.Errorf("file = %q, want %q", data, "a\n12")
	}

	// append_file opens for appending; later writes share the stream.
	if _, err := soul.Run("test", "append_file(path, \"!\")\nwrite_file(path, 3)", cfg); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "a\n12!3" {
		t.Errorf("file = %q, want %q", data, "a\n12!3")
	}
}

func TestRunContext(t *testing.T) {
	prog := soul.MustCompile("test", "while true then 1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := prog.RunContext(ctx, nil)
	var rtErr *soul.RuntimeError
	if !errors.As(err, &rtErr) || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want canceled runtime error", err)
	}
}

func TestProgramDisassemble(t *testing.T) {
	prog := soul.MustCompile("test", "1 + 2")
	dis, err := prog.Disassemble()
	if err != nil {
		t.Fatalf("Disassemble() error = %v", err)
	}
	for _, want := range []string{"CONSTANT", "ADD", "POP"} {
		if !strings.Contains(dis, want) {
			t.Errorf("Disassemble() should contain %q, got: %s", want, dis)
		}
	}

	_, err = soul.MustCompile("test", "var a = 1").Disassemble()
	var compileErr *soul.CompileError
	if !errors.As(err, &compileErr) || !errors.Is(err, compiler.ErrUnsupported) {
		t.Errorf("Disassemble() error = %v, want unsupported CompileError", err)
	}
}

func TestProgramAST(t *testing.T) {
	prog := soul.MustCompile("test", "var a = 1 + 2 * 3\nfun f(x) => x")
	want := "var a = (1 + (2 * 3))\nfun f(x) => x\n"
	if got := prog.AST(); got != want {
		t.Errorf("AST() = %q, want %q", got, want)
	}
}

func TestProgramSource(t *testing.T) {
	source := "1 + 1"
	prog := soul.MustCompile("test", source)
	if prog.Source() != source {
		t.Errorf("Source() = %q, want %q", prog.Source(), source)
	}
}

func TestConcurrentRuns(t *testing.T) {
	prog := soul.MustCompile("test", `fun sq(x) => x * x
var s = 0
for i = 1 to 10 then s += sq(i)
print(str(s) + " " + name)`)

	var wg sync.WaitGroup
	outs := make([]bytes.Buffer, 8)
	for i := range outs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg := &soul.Config{Output: &outs[i], Globals: map[string]any{"name": fmt.Sprint(i)}}
			if _, err := prog.Run(cfg); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	for i := range outs {
		if want := fmt.Sprintf("385 %d", i); outs[i].String() != want {
			t.Errorf("run %d output = %q, want %q", i, outs[i].String(), want)
		}
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if _, err := soul.Run("calc", "1 + 2", &soul.Config{Logger: logger}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "executor=bytecode") {
		t.Errorf("missing bytecode record:\n%s", buf.String())
	}

	buf.Reset()
	if _, err := soul.Run("calc", "fun f() => 1\nf()", &soul.Config{Logger: logger}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"executor=tree-walk", "register builtins", "call function", "function=f", "push scope", "release scope"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in log:\n%s", want, buf.String())
		}
	}
}

func TestSession(t *testing.T) {
	s, err := soul.NewSession(&soul.Config{Globals: map[string]any{"base": 10}})
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		src  string
		want string
	}{
		{"var a = base", "10"},
		{"fun inc(x) => x + 1", "<function inc>"},
		{"a = inc(a)", "11"},
		{"a", "11"},
	}
	for _, st := range steps {
		v, err := s.Eval(st.src)
		if err != nil {
			t.Fatalf("Eval(%q) error = %v", st.src, err)
		}
		if v.Repr() != st.want {
			t.Errorf("Eval(%q) = %s, want %s", st.src, v.Repr(), st.want)
		}
	}

	if _, err := s.Eval("a = ("); err == nil {
		t.Error("syntax error not reported")
	}
	if _, err := s.Eval("missing"); err == nil {
		t.Error("undefined name not reported")
	}
	if v, ok := s.Lookup("a"); !ok || v.String() != "11" {
		t.Errorf("a = %s after errors", v)
	}

	if _, err := soul.NewSession(&soul.Config{Globals: map[string]any{"bad": struct{}{}}}); err == nil {
		t.Error("unconvertible global accepted")
	}
}

func TestGlobalsErrorOrder(t *testing.T) {
	cfg := &soul.Config{Globals: map[string]any{
		"a": 1, "m": struct{}{}, "c": make(chan int), "z": struct{}{},
	}}
	for range 5 {
		_, err := soul.Run("test", "a", cfg)
		if err == nil || !strings.Contains(err.Error(), "global c") {
			t.Fatalf("error = %v, want the first bad global in name order", err)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cfg, err := soul.LoadConfig(write("run.yaml", "max_depth: 64\ntree_walk: true\nglobals:\n  limit: 3\n  names: [a, b]\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxDepth != 64 || !cfg.ForceTreeWalk {
		t.Errorf("LoadConfig() = %+v", cfg)
	}

	var out bytes.Buffer
	cfg.Output = &out
	v, err := soul.Run("test", "print(names)\nlimit * 2", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "6" || out.String() != `["a", "b"]` {
		t.Errorf("Run() = %s, output %q", v, out.String())
	}

	cfg, err = soul.LoadConfig(write("empty.yaml", ""))
	if err != nil || cfg.MaxDepth != 0 || cfg.Globals != nil {
		t.Errorf("empty config = %+v, %v", cfg, err)
	}

	if _, err := soul.LoadConfig(write("bad.yaml", "max_deep: 3\n")); err == nil {
		t.Error("unknown key accepted")
	}
	if _, err := soul.LoadConfig(write("neg.yaml", "max_depth: -1\n")); err == nil {
		t.Error("negative max_depth accepted")
	}
	if _, err := soul.LoadConfig(""); err == nil {
		t.Error("empty path accepted")
	}
}

// Benchmark tests
func BenchmarkRunVM(b *testing.B) {
	for b.Loop() {
		_, _ = soul.Run("bench", "1 + 2 * 3 - 4 / 5 ^ 2", nil)
	}
}

func BenchmarkCompiledRun(b *testing.B) {
	prog := soul.MustCompile("bench", "var s = 0\nfor i = 1 to 100 then s += i\ns")
	for b.Loop() {
		_, _ = prog.Run(nil)
	}
}

// Example functions for documentation
func ExampleRun() {
	v, _ := soul.Run("calc.soul", "1 + 2 * 3", nil)
	fmt.Println(v)
	// Output: 7
}

func ExampleExec() {
	src := `class Counter {
    var n = 0
    fun inc(by) => soul.n += by
}
val c = new Counter()
for i = 1 to 3 then c.inc(i)
println(c.n)`
	_ = soul.Exec("counter.soul", src, os.Stdout, nil)
	// Output: 6
}
