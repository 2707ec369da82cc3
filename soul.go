package soul

import (
	"io"

	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/diag"
	"github.com/kolkov/soul/internal/parser"
	"github.com/kolkov/soul/internal/runtime"
	"github.com/kolkov/soul/internal/types"
)

// Version is the soul version string.
const Version = "0.1.0"

// Value is the result of a program: the value of its last statement, or
// of a top-level return.
type Value = types.Value

// Run compiles and executes a soul program.
// This is a convenience function for one-off execution.
// For repeated execution of the same program, use Compile followed by Program.Run.
//
// Parameters:
//   - fileName: name used in error positions (can be empty)
//   - source: soul source code
//   - config: execution configuration (can be nil for defaults)
//
// Example:
//
//	v, err := soul.Run("calc.soul", "1 + 2 * 3", nil)
//	// v.String() == "7"
func Run(fileName, source string, config *Config) (Value, error) {
	prog, err := Compile(fileName, source)
	if err != nil {
		return types.Null(), err
	}
	return prog.Run(config)
}

// Compile parses a soul program and, when every node has a bytecode form,
// compiles it for the VM. The returned Program can be run many times.
//
// Example:
//
//	prog, err := soul.Compile("fib.soul", src)
//	if err != nil {
//	    log.Fatal(soul.Render(err))
//	}
//	v, err := prog.Run(nil)
func Compile(fileName, source string) (*Program, error) {
	root, err := parser.ParseSource(fileName, source)
	if err != nil {
		return nil, convertError(err)
	}

	prog := &Program{
		fileName: fileName,
		source:   source,
		root:     root,
		regex:    runtime.NewRegexCache(runtime.DefaultCacheSize),
	}
	if compiler.Supported(root) {
		bc, err := compiler.Compile(root)
		if err != nil {
			return nil, convertError(err)
		}
		prog.bytecode = bc
	}
	return prog, nil
}

// Exec runs a soul program writing its output to output.
//
// Example:
//
//	err := soul.Exec("hello.soul", `println("hello")`, os.Stdout, nil)
func Exec(fileName, source string, output io.Writer, config *Config) error {
	prog, err := Compile(fileName, source)
	if err != nil {
		return err
	}

	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	cfg.Output = output

	_, err = prog.Run(&cfg)
	return err
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies initialization of global program variables.
func MustCompile(fileName, source string) *Program {
	prog, err := Compile(fileName, source)
	if err != nil {
		panic(err)
	}
	return prog
}

// Render formats an error returned by this package for display: its
// position, the source line with the offending span underlined and, for
// runtime errors, the traceback.
func Render(err error) string {
	return diag.Render(err)
}
