package soul

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/kolkov/soul/internal/ast"
	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/interp"
	"github.com/kolkov/soul/internal/runtime"
	"github.com/kolkov/soul/internal/types"
	"github.com/kolkov/soul/internal/vm"
)

// Program represents a parsed soul program ready for execution.
// It is safe for concurrent use; each call to Run creates an
// independent execution context.
type Program struct {
	fileName string
	source   string // Original source for debugging
	root     *ast.Statements
	bytecode *compiler.Bytecode // nil if the VM cannot run the program
	regex    *runtime.RegexCache
}

// Run executes the program. If config is nil, default configuration is
// used. A call to exit(0) ends the run without error.
func (p *Program) Run(config *Config) (Value, error) {
	return p.RunContext(context.Background(), config)
}

// RunContext is like Run but stops with a RuntimeError once ctx is done.
// Only the tree-walking interpreter observes ctx; bytecode programs have
// no loops and always finish.
func (p *Program) RunContext(ctx context.Context, config *Config) (Value, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	cfg.applyDefaults()

	var (
		v   Value
		err error
	)
	if p.bytecode != nil && !cfg.ForceTreeWalk {
		cfg.Logger.Debug("run program",
			slog.String("file", p.fileName),
			slog.String("executor", "bytecode"),
			slog.Int("instructions", len(p.bytecode.Instructions)))
		v, err = p.runVM()
	} else {
		cfg.Logger.Debug("run program",
			slog.String("file", p.fileName),
			slog.String("executor", "tree-walk"))
		v, err = p.runInterp(ctx, &cfg)
	}

	if err != nil {
		err = convertError(err)
		if code, ok := IsExitError(err); ok && code == 0 {
			return types.Null(), nil
		}
		return types.Null(), err
	}
	return v, nil
}

func (p *Program) runVM() (Value, error) {
	machine := vm.New(p.bytecode)
	if err := machine.Run(); err != nil {
		return types.Null(), err
	}
	return machine.LastPopped(), nil
}

func (p *Program) runInterp(ctx context.Context, cfg *Config) (Value, error) {
	in, err := newInterpreter(cfg, p.regex)
	if err != nil {
		return types.Null(), err
	}
	v, err := in.Eval(ctx, p.root)
	if cerr := in.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return v, err
}

// newInterpreter creates a tree-walker with cfg's globals bound.
func newInterpreter(cfg *Config, regex *runtime.RegexCache) (*interp.Interpreter, error) {
	in := interp.New(interp.Config{
		Output:   cfg.Output,
		Stderr:   cfg.Stderr,
		Logger:   cfg.Logger,
		MaxDepth: cfg.MaxDepth,
		Regex:    regex,
	})
	for _, name := range slices.Sorted(maps.Keys(cfg.Globals)) {
		v, err := types.FromGo(cfg.Globals[name])
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
		in.Declare(name, v)
	}
	return in, nil
}

// Disassemble returns a human-readable listing of the program's constant
// pool and bytecode. It fails with a CompileError for programs only the
// tree-walking interpreter can run.
func (p *Program) Disassemble() (string, error) {
	if p.bytecode == nil {
		_, err := compiler.Compile(p.root)
		return "", convertError(err)
	}
	return p.bytecode.Disassemble(), nil
}

// Compiled reports whether the program runs on the bytecode VM.
func (p *Program) Compiled() bool {
	return p.bytecode != nil
}

// AST returns the program's syntax tree in source form, one statement
// per line.
func (p *Program) AST() string {
	var sb strings.Builder
	for _, n := range p.root.Nodes {
		sb.WriteString(ast.Format(n))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Source returns the original soul source code.
func (p *Program) Source() string {
	return p.source
}
