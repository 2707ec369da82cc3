// Package soul implements a small dynamically typed scripting language.
//
// A soul program is a sequence of expressions. It has numbers, strings,
// chars, booleans, null, arrays, ordered objects, first-class functions
// with closures, and classes whose methods reach the instance as soul:
//
//	class Counter {
//	    var n = 0
//	    fun inc(by) => soul.n += by
//	}
//	val c = new Counter()
//	for i = 1 to 3 then c.inc(i)
//	println(c.n)
//
// # Quick Start
//
// For simple one-off execution:
//
//	v, err := soul.Run("calc.soul", "1 + 2 * 3", nil)
//
// With configuration:
//
//	err := soul.Exec("greet.soul", src, os.Stdout, &soul.Config{
//	    Globals: map[string]any{"name": "world"},
//	})
//
// # Compiled Programs
//
// Compile parses a program once. Programs made only of literals and
// arithmetic are also compiled to bytecode and run on a stack VM; all
// others run on a tree-walking interpreter. Both give the same results.
//
//	prog, err := soul.Compile("calc.soul", "2 ^ 3 ^ 2")
//	if err != nil {
//	    log.Fatal(soul.Render(err))
//	}
//	listing, _ := prog.Disassemble()
//
// # Configuration
//
// The [Config] type sets the output writers, a [log/slog] logger for
// debug tracing, the maximum call depth and predefined globals.
// [LoadConfig] reads the same settings from a YAML file.
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [LexError]: malformed characters in the source
//   - [ParseError]: syntax errors
//   - [CompileError]: programs the bytecode compiler rejects
//   - [RuntimeError]: errors during execution, with a traceback
//   - [ExitError]: a call to exit or error with a non-zero status
//
// [Render] formats any of them with the offending source line.
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent execution context.
// A [Session] keeps state between calls and is not.
package soul
