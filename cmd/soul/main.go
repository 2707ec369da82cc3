// soul - runner and REPL for the soul scripting language.
//
// Uses manual argument parsing so flags and their values may be written
// together (-cconfig.yaml) as well as apart.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/soul"
)

// version is set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shortUsage = "usage: soul [-v] [-t] [-c config.yaml] [-D name=value] [-e 'prog' | file | -i]"
	longUsage  = `Running programs:
  -e prog           run prog instead of a file
  -i                start the interactive REPL (default without a program);
                    a program given with it is run in the session first
  -c config.yaml    load max_depth, tree_walk and globals from a YAML file
  -D name=value     bind a string global (multiple allowed)
  -t                always use the tree-walking interpreter
  -max-depth N      maximum call depth (default 512)

Debugging arguments:
  -d                print the parsed AST to stderr and exit
  -da               print bytecode assembly to stderr and exit
  -v                log scopes, calls and executor choice to stderr

Other:
  -h, --help        show this help message
  -version          show soul version and exit
`
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// options are the parsed command line flags.
type options struct {
	program    string
	hasProgram bool
	fileName   string
	configPath string
	defines    []string
	treeWalk   bool
	maxDepth   int
	repl       bool
	debugAST   bool
	debugAsm   bool
	verbose    bool
}

//nolint:gocyclo // CLI argument parsing is inherently branchy
func parseArgs(args []string) (*options, error) {
	opts := &options{}

	var i int
	for i = 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		// needValue returns the flag's value from the next argument.
		needValue := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag needs an argument: %s", arg)
			}
			i++
			return args[i], nil
		}

		var err error
		switch arg {
		case "-e":
			opts.program, err = needValue()
			opts.hasProgram = true
			opts.fileName = "<eval>"
		case "-c":
			opts.configPath, err = needValue()
		case "-D":
			var d string
			d, err = needValue()
			opts.defines = append(opts.defines, d)
		case "-max-depth":
			var n string
			if n, err = needValue(); err == nil {
				opts.maxDepth, err = strconv.Atoi(n)
				if err != nil || opts.maxDepth < 1 {
					err = fmt.Errorf("invalid max depth: %s", n)
				}
			}
		case "-t":
			opts.treeWalk = true
		case "-i":
			opts.repl = true
		case "-d":
			opts.debugAST = true
		case "-da":
			opts.debugAsm = true
		case "-v":
			opts.verbose = true
		case "-h", "--help":
			fmt.Printf("soul %s\n\n%s\n\n%s", version, shortUsage, longUsage)
			os.Exit(0)
		case "-version", "--version":
			fmt.Printf("soul version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			os.Exit(0)
		default:
			// Flags with no space: -cfile.yaml, -Dname=value
			switch {
			case strings.HasPrefix(arg, "-c"):
				opts.configPath = arg[2:]
			case strings.HasPrefix(arg, "-D"):
				opts.defines = append(opts.defines, arg[2:])
			default:
				err = fmt.Errorf("flag provided but not defined: %s", arg)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	rest := args[i:]
	switch {
	case opts.hasProgram && len(rest) > 0:
		return nil, fmt.Errorf("unexpected arguments after -e: %s", strings.Join(rest, " "))
	case len(rest) > 1:
		return nil, fmt.Errorf("only one program file may be given")
	case len(rest) == 1:
		opts.fileName = rest[0]
		src, err := readSource(rest[0])
		if err != nil {
			return nil, err
		}
		opts.program = src
		opts.hasProgram = true
	}
	if !opts.hasProgram {
		opts.repl = true
	}
	return opts, nil
}

func readSource(path string) (string, error) {
	if path == "-" {
		var sb strings.Builder
		if _, err := bufio.NewReader(os.Stdin).WriteTo(&sb); err != nil {
			return "", fmt.Errorf("cannot read stdin: %w", err)
		}
		return sb.String(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read program file %s: %w", path, err)
	}
	return string(content), nil
}

// buildConfig merges the config file and the flags. Flags win.
func buildConfig(opts *options) (*soul.Config, error) {
	config := &soul.Config{}
	if opts.configPath != "" {
		loaded, err := soul.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if opts.treeWalk {
		config.ForceTreeWalk = true
	}
	if opts.maxDepth > 0 {
		config.MaxDepth = opts.maxDepth
	}
	for _, d := range opts.defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid global definition: %s (expected name=value)", d)
		}
		if config.Globals == nil {
			config.Globals = make(map[string]any)
		}
		config.Globals[name] = value
	}
	if opts.verbose {
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	config.Stderr = os.Stderr
	return config, nil
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "soul: %v\n%s\n", err, shortUsage)
		return 2
	}
	config, err := buildConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "soul: %v\n", err)
		return 1
	}

	if opts.repl {
		return runREPL(config, opts.program)
	}

	prog, err := soul.Compile(opts.fileName, opts.program)
	if err != nil {
		printError(err)
		return 1
	}

	if opts.debugAST {
		fmt.Fprint(os.Stderr, prog.AST())
		return 0
	}
	if opts.debugAsm {
		dis, err := prog.Disassemble()
		if err != nil {
			printError(err)
			return 1
		}
		fmt.Fprint(os.Stderr, dis)
		return 0
	}

	// Buffered output for performance
	stdout := bufio.NewWriter(os.Stdout)
	config.Output = stdout

	_, err = prog.Run(config)
	if ferr := stdout.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		if code, ok := soul.IsExitError(err); ok {
			return code
		}
		printError(err)
		return 1
	}
	return 0
}

// printError writes a rendered error to stderr.
func printError(err error) {
	msg := soul.Render(err)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(os.Stderr, msg)
}
