package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/kolkov/soul"
)

const (
	historyFile = ".soul_history"
	promptMain  = "soul> "
	promptCont  = "  ... "
	helpText    = `REPL commands:
  :help            show this help
  :quit, :exit     leave the REPL
  :load <file>     run a file in the current session
  :ast <code>      print the syntax tree of code
  :dis <code>      print the bytecode of code
`
)

// runREPL reads statements until EOF and evaluates them in one session.
// preload, if not empty, is evaluated first.
func runREPL(config *soul.Config, preload string) int {
	config.Output = os.Stdout
	session, err := soul.NewSession(config)
	if err != nil {
		printError(err)
		return 1
	}
	defer session.Close()

	if preload != "" {
		if _, err := session.Eval(preload); err != nil {
			if status, ok := soul.IsExitError(err); ok {
				return status
			}
			printError(err)
		}
	}

	fmt.Printf("soul %s. Ctrl+C cancels input, Ctrl+D exits, :help lists commands.\n", version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		code, ok := readStatement(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			if quit := replCommand(session, code); quit {
				return 0
			}
			continue
		}

		v, err := session.Eval(code)
		if err != nil {
			if status, ok := soul.IsExitError(err); ok {
				return status
			}
			printError(err)
			continue
		}
		if !v.IsNull() {
			fmt.Println(v.Repr())
		}
	}
}

// readStatement reads lines until they parse, or fail to parse for a
// reason other than running out of input. It reports false at EOF.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !needsMore(src) {
			return src, true
		}
	}
}

// needsMore reports whether src is an unfinished statement.
func needsMore(src string) bool {
	_, err := soul.Compile(soul.SessionFile, src)
	var parseErr *soul.ParseError
	return errors.As(err, &parseErr) && parseErr.AtEOF()
}

// replCommand handles a ':' command and reports whether to quit.
func replCommand(session *soul.Session, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case ":help":
		fmt.Print(helpText)

	case ":quit", ":exit":
		return true

	case ":load":
		if arg == "" {
			fmt.Println("usage: :load <file>")
			return false
		}
		src, err := os.ReadFile(arg)
		if err != nil {
			fmt.Printf("cannot read %s: %v\n", arg, err)
			return false
		}
		v, err := session.Eval(string(src))
		if err != nil {
			printError(err)
			return false
		}
		if !v.IsNull() {
			fmt.Println(v.Repr())
		}

	case ":ast", ":dis":
		prog, err := soul.Compile(soul.SessionFile, arg)
		if err != nil {
			printError(err)
			return false
		}
		if cmd == ":ast" {
			fmt.Print(prog.AST())
			return false
		}
		dis, err := prog.Disassemble()
		if err != nil {
			printError(err)
			return false
		}
		fmt.Print(dis)

	default:
		fmt.Println("unknown command. Type :help for help.")
	}
	return false
}
