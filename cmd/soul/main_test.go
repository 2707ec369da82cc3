package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseArgs(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main.soul")
	if err := os.WriteFile(script, []byte("println(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		check   func(*options) bool
		wantErr bool
	}{
		{"no program starts repl", nil, func(o *options) bool { return o.repl && !o.hasProgram }, false},
		{"eval", []string{"-e", "1 + 2"}, func(o *options) bool { return o.program == "1 + 2" && o.fileName == "<eval>" && !o.repl }, false},
		{"file", []string{script}, func(o *options) bool { return o.program == "println(1)" && o.fileName == script }, false},
		{"joined flags", []string{"-cconf.yaml", "-Dk=v", "-e", "1"}, func(o *options) bool {
			return o.configPath == "conf.yaml" && len(o.defines) == 1 && o.defines[0] == "k=v"
		}, false},
		{"debug", []string{"-d", "-da", "-v", "-t", "-e", "1"}, func(o *options) bool { return o.debugAST && o.debugAsm && o.verbose && o.treeWalk }, false},
		{"max depth", []string{"-max-depth", "64", "-e", "1"}, func(o *options) bool { return o.maxDepth == 64 }, false},
		{"repl after program", []string{"-i", script}, func(o *options) bool { return o.repl && o.hasProgram }, false},
		{"bad max depth", []string{"-max-depth", "x"}, nil, true},
		{"missing value", []string{"-e"}, nil, true},
		{"unknown flag", []string{"-z"}, nil, true},
		{"two files", []string{script, script}, nil, true},
		{"file after eval", []string{"-e", "1", script}, nil, true},
		{"missing file", []string{filepath.Join(dir, "nope.soul")}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if err == nil && !tt.check(opts) {
				t.Errorf("parseArgs(%q) = %+v", tt.args, opts)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("max_depth: 10\nglobals:\n  a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfig(&options{configPath: path, defines: []string{"b=x=y"}, maxDepth: 99, treeWalk: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxDepth != 99 || !cfg.ForceTreeWalk {
		t.Errorf("flags did not override the file: %+v", cfg)
	}
	if cfg.Globals["a"] != 1 || cfg.Globals["b"] != "x=y" {
		t.Errorf("Globals = %v", cfg.Globals)
	}

	if _, err := buildConfig(&options{defines: []string{"novalue"}}); err == nil {
		t.Error("definition without '=' accepted")
	}
}

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"1 + 2", false},
		{"fun f() => {", true},
		{"class K {\n var a = 1", true},
		{"[1,", true},
		{"1 +", true},
		{")", false},
		{"1 $", false},
	}
	for _, tt := range tests {
		if got := needsMore(tt.src); got != tt.want {
			t.Errorf("needsMore(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		args []string
		want int
	}{
		{[]string{"-e", "1 + 2"}, 0},
		{[]string{"-e", "exit(3)"}, 3},
		{[]string{"-e", "1 / 0"}, 1},
		{[]string{"-e", "fun f("}, 1},
		{[]string{"-d", "-e", "var a = 1"}, 0},
		{[]string{"-da", "-e", "1 + 2"}, 0},
		{[]string{"-da", "-e", "var a = 1"}, 1},
		{[]string{"-z"}, 2},
	}
	for _, tt := range tests {
		if got := run(tt.args); got != tt.want {
			t.Errorf("run(%q) = %d, want %d", tt.args, got, tt.want)
		}
	}
}
