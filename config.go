package soul

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kolkov/soul/internal/interp"
)

// Config holds configuration options for running soul programs.
type Config struct {
	// Output is the writer for print and println.
	// If nil, os.Stdout is used.
	Output io.Writer

	// Stderr receives the message passed to error().
	// If nil, os.Stderr is used.
	Stderr io.Writer

	// Logger receives debug records about scopes, calls and the choice of
	// executor. If nil, logging is discarded.
	Logger *slog.Logger

	// MaxDepth limits how deeply calls may nest (default: 512).
	MaxDepth int

	// Globals are bound as reassignable variables before the program runs.
	// Values may be nil, bool, integers, floats, strings, and slices or
	// string-keyed maps of those.
	// Example: map[string]any{"limit": 10, "names": []string{"a", "b"}}
	Globals map[string]any

	// ForceTreeWalk runs every program on the tree-walking interpreter,
	// even those the bytecode VM could execute.
	ForceTreeWalk bool
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = interp.DefaultMaxDepth
	}
}

// configFile is the on-disk form of a run configuration.
type configFile struct {
	MaxDepth int            `yaml:"max_depth"`
	TreeWalk bool           `yaml:"tree_walk"`
	Globals  map[string]any `yaml:"globals"`
}

// LoadConfig reads a YAML run configuration:
//
//	max_depth: 256
//	tree_walk: true
//	globals:
//	  limit: 10
//	  names: [a, b]
//
// Unknown keys are an error. An empty file yields the zero Config.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw configFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	if raw.MaxDepth < 0 {
		return nil, fmt.Errorf("config: %s: max_depth must not be negative", abs)
	}

	return &Config{
		MaxDepth:      raw.MaxDepth,
		ForceTreeWalk: raw.TreeWalk,
		Globals:       raw.Globals,
	}, nil
}
