// Package runtime provides regex support and file handling for the soul
// builtins.
package runtime

import (
	"sync"

	"github.com/coregx/coregex"
)

// DefaultCacheSize bounds the number of compiled patterns kept per run.
const DefaultCacheSize = 64

// Regex wraps a compiled coregex pattern with leftmost-first matching.
type Regex struct {
	re *coregex.Regexp
}

// Compile creates a Regex.
func Compile(pattern string) (*Regex, error) {
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{re: re}, nil
}

// MatchString reports whether s contains any match.
func (r *Regex) MatchString(s string) bool {
	return r.re.MatchString(s)
}

// FindStringIndex returns the start and end of the first match, or nil.
func (r *Regex) FindStringIndex(s string) []int {
	return r.re.FindStringIndex(s)
}

// ReplaceAllString replaces all matches with repl. $1 and ${name} in repl
// expand to submatches.
func (r *Regex) ReplaceAllString(s, repl string) string {
	return r.re.ReplaceAllString(s, repl)
}

// Split slices s into the substrings between matches.
func (r *Regex) Split(s string) []string {
	return r.re.Split(s, -1)
}

// RegexCache holds compiled patterns with FIFO eviction. It is safe for
// concurrent use, so one cache may serve several runs.
type RegexCache struct {
	mu      sync.Mutex
	cache   map[string]*Regex
	order   []string // insertion order for eviction
	maxSize int
}

// NewRegexCache creates a cache holding at most maxSize patterns.
// A non-positive size means DefaultCacheSize.
func NewRegexCache(maxSize int) *RegexCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &RegexCache{
		cache:   make(map[string]*Regex, maxSize),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get returns a compiled regex, compiling and caching it on first use.
func (c *RegexCache) Get(pattern string) (*Regex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.cache[pattern]; ok {
		return re, nil
	}

	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}
	c.cache[pattern] = re
	c.order = append(c.order, pattern)
	return re, nil
}

// Len returns the number of cached regexes.
func (c *RegexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
