package scope

import (
	"github.com/kolkov/soul/internal/token"
)

// Context is one frame of the call stack: a display name, the scope the
// frame evaluates in, and the position it was entered from.
type Context struct {
	Name     string
	Scope    ID
	Parent   *Context
	CallSite token.Span
	depth    int
}

// Root creates the outermost context of a run.
func Root(name string, id ID) *Context {
	return &Context{Name: name, Scope: id}
}

// Enter creates a child frame entered from site.
func (c *Context) Enter(name string, id ID, site token.Span) *Context {
	return &Context{
		Name:     name,
		Scope:    id,
		Parent:   c,
		CallSite: site,
		depth:    c.depth + 1,
	}
}

// WithScope returns a copy of the frame that evaluates in id. Loop bodies
// use it: they get a new scope but stay in the same frame.
func (c *Context) WithScope(id ID) *Context {
	cp := *c
	cp.Scope = id
	return &cp
}

// Depth returns the number of frames above the root.
func (c *Context) Depth() int {
	return c.depth
}

// Frame is a traceback entry.
type Frame struct {
	Name string
	Site token.Span
}

// Trace returns the frames from the outermost inwards. The root frame has
// no call site.
func (c *Context) Trace() []Frame {
	frames := make([]Frame, c.depth+1)
	for f := c; f != nil; f = f.Parent {
		frames[f.depth] = Frame{Name: f.Name, Site: f.CallSite}
	}
	return frames
}
