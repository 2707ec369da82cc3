// Package scope implements the runtime symbol tables of soul.
//
// Scope records live in an Arena and are addressed by stable IDs. Each
// record holds its bindings and the ID of its parent, so the lexical chain
// is a walk over IDs rather than pointers. Released records go onto a free
// list and are reused by the next Push.
package scope

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kolkov/soul/internal/types"
)

// ID identifies a scope record.
type ID = types.ScopeID

// None is the parent of a root scope.
const None ID = ^ID(0)

// Binding errors.
var (
	ErrUndefined = errors.New("not defined")
	ErrConstant  = errors.New("cannot reassign val")
)

// Symbol is a named binding.
type Symbol struct {
	Value        types.Value
	Reassignable bool
}

type record struct {
	name    string
	parent  ID
	symbols map[string]*Symbol
	pinned  bool
	live    bool
}

// Arena owns every scope record of one run.
type Arena struct {
	records []record
	free    []ID
	logger  *slog.Logger
}

// NewArena creates an empty arena. A nil logger discards trace output.
func NewArena(logger *slog.Logger) *Arena {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Arena{logger: logger}
}

// Push creates a scope whose lookups fall through to parent.
// Pass None for a root scope.
func (a *Arena) Push(parent ID, name string) ID {
	var id ID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		id = ID(len(a.records))
		a.records = append(a.records, record{})
	}

	r := &a.records[id]
	r.name = name
	r.parent = parent
	r.pinned = false
	r.live = true
	if r.symbols == nil {
		r.symbols = make(map[string]*Symbol)
	}

	a.logger.Debug("push scope",
		slog.Int("id", int(id)),
		slog.Int("parent", parentAttr(parent)),
		slog.String("name", name))
	return id
}

// Release returns a scope to the free list. Pinned scopes survive until
// the arena is dropped.
func (a *Arena) Release(id ID) {
	r := a.rec(id)
	if r.pinned {
		return
	}
	clear(r.symbols)
	r.live = false
	a.free = append(a.free, id)

	a.logger.Debug("release scope",
		slog.Int("id", int(id)),
		slog.String("name", r.name),
		slog.Int("free", len(a.free)))
}

// Pin keeps id and all of its ancestors alive. Function values pin the
// scope they close over.
func (a *Arena) Pin(id ID) {
	for id != None {
		r := a.rec(id)
		if r.pinned {
			return
		}
		r.pinned = true
		id = r.parent
	}
}

// Parent returns the parent of id, or None.
func (a *Arena) Parent(id ID) ID {
	return a.rec(id).parent
}

// Name returns the display name given to Push.
func (a *Arena) Name(id ID) string {
	return a.rec(id).name
}

// Live returns the number of scopes that have not been released.
func (a *Arena) Live() int {
	return len(a.records) - len(a.free)
}

// Lookup walks the chain from id outwards and returns the first symbol
// named name together with the scope that owns it.
func (a *Arena) Lookup(id ID, name string) (*Symbol, ID, bool) {
	for id != None {
		r := a.rec(id)
		if sym, ok := r.symbols[name]; ok {
			return sym, id, true
		}
		id = r.parent
	}
	return nil, None, false
}

// LookupLocal searches only the scope id.
func (a *Arena) LookupLocal(id ID, name string) (*Symbol, bool) {
	sym, ok := a.rec(id).symbols[name]
	return sym, ok
}

// Get resolves name to its value.
func (a *Arena) Get(id ID, name string) (types.Value, error) {
	sym, _, ok := a.Lookup(id, name)
	if !ok {
		return types.Null(), fmt.Errorf("'%s' is %w", name, ErrUndefined)
	}
	return sym.Value, nil
}

// Declare binds name in scope id, replacing any binding the scope itself
// already holds. Outer bindings are shadowed, not touched.
func (a *Arena) Declare(id ID, name string, v types.Value, reassignable bool) {
	a.rec(id).symbols[name] = &Symbol{Value: v, Reassignable: reassignable}
}

// GetAndSet assigns to name in the scope that owns it. If no scope on the
// chain binds name, a reassignable binding is created in id. Returns the
// previous value (Null for a new binding).
func (a *Arena) GetAndSet(id ID, name string, v types.Value) (types.Value, error) {
	sym, _, ok := a.Lookup(id, name)
	if !ok {
		a.Declare(id, name, v, true)
		return types.Null(), nil
	}
	if !sym.Reassignable {
		return sym.Value, fmt.Errorf("%w '%s'", ErrConstant, name)
	}
	old := sym.Value
	sym.Value = v
	return old, nil
}

// Each calls fn for every binding held directly by id.
func (a *Arena) Each(id ID, fn func(name string, sym *Symbol)) {
	for name, sym := range a.rec(id).symbols {
		fn(name, sym)
	}
}

func (a *Arena) rec(id ID) *record {
	if int(id) >= len(a.records) || !a.records[id].live {
		panic(fmt.Sprintf("scope: use of released scope %d", id))
	}
	return &a.records[id]
}

func parentAttr(id ID) int {
	if id == None {
		return -1
	}
	return int(id)
}
