package ast

import "github.com/kolkov/soul/internal/token"

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

// Number represents an integer or float literal.
// Examples: 42, 3.14, .5
type Number struct {
	BaseNode
	Value token.Literal // LitInt or LitFloat
}

// IsFloat reports whether the literal is a float.
func (n *Number) IsFloat() bool { return n.Value.Kind == token.LitFloat }

// String represents a string literal.
// Examples: "hello", "world\n"
type String struct {
	BaseNode
	Value string // Unescaped string value
}

// Char represents a character literal.
// Example: 'a'
type Char struct {
	BaseNode
	Value rune
}

// Boolean represents true or false.
type Boolean struct {
	BaseNode
	Value bool
}

// Null represents the null literal.
type Null struct {
	BaseNode
}

// -----------------------------------------------------------------------------
// Bindings
// -----------------------------------------------------------------------------

// VarAssign declares a new binding.
// Examples: var x = 1, val y = "fixed"
type VarAssign struct {
	BaseNode
	Name         string
	Value        Node
	Reassignable bool // var is reassignable, val is not
}

// VarReassign assigns to an existing binding, or creates one in the
// current scope if the name is unbound.
// Examples: x = 1, x += 2
type VarReassign struct {
	BaseNode
	Name  string
	Op    token.Kind // Equals or a compound operator (PlusEquals, ...)
	Value Node
}

// VarAccess reads a binding. The soul keyword is a VarAccess named "soul".
type VarAccess struct {
	BaseNode
	Name string
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// UnaryOp represents a prefix operation.
// Examples: -x, +y, not done
type UnaryOp struct {
	BaseNode
	Op      token.Token // Plus, Minus or the keyword not
	Operand Node
}

// BinOp represents a binary operation.
// Examples: a + b, x == y, ok and ready
type BinOp struct {
	BaseNode
	Left  Node
	Op    token.Token // Operator token, or the keyword and/or
	Right Node
}

// IsLogical reports whether the operator is the keyword and/or.
func (b *BinOp) IsLogical() bool {
	return b.Op.Is("and") || b.Op.Is("or")
}

// -----------------------------------------------------------------------------
// Functions
// -----------------------------------------------------------------------------

// FunctionDef represents a named or anonymous function.
// Examples: fun add(a, b) => a + b, fun() => { return 1 }
type FunctionDef struct {
	BaseNode
	Name       string // Empty for anonymous functions and constructors
	Params     []string
	Body       Node
	AutoReturn bool // Expression body: its value is the result
}

// Call represents a call of a function, class or builtin.
// Example: add(1, 2)
type Call struct {
	BaseNode
	Callee Node
	Args   []Node
}

// -----------------------------------------------------------------------------
// Containers
// -----------------------------------------------------------------------------

// Array represents an array literal.
// Example: [1, "two", 3.0]
type Array struct {
	BaseNode
	Elements []Node
}

// ObjectEntry is one key: value pair of an object literal.
type ObjectEntry struct {
	Key    string
	KeyPos token.Position
	Value  Node
}

// ObjectDef represents an object literal. Entries keep source order.
// Example: { name: "x", "size": 2 }
type ObjectDef struct {
	BaseNode
	Entries []ObjectEntry
}

// ObjectPropAccess reads a property.
// Example: point.x
type ObjectPropAccess struct {
	BaseNode
	Object Node
	Key    string
}

// ObjectPropEdit writes a property.
// Examples: point.x = 1, soul.count += 1
type ObjectPropEdit struct {
	BaseNode
	Object Node
	Key    string
	Op     token.Kind // Equals or a compound operator
	Value  Node
}

// -----------------------------------------------------------------------------
// Classes
// -----------------------------------------------------------------------------

// ClassDef declares a class.
// Example: class K { var a = [0]; fun() => { soul.a = [69] } }
type ClassDef struct {
	BaseNode
	Name        string
	Constructor *FunctionDef // nil if the class has none
	Properties  []*VarAssign
	Methods     []*FunctionDef
}

// Method returns the named method, or nil.
func (c *ClassDef) Method(name string) *FunctionDef {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ClassInit instantiates a class.
// Example: new K(1, 2)
type ClassInit struct {
	BaseNode
	Name string
	Args []Node
}

// Compile-time interface checks.
var (
	_ Node = (*Number)(nil)
	_ Node = (*String)(nil)
	_ Node = (*Char)(nil)
	_ Node = (*Boolean)(nil)
	_ Node = (*Null)(nil)
	_ Node = (*VarAssign)(nil)
	_ Node = (*VarReassign)(nil)
	_ Node = (*VarAccess)(nil)
	_ Node = (*UnaryOp)(nil)
	_ Node = (*BinOp)(nil)
	_ Node = (*FunctionDef)(nil)
	_ Node = (*Call)(nil)
	_ Node = (*Array)(nil)
	_ Node = (*ObjectDef)(nil)
	_ Node = (*ObjectPropAccess)(nil)
	_ Node = (*ObjectPropEdit)(nil)
	_ Node = (*ClassDef)(nil)
	_ Node = (*ClassInit)(nil)
)
