// Package ast defines the abstract syntax tree for soul programs.
//
// Every construct in soul is an expression, so the tree has a single node
// interface. Each node records the span from its first to its last token;
// spans are fixed when the parser builds the node.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Number, String, Char, Boolean, Null - literals
//	├── VarAssign, VarReassign, VarAccess - bindings
//	├── UnaryOp, BinOp - operations
//	├── If, While, For, Return - control flow
//	├── FunctionDef, Call - functions
//	├── Array, ObjectDef, ObjectPropAccess, ObjectPropEdit - containers
//	├── ClassDef, ClassInit - classes
//	└── Statements - blocks and the program root
package ast

import "github.com/kolkov/soul/internal/token"

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position

	// Span returns the source range covered by this node.
	Span() token.Span

	node() // marker method to prevent external implementations
}

// BaseNode provides the source span shared by all nodes.
// Embedded in concrete node types for position tracking.
type BaseNode struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseNode) Pos() token.Position { return b.StartPos }
func (b *BaseNode) End() token.Position { return b.EndPos }
func (b *BaseNode) Span() token.Span    { return token.MakeSpan(b.StartPos, b.EndPos) }
func (b *BaseNode) node()               {}

// MakeBase creates a BaseNode with the given positions.
func MakeBase(start, end token.Position) BaseNode {
	return BaseNode{StartPos: start, EndPos: end}
}

// Between creates a BaseNode spanning from the first node to the last.
func Between(first, last Node) BaseNode {
	return BaseNode{StartPos: first.Pos(), EndPos: last.End()}
}

// IsAssignable returns true if the node can appear on the left of an
// assignment operator.
func IsAssignable(n Node) bool {
	switch n.(type) {
	case *VarAccess, *ObjectPropAccess:
		return true
	default:
		return false
	}
}
