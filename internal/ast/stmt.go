package ast

// Statements is a block: an ordered list of nodes evaluated in sequence.
// The parser returns one Statements node as the program root.
type Statements struct {
	BaseNode
	Nodes []Node
}

// IfCase is one condition/body pair of an if expression.
type IfCase struct {
	Cond Node
	Body Node
}

// If represents an if / else if / else chain.
// Example: if x > 0 then 1 else if x < 0 then -1 else 0
type If struct {
	BaseNode
	Cases []IfCase
	Else  Node // nil when there is no else branch
}

// While represents a while loop.
// Example: while i < 10 { i += 1 }
type While struct {
	BaseNode
	Cond Node
	Body Node
}

// For represents a counting loop with an inclusive bound.
// Example: for i = 1 to 10 step 2 { print(i) }
type For struct {
	BaseNode
	Var   string
	Start Node
	To    Node
	Step  Node // nil means 1
	Body  Node
}

// Return represents a return statement.
// Example: return x + 1
type Return struct {
	BaseNode
	Value Node // nil for a bare return
}

var (
	_ Node = (*Statements)(nil)
	_ Node = (*If)(nil)
	_ Node = (*While)(nil)
	_ Node = (*For)(nil)
	_ Node = (*Return)(nil)
)
