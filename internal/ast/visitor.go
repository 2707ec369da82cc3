package ast

// Walk traverses an AST in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited.
//
// Example: Count all variable reads
//
//	count := 0
//	ast.Walk(root, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.VarAccess); ok {
//	        count++
//	    }
//	    return true // continue traversal
//	})
func Walk(node Node, fn func(Node) bool) {
	Inspect(node, func(n, _ Node) bool { return fn(n) })
}

// Inspect traverses an AST with parent tracking.
// For each node, it calls fn(node, parent). The parent is nil for the root node.
// If fn returns false, the children of that node are not visited.
func Inspect(node Node, fn func(node, parent Node) bool) {
	inspect(node, nil, fn)
}

func inspect(node, parent Node, fn func(node, parent Node) bool) {
	if isNil(node) || !fn(node, parent) {
		return
	}

	switch n := node.(type) {
	case *Number, *String, *Char, *Boolean, *Null, *VarAccess:
		// no children

	case *VarAssign:
		inspect(n.Value, n, fn)

	case *VarReassign:
		inspect(n.Value, n, fn)

	case *UnaryOp:
		inspect(n.Operand, n, fn)

	case *BinOp:
		inspect(n.Left, n, fn)
		inspect(n.Right, n, fn)

	case *FunctionDef:
		inspect(n.Body, n, fn)

	case *Call:
		inspect(n.Callee, n, fn)
		for _, arg := range n.Args {
			inspect(arg, n, fn)
		}

	case *Array:
		for _, e := range n.Elements {
			inspect(e, n, fn)
		}

	case *ObjectDef:
		for _, e := range n.Entries {
			inspect(e.Value, n, fn)
		}

	case *ObjectPropAccess:
		inspect(n.Object, n, fn)

	case *ObjectPropEdit:
		inspect(n.Object, n, fn)
		inspect(n.Value, n, fn)

	case *ClassDef:
		for _, p := range n.Properties {
			inspect(p, n, fn)
		}
		if n.Constructor != nil {
			inspect(n.Constructor, n, fn)
		}
		for _, m := range n.Methods {
			inspect(m, n, fn)
		}

	case *ClassInit:
		for _, arg := range n.Args {
			inspect(arg, n, fn)
		}

	case *Statements:
		for _, s := range n.Nodes {
			inspect(s, n, fn)
		}

	case *If:
		for _, c := range n.Cases {
			inspect(c.Cond, n, fn)
			inspect(c.Body, n, fn)
		}
		inspect(n.Else, n, fn)

	case *While:
		inspect(n.Cond, n, fn)
		inspect(n.Body, n, fn)

	case *For:
		inspect(n.Start, n, fn)
		inspect(n.To, n, fn)
		inspect(n.Step, n, fn)
		inspect(n.Body, n, fn)

	case *Return:
		inspect(n.Value, n, fn)
	}
}

// isNil also catches typed nil pointers stored in a Node.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *FunctionDef:
		return v == nil
	case *Statements:
		return v == nil
	case *VarAssign:
		return v == nil
	}
	return false
}

