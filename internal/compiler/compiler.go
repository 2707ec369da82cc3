package compiler

import (
	"errors"
	"fmt"
	"math"

	"github.com/kolkov/soul/internal/ast"
	"github.com/kolkov/soul/internal/token"
)

// ErrUnsupported is wrapped by errors for nodes the bytecode cannot
// express. Callers fall back to the tree-walking interpreter.
var ErrUnsupported = errors.New("unsupported by bytecode")

// Error represents a compilation error.
type Error struct {
	Message string
	Span    token.Span
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compile lowers node into bytecode. Literals, unary + and -, the binary
// operators + - * / ^ and statement lists are supported; anything else
// fails with an error wrapping ErrUnsupported.
func Compile(node ast.Node) (bc *Bytecode, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*Error); ok {
				err = ce
			} else {
				panic(r) // Re-panic for non-compile errors
			}
		}
	}()

	c := &compiler{
		bc: &Bytecode{},
	}
	if node != nil {
		c.compileTop(node)
	}
	return c.bc, nil
}

// Supported reports whether Compile accepts node.
func Supported(node ast.Node) bool {
	ok := true
	ast.Inspect(node, func(n, parent ast.Node) bool {
		if !ok {
			return false
		}
		switch n := n.(type) {
		case *ast.Statements:
			ok = parent == nil
		case *ast.Number, *ast.String, *ast.Char, *ast.Boolean, *ast.Null:
		case *ast.UnaryOp:
			ok = unaryOpcode(n.Op.Kind) != noOpcode
		case *ast.BinOp:
			ok = binaryOpcode(n.Op.Kind) != noOpcode
		default:
			ok = false
		}
		return ok
	})
	return ok
}

// compiler holds the state for one compilation.
type compiler struct {
	bc *Bytecode
}

func (c *compiler) emit(op Opcode, operands ...int) {
	c.bc.Instructions = append(c.bc.Instructions, Make(op, operands...)...)
}

// mark records n as the source of the next instruction.
func (c *compiler) mark(n ast.Node) {
	if c.bc.Spans == nil {
		c.bc.Spans = make(map[int]token.Span)
	}
	c.bc.Spans[len(c.bc.Instructions)] = n.Span()
}

func (c *compiler) unsupported(n ast.Node) {
	panic(&Error{
		Message: fmt.Sprintf("%T is %s", n, ErrUnsupported),
		Span:    n.Span(),
		Err:     ErrUnsupported,
	})
}

// constIndex appends a constant and returns its pool index. Every literal
// gets its own entry, so indexes follow source order.
func (c *compiler) constIndex(n ast.Node, s string) int {
	idx := len(c.bc.Constants)
	if idx > math.MaxUint16 {
		panic(&Error{Message: "too many constants", Span: n.Span()})
	}
	c.bc.Constants = append(c.bc.Constants, s)
	return idx
}

// compileTop compiles the root. Each top-level expression leaves its value
// for a Pop, so the VM's last popped value is the program result.
func (c *compiler) compileTop(node ast.Node) {
	stmts, ok := node.(*ast.Statements)
	if !ok {
		c.compileExpr(node)
		c.emit(Pop)
		return
	}
	for _, n := range stmts.Nodes {
		c.compileExpr(n)
		c.emit(Pop)
	}
}

func (c *compiler) compileExpr(node ast.Node) {
	switch n := node.(type) {
	case *ast.Number:
		c.emit(Constant, c.constIndex(n, n.Value.String()))
	case *ast.String:
		c.emit(Constant, c.constIndex(n, token.StrLit(n.Value).String()))
	case *ast.Char:
		c.emit(Constant, c.constIndex(n, token.CharLit(n.Value).String()))
	case *ast.Boolean:
		c.emit(Constant, c.constIndex(n, token.BoolLit(n.Value).String()))
	case *ast.Null:
		c.emit(Constant, c.constIndex(n, "null"))

	case *ast.UnaryOp:
		op := unaryOpcode(n.Op.Kind)
		if op == noOpcode {
			c.unsupported(n)
		}
		c.compileExpr(n.Operand)
		c.mark(n)
		c.emit(op)

	case *ast.BinOp:
		op := binaryOpcode(n.Op.Kind)
		if op == noOpcode {
			c.unsupported(n)
		}
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.mark(n)
		c.emit(op)

	default:
		c.unsupported(n)
	}
}

// noOpcode marks an operator without a bytecode form.
const noOpcode Opcode = 0xff

func unaryOpcode(k token.Kind) Opcode {
	switch k {
	case token.Plus:
		return UnaryPlus
	case token.Minus:
		return UnaryMinus
	}
	return noOpcode
}

func binaryOpcode(k token.Kind) Opcode {
	switch k {
	case token.Plus:
		return Add
	case token.Minus:
		return Subtract
	case token.Multiply:
		return Multiply
	case token.Divide:
		return Divide
	case token.Power:
		return Power
	}
	return noOpcode
}

// OperatorOf maps an arithmetic opcode back to its operator.
func OperatorOf(op Opcode) token.Kind {
	switch op {
	case Add:
		return token.Plus
	case Subtract:
		return token.Minus
	case Multiply:
		return token.Multiply
	case Divide:
		return token.Divide
	case Power:
		return token.Power
	case UnaryPlus:
		return token.Plus
	case UnaryMinus:
		return token.Minus
	}
	return token.None
}
