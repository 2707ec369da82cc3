package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/soul/internal/token"
)

// Printer writes AST nodes back out as soul source.
// Binary operations are fully parenthesized, so the output parses back
// into an equivalent tree.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes node to the writer. A root Statements node is written as a
// sequence of lines without surrounding braces.
func (p *Printer) Print(node Node) error {
	if root, ok := node.(*Statements); ok {
		for i, n := range root.Nodes {
			if i > 0 {
				p.printf("\n")
			}
			p.printNode(n)
		}
		return p.err
	}
	p.printNode(node)
	return p.err
}

// Format returns the source form of node.
func Format(node Node) string {
	var sb strings.Builder
	_ = NewPrinter(&sb).Print(node)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	for i := 0; i < p.indent; i++ {
		_, p.err = io.WriteString(p.w, "    ")
	}
}

func (p *Printer) printNode(node Node) {
	if isNil(node) {
		p.printf("<nil>")
		return
	}

	switch n := node.(type) {
	case *Number:
		p.printf("%s", n.Value)

	case *String:
		p.printf("%s", strconv.Quote(n.Value))

	case *Char:
		p.printf("%s", strconv.QuoteRune(n.Value))

	case *Boolean:
		p.printf("%t", n.Value)

	case *Null:
		p.printf("null")

	case *VarAssign:
		if n.Reassignable {
			p.printf("var ")
		} else {
			p.printf("val ")
		}
		p.printf("%s = ", n.Name)
		p.printNode(n.Value)

	case *VarReassign:
		p.printf("%s %s ", n.Name, n.Op)
		p.printNode(n.Value)

	case *VarAccess:
		p.printf("%s", n.Name)

	case *UnaryOp:
		if n.Op.Kind == token.Keyword {
			p.printf("%s ", n.Op.Text())
		} else {
			p.printf("%s", n.Op.Kind)
		}
		p.printOperand(n.Operand)

	case *BinOp:
		p.printf("(")
		p.printNode(n.Left)
		if n.Op.Kind == token.Keyword {
			p.printf(" %s ", n.Op.Text())
		} else {
			p.printf(" %s ", n.Op.Kind)
		}
		p.printNode(n.Right)
		p.printf(")")

	case *FunctionDef:
		p.printFunction(n)

	case *Call:
		p.printOperand(n.Callee)
		p.printArgs(n.Args)

	case *Array:
		p.printf("[")
		p.printList(n.Elements)
		p.printf("]")

	case *ObjectDef:
		p.printf("{")
		for i, e := range n.Entries {
			if i > 0 {
				p.printf(", ")
			}
			p.printKey(e.Key)
			p.printf(": ")
			p.printNode(e.Value)
		}
		p.printf("}")

	case *ObjectPropAccess:
		p.printOperand(n.Object)
		p.printf(".%s", n.Key)

	case *ObjectPropEdit:
		p.printOperand(n.Object)
		p.printf(".%s %s ", n.Key, n.Op)
		p.printNode(n.Value)

	case *ClassDef:
		p.printClass(n)

	case *ClassInit:
		p.printf("new %s", n.Name)
		p.printArgs(n.Args)

	case *Statements:
		p.printBlock(n)

	case *If:
		for i, c := range n.Cases {
			if i > 0 {
				p.printf(" else ")
			}
			p.printf("if ")
			p.printNode(c.Cond)
			p.printBody(c.Body)
		}
		if n.Else != nil {
			p.printf(" else")
			if b, ok := n.Else.(*Statements); ok {
				p.printf(" ")
				p.printBlock(b)
			} else {
				p.printf(" ")
				p.printNode(n.Else)
			}
		}

	case *While:
		p.printf("while ")
		p.printNode(n.Cond)
		p.printBody(n.Body)

	case *For:
		p.printf("for %s = ", n.Var)
		p.printNode(n.Start)
		p.printf(" to ")
		p.printNode(n.To)
		if n.Step != nil {
			p.printf(" step ")
			p.printNode(n.Step)
		}
		p.printBody(n.Body)

	case *Return:
		p.printf("return")
		if n.Value != nil {
			p.printf(" ")
			p.printNode(n.Value)
		}

	default:
		p.printf("<%T>", node)
	}
}

// printOperand parenthesizes nodes that cannot be followed by a call,
// a property access, or serve as a unary operand.
func (p *Printer) printOperand(n Node) {
	switch n.(type) {
	case *Number, *String, *Char, *Boolean, *Null, *VarAccess, *BinOp,
		*Call, *Array, *ObjectDef, *ObjectPropAccess, *ClassInit:
		p.printNode(n)
	default:
		p.printf("(")
		p.printNode(n)
		p.printf(")")
	}
}

func (p *Printer) printList(nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			p.printf(", ")
		}
		p.printNode(n)
	}
}

func (p *Printer) printArgs(args []Node) {
	p.printf("(")
	p.printList(args)
	p.printf(")")
}

func (p *Printer) printKey(key string) {
	if isIdent(key) && !token.IsKeyword(key) && key != "true" && key != "false" {
		p.printf("%s", key)
		return
	}
	p.printf("%s", strconv.Quote(key))
}

func (p *Printer) printBody(body Node) {
	if b, ok := body.(*Statements); ok {
		p.printf(" ")
		p.printBlock(b)
		return
	}
	p.printf(" then ")
	p.printNode(body)
}

func (p *Printer) printBlock(b *Statements) {
	p.printf("{\n")
	p.indent++
	for _, n := range b.Nodes {
		p.writeIndent()
		p.printNode(n)
		p.printf("\n")
	}
	p.indent--
	p.writeIndent()
	p.printf("}")
}

func (p *Printer) printFunction(f *FunctionDef) {
	p.printf("fun")
	if f.Name != "" {
		p.printf(" %s", f.Name)
	}
	p.printf("(%s) => ", strings.Join(f.Params, ", "))
	if b, ok := f.Body.(*Statements); ok && !f.AutoReturn {
		p.printBlock(b)
		return
	}
	if _, ok := f.Body.(*ObjectDef); ok {
		p.printf("(")
		p.printNode(f.Body)
		p.printf(")")
		return
	}
	p.printNode(f.Body)
}

func (p *Printer) printClass(c *ClassDef) {
	p.printf("class %s {\n", c.Name)
	p.indent++
	for _, prop := range c.Properties {
		p.writeIndent()
		p.printNode(prop)
		p.printf("\n")
	}
	if c.Constructor != nil {
		p.writeIndent()
		p.printFunction(c.Constructor)
		p.printf("\n")
	}
	for _, m := range c.Methods {
		p.writeIndent()
		p.printFunction(m)
		p.printf("\n")
	}
	p.indent--
	p.writeIndent()
	p.printf("}")
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		if !letter && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}
