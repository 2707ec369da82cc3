package parser

import (
	"github.com/kolkov/soul/internal/ast"
	"github.com/kolkov/soul/internal/lexer"
	"github.com/kolkov/soul/internal/token"
)

// Parser is a recursive descent parser over an immutable token buffer.
//
// Rules report errors by panicking with *Error; Parse and the speculative
// try helper recover them. A speculative attempt rewinds the cursor to
// where it started when it fails.
type Parser struct {
	toks []token.Token // Token buffer, terminated by EOF
	pos  int           // Index of the current token
	tok  token.Token   // Current token (toks[pos])

	lastTry *Error // Error of the latest failed speculative attempt
}

// Parse parses a token sequence into the program's root block.
func Parse(toks []token.Token) (root *ast.Statements, err error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		var end token.Position
		if len(toks) > 0 {
			end = toks[len(toks)-1].End
		}
		toks = append(toks, token.Token{Kind: token.EOF, Start: end, End: end})
	}

	p := &Parser{toks: toks, tok: toks[0]}
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			root, err = nil, perr
		}
	}()

	root = p.parseStatements(token.EOF)
	p.expectEnd(token.EOF, "end of file")
	return root, nil
}

// ParseSource tokenizes and parses source text.
// Lexical errors are returned as *lexer.Error.
func ParseSource(fileName, src string) (*ast.Statements, error) {
	toks, err := lexer.Tokenize(fileName, src)
	if err != nil {
		return nil, err
	}
	return Parse(toks)
}

// -----------------------------------------------------------------------------
// Token handling
// -----------------------------------------------------------------------------

// next advances to the next token. The cursor never moves past EOF.
func (p *Parser) next() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	p.tok = p.toks[p.pos]
}

// peek returns the kind of the token after the current one.
func (p *Parser) peek() token.Kind {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1].Kind
	}
	return token.EOF
}

// prevEnd returns the end of the last consumed token.
func (p *Parser) prevEnd() token.Position {
	if p.pos == 0 {
		return p.tok.Start
	}
	return p.toks[p.pos-1].End
}

// save returns a mark that restore rewinds the cursor to.
func (p *Parser) save() int {
	return p.pos
}

func (p *Parser) restore(mark int) {
	p.pos = mark
	p.tok = p.toks[mark]
}

// try runs an optional rule. On failure the cursor is rewound to where the
// attempt started and the error is returned instead of propagated.
func (p *Parser) try(rule func() ast.Node) (n ast.Node, err *Error) {
	mark := p.save()
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			p.restore(mark)
			p.lastTry = perr
			n, err = nil, perr
		}
	}()
	return rule(), nil
}

// fail aborts the current rule with err.
func (p *Parser) fail(err *Error) {
	panic(err)
}

func (p *Parser) errorf(format string, args ...any) {
	p.fail(errorf(p.tok, format, args...))
}

// expect checks that the current token is kind and advances.
func (p *Parser) expect(kind token.Kind) token.Token {
	tok := p.tok
	if tok.Kind != kind {
		p.fail(expectedError(tok, "'"+kind.String()+"'"))
	}
	p.next()
	return tok
}

// expectKeyword checks that the current token is keyword kw and advances.
func (p *Parser) expectKeyword(kw string) token.Token {
	tok := p.tok
	if !tok.Is(kw) {
		p.fail(expectedError(tok, "'"+kw+"'"))
	}
	p.next()
	return tok
}

// expectName expects an identifier and returns its name.
func (p *Parser) expectName() string {
	tok := p.tok
	if tok.Kind != token.Identifier {
		p.fail(expectedError(tok, "identifier"))
	}
	p.next()
	return tok.Text()
}

// expectEnd expects the token that closes a statement list. If the list
// stopped because a speculative statement failed, that error explains
// the stop better than the missing closer does.
func (p *Parser) expectEnd(kind token.Kind, want string) {
	if p.tok.Kind == kind {
		return
	}
	if p.lastTry != nil && p.lastTry.Span.Start.Index >= p.tok.Start.Index {
		p.fail(p.lastTry)
	}
	p.fail(expectedError(p.tok, want))
}

// match returns true if the current token is any of the given kinds.
func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.tok.Kind == k {
			return true
		}
	}
	return false
}

// optionalNewlines skips any number of newline tokens and reports
// whether it skipped one.
func (p *Parser) optionalNewlines() bool {
	skipped := false
	for p.tok.Kind == token.Newline {
		p.next()
		skipped = true
	}
	return skipped
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// parseStatements parses statements up to (not including) the closing
// token. Statements are separated by newlines; a statement may also follow
// one that ended with '}' directly. Each statement after the first is
// speculative: if it fails, the cursor rewinds to before the separator
// and the caller decides whether the list may end there.
func (p *Parser) parseStatements(closing token.Kind) *ast.Statements {
	start := p.tok.Start
	p.optionalNewlines()

	var nodes []ast.Node
	if p.tok.Kind != closing && p.tok.Kind != token.EOF {
		nodes = append(nodes, p.parseStatement())

		for {
			mark := p.save()
			afterBrace := p.toks[p.pos-1].Kind == token.RightBrace
			sawNewline := p.optionalNewlines()
			if p.tok.Kind == closing || p.tok.Kind == token.EOF {
				break
			}
			if !sawNewline && !afterBrace {
				break
			}
			stmt, err := p.try(p.parseStatement)
			if err != nil {
				p.restore(mark)
				break
			}
			nodes = append(nodes, stmt)
		}
	}

	end := p.prevEnd()
	if len(nodes) == 0 {
		end = start
	}
	return &ast.Statements{BaseNode: ast.MakeBase(start, end), Nodes: nodes}
}

// parseBlock parses { statements }.
func (p *Parser) parseBlock() *ast.Statements {
	start := p.expect(token.LeftBrace).Start
	block := p.parseStatements(token.RightBrace)
	p.expectEnd(token.RightBrace, "'}'")
	p.next()
	block.BaseNode = ast.MakeBase(start, p.prevEnd())
	return block
}

// parseStatement parses 'return' expr? | expr.
func (p *Parser) parseStatement() ast.Node {
	if !p.tok.Is("return") {
		return p.parseExpr()
	}

	ret := p.tok
	p.next()
	value, _ := p.try(p.parseExpr)
	end := ret.End
	if value != nil {
		end = value.End()
	}
	return &ast.Return{BaseNode: ast.MakeBase(ret.Start, end), Value: value}
}

// parseBody parses the body of if, for and while:
// a block, or 'then' followed by one statement.
func (p *Parser) parseBody() ast.Node {
	switch {
	case p.tok.Kind == token.LeftBrace:
		return p.parseBlock()
	case p.tok.Is("then"):
		p.next()
		p.optionalNewlines()
		return p.parseStatement()
	default:
		p.fail(expectedError(p.tok, "'{' or 'then'"))
		return nil
	}
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// parseExpr parses declarations, reassignments and logical expressions.
func (p *Parser) parseExpr() ast.Node {
	start := p.tok.Start

	if p.tok.Is("var") || p.tok.Is("val") {
		reassignable := p.tok.Is("var")
		p.next()
		name := p.expectName()
		p.expect(token.Equals)
		value := p.parseExpr()
		return &ast.VarAssign{
			BaseNode:     ast.MakeBase(start, value.End()),
			Name:         name,
			Value:        value,
			Reassignable: reassignable,
		}
	}

	if p.tok.Kind == token.Identifier && p.peek().IsAssign() {
		name := p.tok.Text()
		p.next()
		op := p.tok.Kind
		p.next()
		value := p.parseExpr()
		return &ast.VarReassign{
			BaseNode: ast.MakeBase(start, value.End()),
			Name:     name,
			Op:       op,
			Value:    value,
		}
	}

	return p.parseLogical()
}

// parseLogical parses comp_expr (('and'|'or') comp_expr)*.
func (p *Parser) parseLogical() ast.Node {
	expr := p.parseComp()
	for p.tok.Is("and") || p.tok.Is("or") {
		op := p.tok
		p.next()
		p.optionalNewlines()
		right := p.parseComp()
		expr = &ast.BinOp{BaseNode: ast.Between(expr, right), Left: expr, Op: op, Right: right}
	}
	return expr
}

// parseComp parses 'not' comp_expr | arith_expr (cmp_op arith_expr)*.
func (p *Parser) parseComp() ast.Node {
	if p.tok.Is("not") {
		op := p.tok
		p.next()
		operand := p.parseComp()
		return &ast.UnaryOp{BaseNode: ast.MakeBase(op.Start, operand.End()), Op: op, Operand: operand}
	}
	return p.parseBinaryLeft(p.parseArith,
		token.DoubleEquals, token.NotEquals,
		token.LessThan, token.LessThanEquals,
		token.GreaterThan, token.GreaterThanEquals)
}

// parseArith parses + and - expressions.
func (p *Parser) parseArith() ast.Node {
	return p.parseBinaryLeft(p.parseTerm, token.Plus, token.Minus)
}

// parseTerm parses *, / and % expressions.
func (p *Parser) parseTerm() ast.Node {
	return p.parseBinaryLeft(p.parseFactor, token.Multiply, token.Divide, token.Modulo)
}

// parseFactor parses unary + and -.
func (p *Parser) parseFactor() ast.Node {
	if p.match(token.Plus, token.Minus) {
		op := p.tok
		p.next()
		operand := p.parseFactor()
		return &ast.UnaryOp{BaseNode: ast.MakeBase(op.Start, operand.End()), Op: op, Operand: operand}
	}
	return p.parsePower()
}

// parsePower parses ^ expressions (right-associative: the exponent is a
// factor, which parses its own ^ chain).
func (p *Parser) parsePower() ast.Node {
	expr := p.parseCall()
	if p.tok.Kind == token.Power {
		op := p.tok
		p.next()
		right := p.parseFactor()
		return &ast.BinOp{BaseNode: ast.Between(expr, right), Left: expr, Op: op, Right: right}
	}
	return expr
}

// parseCall parses calls and property accesses/edits following an atom.
func (p *Parser) parseCall() ast.Node {
	expr := p.parseAtom()

	for {
		switch p.tok.Kind {
		case token.LeftParen:
			args := p.parseArgs(token.LeftParen, token.RightParen)
			expr = &ast.Call{BaseNode: ast.MakeBase(expr.Pos(), p.prevEnd()), Callee: expr, Args: args}

		case token.Dot:
			p.next()
			key := p.expectName()
			if p.tok.Kind.IsAssign() {
				op := p.tok.Kind
				p.next()
				value := p.parseExpr()
				return &ast.ObjectPropEdit{
					BaseNode: ast.MakeBase(expr.Pos(), value.End()),
					Object:   expr,
					Key:      key,
					Op:       op,
					Value:    value,
				}
			}
			expr = &ast.ObjectPropAccess{BaseNode: ast.MakeBase(expr.Pos(), p.prevEnd()), Object: expr, Key: key}

		default:
			return expr
		}
	}
}

// parseAtom parses literals, names, groups and the keyword constructs.
func (p *Parser) parseAtom() ast.Node {
	tok := p.tok
	base := ast.MakeBase(tok.Start, tok.End)

	switch tok.Kind {
	case token.Int, token.Float:
		p.next()
		return &ast.Number{BaseNode: base, Value: tok.Literal}
	case token.String:
		p.next()
		return &ast.String{BaseNode: base, Value: tok.Literal.Str}
	case token.Char:
		p.next()
		return &ast.Char{BaseNode: base, Value: tok.Literal.Char}
	case token.Boolean:
		p.next()
		return &ast.Boolean{BaseNode: base, Value: tok.Literal.Bool}
	case token.Identifier:
		p.next()
		return &ast.VarAccess{BaseNode: base, Name: tok.Text()}

	case token.LeftParen:
		p.next()
		p.optionalNewlines()
		expr := p.parseExpr()
		p.optionalNewlines()
		p.expect(token.RightParen)
		return expr

	case token.LeftBracket:
		elems := p.parseArgs(token.LeftBracket, token.RightBracket)
		return &ast.Array{BaseNode: ast.MakeBase(tok.Start, p.prevEnd()), Elements: elems}

	case token.LeftBrace:
		return p.parseObject()

	case token.Keyword:
		switch tok.Text() {
		case "null":
			p.next()
			return &ast.Null{BaseNode: base}
		case "soul":
			p.next()
			return &ast.VarAccess{BaseNode: base, Name: "soul"}
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "fun":
			return p.parseFunctionDef()
		case "class":
			return p.parseClass()
		case "new":
			p.next()
			name := p.expectName()
			args := p.parseArgs(token.LeftParen, token.RightParen)
			return &ast.ClassInit{BaseNode: ast.MakeBase(tok.Start, p.prevEnd()), Name: name, Args: args}
		}
	}

	p.fail(expectedError(tok, "expression"))
	return nil
}

// parseArgs parses a comma-separated expression list between open and
// close. Newlines are allowed around elements.
func (p *Parser) parseArgs(open, close token.Kind) []ast.Node {
	p.expect(open)
	p.optionalNewlines()

	var list []ast.Node
	for p.tok.Kind != close {
		if len(list) > 0 {
			p.expect(token.Comma)
			p.optionalNewlines()
		}
		list = append(list, p.parseExpr())
		p.optionalNewlines()
	}
	p.next()
	return list
}

// parseObject parses { key: expr, ... }. Keys are names or strings.
func (p *Parser) parseObject() ast.Node {
	start := p.expect(token.LeftBrace).Start
	p.optionalNewlines()

	obj := &ast.ObjectDef{}
	for p.tok.Kind != token.RightBrace {
		if len(obj.Entries) > 0 {
			p.expect(token.Comma)
			p.optionalNewlines()
		}
		keyTok := p.tok
		if !p.match(token.Identifier, token.String) {
			p.fail(expectedError(keyTok, "object key"))
		}
		p.next()
		p.expect(token.Colon)
		p.optionalNewlines()
		value := p.parseExpr()
		obj.Entries = append(obj.Entries, ast.ObjectEntry{Key: keyTok.Literal.Str, KeyPos: keyTok.Start, Value: value})
		p.optionalNewlines()
	}
	p.next()

	obj.BaseNode = ast.MakeBase(start, p.prevEnd())
	return obj
}

// parseIf parses an if / else if / else chain. The else continuation is
// optional and may sit on a following line; if none follows, the newlines
// are left for the enclosing statement list.
func (p *Parser) parseIf() ast.Node {
	start := p.expectKeyword("if").Start

	node := &ast.If{}
	for {
		cond := p.parseExpr()
		body := p.parseBody()
		node.Cases = append(node.Cases, ast.IfCase{Cond: cond, Body: body})

		mark := p.save()
		p.optionalNewlines()
		if !p.tok.Is("else") {
			p.restore(mark)
			break
		}
		p.next()
		if p.tok.Is("if") {
			p.next()
			continue
		}
		switch {
		case p.tok.Kind == token.LeftBrace:
			node.Else = p.parseBlock()
		case p.tok.Is("then"):
			node.Else = p.parseBody()
		default:
			node.Else = p.parseStatement()
		}
		break
	}

	node.BaseNode = ast.MakeBase(start, p.prevEnd())
	return node
}

// parseFor parses for IDENT = expr to expr (step expr)? body.
func (p *Parser) parseFor() ast.Node {
	start := p.expectKeyword("for").Start
	name := p.expectName()
	p.expect(token.Equals)
	from := p.parseExpr()
	p.expectKeyword("to")
	to := p.parseExpr()
	var step ast.Node
	if p.tok.Is("step") {
		p.next()
		step = p.parseExpr()
	}
	body := p.parseBody()
	return &ast.For{
		BaseNode: ast.MakeBase(start, p.prevEnd()),
		Var:      name,
		Start:    from,
		To:       to,
		Step:     step,
		Body:     body,
	}
}

// parseWhile parses while expr body.
func (p *Parser) parseWhile() ast.Node {
	start := p.expectKeyword("while").Start
	cond := p.parseExpr()
	body := p.parseBody()
	return &ast.While{BaseNode: ast.MakeBase(start, p.prevEnd()), Cond: cond, Body: body}
}

// parseFunctionDef parses fun IDENT? (params) => (block | expr).
func (p *Parser) parseFunctionDef() *ast.FunctionDef {
	start := p.expectKeyword("fun").Start

	fn := &ast.FunctionDef{}
	if p.tok.Kind == token.Identifier {
		fn.Name = p.tok.Text()
		p.next()
	}

	p.expect(token.LeftParen)
	seen := make(map[string]bool)
	for p.tok.Kind != token.RightParen {
		if len(fn.Params) > 0 {
			p.expect(token.Comma)
		}
		tok := p.tok
		name := p.expectName()
		if seen[name] {
			p.fail(errorf(tok, "duplicate parameter %q", name))
		}
		seen[name] = true
		fn.Params = append(fn.Params, name)
	}
	p.next()
	p.expect(token.Arrow)

	if p.tok.Kind == token.LeftBrace {
		fn.Body = p.parseBlock()
	} else {
		p.optionalNewlines()
		fn.Body = p.parseExpr()
		fn.AutoReturn = true
	}

	fn.BaseNode = ast.MakeBase(start, p.prevEnd())
	return fn
}

// parseClass parses class IDENT { members }. Members are var/val
// properties and functions; the unnamed function is the constructor.
func (p *Parser) parseClass() ast.Node {
	start := p.expectKeyword("class").Start
	class := &ast.ClassDef{Name: p.expectName()}
	p.expect(token.LeftBrace)

	methods := make(map[string]bool)
	first := true
	for {
		sawNewline := p.optionalNewlines()
		if p.tok.Kind == token.RightBrace {
			break
		}
		if !first && !sawNewline && p.toks[p.pos-1].Kind != token.RightBrace {
			p.fail(expectedError(p.tok, "newline or '}'"))
		}
		first = false

		switch {
		case p.tok.Is("var"), p.tok.Is("val"):
			prop, ok := p.parseExpr().(*ast.VarAssign)
			if !ok {
				p.errorf("expected property declaration")
			}
			class.Properties = append(class.Properties, prop)

		case p.tok.Is("fun"):
			tok := p.tok
			fn := p.parseFunctionDef()
			if fn.Name == "" {
				if class.Constructor != nil {
					p.fail(errorf(tok, "class %s already has a constructor", class.Name))
				}
				class.Constructor = fn
				break
			}
			if methods[fn.Name] {
				p.fail(errorf(tok, "duplicate method %q in class %s", fn.Name, class.Name))
			}
			methods[fn.Name] = true
			class.Methods = append(class.Methods, fn)

		default:
			p.fail(expectedError(p.tok, "property or method"))
		}
	}
	p.next()

	class.BaseNode = ast.MakeBase(start, p.prevEnd())
	return class
}

// -----------------------------------------------------------------------------
// Helper functions
// -----------------------------------------------------------------------------

// parseBinaryLeft parses left-associative binary operators.
func (p *Parser) parseBinaryLeft(higher func() ast.Node, ops ...token.Kind) ast.Node {
	expr := higher()
	for p.match(ops...) {
		op := p.tok
		p.next()
		right := higher()
		expr = &ast.BinOp{BaseNode: ast.Between(expr, right), Left: expr, Op: op, Right: right}
	}
	return expr
}
