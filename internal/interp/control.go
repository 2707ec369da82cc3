package interp

import (
	"context"

	"github.com/kolkov/soul/internal/ast"
	"github.com/kolkov/soul/internal/scope"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/types"
)

// evalIf runs the first case whose condition is truthy, in the enclosing
// scope. Without a match or an else it yields Null.
func (in *Interpreter) evalIf(ctx context.Context, c *scope.Context, n *ast.If) (types.Value, error) {
	for _, ic := range n.Cases {
		cond, err := in.eval(ctx, c, ic.Cond)
		if err != nil {
			return types.Null(), err
		}
		if cond.Truthy() {
			return in.eval(ctx, c, ic.Body)
		}
	}
	if n.Else != nil {
		return in.eval(ctx, c, n.Else)
	}
	return types.Null(), nil
}

// iterate runs body once in a fresh child scope of parent.
func (in *Interpreter) iterate(ctx context.Context, c *scope.Context, parent scope.ID, name string, body ast.Node) (types.Value, error) {
	id := in.arena.Push(parent, name)
	defer in.arena.Release(id)

	v, err := in.eval(ctx, c.WithScope(id), body)
	if err != nil {
		return types.Null(), err
	}
	return v.Clone(), nil
}

// evalWhile yields an array of the body's value on each iteration.
func (in *Interpreter) evalWhile(ctx context.Context, c *scope.Context, n *ast.While) (types.Value, error) {
	var results []types.Value
	for {
		if err := ctx.Err(); err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}

		cond, err := in.eval(ctx, c, n.Cond)
		if err != nil {
			return types.Null(), err
		}
		if !cond.Truthy() {
			break
		}

		v, err := in.iterate(ctx, c, c.Scope, "while", n.Body)
		if err != nil {
			return types.Null(), err
		}
		results = append(results, v)
	}
	return types.NewArray(results), nil
}

// evalFor counts the loop variable from start to end inclusive, in the
// direction of step. The variable lives in a loop scope; each iteration
// gets a child of it.
func (in *Interpreter) evalFor(ctx context.Context, c *scope.Context, n *ast.For) (types.Value, error) {
	start, err := in.evalNumber(ctx, c, n.Start, "start")
	if err != nil {
		return types.Null(), err
	}
	end, err := in.evalNumber(ctx, c, n.To, "end")
	if err != nil {
		return types.Null(), err
	}
	step := types.Int(1)
	if n.Step != nil {
		if step, err = in.evalNumber(ctx, c, n.Step, "step"); err != nil {
			return types.Null(), err
		}
		if step.AsFloat() == 0 {
			return types.Null(), in.errorf(c, n.Step, nil, "for step must not be zero")
		}
	}

	loop := in.arena.Push(c.Scope, "for")
	defer in.arena.Release(loop)

	ascending := step.AsFloat() > 0
	var results []types.Value
	for i := start; ; {
		cmp, _ := types.Compare(i, end)
		if (ascending && cmp > 0) || (!ascending && cmp < 0) {
			break
		}
		if err := ctx.Err(); err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}

		in.arena.Declare(loop, n.Var, i, true)
		v, err := in.iterate(ctx, c, loop, "for body", n.Body)
		if err != nil {
			return types.Null(), err
		}
		results = append(results, v)

		if i, err = types.BinaryOp(token.Plus, i, step); err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}
	}
	return types.NewArray(results), nil
}

func (in *Interpreter) evalNumber(ctx context.Context, c *scope.Context, node ast.Node, what string) (types.Value, error) {
	v, err := in.eval(ctx, c, node)
	if err != nil {
		return types.Null(), err
	}
	if !v.IsNumber() {
		return types.Null(), in.errorf(c, node, types.ErrTypeMismatch, "for %s must be a number, got %s", what, v.Kind())
	}
	return v, nil
}
