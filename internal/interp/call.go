package interp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kolkov/soul/internal/ast"
	"github.com/kolkov/soul/internal/scope"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/types"
)

// makeFunction closes over the current scope, which is pinned so it
// outlives the frame that created it.
func (in *Interpreter) makeFunction(c *scope.Context, n *ast.FunctionDef) *types.Function {
	in.arena.Pin(c.Scope)
	return &types.Function{
		Name:       n.Name,
		Params:     n.Params,
		Body:       n.Body,
		AutoReturn: n.AutoReturn,
		Scope:      c.Scope,
	}
}

func (in *Interpreter) evalArgs(ctx context.Context, c *scope.Context, nodes []ast.Node) ([]types.Value, error) {
	args := make([]types.Value, len(nodes))
	for i, a := range nodes {
		v, err := in.eval(ctx, c, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (in *Interpreter) evalCall(ctx context.Context, c *scope.Context, n *ast.Call) (types.Value, error) {
	callee, err := in.eval(ctx, c, n.Callee)
	if err != nil {
		return types.Null(), err
	}
	args, err := in.evalArgs(ctx, c, n.Args)
	if err != nil {
		return types.Null(), err
	}

	switch callee.Kind() {
	case types.KindBuiltin:
		b := callee.AsBuiltin()
		if len(args) != b.Arity {
			return types.Null(), in.arityError(c, n, b.Name, b.Arity, len(args))
		}
		v, err := b.Fn(args)
		if err != nil {
			return types.Null(), in.wrap(c, n, err)
		}
		return v, nil

	case types.KindFunction:
		return in.callFunction(ctx, c, n, callee.AsFunction(), args)

	case types.KindClass:
		return in.instantiate(ctx, c, n, callee.AsClass(), args)
	}
	return types.Null(), in.errorf(c, n.Callee, types.ErrTypeMismatch, "cannot call %s", callee.Kind())
}

func (in *Interpreter) arityError(c *scope.Context, n ast.Node, name string, want, got int) error {
	return in.errorf(c, n, nil, "%s expects %d argument%s, got %d", name, want, plural(want), got)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// callFunction binds args in a new scope whose parent is the function's
// closure scope. A return inside the body ends the call with its value;
// otherwise an expression body yields its value and a block yields Null.
func (in *Interpreter) callFunction(ctx context.Context, c *scope.Context, site ast.Node, fn *types.Function, args []types.Value) (types.Value, error) {
	name := frameName(fn)
	if len(args) != len(fn.Params) {
		return types.Null(), in.arityError(c, site, name, len(fn.Params), len(args))
	}
	if c.Depth() >= in.maxDepth {
		return types.Null(), in.errorf(c, site, ErrMaxDepth, "%v (%d)", ErrMaxDepth, in.maxDepth)
	}
	if err := ctx.Err(); err != nil {
		return types.Null(), in.errorf(c, site, err, "%v", err)
	}

	in.logger.Debug("call function",
		slog.String("function", name),
		slog.Int("argument-count", len(args)),
		slog.Int("depth", c.Depth()+1))

	id := in.arena.Push(fn.Scope, name)
	defer in.arena.Release(id)

	for i, p := range fn.Params {
		in.arena.Declare(id, p, args[i].Clone(), true)
	}
	if fn.Self != nil {
		in.arena.Declare(id, "soul", types.InstanceOf(fn.Self), false)
	}

	v, err := in.eval(ctx, c.Enter(name, id, site.Span()), fn.Body)
	if err != nil {
		var ret *returnSignal
		if errors.As(err, &ret) {
			return ret.value, nil
		}
		return types.Null(), err
	}
	if fn.AutoReturn {
		return v, nil
	}
	return types.Null(), nil
}

func frameName(fn *types.Function) string {
	switch {
	case fn.Self != nil && fn.Name == "":
		return "new " + fn.Self.Class.Name
	case fn.Self != nil:
		return fn.Self.Class.Name + "." + fn.Name
	case fn.Name == "":
		return "<anonymous>"
	default:
		return fn.Name
	}
}

// evalClassDef evaluates property defaults once and binds the class.
func (in *Interpreter) evalClassDef(ctx context.Context, c *scope.Context, n *ast.ClassDef) (types.Value, error) {
	class := &types.Class{
		Name:     n.Name,
		Defaults: types.NewObject(),
		Methods:  make(map[string]*types.Function, len(n.Methods)),
	}

	for _, prop := range n.Properties {
		v, err := in.eval(ctx, c, prop.Value)
		if err != nil {
			return types.Null(), err
		}
		class.Defaults.Set(prop.Name, v.Clone())
	}
	for _, m := range n.Methods {
		class.Methods[m.Name] = in.makeFunction(c, m)
	}
	if n.Constructor != nil {
		class.Constructor = in.makeFunction(c, n.Constructor)
	}

	v := types.ClassOf(class)
	in.arena.Declare(c.Scope, n.Name, v, false)
	return v, nil
}

func (in *Interpreter) evalClassInit(ctx context.Context, c *scope.Context, n *ast.ClassInit) (types.Value, error) {
	v, err := in.arena.Get(c.Scope, n.Name)
	if err != nil {
		return types.Null(), in.errorf(c, n, err, "%v", err)
	}
	if v.Kind() != types.KindClass {
		return types.Null(), in.errorf(c, n, types.ErrTypeMismatch, "'%s' is not a class, got %s", n.Name, v.Kind())
	}
	args, err := in.evalArgs(ctx, c, n.Args)
	if err != nil {
		return types.Null(), err
	}
	return in.instantiate(ctx, c, n, v.AsClass(), args)
}

// instantiate copies the property defaults into a new instance and runs
// the constructor with soul bound to it.
func (in *Interpreter) instantiate(ctx context.Context, c *scope.Context, site ast.Node, class *types.Class, args []types.Value) (types.Value, error) {
	if len(args) != class.Arity() {
		return types.Null(), in.arityError(c, site, "new "+class.Name, class.Arity(), len(args))
	}

	inst := &types.Instance{Class: class, Props: class.Defaults.Clone()}
	if class.Constructor != nil {
		if _, err := in.callFunction(ctx, c, site, class.Constructor.Bind(inst), args); err != nil {
			return types.Null(), err
		}
	}
	return types.InstanceOf(inst), nil
}

func (in *Interpreter) evalPropAccess(ctx context.Context, c *scope.Context, n *ast.ObjectPropAccess) (types.Value, error) {
	obj, err := in.eval(ctx, c, n.Object)
	if err != nil {
		return types.Null(), err
	}

	switch obj.Kind() {
	case types.KindObject:
		v, _ := obj.AsObject().Get(n.Key)
		return v, nil
	case types.KindInstance:
		v, _ := obj.AsInstance().Lookup(n.Key)
		return v, nil
	}
	return types.Null(), in.errorf(c, n, types.ErrTypeMismatch, "cannot read property '%s' of %s", n.Key, obj.Kind())
}

// evalPropEdit sets a property on the container the object expression
// resolves to. Containers are reached by reference, so the edit is visible
// through the binding that holds them. Yields the updated container.
func (in *Interpreter) evalPropEdit(ctx context.Context, c *scope.Context, n *ast.ObjectPropEdit) (types.Value, error) {
	target, err := in.eval(ctx, c, n.Object)
	if err != nil {
		return types.Null(), err
	}

	var props *types.Object
	switch target.Kind() {
	case types.KindObject:
		props = target.AsObject()
	case types.KindInstance:
		props = target.AsInstance().Props
	default:
		return types.Null(), in.errorf(c, n, types.ErrTypeMismatch, "cannot set property '%s' of %s", n.Key, target.Kind())
	}

	v, err := in.eval(ctx, c, n.Value)
	if err != nil {
		return types.Null(), err
	}

	if op := n.Op.BinaryOf(); op != token.None {
		cur, _ := props.Get(n.Key)
		if v, err = types.BinaryOp(op, cur, v); err != nil {
			return types.Null(), in.errorf(c, n, err, "%v", err)
		}
	}

	props.Set(n.Key, v.Clone())
	return target, nil
}
