// Package types defines runtime value types for soul.
package types

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kolkov/soul/internal/ast"
	"github.com/kolkov/soul/internal/token"
)

// Kind represents the type of a soul value.
type Kind uint8

const (
	KindNull     Kind = iota // null
	KindInt                  // 64-bit integer
	KindFloat                // 64-bit float
	KindString               // string
	KindChar                 // single character
	KindBool                 // boolean
	KindArray                // ordered list of values
	KindObject               // insertion-ordered key/value map
	KindFunction             // user function or bound method
	KindClass                // class definition
	KindInstance             // class instance
	KindBuiltin              // native function
)

var kindNames = [...]string{
	KindNull:     "null",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindChar:     "char",
	KindBool:     "boolean",
	KindArray:    "array",
	KindObject:   "object",
	KindFunction: "function",
	KindClass:    "class",
	KindInstance: "instance",
	KindBuiltin:  "builtin",
}

// String returns the name of the kind as user code sees it.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ScopeID identifies a scope record in the executor's scope arena.
type ScopeID uint32

// Value represents a soul runtime value.
// Uses tagged union pattern: scalars live inline, containers and callables
// behind ref.
type Value struct {
	kind Kind
	num  int64   // Int, Char (as rune), Bool (0 or 1)
	flt  float64 // Float
	str  string  // String
	ref  any     // *Array, *Object, *Function, *Class, *Instance, *Builtin
}

// Array is the backing store of an array value.
type Array struct {
	Elems []Value
}

// Function is a user-defined function, possibly bound to an instance.
type Function struct {
	Name       string
	Params     []string
	Body       ast.Node
	AutoReturn bool
	Scope      ScopeID   // Scope the function was defined in
	Self       *Instance // Instance bound as soul, nil for plain functions
}

// Bind returns a copy of f with soul bound to inst.
func (f *Function) Bind(inst *Instance) *Function {
	bound := *f
	bound.Self = inst
	return &bound
}

// Class is a class definition. Property defaults are evaluated once when
// the class is defined.
type Class struct {
	Name        string
	Defaults    *Object
	Methods     map[string]*Function
	Constructor *Function // nil if the class has none
}

// Arity returns the number of arguments new expects.
func (c *Class) Arity() int {
	if c.Constructor == nil {
		return 0
	}
	return len(c.Constructor.Params)
}

// Instance is an object created by new. Instances are reference values:
// every binding shares the same property map.
type Instance struct {
	Class *Class
	Props *Object
}

// Lookup returns a property, falling back to a method bound to inst.
func (inst *Instance) Lookup(key string) (Value, bool) {
	if v, ok := inst.Props.Get(key); ok {
		return v, true
	}
	if m, ok := inst.Class.Methods[key]; ok {
		return Func(m.Bind(inst)), true
	}
	return Null(), false
}

// Builtin is a native function with a fixed arity.
type Builtin struct {
	Name  string
	Arity int
	Fn    func(args []Value) (Value, error)
}

// Constructors

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Int creates an integer value.
func Int(n int64) Value {
	return Value{kind: KindInt, num: n}
}

// Float creates a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, flt: f}
}

// Str creates a string value.
func Str(s string) Value {
	return Value{kind: KindString, str: s}
}

// Char creates a character value.
func Char(r rune) Value {
	return Value{kind: KindChar, num: int64(r)}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool}
}

// NewArray creates an array value holding elems. The slice is not copied.
func NewArray(elems []Value) Value {
	return Value{kind: KindArray, ref: &Array{Elems: elems}}
}

// ObjectOf wraps obj in a value.
func ObjectOf(obj *Object) Value {
	return Value{kind: KindObject, ref: obj}
}

// Func wraps a user function in a value.
func Func(f *Function) Value {
	return Value{kind: KindFunction, ref: f}
}

// ClassOf wraps a class in a value.
func ClassOf(c *Class) Value {
	return Value{kind: KindClass, ref: c}
}

// InstanceOf wraps an instance in a value.
func InstanceOf(inst *Instance) Value {
	return Value{kind: KindInstance, ref: inst}
}

// NativeOf wraps a builtin in a value.
func NativeOf(b *Builtin) Value {
	return Value{kind: KindBuiltin, ref: b}
}

// FromLiteral converts a token literal to a value.
func FromLiteral(lit token.Literal) Value {
	switch lit.Kind {
	case token.LitInt:
		return Int(lit.Int)
	case token.LitFloat:
		return Float(lit.Float)
	case token.LitString:
		return Str(lit.Str)
	case token.LitChar:
		return Char(lit.Char)
	case token.LitBool:
		return Bool(lit.Bool)
	default:
		return Null()
	}
}

// Accessors

// Kind returns the value's type.
func (v Value) Kind() Kind { return v.kind }

// IsNull returns true if the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber returns true for Int and Float values.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsInt returns the integer held by an Int, Char or Bool value.
func (v Value) AsInt() int64 { return v.num }

// AsFloat returns the numeric value as a float64.
func (v Value) AsFloat() float64 {
	if v.kind == KindFloat {
		return v.flt
	}
	return float64(v.num)
}

// AsStr returns the string held by a String value.
func (v Value) AsStr() string { return v.str }

// AsChar returns the rune held by a Char value.
func (v Value) AsChar() rune { return rune(v.num) }

// AsBool returns the flag held by a Bool value.
func (v Value) AsBool() bool { return v.num != 0 }

// AsArray returns the backing array, or nil.
func (v Value) AsArray() *Array {
	a, _ := v.ref.(*Array)
	return a
}

// AsObject returns the backing object, or nil.
func (v Value) AsObject() *Object {
	o, _ := v.ref.(*Object)
	return o
}

// AsFunction returns the function, or nil.
func (v Value) AsFunction() *Function {
	f, _ := v.ref.(*Function)
	return f
}

// AsClass returns the class, or nil.
func (v Value) AsClass() *Class {
	c, _ := v.ref.(*Class)
	return c
}

// AsInstance returns the instance, or nil.
func (v Value) AsInstance() *Instance {
	i, _ := v.ref.(*Instance)
	return i
}

// AsBuiltin returns the builtin, or nil.
func (v Value) AsBuiltin() *Builtin {
	b, _ := v.ref.(*Builtin)
	return b
}

// Truthy reports whether the value counts as true in a condition.
// Zero numbers and chars, empty strings and containers, false and null
// are false; callables and instances are always true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindInt, KindChar, KindBool:
		return v.num != 0
	case KindFloat:
		return v.flt != 0
	case KindString:
		return v.str != ""
	case KindArray:
		return len(v.AsArray().Elems) > 0
	case KindObject:
		return v.AsObject().Len() > 0
	default:
		return true
	}
}

// Clone returns a deep copy of arrays and objects. Other values are
// returned unchanged; instances and callables are shared.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		src := v.AsArray().Elems
		elems := make([]Value, len(src))
		for i, e := range src {
			elems[i] = e.Clone()
		}
		return NewArray(elems)
	case KindObject:
		return ObjectOf(v.AsObject().Clone())
	default:
		return v
	}
}

// Equal reports deep equality. Ints and floats compare numerically;
// callables, classes and instances compare by identity.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.num == b.num
		}
		return a.AsFloat() == b.AsFloat()
	}
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindChar, KindBool:
		return a.num == b.num
	case KindArray:
		x, y := a.AsArray().Elems, b.AsArray().Elems
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return a.AsObject().Equal(b.AsObject())
	default:
		return a.ref == b.ref
	}
}

// String renders the value the way print shows it. Strings and chars
// render raw at the top level and quoted inside containers.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindChar:
		return string(rune(v.num))
	default:
		var sb strings.Builder
		v.render(&sb, nil)
		return sb.String()
	}
}

// Repr renders the value in source form.
func (v Value) Repr() string {
	var sb strings.Builder
	v.render(&sb, nil)
	return sb.String()
}

// render writes v to sb. path holds the instances being rendered above v;
// an instance that reaches itself renders as "Name {...}".
func (v Value) render(sb *strings.Builder, path []*Instance) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.num, 10))
	case KindFloat:
		sb.WriteString(token.FormatFloat(v.flt))
	case KindString:
		sb.WriteString(strconv.Quote(v.str))
	case KindChar:
		sb.WriteString(strconv.QuoteRune(rune(v.num)))
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.num != 0))
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.AsArray().Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.render(sb, path)
		}
		sb.WriteByte(']')
	case KindObject:
		v.AsObject().render(sb, path)
	case KindFunction:
		f := v.AsFunction()
		if f.Name == "" {
			sb.WriteString("<function>")
		} else {
			sb.WriteString("<function " + f.Name + ">")
		}
	case KindClass:
		sb.WriteString("<class " + v.AsClass().Name + ">")
	case KindInstance:
		inst := v.AsInstance()
		sb.WriteString(inst.Class.Name)
		sb.WriteByte(' ')
		if slices.Contains(path, inst) {
			sb.WriteString("{...}")
			return
		}
		inst.Props.render(sb, append(path, inst))
	case KindBuiltin:
		sb.WriteString("<builtin " + v.AsBuiltin().Name + ">")
	}
}
