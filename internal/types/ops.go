package types

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kolkov/soul/internal/token"
)

// Operator errors. Executors wrap them with the span of the failing node.
var (
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrDivisionByZero = errors.New("division by zero")
	ErrIndexRange     = errors.New("index out of bounds")
	ErrTooLarge       = errors.New("result too large")
)

func mismatch(op token.Kind, a, b Value) error {
	return fmt.Errorf("%w: cannot apply '%s' to %s and %s", ErrTypeMismatch, op, a.kind, b.kind)
}

// BinaryOp applies an arithmetic or comparison operator.
// The logical operators short-circuit and are handled by the executors.
func BinaryOp(op token.Kind, a, b Value) (Value, error) {
	switch op {
	case token.DoubleEquals:
		return Bool(Equal(a, b)), nil
	case token.NotEquals:
		return Bool(!Equal(a, b)), nil
	case token.LessThan, token.LessThanEquals, token.GreaterThan, token.GreaterThanEquals:
		return compareOp(op, a, b)
	}

	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return intOp(op, a.num, b.num)
		}
		return floatOp(op, a.AsFloat(), b.AsFloat())
	}

	switch a.kind {
	case KindString, KindChar:
		return textOp(op, a, b)
	case KindArray:
		return arrayOp(op, a, b)
	case KindInt:
		if op == token.Multiply && b.kind == KindString {
			return repeat(b.str, a.num)
		}
	}
	return Value{}, mismatch(op, a, b)
}

func intOp(op token.Kind, a, b int64) (Value, error) {
	switch op {
	case token.Plus:
		return Int(a + b), nil
	case token.Minus:
		return Int(a - b), nil
	case token.Multiply:
		return Int(a * b), nil
	case token.Divide:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Int(a / b), nil
	case token.Modulo:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Int(a % b), nil
	case token.Power:
		if b < 0 {
			return Float(math.Pow(float64(a), float64(b))), nil
		}
		return Int(ipow(a, b)), nil
	}
	return Value{}, fmt.Errorf("%w: unknown operator '%s'", ErrTypeMismatch, op)
}

// ipow computes a^b for b >= 0 by repeated squaring.
func ipow(a, b int64) int64 {
	result := int64(1)
	for b > 0 {
		if b&1 == 1 {
			result *= a
		}
		a *= a
		b >>= 1
	}
	return result
}

func floatOp(op token.Kind, a, b float64) (Value, error) {
	switch op {
	case token.Plus:
		return Float(a + b), nil
	case token.Minus:
		return Float(a - b), nil
	case token.Multiply:
		return Float(a * b), nil
	case token.Divide:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Float(a / b), nil
	case token.Modulo:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Float(math.Mod(a, b)), nil
	case token.Power:
		return Float(math.Pow(a, b)), nil
	}
	return Value{}, fmt.Errorf("%w: unknown operator '%s'", ErrTypeMismatch, op)
}

// textOp handles strings and chars on the left: concatenation and repetition.
func textOp(op token.Kind, a, b Value) (Value, error) {
	switch op {
	case token.Plus:
		if b.kind == KindString || b.kind == KindChar {
			return Str(a.String() + b.String()), nil
		}
	case token.Multiply:
		if a.kind == KindString && b.kind == KindInt {
			return repeat(a.str, b.num)
		}
	}
	return Value{}, mismatch(op, a, b)
}

// MaxStringLen bounds the length of a string built by repetition.
const MaxStringLen = 1 << 30

func repeat(s string, n int64) (Value, error) {
	if n < 0 {
		return Value{}, fmt.Errorf("%w: negative repeat count %d", ErrTypeMismatch, n)
	}
	if len(s) > 0 && n > MaxStringLen/int64(len(s)) {
		return Value{}, fmt.Errorf("%w: repeating %d bytes %d times", ErrTooLarge, len(s), n)
	}
	return Str(strings.Repeat(s, int(n))), nil
}

// arrayOp implements the array operators. Results are new arrays; the
// operands are never modified.
//
//	array + value   append
//	array * array   concatenate
//	array - int     remove at index
//	array / int     element at index
func arrayOp(op token.Kind, a, b Value) (Value, error) {
	elems := a.AsArray().Elems

	switch op {
	case token.Plus:
		out := make([]Value, 0, len(elems)+1)
		out = append(out, a.Clone().AsArray().Elems...)
		return NewArray(append(out, b.Clone())), nil

	case token.Multiply:
		if b.kind != KindArray {
			break
		}
		out := append(a.Clone().AsArray().Elems, b.Clone().AsArray().Elems...)
		return NewArray(out), nil

	case token.Minus, token.Divide:
		if b.kind != KindInt {
			break
		}
		i := b.num
		if i < 0 || i >= int64(len(elems)) {
			return Value{}, fmt.Errorf("%w: index %d, length %d", ErrIndexRange, i, len(elems))
		}
		if op == token.Divide {
			return elems[i].Clone(), nil
		}
		out := a.Clone().AsArray().Elems
		return NewArray(append(out[:i], out[i+1:]...)), nil
	}
	return Value{}, mismatch(op, a, b)
}

func compareOp(op token.Kind, a, b Value) (Value, error) {
	c, err := Compare(a, b)
	if err != nil {
		return Value{}, mismatch(op, a, b)
	}
	switch op {
	case token.LessThan:
		return Bool(c < 0), nil
	case token.LessThanEquals:
		return Bool(c <= 0), nil
	case token.GreaterThan:
		return Bool(c > 0), nil
	default:
		return Bool(c >= 0), nil
	}
}

// Compare orders two numbers, two strings or two chars.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func Compare(a, b Value) (int, error) {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return cmp.Compare(a.num, b.num), nil
	case a.IsNumber() && b.IsNumber():
		return cmp.Compare(a.AsFloat(), b.AsFloat()), nil
	case a.kind == KindString && b.kind == KindString:
		return strings.Compare(a.str, b.str), nil
	case a.kind == KindChar && b.kind == KindChar:
		return cmp.Compare(a.num, b.num), nil
	}
	return 0, fmt.Errorf("%w: cannot order %s and %s", ErrTypeMismatch, a.kind, b.kind)
}

// UnaryOp applies unary + or - to a number.
func UnaryOp(op token.Kind, v Value) (Value, error) {
	switch {
	case v.kind == KindInt && op == token.Minus:
		return Int(-v.num), nil
	case v.kind == KindFloat && op == token.Minus:
		return Float(-v.flt), nil
	case v.IsNumber() && op == token.Plus:
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: cannot apply unary '%s' to %s", ErrTypeMismatch, op, v.kind)
}
