// Package vm executes soul bytecode.
package vm

import (
	"errors"
	"fmt"

	"github.com/kolkov/soul/internal/compiler"
	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/types"
)

// DefaultStackSize is the operand stack capacity.
const DefaultStackSize = 2048

// ErrStackOverflow is returned when a push exceeds the stack capacity.
var ErrStackOverflow = errors.New("stack overflow")

// Error is a runtime error raised while executing bytecode. Span is the
// source of the failing instruction when the bytecode carries one.
type Error struct {
	Message string
	Offset  int
	Span    token.Span
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds VM configuration options.
type Config struct {
	// StackSize is the operand stack capacity. Zero means DefaultStackSize.
	StackSize int
}

// VM is the soul virtual machine.
type VM struct {
	bytecode  *compiler.Bytecode
	constants []types.Value

	// Value stack (inline, fixed capacity)
	stack []types.Value
	sp    int // Stack pointer (index of next free slot)

	lastPopped types.Value
}

// New creates a VM for the given bytecode with the default stack size.
func New(bc *compiler.Bytecode) *VM {
	return NewWithConfig(bc, Config{})
}

// NewWithConfig creates a VM with the specified configuration.
func NewWithConfig(bc *compiler.Bytecode, config Config) *VM {
	size := config.StackSize
	if size <= 0 {
		size = DefaultStackSize
	}
	return &VM{
		bytecode: bc,
		stack:    make([]types.Value, size),
	}
}

// LastPopped returns the value most recently removed by Pop, which is the
// value of the last top-level expression. Null before anything ran.
func (vm *VM) LastPopped() types.Value {
	return vm.lastPopped
}

// StackTop returns the value on top of the stack, or Null when empty.
func (vm *VM) StackTop() types.Value {
	if vm.sp == 0 {
		return types.Null()
	}
	return vm.stack[vm.sp-1]
}

// Run executes the bytecode from the start.
func (vm *VM) Run() error {
	if err := vm.loadConstants(); err != nil {
		return err
	}
	vm.sp = 0
	vm.lastPopped = types.Null()

	ins := vm.bytecode.Instructions
	for ip := 0; ip < len(ins); ip++ {
		op := compiler.Opcode(ins[ip])

		switch op {
		case compiler.Constant:
			if ip+2 >= len(ins) {
				return vm.errorf(ip, nil, "truncated CONSTANT at offset %d", ip)
			}
			idx := int(ins[ip+1])<<8 | int(ins[ip+2])
			ip += 2
			if idx >= len(vm.constants) {
				return vm.errorf(ip-2, nil, "constant index %d out of range", idx)
			}
			if vm.sp >= len(vm.stack) {
				return vm.errorf(ip-2, ErrStackOverflow, "stack overflow: more than %d values", len(vm.stack))
			}
			vm.push(vm.constants[idx])

		case compiler.Pop:
			if vm.sp == 0 {
				return vm.errorf(ip, nil, "pop from empty stack")
			}
			vm.lastPopped = vm.pop()

		case compiler.Add, compiler.Subtract, compiler.Multiply, compiler.Divide, compiler.Power:
			if vm.sp < 2 {
				return vm.errorf(ip, nil, "%s needs two operands", op)
			}
			r := vm.pop()
			l := vm.pop()
			v, err := types.BinaryOp(compiler.OperatorOf(op), l, r)
			if err != nil {
				return vm.errorf(ip, err, "%v", err)
			}
			vm.push(v)

		case compiler.UnaryPlus, compiler.UnaryMinus:
			if vm.sp < 1 {
				return vm.errorf(ip, nil, "%s needs an operand", op)
			}
			v, err := types.UnaryOp(compiler.OperatorOf(op), vm.pop())
			if err != nil {
				return vm.errorf(ip, err, "%v", err)
			}
			vm.push(v)

		default:
			return vm.errorf(ip, nil, "unknown opcode 0x%02x at offset %d", byte(op), ip)
		}
	}
	return nil
}

func (vm *VM) loadConstants() error {
	if vm.constants != nil {
		return nil
	}
	constants := make([]types.Value, len(vm.bytecode.Constants))
	for i, s := range vm.bytecode.Constants {
		v, err := compiler.ParseConstant(s)
		if err != nil {
			return &Error{Message: fmt.Sprintf("constant %d: %v", i, err), Offset: -1, Err: err}
		}
		constants[i] = v
	}
	vm.constants = constants
	return nil
}

// push pushes a value onto the stack. Only Constant grows the stack, and
// it checks capacity first.
func (vm *VM) push(v types.Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

// pop removes and returns the top value from the stack.
func (vm *VM) pop() types.Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = types.Value{}
	return v
}

func (vm *VM) errorf(ip int, err error, format string, args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Offset:  ip,
		Span:    vm.bytecode.Spans[ip],
		Err:     err,
	}
}
