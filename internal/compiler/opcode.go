// Package compiler lowers a soul AST into stack bytecode for the VM.
package compiler

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Opcode is a single VM instruction byte. The values are part of the
// bytecode format and must not be renumbered.
type Opcode byte

const (
	// Stack operations
	Constant Opcode = 0x00 // Push constant: Constant u16 index
	Pop      Opcode = 0x01 // Discard top of stack

	// Binary operators: pop b, pop a, push a op b
	Add      Opcode = 0x02
	Subtract Opcode = 0x03
	Multiply Opcode = 0x04
	Divide   Opcode = 0x05
	Power    Opcode = 0x06

	// Unary operators: pop a, push op a
	UnaryPlus  Opcode = 0x07
	UnaryMinus Opcode = 0x08
)

// Definition describes an opcode's name and operand widths in bytes.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	Constant:   {"CONSTANT", []int{2}},
	Pop:        {"POP", nil},
	Add:        {"ADD", nil},
	Subtract:   {"SUB", nil},
	Multiply:   {"MULTIPLY", nil},
	Divide:     {"DIVIDE", nil},
	Power:      {"POWER", nil},
	UnaryPlus:  {"PLUS", nil},
	UnaryMinus: {"MINUS", nil},
}

// Lookup returns the definition of op.
func Lookup(op Opcode) (*Definition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode 0x%02x undefined", byte(op))
	}
	return def, nil
}

// String returns the opcode's mnemonic.
func (op Opcode) String() string {
	if def, ok := definitions[op]; ok {
		return def.Name
	}
	return fmt.Sprintf("Opcode(0x%02x)", byte(op))
}

// Width returns the encoded size of op including its operands.
func (def *Definition) Width() int {
	n := 1
	for _, w := range def.OperandWidths {
		n += w
	}
	return n
}

// Make encodes one instruction. Operands are written big-endian.
// Returns nil for an unknown opcode.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return nil
	}

	ins := make([]byte, def.Width())
	ins[0] = byte(op)

	offset := 1
	for i, o := range operands {
		if i >= len(def.OperandWidths) {
			break
		}
		w := def.OperandWidths[i]
		switch w {
		case 2:
			binary.BigEndian.PutUint16(ins[offset:], uint16(o))
		case 1:
			ins[offset] = byte(o)
		}
		offset += w
	}
	return ins
}

// ReadOperands decodes the operands of def from ins, which starts just
// after the opcode byte. Returns the operands and the bytes read.
func ReadOperands(def *Definition, ins []byte) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0
	for i, w := range def.OperandWidths {
		switch w {
		case 2:
			operands[i] = int(binary.BigEndian.Uint16(ins[offset:]))
		case 1:
			operands[i] = int(ins[offset])
		}
		offset += w
	}
	return operands, offset
}

// Instruction is one decoded instruction.
type Instruction struct {
	Offset   int
	Op       Opcode
	Operands []int
}

// Bytes re-encodes the instruction.
func (in Instruction) Bytes() []byte {
	return Make(in.Op, in.Operands...)
}

// Instructions is an encoded instruction stream.
type Instructions []byte

// Decode splits ins into instructions. It fails on an unknown opcode or a
// truncated operand.
func Decode(ins Instructions) ([]Instruction, error) {
	var out []Instruction
	for i := 0; i < len(ins); {
		op := Opcode(ins[i])
		def, err := Lookup(op)
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", i, err)
		}
		if i+def.Width() > len(ins) {
			return nil, fmt.Errorf("offset %d: truncated %s", i, def.Name)
		}
		operands, n := ReadOperands(def, ins[i+1:])
		out = append(out, Instruction{Offset: i, Op: op, Operands: operands})
		i += 1 + n
	}
	return out, nil
}

// Encode concatenates the encodings of instrs.
func Encode(instrs []Instruction) Instructions {
	var out Instructions
	for _, in := range instrs {
		out = append(out, in.Bytes()...)
	}
	return out
}

// String disassembles the stream one instruction per line:
//
//	0000 CONSTANT 0
//	0003 ADD
func (ins Instructions) String() string {
	var sb strings.Builder
	instrs, err := Decode(ins)
	for _, in := range instrs {
		fmt.Fprintf(&sb, "%04d %s", in.Offset, in.Op)
		for _, o := range in.Operands {
			fmt.Fprintf(&sb, " %d", o)
		}
		sb.WriteByte('\n')
	}
	if err != nil {
		fmt.Fprintf(&sb, "ERROR: %v\n", err)
	}
	return sb.String()
}
