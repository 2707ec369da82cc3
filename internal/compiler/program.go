package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kolkov/soul/internal/token"
	"github.com/kolkov/soul/internal/types"
)

// Bytecode is a compiled program ready for VM execution.
type Bytecode struct {
	Instructions Instructions

	// Constants holds serialized literals, addressed by Constant operands.
	// Int "1", Float "2.0", String "\"hi\"", Char "'a'", Boolean "true",
	// Null "null".
	Constants []string

	// Spans maps the offset of each operator instruction to the source it
	// was compiled from, for runtime error positions.
	Spans map[int]token.Span
}

// Disassemble returns a human-readable listing of the constant pool and
// the instruction stream.
func (b *Bytecode) Disassemble() string {
	var sb strings.Builder

	if len(b.Constants) > 0 {
		sb.WriteString("=== Constants ===\n")
		for i, c := range b.Constants {
			fmt.Fprintf(&sb, "  [%d] %s\n", i, c)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=== Code ===\n")
	instrs, err := Decode(b.Instructions)
	for _, in := range instrs {
		fmt.Fprintf(&sb, "  %04d: %s", in.Offset, in.Op)
		if in.Op == Constant && len(in.Operands) == 1 {
			idx := in.Operands[0]
			if idx < len(b.Constants) {
				fmt.Fprintf(&sb, " [%d] = %s", idx, b.Constants[idx])
			} else {
				fmt.Fprintf(&sb, " [%d]", idx)
			}
		}
		sb.WriteByte('\n')
	}
	if err != nil {
		fmt.Fprintf(&sb, "  ERROR: %v\n", err)
	}
	return sb.String()
}

// ParseConstant converts a serialized constant back to a value.
func ParseConstant(s string) (types.Value, error) {
	switch {
	case s == "null":
		return types.Null(), nil
	case s == "true" || s == "false":
		return types.Bool(s == "true"), nil
	case strings.HasPrefix(s, `"`):
		str, err := strconv.Unquote(s)
		if err != nil {
			return types.Null(), fmt.Errorf("bad string constant %s: %w", s, err)
		}
		return types.Str(str), nil
	case strings.HasPrefix(s, "'"):
		str, err := strconv.Unquote(s)
		if err != nil {
			return types.Null(), fmt.Errorf("bad char constant %s: %w", s, err)
		}
		return types.Char([]rune(str)[0]), nil
	case strings.ContainsAny(s, ".IN"):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Null(), fmt.Errorf("bad float constant %s: %w", s, err)
		}
		return types.Float(f), nil
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return types.Null(), fmt.Errorf("bad int constant %s: %w", s, err)
		}
		return types.Int(n), nil
	}
}
