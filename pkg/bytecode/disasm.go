package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable bytecode listing for the chunk.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	if name != "" {
		fmt.Fprintf(&sb, "; === %s ===\n", name)
	}
	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, v := range c.Constants {
			fmt.Fprintf(&sb, ";   [%3d] %s\n", i, v.String())
		}
	}
	sb.WriteString("\n")

	offset := 0
	for offset < len(c.Code) {
		offset = c.disassembleInstruction(&sb, offset)
	}
	return sb.String()
}

func (c *Chunk) disassembleInstruction(sb *strings.Builder, offset int) int {
	op := Opcode(c.Code[offset])
	line := c.Lines[offset]
	col := c.Columns[offset]

	switch op.OperandLen() {
	case 0:
		fmt.Fprintf(sb, "%04d %4d:%-3d %s\n", offset, line, col, op)
		return offset + 1
	case 1:
		operand := c.Code[offset+1]
		extra := ""
		if op == OpConstant || op == OpGetGlobal || op == OpSetGlobal ||
			op == OpDefineGlobal || op == OpGetProperty || op == OpSetProperty ||
			op == OpClass {
			if int(operand) < len(c.Constants) {
				extra = fmt.Sprintf(" ; %s", c.Constants[operand].String())
			}
		}
		fmt.Fprintf(sb, "%04d %4d:%-3d %-16s %4d%s\n", offset, line, col, op, operand, extra)
		return offset + 2
	case 2:
		jump := c.ReadUint16(offset + 1)
		fmt.Fprintf(sb, "%04d %4d:%-3d %-16s %4d\n", offset, line, col, op, jump)
		return offset + 3
	default:
		fmt.Fprintf(sb, "%04d %4d:%-3d %s <unknown operand width>\n", offset, line, col, op)
		return offset + 1
	}
}
