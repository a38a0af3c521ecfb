package bytecode

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/johnryzon123/Ry2/value"
)

// maxConstants is the 8-bit constant-pool ceiling spec.md §3 mandates.
const maxConstants = 256

// Chunk is a compiled code unit: code bytes, parallel debug arrays, and a
// constant pool. One Chunk backs the top-level script or a single
// compiled function.
type Chunk struct {
	Code      []byte
	Lines     []int
	Columns   []int
	Constants []value.Value
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Lines:     make([]int, 0, 64),
		Columns:   make([]int, 0, 64),
		Constants: make([]value.Value, 0, 8),
	}
}

// Emit appends a single byte with its source coordinates.
func (c *Chunk) Emit(b byte, line, col int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
	return len(c.Code) - 1
}

// EmitOp emits an opcode byte.
func (c *Chunk) EmitOp(op Opcode, line, col int) int {
	return c.Emit(byte(op), line, col)
}

// EmitByteOperand emits an opcode followed by a single 1-byte operand.
func (c *Chunk) EmitByteOperand(op Opcode, operand byte, line, col int) int {
	offset := c.EmitOp(op, line, col)
	c.Emit(operand, line, col)
	return offset
}

// AddConstant interns a value into the constant pool, deduping equal
// values via value.Value.Equals, and returns its index. Exceeding the
// 8-bit ceiling is reported to stderr but compilation continues, using
// index 0 — per spec.md §3's explicit degraded-but-running behavior.
func (c *Chunk) AddConstant(v value.Value) byte {
	for i, existing := range c.Constants {
		if existing.Equals(v) {
			return byte(i)
		}
	}
	if len(c.Constants) >= maxConstants {
		fmt.Fprintln(os.Stderr, "Too many constants in one chunk!")
		return 0
	}
	c.Constants = append(c.Constants, v)
	return byte(len(c.Constants) - 1)
}

// EmitConstant emits CONSTANT <idx> for v, adding it to the pool first.
func (c *Chunk) EmitConstant(v value.Value, line, col int) int {
	idx := c.AddConstant(v)
	return c.EmitByteOperand(OpConstant, idx, line, col)
}

// EmitJump writes the opcode plus a 0xFFFF placeholder and returns the
// placeholder's address, to be patched later via PatchJump.
func (c *Chunk) EmitJump(op Opcode, line, col int) int {
	c.EmitOp(op, line, col)
	addr := len(c.Code)
	c.Emit(0xFF, line, col)
	c.Emit(0xFF, line, col)
	return addr
}

// PatchJump rewrites the two placeholder bytes at addr with the offset
// from just past them to the current end of code. Offsets over 65535
// produce a diagnostic but patching still writes the (truncated) value —
// emission must continue per spec.md §4.1.
func (c *Chunk) PatchJump(addr int) {
	jump := len(c.Code) - addr - 2
	if jump > 0xFFFF {
		fmt.Fprintln(os.Stderr, "Jump distance too large to encode in 16 bits!")
	}
	binary.BigEndian.PutUint16(c.Code[addr:addr+2], uint16(jump))
}

// EmitLoop emits LOOP with a backward offset to loopStart.
func (c *Chunk) EmitLoop(loopStart, line, col int) {
	c.EmitOp(OpLoop, line, col)
	offset := len(c.Code) - loopStart + 2
	if offset > 0xFFFF {
		fmt.Fprintln(os.Stderr, "Loop body too large to encode in 16 bits!")
	}
	c.Emit(byte(offset>>8), line, col)
	c.Emit(byte(offset), line, col)
}

// ReadUint16 decodes the big-endian operand at ip, ip+1.
func (c *Chunk) ReadUint16(ip int) int {
	return int(binary.BigEndian.Uint16(c.Code[ip : ip+2]))
}

func (c *Chunk) ConstantCount() int { return len(c.Constants) }

func (c *Chunk) GetConstant(idx byte) value.Value {
	return c.Constants[idx]
}
