// Package bytecode defines the instruction set, the compiled code unit
// (Chunk), a text disassembler, and a CBOR on-disk encoding for chunks.
//
// A Chunk is a linear byte buffer of opcodes and inline operands, a
// parallel (line, column) debug array for diagnostics, and a constant
// pool addressed by an 8-bit index. One Chunk corresponds to the
// top-level script or to a single compiled function.
package bytecode
