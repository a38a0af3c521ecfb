// Package compiler lowers the statement tree produced by frontend into
// bytecode.Chunk instructions, per spec.md §4.1.
package compiler

import (
	"fmt"
	"os"
	"strings"

	"github.com/johnryzon123/Ry2/frontend"
	"github.com/johnryzon123/Ry2/pkg/bytecode"
	"github.com/johnryzon123/Ry2/value"
)

// LoopType distinguishes the three loop shapes stop/skip need to handle
// differently (EACH gets two extra POPs on stop).
type LoopType int

const (
	LoopWhile LoopType = iota
	LoopFor
	LoopEach
)

// Local mirrors spec.md §3's Local record: a compile-time slot assignment
// tracked purely by array position, matching the runtime stack slot.
type Local struct {
	Name       string
	Depth      int
	IsCaptured bool
}

// LoopContext mirrors spec.md §3.
type LoopContext struct {
	StartIP    int
	ScopeDepth int
	Type       LoopType
	BreakJumps []int
}

// Compiler is a single-pass visitor over the statement tree. One Compiler
// value is reused across nested function bodies by saving and restoring
// its locals/scopeDepth/chunk around FunctionStmt (see compileFunction).
type Compiler struct {
	chunk            *bytecode.Chunk
	locals           []Local
	scopeDepth       int
	currentNamespace string
	loopStack        []LoopContext
	nativeNames      map[string]bool
	hadError         bool
	currentLine      int
	currentColumn    int
}

// New creates a Compiler. nativeNames is the registered-native-name set
// the resolution ladder in spec.md §4.1 consults at steps 3/4; pass an
// empty (non-nil) map if none are registered yet.
func New(nativeNames map[string]bool) *Compiler {
	if nativeNames == nil {
		nativeNames = map[string]bool{}
	}
	return &Compiler{nativeNames: nativeNames}
}

func (c *Compiler) HadError() bool { return c.hadError }

// Compile lowers a top-level statement tree to a single root Chunk, with
// slot 0 reserved for an unnamed sentinel local (the callee), per
// spec.md §4.1's "Functions" note applied to the script itself.
func Compile(stmts []frontend.Stmt, nativeNames map[string]bool) (*bytecode.Chunk, bool) {
	c := New(nativeNames)
	c.chunk = bytecode.NewChunk()
	c.addLocal("(script)")
	for _, s := range stmts {
		c.compileStmt(s)
	}
	c.emitOp(bytecode.OpReturn)
	return c.chunk, c.hadError
}

func (c *Compiler) error(tok frontend.Token, msg string) {
	c.hadError = true
	fmt.Fprintf(os.Stderr, "Error at line %d, column %d: %s\n", tok.Line, tok.Column, msg)
}

func (c *Compiler) track(tok frontend.Token) {
	c.currentLine = tok.Line
	c.currentColumn = tok.Column
}

// --- emit helpers, grounded on pkg/bytecode/compiler.go's naming ---

func (c *Compiler) emitOp(op bytecode.Opcode) int {
	return c.chunk.EmitOp(op, c.currentLine, c.currentColumn)
}

func (c *Compiler) emitByteOperand(op bytecode.Opcode, operand byte) int {
	return c.chunk.EmitByteOperand(op, operand, c.currentLine, c.currentColumn)
}

func (c *Compiler) emitConstant(v value.Value) int {
	return c.chunk.EmitConstant(v, c.currentLine, c.currentColumn)
}

func (c *Compiler) addConstant(v value.Value) byte {
	return c.chunk.AddConstant(v)
}

func (c *Compiler) emitJump(op bytecode.Opcode) int {
	return c.chunk.EmitJump(op, c.currentLine, c.currentColumn)
}

func (c *Compiler) patchJump(addr int) {
	c.chunk.PatchJump(addr)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.chunk.EmitLoop(loopStart, c.currentLine, c.currentColumn)
}

// --- scopes & locals ---

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) int {
	c.locals = append(c.locals, Local{Name: name, Depth: c.scopeDepth})
	return len(c.locals) - 1
}

func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return i
		}
	}
	return -1
}

func (c *Compiler) isNative(name string) bool {
	return c.nativeNames[name] || strings.HasPrefix(name, "native")
}

// qualifiedGlobalName applies steps 2-5 of spec.md §4.1's read-resolution
// ladder; the write path (compileVariableSet) skips the native-name checks
// (steps 3-4), which is the documented asymmetry.
func (c *Compiler) qualifiedGlobalName(name string, checkNative bool) string {
	if strings.Contains(name, "::") {
		return name
	}
	if checkNative && c.isNative(name) {
		return name
	}
	if c.currentNamespace != "" {
		return c.currentNamespace + "::" + name
	}
	return name
}

func (c *Compiler) compileVariableGet(name string) {
	if slot := c.resolveLocal(name); slot >= 0 {
		c.emitByteOperand(bytecode.OpGetLocal, byte(slot))
		return
	}
	qualified := c.qualifiedGlobalName(name, true)
	idx := c.addConstant(value.String(qualified))
	c.emitByteOperand(bytecode.OpGetGlobal, idx)
}

func (c *Compiler) compileVariableSet(name string) {
	if slot := c.resolveLocal(name); slot >= 0 {
		c.emitByteOperand(bytecode.OpSetLocal, byte(slot))
		return
	}
	qualified := c.qualifiedGlobalName(name, false)
	idx := c.addConstant(value.String(qualified))
	c.emitByteOperand(bytecode.OpSetGlobal, idx)
}
