package compiler

import (
	"testing"

	"github.com/johnryzon123/Ry2/frontend"
	"github.com/johnryzon123/Ry2/pkg/bytecode"
)

func parse(t *testing.T, src string) []frontend.Stmt {
	t.Helper()
	lx := frontend.NewLexer(src)
	toks := lx.ScanTokens()
	if lx.HadError {
		t.Fatalf("lex error in %q", src)
	}
	p := frontend.NewParser(toks)
	stmts := p.Parse()
	if p.HadError {
		t.Fatalf("parse error in %q", src)
	}
	return stmts
}

func TestCompileEmptyProgramYieldsReturn(t *testing.T) {
	chunk, hadError := Compile(nil, nil)
	if hadError {
		t.Fatalf("unexpected compile error")
	}
	if len(chunk.Code) != 1 || bytecode.Opcode(chunk.Code[0]) != bytecode.OpReturn {
		t.Fatalf("expected [RETURN], got %v", chunk.Code)
	}
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	stmts := parse(t, "var x = 1 + 2 * 3; return x;")
	chunk, hadError := Compile(stmts, nil)
	if hadError {
		t.Fatalf("unexpected compile error")
	}
	if len(chunk.Code) == 0 {
		t.Fatalf("expected non-empty chunk")
	}
	mulAt, addAt := -1, -1
	for i := 0; i < len(chunk.Code); i += bytecode.Opcode(chunk.Code[i]).InstructionLen() {
		switch bytecode.Opcode(chunk.Code[i]) {
		case bytecode.OpMul:
			mulAt = i
		case bytecode.OpAdd:
			addAt = i
		}
	}
	if mulAt < 0 || addAt < 0 || mulAt > addAt {
		t.Fatalf("expected MUL before ADD for 1 + 2 * 3, got MUL at %d, ADD at %d", mulAt, addAt)
	}
}

func TestDebugArraysStayInSync(t *testing.T) {
	stmts := parse(t, "var x = 1 + 2 * 3; return x;")
	chunk, _ := Compile(stmts, nil)
	if len(chunk.Code) != len(chunk.Lines) || len(chunk.Code) != len(chunk.Columns) {
		t.Fatalf("code/lines/columns out of sync: %d/%d/%d", len(chunk.Code), len(chunk.Lines), len(chunk.Columns))
	}
}

func TestLocalsAndScopeDepthRestoredAfterFunction(t *testing.T) {
	stmts := parse(t, "function f(a, b) { return a + b; } return f(1, 2);")
	c := New(nil)
	c.chunk = bytecode.NewChunk()
	c.addLocal("(script)")
	localsBefore := len(c.locals)
	depthBefore := c.scopeDepth
	for _, s := range stmts {
		c.compileStmt(s)
	}
	if len(c.locals) != localsBefore || c.scopeDepth != depthBefore {
		t.Fatalf("locals/scopeDepth not restored: locals %d->%d depth %d->%d",
			localsBefore, len(c.locals), depthBefore, c.scopeDepth)
	}
}

func TestWhileBreakEmitsJump(t *testing.T) {
	stmts := parse(t, "var i = 0; while (i < 10) { if (i == 3) stop; i = i + 1; } return i;")
	chunk, hadError := Compile(stmts, nil)
	if hadError {
		t.Fatalf("unexpected compile error")
	}
	// One JUMP is the if's skip over its (empty) else branch; the other is
	// the stop's break.
	jumps := 0
	for i := 0; i < len(chunk.Code); i++ {
		op := bytecode.Opcode(chunk.Code[i])
		if op == bytecode.OpJump {
			jumps++
		}
		i += op.OperandLen()
	}
	if jumps != 2 {
		t.Fatalf("expected 2 JUMPs (the if's else-skip and the stop's break), got %d", jumps)
	}
}

func TestStopOutsideLoopIsCompileError(t *testing.T) {
	stmts := parse(t, "stop;")
	_, hadError := Compile(stmts, nil)
	if !hadError {
		t.Fatalf("expected hadError for stop outside a loop")
	}
}

func TestNamespaceMangling(t *testing.T) {
	stmts := parse(t, "namespace M { var x = 5; } return M::x;")
	chunk, hadError := Compile(stmts, nil)
	if hadError {
		t.Fatalf("unexpected compile error")
	}

	// Walk the instruction stream and find the string constant each
	// DEFINE_GLOBAL and GET_GLOBAL actually names, so this test catches a
	// mismatch between the key a namespaced `var` is defined under and the
	// key `M::x` is looked up under, not just "M::x" appearing somewhere in
	// the constant pool (it always would, since the GET_GLOBAL reference
	// site adds it regardless of what DEFINE_GLOBAL used).
	var definedNames, lookedUpNames []string
	code := chunk.Code
	for i := 0; i < len(code); {
		op := bytecode.Opcode(code[i])
		switch op {
		case bytecode.OpDefineGlobal:
			definedNames = append(definedNames, chunk.Constants[code[i+1]].AsString())
		case bytecode.OpGetGlobal:
			lookedUpNames = append(lookedUpNames, chunk.Constants[code[i+1]].AsString())
		}
		i += op.InstructionLen()
	}

	if len(definedNames) != 1 || definedNames[0] != "M::x" {
		t.Fatalf("expected DEFINE_GLOBAL \"M::x\", got %v", definedNames)
	}
	if len(lookedUpNames) != 1 || lookedUpNames[0] != "M::x" {
		t.Fatalf("expected GET_GLOBAL \"M::x\", got %v", lookedUpNames)
	}
}

func TestAttemptFailLowering(t *testing.T) {
	stmts := parse(t, `attempt { panic("oops"); return "ok"; } fail(e) { return e; }`)
	chunk, hadError := Compile(stmts, nil)
	if hadError {
		t.Fatalf("unexpected compile error")
	}
	sawAttempt, sawEnd := false, false
	for i := 0; i < len(chunk.Code); i++ {
		op := bytecode.Opcode(chunk.Code[i])
		switch op {
		case bytecode.OpAttempt:
			sawAttempt = true
		case bytecode.OpEndAttempt:
			sawEnd = true
		}
		i += op.OperandLen()
	}
	if !sawAttempt || !sawEnd {
		t.Fatalf("expected ATTEMPT and END_ATTEMPT in compiled code")
	}
}

func TestGlobalVarDefineAtDepthZero(t *testing.T) {
	stmts := parse(t, "var x = 5;")
	chunk, hadError := Compile(stmts, nil)
	if hadError {
		t.Fatalf("unexpected compile error")
	}
	lastOp := bytecode.Opcode(chunk.Code[len(chunk.Code)-3])
	if lastOp != bytecode.OpDefineGlobal {
		t.Fatalf("expected DEFINE_GLOBAL before final RETURN, code=%v", chunk.Code)
	}
}
