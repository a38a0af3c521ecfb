package compiler

import (
	"strings"

	"github.com/johnryzon123/Ry2/frontend"
	"github.com/johnryzon123/Ry2/pkg/bytecode"
	"github.com/johnryzon123/Ry2/value"
)

func (c *Compiler) compileStmt(s frontend.Stmt) {
	switch st := s.(type) {
	case *frontend.ExpressionStmt:
		c.track(st.Tok)
		c.compileExpressionStmt(st)
	case *frontend.BlockStmt:
		c.track(st.Tok)
		c.beginScope()
		for _, inner := range st.Stmts {
			c.compileStmt(inner)
		}
		c.endScope()
	case *frontend.IfStmt:
		c.compileIf(st)
	case *frontend.WhileStmt:
		c.compileWhile(st)
	case *frontend.ForStmt:
		c.compileFor(st)
	case *frontend.EachStmt:
		c.compileEach(st)
	case *frontend.VarStmt:
		c.compileVar(st)
	case *frontend.ReturnStmt:
		c.track(st.Tok)
		if st.Value != nil {
			c.compileExpr(st.Value)
		} else {
			c.emitOp(bytecode.OpNull)
		}
		c.emitOp(bytecode.OpReturn)
	case *frontend.PanicStmt:
		c.track(st.Tok)
		if st.Message != nil {
			c.compileExpr(st.Message)
		} else {
			c.emitOp(bytecode.OpNull)
		}
		c.emitOp(bytecode.OpPanic)
	case *frontend.ClassStmt:
		c.track(st.Tok)
		className := st.Name
		if c.currentNamespace != "" && !strings.Contains(className, "::") {
			className = c.currentNamespace + "::" + className
		}
		idx := c.addConstant(value.String(className))
		c.emitByteOperand(bytecode.OpClass, idx)
		c.emitByteOperand(bytecode.OpDefineGlobal, idx)
	case *frontend.FunctionStmt:
		c.compileFunction(st)
	case *frontend.ImportStmt:
		c.track(st.Tok)
		c.compileExpr(st.Module)
		c.emitOp(bytecode.OpImport)
	case *frontend.AliasStmt:
		c.track(st.Tok)
		c.compileExpr(st.Value)
		aliasName := st.Name
		if c.currentNamespace != "" && !strings.Contains(aliasName, "::") {
			aliasName = c.currentNamespace + "::" + aliasName
		}
		idx := c.addConstant(value.String(aliasName))
		c.emitByteOperand(bytecode.OpDefineGlobal, idx)
	case *frontend.NamespaceStmt:
		c.track(st.Tok)
		prev := c.currentNamespace
		c.currentNamespace = st.Name
		for _, inner := range st.Body {
			c.compileStmt(inner)
		}
		c.currentNamespace = prev
	case *frontend.StopStmt:
		c.compileStop(st.Tok)
	case *frontend.SkipStmt:
		c.compileSkip(st.Tok)
	case *frontend.AttemptStmt:
		c.compileAttempt(st)
	}
}

// compileExpressionStmt applies the documented POP-skip rule: Assign and
// IndexSet already net to zero stack effect (their SET opcode consumes the
// value it was given rather than leaving it for the statement to discard),
// so adding the usual trailing POP here would discard the wrong slot.
func (c *Compiler) compileExpressionStmt(st *frontend.ExpressionStmt) {
	c.compileExpr(st.Expr)
	switch ex := st.Expr.(type) {
	case *frontend.AssignExpr, *frontend.IndexSetExpr:
		// no trailing POP
	case *frontend.PostfixExpr:
		// a postfix on a non-variable emits nothing, so there is nothing to pop
		if _, ok := ex.Target.(*frontend.VariableExpr); ok {
			c.emitOp(bytecode.OpPop)
		}
	default:
		c.emitOp(bytecode.OpPop)
	}
}

func (c *Compiler) compileIf(st *frontend.IfStmt) {
	c.track(st.Tok)
	c.compileExpr(st.Cond)
	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.compileStmt(st.Then)
	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)
	if st.Else != nil {
		c.compileStmt(st.Else)
	}
	c.patchJump(elseJump)
}

func (c *Compiler) compileWhile(st *frontend.WhileStmt) {
	c.track(st.Tok)
	loopStart := len(c.chunk.Code)
	c.loopStack = append(c.loopStack, LoopContext{StartIP: loopStart, ScopeDepth: c.scopeDepth, Type: LoopWhile})
	c.compileExpr(st.Cond)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.compileStmt(st.Body)
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
	c.popLoop()
}

func (c *Compiler) compileFor(st *frontend.ForStmt) {
	c.track(st.Tok)
	c.beginScope()
	if st.Init != nil {
		c.compileStmt(st.Init)
	}
	loopStart := len(c.chunk.Code)
	c.loopStack = append(c.loopStack, LoopContext{StartIP: loopStart, ScopeDepth: c.scopeDepth, Type: LoopFor})
	exitJump := -1
	if st.Cond != nil {
		c.compileExpr(st.Cond)
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}
	c.compileStmt(st.Body)
	if st.Inc != nil {
		c.compileExpr(st.Inc)
		switch st.Inc.(type) {
		case *frontend.AssignExpr, *frontend.IndexSetExpr:
			// same POP-skip rule as compileExpressionStmt
		default:
			c.emitOp(bytecode.OpPop)
		}
	}
	c.emitLoop(loopStart)
	if exitJump >= 0 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}
	c.popLoop()
	c.endScope()
}

func (c *Compiler) compileEach(st *frontend.EachStmt) {
	c.track(st.Tok)
	c.compileExpr(st.Collection)
	c.emitConstant(value.Number(0))
	c.beginScope()
	c.addLocal("")
	c.addLocal("")
	loopStart := len(c.chunk.Code)
	c.loopStack = append(c.loopStack, LoopContext{StartIP: loopStart, ScopeDepth: c.scopeDepth, Type: LoopEach})
	exitJump := c.emitJump(bytecode.OpForEachNext)
	c.beginScope()
	itemName := st.Id
	if idx := strings.LastIndex(itemName, ":"); idx >= 0 {
		itemName = itemName[idx+1:]
	}
	c.addLocal(itemName)
	c.compileStmt(st.Body)
	c.endScope()
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.endScope()
	// breaks land after the collection/index POPs, which stop already emitted
	c.popLoop()
}

func (c *Compiler) compileVar(st *frontend.VarStmt) {
	c.track(st.Tok)
	if st.Init != nil {
		c.compileExpr(st.Init)
	} else {
		c.emitOp(bytecode.OpNull)
	}
	if c.scopeDepth == 0 {
		globalName := st.Name
		if c.currentNamespace != "" && !strings.Contains(globalName, "::") {
			globalName = c.currentNamespace + "::" + globalName
		}
		idx := c.addConstant(value.String(globalName))
		c.emitByteOperand(bytecode.OpDefineGlobal, idx)
		return
	}
	localName := st.Name
	if idx := strings.LastIndex(localName, ":"); idx >= 0 {
		localName = localName[idx+1:]
	}
	c.addLocal(localName)
}

// popLoop pops the current LoopContext, patching every recorded break jump
// to land here (immediately after the loop's own exit POPs).
func (c *Compiler) popLoop() {
	top := c.loopStack[len(c.loopStack)-1]
	for _, addr := range top.BreakJumps {
		c.patchJump(addr)
	}
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

func (c *Compiler) compileStop(tok frontend.Token) {
	c.track(tok)
	if len(c.loopStack) == 0 {
		c.error(tok, "Cannot use 'stop' outside of a loop.")
		return
	}
	i := len(c.loopStack) - 1
	top := c.loopStack[i]
	for j := len(c.locals) - 1; j >= 0 && c.locals[j].Depth > top.ScopeDepth; j-- {
		c.emitOp(bytecode.OpPop)
	}
	if top.Type == LoopEach {
		c.emitOp(bytecode.OpPop)
		c.emitOp(bytecode.OpPop)
	}
	addr := c.emitJump(bytecode.OpJump)
	c.loopStack[i].BreakJumps = append(c.loopStack[i].BreakJumps, addr)
}

func (c *Compiler) compileSkip(tok frontend.Token) {
	c.track(tok)
	if len(c.loopStack) == 0 {
		c.error(tok, "Cannot use 'skip' outside of a loop.")
		return
	}
	top := c.loopStack[len(c.loopStack)-1]
	for j := len(c.locals) - 1; j >= 0 && c.locals[j].Depth > top.ScopeDepth; j-- {
		c.emitOp(bytecode.OpPop)
	}
	c.emitLoop(top.StartIP)
}

func (c *Compiler) compileAttempt(st *frontend.AttemptStmt) {
	c.track(st.Tok)
	failLand := c.emitJump(bytecode.OpAttempt)
	for _, inner := range st.Body {
		c.compileStmt(inner)
	}
	c.emitOp(bytecode.OpEndAttempt)
	end := c.emitJump(bytecode.OpJump)
	c.patchJump(failLand)
	c.beginScope()
	c.addLocal(st.ErrName)
	for _, inner := range st.FailBody {
		c.compileStmt(inner)
	}
	c.endScope()
	c.patchJump(end)
}

// compileFunction saves/restores the outer chunk and locals state, per
// spec.md §4.1's "fresh locals array" rule (no closures over free
// variables).
func (c *Compiler) compileFunction(st *frontend.FunctionStmt) {
	c.track(st.Tok)
	outerChunk := c.chunk
	outerLocals := c.locals
	outerDepth := c.scopeDepth

	c.chunk = bytecode.NewChunk()
	c.locals = nil
	c.scopeDepth = 0
	c.beginScope()
	c.addLocal("(fn)")
	for _, p := range st.Params {
		c.addLocal(p)
	}
	for _, inner := range st.Body {
		c.compileStmt(inner)
	}
	c.emitOp(bytecode.OpNull)
	c.emitOp(bytecode.OpReturn)
	c.endScope()

	fnChunk := c.chunk
	c.chunk = outerChunk
	c.locals = outerLocals
	c.scopeDepth = outerDepth

	name := st.Name
	if c.currentNamespace != "" && !strings.Contains(name, "::") {
		name = c.currentNamespace + "::" + name
	}
	fn := &value.Function{Name: name, Arity: len(st.Params), Chunk: fnChunk}
	fnIdx := c.chunk.AddConstant(value.FuncValue(fn))
	c.emitByteOperand(bytecode.OpConstant, fnIdx)
	nameIdx := c.addConstant(value.String(name))
	c.emitByteOperand(bytecode.OpDefineGlobal, nameIdx)
}
