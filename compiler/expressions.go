package compiler

import (
	"github.com/johnryzon123/Ry2/frontend"
	"github.com/johnryzon123/Ry2/pkg/bytecode"
	"github.com/johnryzon123/Ry2/value"
)

func (c *Compiler) compileExpr(e frontend.Expr) {
	switch ex := e.(type) {
	case *frontend.MathExpr:
		c.compileMath(ex)
	case *frontend.LogicalExpr:
		c.compileLogical(ex)
	case *frontend.RangeExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Start)
		c.compileExpr(ex.End)
		c.emitOp(bytecode.OpBuildRangeList)
	case *frontend.ListExpr:
		c.track(ex.Tok)
		for _, el := range ex.Elements {
			c.compileExpr(el)
		}
		c.emitByteOperand(bytecode.OpBuildList, byte(len(ex.Elements)))
	case *frontend.MapExpr:
		c.track(ex.Tok)
		for i := range ex.Keys {
			c.compileExpr(ex.Keys[i])
			c.compileExpr(ex.Values[i])
		}
		c.emitByteOperand(bytecode.OpBuildMap, byte(len(ex.Keys)))
	case *frontend.GroupExpr:
		c.compileExpr(ex.Inner)
	case *frontend.VariableExpr:
		c.track(ex.Tok)
		c.compileVariableGet(ex.Name)
	case *frontend.ValueExpr:
		c.track(ex.Tok)
		c.compileLiteral(ex.Value)
	case *frontend.AssignExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Value)
		c.compileVariableSet(ex.Name)
	case *frontend.CallExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Callee)
		for _, a := range ex.Args {
			c.compileExpr(a)
		}
		c.emitByteOperand(bytecode.OpCall, byte(len(ex.Args)))
	case *frontend.GetExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Object)
		idx := c.addConstant(value.String(ex.Name))
		c.emitByteOperand(bytecode.OpGetProperty, idx)
	case *frontend.SetExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Object)
		c.compileExpr(ex.Value)
		idx := c.addConstant(value.String(ex.Name))
		c.emitByteOperand(bytecode.OpSetProperty, idx)
	case *frontend.IndexExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Object)
		c.compileExpr(ex.Index)
		c.emitOp(bytecode.OpGetIndex)
	case *frontend.IndexSetExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Object)
		c.compileExpr(ex.Index)
		c.compileExpr(ex.Value)
		c.emitOp(bytecode.OpSetIndex)
	case *frontend.PrefixExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Right)
		if ex.Op == frontend.MINUS {
			c.emitOp(bytecode.OpNegate)
		} else {
			c.emitOp(bytecode.OpNot)
		}
	case *frontend.PostfixExpr:
		c.compilePostfix(ex)
	case *frontend.ShiftExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Left)
		c.compileExpr(ex.Right)
		if ex.Op == frontend.LESS_LESS {
			c.emitOp(bytecode.OpLeftShift)
		} else {
			c.emitOp(bytecode.OpRightShift)
		}
	case *frontend.BitwiseExpr:
		c.track(ex.Tok)
		c.compileExpr(ex.Left)
		c.compileExpr(ex.Right)
		switch ex.Op {
		case frontend.PIPE:
			c.emitOp(bytecode.OpBitwiseOr)
		case frontend.AMP:
			c.emitOp(bytecode.OpBitwiseAnd)
		case frontend.CARET:
			c.emitOp(bytecode.OpBitwiseXor)
		}
	case *frontend.ThisExpr:
		c.track(ex.Tok)
		c.emitByteOperand(bytecode.OpGetLocal, 0)
	}
}

func (c *Compiler) compileLiteral(v value.Value) {
	switch v.Kind() {
	case value.KindNil:
		c.emitOp(bytecode.OpNull)
	case value.KindBool:
		if v.AsBool() {
			c.emitOp(bytecode.OpTrue)
		} else {
			c.emitOp(bytecode.OpFalse)
		}
	default:
		c.emitConstant(v)
	}
}

// compileMath lowers binary arithmetic and comparison. != >= <= have no
// dedicated opcodes: they lower to EQUAL/LESS/GREATER followed by NOT,
// matching the reference compiler's visitMath.
func (c *Compiler) compileMath(ex *frontend.MathExpr) {
	c.track(ex.Tok)
	c.compileExpr(ex.Left)
	c.compileExpr(ex.Right)
	switch ex.Op {
	case frontend.PLUS:
		c.emitOp(bytecode.OpAdd)
	case frontend.MINUS:
		c.emitOp(bytecode.OpSub)
	case frontend.STAR:
		c.emitOp(bytecode.OpMul)
	case frontend.SLASH:
		c.emitOp(bytecode.OpDiv)
	case frontend.PERCENT:
		c.emitOp(bytecode.OpMod)
	case frontend.EQUAL_EQUAL:
		c.emitOp(bytecode.OpEqual)
	case frontend.BANG_EQUAL:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case frontend.GREATER:
		c.emitOp(bytecode.OpGreater)
	case frontend.GREATER_EQUAL:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case frontend.LESS:
		c.emitOp(bytecode.OpLess)
	case frontend.LESS_EQUAL:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	}
}

func (c *Compiler) compileLogical(ex *frontend.LogicalExpr) {
	c.track(ex.Tok)
	c.compileExpr(ex.Left)
	if ex.Op == frontend.AND {
		endJump := c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
		c.compileExpr(ex.Right)
		c.patchJump(endJump)
		return
	}
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.compileExpr(ex.Right)
	c.patchJump(endJump)
}

// compilePostfix implements `x++`/`x--` on a bare variable as GET, COPY,
// CONSTANT(1), ADD-or-SUB, SET — leaving the pre-increment value on the
// stack as the expression's own result. On any other target it silently
// emits nothing, per spec.md §9's preserved open question.
func (c *Compiler) compilePostfix(ex *frontend.PostfixExpr) {
	v, ok := ex.Target.(*frontend.VariableExpr)
	if !ok {
		return
	}
	c.track(ex.Tok)
	if slot := c.resolveLocal(v.Name); slot >= 0 {
		c.emitByteOperand(bytecode.OpGetLocal, byte(slot))
		c.emitOp(bytecode.OpCopy)
		c.emitConstant(value.Number(1))
		if ex.Op == frontend.PLUS_PLUS {
			c.emitOp(bytecode.OpAdd)
		} else {
			c.emitOp(bytecode.OpSub)
		}
		c.emitByteOperand(bytecode.OpSetLocal, byte(slot))
		return
	}
	qualified := c.qualifiedGlobalName(v.Name, true)
	idx := c.addConstant(value.String(qualified))
	c.emitByteOperand(bytecode.OpGetGlobal, idx)
	c.emitOp(bytecode.OpCopy)
	c.emitConstant(value.Number(1))
	if ex.Op == frontend.PLUS_PLUS {
		c.emitOp(bytecode.OpAdd)
	} else {
		c.emitOp(bytecode.OpSub)
	}
	c.emitByteOperand(bytecode.OpSetGlobal, idx)
}
