package vm

import (
	"github.com/johnryzon123/Ry2/pkg/bytecode"
	"github.com/johnryzon123/Ry2/value"
)

// step executes a single decoded instruction against the current frame.
// It returns done=true with the script's return value once the last
// frame's RETURN pops the frame stack empty, per spec.md §4.2's RETURN
// semantics ("if no frames remain, halt").
func (vm *VM) step(op bytecode.Opcode, f *frame, line int) (bool, value.Value, error) {
	switch op {
	case bytecode.OpConstant:
		idx := f.chunk.Code[f.ip]
		f.ip++
		vm.push(f.chunk.GetConstant(idx))

	case bytecode.OpNull:
		vm.push(value.Nil())
	case bytecode.OpTrue:
		vm.push(value.Bool(true))
	case bytecode.OpFalse:
		vm.push(value.Bool(false))

	case bytecode.OpPop:
		vm.pop()
	case bytecode.OpCopy:
		vm.push(vm.peek(0))

	case bytecode.OpAdd:
		b, a := vm.pop(), vm.pop()
		vm.push(a.Add(b))
	case bytecode.OpSub:
		b, a := vm.pop(), vm.pop()
		vm.push(a.Sub(b))
	case bytecode.OpMul:
		b, a := vm.pop(), vm.pop()
		vm.push(a.Mul(b))
	case bytecode.OpDiv:
		b, a := vm.pop(), vm.pop()
		res, ok := a.Div(b)
		if !ok {
			return false, value.Nil(), vm.runtimePanic(line, "operands of '/' must be numbers")
		}
		vm.push(res)
	case bytecode.OpMod:
		b, a := vm.pop(), vm.pop()
		res, ok := a.Mod(b)
		if !ok {
			return false, value.Nil(), vm.runtimePanic(line, "operands of '%%' must be numbers")
		}
		vm.push(res)

	case bytecode.OpNegate:
		res, ok := vm.pop().Negate()
		if !ok {
			return false, value.Nil(), vm.runtimePanic(line, "operand of unary '-' must be a number")
		}
		vm.push(res)
	case bytecode.OpNot:
		vm.push(vm.pop().Not())

	case bytecode.OpEqual:
		b, a := vm.pop(), vm.pop()
		vm.push(value.Bool(a.Equals(b)))
	case bytecode.OpGreater:
		b, a := vm.pop(), vm.pop()
		vm.push(a.Greater(b))
	case bytecode.OpLess:
		b, a := vm.pop(), vm.pop()
		vm.push(a.Less(b))

	case bytecode.OpBitwiseAnd:
		if err := vm.bitwiseOp(line, value.Value.BitwiseAnd); err != nil {
			return false, value.Nil(), err
		}
	case bytecode.OpBitwiseOr:
		if err := vm.bitwiseOp(line, value.Value.BitwiseOr); err != nil {
			return false, value.Nil(), err
		}
	case bytecode.OpBitwiseXor:
		if err := vm.bitwiseOp(line, value.Value.BitwiseXor); err != nil {
			return false, value.Nil(), err
		}
	case bytecode.OpLeftShift:
		if err := vm.bitwiseOp(line, value.Value.LeftShift); err != nil {
			return false, value.Nil(), err
		}
	case bytecode.OpRightShift:
		if err := vm.bitwiseOp(line, value.Value.RightShift); err != nil {
			return false, value.Nil(), err
		}

	case bytecode.OpDefineGlobal:
		name := f.chunk.GetConstant(f.chunk.Code[f.ip]).AsString()
		f.ip++
		vm.globals[name] = vm.pop()

	case bytecode.OpGetGlobal:
		name := f.chunk.GetConstant(f.chunk.Code[f.ip]).AsString()
		f.ip++
		v, ok := vm.globals[name]
		if !ok {
			return false, value.Nil(), vm.runtimePanic(line, "undefined global '%s'", name)
		}
		vm.push(v)

	case bytecode.OpSetGlobal:
		name := f.chunk.GetConstant(f.chunk.Code[f.ip]).AsString()
		f.ip++
		v := vm.pop()
		if _, ok := vm.globals[name]; !ok {
			return false, value.Nil(), vm.runtimePanic(line, "undefined global '%s'", name)
		}
		vm.globals[name] = v

	case bytecode.OpGetLocal:
		slot := f.chunk.Code[f.ip]
		f.ip++
		vm.push(vm.stack[f.slotsBase+int(slot)])

	case bytecode.OpSetLocal:
		slot := f.chunk.Code[f.ip]
		f.ip++
		vm.stack[f.slotsBase+int(slot)] = vm.pop()

	case bytecode.OpJump:
		addr := f.ip
		offset := f.chunk.ReadUint16(addr)
		f.ip = addr + 2 + offset

	case bytecode.OpJumpIfFalse:
		addr := f.ip
		offset := f.chunk.ReadUint16(addr)
		f.ip = addr + 2
		if !vm.peek(0).IsTruthy() {
			f.ip = addr + 2 + offset
		}

	case bytecode.OpLoop:
		addr := f.ip
		offset := f.chunk.ReadUint16(addr)
		f.ip = addr + 2 - offset

	case bytecode.OpCall:
		argc := int(f.chunk.Code[f.ip])
		f.ip++
		if err := vm.call(argc, line); err != nil {
			return false, value.Nil(), err
		}

	case bytecode.OpReturn:
		return vm.doReturn()

	case bytecode.OpBuildList:
		count := int(f.chunk.Code[f.ip])
		f.ip++
		items := make([]value.Value, count)
		for i := count - 1; i >= 0; i-- {
			items[i] = vm.pop()
		}
		vm.push(value.ListValue(value.NewList(items...)))

	case bytecode.OpBuildMap:
		pairs := int(f.chunk.Code[f.ip])
		f.ip++
		m := value.NewMap()
		keys := make([]value.Value, pairs)
		vals := make([]value.Value, pairs)
		for i := pairs - 1; i >= 0; i-- {
			vals[i] = vm.pop()
			keys[i] = vm.pop()
		}
		for i := 0; i < pairs; i++ {
			m.Set(keys[i], vals[i])
		}
		vm.push(value.MapValue(m))

	case bytecode.OpBuildRangeList:
		end := vm.pop()
		start := vm.pop()
		var items []value.Value
		for n := start.AsNumber(); n < end.AsNumber(); n++ {
			items = append(items, value.Number(n))
		}
		vm.push(value.ListValue(value.NewList(items...)))

	case bytecode.OpGetIndex:
		idx := vm.pop()
		obj := vm.pop()
		res, err := vm.getIndex(obj, idx, line)
		if err != nil {
			return false, value.Nil(), err
		}
		vm.push(res)

	case bytecode.OpSetIndex:
		val := vm.pop()
		idx := vm.pop()
		obj := vm.pop()
		if err := vm.setIndex(obj, idx, val, line); err != nil {
			return false, value.Nil(), err
		}

	case bytecode.OpGetProperty:
		name := f.chunk.GetConstant(f.chunk.Code[f.ip]).AsString()
		f.ip++
		obj := vm.pop()
		if !obj.IsInstance() {
			return false, value.Nil(), vm.runtimePanic(line, "only instances have properties")
		}
		v, ok := obj.AsInstance().Fields[name]
		if !ok {
			v = value.Nil()
		}
		vm.push(v)

	case bytecode.OpSetProperty:
		name := f.chunk.GetConstant(f.chunk.Code[f.ip]).AsString()
		f.ip++
		val := vm.pop()
		obj := vm.pop()
		if !obj.IsInstance() {
			return false, value.Nil(), vm.runtimePanic(line, "only instances have properties")
		}
		obj.AsInstance().Fields[name] = val
		vm.push(val)

	case bytecode.OpClass:
		name := f.chunk.GetConstant(f.chunk.Code[f.ip]).AsString()
		f.ip++
		vm.push(value.InstanceValue(value.NewInstance(name)))

	case bytecode.OpImport:
		name := vm.pop().AsString()
		if err := vm.importModule(name, line); err != nil {
			return false, value.Nil(), err
		}

	case bytecode.OpAttempt:
		addr := f.ip
		offset := f.chunk.ReadUint16(addr)
		f.ip = addr + 2
		vm.handlers = append(vm.handlers, handler{
			frameIndex: len(vm.frames) - 1,
			stackDepth: len(vm.stack),
			landingIP:  f.ip + offset,
		})

	case bytecode.OpEndAttempt:
		if len(vm.handlers) > 0 {
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
		}

	case bytecode.OpForEachNext:
		addr := f.ip
		offset := f.chunk.ReadUint16(addr)
		f.ip = addr + 2
		idxVal := vm.peek(0)
		collVal := vm.peek(1)
		items := collVal.AsList().Items
		i := int(idxVal.AsNumber())
		if i >= len(items) {
			f.ip = addr + 2 + offset
			break
		}
		vm.stack[len(vm.stack)-1] = value.Number(float64(i + 1))
		vm.push(items[i])

	case bytecode.OpPanic:
		msg := vm.pop()
		return false, value.Nil(), vm.runtimePanic(line, "%s", msg.String())

	default:
		return false, value.Nil(), vm.runtimePanic(line, "unknown opcode %v", op)
	}
	return false, value.Nil(), nil
}

func (vm *VM) bitwiseOp(line int, op func(value.Value, value.Value) (value.Value, bool)) error {
	b, a := vm.pop(), vm.pop()
	res, ok := op(a, b)
	if !ok {
		return vm.runtimePanic(line, "bitwise operands must be numbers")
	}
	vm.push(res)
	return nil
}

func (vm *VM) getIndex(obj, idx value.Value, line int) (value.Value, error) {
	switch {
	case obj.IsList():
		items := obj.AsList().Items
		i := int(idx.AsNumber())
		if i < 0 || i >= len(items) {
			return value.Nil(), vm.runtimePanic(line, "list index out of range")
		}
		return items[i], nil
	case obj.IsMap():
		v, ok := obj.AsMap().Get(idx)
		if !ok {
			return value.Nil(), nil
		}
		return v, nil
	case obj.IsString():
		s := obj.AsString()
		i := int(idx.AsNumber())
		if i < 0 || i >= len(s) {
			return value.Nil(), vm.runtimePanic(line, "string index out of range")
		}
		return value.String(string(s[i])), nil
	default:
		return value.Nil(), vm.runtimePanic(line, "cannot index a %s", obj.Kind())
	}
}

func (vm *VM) setIndex(obj, idx, val value.Value, line int) error {
	switch {
	case obj.IsList():
		items := obj.AsList()
		i := int(idx.AsNumber())
		if i < 0 || i >= len(items.Items) {
			return vm.runtimePanic(line, "list index out of range")
		}
		items.Items[i] = val
		return nil
	case obj.IsMap():
		obj.AsMap().Set(idx, val)
		return nil
	default:
		return vm.runtimePanic(line, "cannot index-assign a %s", obj.Kind())
	}
}
