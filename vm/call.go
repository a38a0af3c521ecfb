package vm

import (
	"github.com/johnryzon123/Ry2/pkg/bytecode"
	"github.com/johnryzon123/Ry2/value"
)

// call implements spec.md §4.2's "Call dispatch" paragraph.
func (vm *VM) call(argc int, line int) error {
	calleeIdx := len(vm.stack) - 1 - argc
	callee := vm.stack[calleeIdx]

	switch {
	case callee.IsFunction():
		fn := callee.AsFunction()
		if argc != fn.Arity {
			return vm.runtimePanic(line, "expected %d arguments but got %d", fn.Arity, argc)
		}
		chunk, ok := fn.Chunk.(*bytecode.Chunk)
		if !ok {
			return vm.runtimePanic(line, "function %s has no compiled body", fn.Name)
		}
		vm.frames = append(vm.frames, frame{chunk: chunk, ip: 0, slotsBase: calleeIdx, name: fn.Name})
		return nil

	case callee.IsNative():
		nat := callee.AsNative()
		if argc != nat.Arity {
			return vm.runtimePanic(line, "expected %d arguments but got %d", nat.Arity, argc)
		}
		args := make([]value.Value, argc)
		copy(args, vm.stack[calleeIdx+1:])
		vm.stack = vm.stack[:calleeIdx]
		result, err := nat.Callable(args, &vm.globals)
		if err != nil {
			return vm.runtimePanic(line, "%s", err.Error())
		}
		vm.push(result)
		return nil

	default:
		return vm.runtimePanic(line, "can only call functions")
	}
}

// doReturn implements RETURN: pop the return value, drop the current
// frame back to its slotsBase, and either halt (no frames remain) or
// resume the caller with the return value pushed.
func (vm *VM) doReturn() (bool, value.Value, error) {
	retVal := vm.pop()
	base := vm.currentFrame().slotsBase
	vm.stack = vm.stack[:base]
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		return true, retVal, nil
	}
	vm.push(retVal)
	return false, value.Nil(), nil
}

// importModule resolves a module by name through the configured Loader
// and registers its natives as globals, qualified with the module name
// per spec.md §4.3.
func (vm *VM) importModule(name string, line int) error {
	if vm.loader == nil {
		return vm.runtimePanic(line, "no module loader configured")
	}
	entries, err := vm.loader.Load(name)
	if err != nil {
		return vm.runtimePanic(line, "cannot import %q: %s", name, err.Error())
	}
	for _, e := range entries {
		qualified := name + "::" + e.Name
		nat := &value.Native{Name: qualified, Arity: e.Arity, Callable: e.Callable}
		vm.globals[qualified] = value.NativeValue(nat)
		vm.natives[qualified] = true
	}
	return nil
}
