// Package vm implements the stack-based virtual machine described in
// spec.md §4.2: a value stack, a call-frame stack, a globals table, and
// the native registry, executing the instruction set bytecode.Chunk
// encodes.
package vm

import (
	"fmt"
	"os"

	"github.com/johnryzon123/Ry2/module"
	"github.com/johnryzon123/Ry2/pkg/bytecode"
	"github.com/johnryzon123/Ry2/value"
)

// frame is a runtime CallFrame per spec.md §3: a chunk, an instruction
// pointer into it, and the stack index where its slot 0 begins.
type frame struct {
	chunk     *bytecode.Chunk
	ip        int
	slotsBase int
	name      string
}

// handler is an attempt/fail landing site: the stack depth to unwind to,
// how many frames to pop back to, and where execution resumes.
type handler struct {
	frameIndex int
	stackDepth int
	landingIP  int
}

// PanicError is returned by Run when the script terminates via an
// unhandled runtime panic (spec.md §7).
type PanicError struct {
	Message string
	Frame   string
	Line    int
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("Runtime panic: %s [at %s:%d]", e.Message, e.Frame, e.Line)
}

// VM executes a single root chunk to completion. It is not safe for
// concurrent use — spec.md §5 mandates single-threaded execution.
type VM struct {
	stack    []value.Value
	frames   []frame
	globals  map[string]value.Value
	handlers []handler
	natives  map[string]bool
	loader   module.Loader
	Trace    bool
}

// New creates a VM with the builtin native modules registered (sys,
// string, file — SPEC_FULL.md §10) and the given module loader for `import`.
func New(loader module.Loader) *VM {
	vm := &VM{
		globals: make(map[string]value.Value),
		natives: make(map[string]bool),
		loader:  loader,
	}
	registerBuiltinNatives(vm)
	return vm
}

// NativeNames returns the set of names registered as natives at VM
// construction time, for the compiler's resolution ladder (spec.md
// §4.1 step 3).
func (vm *VM) NativeNames() map[string]bool {
	out := make(map[string]bool, len(vm.natives))
	for k := range vm.natives {
		out[k] = true
	}
	return out
}

// Globals returns the VM's globals table, for `ry save` to snapshot.
func (vm *VM) Globals() map[string]value.Value {
	return vm.globals
}

func (vm *VM) defineNative(name string, arity int, fn func([]value.Value, *map[string]value.Value) (value.Value, error)) {
	nat := &value.Native{Name: name, Arity: arity, Callable: fn}
	vm.globals[name] = value.NativeValue(nat)
	vm.natives[name] = true
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *frame {
	return &vm.frames[len(vm.frames)-1]
}

// Run executes the root chunk. It returns the script's return value (the
// top of stack when the last frame pops, per RETURN's "if no frames
// remain, halt") or a *PanicError if execution terminated unhandled.
func (vm *VM) Run(root *bytecode.Chunk) (value.Value, error) {
	vm.frames = append(vm.frames, frame{chunk: root, ip: 0, slotsBase: 0, name: "script"})
	vm.push(value.Nil()) // slot 0 sentinel for the script frame

	for {
		f := vm.currentFrame()
		if f.ip >= len(f.chunk.Code) {
			return value.Nil(), nil
		}
		op := bytecode.Opcode(f.chunk.Code[f.ip])
		line := f.chunk.Lines[f.ip]
		f.ip++

		if vm.Trace {
			fmt.Fprintf(os.Stderr, "trace: %-14s stack=%v\n", op, vm.stack)
		}

		done, retVal, err := vm.step(op, f, line)
		if err != nil {
			if _, handled := vm.unwindToHandler(err, line); handled {
				continue
			}
			return value.Nil(), err
		}
		if done {
			return retVal, nil
		}
	}
}

// unwindToHandler attempts to route a runtime error to the nearest
// attempt handler, per spec.md §4.2's "Attempt/panic" paragraph. It
// returns handled=false if no handler exists, in which case the caller
// should propagate the error.
func (vm *VM) unwindToHandler(err error, line int) (value.Value, bool) {
	if len(vm.handlers) == 0 {
		return value.Nil(), false
	}
	h := vm.handlers[len(vm.handlers)-1]
	vm.handlers = vm.handlers[:len(vm.handlers)-1]

	vm.frames = vm.frames[:h.frameIndex+1]
	if len(vm.stack) > h.stackDepth {
		vm.stack = vm.stack[:h.stackDepth]
	}
	msg := ""
	if pe, ok := err.(*PanicError); ok {
		msg = pe.Message
	} else {
		msg = err.Error()
	}
	vm.push(value.String(msg))
	vm.currentFrame().ip = h.landingIP
	return value.Nil(), true
}

func (vm *VM) runtimePanic(line int, format string, args ...interface{}) error {
	return &PanicError{Message: fmt.Sprintf(format, args...), Frame: vm.currentFrame().name, Line: line}
}
