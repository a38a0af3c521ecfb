package vm

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/johnryzon123/Ry2/value"
)

var vmStart = time.Now()

// registerBuiltinNatives installs the sys/string/file natives from
// SPEC_FULL.md §10 directly on a fresh VM — they are part of the standard
// library the driver always provides, not behind the dynamic module
// loader.
func registerBuiltinNatives(vm *VM) {
	vm.defineNative("exit", 1, natExit)
	vm.defineNative("clock", 0, natClock)
	vm.defineNative("clear", 0, natClear)
	vm.defineNative("upper", 1, natUpper)
	vm.defineNative("lower", 1, natLower)
	vm.defineNative("substr", 3, natSubstr)
	vm.defineNative("read", 1, natRead)
	vm.defineNative("write", 2, natWrite)
}

// natExit prints the original's success banner and always terminates
// with status 0, ignoring the passed code — preserved verbatim, this is
// documented behavior of the reference implementation, not a bug.
func natExit(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	code := 0
	if len(args) > 0 && args[0].IsNumber() {
		code = int(args[0].AsNumber())
	}
	_ = code
	os.Stdout.WriteString("\x1b[1m\x1b[33m[Ry] Exited Successfully with exit code: " + value.Number(float64(code)).String() + "\x1b[0m\n")
	os.Exit(0)
	return value.Nil(), nil
}

func natClock(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	return value.Number(time.Since(vmStart).Seconds()), nil
}

func natClear(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	name := "clear"
	if runtime.GOOS == "windows" {
		name = "cls"
	}
	cmd := exec.Command(name)
	cmd.Stdout = os.Stdout
	_ = cmd.Run()
	return value.Nil(), nil
}

func natUpper(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	if len(args) < 1 || !args[0].IsString() {
		return value.Nil(), nil
	}
	return value.String(strings.ToUpper(args[0].AsString())), nil
}

func natLower(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	if len(args) < 1 || !args[0].IsString() {
		return value.Nil(), nil
	}
	return value.String(strings.ToLower(args[0].AsString())), nil
}

// natSubstr clamps start/len to the string's bounds rather than
// panicking, and returns an empty string (not nil) on bad input "for
// consistency" per the original.
func natSubstr(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	if len(args) < 3 || !args[0].IsString() || !args[1].IsNumber() || !args[2].IsNumber() {
		return value.String(""), nil
	}
	s := args[0].AsString()
	start := int(args[1].AsNumber())
	length := int(args[2].AsNumber())

	if start < 0 {
		start = 0
	}
	if start >= len(s) {
		return value.String(""), nil
	}
	if start+length > len(s) {
		length = len(s) - start
	}
	if length < 0 {
		length = 0
	}
	return value.String(s[start : start+length]), nil
}

func natRead(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	if len(args) < 1 || !args[0].IsString() {
		return value.Nil(), nil
	}
	data, err := os.ReadFile(args[0].AsString())
	if err != nil {
		return value.Nil(), nil
	}
	return value.String(string(data)), nil
}

func natWrite(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
	if len(args) < 2 || !args[0].IsString() || !args[1].IsString() {
		return value.Bool(false), nil
	}
	if err := os.WriteFile(args[0].AsString(), []byte(args[1].AsString()), 0o644); err != nil {
		return value.Bool(false), nil
	}
	return value.Bool(true), nil
}
