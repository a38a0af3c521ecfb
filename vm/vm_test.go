package vm

import (
	"testing"

	"github.com/johnryzon123/Ry2/compiler"
	"github.com/johnryzon123/Ry2/frontend"
	"github.com/johnryzon123/Ry2/module"
	"github.com/johnryzon123/Ry2/value"
)

func runScript(t *testing.T, src string) value.Value {
	t.Helper()
	lx := frontend.NewLexer(src)
	toks := lx.ScanTokens()
	if lx.HadError {
		t.Fatalf("lex error")
	}
	p := frontend.NewParser(toks)
	stmts := p.Parse()
	if p.HadError {
		t.Fatalf("parse error")
	}
	vm := New(module.NewStaticLoader())
	chunk, hadError := compiler.Compile(stmts, vm.NativeNames())
	if hadError {
		t.Fatalf("compile error")
	}
	result, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return result
}

func TestArithmetic(t *testing.T) {
	got := runScript(t, "var x = 1 + 2 * 3; return x;")
	if !got.IsNumber() || got.AsNumber() != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestStringConcatOnMixedAdd(t *testing.T) {
	got := runScript(t, `return 1 + "a";`)
	if !got.IsString() || got.AsString() != "1a" {
		t.Fatalf("expected %q, got %v", "1a", got)
	}
}

func TestWhileBreak(t *testing.T) {
	got := runScript(t, "var i = 0; while (i < 10) { if (i == 3) stop; i = i + 1; } return i;")
	if !got.IsNumber() || got.AsNumber() != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}

func TestEachOverRange(t *testing.T) {
	got := runScript(t, "var s = 0; each n in 1..4 { s = s + n; } return s;")
	if !got.IsNumber() || got.AsNumber() != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
}

func TestAttemptCatchesPanic(t *testing.T) {
	got := runScript(t, `attempt { panic("oops"); return "ok"; } fail(e) { return e; }`)
	if !got.IsString() || got.AsString() != "oops" {
		t.Fatalf("expected %q, got %v", "oops", got)
	}
}

func TestNamespaceMangling(t *testing.T) {
	got := runScript(t, "namespace M { var x = 5; } return M::x;")
	if !got.IsNumber() || got.AsNumber() != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestFunctionCallAndArity(t *testing.T) {
	got := runScript(t, "function add(a, b) { return a + b; } return add(3, 4);")
	if !got.IsNumber() || got.AsNumber() != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestArityMismatchPanics(t *testing.T) {
	lx := frontend.NewLexer("function add(a, b) { return a + b; } return add(3);")
	toks := lx.ScanTokens()
	p := frontend.NewParser(toks)
	stmts := p.Parse()
	vm := New(module.NewStaticLoader())
	chunk, _ := compiler.Compile(stmts, vm.NativeNames())
	_, err := vm.Run(chunk)
	if err == nil {
		t.Fatalf("expected a runtime panic on arity mismatch")
	}
}

func TestUndefinedGlobalPanics(t *testing.T) {
	lx := frontend.NewLexer("return undefinedThing;")
	toks := lx.ScanTokens()
	p := frontend.NewParser(toks)
	stmts := p.Parse()
	vm := New(module.NewStaticLoader())
	chunk, _ := compiler.Compile(stmts, vm.NativeNames())
	_, err := vm.Run(chunk)
	if err == nil {
		t.Fatalf("expected a runtime panic on undefined global")
	}
}

func TestListIndexOutOfRangePanics(t *testing.T) {
	lx := frontend.NewLexer("var xs = [1, 2, 3]; return xs[10];")
	toks := lx.ScanTokens()
	p := frontend.NewParser(toks)
	stmts := p.Parse()
	vm := New(module.NewStaticLoader())
	chunk, _ := compiler.Compile(stmts, vm.NativeNames())
	_, err := vm.Run(chunk)
	if err == nil {
		t.Fatalf("expected a runtime panic on out-of-range index")
	}
}

func TestListAndMapLiterals(t *testing.T) {
	got := runScript(t, `var m = {"a": 1, "b": 2}; var xs = [1, 2, 3]; return xs[1] + m["b"];`)
	if !got.IsNumber() || got.AsNumber() != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
}

func TestPostfixIncrementReturnsOldValue(t *testing.T) {
	got := runScript(t, "var i = 5; var j = i++; return j;")
	if !got.IsNumber() || got.AsNumber() != 5 {
		t.Fatalf("expected postfix to yield the pre-increment value 5, got %v", got)
	}
}

func TestStringNativesUpperLowerSubstr(t *testing.T) {
	got := runScript(t, `return upper("ab") + lower("CD") + substr("hello", 1, 3);`)
	if !got.IsString() || got.AsString() != "ABcdell" {
		t.Fatalf("expected %q, got %v", "ABcdell", got)
	}
}

func TestImportRegistersQualifiedNatives(t *testing.T) {
	lx := frontend.NewLexer(`import "greet"; return greet::hello();`)
	toks := lx.ScanTokens()
	p := frontend.NewParser(toks)
	stmts := p.Parse()

	loader := module.NewStaticLoader()
	loader.Register("greet", []module.Entry{
		{Name: "hello", Arity: 0, Callable: func(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
			return value.String("hi"), nil
		}},
	})

	theVM := New(loader)
	chunk, hadError := compiler.Compile(stmts, theVM.NativeNames())
	if hadError {
		t.Fatalf("compile error")
	}
	result, err := theVM.Run(chunk)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if !result.IsString() || result.AsString() != "hi" {
		t.Fatalf("expected %q, got %v", "hi", result)
	}
}
