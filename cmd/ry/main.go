// ry is the command-line driver for the language: run a script, disassemble
// its compiled bytecode, or manage saved globals-table snapshots.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/johnryzon123/Ry2/compiler"
	"github.com/johnryzon123/Ry2/config"
	"github.com/johnryzon123/Ry2/frontend"
	"github.com/johnryzon123/Ry2/module"
	"github.com/johnryzon123/Ry2/pkg/bytecode"
	"github.com/johnryzon123/Ry2/session"
	"github.com/johnryzon123/Ry2/vm"
)

const versionStr = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ry - a small stack-machine scripting language\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  ry run [-trace] <script.ry|chunk.rybc>\n")
		fmt.Fprintf(os.Stderr, "  ry emit <script.ry> -o <out.rybc>\n")
		fmt.Fprintf(os.Stderr, "  ry disasm <script.ry>\n")
		fmt.Fprintf(os.Stderr, "  ry save <name> <script.ry>\n")
		fmt.Fprintf(os.Stderr, "  ry load <name>\n")
		fmt.Fprintf(os.Stderr, "  ry sessions\n\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "emit":
		cmdEmit(os.Args[2:])
	case "disasm":
		cmdDisasm(os.Args[2:])
	case "save":
		cmdSave(os.Args[2:])
	case "load":
		cmdLoad(os.Args[2:])
	case "sessions":
		cmdSessions(os.Args[2:])
	case "-version", "--version":
		fmt.Printf("ry version %s\n", versionStr)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("trace", false, "print each executed instruction and the stack to stderr")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: ry run requires exactly one script or chunk path\n")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, err := config.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loader := module.NewPluginLoader(cfg.PrimarySearchPath(), nil)
	theVM := vm.New(loader)
	theVM.Trace = *trace || cfg.VM.Trace

	var chunk *bytecode.Chunk
	if strings.HasSuffix(path, ".rybc") {
		chunk, err = loadCompiledChunk(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		var hadError bool
		chunk, hadError = compileSource(path, theVM.NativeNames())
		if hadError {
			os.Exit(1)
		}
	}

	result, err := theVM.Run(chunk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if !result.IsNil() {
		fmt.Println(result.String())
	}
}

// cmdEmit compiles a script and writes its chunk as canonical CBOR, so
// `ry run` can later load and execute it with no lex/parse/compile step
// (exercising bytecode.UnmarshalChunk's symmetric half of this round trip).
func cmdEmit(args []string) {
	fs := flag.NewFlagSet("emit", flag.ExitOnError)
	out := fs.String("o", "", "output path for the compiled chunk (required)")
	fs.Parse(args)

	if fs.NArg() != 1 || *out == "" {
		fmt.Fprintf(os.Stderr, "Error: ry emit <script.ry> -o <out.rybc>\n")
		os.Exit(1)
	}
	path := fs.Arg(0)

	theVM := vm.New(module.NewStaticLoader())
	chunk, hadError := compileSource(path, theVM.NativeNames())
	if hadError {
		os.Exit(1)
	}

	data, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot encode chunk: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write %s: %v\n", *out, err)
		os.Exit(1)
	}
}

func loadCompiledChunk(path string) (*bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	chunk, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", path, err)
	}
	return chunk, nil
}

// compileSource runs a script through the lexer, parser, and compiler,
// reporting lex/parse/compile errors to stderr itself (they already
// print per-error diagnostics) and returning hadError so the caller just
// needs to decide whether to exit.
func compileSource(path string, nativeNames map[string]bool) (*bytecode.Chunk, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", path, err)
		return nil, true
	}

	lx := frontend.NewLexer(string(data))
	toks := lx.ScanTokens()
	if lx.HadError {
		return nil, true
	}
	p := frontend.NewParser(toks)
	stmts := p.Parse()
	if p.HadError {
		return nil, true
	}

	chunk, hadError := compiler.Compile(stmts, nativeNames)
	return chunk, hadError
}

func cmdDisasm(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Error: ry disasm requires exactly one script path\n")
		os.Exit(1)
	}
	path := args[0]

	theVM := vm.New(module.NewStaticLoader())
	chunk, hadError := compileSource(path, theVM.NativeNames())
	if hadError {
		os.Exit(1)
	}
	fmt.Print(chunk.Disassemble(path))
}

func cmdSave(args []string) {
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Error: ry save requires <name> <script.ry>\n")
		os.Exit(1)
	}
	name, path := args[0], args[1]

	theVM := vm.New(module.NewStaticLoader())
	chunk, hadError := compileSource(path, theVM.NativeNames())
	if hadError {
		os.Exit(1)
	}
	if _, err := theVM.Run(chunk); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	dbPath, err := session.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := session.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	skipped, err := store.Save(name, theVM.Globals())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, k := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: %q was not saved (functions, instances, and natives aren't persisted)\n", k)
	}
}

func cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Error: ry load requires <name>\n")
		os.Exit(1)
	}
	name := args[0]

	dbPath, err := session.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := session.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	globals, skipped, err := store.Load(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, k := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: %q could not be restored\n", k)
	}
	for k, v := range globals {
		fmt.Printf("%s = %s\n", k, v.String())
	}
}

func cmdSessions(args []string) {
	dbPath, err := session.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := session.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	snaps, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, s := range snaps {
		fmt.Printf("%s\t%s\n", s.Name, s.Generation)
	}
}
