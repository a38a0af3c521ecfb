package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/johnryzon123/Ry2/pkg/bytecode"
)

func TestCompileSourceReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.ry")
	if err := os.WriteFile(path, []byte("var x = ;"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, hadError := compileSource(path, map[string]bool{})
	if !hadError {
		t.Fatalf("expected a parse error on malformed source")
	}
}

func TestCompileSourceMissingFile(t *testing.T) {
	_, hadError := compileSource(filepath.Join(t.TempDir(), "missing.ry"), map[string]bool{})
	if !hadError {
		t.Fatalf("expected an error for a missing script path")
	}
}

func TestEmitThenLoadCompiledChunkRoundTrips(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "script.ry")
	if err := os.WriteFile(src, []byte("return 1 + 2;"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chunk, hadError := compileSource(src, map[string]bool{})
	if hadError {
		t.Fatalf("unexpected compile error")
	}

	data, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}
	out := filepath.Join(dir, "script.rybc")
	if err := os.WriteFile(out, data, 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	loaded, err := loadCompiledChunk(out)
	if err != nil {
		t.Fatalf("loadCompiledChunk: %v", err)
	}
	if len(loaded.Code) != len(chunk.Code) {
		t.Fatalf("expected round-tripped chunk to have the same code length, got %d vs %d", len(loaded.Code), len(chunk.Code))
	}
}
