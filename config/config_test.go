package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Compile.MaxConstants != defaultMaxConstants {
		t.Fatalf("expected default max constants %d, got %d", defaultMaxConstants, c.Compile.MaxConstants)
	}
	if c.VM.Trace {
		t.Fatalf("expected trace off by default")
	}
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	contents := `
[module]
search_path = ["./mods", "/opt/ry/mods"]

[vm]
trace = true

[compile]
max_constants = 64
`
	if err := os.WriteFile(filepath.Join(dir, "ry.toml"), []byte(contents), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.VM.Trace {
		t.Fatalf("expected trace true")
	}
	if c.Compile.MaxConstants != 64 {
		t.Fatalf("expected max_constants 64, got %d", c.Compile.MaxConstants)
	}
	paths := c.SearchPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 search paths, got %d", len(paths))
	}
	if paths[1] != "/opt/ry/mods" {
		t.Fatalf("expected absolute path preserved, got %s", paths[1])
	}
}

func TestFindAndLoadWalksUpToRoot(t *testing.T) {
	root := t.TempDir()
	contents := "[vm]\ntrace = true\n"
	if err := os.WriteFile(filepath.Join(root, "ry.toml"), []byte(contents), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.VM.Trace {
		t.Fatalf("expected to find ry.toml from an ancestor directory")
	}
}
