// Package config loads ry.toml, the per-project settings file: where to
// look for native modules, whether the VM should trace execution, and a
// max_constants value. max_constants is parsed and defaulted here, but
// nothing outside this package reads it: every chunk keeps bytecode's
// fixed 256-entry constant pool.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config mirrors the layout a ry.toml file takes on disk.
type Config struct {
	Module  ModuleConfig `toml:"module"`
	VM      VMConfig     `toml:"vm"`
	Compile CompileConfig `toml:"compile"`

	// Dir is the directory containing ry.toml (set at load time, not
	// read from the file itself).
	Dir string `toml:"-"`
}

// ModuleConfig configures where `import` looks for native plugins.
type ModuleConfig struct {
	SearchPath []string `toml:"search_path"`
}

// VMConfig configures the running VM.
type VMConfig struct {
	Trace bool `toml:"trace"`
}

// CompileConfig holds the [compile] table. MaxConstants is loaded but not
// passed to the compiler or to bytecode.Chunk.
type CompileConfig struct {
	MaxConstants int `toml:"max_constants"`
}

const defaultMaxConstants = 256

// Default returns the configuration a project gets when no ry.toml is
// present: no extra module search path, tracing off, the compiler's
// built-in 256-entry constant pool.
func Default() *Config {
	return &Config{
		Module:  ModuleConfig{SearchPath: nil},
		VM:      VMConfig{Trace: false},
		Compile: CompileConfig{MaxConstants: defaultMaxConstants},
	}
}

// Load parses a ry.toml file from the given directory. If the file does
// not exist, Load returns Default() rather than an error — a ry.toml is
// optional, unlike the teacher's maggie.toml which a project requires.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "ry.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c := Default()
			c.Dir, _ = filepath.Abs(dir)
			return c, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if c.Compile.MaxConstants <= 0 {
		c.Compile.MaxConstants = defaultMaxConstants
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for a ry.toml, the way the
// teacher's manifest package finds maggie.toml. If none is found by the
// filesystem root, it returns Default() rather than nil — a ry.toml is
// optional for this tool, unlike a Maggie project manifest.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "ry.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			c := Default()
			c.Dir = dir
			return c, nil
		}
		dir = parent
	}
}

// SearchPaths returns absolute paths for the configured module search
// directories, resolved relative to the directory ry.toml was loaded from.
func (c *Config) SearchPaths() []string {
	var paths []string
	for _, d := range c.Module.SearchPath {
		if filepath.IsAbs(d) {
			paths = append(paths, d)
			continue
		}
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}

// PrimarySearchPath returns the first configured module search
// directory, or "modules" under the config's directory when none is
// configured. module.PluginLoader only takes one directory, so this is
// what `ry run` hands it.
func (c *Config) PrimarySearchPath() string {
	paths := c.SearchPaths()
	if len(paths) == 0 {
		return filepath.Join(c.Dir, "modules")
	}
	return paths[0]
}
