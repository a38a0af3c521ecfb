// Package module implements the dynamically-loadable native module
// contract of spec.md §4.3: resolving an imported name to a set of
// (name, arity, callable) entries the VM installs as natives.
package module

import (
	"fmt"
	"plugin"

	"github.com/johnryzon123/Ry2/value"
)

// RegisterFunc is the callback a module's init entry point calls once per
// native it wants to expose, mirroring the C ABI's
// `register_fn(name, fn, arity, target)` from spec.md §6 adapted to a Go
// func value (Go plugins carry no portable C ABI to target instead).
type RegisterFunc func(name string, fn func(args []value.Value, globals *map[string]value.Value) (value.Value, error), arity int, target interface{})

// Entry is one native exposed by a loaded module.
type Entry struct {
	Name     string
	Arity    int
	Callable func(args []value.Value, globals *map[string]value.Value) (value.Value, error)
}

// Loader resolves an import name to the natives a module exposes. The
// default implementation (PluginLoader) uses Go's plugin package; tests
// substitute StaticLoader per spec.md §9's explicit directive.
type Loader interface {
	Load(name string) ([]Entry, error)
}

// InitFunc is the Go-typed symbol every loadable module must export,
// named InitRyModule, playing the role of the C ABI's init_ry_module.
type InitFunc func(register RegisterFunc, target interface{})

// PluginLoader loads modules from conventional paths
// (modules/<name>.so), resolving an InitRyModule symbol and calling it
// with a registration callback, per spec.md §4.3.
type PluginLoader struct {
	Dir     string // defaults to "modules" when empty
	loaded  map[string]*plugin.Plugin
	target  interface{}
}

func NewPluginLoader(dir string, target interface{}) *PluginLoader {
	if dir == "" {
		dir = "modules"
	}
	return &PluginLoader{Dir: dir, loaded: make(map[string]*plugin.Plugin), target: target}
}

func (l *PluginLoader) Load(name string) ([]Entry, error) {
	path := l.Dir + "/" + name + ".so"
	p, ok := l.loaded[name]
	if !ok {
		var err error
		p, err = plugin.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot load module %q: %w", name, err)
		}
		l.loaded[name] = p
	}

	sym, err := p.Lookup("InitRyModule")
	if err != nil {
		return nil, fmt.Errorf("module %q has no InitRyModule symbol: %w", name, err)
	}
	initFn, ok := sym.(InitFunc)
	if !ok {
		fnVal, ok2 := sym.(*InitFunc)
		if ok2 {
			initFn = *fnVal
		} else {
			return nil, fmt.Errorf("module %q's InitRyModule has the wrong type", name)
		}
	}

	var entries []Entry
	register := func(name string, fn func(args []value.Value, globals *map[string]value.Value) (value.Value, error), arity int, target interface{}) {
		entries = append(entries, Entry{Name: name, Arity: arity, Callable: fn})
	}
	initFn(register, l.target)
	return entries, nil
}
