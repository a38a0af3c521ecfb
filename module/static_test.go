package module

import (
	"testing"

	"github.com/johnryzon123/Ry2/value"
)

func TestStaticLoaderRoundTrip(t *testing.T) {
	l := NewStaticLoader()
	l.Register("greet", []Entry{
		{Name: "hello", Arity: 0, Callable: func(args []value.Value, globals *map[string]value.Value) (value.Value, error) {
			return value.String("hi"), nil
		}},
	})

	entries, err := l.Load("greet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "hello" {
		t.Fatalf("unexpected entries: %v", entries)
	}
	result, err := entries[0].Callable(nil, nil)
	if err != nil || result.AsString() != "hi" {
		t.Fatalf("unexpected callable result: %v %v", result, err)
	}
}

func TestStaticLoaderUnknownModule(t *testing.T) {
	l := NewStaticLoader()
	if _, err := l.Load("missing"); err == nil {
		t.Fatalf("expected an error for an unregistered module")
	}
}
