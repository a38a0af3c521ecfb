package session

import (
	"path/filepath"
	"testing"

	"github.com/johnryzon123/Ry2/value"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	globals := map[string]value.Value{
		"x":    value.Number(42),
		"name": value.String("ry"),
		"flag": value.Bool(true),
		"xs":   value.ListValue(value.NewList(value.Number(1), value.Number(2), value.String("three"))),
	}

	skipped, err := s.Save("work", globals)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected nothing skipped, got %v", skipped)
	}

	loaded, skippedLoad, err := s.Load("work")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(skippedLoad) != 0 {
		t.Fatalf("expected nothing skipped on load, got %v", skippedLoad)
	}

	if !loaded["x"].IsNumber() || loaded["x"].AsNumber() != 42 {
		t.Fatalf("expected x=42, got %v", loaded["x"])
	}
	if !loaded["name"].IsString() || loaded["name"].AsString() != "ry" {
		t.Fatalf("expected name=ry, got %v", loaded["name"])
	}
	if !loaded["flag"].IsBool() || !loaded["flag"].AsBool() {
		t.Fatalf("expected flag=true, got %v", loaded["flag"])
	}
	xs := loaded["xs"]
	if !xs.IsList() || len(xs.AsList().Items) != 3 {
		t.Fatalf("expected 3-element list, got %v", xs)
	}
}

func TestSaveSkipsFunctions(t *testing.T) {
	s := openTestStore(t)

	fn := value.FuncValue(&value.Function{Name: "f", Arity: 0})
	globals := map[string]value.Value{
		"f": fn,
		"n": value.Number(1),
	}

	skipped, err := s.Save("mixed", globals)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "f" {
		t.Fatalf("expected only 'f' skipped, got %v", skipped)
	}

	loaded, _, err := s.Load("mixed")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded["f"]; ok {
		t.Fatalf("expected function not to have been persisted")
	}
	if !loaded["n"].IsNumber() {
		t.Fatalf("expected n to round-trip")
	}
}

func TestLoadUnknownSnapshotErrors(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.Load("nope")
	if err != ErrSnapshotNotFound {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Save("a", map[string]value.Value{"x": value.Number(1)}); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if _, err := s.Save("b", map[string]value.Value{"y": value.Number(2)}); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	snaps, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 2 || snaps[0].Name != "a" || snaps[1].Name != "b" {
		t.Fatalf("expected [a b], got %v", snaps)
	}
	if snaps[0].Generation == "" || snaps[1].Generation == "" {
		t.Fatalf("expected every snapshot to carry a generation id, got %v", snaps)
	}
	if snaps[0].Generation == snaps[1].Generation {
		t.Fatalf("expected distinct generation ids per save, got the same for both")
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snaps, err = s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Name != "b" {
		t.Fatalf("expected [b] after delete, got %v", snaps)
	}
}

func TestSaveRegeneratesGenerationID(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Save("a", map[string]value.Value{"x": value.Number(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := s.Save("a", map[string]value.Value{"x": value.Number(2)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if first[0].Generation == second[0].Generation {
		t.Fatalf("expected re-saving %q to mint a new generation id", "a")
	}
}
