package value

import "testing"

func TestMapSetGet(t *testing.T) {
	m := NewMap()
	m.Set(String("key"), Number(1))
	got, ok := m.Get(String("key"))
	if !ok || got.AsNumber() != 1 {
		t.Fatalf("Get(key) = (%v, %v), want (1, true)", got, ok)
	}
	if _, ok := m.Get(String("missing")); ok {
		t.Error("Get(missing) should report ok=false")
	}
}

func TestMapSetOverwritesExisting(t *testing.T) {
	m := NewMap()
	m.Set(String("key"), Number(1))
	m.Set(String("key"), Number(2))
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after overwrite", m.Len())
	}
	got, _ := m.Get(String("key"))
	if got.AsNumber() != 2 {
		t.Errorf("Get(key) = %v, want 2", got)
	}
}

func TestMapFunctionsShareOneBucketButStayDistinct(t *testing.T) {
	m := NewMap()
	f1 := FuncValue(&Function{Name: "f1"})
	f2 := FuncValue(&Function{Name: "f2"})
	m.Set(f1, Number(1))
	m.Set(f2, Number(2))
	v1, ok1 := m.Get(f1)
	v2, ok2 := m.Get(f2)
	if !ok1 || !ok2 || v1.AsNumber() != 1 || v2.AsNumber() != 2 {
		t.Errorf("distinct function keys collided: (%v,%v) (%v,%v)", v1, ok1, v2, ok2)
	}
}
