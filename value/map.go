package value

// Map is a heap-allocated, shared, insertion-ordered dictionary keyed by
// Value. Keys are compared by Equals, bucketed by HashKey for O(1)
// average lookup; functions/instances/natives all share one bucket (their
// hash is constant) and fall back to a linear Equals scan within it, which
// is correct, just not fast — matching spec.md §3's "unkeyable in
// practice" framing.
type Map struct {
	keys    []Value
	vals    []Value
	buckets map[string][]int // hash key -> indices into keys/vals
}

func NewMap() *Map {
	return &Map{buckets: make(map[string][]int)}
}

func (m *Map) Len() int { return len(m.keys) }

func (m *Map) Get(key Value) (Value, bool) {
	h := key.HashKey()
	for _, idx := range m.buckets[h] {
		if m.keys[idx].Equals(key) {
			return m.vals[idx], true
		}
	}
	return Nil(), false
}

func (m *Map) Set(key, val Value) {
	h := key.HashKey()
	for _, idx := range m.buckets[h] {
		if m.keys[idx].Equals(key) {
			m.vals[idx] = val
			return
		}
	}
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, val)
	m.buckets[h] = append(m.buckets[h], len(m.keys)-1)
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []Value {
	return m.keys
}
