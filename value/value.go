// Package value implements the tagged value representation shared by the
// compiler and the VM: nil, bool, number, string, list, map, range,
// function, instance, and native.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindRange
	KindFunction
	KindInstance
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindRange:
		return "range"
	case KindFunction:
		return "function"
	case KindInstance:
		return "instance"
	case KindNative:
		return "native"
	default:
		return "unknown"
	}
}

// Range is a half-open-by-convention {start, end} pair; BUILD_RANGE_LIST
// expands it to [start, end).
type Range struct {
	Start float64
	End   float64
}

// Value is a tagged union over the ten variants the language supports.
// Heap-shaped variants (list, map, function, instance, native) are carried
// as Go pointers: assigning one Value to another aliases the same
// underlying object, matching the spec's "shared ownership" model without
// hand-rolled reference counts — Go's own GC plays that role.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	rng  Range
	list *List
	m    *Map
	fn   *Function
	inst *Instance
	nat  *Native
}

// List is a heap-allocated, shared, mutable sequence of values.
type List struct {
	Items []Value
}

// Function is a compiled function: itself storable as a Value in the
// enclosing chunk's constant pool.
type Function struct {
	Name  string
	Arity int
	Chunk interface{} // *bytecode.Chunk; kept as interface{} to avoid an import cycle
}

// Native is a host- or module-provided callable. Callable receives the
// argument slice and a mutable handle on globals, per spec.md §4.2's call
// convention for natives.
type Native struct {
	Name     string
	Arity    int
	Callable func(args []Value, globals *map[string]Value) (Value, error)
}

// Instance is a minimal class instance: a class name, a unique identity,
// and a field bag. Methods/inheritance are explicitly out of scope.
type Instance struct {
	ID        string
	ClassName string
	Fields    map[string]Value
}

// NewInstance allocates an instance with a fresh identity.
func NewInstance(className string) *Instance {
	return &Instance{ID: uuid.NewString(), ClassName: className, Fields: make(map[string]Value)}
}

func Nil() Value                { return Value{kind: KindNil} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Number(n float64) Value    { return Value{kind: KindNumber, n: n} }
func String(s string) Value     { return Value{kind: KindString, s: s} }
func RangeValue(r Range) Value  { return Value{kind: KindRange, rng: r} }
func ListValue(l *List) Value   { return Value{kind: KindList, list: l} }
func MapValue(m *Map) Value     { return Value{kind: KindMap, m: m} }
func FuncValue(f *Function) Value { return Value{kind: KindFunction, fn: f} }
func NativeValue(n *Native) Value { return Value{kind: KindNative, nat: n} }
func InstanceValue(i *Instance) Value { return Value{kind: KindInstance, inst: i} }

func NewList(items ...Value) *List { return &List{Items: items} }

func (v Value) Kind() Kind           { return v.kind }
func (v Value) IsNil() bool          { return v.kind == KindNil }
func (v Value) IsNumber() bool       { return v.kind == KindNumber }
func (v Value) IsBool() bool         { return v.kind == KindBool }
func (v Value) IsString() bool       { return v.kind == KindString }
func (v Value) IsList() bool         { return v.kind == KindList }
func (v Value) IsMap() bool          { return v.kind == KindMap }
func (v Value) IsRange() bool        { return v.kind == KindRange }
func (v Value) IsFunction() bool     { return v.kind == KindFunction }
func (v Value) IsInstance() bool     { return v.kind == KindInstance }
func (v Value) IsNative() bool       { return v.kind == KindNative }
func (v Value) IsCallable() bool     { return v.kind == KindFunction || v.kind == KindNative }

func (v Value) AsBool() bool       { return v.b }
func (v Value) AsNumber() float64  { return v.n }
func (v Value) AsString() string   { return v.s }
func (v Value) AsRange() Range     { return v.rng }
func (v Value) AsList() *List      { return v.list }
func (v Value) AsMap() *Map        { return v.m }
func (v Value) AsFunction() *Function { return v.fn }
func (v Value) AsInstance() *Instance { return v.inst }
func (v Value) AsNative() *Native  { return v.nat }

// IsTruthy: nil and false are falsey; everything else (including 0 and "")
// is truthy.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Equals is structural for primitives, by-identity for heap containers.
// It is always defined and never produces nil, unlike the ordering
// operators below.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindRange:
		return v.rng.Start == other.rng.Start && v.rng.End == other.rng.End
	case KindList:
		return v.list == other.list
	case KindMap:
		return v.m == other.m
	case KindFunction:
		return v.fn == other.fn
	case KindInstance:
		return v.inst == other.inst
	case KindNative:
		return v.nat == other.nat
	default:
		return false
	}
}

// Greater/Less require both operands numeric; otherwise they produce nil
// rather than panicking (spec.md §3).
func (v Value) Greater(other Value) Value {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Bool(v.n > other.n)
	}
	return Nil()
}

func (v Value) Less(other Value) Value {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Bool(v.n < other.n)
	}
	return Nil()
}

// Add implements the documented mixed-type fallback: numeric when both
// sides are numbers, otherwise string concatenation of both display forms.
func (v Value) Add(other Value) Value {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Number(v.n + other.n)
	}
	return String(v.String() + other.String())
}

// Sub and Mul deliberately preserve the same concatenation fallback as Add
// — an asymmetry versus Div/Mod that the spec calls out explicitly as
// something to preserve rather than "fix".
func (v Value) Sub(other Value) Value {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Number(v.n - other.n)
	}
	return String(v.String() + other.String())
}

func (v Value) Mul(other Value) Value {
	if v.kind == KindNumber && other.kind == KindNumber {
		return Number(v.n * other.n)
	}
	return String(v.String() + other.String())
}

// Div and Mod require numeric operands; the caller (VM) is responsible for
// raising a runtime panic when ok is false. Division by zero among numbers
// is not trapped: it yields IEEE infinity or NaN.
func (v Value) Div(other Value) (Value, bool) {
	if v.kind != KindNumber || other.kind != KindNumber {
		return Nil(), false
	}
	return Number(v.n / other.n), true
}

func (v Value) Mod(other Value) (Value, bool) {
	if v.kind != KindNumber || other.kind != KindNumber {
		return Nil(), false
	}
	return Number(math.Mod(v.n, other.n)), true
}

func (v Value) Negate() (Value, bool) {
	if v.kind != KindNumber {
		return Nil(), false
	}
	return Number(-v.n), true
}

// Not implements unary `!`: truthiness-based, defined for every kind.
func (v Value) Not() Value {
	return Bool(!v.IsTruthy())
}

// toInt64 truncates a number to a 64-bit integer for bitwise/shift ops.
func toInt64(v Value) (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return int64(v.n), true
}

func (v Value) BitwiseAnd(other Value) (Value, bool) {
	a, ok1 := toInt64(v)
	b, ok2 := toInt64(other)
	if !ok1 || !ok2 {
		return Nil(), false
	}
	return Number(float64(a & b)), true
}

func (v Value) BitwiseOr(other Value) (Value, bool) {
	a, ok1 := toInt64(v)
	b, ok2 := toInt64(other)
	if !ok1 || !ok2 {
		return Nil(), false
	}
	return Number(float64(a | b)), true
}

func (v Value) BitwiseXor(other Value) (Value, bool) {
	a, ok1 := toInt64(v)
	b, ok2 := toInt64(other)
	if !ok1 || !ok2 {
		return Nil(), false
	}
	return Number(float64(a ^ b)), true
}

func (v Value) LeftShift(other Value) (Value, bool) {
	a, ok1 := toInt64(v)
	b, ok2 := toInt64(other)
	if !ok1 || !ok2 {
		return Nil(), false
	}
	return Number(float64(a << uint64(b))), true
}

func (v Value) RightShift(other Value) (Value, bool) {
	a, ok1 := toInt64(v)
	b, ok2 := toInt64(other)
	if !ok1 || !ok2 {
		return Nil(), false
	}
	return Number(float64(a >> uint64(b))), true
}

// HashKey returns a bucket key suitable for use in Map. Numbers, bools,
// and strings hash by value; lists and maps hash by pointer identity;
// functions, instances, and natives all collapse to the same bucket
// ("unkeyable in practice" per spec.md §3) and fall back to linear
// identity comparison within that bucket.
func (v Value) HashKey() string {
	switch v.kind {
	case KindNil:
		return "n"
	case KindBool:
		if v.b {
			return "b1"
		}
		return "b0"
	case KindNumber:
		return "f" + strconv.FormatUint(math.Float64bits(v.n), 16)
	case KindString:
		return "s" + v.s
	case KindList:
		return fmt.Sprintf("l%p", v.list)
	case KindMap:
		return fmt.Sprintf("m%p", v.m)
	default:
		return "z"
	}
}

// formatNumber strips trailing zeros and a trailing dot, per spec.md §3.
func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// String renders the display form described in spec.md §3.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	case KindRange:
		return fmt.Sprintf("%s..%s", formatNumber(v.rng.Start), formatNumber(v.rng.End))
	case KindList:
		if v.list == nil {
			return "[]"
		}
		parts := make([]string, len(v.list.Items))
		for i, item := range v.list.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		if v.m == nil {
			return "{}"
		}
		parts := make([]string, 0, len(v.m.keys))
		for _, k := range v.m.keys {
			val, _ := v.m.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k.String(), val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		if v.fn == nil {
			return "<function>"
		}
		return fmt.Sprintf("<function %s>", v.fn.Name)
	case KindInstance:
		if v.inst == nil {
			return "<instance>"
		}
		return fmt.Sprintf("<instance %s>", v.inst.ClassName)
	case KindNative:
		if v.nat == nil {
			return "<native>"
		}
		return fmt.Sprintf("<native %s>", v.nat.Name)
	default:
		return "<unknown>"
	}
}
