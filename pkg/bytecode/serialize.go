package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/johnryzon123/Ry2/value"
)

var cborEncMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborEncMode = mode
}

// wireChunk is the CBOR-friendly shadow of Chunk. Constants that carry a
// function, instance, or native are not representable on disk — those
// live only for the duration of a single VM run.
type wireChunk struct {
	Code      []byte
	Lines     []int
	Columns   []int
	Constants []wireValue
}

type wireValue struct {
	Kind  byte
	Bool  bool
	Num   float64
	Str   string
	RS    float64
	RE    float64
	List  []wireValue
	MKeys []wireValue
	MVals []wireValue
}

func toWireValue(v value.Value) (wireValue, error) {
	switch v.Kind() {
	case value.KindNil:
		return wireValue{Kind: byte(value.KindNil)}, nil
	case value.KindBool:
		return wireValue{Kind: byte(value.KindBool), Bool: v.AsBool()}, nil
	case value.KindNumber:
		return wireValue{Kind: byte(value.KindNumber), Num: v.AsNumber()}, nil
	case value.KindString:
		return wireValue{Kind: byte(value.KindString), Str: v.AsString()}, nil
	case value.KindRange:
		r := v.AsRange()
		return wireValue{Kind: byte(value.KindRange), RS: r.Start, RE: r.End}, nil
	case value.KindList:
		items := v.AsList().Items
		out := make([]wireValue, len(items))
		for i, item := range items {
			w, err := toWireValue(item)
			if err != nil {
				return wireValue{}, err
			}
			out[i] = w
		}
		return wireValue{Kind: byte(value.KindList), List: out}, nil
	case value.KindMap:
		m := v.AsMap()
		keys := m.Keys()
		wk := make([]wireValue, len(keys))
		wv := make([]wireValue, len(keys))
		for i, k := range keys {
			kw, err := toWireValue(k)
			if err != nil {
				return wireValue{}, err
			}
			val, _ := m.Get(k)
			vw, err := toWireValue(val)
			if err != nil {
				return wireValue{}, err
			}
			wk[i], wv[i] = kw, vw
		}
		return wireValue{Kind: byte(value.KindMap), MKeys: wk, MVals: wv}, nil
	default:
		return wireValue{}, fmt.Errorf("constant of kind %s cannot be serialized", v.Kind())
	}
}

func fromWireValue(w wireValue) value.Value {
	switch value.Kind(w.Kind) {
	case value.KindNil:
		return value.Nil()
	case value.KindBool:
		return value.Bool(w.Bool)
	case value.KindNumber:
		return value.Number(w.Num)
	case value.KindString:
		return value.String(w.Str)
	case value.KindRange:
		return value.RangeValue(value.Range{Start: w.RS, End: w.RE})
	case value.KindList:
		items := make([]value.Value, len(w.List))
		for i, iw := range w.List {
			items[i] = fromWireValue(iw)
		}
		return value.ListValue(value.NewList(items...))
	case value.KindMap:
		m := value.NewMap()
		for i := range w.MKeys {
			m.Set(fromWireValue(w.MKeys[i]), fromWireValue(w.MVals[i]))
		}
		return value.MapValue(m)
	default:
		return value.Nil()
	}
}

// MarshalChunk encodes a chunk to canonical CBOR, for the CLI's emit
// subcommand. Constants that are functions, instances, or natives make it
// return an error.
func MarshalChunk(c *Chunk) ([]byte, error) {
	wc := wireChunk{Code: c.Code, Lines: c.Lines, Columns: c.Columns}
	wc.Constants = make([]wireValue, len(c.Constants))
	for i, v := range c.Constants {
		w, err := toWireValue(v)
		if err != nil {
			return nil, fmt.Errorf("marshal constant %d: %w", i, err)
		}
		wc.Constants[i] = w
	}
	return cborEncMode.Marshal(wc)
}

// UnmarshalChunk decodes a chunk previously written by MarshalChunk.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var wc wireChunk
	if err := cbor.Unmarshal(data, &wc); err != nil {
		return nil, err
	}
	c := &Chunk{Code: wc.Code, Lines: wc.Lines, Columns: wc.Columns}
	c.Constants = make([]value.Value, len(wc.Constants))
	for i, w := range wc.Constants {
		c.Constants[i] = fromWireValue(w)
	}
	return c, nil
}
