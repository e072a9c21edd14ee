package bridge

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Symbol is the Go form of a VM Symbol in ToGo and FromGo.
type Symbol string

// ToGo converts a VM value to plain Go data: nil, bool, int64, float64,
// string, Symbol or []any of those. Other types are an error.
func ToGo(o Object) (any, error) {
	v := ToAny(o).Value()
	switch t := v.Type(); t {
	case TypeNil:
		return nil, nil
	case TypeTrue:
		return true, nil
	case TypeFalse:
		return false, nil
	case TypeFixnum:
		return RInteger{}.FromValue(v).Int64(), nil
	case TypeFloat:
		return RFloat{}.FromValue(v).Float64(), nil
	case TypeString:
		return RString{}.FromValue(v).String(), nil
	case TypeSymbol:
		return Symbol(RSymbol{}.FromValue(v).Name()), nil
	case TypeArray:
		elems := RArray{}.FromValue(v).Elements()
		out := make([]any, len(elems))
		for i, e := range elems {
			x, err := ToGo(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = x
		}
		return out, nil
	default:
		return nil, fmt.Errorf("bridge: cannot convert %s to a Go value", t)
	}
}

// FromGo builds a VM value from Go data. It accepts what ToGo produces,
// the other sized integer and float types, []string and existing Objects.
func FromGo(x any) (AnyObject, error) {
	switch x := x.(type) {
	case nil:
		return Wrap(Nil), nil
	case Object:
		return ToAny(x), nil
	case bool:
		return NewBoolean(x).AnyObject, nil
	case int:
		return fromInt64(int64(x))
	case int8:
		return fromInt64(int64(x))
	case int16:
		return fromInt64(int64(x))
	case int32:
		return fromInt64(int64(x))
	case int64:
		return fromInt64(x)
	case uint8:
		return fromInt64(int64(x))
	case uint16:
		return fromInt64(int64(x))
	case uint32:
		return fromInt64(int64(x))
	case float32:
		return NewFloat(float64(x)).AnyObject, nil
	case float64:
		return NewFloat(x).AnyObject, nil
	case string:
		return NewString(x).AnyObject, nil
	case Symbol:
		return NewSymbol(string(x)).AnyObject, nil
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return FromGo(items)
	case []any:
		elems := make([]Object, len(x))
		for i, e := range x {
			o, err := FromGo(e)
			if err != nil {
				return AnyObject{}, fmt.Errorf("element %d: %w", i, err)
			}
			defer pin(o)()
			elems[i] = o
		}
		return NewArray(elems...).AnyObject, nil
	default:
		return AnyObject{}, fmt.Errorf("bridge: cannot convert %T to a VM value", x)
	}
}

func fromInt64(n int64) (AnyObject, error) {
	if !fitsSmallInt(n) {
		return AnyObject{}, fmt.Errorf("bridge: integer %d out of range", n)
	}
	return NewInteger(n).AnyObject, nil
}

// ---------------------------------------------------------------------------
// CBOR snapshots
// ---------------------------------------------------------------------------

// SnapshotKind tags the variant held by a Snapshot.
type SnapshotKind uint8

const (
	SnapshotNil SnapshotKind = iota
	SnapshotBool
	SnapshotInt
	SnapshotFloat
	SnapshotString
	SnapshotSymbol
	SnapshotArray
)

// Snapshot is the wire form of a VM value.
type Snapshot struct {
	Kind  SnapshotKind `cbor:"1,keyasint"`
	Bool  bool         `cbor:"2,keyasint,omitempty"`
	Int   int64        `cbor:"3,keyasint,omitempty"`
	Float float64      `cbor:"4,keyasint,omitempty"`
	Text  string       `cbor:"5,keyasint,omitempty"`
	Items []Snapshot   `cbor:"6,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bridge: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// TakeSnapshot captures o as a Snapshot.
func TakeSnapshot(o Object) (Snapshot, error) {
	x, err := ToGo(o)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(x), nil
}

func snapshotOf(x any) Snapshot {
	switch x := x.(type) {
	case bool:
		return Snapshot{Kind: SnapshotBool, Bool: x}
	case int64:
		return Snapshot{Kind: SnapshotInt, Int: x}
	case float64:
		return Snapshot{Kind: SnapshotFloat, Float: x}
	case string:
		return Snapshot{Kind: SnapshotString, Text: x}
	case Symbol:
		return Snapshot{Kind: SnapshotSymbol, Text: string(x)}
	case []any:
		items := make([]Snapshot, len(x))
		for i, e := range x {
			items[i] = snapshotOf(e)
		}
		return Snapshot{Kind: SnapshotArray, Items: items}
	default:
		return Snapshot{Kind: SnapshotNil}
	}
}

// Restore rebuilds the VM value s describes.
func (s Snapshot) Restore() (AnyObject, error) {
	switch s.Kind {
	case SnapshotNil:
		return Wrap(Nil), nil
	case SnapshotBool:
		return NewBoolean(s.Bool).AnyObject, nil
	case SnapshotInt:
		return fromInt64(s.Int)
	case SnapshotFloat:
		return NewFloat(s.Float).AnyObject, nil
	case SnapshotString:
		return NewString(s.Text).AnyObject, nil
	case SnapshotSymbol:
		return NewSymbol(s.Text).AnyObject, nil
	case SnapshotArray:
		elems := make([]Object, len(s.Items))
		for i, item := range s.Items {
			o, err := item.Restore()
			if err != nil {
				return AnyObject{}, fmt.Errorf("element %d: %w", i, err)
			}
			defer pin(o)()
			elems[i] = o
		}
		return NewArray(elems...).AnyObject, nil
	default:
		return AnyObject{}, fmt.Errorf("bridge: unknown snapshot kind %d", s.Kind)
	}
}

// MarshalCBOR encodes o with canonical CBOR.
func MarshalCBOR(o Object) ([]byte, error) {
	s, err := TakeSnapshot(o)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(s)
}

// UnmarshalCBOR decodes data written by MarshalCBOR into a new VM value.
func UnmarshalCBOR(data []byte) (AnyObject, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return AnyObject{}, fmt.Errorf("bridge: unmarshal snapshot: %w", err)
	}
	return s.Restore()
}
