package vm

import (
	"fmt"
	"math"
)

// Value is one VM word, NaN-boxed.
//
// Any bit pattern that is not a quiet NaN carrying a non-zero tag is a
// float64 and is stored as is. The tagged NaNs carry everything else in
// their low 48 bits:
//
//	tagRef      handle ID in the Heap
//	tagInt      signed 48-bit integer
//	tagSpecial  nil, true or false
//	tagSymbol   interned symbol ID
//
// A Value never owns the heap entry it names. Reachability is decided by
// the collector alone (see gc.go).
type Value uint64

const (
	nanBits     uint64 = 0x7FF8000000000000 // exponent all ones, quiet bit
	tagMask     uint64 = 0x0007000000000000
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	tagRef     uint64 = 0x0001000000000000
	tagInt     uint64 = 0x0002000000000000
	tagSpecial uint64 = 0x0003000000000000
	tagSymbol  uint64 = 0x0004000000000000

	intSignBit    uint64 = 0x0000800000000000
	intSignExtend uint64 = 0xFFFF000000000000

	expMask  uint64 = 0x7FF0000000000000
	fracMask uint64 = 0x000FFFFFFFFFFFFF
)

const (
	Nil   = Value(nanBits | tagSpecial | 0)
	True  = Value(nanBits | tagSpecial | 1)
	False = Value(nanBits | tagSpecial | 2)
)

// Small integers span 48 bits, two's complement.
const (
	MaxSmallInt int64 = 1<<47 - 1
	MinSmallInt int64 = -1 << 47
)

func box(tag, payload uint64) Value {
	return Value(nanBits | tag | payload&payloadMask)
}

// boxTag returns the tag of a boxed word, or 0 for floats.
func (v Value) boxTag() uint64 {
	bits := uint64(v)
	switch {
	case bits&expMask != expMask:
		return 0 // finite
	case bits&fracMask == 0:
		return 0 // infinity
	case bits&nanBits != nanBits:
		return 0 // signaling NaN
	}
	return bits & tagMask
}

func (v Value) payload() uint64 { return uint64(v) & payloadMask }

func (v Value) mustBe(tag uint64, accessor string) {
	if v.boxTag() != tag {
		panic(fmt.Sprintf("Value.%s: wrong tag on %#x", accessor, uint64(v)))
	}
}

func (v Value) IsFloat() bool    { return v.boxTag() == 0 }
func (v Value) IsSmallInt() bool { return v.boxTag() == tagInt }
func (v Value) IsSymbol() bool   { return v.boxTag() == tagSymbol }
func (v Value) IsSpecial() bool  { return v.boxTag() == tagSpecial }
func (v Value) IsNil() bool      { return v == Nil }
func (v Value) IsBool() bool     { return v == True || v == False }

// IsRef reports whether v names an entry in the handle heap.
func (v Value) IsRef() bool { return v.boxTag() == tagRef }

// IsImmediate reports whether v carries its whole state in the word.
// Immediates are never collected.
func (v Value) IsImmediate() bool { return !v.IsRef() }

// IsTruthy reports whether v is anything but nil or false.
func (v Value) IsTruthy() bool { return v != Nil && v != False }

// ---------------------------------------------------------------------------
// Constructors and accessors
// ---------------------------------------------------------------------------

func FromFloat64(f float64) Value { return Value(math.Float64bits(f)) }

func (v Value) Float64() float64 {
	v.mustBe(0, "Float64")
	return math.Float64frombits(uint64(v))
}

// FromSmallInt boxes n, which must lie within [MinSmallInt, MaxSmallInt].
func FromSmallInt(n int64) Value {
	v, ok := TryFromSmallInt(n)
	if !ok {
		panic(fmt.Sprintf("FromSmallInt: %d does not fit in 48 bits", n))
	}
	return v
}

// TryFromSmallInt boxes n, reporting false when it does not fit.
func TryFromSmallInt(n int64) (Value, bool) {
	if n < MinSmallInt || n > MaxSmallInt {
		return Nil, false
	}
	return box(tagInt, uint64(n)), true
}

func (v Value) SmallInt() int64 {
	v.mustBe(tagInt, "SmallInt")
	p := v.payload()
	if p&intSignBit != 0 {
		p |= intSignExtend
	}
	return int64(p)
}

func FromRefID(id uint64) Value { return box(tagRef, id) }

func (v Value) RefID() uint64 {
	v.mustBe(tagRef, "RefID")
	return v.payload()
}

func FromSymbolID(id uint32) Value { return box(tagSymbol, uint64(id)) }

func (v Value) SymbolID() uint32 {
	v.mustBe(tagSymbol, "SymbolID")
	return uint32(v.payload())
}

func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

func (v Value) Bool() bool {
	if !v.IsBool() {
		panic(fmt.Sprintf("Value.Bool: %#x is not a boolean", uint64(v)))
	}
	return v == True
}
