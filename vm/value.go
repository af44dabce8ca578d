package vm

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindReal
	KindRef
	KindPtr
)

var kindNames = [...]string{
	KindVoid: "void",
	KindBool: "bool",
	KindInt:  "int",
	KindReal: "real",
	KindRef:  "ref",
	KindPtr:  "ptr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is the result of evaluating a node.
//
// Scalars live in bits (bool as 0/1, int as two's complement, real as its
// IEEE 754 bit pattern). Ref and Ptr carry the slot they address. A Value
// is immutable; the only mutation path is writing through the slot of a Ref.
type Value struct {
	kind Kind
	bits uint64
	slot *Value
}

// Void is the zero Value.
var Void = Value{}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// FromBool creates a bool Value.
func FromBool(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool}
}

// FromInt creates an int Value.
func FromInt(n int64) Value {
	return Value{kind: KindInt, bits: uint64(n)}
}

// FromReal creates a real Value.
func FromReal(f float64) Value {
	return Value{kind: KindReal, bits: math.Float64bits(f)}
}

// RefTo creates a mutable reference to slot.
func RefTo(slot *Value) Value {
	if slot == nil {
		panic("RefTo: nil slot")
	}
	return Value{kind: KindRef, slot: slot}
}

// PtrTo creates an address Value for slot.
func PtrTo(slot *Value) Value {
	if slot == nil {
		panic("PtrTo: nil slot")
	}
	return Value{kind: KindPtr, slot: slot}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the Value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsVoid returns true if v carries no value.
func (v Value) IsVoid() bool { return v.kind == KindVoid }

// IsBool returns true if v is a bool.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsInt returns true if v is an int.
func (v Value) IsInt() bool { return v.kind == KindInt }

// IsReal returns true if v is a real.
func (v Value) IsReal() bool { return v.kind == KindReal }

// IsRef returns true if v is a mutable slot reference.
func (v Value) IsRef() bool { return v.kind == KindRef }

// IsPtr returns true if v is an address.
func (v Value) IsPtr() bool { return v.kind == KindPtr }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Bool returns the bool payload. Panics if v is not a bool.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic("Value.Bool: not a bool")
	}
	return v.bits != 0
}

// Int returns the int payload. Panics if v is not an int.
func (v Value) Int() int64 {
	if v.kind != KindInt {
		panic("Value.Int: not an int")
	}
	return int64(v.bits)
}

// Real returns the real payload. Panics if v is not a real.
func (v Value) Real() float64 {
	if v.kind != KindReal {
		panic("Value.Real: not a real")
	}
	return math.Float64frombits(v.bits)
}

// Ref returns the referenced slot. Panics if v is not a Ref.
func (v Value) Ref() *Value {
	if v.kind != KindRef {
		panic("Value.Ref: not a reference")
	}
	return v.slot
}

// Ptr returns the addressed slot. Panics if v is not a Ptr.
func (v Value) Ptr() *Value {
	if v.kind != KindPtr {
		panic("Value.Ptr: not a pointer")
	}
	return v.slot
}

// String renders v for diagnostics and CLI output.
func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case KindReal:
		return strconv.FormatFloat(v.Real(), 'g', -1, 64)
	case KindRef:
		return fmt.Sprintf("ref(%p)", v.slot)
	case KindPtr:
		return fmt.Sprintf("ptr(%p)", v.slot)
	}
	return v.kind.String()
}
