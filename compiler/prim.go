package compiler

import "fmt"

// Prim identifies a primitive operation.
type Prim int

const (
	PrimNone Prim = iota
	PrimAddrOf
	PrimAssign
	PrimUnaryMinus
	PrimAdd
	PrimSubtract
	PrimMult
	PrimDiv
	PrimEqual
	PrimNotEqual
	PrimGreater
	PrimLess
	PrimGreaterOrEqual
	PrimLessOrEqual
	PrimReturn
)

var primNames = [...]string{
	PrimNone:           "none",
	PrimAddrOf:         "addr_of",
	PrimAssign:         "=",
	PrimUnaryMinus:     "u-",
	PrimAdd:            "+",
	PrimSubtract:       "-",
	PrimMult:           "*",
	PrimDiv:            "/",
	PrimEqual:          "==",
	PrimNotEqual:       "!=",
	PrimGreater:        ">",
	PrimLess:           "<",
	PrimGreaterOrEqual: ">=",
	PrimLessOrEqual:    "<=",
	PrimReturn:         "return",
}

func (p Prim) String() string {
	if p >= 0 && int(p) < len(primNames) {
		return primNames[p]
	}
	return fmt.Sprintf("Prim(%d)", int(p))
}

// ParsePrim maps a primitive name to its Prim.
func ParsePrim(name string) (Prim, bool) {
	for i, n := range primNames {
		if n == name && Prim(i) != PrimNone {
			return Prim(i), true
		}
	}
	return PrimNone, false
}
