package vm

import (
	"github.com/chazu/ipe/compiler"
)

// realArith applies a binary arithmetic primitive to two reals. Division by
// zero follows IEEE 754 and yields +Inf, -Inf or NaN instead of a fault.
func realArith(p compiler.Prim, a, b float64) float64 {
	switch p {
	case compiler.PrimAdd:
		return a + b
	case compiler.PrimSubtract:
		return a - b
	case compiler.PrimMult:
		return a * b
	case compiler.PrimDiv:
		return a / b
	}
	return 0
}

func realNegate(a float64) float64 {
	return -a
}

func realCompare(p compiler.Prim, a, b float64) bool {
	switch p {
	case compiler.PrimEqual:
		return a == b
	case compiler.PrimNotEqual:
		return a != b
	case compiler.PrimGreater:
		return a > b
	case compiler.PrimLess:
		return a < b
	case compiler.PrimGreaterOrEqual:
		return a >= b
	case compiler.PrimLessOrEqual:
		return a <= b
	}
	return false
}
