package vm

import (
	"math"

	"github.com/chazu/ipe/compiler"
)

// intArith applies a binary arithmetic primitive to two ints with
// two's-complement wraparound. Division faults instead of trapping.
func intArith(p compiler.Prim, a, b int64) (int64, error) {
	switch p {
	case compiler.PrimAdd:
		return a + b, nil
	case compiler.PrimSubtract:
		return a - b, nil
	case compiler.PrimMult:
		return a * b, nil
	case compiler.PrimDiv:
		if b == 0 {
			return 0, faultf(ArithmeticFault, nil, "integer division by zero: %d / 0", a)
		}
		if a == math.MinInt64 && b == -1 {
			return 0, faultf(ArithmeticFault, nil, "integer division overflow: %d / -1", a)
		}
		return a / b, nil
	}
	return 0, faultf(UnsupportedNode, nil, "%s is not an integer arithmetic primitive", p)
}

func intNegate(a int64) int64 {
	return -a
}

// intCompare applies a comparison primitive to two ints.
func intCompare(p compiler.Prim, a, b int64) bool {
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
