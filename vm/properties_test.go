package vm

import (
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/chazu/ipe/compiler"
)

var intOps = []struct {
	prim compiler.Prim
	fn   func(a, b int64) int64
}{
	{compiler.PrimAdd, func(a, b int64) int64 { return a + b }},
	{compiler.PrimSubtract, func(a, b int64) int64 { return a - b }},
	{compiler.PrimMult, func(a, b int64) int64 { return a * b }},
	{compiler.PrimDiv, func(a, b int64) int64 { return a / b }},
}

func TestPropIntArithmetic(t *testing.T) {
	s := newTestSession()
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64().Draw(t, "a")
		b := rapid.Int64().Draw(t, "b")
		op := intOps[rapid.IntRange(0, len(intOps)-1).Draw(t, "op")]

		v, err := s.Evaluate(prim(op.prim, intType, intLit(a), intLit(b)))
		if op.prim == compiler.PrimDiv && (b == 0 || (a == math.MinInt64 && b == -1)) {
			if !errors.Is(err, ErrArithmeticFault) {
				t.Fatalf("%d / %d: err = %v, want arithmetic fault", a, b, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("%d %s %d: %v", a, op.prim, b, err)
		}
		if want := op.fn(a, b); v.Int() != want {
			t.Fatalf("%d %s %d = %d, want %d", a, op.prim, b, v.Int(), want)
		}
	})
}

func TestPropRealArithmetic(t *testing.T) {
	ops := []struct {
		prim compiler.Prim
		fn   func(a, b float64) float64
	}{
		{compiler.PrimAdd, func(a, b float64) float64 { return a + b }},
		{compiler.PrimSubtract, func(a, b float64) float64 { return a - b }},
		{compiler.PrimMult, func(a, b float64) float64 { return a * b }},
		{compiler.PrimDiv, func(a, b float64) float64 { return a / b }},
	}
	s := newTestSession()
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64().Draw(t, "a")
		b := rapid.Float64().Draw(t, "b")
		op := ops[rapid.IntRange(0, len(ops)-1).Draw(t, "op")]

		v, err := s.Evaluate(prim(op.prim, realType, realLit(a), realLit(b)))
		if err != nil {
			t.Fatalf("%v %s %v: %v", a, op.prim, b, err)
		}
		want := op.fn(a, b)
		if got := v.Real(); got != want && !(math.IsNaN(got) && math.IsNaN(want)) {
			t.Fatalf("%v %s %v = %v, want %v", a, op.prim, b, got, want)
		}
	})
}

func TestPropIntComparisons(t *testing.T) {
	cmps := []struct {
		prim compiler.Prim
		fn   func(a, b int64) bool
	}{
		{compiler.PrimEqual, func(a, b int64) bool { return a == b }},
		{compiler.PrimNotEqual, func(a, b int64) bool { return a != b }},
		{compiler.PrimGreater, func(a, b int64) bool { return a > b }},
		{compiler.PrimLess, func(a, b int64) bool { return a < b }},
		{compiler.PrimGreaterOrEqual, func(a, b int64) bool { return a >= b }},
		{compiler.PrimLessOrEqual, func(a, b int64) bool { return a <= b }},
	}
	s := newTestSession()
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(-8, 8).Draw(t, "a")
		b := rapid.Int64Range(-8, 8).Draw(t, "b")
		c := cmps[rapid.IntRange(0, len(cmps)-1).Draw(t, "cmp")]

		v, err := s.Evaluate(prim(c.prim, boolType, intLit(a), intLit(b)))
		if err != nil {
			t.Fatal(err)
		}
		if want := c.fn(a, b); v.Bool() != want {
			t.Fatalf("%d %s %d = %v, want %v", a, c.prim, b, v.Bool(), want)
		}
	})
}

func TestPropStoreThenLoad(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := NewEnvironment(NewRegistry())
		n := rapid.IntRange(1, 20).Draw(t, "stores")
		latest := make(map[int]int64)
		for i := 0; i < n; i++ {
			off := rapid.IntRange(0, 31).Draw(t, "offset")
			val := rapid.Int64().Draw(t, "value")
			if err := env.ValueStore(variable("v", intType, 0, off), FromInt(val)); err != nil {
				t.Fatal(err)
			}
			latest[off] = val
		}
		for off, want := range latest {
			v, err := env.ValueForVariable(variable("v", intType, 0, off))
			if err != nil {
				t.Fatalf("offset %d: %v", off, err)
			}
			if v.Int() != want {
				t.Fatalf("offset %d = %d, want %d", off, v.Int(), want)
			}
		}
	})
}

func TestPropWhileCountsToN(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(0, 50).Draw(t, "n")
		s := newTestSession()
		i := variable("i", intType, 0, 0)

		loop := &compiler.WhileDoStmt{
			Cond: prim(compiler.PrimLess, boolType, symRef(i), intLit(n)),
			Body: []compiler.Node{assign(i, prim(compiler.PrimAdd, intType, symRef(i), intLit(1)))},
		}
		v, err := s.Evaluate(block(def(i, intLit(0)), loop))
		if err != nil {
			t.Fatal(err)
		}
		if !v.IsVoid() {
			t.Fatalf("loop result = %v, want void", v)
		}
		got, err := s.Evaluate(symRef(i))
		if err != nil {
			t.Fatal(err)
		}
		if got.Int() != n {
			t.Fatalf("i = %d, want %d", got.Int(), n)
		}
	})
}
