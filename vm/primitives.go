package vm

import (
	"github.com/chazu/ipe/compiler"
)

// ---------------------------------------------------------------------------
// Primitive dispatch
// ---------------------------------------------------------------------------

func (in *Interpreter) evalPrim(call *compiler.CallExpr, env *Environment) (Value, error) {
	switch call.Prim {
	case compiler.PrimAddrOf:
		return in.primAddrOf(call, env)
	case compiler.PrimAssign:
		return in.primAssign(call, env)
	case compiler.PrimUnaryMinus:
		return in.primUnaryMinus(call, env)
	case compiler.PrimAdd, compiler.PrimSubtract, compiler.PrimMult, compiler.PrimDiv:
		return in.primArith(call, env)
	case compiler.PrimEqual, compiler.PrimNotEqual:
		return in.primEquality(call, env)
	case compiler.PrimGreater, compiler.PrimLess, compiler.PrimGreaterOrEqual, compiler.PrimLessOrEqual:
		return in.primOrder(call, env)
	case compiler.PrimReturn:
		return in.primReturn(call, env)
	}
	return Void, faultf(UnsupportedNode, call, "unsupported primitive %s", call.Prim)
}

// trace logs the primitive at debug level when call tracing is enabled.
func (in *Interpreter) trace(call *compiler.CallExpr) {
	if in.opts.DebugLevelCalls > 1 {
		in.log.Debugf("PRIM %s\n%s", call.Prim, compiler.Dump(call))
	}
}

func requireArity(call *compiler.CallExpr, n int) error {
	if call.NumActuals() != n {
		return faultf(UnsupportedNode, call, "primitive %s takes %d operand(s), got %d", call.Prim, n, call.NumActuals())
	}
	return nil
}

// operandKind maps the statically resolved dispatch type onto the closed
// set of types primitives operate on.
func operandKind(call *compiler.CallExpr, t *compiler.Type, allowed ...compiler.TypeKind) (compiler.TypeKind, error) {
	if t != nil {
		for _, k := range allowed {
			if t.Kind == k {
				return k, nil
			}
		}
	}
	return compiler.TypeOther, faultf(UnsupportedOperandType, call, "primitive %s on type %s", call.Prim, t)
}

// evalOperands evaluates the call's actuals and checks each has kind want.
func (in *Interpreter) evalOperands(call *compiler.CallExpr, env *Environment, want Kind) ([]Value, error) {
	vals := make([]Value, len(call.Args))
	for i, arg := range call.Args {
		v, err := in.eval(arg, env)
		if err != nil {
			return nil, err
		}
		if v.Kind() != want {
			return nil, faultf(UnsupportedOperandType, call, "primitive %s: operand %d is %s, want %s", call.Prim, i+1, v.Kind(), want)
		}
		vals[i] = v
	}
	return vals, nil
}

func valueKindFor(k compiler.TypeKind) Kind {
	switch k {
	case compiler.TypeBool:
		return KindBool
	case compiler.TypeInt:
		return KindInt
	case compiler.TypeReal:
		return KindReal
	}
	return KindVoid
}

// ---------------------------------------------------------------------------
// Storage primitives
// ---------------------------------------------------------------------------

// lvalue returns the variable an address-of or assignment operand names.
func lvalue(call *compiler.CallExpr, arg compiler.Expr, allowArgs bool) (compiler.Symbol, error) {
	se, ok := arg.(*compiler.SymExpr)
	if !ok || se.Var == nil {
		return nil, faultf(UnsupportedNode, call, "primitive %s: operand is not a variable reference", call.Prim)
	}
	switch sym := se.Var.(type) {
	case *compiler.VarSymbol:
		if sym.Immediate == nil && !sym.IsProcedure() {
			return sym, nil
		}
	case *compiler.ArgSymbol:
		if allowArgs {
			return sym, nil
		}
	}
	return nil, faultf(UnsupportedNode, call, "primitive %s: %s is not addressable", call.Prim, compiler.DumpSymbol(se.Var))
}

func (in *Interpreter) primAddrOf(call *compiler.CallExpr, env *Environment) (Value, error) {
	if err := requireArity(call, 1); err != nil {
		return Void, err
	}
	sym, err := lvalue(call, call.Get(1), false)
	if err != nil {
		return Void, err
	}
	v, err := env.AddrOf(sym)
	return v, attach(err, call)
}

func (in *Interpreter) primAssign(call *compiler.CallExpr, env *Environment) (Value, error) {
	if err := requireArity(call, 2); err != nil {
		return Void, err
	}
	dst, err := lvalue(call, call.Get(1), true)
	if err != nil {
		return Void, err
	}
	src, err := in.eval(call.Get(2), env)
	if err != nil {
		return Void, err
	}
	ref, err := env.Fetch(dst)
	if err != nil {
		return Void, attach(err, call)
	}
	*ref.Ref() = src
	return Void, nil
}

// primReturn yields its operand as the enclosing call's result. A return
// without a value is a control transfer, which is not supported.
func (in *Interpreter) primReturn(call *compiler.CallExpr, env *Environment) (Value, error) {
	switch call.NumActuals() {
	case 0:
		return Void, faultf(UnsupportedNode, call, "return without a value")
	case 1:
		return in.eval(call.Get(1), env)
	}
	return Void, faultf(UnsupportedNode, call, "return with %d operands", call.NumActuals())
}

// ---------------------------------------------------------------------------
// Arithmetic primitives
// ---------------------------------------------------------------------------

func (in *Interpreter) primUnaryMinus(call *compiler.CallExpr, env *Environment) (Value, error) {
	in.trace(call)
	if err := requireArity(call, 1); err != nil {
		return Void, err
	}
	kind, err := operandKind(call, call.Type, compiler.TypeInt, compiler.TypeReal)
	if err != nil {
		return Void, err
	}
	vals, err := in.evalOperands(call, env, valueKindFor(kind))
	if err != nil {
		return Void, err
	}
	if kind == compiler.TypeInt {
		return FromInt(intNegate(vals[0].Int())), nil
	}
	return FromReal(realNegate(vals[0].Real())), nil
}

func (in *Interpreter) primArith(call *compiler.CallExpr, env *Environment) (Value, error) {
	in.trace(call)
	if err := requireArity(call, 2); err != nil {
		return Void, err
	}
	kind, err := operandKind(call, call.Type, compiler.TypeInt, compiler.TypeReal)
	if err != nil {
		return Void, err
	}
	vals, err := in.evalOperands(call, env, valueKindFor(kind))
	if err != nil {
		return Void, err
	}
	if kind == compiler.TypeInt {
		n, err := intArith(call.Prim, vals[0].Int(), vals[1].Int())
		if err != nil {
			return Void, attach(err, call)
		}
		return FromInt(n), nil
	}
	return FromReal(realArith(call.Prim, vals[0].Real(), vals[1].Real())), nil
}

// ---------------------------------------------------------------------------
// Comparison primitives (dispatched on the first operand's type)
// ---------------------------------------------------------------------------

func (in *Interpreter) primEquality(call *compiler.CallExpr, env *Environment) (Value, error) {
	if err := requireArity(call, 2); err != nil {
		return Void, err
	}
	kind, err := operandKind(call, call.Get(1).TypeInfo(), compiler.TypeBool, compiler.TypeInt, compiler.TypeReal)
	if err != nil {
		return Void, err
	}
	vals, err := in.evalOperands(call, env, valueKindFor(kind))
	if err != nil {
		return Void, err
	}
	var eq bool
	switch kind {
	case compiler.TypeBool:
		eq = vals[0].Bool() == vals[1].Bool()
	case compiler.TypeInt:
		eq = intCompare(compiler.PrimEqual, vals[0].Int(), vals[1].Int())
	default:
		eq = realCompare(compiler.PrimEqual, vals[0].Real(), vals[1].Real())
	}
	if call.Prim == compiler.PrimNotEqual {
		eq = !eq
	}
	return FromBool(eq), nil
}

func (in *Interpreter) primOrder(call *compiler.CallExpr, env *Environment) (Value, error) {
	if err := requireArity(call, 2); err != nil {
		return Void, err
	}
	kind, err := operandKind(call, call.Get(1).TypeInfo(), compiler.TypeInt, compiler.TypeReal)
	if err != nil {
		return Void, err
	}
	vals, err := in.evalOperands(call, env, valueKindFor(kind))
	if err != nil {
		return Void, err
	}
	if kind == compiler.TypeInt {
		return FromBool(intCompare(call.Prim, vals[0].Int(), vals[1].Int())), nil
	}
	return FromBool(realCompare(call.Prim, vals[0].Real(), vals[1].Real())), nil
}
