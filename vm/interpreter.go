package vm

import (
	"errors"

	"github.com/tliron/commonlog"

	"github.com/chazu/ipe/compiler"
)

// ---------------------------------------------------------------------------
// Interpreter: recursive evaluation of annotated nodes
// ---------------------------------------------------------------------------

// Interpreter evaluates annotated nodes against an Environment.
type Interpreter struct {
	opts Options
	log  commonlog.Logger
}

// NewInterpreter creates an interpreter. A nil logger selects the package
// logger.
func NewInterpreter(opts Options, log commonlog.Logger) *Interpreter {
	if log == nil {
		log = commonlog.GetLogger("ipe.vm")
	}
	return &Interpreter{opts: opts, log: log}
}

// Evaluate evaluates node in env. Any failure is an *InternalError.
func (in *Interpreter) Evaluate(node compiler.Node, env *Environment) (Value, error) {
	if env == nil {
		return Void, faultf(UnresolvedVariable, node, "evaluate: nil environment")
	}
	v, err := in.eval(node, env)
	if err != nil {
		in.log.Errorf("%s", err)
		return Void, err
	}
	return v, nil
}

// attach records node as the offending node of an internal error raised by
// an operation that had no node of its own.
func attach(err error, node compiler.Node) error {
	if err == nil {
		return nil
	}
	var ie *InternalError
	if errors.As(err, &ie) && ie.Node == nil {
		ie.Node = node
	}
	return err
}

func (in *Interpreter) eval(node compiler.Node, env *Environment) (Value, error) {
	switch n := node.(type) {
	case *compiler.SymExpr:
		if n.Var == nil {
			return Void, faultf(UnresolvedVariable, n, "symbol reference without a symbol")
		}
		v, err := env.ValueForVariable(n.Var)
		return v, attach(err, n)
	case *compiler.DefExpr:
		return in.evalDef(n, env)
	case *compiler.CallExpr:
		return in.evalCallExpr(n, env)
	case *compiler.CondStmt:
		return in.evalCond(n, env)
	case *compiler.WhileDoStmt:
		return in.evalWhileDo(n, env)
	case *compiler.BlockStmt:
		return in.evalBlock(n, env)
	}
	return Void, faultf(UnsupportedNode, node, "evaluate: unsupported node %T", node)
}

// evalBool evaluates e and requires a bool result.
func (in *Interpreter) evalBool(e compiler.Expr, env *Environment) (bool, error) {
	if e == nil {
		return false, faultf(UnsupportedNode, nil, "missing condition")
	}
	v, err := in.eval(e, env)
	if err != nil {
		return false, err
	}
	if !v.IsBool() {
		return false, faultf(UnsupportedOperandType, e, "condition is %s, not bool", v.Kind())
	}
	return v.Bool(), nil
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (in *Interpreter) evalDef(def *compiler.DefExpr, env *Environment) (Value, error) {
	if def.Fn != nil {
		return Void, in.defineMethod(def, env)
	}

	v, ok := def.Sym.(*compiler.VarSymbol)
	if !ok || v.Immediate != nil {
		return Void, faultf(UnsupportedNode, def, "declaration of %s", compiler.DumpSymbol(def.Sym))
	}
	if v.Loc.Offset < 0 {
		return Void, faultf(UnresolvedVariable, def, "variable %s has no storage offset", v.Name)
	}

	var value Value
	if def.Init == nil {
		if v.Type == nil || v.Type.DefaultValue == nil {
			return Void, faultf(UnresolvedVariable, def, "type %s of %s has no default value", v.Type, v.Name)
		}
		dv, err := env.ValueForVariable(v.Type.DefaultValue)
		if err != nil {
			return Void, attach(err, def)
		}
		value = dv
	} else {
		iv, err := in.eval(def.Init, env)
		if err != nil {
			return Void, err
		}
		value = iv
	}
	return Void, attach(env.ValueStore(v, value), def)
}

func (in *Interpreter) defineMethod(def *compiler.DefExpr, env *Environment) error {
	v, ok := def.Sym.(*compiler.VarSymbol)
	if !ok || v.Type == nil || v.Type.Kind != compiler.TypeProcedure {
		return faultf(UnsupportedNode, def, "function defined on non-procedure %s", compiler.DumpSymbol(def.Sym))
	}
	proc, err := env.FetchProcedure(v)
	if err != nil {
		return attach(err, def)
	}
	if in.opts.WarnDuplicateMethods && proc.hasFn(def.Fn) {
		in.log.Warningf("procedure %s: %s registered again as method %d", proc.Name, def.Fn.Name, proc.NumMethods())
	}
	proc.MethodAdd(NewMethod(def.Fn, env))
	return nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (in *Interpreter) evalCond(stmt *compiler.CondStmt, env *Environment) (Value, error) {
	cond, err := in.evalBool(stmt.Cond, env)
	if err != nil {
		return Void, attach(err, stmt)
	}
	if cond {
		return in.eval(stmt.Then, env)
	}
	if stmt.Else != nil {
		return in.eval(stmt.Else, env)
	}
	return Void, nil
}

// evalWhileDo runs the loop. The loop itself always yields Void.
func (in *Interpreter) evalWhileDo(stmt *compiler.WhileDoStmt, env *Environment) (Value, error) {
	for {
		proceed, err := in.evalBool(stmt.Cond, env)
		if err != nil {
			return Void, attach(err, stmt)
		}
		if !proceed {
			return Void, nil
		}
		for _, body := range stmt.Body {
			if _, err := in.eval(body, env); err != nil {
				return Void, err
			}
		}
	}
}

func (in *Interpreter) evalBlock(block *compiler.BlockStmt, env *Environment) (Value, error) {
	result := Void
	for _, stmt := range block.Body {
		v, err := in.eval(stmt, env)
		if err != nil {
			return Void, err
		}
		result = v
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

func (in *Interpreter) evalCallExpr(call *compiler.CallExpr, env *Environment) (Value, error) {
	if call.Callee != nil {
		return in.evalCall(call, env)
	}
	return in.evalPrim(call, env)
}

func (in *Interpreter) evalCall(call *compiler.CallExpr, env *Environment) (Value, error) {
	v, ok := call.Callee.Var.(*compiler.VarSymbol)
	if !ok || !v.IsProcedure() {
		return Void, faultf(UnsupportedNode, call, "callee %s is not a procedure", compiler.DumpSymbol(call.Callee.Var))
	}
	proc, err := env.FetchProcedure(v)
	if err != nil {
		return Void, attach(err, call)
	}
	if !proc.IsValid(call.Generation) {
		return Void, faultf(StaleBinding, call, "call resolved against generation %d, %s",
			call.Generation, proc.Describe())
	}
	method, err := proc.MethodGet(call.MethodID)
	if err != nil {
		return Void, attach(err, call)
	}
	return method.Apply(in, call, env)
}

// Apply binds the call's actuals, evaluated in env, to the method's formals
// in a new activation whose parent is the method's defining environment,
// then evaluates the body there.
func (m *Method) Apply(in *Interpreter, call *compiler.CallExpr, env *Environment) (Value, error) {
	if len(call.Args) != len(m.Fn.Formals) {
		return Void, faultf(UnsupportedNode, call, "%s takes %d argument(s), call passes %d",
			m.Fn.Name, len(m.Fn.Formals), len(call.Args))
	}
	frame := m.Env.NewChild(m.Fn.FrameSize)
	for i, formal := range m.Fn.Formals {
		actual, err := in.eval(call.Args[i], env)
		if err != nil {
			return Void, err
		}
		if err := frame.ValueStore(formal, actual); err != nil {
			return Void, attach(err, call)
		}
	}
	if m.Fn.Body == nil {
		return Void, nil
	}
	return in.eval(m.Fn.Body, frame)
}
