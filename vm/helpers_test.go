package vm

import (
	"errors"
	"testing"

	"github.com/chazu/ipe/compiler"
)

// ---------------------------------------------------------------------------
// Shared builders for hand-annotated trees.
// ---------------------------------------------------------------------------

var (
	intZero  = &compiler.VarSymbol{Name: "0", Loc: compiler.Location{Offset: -1}, Immediate: &compiler.Immediate{Kind: compiler.TypeInt}, Proc: compiler.NoProc}
	realZero = &compiler.VarSymbol{Name: "0.0", Loc: compiler.Location{Offset: -1}, Immediate: &compiler.Immediate{Kind: compiler.TypeReal}, Proc: compiler.NoProc}
	boolZero = &compiler.VarSymbol{Name: "false", Loc: compiler.Location{Offset: -1}, Immediate: &compiler.Immediate{Kind: compiler.TypeBool}, Proc: compiler.NoProc}

	intType   = &compiler.Type{Name: "int", Kind: compiler.TypeInt, DefaultValue: intZero}
	realType  = &compiler.Type{Name: "real", Kind: compiler.TypeReal, DefaultValue: realZero}
	boolType  = &compiler.Type{Name: "bool", Kind: compiler.TypeBool, DefaultValue: boolZero}
	procType  = &compiler.Type{Name: "procedure", Kind: compiler.TypeProcedure}
	otherType = &compiler.Type{Name: "string", Kind: compiler.TypeOther}
)

func init() {
	intZero.Type = intType
	realZero.Type = realType
	boolZero.Type = boolType
}

func intLit(n int64) *compiler.SymExpr {
	return symRef(&compiler.VarSymbol{
		Name: "imm", Type: intType, Loc: compiler.Location{Offset: -1},
		Immediate: &compiler.Immediate{Kind: compiler.TypeInt, Int: n}, Proc: compiler.NoProc,
	})
}

func realLit(f float64) *compiler.SymExpr {
	return symRef(&compiler.VarSymbol{
		Name: "imm", Type: realType, Loc: compiler.Location{Offset: -1},
		Immediate: &compiler.Immediate{Kind: compiler.TypeReal, Real: f}, Proc: compiler.NoProc,
	})
}

func boolLit(b bool) *compiler.SymExpr {
	return symRef(&compiler.VarSymbol{
		Name: "imm", Type: boolType, Loc: compiler.Location{Offset: -1},
		Immediate: &compiler.Immediate{Kind: compiler.TypeBool, Bool: b}, Proc: compiler.NoProc,
	})
}

func variable(name string, t *compiler.Type, depth, offset int) *compiler.VarSymbol {
	return &compiler.VarSymbol{Name: name, Type: t, Loc: compiler.Location{Depth: depth, Offset: offset}, Proc: compiler.NoProc}
}

func formal(name string, t *compiler.Type, depth, offset int) *compiler.ArgSymbol {
	return &compiler.ArgSymbol{Name: name, Type: t, Loc: compiler.Location{Depth: depth, Offset: offset}}
}

func symRef(sym compiler.Symbol) *compiler.SymExpr {
	return &compiler.SymExpr{Var: sym}
}

func prim(p compiler.Prim, t *compiler.Type, args ...compiler.Expr) *compiler.CallExpr {
	return &compiler.CallExpr{Prim: p, Type: t, Args: args}
}

func def(sym compiler.Symbol, init compiler.Expr) *compiler.DefExpr {
	return &compiler.DefExpr{Sym: sym, Init: init}
}

func assign(sym compiler.Symbol, src compiler.Expr) *compiler.CallExpr {
	return prim(compiler.PrimAssign, nil, symRef(sym), src)
}

func block(stmts ...compiler.Node) *compiler.BlockStmt {
	return &compiler.BlockStmt{Body: stmts}
}

// procVar declares a procedure in s and returns a variable bound to it.
func procVar(s *Session, name string) (*compiler.VarSymbol, *Procedure) {
	id := s.Registry.Declare(name, 0)
	p, _ := s.Registry.Procedure(id)
	return &compiler.VarSymbol{Name: name, Type: procType, Loc: compiler.Location{Offset: int(id)}, Proc: id}, p
}

func userCall(callee *compiler.VarSymbol, method int, generation uint64, ret *compiler.Type, args ...compiler.Expr) *compiler.CallExpr {
	return &compiler.CallExpr{Callee: symRef(callee), MethodID: method, Generation: generation, Type: ret, Args: args}
}

func newTestSession() *Session {
	return NewSession(DefaultOptions())
}

func mustEval(t *testing.T, s *Session, node compiler.Node) Value {
	t.Helper()
	v, err := s.Evaluate(node)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return v
}

// wantFault asserts err is an *InternalError of kind.
func wantFault(t *testing.T, err error, kind ErrorKind) *InternalError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil error", kind)
	}
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InternalError, got %T: %v", err, err)
	}
	if ie.Kind != kind {
		t.Fatalf("error kind = %s, want %s (%v)", ie.Kind, kind, err)
	}
	if !errors.Is(err, kindSentinels[kind]) {
		t.Fatalf("errors.Is(err, %v) = false", kindSentinels[kind])
	}
	return ie
}
