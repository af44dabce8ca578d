package vm

import (
	"strings"
	"testing"

	"github.com/chazu/ipe/compiler"
)

func TestRegistryDeclare(t *testing.T) {
	r := NewRegistry()
	a := r.Declare("a", 3)
	b := r.Declare("b", 0)
	if a == b {
		t.Fatal("distinct procedures share a handle")
	}
	if again := r.Declare("a", 9); again != a {
		t.Errorf("redeclaring a returned %d, want %d", again, a)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}

	p, err := r.Procedure(a)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "a" || p.Generation() != 3 {
		t.Errorf("procedure = %s gen %d, want a gen 3", p.Name, p.Generation())
	}
	if got, ok := r.Lookup("b"); !ok || got.ID != b {
		t.Errorf("Lookup(b) = %v, %v", got, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) succeeded")
	}

	_, err = r.Procedure(compiler.ProcID(7))
	wantFault(t, err, UnresolvedVariable)
	_, err = r.Procedure(compiler.NoProc)
	wantFault(t, err, UnresolvedVariable)
}

func TestProcedureGeneration(t *testing.T) {
	r := NewRegistry()
	id := r.Declare("f", 1)
	p, _ := r.Procedure(id)

	if !p.IsValid(1) {
		t.Error("generation 1 should be valid")
	}
	if err := r.Invalidate(id); err != nil {
		t.Fatal(err)
	}
	if p.IsValid(1) {
		t.Error("generation 1 should be stale after Invalidate")
	}
	if !p.IsValid(2) {
		t.Error("generation 2 should be valid after Invalidate")
	}
	wantFault(t, r.Invalidate(compiler.ProcID(5)), UnresolvedVariable)
}

func TestProcedureMethods(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Procedure(r.Declare("f", 0))
	env := NewEnvironment(r)

	fn := &compiler.FnSymbol{Name: "f", Formals: []*compiler.ArgSymbol{formal("x", intType, 1, 0)}}
	p.MethodAdd(NewMethod(fn, env))
	p.MethodAdd(NewMethod(fn, env))

	// No de-duplication: insertion order defines ids.
	if p.NumMethods() != 2 {
		t.Fatalf("NumMethods = %d, want 2", p.NumMethods())
	}
	m, err := p.MethodGet(1)
	if err != nil {
		t.Fatal(err)
	}
	if m.Fn != fn || m.Env != env {
		t.Error("MethodGet(1) returned the wrong method")
	}

	for _, id := range []int{-1, 2} {
		_, err := p.MethodGet(id)
		wantFault(t, err, InvalidMethodIndex)
	}

	desc := p.Describe()
	for _, want := range []string{"procedure f", "generation 0", "2 method(s)", "x: int"} {
		if !strings.Contains(desc, want) {
			t.Errorf("Describe() = %q, missing %q", desc, want)
		}
	}
}
