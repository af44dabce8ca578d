package vm

import (
	"testing"

	"github.com/chazu/ipe/compiler"
)

func TestEnvironmentStoreThenLoad(t *testing.T) {
	env := NewEnvironment(NewRegistry())
	x := variable("x", intType, 0, 0)
	y := variable("y", realType, 0, 3)

	tests := []struct {
		sym *compiler.VarSymbol
		v   Value
	}{
		{x, FromInt(7)},
		{y, FromReal(2.5)},
		{x, FromInt(-1)},
	}
	for _, tt := range tests {
		if err := env.ValueStore(tt.sym, tt.v); err != nil {
			t.Fatalf("ValueStore(%s) failed: %v", tt.sym.Name, err)
		}
		got, err := env.ValueForVariable(tt.sym)
		if err != nil {
			t.Fatalf("ValueForVariable(%s) failed: %v", tt.sym.Name, err)
		}
		if got != tt.v {
			t.Errorf("%s = %v, want %v", tt.sym.Name, got, tt.v)
		}
	}
}

func TestEnvironmentUnstoredVariable(t *testing.T) {
	env := NewEnvironment(NewRegistry())

	_, err := env.ValueForVariable(variable("x", intType, 0, 0))
	wantFault(t, err, UnresolvedVariable)

	// A slot beyond the frame and a hole inside it are both unresolved.
	if err := env.ValueStore(variable("z", intType, 0, 4), FromInt(1)); err != nil {
		t.Fatal(err)
	}
	_, err = env.ValueForVariable(variable("w", intType, 0, 2))
	wantFault(t, err, UnresolvedVariable)
}

func TestEnvironmentNegativeOffset(t *testing.T) {
	env := NewEnvironment(NewRegistry())
	x := variable("x", intType, 0, -1)

	wantFault(t, env.ValueStore(x, FromInt(1)), UnresolvedVariable)
	_, err := env.ValueForVariable(x)
	wantFault(t, err, UnresolvedVariable)
}

func TestEnvironmentImmediates(t *testing.T) {
	env := NewEnvironment(NewRegistry())
	lit := intLit(42).Var

	v, err := env.ValueForVariable(lit)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 42 {
		t.Errorf("immediate = %v, want 42", v)
	}
	wantFault(t, env.ValueStore(lit, FromInt(1)), UnresolvedVariable)
}

func TestEnvironmentParentChain(t *testing.T) {
	global := NewEnvironment(NewRegistry())
	g := variable("g", intType, 0, 0)
	if err := global.ValueStore(g, FromInt(10)); err != nil {
		t.Fatal(err)
	}

	child := global.NewChild(2)
	if child.Depth() != 1 || child.Parent() != global {
		t.Fatalf("child depth = %d, parent = %p", child.Depth(), child.Parent())
	}
	local := variable("l", intType, 1, 0)
	if err := child.ValueStore(local, FromInt(3)); err != nil {
		t.Fatal(err)
	}

	// Globals resolve through the chain.
	v, err := child.ValueForVariable(g)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 10 {
		t.Errorf("g via child = %v, want 10", v)
	}

	// The parent cannot see frames deeper than itself.
	_, err = global.ValueForVariable(local)
	wantFault(t, err, UnresolvedVariable)

	// Sibling frames do not share slots.
	sibling := global.NewChild(2)
	_, err = sibling.ValueForVariable(local)
	wantFault(t, err, UnresolvedVariable)
}

func TestEnvironmentFetchAndAddrOfShareSlot(t *testing.T) {
	env := NewEnvironment(NewRegistry())
	x := variable("x", intType, 0, 1)

	ref, err := env.Fetch(x)
	if err != nil {
		t.Fatal(err)
	}
	*ref.Ref() = FromInt(99)

	v, err := env.ValueForVariable(x)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 99 {
		t.Errorf("x = %v after write through Fetch, want 99", v)
	}

	ptr, err := env.AddrOf(x)
	if err != nil {
		t.Fatal(err)
	}
	if ptr.Ptr() != ref.Ref() {
		t.Error("AddrOf and Fetch address different slots")
	}

	// Growing the frame must not move existing slots.
	if err := env.ValueStore(variable("far", intType, 0, 100), FromInt(0)); err != nil {
		t.Fatal(err)
	}
	if ptr.Ptr().Int() != 99 {
		t.Error("slot moved when the frame grew")
	}
}

func TestEnvironmentFetchProcedure(t *testing.T) {
	s := newTestSession()
	f, proc := procVar(s, "f")

	got, err := s.Global.FetchProcedure(f)
	if err != nil {
		t.Fatal(err)
	}
	if got != proc {
		t.Errorf("FetchProcedure returned %p, want %p", got, proc)
	}

	_, err = s.Global.FetchProcedure(variable("x", intType, 0, 0))
	wantFault(t, err, UnsupportedNode)
}
