package vm

import (
	"fmt"

	"github.com/chazu/ipe/compiler"
)

// ---------------------------------------------------------------------------
// Environment: activation frames and variable slots
// ---------------------------------------------------------------------------

// Environment is one activation frame. Frames form a chain through parent;
// a method activation's parent is the environment the method captured when
// it was defined. A frame owns its slots exclusively; parents are only read
// or written through symbol locations that name their depth.
type Environment struct {
	parent   *Environment
	depth    int
	slots    []*Value
	registry *Registry
}

// NewEnvironment creates a root (depth 0) environment whose procedure
// bindings resolve through registry.
func NewEnvironment(registry *Registry) *Environment {
	return &Environment{registry: registry}
}

// NewChild creates a frame one level deeper than e with room for size slots.
func (e *Environment) NewChild(size int) *Environment {
	if size < 0 {
		size = 0
	}
	return &Environment{
		parent:   e,
		depth:    e.depth + 1,
		slots:    make([]*Value, size),
		registry: e.registry,
	}
}

// Parent returns the enclosing frame, or nil for the root.
func (e *Environment) Parent() *Environment { return e.parent }

// Depth returns the lexical depth of the frame.
func (e *Environment) Depth() int { return e.depth }

// Registry returns the procedure arena the environment resolves against.
func (e *Environment) Registry() *Registry { return e.registry }

// frameFor returns the frame that owns loc.
func (e *Environment) frameFor(sym compiler.Symbol, loc compiler.Location) (*Environment, error) {
	if loc.Offset < 0 {
		return nil, faultf(UnresolvedVariable, nil, "%s has no storage offset", compiler.DumpSymbol(sym))
	}
	frame := e
	for frame != nil && frame.depth > loc.Depth {
		frame = frame.parent
	}
	if frame == nil || frame.depth != loc.Depth {
		return nil, faultf(UnresolvedVariable, nil, "%s: no frame at depth %d (current depth %d)",
			compiler.DumpSymbol(sym), loc.Depth, e.depth)
	}
	return frame, nil
}

// slot returns sym's slot, creating it when create is set.
func (e *Environment) slot(sym compiler.Symbol, create bool) (*Value, error) {
	loc, ok := compiler.LocationOf(sym)
	if !ok {
		return nil, faultf(UnresolvedVariable, nil, "%s has no storage location", compiler.DumpSymbol(sym))
	}
	frame, err := e.frameFor(sym, loc)
	if err != nil {
		return nil, err
	}
	if loc.Offset >= len(frame.slots) {
		if !create {
			return nil, faultf(UnresolvedVariable, nil, "%s was never stored", compiler.DumpSymbol(sym))
		}
		grown := make([]*Value, loc.Offset+1)
		copy(grown, frame.slots)
		frame.slots = grown
	}
	s := frame.slots[loc.Offset]
	if s == nil {
		if !create {
			return nil, faultf(UnresolvedVariable, nil, "%s was never stored", compiler.DumpSymbol(sym))
		}
		s = new(Value)
		frame.slots[loc.Offset] = s
	}
	return s, nil
}

// ValueForVariable returns the Value currently stored for sym. Immediates
// yield their constant.
func (e *Environment) ValueForVariable(sym compiler.Symbol) (Value, error) {
	if v, ok := sym.(*compiler.VarSymbol); ok && v.Immediate != nil {
		return immediateValue(*v.Immediate)
	}
	s, err := e.slot(sym, false)
	if err != nil {
		return Void, err
	}
	return *s, nil
}

// ValueStore writes value into sym's slot, creating the slot on first store.
func (e *Environment) ValueStore(sym compiler.Symbol, value Value) error {
	if v, ok := sym.(*compiler.VarSymbol); ok && v.Immediate != nil {
		return faultf(UnresolvedVariable, nil, "cannot store into immediate %s", compiler.DumpSymbol(sym))
	}
	s, err := e.slot(sym, true)
	if err != nil {
		return err
	}
	*s = value
	return nil
}

// Fetch returns a Ref to sym's slot.
func (e *Environment) Fetch(sym compiler.Symbol) (Value, error) {
	s, err := e.slot(sym, true)
	if err != nil {
		return Void, err
	}
	return RefTo(s), nil
}

// AddrOf returns a Ptr to sym's slot.
func (e *Environment) AddrOf(sym compiler.Symbol) (Value, error) {
	s, err := e.slot(sym, true)
	if err != nil {
		return Void, err
	}
	return PtrTo(s), nil
}

// FetchProcedure resolves a procedure-bound variable to its Procedure.
func (e *Environment) FetchProcedure(v *compiler.VarSymbol) (*Procedure, error) {
	if !v.IsProcedure() {
		return nil, faultf(UnsupportedNode, nil, "%s is not bound to a procedure", compiler.DumpSymbol(v))
	}
	if e.registry == nil {
		return nil, faultf(UnresolvedVariable, nil, "no procedure registry for %s", v.Name)
	}
	return e.registry.Procedure(v.Proc)
}

func immediateValue(im compiler.Immediate) (Value, error) {
	switch im.Kind {
	case compiler.TypeBool:
		return FromBool(im.Bool), nil
	case compiler.TypeInt:
		return FromInt(im.Int), nil
	case compiler.TypeReal:
		return FromReal(im.Real), nil
	case compiler.TypeVoid:
		return Void, nil
	}
	return Void, faultf(UnsupportedOperandType, nil, "no immediate of type %s", im.Kind)
}

func (e *Environment) String() string {
	used := 0
	for _, s := range e.slots {
		if s != nil {
			used++
		}
	}
	return fmt.Sprintf("Env{depth: %d, slots: %d/%d, parent: %v}", e.depth, used, len(e.slots), e.parent != nil)
}
