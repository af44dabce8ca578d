package vm

import (
	"fmt"
	"strings"

	"github.com/chazu/ipe/compiler"
)

// ---------------------------------------------------------------------------
// Method: one overload closed over its defining environment
// ---------------------------------------------------------------------------

// Method is one overload of a Procedure.
type Method struct {
	Fn  *compiler.FnSymbol
	Env *Environment // environment active where the method was defined
}

// NewMethod creates a Method closing over env.
func NewMethod(fn *compiler.FnSymbol, env *Environment) *Method {
	return &Method{Fn: fn, Env: env}
}

// ---------------------------------------------------------------------------
// Procedure: a named overload set with a generation counter
// ---------------------------------------------------------------------------

// Procedure is a named overload set. Insertion order of methods defines the
// method ids call sites are resolved against.
type Procedure struct {
	ID         compiler.ProcID
	Name       string
	generation uint64
	methods    []*Method
}

// Generation returns the current generation.
func (p *Procedure) Generation() uint64 { return p.generation }

// IsValid reports whether a call site that resolved against generation is
// still current.
func (p *Procedure) IsValid(generation uint64) bool {
	return p.generation == generation
}

// MethodAdd appends m to the overload list. No de-duplication is performed.
func (p *Procedure) MethodAdd(m *Method) {
	p.methods = append(p.methods, m)
}

// MethodGet returns the method with the given id.
func (p *Procedure) MethodGet(id int) (*Method, error) {
	if id < 0 || id >= len(p.methods) {
		return nil, faultf(InvalidMethodIndex, nil, "procedure %s has %d methods, no method %d", p.Name, len(p.methods), id)
	}
	return p.methods[id], nil
}

// NumMethods returns the size of the overload list.
func (p *Procedure) NumMethods() int { return len(p.methods) }

// hasFn reports whether fn is already registered.
func (p *Procedure) hasFn(fn *compiler.FnSymbol) bool {
	for _, m := range p.methods {
		if m.Fn == fn {
			return true
		}
	}
	return false
}

// Describe renders the overload set for diagnostics.
func (p *Procedure) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "procedure %s (id %d) generation %d, %d method(s)", p.Name, p.ID, p.generation, len(p.methods))
	for i, m := range p.methods {
		formals := make([]string, len(m.Fn.Formals))
		for j, f := range m.Fn.Formals {
			formals[j] = fmt.Sprintf("%s: %s", f.Name, f.Type)
		}
		fmt.Fprintf(&sb, "\n   %d: %s(%s) depth %d", i, m.Fn.Name, strings.Join(formals, ", "), m.Env.Depth())
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Registry: arena of procedures addressed by ProcID
// ---------------------------------------------------------------------------

// Registry owns every Procedure of a session.
type Registry struct {
	procs  []*Procedure
	byName map[string]compiler.ProcID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]compiler.ProcID)}
}

// Declare returns the handle of the procedure called name, creating it at
// generation if it does not exist yet.
func (r *Registry) Declare(name string, generation uint64) compiler.ProcID {
	if id, ok := r.byName[name]; ok {
		return id
	}
	id := compiler.ProcID(len(r.procs))
	r.procs = append(r.procs, &Procedure{ID: id, Name: name, generation: generation})
	r.byName[name] = id
	return id
}

// Procedure returns the procedure for id.
func (r *Registry) Procedure(id compiler.ProcID) (*Procedure, error) {
	if id < 0 || int(id) >= len(r.procs) {
		return nil, faultf(UnresolvedVariable, nil, "no procedure with id %d", id)
	}
	return r.procs[id], nil
}

// Lookup returns the procedure called name.
func (r *Registry) Lookup(name string) (*Procedure, bool) {
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.procs[id], true
}

// Invalidate advances the generation of procedure id, staling every call
// site resolved against an earlier generation.
func (r *Registry) Invalidate(id compiler.ProcID) error {
	p, err := r.Procedure(id)
	if err != nil {
		return err
	}
	p.generation++
	return nil
}

// Len returns the number of procedures.
func (r *Registry) Len() int { return len(r.procs) }
