package vm

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/ipe/compiler"
)

// ---------------------------------------------------------------------------
// Session: one compile-time evaluation session
// ---------------------------------------------------------------------------

// Options tune a session.
type Options struct {
	// DebugLevelCalls above 1 traces every arithmetic primitive.
	DebugLevelCalls int

	// WarnDuplicateMethods logs a warning when a function is registered on
	// a procedure that already holds it.
	WarnDuplicateMethods bool
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{WarnDuplicateMethods: true}
}

// Session owns the global environment and the procedure arena for the
// lifetime of an evaluation session. A Session is not safe for concurrent
// use; callers serialize access to it.
type Session struct {
	Registry *Registry
	Global   *Environment

	interp *Interpreter
	log    commonlog.Logger
}

// NewSession creates a session with an empty global environment.
func NewSession(opts Options) *Session {
	log := commonlog.GetLogger("ipe.vm")
	reg := NewRegistry()
	return &Session{
		Registry: reg,
		Global:   NewEnvironment(reg),
		interp:   NewInterpreter(opts, log),
		log:      log,
	}
}

// Declare implements compiler.Declarer so programs decode straight into the
// session's procedure arena.
func (s *Session) Declare(name string, generation uint64) compiler.ProcID {
	return s.Registry.Declare(name, generation)
}

// Evaluate evaluates node in the global environment.
func (s *Session) Evaluate(node compiler.Node) (Value, error) {
	return s.interp.Evaluate(node, s.Global)
}

// EvaluateIn evaluates node in env, which must belong to this session.
func (s *Session) EvaluateIn(node compiler.Node, env *Environment) (Value, error) {
	if env != nil && env.registry != s.Registry {
		return Void, faultf(UnresolvedVariable, node, "environment belongs to another session")
	}
	return s.interp.Evaluate(node, env)
}

// Run evaluates a decoded program's root in the global environment.
func (s *Session) Run(prog *compiler.Program) (Value, error) {
	if prog == nil || prog.Root == nil {
		return Void, fmt.Errorf("vm: program has no root")
	}
	s.log.Debugf("running program: %d symbol(s), %d procedure(s)", len(prog.Symbols), len(prog.Procedures))
	return s.Evaluate(prog.Root)
}

// Interpreter returns the session's interpreter.
func (s *Session) Interpreter() *Interpreter { return s.interp }
