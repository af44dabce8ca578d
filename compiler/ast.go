package compiler

// ---------------------------------------------------------------------------
// AST: the resolved, annotated tree handed to the compile-time evaluator
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all AST nodes.
//
// The set of node kinds is closed: only the types in this file implement
// the unexported marker method, so a type switch over them in the evaluator
// is exhaustive.
type Node interface {
	Span() Span
	node() // marker method
}

// Expr is a node that produces a value when evaluated.
type Expr interface {
	Node
	// TypeInfo returns the statically resolved type of the expression.
	TypeInfo() *Type
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// SymExpr is a reference to a symbol (variable, formal or immediate).
type SymExpr struct {
	SpanVal Span
	Var     Symbol
}

func (n *SymExpr) Span() Span { return n.SpanVal }
func (n *SymExpr) node()      {}

// TypeInfo returns the referenced symbol's type.
func (n *SymExpr) TypeInfo() *Type {
	if n.Var == nil {
		return nil
	}
	return n.Var.SymType()
}

// DefExpr declares a symbol. A DefExpr whose Fn is set defines one method of
// the procedure bound to Sym; otherwise it declares the variable Sym with an
// optional initializer.
type DefExpr struct {
	SpanVal Span
	Sym     Symbol
	Init    Expr      // nil when the variable takes its type's default
	Fn      *FnSymbol // non-nil for procedure-valued declarations
}

func (n *DefExpr) Span() Span { return n.SpanVal }
func (n *DefExpr) node()      {}

// TypeInfo returns the declared symbol's type.
func (n *DefExpr) TypeInfo() *Type {
	if n.Sym == nil {
		return nil
	}
	return n.Sym.SymType()
}

// CallExpr is either a user call (Callee set) bound at resolution time to a
// method id and procedure generation, or a primitive operation (Callee nil).
type CallExpr struct {
	SpanVal    Span
	Callee     *SymExpr
	Prim       Prim
	Args       []Expr
	Type       *Type  // resolved result type
	MethodID   int    // index into the callee procedure's overload list
	Generation uint64 // callee's generation observed at resolution time
}

func (n *CallExpr) Span() Span      { return n.SpanVal }
func (n *CallExpr) node()           {}
func (n *CallExpr) TypeInfo() *Type { return n.Type }

// IsPrimitive reports whether the call is the primitive p.
func (n *CallExpr) IsPrimitive(p Prim) bool {
	return n.Callee == nil && n.Prim == p
}

// NumActuals returns the number of actual arguments.
func (n *CallExpr) NumActuals() int { return len(n.Args) }

// Get returns the i'th actual, 1-based, or nil when out of range.
func (n *CallExpr) Get(i int) Expr {
	if i < 1 || i > len(n.Args) {
		return nil
	}
	return n.Args[i-1]
}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// CondStmt is an if/then/else statement. Else may be nil.
type CondStmt struct {
	SpanVal Span
	Cond    Expr
	Then    Node
	Else    Node
}

func (n *CondStmt) Span() Span { return n.SpanVal }
func (n *CondStmt) node()      {}

// WhileDoStmt is a pretest loop.
type WhileDoStmt struct {
	SpanVal Span
	Cond    Expr
	Body    []Node
}

func (n *WhileDoStmt) Span() Span { return n.SpanVal }
func (n *WhileDoStmt) node()      {}

// BlockStmt is a sequence of statements.
type BlockStmt struct {
	SpanVal Span
	Body    []Node
}

func (n *BlockStmt) Span() Span { return n.SpanVal }
func (n *BlockStmt) node()      {}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

// Program is a decoded compilation unit: its root node plus the tables the
// nodes point into.
type Program struct {
	Root       Node
	Types      []*Type
	Symbols    []Symbol
	Procedures []ProcedureDecl
}

// ProcedureDecl names a procedure visible to the program and the handle the
// Declarer assigned to it.
type ProcedureDecl struct {
	Name       string
	Generation uint64
	ID         ProcID
}

// Lookup returns the symbol with the given name, or nil.
func (p *Program) Lookup(name string) Symbol {
	for _, s := range p.Symbols {
		if s.SymName() == name {
			return s
		}
	}
	return nil
}
