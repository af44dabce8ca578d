package compiler

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// TypeKind classifies a resolved type for evaluator dispatch.
type TypeKind int

const (
	TypeOther TypeKind = iota
	TypeVoid
	TypeBool
	TypeInt
	TypeReal
	TypeProcedure
)

var typeKindNames = map[TypeKind]string{
	TypeOther:     "other",
	TypeVoid:      "void",
	TypeBool:      "bool",
	TypeInt:       "int",
	TypeReal:      "real",
	TypeProcedure: "procedure",
}

func (k TypeKind) String() string {
	if name, ok := typeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// ParseTypeKind maps a kind name back to its TypeKind.
func ParseTypeKind(name string) (TypeKind, bool) {
	for k, n := range typeKindNames {
		if n == name {
			return k, true
		}
	}
	return TypeOther, false
}

// Type is a resolved type.
type Type struct {
	Name string
	Kind TypeKind

	// DefaultValue is the immediate an uninitialized variable of this type
	// takes. Nil for types that cannot appear uninitialized.
	DefaultValue *VarSymbol
}

func (t *Type) String() string {
	if t == nil {
		return "<untyped>"
	}
	return t.Name
}

// ---------------------------------------------------------------------------
// Symbols
// ---------------------------------------------------------------------------

// ProcID is a stable handle into a session's procedure arena.
type ProcID int

// NoProc marks a symbol that is not bound to a procedure.
const NoProc ProcID = -1

// Declarer assigns procedure handles while a program is decoded.
type Declarer interface {
	Declare(name string, generation uint64) ProcID
}

// Symbol is implemented by every symbol kind an AST node can reference.
type Symbol interface {
	SymName() string
	SymType() *Type
	symbol() // marker method
}

// Location addresses a storage slot: the lexical depth of the owning frame
// and the offset of the slot within it. Offsets are assigned upstream; a
// negative offset means none was assigned.
type Location struct {
	Depth  int
	Offset int
}

// Immediate is the constant payload of a literal symbol.
type Immediate struct {
	Kind TypeKind
	Bool bool
	Int  int64
	Real float64
}

func (im Immediate) String() string {
	switch im.Kind {
	case TypeBool:
		return strconv.FormatBool(im.Bool)
	case TypeInt:
		return strconv.FormatInt(im.Int, 10)
	case TypeReal:
		return strconv.FormatFloat(im.Real, 'g', -1, 64)
	}
	return "void"
}

// VarSymbol is a variable, a literal (Immediate set), or a procedure binding
// (Proc set).
type VarSymbol struct {
	Name      string
	Type      *Type
	Loc       Location
	Immediate *Immediate
	Proc      ProcID
}

func (s *VarSymbol) SymName() string { return s.Name }
func (s *VarSymbol) SymType() *Type  { return s.Type }
func (s *VarSymbol) symbol()         {}

// IsProcedure reports whether the variable is bound to a procedure.
func (s *VarSymbol) IsProcedure() bool {
	return s.Type != nil && s.Type.Kind == TypeProcedure && s.Proc != NoProc
}

// ArgSymbol is a formal parameter of a function.
type ArgSymbol struct {
	Name string
	Type *Type
	Loc  Location
}

func (s *ArgSymbol) SymName() string { return s.Name }
func (s *ArgSymbol) SymType() *Type  { return s.Type }
func (s *ArgSymbol) symbol()         {}

// FnSymbol is a function body: its formals, the frame size of an activation,
// and the body to evaluate.
type FnSymbol struct {
	Name      string
	Formals   []*ArgSymbol
	FrameSize int
	Body      *BlockStmt
	RetType   *Type
}

func (s *FnSymbol) SymName() string { return s.Name }
func (s *FnSymbol) SymType() *Type  { return s.RetType }
func (s *FnSymbol) symbol()         {}

// LocationOf returns the storage location of a symbol that has one.
func LocationOf(sym Symbol) (Location, bool) {
	switch s := sym.(type) {
	case *VarSymbol:
		return s.Loc, s.Immediate == nil
	case *ArgSymbol:
		return s.Loc, true
	}
	return Location{}, false
}
