package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Dump: s-expression rendering of a node for diagnostics
// ---------------------------------------------------------------------------

// Dump renders n as an indented s-expression.
func Dump(n Node) string {
	d := &dumper{indent: 3}
	d.node(n, 0)
	return strings.TrimRight(d.sb.String(), "\n")
}

// DumpSymbol renders a symbol reference the way Dump prints it inside nodes.
func DumpSymbol(s Symbol) string {
	if s == nil {
		return "<nil>"
	}
	switch sym := s.(type) {
	case *VarSymbol:
		if sym.Immediate != nil {
			return sym.Immediate.String()
		}
		return fmt.Sprintf("%s[%d:%d]", sym.Name, sym.Loc.Depth, sym.Loc.Offset)
	case *ArgSymbol:
		return fmt.Sprintf("arg %s[%d:%d]", sym.Name, sym.Loc.Depth, sym.Loc.Offset)
	case *FnSymbol:
		return "fn " + sym.Name
	}
	return s.SymName()
}

type dumper struct {
	sb     strings.Builder
	indent int
}

func (d *dumper) line(depth int, format string, args ...interface{}) {
	d.sb.WriteString(strings.Repeat(" ", depth*d.indent))
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteByte('\n')
}

func (d *dumper) node(n Node, depth int) {
	switch e := n.(type) {
	case nil:
		d.line(depth, "<nil>")
	case *SymExpr:
		d.line(depth, "(sym %s : %s)", DumpSymbol(e.Var), e.TypeInfo())
	case *DefExpr:
		if e.Fn != nil {
			d.line(depth, "(def %s", DumpSymbol(e.Sym))
			d.fn(e.Fn, depth+1)
			d.line(depth, ")")
			return
		}
		if e.Init == nil {
			d.line(depth, "(def %s : %s)", DumpSymbol(e.Sym), e.TypeInfo())
			return
		}
		d.line(depth, "(def %s : %s", DumpSymbol(e.Sym), e.TypeInfo())
		d.node(e.Init, depth+1)
		d.line(depth, ")")
	case *CallExpr:
		if e.Callee != nil {
			d.line(depth, "(call %s method=%d gen=%d : %s", DumpSymbol(e.Callee.Var), e.MethodID, e.Generation, e.Type)
		} else {
			d.line(depth, "(prim %s : %s", e.Prim, e.Type)
		}
		for _, arg := range e.Args {
			d.node(arg, depth+1)
		}
		d.line(depth, ")")
	case *CondStmt:
		d.line(depth, "(if")
		d.node(e.Cond, depth+1)
		d.node(e.Then, depth+1)
		if e.Else != nil {
			d.node(e.Else, depth+1)
		}
		d.line(depth, ")")
	case *WhileDoStmt:
		d.line(depth, "(while")
		d.node(e.Cond, depth+1)
		for _, stmt := range e.Body {
			d.node(stmt, depth+1)
		}
		d.line(depth, ")")
	case *BlockStmt:
		if len(e.Body) == 0 {
			d.line(depth, "(block)")
			return
		}
		d.line(depth, "(block")
		for _, stmt := range e.Body {
			d.node(stmt, depth+1)
		}
		d.line(depth, ")")
	default:
		d.line(depth, "(%T)", n)
	}
}

func (d *dumper) fn(fn *FnSymbol, depth int) {
	formals := make([]string, len(fn.Formals))
	for i, f := range fn.Formals {
		formals[i] = DumpSymbol(f)
	}
	d.line(depth, "(fn %s (%s) frame=%d", fn.Name, strings.Join(formals, " "), fn.FrameSize)
	if fn.Body != nil {
		d.node(fn.Body, depth+1)
	}
	d.line(depth, ")")
}
