package compiler

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Wire format: annotated programs as CBOR or YAML documents
// ---------------------------------------------------------------------------

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireProgram struct {
	Types      []wireType      `cbor:"types" yaml:"types"`
	Procedures []wireProcedure `cbor:"procedures,omitempty" yaml:"procedures,omitempty"`
	Symbols    []wireSymbol    `cbor:"symbols" yaml:"symbols"`
	Root       *wireNode       `cbor:"root" yaml:"root"`
}

type wireType struct {
	Name    string `cbor:"name" yaml:"name"`
	Kind    string `cbor:"kind" yaml:"kind"`
	Default string `cbor:"default,omitempty" yaml:"default,omitempty"`
}

type wireProcedure struct {
	Name       string `cbor:"name" yaml:"name"`
	Generation uint64 `cbor:"generation" yaml:"generation"`
}

// Symbol kinds on the wire.
const (
	wireSymVar  = "var"
	wireSymArg  = "arg"
	wireSymImm  = "imm"
	wireSymProc = "proc"
)

type wireSymbol struct {
	Name      string `cbor:"name" yaml:"name"`
	Kind      string `cbor:"kind" yaml:"kind"`
	Type      string `cbor:"type" yaml:"type"`
	Depth     int    `cbor:"depth,omitempty" yaml:"depth,omitempty"`
	Offset    int    `cbor:"offset" yaml:"offset"`
	Value     string `cbor:"value,omitempty" yaml:"value,omitempty"`
	Procedure string `cbor:"procedure,omitempty" yaml:"procedure,omitempty"`
}

// Node kinds on the wire.
const (
	wireNodeSym   = "sym"
	wireNodeDef   = "def"
	wireNodeCall  = "call"
	wireNodePrim  = "prim"
	wireNodeIf    = "if"
	wireNodeWhile = "while"
	wireNodeBlock = "block"
)

type wireNode struct {
	Kind   string `cbor:"kind" yaml:"kind"`
	Line   int    `cbor:"line,omitempty" yaml:"line,omitempty"`
	Column int    `cbor:"column,omitempty" yaml:"column,omitempty"`

	Sym  string    `cbor:"sym,omitempty" yaml:"sym,omitempty"`
	Init *wireNode `cbor:"init,omitempty" yaml:"init,omitempty"`
	Fn   *wireFn   `cbor:"fn,omitempty" yaml:"fn,omitempty"`

	Callee     string      `cbor:"callee,omitempty" yaml:"callee,omitempty"`
	Method     int         `cbor:"method,omitempty" yaml:"method,omitempty"`
	Generation uint64      `cbor:"generation,omitempty" yaml:"generation,omitempty"`
	Prim       string      `cbor:"prim,omitempty" yaml:"prim,omitempty"`
	Type       string      `cbor:"type,omitempty" yaml:"type,omitempty"`
	Args       []*wireNode `cbor:"args,omitempty" yaml:"args,omitempty"`

	Cond *wireNode   `cbor:"cond,omitempty" yaml:"cond,omitempty"`
	Then *wireNode   `cbor:"then,omitempty" yaml:"then,omitempty"`
	Else *wireNode   `cbor:"else,omitempty" yaml:"else,omitempty"`
	Body []*wireNode `cbor:"body,omitempty" yaml:"body,omitempty"`
}

type wireFn struct {
	Name      string      `cbor:"name" yaml:"name"`
	Formals   []string    `cbor:"formals,omitempty" yaml:"formals,omitempty"`
	FrameSize int         `cbor:"frame-size" yaml:"frame-size"`
	Returns   string      `cbor:"returns,omitempty" yaml:"returns,omitempty"`
	Body      []*wireNode `cbor:"body,omitempty" yaml:"body,omitempty"`
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeCBOR decodes a CBOR program, declaring its procedures through d.
func DecodeCBOR(data []byte, d Declarer) (*Program, error) {
	var wp wireProgram
	if err := cbor.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("compiler: unmarshal program: %w", err)
	}
	return wp.resolve(d)
}

// DecodeYAML decodes a YAML program, declaring its procedures through d.
// Unknown fields are rejected.
func DecodeYAML(data []byte, d Declarer) (*Program, error) {
	var wp wireProgram
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wp); err != nil {
		return nil, fmt.Errorf("compiler: parse program: %w", err)
	}
	return wp.resolve(d)
}

type resolver struct {
	types   map[string]*Type
	symbols map[string]Symbol
	procs   map[string]int // index into the wire procedure table
	bound   []boundProc
	prog    *Program
}

// boundProc is a procedure-typed variable waiting for its handle.
type boundProc struct {
	sym  *VarSymbol
	proc int
}

func (wp *wireProgram) resolve(d Declarer) (*Program, error) {
	if d == nil {
		return nil, fmt.Errorf("compiler: nil declarer")
	}
	r := &resolver{
		types:   make(map[string]*Type),
		symbols: make(map[string]Symbol),
		procs:   make(map[string]int),
		prog:    &Program{},
	}

	for _, wt := range wp.Types {
		kind, ok := ParseTypeKind(wt.Kind)
		if !ok {
			return nil, fmt.Errorf("compiler: type %q: unknown kind %q", wt.Name, wt.Kind)
		}
		if _, dup := r.types[wt.Name]; dup {
			return nil, fmt.Errorf("compiler: duplicate type %q", wt.Name)
		}
		t := &Type{Name: wt.Name, Kind: kind}
		r.types[wt.Name] = t
		r.prog.Types = append(r.prog.Types, t)
	}

	for i, wproc := range wp.Procedures {
		if _, dup := r.procs[wproc.Name]; dup {
			return nil, fmt.Errorf("compiler: duplicate procedure %q", wproc.Name)
		}
		r.procs[wproc.Name] = i
	}

	for _, ws := range wp.Symbols {
		sym, err := r.symbol(ws)
		if err != nil {
			return nil, err
		}
		if _, dup := r.symbols[ws.Name]; dup {
			return nil, fmt.Errorf("compiler: duplicate symbol %q", ws.Name)
		}
		r.symbols[ws.Name] = sym
		r.prog.Symbols = append(r.prog.Symbols, sym)
	}

	// Defaults refer to immediates, so they are linked after the symbol table.
	for _, wt := range wp.Types {
		if wt.Default == "" {
			continue
		}
		sym, ok := r.symbols[wt.Default].(*VarSymbol)
		if !ok || sym.Immediate == nil {
			return nil, fmt.Errorf("compiler: type %q: default %q is not an immediate", wt.Name, wt.Default)
		}
		r.types[wt.Name].DefaultValue = sym
	}

	if wp.Root == nil {
		return nil, fmt.Errorf("compiler: program has no root")
	}
	root, err := r.node(wp.Root)
	if err != nil {
		return nil, err
	}
	r.prog.Root = root

	// Procedures reach the declarer only once the whole program resolved, so
	// a rejected program leaves no trace in it.
	ids := make([]ProcID, len(wp.Procedures))
	for i, wproc := range wp.Procedures {
		ids[i] = d.Declare(wproc.Name, wproc.Generation)
		r.prog.Procedures = append(r.prog.Procedures, ProcedureDecl{
			Name:       wproc.Name,
			Generation: wproc.Generation,
			ID:         ids[i],
		})
	}
	for _, b := range r.bound {
		b.sym.Proc = ids[b.proc]
	}
	return r.prog, nil
}

func (r *resolver) typ(name string) (*Type, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("compiler: unknown type %q", name)
	}
	return t, nil
}

func (r *resolver) symbol(ws wireSymbol) (Symbol, error) {
	t, err := r.typ(ws.Type)
	if err != nil {
		return nil, fmt.Errorf("compiler: symbol %q: %w", ws.Name, err)
	}
	loc := Location{Depth: ws.Depth, Offset: ws.Offset}

	switch ws.Kind {
	case wireSymVar:
		return &VarSymbol{Name: ws.Name, Type: t, Loc: loc, Proc: NoProc}, nil
	case wireSymArg:
		return &ArgSymbol{Name: ws.Name, Type: t, Loc: loc}, nil
	case wireSymImm:
		if t == nil {
			return nil, fmt.Errorf("compiler: immediate %q has no type", ws.Name)
		}
		im, err := parseImmediate(t.Kind, ws.Value)
		if err != nil {
			return nil, fmt.Errorf("compiler: immediate %q: %w", ws.Name, err)
		}
		return &VarSymbol{Name: ws.Name, Type: t, Loc: Location{Offset: -1}, Immediate: &im, Proc: NoProc}, nil
	case wireSymProc:
		idx, ok := r.procs[ws.Procedure]
		if !ok {
			return nil, fmt.Errorf("compiler: symbol %q: unknown procedure %q", ws.Name, ws.Procedure)
		}
		sym := &VarSymbol{Name: ws.Name, Type: t, Loc: loc, Proc: NoProc}
		r.bound = append(r.bound, boundProc{sym: sym, proc: idx})
		return sym, nil
	}
	return nil, fmt.Errorf("compiler: symbol %q: unknown kind %q", ws.Name, ws.Kind)
}

func parseImmediate(kind TypeKind, text string) (Immediate, error) {
	im := Immediate{Kind: kind}
	var err error
	switch kind {
	case TypeBool:
		im.Bool, err = strconv.ParseBool(text)
	case TypeInt:
		im.Int, err = strconv.ParseInt(text, 10, 64)
	case TypeReal:
		im.Real, err = strconv.ParseFloat(text, 64)
	case TypeVoid:
	default:
		return im, fmt.Errorf("no immediate form for %s", kind)
	}
	return im, err
}

func (r *resolver) expr(wn *wireNode) (Expr, error) {
	n, err := r.node(wn)
	if err != nil {
		return nil, err
	}
	e, ok := n.(Expr)
	if !ok {
		return nil, fmt.Errorf("compiler: line %d: %s node is not an expression", wn.Line, wn.Kind)
	}
	return e, nil
}

func (r *resolver) optExpr(wn *wireNode) (Expr, error) {
	if wn == nil {
		return nil, nil
	}
	return r.expr(wn)
}

func (r *resolver) optNode(wn *wireNode) (Node, error) {
	if wn == nil {
		return nil, nil
	}
	return r.node(wn)
}

func (r *resolver) nodes(wns []*wireNode) ([]Node, error) {
	out := make([]Node, 0, len(wns))
	for _, wn := range wns {
		n, err := r.node(wn)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *resolver) lookup(name string, wn *wireNode) (Symbol, error) {
	sym, ok := r.symbols[name]
	if !ok {
		return nil, fmt.Errorf("compiler: line %d: unknown symbol %q", wn.Line, name)
	}
	return sym, nil
}

func (r *resolver) node(wn *wireNode) (Node, error) {
	if wn == nil {
		return nil, fmt.Errorf("compiler: missing node")
	}
	span := Span{Start: Position{Line: wn.Line, Column: wn.Column}}

	switch wn.Kind {
	case wireNodeSym:
		sym, err := r.lookup(wn.Sym, wn)
		if err != nil {
			return nil, err
		}
		return &SymExpr{SpanVal: span, Var: sym}, nil

	case wireNodeDef:
		sym, err := r.lookup(wn.Sym, wn)
		if err != nil {
			return nil, err
		}
		def := &DefExpr{SpanVal: span, Sym: sym}
		if wn.Fn != nil {
			fn, err := r.fn(wn.Fn)
			if err != nil {
				return nil, err
			}
			def.Fn = fn
			return def, nil
		}
		if def.Init, err = r.optExpr(wn.Init); err != nil {
			return nil, err
		}
		return def, nil

	case wireNodeCall, wireNodePrim:
		t, err := r.typ(wn.Type)
		if err != nil {
			return nil, err
		}
		call := &CallExpr{SpanVal: span, Type: t, MethodID: wn.Method, Generation: wn.Generation}
		if wn.Kind == wireNodeCall {
			sym, err := r.lookup(wn.Callee, wn)
			if err != nil {
				return nil, err
			}
			call.Callee = &SymExpr{SpanVal: span, Var: sym}
		} else {
			p, ok := ParsePrim(wn.Prim)
			if !ok {
				return nil, fmt.Errorf("compiler: line %d: unknown primitive %q", wn.Line, wn.Prim)
			}
			call.Prim = p
		}
		for _, wa := range wn.Args {
			arg, err := r.expr(wa)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil

	case wireNodeIf:
		cond, err := r.expr(wn.Cond)
		if err != nil {
			return nil, err
		}
		then, err := r.node(wn.Then)
		if err != nil {
			return nil, err
		}
		els, err := r.optNode(wn.Else)
		if err != nil {
			return nil, err
		}
		return &CondStmt{SpanVal: span, Cond: cond, Then: then, Else: els}, nil

	case wireNodeWhile:
		cond, err := r.expr(wn.Cond)
		if err != nil {
			return nil, err
		}
		body, err := r.nodes(wn.Body)
		if err != nil {
			return nil, err
		}
		return &WhileDoStmt{SpanVal: span, Cond: cond, Body: body}, nil

	case wireNodeBlock:
		body, err := r.nodes(wn.Body)
		if err != nil {
			return nil, err
		}
		return &BlockStmt{SpanVal: span, Body: body}, nil
	}
	return nil, fmt.Errorf("compiler: line %d: unknown node kind %q", wn.Line, wn.Kind)
}

func (r *resolver) fn(wf *wireFn) (*FnSymbol, error) {
	ret, err := r.typ(wf.Returns)
	if err != nil {
		return nil, fmt.Errorf("compiler: fn %q: %w", wf.Name, err)
	}
	fn := &FnSymbol{Name: wf.Name, FrameSize: wf.FrameSize, RetType: ret}
	for _, name := range wf.Formals {
		arg, ok := r.symbols[name].(*ArgSymbol)
		if !ok {
			return nil, fmt.Errorf("compiler: fn %q: formal %q is not an arg symbol", wf.Name, name)
		}
		fn.Formals = append(fn.Formals, arg)
	}
	body, err := r.nodes(wf.Body)
	if err != nil {
		return nil, err
	}
	fn.Body = &BlockStmt{Body: body}
	return fn, nil
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// EncodeCBOR serializes p to canonical CBOR.
func EncodeCBOR(p *Program) ([]byte, error) {
	wp, err := flatten(p)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(wp)
}

// EncodeYAML serializes p to YAML.
func EncodeYAML(p *Program) ([]byte, error) {
	wp, err := flatten(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(wp); err != nil {
		return nil, fmt.Errorf("compiler: marshal program: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("compiler: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}

type flattener struct {
	procNames map[ProcID]string
}

func flatten(p *Program) (*wireProgram, error) {
	if p == nil || p.Root == nil {
		return nil, fmt.Errorf("compiler: program has no root")
	}
	f := &flattener{procNames: make(map[ProcID]string)}
	wp := &wireProgram{}

	for _, t := range p.Types {
		wt := wireType{Name: t.Name, Kind: t.Kind.String()}
		if t.DefaultValue != nil {
			wt.Default = t.DefaultValue.Name
		}
		wp.Types = append(wp.Types, wt)
	}
	for _, pd := range p.Procedures {
		f.procNames[pd.ID] = pd.Name
		wp.Procedures = append(wp.Procedures, wireProcedure{Name: pd.Name, Generation: pd.Generation})
	}
	for _, sym := range p.Symbols {
		ws, err := f.symbol(sym)
		if err != nil {
			return nil, err
		}
		wp.Symbols = append(wp.Symbols, ws)
	}
	root, err := f.node(p.Root)
	if err != nil {
		return nil, err
	}
	wp.Root = root
	return wp, nil
}

func typeName(t *Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func (f *flattener) symbol(sym Symbol) (wireSymbol, error) {
	switch s := sym.(type) {
	case *VarSymbol:
		ws := wireSymbol{Name: s.Name, Type: typeName(s.Type), Depth: s.Loc.Depth, Offset: s.Loc.Offset}
		switch {
		case s.Immediate != nil:
			ws.Kind = wireSymImm
			ws.Value = s.Immediate.String()
			ws.Depth, ws.Offset = 0, 0
		case s.Proc != NoProc:
			name, ok := f.procNames[s.Proc]
			if !ok {
				return ws, fmt.Errorf("compiler: symbol %q: procedure %d not in program", s.Name, s.Proc)
			}
			ws.Kind = wireSymProc
			ws.Procedure = name
		default:
			ws.Kind = wireSymVar
		}
		return ws, nil
	case *ArgSymbol:
		return wireSymbol{Name: s.Name, Kind: wireSymArg, Type: typeName(s.Type), Depth: s.Loc.Depth, Offset: s.Loc.Offset}, nil
	}
	return wireSymbol{}, fmt.Errorf("compiler: cannot encode symbol %T", sym)
}

func (f *flattener) nodes(ns []Node) ([]*wireNode, error) {
	out := make([]*wireNode, 0, len(ns))
	for _, n := range ns {
		wn, err := f.node(n)
		if err != nil {
			return nil, err
		}
		out = append(out, wn)
	}
	return out, nil
}

func (f *flattener) node(n Node) (*wireNode, error) {
	if n == nil {
		return nil, nil
	}
	start := n.Span().Start
	wn := &wireNode{Line: start.Line, Column: start.Column}
	var err error

	switch e := n.(type) {
	case *SymExpr:
		wn.Kind = wireNodeSym
		wn.Sym = e.Var.SymName()
	case *DefExpr:
		wn.Kind = wireNodeDef
		wn.Sym = e.Sym.SymName()
		if e.Fn != nil {
			wf := &wireFn{Name: e.Fn.Name, FrameSize: e.Fn.FrameSize, Returns: typeName(e.Fn.RetType)}
			for _, formal := range e.Fn.Formals {
				wf.Formals = append(wf.Formals, formal.Name)
			}
			if e.Fn.Body != nil {
				if wf.Body, err = f.nodes(e.Fn.Body.Body); err != nil {
					return nil, err
				}
			}
			wn.Fn = wf
		} else if e.Init != nil {
			if wn.Init, err = f.node(e.Init); err != nil {
				return nil, err
			}
		}
	case *CallExpr:
		wn.Type = typeName(e.Type)
		if e.Callee != nil {
			wn.Kind = wireNodeCall
			wn.Callee = e.Callee.Var.SymName()
			wn.Method = e.MethodID
			wn.Generation = e.Generation
		} else {
			wn.Kind = wireNodePrim
			wn.Prim = e.Prim.String()
		}
		for _, arg := range e.Args {
			wa, err := f.node(arg)
			if err != nil {
				return nil, err
			}
			wn.Args = append(wn.Args, wa)
		}
	case *CondStmt:
		wn.Kind = wireNodeIf
		if wn.Cond, err = f.node(e.Cond); err != nil {
			return nil, err
		}
		if wn.Then, err = f.node(e.Then); err != nil {
			return nil, err
		}
		if wn.Else, err = f.node(e.Else); err != nil {
			return nil, err
		}
	case *WhileDoStmt:
		wn.Kind = wireNodeWhile
		if wn.Cond, err = f.node(e.Cond); err != nil {
			return nil, err
		}
		if wn.Body, err = f.nodes(e.Body); err != nil {
			return nil, err
		}
	case *BlockStmt:
		wn.Kind = wireNodeBlock
		if wn.Body, err = f.nodes(e.Body); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("compiler: cannot encode node %T", n)
	}
	return wn, nil
}
