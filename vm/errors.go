package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/ipe/compiler"
)

// ---------------------------------------------------------------------------
// Internal errors
// ---------------------------------------------------------------------------

// ErrorKind classifies an internal compiler error raised while evaluating.
type ErrorKind int

const (
	UnsupportedNode ErrorKind = iota
	UnresolvedVariable
	StaleBinding
	InvalidMethodIndex
	UnsupportedOperandType
	ArithmeticFault
)

// Sentinels matched by errors.Is against an *InternalError of the same kind.
var (
	ErrUnsupportedNode        = errors.New("unsupported node")
	ErrUnresolvedVariable     = errors.New("unresolved variable")
	ErrStaleBinding           = errors.New("stale binding")
	ErrInvalidMethodIndex     = errors.New("invalid method index")
	ErrUnsupportedOperandType = errors.New("unsupported operand type")
	ErrArithmeticFault        = errors.New("arithmetic fault")
)

var kindSentinels = map[ErrorKind]error{
	UnsupportedNode:        ErrUnsupportedNode,
	UnresolvedVariable:     ErrUnresolvedVariable,
	StaleBinding:           ErrStaleBinding,
	InvalidMethodIndex:     ErrInvalidMethodIndex,
	UnsupportedOperandType: ErrUnsupportedOperandType,
	ArithmeticFault:        ErrArithmeticFault,
}

func (k ErrorKind) String() string {
	if sentinel, ok := kindSentinels[k]; ok {
		return sentinel.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// InternalError reports a defect in an earlier compiler pass or in the
// evaluator's coverage. It is never recoverable: the compiler reports it as
// an internal compiler error and stops.
type InternalError struct {
	Kind   ErrorKind
	Node   compiler.Node // offending node, may be nil
	Detail string
}

func (e *InternalError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "internal compiler error: %s: %s", e.Kind, e.Detail)
	if e.Node != nil {
		pos := e.Node.Span().Start
		if pos.Line > 0 {
			fmt.Fprintf(&sb, " (line %d, column %d)", pos.Line, pos.Column)
		}
		sb.WriteString("\n")
		sb.WriteString(indent(compiler.Dump(e.Node), "   "))
	}
	return sb.String()
}

// Unwrap returns the sentinel for the error's kind.
func (e *InternalError) Unwrap() error {
	return kindSentinels[e.Kind]
}

func faultf(kind ErrorKind, node compiler.Node, format string, args ...interface{}) *InternalError {
	return &InternalError{Kind: kind, Node: node, Detail: fmt.Sprintf(format, args...)}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
