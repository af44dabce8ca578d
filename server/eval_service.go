package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/ipe/compiler"
	"github.com/chazu/ipe/vm"
)

// EvalService implements the EvaluationService connect handlers.
type EvalService struct {
	sessions *SessionStore
	log      commonlog.Logger
}

// NewEvalService creates an EvalService.
func NewEvalService(sessions *SessionStore, log commonlog.Logger) *EvalService {
	if log == nil {
		log = commonlog.GetLogger("ipe.server")
	}
	return &EvalService{sessions: sessions, log: log}
}

// CreateSession starts a fresh evaluation session.
func (s *EvalService) CreateSession(
	ctx context.Context,
	req *connect.Request[CreateSessionRequest],
) (*connect.Response[CreateSessionResponse], error) {
	session := s.sessions.Create(req.Msg.Name)
	s.log.Infof("created session %s (%q)", session.ID, session.Name)
	return connect.NewResponse(&CreateSessionResponse{SessionID: session.ID}), nil
}

// DestroySession stops a session and drops its state.
func (s *EvalService) DestroySession(
	ctx context.Context,
	req *connect.Request[DestroySessionRequest],
) (*connect.Response[DestroySessionResponse], error) {
	if !s.sessions.Destroy(req.Msg.SessionID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", req.Msg.SessionID))
	}
	s.log.Infof("destroyed session %s", req.Msg.SessionID)
	return connect.NewResponse(&DestroySessionResponse{}), nil
}

// decodeError marks a program that could not be decoded, as opposed to one
// that faulted during evaluation.
type decodeError struct{ err error }

func (e decodeError) Error() string { return e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

// Evaluate decodes a program into the session and evaluates its root.
func (s *EvalService) Evaluate(
	ctx context.Context,
	req *connect.Request[EvaluateRequest],
) (*connect.Response[EvaluateResponse], error) {
	if len(req.Msg.Program) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("program is required"))
	}
	session, ok := s.sessions.Get(req.Msg.SessionID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", req.Msg.SessionID))
	}

	// Decoding declares procedures in the session's arena, so it runs on
	// the worker along with evaluation.
	result, err := session.Worker().Do(ctx, func(vs *vm.Session) (interface{}, error) {
		prog, err := compiler.DecodeCBOR(req.Msg.Program, vs)
		if err != nil {
			return nil, decodeError{err}
		}
		return vs.Run(prog)
	})

	var de decodeError
	var ie *vm.InternalError
	switch {
	case err == nil:
		v := result.(vm.Value)
		return connect.NewResponse(&EvaluateResponse{
			Success: true,
			Kind:    v.Kind().String(),
			Result:  v.String(),
		}), nil
	case errors.As(err, &de):
		return nil, connect.NewError(connect.CodeInvalidArgument, de.err)
	case errors.As(err, &ie):
		return connect.NewResponse(&EvaluateResponse{Fault: faultFor(ie)}), nil
	case errors.Is(err, context.Canceled):
		return nil, connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, ErrWorkerStopped):
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	s.log.Errorf("session %s: %s", session.ID, err)
	return nil, connect.NewError(connect.CodeInternal, err)
}

func faultFor(ie *vm.InternalError) *Fault {
	f := &Fault{Kind: ie.Kind.String(), Detail: ie.Detail}
	if ie.Node != nil {
		pos := ie.Node.Span().Start
		f.Line, f.Column = pos.Line, pos.Column
		f.Node = compiler.Dump(ie.Node)
	}
	return f
}
