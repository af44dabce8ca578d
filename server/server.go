// Package server exposes evaluation sessions over connect RPC.
package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/ipe/vm"
)

// EvalServer serves the EvaluationService. Messages travel as CBOR.
type EvalServer struct {
	sessions *SessionStore
	mux      *http.ServeMux
	log      commonlog.Logger
}

// New creates an EvalServer whose sessions evaluate with opts.
func New(opts vm.Options) *EvalServer {
	log := commonlog.GetLogger("ipe.server")
	sessions := NewSessionStore(opts)

	s := &EvalServer{
		sessions: sessions,
		mux:      http.NewServeMux(),
		log:      log,
	}

	svc := NewEvalService(sessions, log)
	s.mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, svc.CreateSession, WithCBOR()))
	s.mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure, svc.Evaluate, WithCBOR()))
	s.mux.Handle(DestroySessionProcedure, connect.NewUnaryHandler(DestroySessionProcedure, svc.DestroySession, WithCBOR()))

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *EvalServer) Handler() http.Handler { return s.mux }

// Sessions returns the server's session store.
func (s *EvalServer) Sessions() *SessionStore { return s.sessions }

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *EvalServer) ListenAndServe(addr string) error {
	s.log.Noticef("ipe evaluation server listening on %s", addr)
	s.log.Noticef("  Connect (CBOR): http://%s%s", addr, EvaluateProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop destroys every session.
func (s *EvalServer) Stop() {
	s.sessions.Close()
}
