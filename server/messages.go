package server

// Procedure paths of the evaluation service.
const (
	EvaluationServiceName = "ipe.v1.EvaluationService"

	CreateSessionProcedure  = "/" + EvaluationServiceName + "/CreateSession"
	EvaluateProcedure       = "/" + EvaluationServiceName + "/Evaluate"
	DestroySessionProcedure = "/" + EvaluationServiceName + "/DestroySession"
)

// CreateSessionRequest opens a new evaluation session.
type CreateSessionRequest struct {
	Name string `cbor:"name,omitempty"`
}

// CreateSessionResponse names the session that was opened.
type CreateSessionResponse struct {
	SessionID string `cbor:"session-id"`
}

// EvaluateRequest carries a CBOR-encoded compiler.Program.
type EvaluateRequest struct {
	SessionID string `cbor:"session-id"`
	Program   []byte `cbor:"program"`
}

// EvaluateResponse reports either the program's result or the internal
// fault it raised.
type EvaluateResponse struct {
	Success bool   `cbor:"success"`
	Kind    string `cbor:"kind,omitempty"`
	Result  string `cbor:"result,omitempty"`
	Fault   *Fault `cbor:"fault,omitempty"`
}

// Fault is the wire form of a vm.InternalError.
type Fault struct {
	Kind   string `cbor:"kind"`
	Detail string `cbor:"detail"`
	Line   int    `cbor:"line,omitempty"`
	Column int    `cbor:"column,omitempty"`
	Node   string `cbor:"node,omitempty"`
}

// DestroySessionRequest closes a session and stops its worker.
type DestroySessionRequest struct {
	SessionID string `cbor:"session-id"`
}

// DestroySessionResponse is empty.
type DestroySessionResponse struct{}
