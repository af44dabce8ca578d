package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/ipe/compiler"
)

// Client calls a remote EvaluationService.
type Client struct {
	create  *connect.Client[CreateSessionRequest, CreateSessionResponse]
	eval    *connect.Client[EvaluateRequest, EvaluateResponse]
	destroy *connect.Client[DestroySessionRequest, DestroySessionResponse]
}

// NewClient creates a client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		create:  connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+CreateSessionProcedure, WithCBOR()),
		eval:    connect.NewClient[EvaluateRequest, EvaluateResponse](httpClient, baseURL+EvaluateProcedure, WithCBOR()),
		destroy: connect.NewClient[DestroySessionRequest, DestroySessionResponse](httpClient, baseURL+DestroySessionProcedure, WithCBOR()),
	}
}

// CreateSession starts a remote session and returns its id.
func (c *Client) CreateSession(ctx context.Context, name string) (string, error) {
	resp, err := c.create.CallUnary(ctx, connect.NewRequest(&CreateSessionRequest{Name: name}))
	if err != nil {
		return "", err
	}
	return resp.Msg.SessionID, nil
}

// Evaluate sends an already encoded program.
func (c *Client) Evaluate(ctx context.Context, sessionID string, program []byte) (*EvaluateResponse, error) {
	resp, err := c.eval.CallUnary(ctx, connect.NewRequest(&EvaluateRequest{SessionID: sessionID, Program: program}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// EvaluateProgram encodes prog as CBOR and evaluates it remotely.
func (c *Client) EvaluateProgram(ctx context.Context, sessionID string, prog *compiler.Program) (*EvaluateResponse, error) {
	data, err := compiler.EncodeCBOR(prog)
	if err != nil {
		return nil, err
	}
	return c.Evaluate(ctx, sessionID, data)
}

// DestroySession stops a remote session.
func (c *Client) DestroySession(ctx context.Context, sessionID string) error {
	_, err := c.destroy.CallUnary(ctx, connect.NewRequest(&DestroySessionRequest{SessionID: sessionID}))
	return err
}
