package server

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/chazu/ipe/compiler"
	"github.com/chazu/ipe/vm"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
// ---------------------------------------------------------------------------

// testEnv bundles a running server with a client pointed at it.
type testEnv struct {
	Server *EvalServer
	HTTP   *httptest.Server
	Client *Client
}

// newTestEnv starts an in-process server. The caller must call env.Stop().
func newTestEnv() *testEnv {
	s := New(vm.DefaultOptions())
	ts := httptest.NewServer(s.Handler())
	return &testEnv{Server: s, HTTP: ts, Client: NewClient(ts.Client(), ts.URL)}
}

func (e *testEnv) Stop() {
	e.HTTP.Close()
	e.Server.Stop()
}

// encodeYAML turns a YAML program into the CBOR form the service accepts.
func encodeYAML(t *testing.T, doc string) []byte {
	t.Helper()
	prog, err := compiler.DecodeYAML([]byte(doc), vm.NewRegistry())
	if err != nil {
		t.Fatalf("fixture does not decode: %v", err)
	}
	data, err := compiler.EncodeCBOR(prog)
	if err != nil {
		t.Fatalf("fixture does not encode: %v", err)
	}
	return data
}

func bg() context.Context {
	return context.Background()
}

const programTypes = `
types:
  - {name: int, kind: int}
  - {name: bool, kind: bool}
  - {name: proc, kind: procedure}
`

// storeX assigns 5 to the global x.
const storeX = programTypes + `
symbols:
  - {name: "0", kind: imm, type: int, value: "0"}
  - {name: "5", kind: imm, type: int, value: "5"}
  - {name: x, kind: var, type: int, offset: 0}
root:
  kind: block
  body:
    - kind: def
      sym: x
      init: {kind: sym, sym: "0"}
    - kind: prim
      prim: "="
      args:
        - {kind: sym, sym: x}
        - {kind: sym, sym: "5"}
`

// readX evaluates x + 1.
const readX = programTypes + `
symbols:
  - {name: "1", kind: imm, type: int, value: "1"}
  - {name: x, kind: var, type: int, offset: 0}
root:
  kind: prim
  prim: "+"
  type: int
  args:
    - {kind: sym, sym: x}
    - {kind: sym, sym: "1"}
`

// defineId registers id(a) = a on procedure id.
const defineID = programTypes + `
procedures:
  - {name: id, generation: 1}
symbols:
  - {name: id, kind: proc, type: proc, offset: 1}
  - {name: a, kind: arg, type: int, depth: 1, offset: 0}
root:
  kind: def
  sym: id
  fn:
    name: id
    formals: [a]
    frame-size: 1
    returns: int
    body:
      - kind: prim
        prim: return
        type: int
        args:
          - {kind: sym, sym: a}
`

// callID evaluates id(9) against method 0 at generation 1.
const callID = programTypes + `
procedures:
  - {name: id, generation: 1}
symbols:
  - {name: "9", kind: imm, type: int, value: "9"}
  - {name: id, kind: proc, type: proc, offset: 1}
root:
  kind: call
  callee: id
  method: 0
  generation: 1
  type: int
  line: 3
  column: 7
  args:
    - {kind: sym, sym: "9"}
`
