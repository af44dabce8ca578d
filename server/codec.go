package server

import (
	"fmt"

	"connectrpc.com/connect"
	"github.com/fxamacker/cbor/v2"
)

// CodecName is the codec name negotiated by clients ("application/cbor").
const CodecName = "cbor"

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// cborCodec carries plain Go message structs over connect as canonical CBOR.
type cborCodec struct{}

var _ connect.Codec = cborCodec{}

func (cborCodec) Name() string { return CodecName }

func (cborCodec) Marshal(msg any) ([]byte, error) {
	return cborEncMode.Marshal(msg)
}

func (cborCodec) Unmarshal(data []byte, msg any) error {
	return cbor.Unmarshal(data, msg)
}

// WithCBOR is the connect option both ends of the service use.
func WithCBOR() connect.Option {
	return connect.WithCodec(cborCodec{})
}
