package wire

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Codec is the client side of a wire encoding.
type Codec interface {
	// Name identifies the encoding in logs and configuration.
	Name() string

	// Binary returns true if frames must be carried as binary messages.
	Binary() bool

	// EncodeRequest encodes a request into one frame.
	EncodeRequest(req Request) ([]byte, error)

	// DecodeMessage decodes a gateway frame. ERROR frames fail with the
	// gateway's *ProtocolError.
	DecodeMessage(frame []byte) (Message, error)

	// PeekOperation returns the operation of a frame without decoding its fields.
	PeekOperation(frame []byte) (Operation, error)
}

// GatewayCodec is the gateway side of a wire encoding, used by test
// gateways and bridges.
type GatewayCodec interface {
	Codec

	// DecodeRequest decodes a client frame.
	DecodeRequest(frame []byte) (Request, error)

	// EncodeMessage encodes a gateway frame.
	EncodeMessage(msg Message) ([]byte, error)
}

// encMode is the CBOR encoder mode for binary frames.
// Floats keep their full width so numbers always encode as float64.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for binary frames.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		ShortestFloat: cbor.ShortestFloatNone,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Descriptions are JSON-like documents, so maps decode with string keys.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
