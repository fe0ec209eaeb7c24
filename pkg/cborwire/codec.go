package cborwire

import (
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Codec is the binary wire codec. The zero value is ready to use.
type Codec struct{}

var _ wire.GatewayCodec = (*Codec)(nil)

const codecName = "binary"

// New returns a binary codec.
func New() *Codec {
	return &Codec{}
}

// Name returns "binary".
func (*Codec) Name() string { return codecName }

// Binary returns true; frames travel as binary messages.
func (*Codec) Binary() bool { return true }

// PeekOperation decodes only the opcode of a frame.
func (*Codec) PeekOperation(frame []byte) (wire.Operation, error) {
	_, code, err := newReader(frame)
	if err != nil {
		return wire.OpUnknown, err
	}
	op, ok := OperationOf(code)
	if !ok {
		return wire.OpUnknown, wire.Malformed("unknown opcode 0x%02X", code)
	}
	return op, nil
}

// EncodeRequest encodes a client request.
func (*Codec) EncodeRequest(req wire.Request) ([]byte, error) {
	op := req.Operation()
	code, ok := Opcode(op)
	if !ok {
		return nil, wire.Unsupported(op, codecName)
	}
	w := newWriter(code)

	switch r := req.(type) {
	case *wire.AuthorizeRequest:
		if r.HasCredentials() {
			w.put(r.User)
			w.put(r.Password)
		} else {
			w.put(nil)
			w.put(nil)
		}
		w.put(protocolVersion)

	case *wire.EnumerateRequest:

	case *wire.DescribeRequest:
		// The binary DESCRIBE has a single identifier slot and no flags.
		if r.Flags != 0 {
			return nil, wire.Unsupported(op, codecName)
		}
		w.optText(r.ID())

	case *wire.ReadPropertyRequest:
		w.put(r.ID)

	case *wire.WritePropertyRequest:
		w.put(r.ID)
		if r.Flags != nil {
			w.put(uint8(*r.Flags))
		} else {
			w.put(nil)
		}
		w.put(r.Value)

	case *wire.SubscribePropertyRequest:
		w.put(r.ID)

	case *wire.UnsubscribePropertyRequest:
		w.put(r.ID)

	case *wire.ReadDatalogRequest:
		w.optText(r.ID)
		w.optTime(r.From)
		w.optTime(r.To)
		w.optInt(r.Limit)

	case *wire.ReadMessagesRequest:
		w.optTime(r.From)
		w.optTime(r.To)
		w.optInt(r.Limit)

	case *wire.CallExtensionRequest:
		w.put(r.Extension)
		w.put(r.Command)
		w.put(paramValues(r.Params))

	default:
		return nil, wire.Unsupported(op, codecName)
	}

	return w.bytes()
}

// protocolVersion is wire.ProtocolVersion as carried by the binary wire.
const protocolVersion = 1

func paramValues(params []wire.Param) []wire.Value {
	values := make([]wire.Value, len(params))
	for i, p := range params {
		values[i] = p.Value
	}
	return values
}

func paramsOf(r *reader, items []cbor.RawMessage) []wire.Param {
	if len(items) == 0 {
		return nil
	}
	params := make([]wire.Param, 0, len(items))
	for _, raw := range items {
		var v wire.Value
		if err := v.UnmarshalCBOR(raw); err != nil {
			r.err = wire.Malformed("%s: parameter: %v", r.op, err)
			return nil
		}
		params = append(params, wire.Param{Value: v})
	}
	return params
}

// DecodeMessage decodes a gateway frame. ERROR frames return the gateway's
// reason as a *wire.ProtocolError.
func (*Codec) DecodeMessage(data []byte) (wire.Message, error) {
	r, code, err := newReader(data)
	if err != nil {
		return nil, err
	}
	op, ok := OperationOf(code)
	if !ok {
		return nil, wire.Malformed("unknown opcode 0x%02X", code)
	}
	r.op = op

	var msg wire.Message

	switch op {
	case wire.OpError:
		reason := r.text()
		if r.err != nil {
			return nil, r.err
		}
		return nil, wire.GatewayError(reason)

	case wire.OpAuthorized:
		m := &wire.Authorized{AccessLevel: wire.AccessLevelFromCode(r.integer())}
		version := r.integer()
		m.GatewayVersion = r.text()
		if r.err == nil && version != protocolVersion {
			return nil, wire.VersionError()
		}
		m.ProtocolVersion = strconv.FormatInt(version, 10)
		msg = m

	case wire.OpEnumerated:
		msg = &wire.Enumerated{Status: r.status(), DeviceCount: int(r.integer())}

	case wire.OpDescription:
		msg = &wire.Description{Status: r.status(), ID: r.optText(), Description: r.any()}

	case wire.OpPropertyRead:
		msg = &wire.PropertyRead{Status: r.status(), ID: r.text(), Value: r.value()}

	case wire.OpPropertyWritten:
		msg = &wire.PropertyWritten{Status: r.status(), ID: r.text()}

	case wire.OpPropertySubscribed:
		msg = &wire.PropertySubscribed{Status: r.status(), ID: r.text()}

	case wire.OpPropertyUnsubscribed:
		msg = &wire.PropertyUnsubscribed{Status: r.status(), ID: r.text()}

	case wire.OpPropertyUpdate:
		msg = &wire.PropertyUpdate{ID: r.text(), Value: r.value()}

	case wire.OpDatalogRead:
		msg = decodeDatalog(r)

	case wire.OpDeviceMessage:
		msg = &wire.DeviceMessage{
			Timestamp: r.timestamp(),
			AccessID:  r.text(),
			DeviceID:  r.text(),
			MessageID: int(r.integer()),
			Message:   r.text(),
		}

	case wire.OpMessagesRead:
		m := &wire.MessagesRead{Status: r.status(), Count: int(r.integer())}
		m.Messages = decodeMessages(r, r.array())
		msg = m

	case wire.OpExtensionCalled:
		m := &wire.ExtensionCalled{
			Extension: r.text(),
			Command:   r.text(),
			Status:    wire.ExtensionStatusFromCode(r.integer()),
		}
		m.Params = paramsOf(r, r.array())
		msg = m

	default:
		return nil, wire.Unexpected(op)
	}

	if r.err != nil {
		return nil, r.err
	}
	return msg, nil
}

// decodeDatalog reads a DATALOG READ. A null identifier marks the property
// list variant; otherwise the samples arrive flattened as
// [timestamp, value, timestamp, value, ...].
func decodeDatalog(r *reader) wire.Message {
	status := r.status()
	id := r.optText()
	count := int(r.integer())
	items := r.array()
	if r.err != nil {
		return nil
	}

	if id == "" {
		m := &wire.DatalogPropertiesRead{Status: status, Count: count, Properties: make([]string, 0, len(items))}
		for _, raw := range items {
			var s string
			r.into(raw, &s)
			m.Properties = append(m.Properties, s)
		}
		return m
	}

	if len(items)%2 != 0 {
		r.err = wire.Malformed("%s: odd number of datalog items", r.op)
		return nil
	}
	m := &wire.DatalogRead{Status: status, ID: id, Count: count, Entries: make([]wire.DatalogEntry, 0, len(items)/2)}
	for i := 0; i < len(items); i += 2 {
		e := wire.DatalogEntry{Timestamp: r.timeOf(items[i])}
		if r.err == nil {
			if err := e.Value.UnmarshalCBOR(items[i+1]); err != nil {
				r.err = wire.Malformed("%s: %v", r.op, err)
			}
		}
		m.Entries = append(m.Entries, e)
	}
	return m
}

// decodeMessages rebuilds messages from flattened 5-tuples of
// [timestamp, access id, device id, message id, message].
func decodeMessages(r *reader, items []cbor.RawMessage) []wire.DeviceMessage {
	if r.err != nil {
		return nil
	}
	if len(items)%5 != 0 {
		r.err = wire.Malformed("%s: incomplete message tuple", r.op)
		return nil
	}
	messages := make([]wire.DeviceMessage, 0, len(items)/5)
	for i := 0; i < len(items); i += 5 {
		m := wire.DeviceMessage{Timestamp: r.timeOf(items[i])}
		var id int
		r.into(items[i+1], &m.AccessID)
		r.into(items[i+2], &m.DeviceID)
		r.into(items[i+3], &id)
		r.into(items[i+4], &m.Message)
		m.MessageID = id
		messages = append(messages, m)
	}
	return messages
}
