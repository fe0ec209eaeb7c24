package cborwire

import (
	"strings"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// DecodeRequest decodes a client frame.
func (*Codec) DecodeRequest(data []byte) (wire.Request, error) {
	r, code, err := newReader(data)
	if err != nil {
		return nil, err
	}
	op, ok := OperationOf(code)
	if !ok {
		return nil, wire.Malformed("unknown opcode 0x%02X", code)
	}
	r.op = op

	var req wire.Request

	switch op {
	case wire.OpAuthorize:
		a := &wire.AuthorizeRequest{User: r.optText(), Password: r.optText()}
		if v := r.integer(); r.err == nil && v != protocolVersion {
			return nil, wire.Malformed("%s protocol version %d", op, v)
		}
		req = a

	case wire.OpEnumerate:
		req = &wire.EnumerateRequest{}

	case wire.OpDescribe:
		d := &wire.DescribeRequest{}
		if id := r.optText(); id != "" {
			parts := strings.SplitN(id, ".", 3)
			d.AccessID = parts[0]
			if len(parts) > 1 {
				d.DeviceID = parts[1]
			}
			if len(parts) > 2 {
				d.PropertyID = parts[2]
			}
		}
		req = d

	case wire.OpReadProperty:
		req = &wire.ReadPropertyRequest{ID: r.text()}

	case wire.OpWriteProperty:
		w := &wire.WritePropertyRequest{ID: r.text()}
		if raw := r.raw(); r.err == nil && !isNull(raw) {
			var flags uint8
			r.into(raw, &flags)
			w.Flags = wire.WriteFlags(flags).Ptr()
		}
		w.Value = r.value()
		req = w

	case wire.OpSubscribeProperty:
		req = &wire.SubscribePropertyRequest{ID: r.text()}

	case wire.OpUnsubscribeProperty:
		req = &wire.UnsubscribePropertyRequest{ID: r.text()}

	case wire.OpReadDatalog:
		req = &wire.ReadDatalogRequest{ID: r.optText(), From: r.optTimestamp(), To: r.optTimestamp(), Limit: r.optInt()}

	case wire.OpReadMessages:
		req = &wire.ReadMessagesRequest{From: r.optTimestamp(), To: r.optTimestamp(), Limit: r.optInt()}

	case wire.OpCallExtension:
		c := &wire.CallExtensionRequest{Extension: r.text(), Command: r.text()}
		c.Params = paramsOf(r, r.array())
		req = c

	default:
		return nil, wire.Unexpected(op)
	}

	if r.err != nil {
		return nil, r.err
	}
	return req, nil
}

// EncodeMessage encodes a gateway frame.
func (*Codec) EncodeMessage(msg wire.Message) ([]byte, error) {
	op := msg.Operation()
	code, ok := Opcode(op)
	if !ok {
		return nil, wire.Unsupported(op, codecName)
	}
	w := newWriter(code)

	switch m := msg.(type) {
	case *wire.ErrorMessage:
		w.put(m.Reason)

	case *wire.Authorized:
		w.put(uint8(m.AccessLevel))
		w.put(protocolVersion)
		w.put(m.GatewayVersion)

	case *wire.Enumerated:
		w.put(int8(m.Status))
		w.put(m.DeviceCount)

	case *wire.Description:
		w.put(int8(m.Status))
		w.optText(m.ID)
		w.put(m.Description)

	case *wire.PropertyRead:
		w.put(int8(m.Status))
		w.put(m.ID)
		w.put(m.Value)

	case *wire.PropertyWritten:
		w.put(int8(m.Status))
		w.put(m.ID)

	case *wire.PropertySubscribed:
		w.put(int8(m.Status))
		w.put(m.ID)

	case *wire.PropertyUnsubscribed:
		w.put(int8(m.Status))
		w.put(m.ID)

	case *wire.PropertyUpdate:
		w.put(m.ID)
		w.put(m.Value)

	case *wire.DatalogRead:
		w.put(int8(m.Status))
		w.put(m.ID)
		w.put(m.Count)
		flat := make([]any, 0, 2*len(m.Entries))
		for _, e := range m.Entries {
			flat = append(flat, e.Timestamp.Unix(), e.Value)
		}
		w.put(flat)

	case *wire.DatalogPropertiesRead:
		w.put(int8(m.Status))
		w.put(nil)
		w.put(m.Count)
		props := m.Properties
		if props == nil {
			props = []string{}
		}
		w.put(props)

	case *wire.DeviceMessage:
		w.put(m.Timestamp.Unix())
		w.put(m.AccessID)
		w.put(m.DeviceID)
		w.put(m.MessageID)
		w.put(m.Message)

	case *wire.MessagesRead:
		w.put(int8(m.Status))
		w.put(m.Count)
		flat := make([]any, 0, 5*len(m.Messages))
		for _, dm := range m.Messages {
			flat = append(flat, dm.Timestamp.Unix(), dm.AccessID, dm.DeviceID, dm.MessageID, dm.Message)
		}
		w.put(flat)

	case *wire.ExtensionCalled:
		w.put(m.Extension)
		w.put(m.Command)
		w.put(int8(m.Status))
		w.put(paramValues(m.Params))

	default:
		return nil, wire.Unsupported(op, codecName)
	}

	return w.bytes()
}
