package textwire

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/openstuder/openstuder-go/pkg/version"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Codec is the text wire codec. The zero value is ready to use.
type Codec struct{}

var _ wire.GatewayCodec = (*Codec)(nil)

// New returns a text codec.
func New() *Codec {
	return &Codec{}
}

// Name returns "text".
func (*Codec) Name() string { return "text" }

// Binary returns false; text frames travel as text messages.
func (*Codec) Binary() bool { return false }

// PeekOperation returns the operation line of a frame.
func (*Codec) PeekOperation(frame []byte) (wire.Operation, error) {
	return PeekOperation(frame)
}

// EncodeRequest encodes a client request. Headers are emitted in the fixed
// order the gateway expects; unset optional parameters are omitted.
func (*Codec) EncodeRequest(req wire.Request) ([]byte, error) {
	f := NewFrame(req.Operation())

	switch r := req.(type) {
	case *wire.AuthorizeRequest:
		if r.HasCredentials() {
			f.Set("user", r.User).Set("password", r.Password)
		}
		f.Set("protocol_version", wire.ProtocolVersion)

	case *wire.EnumerateRequest:

	case *wire.DescribeRequest:
		if id := r.ID(); id != "" {
			f.Set("id", id)
		}
		if r.Flags != 0 {
			f.Set("flags", r.Flags.Text())
		}

	case *wire.ReadPropertyRequest:
		f.Set("id", r.ID)

	case *wire.ReadPropertiesRequest:
		return encodeWithIDs(f, r.IDs)

	case *wire.WritePropertyRequest:
		f.Set("id", r.ID)
		if r.Flags != nil {
			f.Set("flags", r.Flags.Text())
		}
		if !r.Value.IsAbsent() {
			f.Set("value", r.Value.String())
		}

	case *wire.SubscribePropertyRequest:
		f.Set("id", r.ID)

	case *wire.SubscribePropertiesRequest:
		return encodeWithIDs(f, r.IDs)

	case *wire.UnsubscribePropertyRequest:
		f.Set("id", r.ID)

	case *wire.UnsubscribePropertiesRequest:
		return encodeWithIDs(f, r.IDs)

	case *wire.ReadDatalogRequest:
		if r.ID != "" {
			f.Set("id", r.ID)
		}
		setWindow(f, r.From, r.To, r.Limit)

	case *wire.ReadMessagesRequest:
		setWindow(f, r.From, r.To, r.Limit)

	case *wire.FindPropertiesRequest:
		f.Set("id", r.ID)
		if r.Virtual != nil {
			f.Set("virtual", strconv.FormatBool(*r.Virtual))
		}
		if len(r.FunctionalFilter) > 0 {
			f.Set("functional_filter", strings.Join(r.FunctionalFilter, ","))
		}

	case *wire.CallExtensionRequest:
		f.Set("extension", r.Extension).Set("command", r.Command)
		for _, p := range r.Params {
			f.Set(p.Name, p.Value.String())
		}
		f.Body = r.Body

	default:
		return nil, wire.Unexpected(req.Operation())
	}

	return f.Bytes(), nil
}

func encodeWithIDs(f *Frame, ids []string) ([]byte, error) {
	body, err := encodeIDList(ids)
	if err != nil {
		return nil, err
	}
	f.Body = body
	return f.Bytes(), nil
}

// DecodeMessage decodes a gateway frame. ERROR frames return the gateway's
// reason as a *wire.ProtocolError.
func (*Codec) DecodeMessage(data []byte) (wire.Message, error) {
	f, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}
	op, ok := wire.ParseOperation(f.Operation)
	if !ok {
		return nil, wire.Malformed("unknown operation %q", f.Operation)
	}

	d := &fields{f: f, op: op}
	var msg wire.Message

	switch op {
	case wire.OpError:
		reason := d.required("reason")
		if d.err != nil {
			return nil, d.err
		}
		return nil, wire.GatewayError(reason)

	case wire.OpAuthorized:
		m := &wire.Authorized{
			AccessLevel:     wire.ParseAccessLevel(d.required("access_level")),
			ProtocolVersion: d.required("protocol_version"),
			GatewayVersion:  d.required("gateway_version"),
		}
		if d.err == nil && !version.SupportsProtocol(m.ProtocolVersion) {
			return nil, wire.VersionError()
		}
		if ext, ok := f.Get("available_extensions"); ok && ext != "" {
			m.Extensions = splitList(ext)
		}
		msg = m

	case wire.OpEnumerated:
		msg = &wire.Enumerated{Status: d.status(), DeviceCount: d.integer("device_count")}

	case wire.OpDescription:
		m := &wire.Description{Status: d.status()}
		m.ID, _ = f.Get("id")
		if d.err == nil {
			if m.Status == wire.StatusSuccess {
				if err := json.Unmarshal([]byte(f.Body), &m.Description); err != nil {
					return nil, wire.Malformed("%s body: %v", op, err)
				}
			} else {
				m.Description = map[string]any{}
			}
		}
		msg = m

	case wire.OpPropertyRead:
		m := &wire.PropertyRead{Status: d.status(), ID: d.required("id")}
		if v, ok := f.Get("value"); ok && m.Status == wire.StatusSuccess {
			m.Value = wire.ParseTextValue(v)
		}
		msg = m

	case wire.OpPropertiesRead:
		m := &wire.PropertiesRead{Status: d.status()}
		if d.err == nil && hasBody(f) {
			if m.Results, err = decodeResults(op, f.Body); err != nil {
				return nil, err
			}
		}
		msg = m

	case wire.OpPropertyWritten:
		msg = &wire.PropertyWritten{Status: d.status(), ID: d.required("id")}

	case wire.OpPropertySubscribed:
		msg = &wire.PropertySubscribed{Status: d.status(), ID: d.required("id")}

	case wire.OpPropertyUnsubscribed:
		msg = &wire.PropertyUnsubscribed{Status: d.status(), ID: d.required("id")}

	case wire.OpPropertiesSubscribed:
		m := &wire.PropertiesSubscribed{Status: d.status()}
		if d.err == nil && hasBody(f) {
			if m.Results, err = decodeStatuses(op, f.Body); err != nil {
				return nil, err
			}
		}
		msg = m

	case wire.OpPropertiesUnsubscribed:
		m := &wire.PropertiesUnsubscribed{Status: d.status()}
		if d.err == nil && hasBody(f) {
			if m.Results, err = decodeStatuses(op, f.Body); err != nil {
				return nil, err
			}
		}
		msg = m

	case wire.OpPropertyUpdate:
		msg = &wire.PropertyUpdate{ID: d.required("id"), Value: wire.ParseTextValue(d.required("value"))}

	case wire.OpDatalogRead:
		status := d.status()
		if id, ok := f.Get("id"); ok {
			msg = &wire.DatalogRead{Status: status, ID: id, Count: d.integer("count"), CSV: f.Body}
		} else {
			msg = &wire.DatalogPropertiesRead{Status: status, Count: d.integer("count"), Properties: splitLines(f.Body)}
		}

	case wire.OpDeviceMessage:
		msg = &wire.DeviceMessage{
			Timestamp: d.timestamp("timestamp"),
			AccessID:  d.required("access_id"),
			DeviceID:  d.required("device_id"),
			MessageID: d.integer("message_id"),
			Message:   d.required("message"),
		}

	case wire.OpMessagesRead:
		m := &wire.MessagesRead{Status: d.status(), Count: d.integer("count")}
		if d.err == nil && m.Status == wire.StatusSuccess {
			if m.Messages, err = decodeMessages(f.Body); err != nil {
				return nil, err
			}
		}
		msg = m

	case wire.OpPropertiesFound:
		m := &wire.PropertiesFound{Status: d.status(), ID: d.required("id"), Count: d.integer("count")}
		if v, ok := f.Get("virtual"); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, wire.Malformed("%s header virtual: %q", op, v)
			}
			m.Virtual = &b
		}
		if v, ok := f.Get("functional_filter"); ok && v != "" {
			m.FunctionalFilter = splitList(v)
		}
		if d.err == nil && m.Status == wire.StatusSuccess && hasBody(f) {
			if m.Properties, err = decodeIDList(op, f.Body); err != nil {
				return nil, err
			}
		}
		msg = m

	case wire.OpExtensionCalled:
		m := &wire.ExtensionCalled{
			Extension: d.required("extension"),
			Command:   d.required("command"),
			Status:    wire.ParseExtensionStatus(d.required("status")),
			Body:      f.Body,
		}
		for _, h := range f.Headers {
			switch h.Key {
			case "extension", "command", "status":
			default:
				m.Params = append(m.Params, wire.Param{Name: h.Key, Value: wire.ParseTextValue(h.Value)})
			}
		}
		msg = m

	default:
		return nil, wire.Unexpected(op)
	}

	if d.err != nil {
		return nil, d.err
	}
	return msg, nil
}

// fields reads headers of one frame, keeping the first error.
type fields struct {
	f   *Frame
	op  wire.Operation
	err error
}

func (d *fields) required(key string) string {
	v, ok := d.f.Get(key)
	if !ok && d.err == nil {
		d.err = wire.MissingField(d.op, key)
	}
	return v
}

func (d *fields) status() wire.Status {
	return wire.ParseStatus(d.required("status"))
}

func (d *fields) integer(key string) int {
	v := d.required(key)
	if d.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		d.err = wire.Malformed("%s header %s: %q is not an integer", d.op, key, v)
	}
	return n
}

func (d *fields) timestamp(key string) time.Time {
	v := d.required(key)
	if d.err != nil {
		return time.Time{}
	}
	t, err := wire.ParseTimestamp(v)
	if err != nil {
		d.err = wire.Malformed("%s header %s: %v", d.op, key, err)
	}
	return t
}

func hasBody(f *Frame) bool {
	return strings.TrimSpace(f.Body) != ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func setWindow(f *Frame, from, to time.Time, limit int) {
	if !from.IsZero() {
		f.Set("from", wire.FormatTimestamp(from))
	}
	if !to.IsZero() {
		f.Set("to", wire.FormatTimestamp(to))
	}
	if limit > 0 {
		f.Set("limit", strconv.Itoa(limit))
	}
}
