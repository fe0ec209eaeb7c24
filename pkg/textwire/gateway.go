package textwire

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// DecodeRequest decodes a client frame.
func (*Codec) DecodeRequest(data []byte) (wire.Request, error) {
	f, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}
	op, ok := wire.ParseOperation(f.Operation)
	if !ok {
		return nil, wire.Malformed("unknown operation %q", f.Operation)
	}

	d := &fields{f: f, op: op}
	var req wire.Request

	switch op {
	case wire.OpAuthorize:
		r := &wire.AuthorizeRequest{}
		r.User, _ = f.Get("user")
		r.Password, _ = f.Get("password")
		if v := d.required("protocol_version"); d.err == nil && v != wire.ProtocolVersion {
			return nil, wire.Malformed("%s protocol_version %q", op, v)
		}
		req = r

	case wire.OpEnumerate:
		req = &wire.EnumerateRequest{}

	case wire.OpDescribe:
		r := &wire.DescribeRequest{}
		if id, ok := f.Get("id"); ok {
			parts := strings.SplitN(id, ".", 3)
			r.AccessID = parts[0]
			if len(parts) > 1 {
				r.DeviceID = parts[1]
			}
			if len(parts) > 2 {
				r.PropertyID = parts[2]
			}
		}
		if flags, ok := f.Get("flags"); ok {
			r.Flags = wire.ParseDescriptionFlags(flags)
		}
		req = r

	case wire.OpReadProperty:
		req = &wire.ReadPropertyRequest{ID: d.required("id")}

	case wire.OpReadProperties:
		ids, err := decodeIDList(op, f.Body)
		if err != nil {
			return nil, err
		}
		req = &wire.ReadPropertiesRequest{IDs: ids}

	case wire.OpWriteProperty:
		r := &wire.WritePropertyRequest{ID: d.required("id")}
		if flags, ok := f.Get("flags"); ok {
			r.Flags = wire.ParseWriteFlags(flags).Ptr()
		}
		if v, ok := f.Get("value"); ok {
			r.Value = wire.ParseTextValue(v)
		}
		req = r

	case wire.OpSubscribeProperty:
		req = &wire.SubscribePropertyRequest{ID: d.required("id")}

	case wire.OpSubscribeProperties:
		ids, err := decodeIDList(op, f.Body)
		if err != nil {
			return nil, err
		}
		req = &wire.SubscribePropertiesRequest{IDs: ids}

	case wire.OpUnsubscribeProperty:
		req = &wire.UnsubscribePropertyRequest{ID: d.required("id")}

	case wire.OpUnsubscribeProperties:
		ids, err := decodeIDList(op, f.Body)
		if err != nil {
			return nil, err
		}
		req = &wire.UnsubscribePropertiesRequest{IDs: ids}

	case wire.OpReadDatalog:
		r := &wire.ReadDatalogRequest{}
		r.ID, _ = f.Get("id")
		r.From, r.To, r.Limit = d.window()
		req = r

	case wire.OpReadMessages:
		r := &wire.ReadMessagesRequest{}
		r.From, r.To, r.Limit = d.window()
		req = r

	case wire.OpFindProperties:
		r := &wire.FindPropertiesRequest{ID: d.required("id")}
		if v, ok := f.Get("virtual"); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, wire.Malformed("%s header virtual: %q", op, v)
			}
			r.Virtual = &b
		}
		if v, ok := f.Get("functional_filter"); ok && v != "" {
			r.FunctionalFilter = splitList(v)
		}
		req = r

	case wire.OpCallExtension:
		r := &wire.CallExtensionRequest{
			Extension: d.required("extension"),
			Command:   d.required("command"),
			Body:      f.Body,
		}
		for _, h := range f.Headers {
			if h.Key != "extension" && h.Key != "command" {
				r.Params = append(r.Params, wire.Param{Name: h.Key, Value: wire.ParseTextValue(h.Value)})
			}
		}
		req = r

	default:
		return nil, wire.Unexpected(op)
	}

	if d.err != nil {
		return nil, d.err
	}
	return req, nil
}

// window reads the optional from, to and limit headers.
func (d *fields) window() (from, to time.Time, limit int) {
	if d.f.Has("from") {
		from = d.timestamp("from")
	}
	if d.f.Has("to") {
		to = d.timestamp("to")
	}
	if d.f.Has("limit") {
		limit = d.integer("limit")
	}
	return from, to, limit
}

// EncodeMessage encodes a gateway frame.
func (*Codec) EncodeMessage(msg wire.Message) ([]byte, error) {
	f := NewFrame(msg.Operation())
	var err error

	switch m := msg.(type) {
	case *wire.ErrorMessage:
		f.Set("reason", m.Reason)

	case *wire.Authorized:
		version := m.ProtocolVersion
		if version == "" {
			version = wire.ProtocolVersion
		}
		f.Set("access_level", m.AccessLevel.Text()).
			Set("protocol_version", version).
			Set("gateway_version", m.GatewayVersion)
		if len(m.Extensions) > 0 {
			f.Set("available_extensions", strings.Join(m.Extensions, ","))
		}

	case *wire.Enumerated:
		f.Set("status", m.Status.Text()).Set("device_count", strconv.Itoa(m.DeviceCount))

	case *wire.Description:
		f.Set("status", m.Status.Text())
		if m.ID != "" {
			f.Set("id", m.ID)
		}
		if m.Status == wire.StatusSuccess {
			var b []byte
			b, err = json.Marshal(m.Description)
			f.Body = string(b)
		}

	case *wire.PropertyRead:
		f.Set("status", m.Status.Text()).Set("id", m.ID)
		if !m.Value.IsAbsent() {
			f.Set("value", m.Value.String())
		}

	case *wire.PropertiesRead:
		f.Set("status", m.Status.Text())
		f.Body, err = encodeResults(m.Results)

	case *wire.PropertyWritten:
		f.Set("status", m.Status.Text()).Set("id", m.ID)

	case *wire.PropertySubscribed:
		f.Set("status", m.Status.Text()).Set("id", m.ID)

	case *wire.PropertyUnsubscribed:
		f.Set("status", m.Status.Text()).Set("id", m.ID)

	case *wire.PropertiesSubscribed:
		f.Set("status", m.Status.Text())
		f.Body, err = encodeStatuses(m.Results)

	case *wire.PropertiesUnsubscribed:
		f.Set("status", m.Status.Text())
		f.Body, err = encodeStatuses(m.Results)

	case *wire.PropertyUpdate:
		f.Set("id", m.ID).Set("value", m.Value.String())

	case *wire.DatalogRead:
		f.Set("status", m.Status.Text()).Set("id", m.ID).Set("count", strconv.Itoa(m.Count))
		f.Body = m.CSV
		if f.Body == "" && len(m.Entries) > 0 {
			f.Body = wire.FormatDatalogCSV(m.Entries)
		}

	case *wire.DatalogPropertiesRead:
		f.Set("status", m.Status.Text()).Set("count", strconv.Itoa(m.Count))
		f.Body = strings.Join(m.Properties, "\n")

	case *wire.DeviceMessage:
		f.Set("timestamp", wire.FormatTimestamp(m.Timestamp)).
			Set("access_id", m.AccessID).
			Set("device_id", m.DeviceID).
			Set("message_id", strconv.Itoa(m.MessageID)).
			Set("message", m.Message)

	case *wire.MessagesRead:
		f.Set("status", m.Status.Text()).Set("count", strconv.Itoa(m.Count))
		if m.Status == wire.StatusSuccess {
			f.Body, err = encodeMessages(m.Messages)
		}

	case *wire.PropertiesFound:
		f.Set("status", m.Status.Text()).Set("id", m.ID).Set("count", strconv.Itoa(m.Count))
		if m.Virtual != nil {
			f.Set("virtual", strconv.FormatBool(*m.Virtual))
		}
		if len(m.FunctionalFilter) > 0 {
			f.Set("functional_filter", strings.Join(m.FunctionalFilter, ","))
		}
		f.Body, err = encodeIDList(m.Properties)

	case *wire.ExtensionCalled:
		f.Set("extension", m.Extension).Set("command", m.Command).Set("status", m.Status.Text())
		for _, p := range m.Params {
			f.Set(p.Name, p.Value.String())
		}
		f.Body = m.Body

	default:
		return nil, wire.Unexpected(msg.Operation())
	}

	if err != nil {
		return nil, err
	}
	return f.Bytes(), nil
}
