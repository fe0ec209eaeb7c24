package gatewaytest

import (
	"time"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Fixture values returned by Respond.
const (
	GatewayVersion = "0.0.0.348734"
	DeviceCount    = 7
	PropertyValue  = 42.24
)

// Extensions is the extension list announced by Respond.
var Extensions = []string{"WifiConfig", "UserManagement"}

// SampleTime is the timestamp of the first datalog sample and device message.
var SampleTime = time.Date(2020, time.January, 1, 10, 0, 0, 0, time.UTC)

// Respond answers every request with a successful response built from the
// fixture values.
func Respond(req wire.Request) []wire.Message {
	switch r := req.(type) {
	case *wire.AuthorizeRequest:
		level := wire.AccessLevelBasic
		if r.HasCredentials() {
			level = wire.AccessLevelExpert
		}
		return []wire.Message{&wire.Authorized{
			AccessLevel:     level,
			ProtocolVersion: wire.ProtocolVersion,
			GatewayVersion:  GatewayVersion,
			Extensions:      Extensions,
		}}

	case *wire.EnumerateRequest:
		return []wire.Message{&wire.Enumerated{Status: wire.StatusSuccess, DeviceCount: DeviceCount}}

	case *wire.DescribeRequest:
		return []wire.Message{&wire.Description{
			Status:      wire.StatusSuccess,
			ID:          r.ID(),
			Description: map[string]any{"instances": []any{}},
		}}

	case *wire.ReadPropertyRequest:
		return []wire.Message{&wire.PropertyRead{Status: wire.StatusSuccess, ID: r.ID, Value: wire.Number(PropertyValue)}}

	case *wire.ReadPropertiesRequest:
		m := &wire.PropertiesRead{Status: wire.StatusSuccess}
		for _, id := range r.IDs {
			m.Results = append(m.Results, wire.PropertyResult{Status: wire.StatusSuccess, ID: id, Value: wire.Number(PropertyValue)})
		}
		return []wire.Message{m}

	case *wire.WritePropertyRequest:
		return []wire.Message{&wire.PropertyWritten{Status: wire.StatusSuccess, ID: r.ID}}

	case *wire.SubscribePropertyRequest:
		return []wire.Message{&wire.PropertySubscribed{Status: wire.StatusSuccess, ID: r.ID}}

	case *wire.SubscribePropertiesRequest:
		return []wire.Message{&wire.PropertiesSubscribed{Status: wire.StatusSuccess, Results: statuses(r.IDs)}}

	case *wire.UnsubscribePropertyRequest:
		return []wire.Message{&wire.PropertyUnsubscribed{Status: wire.StatusSuccess, ID: r.ID}}

	case *wire.UnsubscribePropertiesRequest:
		return []wire.Message{&wire.PropertiesUnsubscribed{Status: wire.StatusSuccess, Results: statuses(r.IDs)}}

	case *wire.ReadDatalogRequest:
		if r.ID == "" {
			props := []string{"demo.inv.3136", "demo.inv.3137"}
			return []wire.Message{&wire.DatalogPropertiesRead{Status: wire.StatusSuccess, Count: len(props), Properties: props}}
		}
		entries := []wire.DatalogEntry{
			{Timestamp: SampleTime, Value: wire.Number(1)},
			{Timestamp: SampleTime.Add(time.Minute), Value: wire.Number(2)},
		}
		return []wire.Message{&wire.DatalogRead{Status: wire.StatusSuccess, ID: r.ID, Count: len(entries), Entries: entries}}

	case *wire.ReadMessagesRequest:
		msgs := []wire.DeviceMessage{
			{Timestamp: SampleTime, AccessID: "demo", DeviceID: "inv", MessageID: 20, Message: "Warning: battery undervoltage"},
		}
		return []wire.Message{&wire.MessagesRead{Status: wire.StatusSuccess, Count: len(msgs), Messages: msgs}}

	case *wire.FindPropertiesRequest:
		props := []string{"demo.inv.3136"}
		return []wire.Message{&wire.PropertiesFound{
			Status:           wire.StatusSuccess,
			ID:               r.ID,
			Count:            len(props),
			Virtual:          r.Virtual,
			FunctionalFilter: r.FunctionalFilter,
			Properties:       props,
		}}

	case *wire.CallExtensionRequest:
		return []wire.Message{&wire.ExtensionCalled{
			Extension: r.Extension,
			Command:   r.Command,
			Status:    wire.ExtensionStatusSuccess,
			Params:    r.Params,
			Body:      r.Body,
		}}
	}
	return []wire.Message{&wire.ErrorMessage{Reason: "unsupported request"}}
}

func statuses(ids []string) []wire.PropertyStatus {
	out := make([]wire.PropertyStatus, 0, len(ids))
	for _, id := range ids {
		out = append(out, wire.PropertyStatus{Status: wire.StatusSuccess, ID: id})
	}
	return out
}
