package connection

import (
	"errors"

	"github.com/openstuder/openstuder-go/pkg/log"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

// RequestEvent describes an outgoing request for protocol capture.
func RequestEvent(req wire.Request) log.MessageEvent {
	e := log.MessageEvent{Type: log.MessageTypeRequest, Operation: req.Operation().String()}
	switch r := req.(type) {
	case *wire.DescribeRequest:
		e.PropertyID = r.ID()
	case *wire.ReadPropertyRequest:
		e.PropertyID = r.ID
	case *wire.WritePropertyRequest:
		e.PropertyID = r.ID
	case *wire.SubscribePropertyRequest:
		e.PropertyID = r.ID
	case *wire.UnsubscribePropertyRequest:
		e.PropertyID = r.ID
	case *wire.ReadDatalogRequest:
		e.PropertyID = r.ID
	case *wire.FindPropertiesRequest:
		e.PropertyID = r.ID
	case *wire.ReadPropertiesRequest:
		e.Count = intPtr(len(r.IDs))
	case *wire.SubscribePropertiesRequest:
		e.Count = intPtr(len(r.IDs))
	case *wire.UnsubscribePropertiesRequest:
		e.Count = intPtr(len(r.IDs))
	case *wire.CallExtensionRequest:
		e.PropertyID = r.Extension + "." + r.Command
	}
	return e
}

// MessageEvent describes a decoded gateway frame for protocol capture.
func MessageEvent(msg wire.Message) log.MessageEvent {
	e := log.MessageEvent{Type: log.MessageTypeResponse, Operation: msg.Operation().String()}
	if msg.Operation().IsUnsolicited() {
		e.Type = log.MessageTypeUpdate
	}
	switch m := msg.(type) {
	case *wire.Authorized:
		e.Status = m.AccessLevel.Text()
	case *wire.Enumerated:
		e.Status = m.Status.Text()
		e.Count = intPtr(m.DeviceCount)
	case *wire.Description:
		e.Status, e.PropertyID = m.Status.Text(), m.ID
	case *wire.PropertyRead:
		e.Status, e.PropertyID = m.Status.Text(), m.ID
	case *wire.PropertiesRead:
		e.Status, e.Count = m.Status.Text(), intPtr(len(m.Results))
	case *wire.PropertyWritten:
		e.Status, e.PropertyID = m.Status.Text(), m.ID
	case *wire.PropertySubscribed:
		e.Status, e.PropertyID = m.Status.Text(), m.ID
	case *wire.PropertiesSubscribed:
		e.Status, e.Count = m.Status.Text(), intPtr(len(m.Results))
	case *wire.PropertyUnsubscribed:
		e.Status, e.PropertyID = m.Status.Text(), m.ID
	case *wire.PropertiesUnsubscribed:
		e.Status, e.Count = m.Status.Text(), intPtr(len(m.Results))
	case *wire.DatalogRead:
		e.Status, e.PropertyID, e.Count = m.Status.Text(), m.ID, intPtr(m.Count)
	case *wire.DatalogPropertiesRead:
		e.Status, e.Count = m.Status.Text(), intPtr(m.Count)
	case *wire.MessagesRead:
		e.Status, e.Count = m.Status.Text(), intPtr(m.Count)
	case *wire.PropertiesFound:
		e.Status, e.PropertyID, e.Count = m.Status.Text(), m.ID, intPtr(m.Count)
	case *wire.ExtensionCalled:
		e.Status, e.PropertyID = m.Status.Text(), m.Extension+"."+m.Command
	case *wire.PropertyUpdate:
		e.PropertyID = m.ID
	case *wire.DeviceMessage:
		e.PropertyID = m.AccessID + "." + m.DeviceID
	}
	return e
}

// ErrorEvent describes a decoded ERROR frame. It returns false for errors
// that did not come from the gateway.
func ErrorEvent(err error) (log.MessageEvent, bool) {
	var pe *wire.ProtocolError
	if !errors.As(err, &pe) || !errors.Is(err, wire.ErrGateway) {
		return log.MessageEvent{}, false
	}
	return log.MessageEvent{Type: log.MessageTypeError, Operation: wire.OpError.String(), Reason: pe.Reason}, true
}

func intPtr(n int) *int { return &n }
