package asyncclient

import "github.com/openstuder/openstuder-go/pkg/wire"

// Listener receives the client's events. All methods are called on the
// client's run loop, one at a time, in the order frames arrive. Methods may
// send further requests or call Disconnect.
type Listener interface {
	// OnConnected is called once authorization succeeded.
	OnConnected(level wire.AccessLevel, gatewayVersion string)

	// OnDisconnected is called once per connection after it closed. err is
	// nil when Disconnect closed it or the connect context was cancelled.
	OnDisconnected(err error)

	// OnError reports ERROR frames, frames that cannot be decoded and
	// frames that arrive out of place. The run loop keeps going.
	OnError(err error)

	OnEnumerated(m *wire.Enumerated)
	OnDescription(m *wire.Description)
	OnPropertyRead(m *wire.PropertyRead)
	OnPropertiesRead(m *wire.PropertiesRead)
	OnPropertyWritten(m *wire.PropertyWritten)
	OnPropertySubscribed(m *wire.PropertySubscribed)
	OnPropertiesSubscribed(m *wire.PropertiesSubscribed)
	OnPropertyUnsubscribed(m *wire.PropertyUnsubscribed)
	OnPropertiesUnsubscribed(m *wire.PropertiesUnsubscribed)
	OnDatalogRead(m *wire.DatalogRead)
	OnDatalogPropertiesRead(m *wire.DatalogPropertiesRead)
	OnMessagesRead(m *wire.MessagesRead)
	OnPropertiesFound(m *wire.PropertiesFound)
	OnExtensionCalled(m *wire.ExtensionCalled)

	// OnPropertyUpdated is called for updates of active subscriptions only.
	OnPropertyUpdated(m *wire.PropertyUpdate)

	// OnDeviceMessage is called for every device message the gateway pushes.
	OnDeviceMessage(m *wire.DeviceMessage)
}

// BaseListener implements Listener with no-op methods. Embed it to handle
// only some events.
type BaseListener struct{}

func (BaseListener) OnConnected(wire.AccessLevel, string)                  {}
func (BaseListener) OnDisconnected(error)                                  {}
func (BaseListener) OnError(error)                                         {}
func (BaseListener) OnEnumerated(*wire.Enumerated)                         {}
func (BaseListener) OnDescription(*wire.Description)                       {}
func (BaseListener) OnPropertyRead(*wire.PropertyRead)                     {}
func (BaseListener) OnPropertiesRead(*wire.PropertiesRead)                 {}
func (BaseListener) OnPropertyWritten(*wire.PropertyWritten)               {}
func (BaseListener) OnPropertySubscribed(*wire.PropertySubscribed)         {}
func (BaseListener) OnPropertiesSubscribed(*wire.PropertiesSubscribed)     {}
func (BaseListener) OnPropertyUnsubscribed(*wire.PropertyUnsubscribed)     {}
func (BaseListener) OnPropertiesUnsubscribed(*wire.PropertiesUnsubscribed) {}
func (BaseListener) OnDatalogRead(*wire.DatalogRead)                       {}
func (BaseListener) OnDatalogPropertiesRead(*wire.DatalogPropertiesRead)   {}
func (BaseListener) OnMessagesRead(*wire.MessagesRead)                     {}
func (BaseListener) OnPropertiesFound(*wire.PropertiesFound)               {}
func (BaseListener) OnExtensionCalled(*wire.ExtensionCalled)               {}
func (BaseListener) OnPropertyUpdated(*wire.PropertyUpdate)                {}
func (BaseListener) OnDeviceMessage(*wire.DeviceMessage)                   {}

var _ Listener = BaseListener{}
