// Package asyncclient implements the asynchronous gateway client.
//
// Requests are written immediately and return without waiting for the
// gateway. A single run loop per connection reads frames and calls the
// Listener, strictly in arrival order and never concurrently:
//
//	type monitor struct{ asyncclient.BaseListener }
//
//	func (monitor) OnPropertyUpdated(m *wire.PropertyUpdate) {
//	    fmt.Println(m.ID, m.Value)
//	}
//
//	c := asyncclient.New(monitor{}, asyncclient.DefaultConfig())
//	err := c.ConnectForeground(ctx, "192.168.1.10", "", "")
//
// ConnectBackground runs the same loop on its own goroutine. Listener
// methods may send requests and may call Disconnect.
//
// Subscriptions are tracked in a subscription.Registry: an entry is pending
// until PROPERTY SUBSCRIBED confirms it, updates reach OnPropertyUpdated
// only for active entries, and the registry is cleared whenever the
// connection ends. A frame that cannot be decoded is reported to OnError
// and the loop continues with the next one.
package asyncclient
