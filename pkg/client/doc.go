// Package client implements the synchronous gateway client.
//
// A Client owns one transport connection and one connection.Session. Each
// operation sends a single request and blocks until the matching response
// or an ERROR frame arrives:
//
//	c := client.New(client.DefaultConfig())
//	level, err := c.Connect(ctx, "192.168.1.10", "installer", "secret")
//	if err != nil {
//	    return err
//	}
//	defer c.Disconnect()
//
//	read, err := c.ReadProperty(ctx, "demo.inv.3136")
//
// Frames that do not answer the outstanding request, including property
// updates and device messages, are discarded. Use package asyncclient for
// subscriptions.
//
// Operations invoked while not connected fail with a *connection.StateError
// before anything is sent. Transport failures and cancelled contexts end
// the session; the error is a *wire.ProtocolError wrapping the cause.
package client
