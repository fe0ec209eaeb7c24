package client

import (
	"context"
	"errors"
	"time"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// ErrMissingID is returned by ReadDatalog when no property id is given.
var ErrMissingID = errors.New("property id required")

// Enumerate asks the gateway to rescan its devices.
func (c *Client) Enumerate(ctx context.Context) (*wire.Enumerated, error) {
	return call[*wire.Enumerated](ctx, c, &wire.EnumerateRequest{})
}

// Describe returns the topology document of the installation or of the
// element selected by req.
func (c *Client) Describe(ctx context.Context, req wire.DescribeRequest) (*wire.Description, error) {
	return call[*wire.Description](ctx, c, &req)
}

// ReadProperty reads one property.
func (c *Client) ReadProperty(ctx context.Context, id string) (*wire.PropertyRead, error) {
	return call[*wire.PropertyRead](ctx, c, &wire.ReadPropertyRequest{ID: id})
}

// ReadProperties reads several properties in one round trip.
func (c *Client) ReadProperties(ctx context.Context, ids []string) (*wire.PropertiesRead, error) {
	return call[*wire.PropertiesRead](ctx, c, &wire.ReadPropertiesRequest{IDs: ids})
}

// WriteProperty writes value to a property. An absent value triggers the
// property. Nil flags leave persistence to the gateway.
func (c *Client) WriteProperty(ctx context.Context, id string, value wire.Value, flags *wire.WriteFlags) (*wire.PropertyWritten, error) {
	return call[*wire.PropertyWritten](ctx, c, &wire.WritePropertyRequest{ID: id, Value: value, Flags: flags})
}

// ReadDatalog reads the logged samples of req.ID.
func (c *Client) ReadDatalog(ctx context.Context, req wire.ReadDatalogRequest) (*wire.DatalogRead, error) {
	if req.ID == "" {
		return nil, ErrMissingID
	}
	return call[*wire.DatalogRead](ctx, c, &req)
}

// ReadDatalogProperties lists the properties with logged data between
// from and to. Zero times leave the window to the gateway.
func (c *Client) ReadDatalogProperties(ctx context.Context, from, to time.Time) (*wire.DatalogPropertiesRead, error) {
	return call[*wire.DatalogPropertiesRead](ctx, c, &wire.ReadDatalogRequest{From: from, To: to})
}

// ReadMessages reads stored device messages.
func (c *Client) ReadMessages(ctx context.Context, req wire.ReadMessagesRequest) (*wire.MessagesRead, error) {
	return call[*wire.MessagesRead](ctx, c, &req)
}

// FindProperties lists property ids matching a wildcard pattern.
func (c *Client) FindProperties(ctx context.Context, req wire.FindPropertiesRequest) (*wire.PropertiesFound, error) {
	return call[*wire.PropertiesFound](ctx, c, &req)
}

// CallExtension runs an extension command. A non-success
// ExtensionStatus is returned in the result, not as an error.
func (c *Client) CallExtension(ctx context.Context, req wire.CallExtensionRequest) (*wire.ExtensionCalled, error) {
	return call[*wire.ExtensionCalled](ctx, c, &req)
}
