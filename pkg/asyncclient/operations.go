package asyncclient

import (
	"errors"
	"time"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// ErrMissingID is returned by ReadDatalog when no property id is given.
var ErrMissingID = errors.New("property id required")

// Enumerate asks the gateway to rescan its devices. The result arrives at
// OnEnumerated.
func (c *Client) Enumerate() error {
	return c.send(&wire.EnumerateRequest{})
}

// Describe requests a topology document. The result arrives at OnDescription.
func (c *Client) Describe(req wire.DescribeRequest) error {
	return c.send(&req)
}

// ReadProperty requests one property value.
func (c *Client) ReadProperty(id string) error {
	return c.send(&wire.ReadPropertyRequest{ID: id})
}

// ReadProperties requests several property values.
func (c *Client) ReadProperties(ids []string) error {
	return c.send(&wire.ReadPropertiesRequest{IDs: ids})
}

// WriteProperty writes a property. An absent value triggers it.
func (c *Client) WriteProperty(id string, value wire.Value, flags *wire.WriteFlags) error {
	return c.send(&wire.WritePropertyRequest{ID: id, Value: value, Flags: flags})
}

// SubscribeToProperty subscribes to updates of id. Updates are delivered
// to OnPropertyUpdated once the gateway confirmed the subscription.
func (c *Client) SubscribeToProperty(id string) error {
	added := c.subscriptions.AddPending(id)
	err := c.send(&wire.SubscribePropertyRequest{ID: id})
	if err != nil && added {
		c.subscriptions.Remove(id)
	}
	return err
}

// SubscribeToProperties subscribes to several properties at once.
func (c *Client) SubscribeToProperties(ids []string) error {
	var added []string
	for _, id := range ids {
		if c.subscriptions.AddPending(id) {
			added = append(added, id)
		}
	}
	err := c.send(&wire.SubscribePropertiesRequest{IDs: ids})
	if err != nil {
		for _, id := range added {
			c.subscriptions.Remove(id)
		}
	}
	return err
}

// UnsubscribeFromProperty cancels the subscription of id. Updates keep
// arriving until the gateway acknowledged it.
func (c *Client) UnsubscribeFromProperty(id string) error {
	return c.send(&wire.UnsubscribePropertyRequest{ID: id})
}

// UnsubscribeFromProperties cancels several subscriptions.
func (c *Client) UnsubscribeFromProperties(ids []string) error {
	return c.send(&wire.UnsubscribePropertiesRequest{IDs: ids})
}

// ReadDatalog requests the logged samples of req.ID.
func (c *Client) ReadDatalog(req wire.ReadDatalogRequest) error {
	if req.ID == "" {
		return ErrMissingID
	}
	return c.send(&req)
}

// ReadDatalogProperties requests the list of properties with logged data.
// The result arrives at OnDatalogPropertiesRead.
func (c *Client) ReadDatalogProperties(from, to time.Time) error {
	return c.send(&wire.ReadDatalogRequest{From: from, To: to})
}

// ReadMessages requests stored device messages.
func (c *Client) ReadMessages(req wire.ReadMessagesRequest) error {
	return c.send(&req)
}

// FindProperties searches property ids matching a wildcard pattern.
func (c *Client) FindProperties(req wire.FindPropertiesRequest) error {
	return c.send(&req)
}

// CallExtension runs an extension command.
func (c *Client) CallExtension(req wire.CallExtensionRequest) error {
	return c.send(&req)
}
