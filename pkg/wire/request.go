package wire

import (
	"strings"
	"time"
)

// Request is a frame sent from client to gateway.
type Request interface {
	Operation() Operation
}

// Interface compliance checks.
var (
	_ Request = (*AuthorizeRequest)(nil)
	_ Request = (*EnumerateRequest)(nil)
	_ Request = (*DescribeRequest)(nil)
	_ Request = (*ReadPropertyRequest)(nil)
	_ Request = (*ReadPropertiesRequest)(nil)
	_ Request = (*WritePropertyRequest)(nil)
	_ Request = (*SubscribePropertyRequest)(nil)
	_ Request = (*SubscribePropertiesRequest)(nil)
	_ Request = (*UnsubscribePropertyRequest)(nil)
	_ Request = (*UnsubscribePropertiesRequest)(nil)
	_ Request = (*ReadDatalogRequest)(nil)
	_ Request = (*ReadMessagesRequest)(nil)
	_ Request = (*FindPropertiesRequest)(nil)
	_ Request = (*CallExtensionRequest)(nil)
)

// AuthorizeRequest opens a session. Credentials are sent only when User is set.
type AuthorizeRequest struct {
	User     string
	Password string
}

func (*AuthorizeRequest) Operation() Operation { return OpAuthorize }

// HasCredentials returns true if the request authenticates a user.
func (r *AuthorizeRequest) HasCredentials() bool { return r.User != "" }

// EnumerateRequest asks the gateway to rescan all device access instances.
type EnumerateRequest struct{}

func (*EnumerateRequest) Operation() Operation { return OpEnumerate }

// DescribeRequest queries the topology. An empty AccessID describes the
// whole installation; DeviceID and PropertyID narrow the scope further.
type DescribeRequest struct {
	AccessID   string
	DeviceID   string
	PropertyID string
	Flags      DescriptionFlags
}

func (*DescribeRequest) Operation() Operation { return OpDescribe }

// ID returns the dotted identifier of the described element, or "" for the
// whole installation. Trailing parts are only used when their parent is set.
func (r *DescribeRequest) ID() string {
	if r.AccessID == "" {
		return ""
	}
	parts := []string{r.AccessID}
	if r.DeviceID != "" {
		parts = append(parts, r.DeviceID)
		if r.PropertyID != "" {
			parts = append(parts, r.PropertyID)
		}
	}
	return strings.Join(parts, ".")
}

// ReadPropertyRequest reads one property value.
type ReadPropertyRequest struct {
	ID string
}

func (*ReadPropertyRequest) Operation() Operation { return OpReadProperty }

// ReadPropertiesRequest reads several property values in one round trip.
type ReadPropertiesRequest struct {
	IDs []string
}

func (*ReadPropertiesRequest) Operation() Operation { return OpReadProperties }

// WritePropertyRequest writes a property. An absent Value triggers the
// property without a value. A nil Flags leaves the choice to the gateway.
type WritePropertyRequest struct {
	ID    string
	Value Value
	Flags *WriteFlags
}

func (*WritePropertyRequest) Operation() Operation { return OpWriteProperty }

// SubscribePropertyRequest subscribes to updates of one property.
type SubscribePropertyRequest struct {
	ID string
}

func (*SubscribePropertyRequest) Operation() Operation { return OpSubscribeProperty }

// SubscribePropertiesRequest subscribes to several properties.
type SubscribePropertiesRequest struct {
	IDs []string
}

func (*SubscribePropertiesRequest) Operation() Operation { return OpSubscribeProperties }

// UnsubscribePropertyRequest cancels the subscription of one property.
type UnsubscribePropertyRequest struct {
	ID string
}

func (*UnsubscribePropertyRequest) Operation() Operation { return OpUnsubscribeProperty }

// UnsubscribePropertiesRequest cancels several subscriptions.
type UnsubscribePropertiesRequest struct {
	IDs []string
}

func (*UnsubscribePropertiesRequest) Operation() Operation { return OpUnsubscribeProperties }

// ReadDatalogRequest reads the logged time series of a property. An empty
// ID lists the properties that have data in the time window instead. Zero
// times and a non-positive Limit are left to the gateway's defaults.
type ReadDatalogRequest struct {
	ID    string
	From  time.Time
	To    time.Time
	Limit int
}

func (*ReadDatalogRequest) Operation() Operation { return OpReadDatalog }

// ReadMessagesRequest reads stored device messages.
type ReadMessagesRequest struct {
	From  time.Time
	To    time.Time
	Limit int
}

func (*ReadMessagesRequest) Operation() Operation { return OpReadMessages }

// FindPropertiesRequest searches property identifiers matching a wildcard
// pattern such as "*.inv.3136".
type FindPropertiesRequest struct {
	ID               string
	Virtual          *bool
	FunctionalFilter []string
}

func (*FindPropertiesRequest) Operation() Operation { return OpFindProperties }

// Param is a named extension parameter. The binary wire carries values
// positionally, so Name is empty on binary results.
type Param struct {
	Name  string
	Value Value
}

// CallExtensionRequest invokes a gateway extension command.
type CallExtensionRequest struct {
	Extension string
	Command   string
	Params    []Param
	Body      string
}

func (*CallExtensionRequest) Operation() Operation { return OpCallExtension }
