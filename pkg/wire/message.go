package wire

import "time"

// Message is a frame received from the gateway.
type Message interface {
	Operation() Operation
}

// Interface compliance checks.
var (
	_ Message = (*Authorized)(nil)
	_ Message = (*Enumerated)(nil)
	_ Message = (*Description)(nil)
	_ Message = (*PropertyRead)(nil)
	_ Message = (*PropertiesRead)(nil)
	_ Message = (*PropertyWritten)(nil)
	_ Message = (*PropertySubscribed)(nil)
	_ Message = (*PropertiesSubscribed)(nil)
	_ Message = (*PropertyUnsubscribed)(nil)
	_ Message = (*PropertiesUnsubscribed)(nil)
	_ Message = (*DatalogRead)(nil)
	_ Message = (*DatalogPropertiesRead)(nil)
	_ Message = (*MessagesRead)(nil)
	_ Message = (*PropertiesFound)(nil)
	_ Message = (*ExtensionCalled)(nil)
	_ Message = (*PropertyUpdate)(nil)
	_ Message = (*DeviceMessage)(nil)
	_ Message = (*ErrorMessage)(nil)
)

// Authorized completes a successful AUTHORIZE.
type Authorized struct {
	AccessLevel     AccessLevel
	ProtocolVersion string
	GatewayVersion  string
	Extensions      []string
}

func (*Authorized) Operation() Operation { return OpAuthorized }

// Enumerated reports the number of devices found.
type Enumerated struct {
	Status      Status
	DeviceCount int
}

func (*Enumerated) Operation() Operation { return OpEnumerated }

// Description carries the topology document. ID is empty when the whole
// installation was described. Description is a decoded JSON-like tree.
type Description struct {
	Status      Status
	ID          string
	Description any
}

func (*Description) Operation() Operation { return OpDescription }

// PropertyRead carries one property value. Value is absent unless Status
// is StatusSuccess.
type PropertyRead struct {
	Status Status
	ID     string
	Value  Value
}

func (*PropertyRead) Operation() Operation { return OpPropertyRead }

// PropertyResult is one entry of a multi-property read.
type PropertyResult struct {
	Status Status
	ID     string
	Value  Value
}

// PropertiesRead carries the results of a READ PROPERTIES.
type PropertiesRead struct {
	Status  Status
	Results []PropertyResult
}

func (*PropertiesRead) Operation() Operation { return OpPropertiesRead }

// PropertyWritten acknowledges a write.
type PropertyWritten struct {
	Status Status
	ID     string
}

func (*PropertyWritten) Operation() Operation { return OpPropertyWritten }

// PropertyStatus is one entry of a multi-property acknowledgement.
type PropertyStatus struct {
	Status Status
	ID     string
}

// PropertySubscribed acknowledges a subscription.
type PropertySubscribed struct {
	Status Status
	ID     string
}

func (*PropertySubscribed) Operation() Operation { return OpPropertySubscribed }

// PropertiesSubscribed acknowledges a multi-property subscription.
type PropertiesSubscribed struct {
	Status  Status
	Results []PropertyStatus
}

func (*PropertiesSubscribed) Operation() Operation { return OpPropertiesSubscribed }

// PropertyUnsubscribed acknowledges an unsubscription.
type PropertyUnsubscribed struct {
	Status Status
	ID     string
}

func (*PropertyUnsubscribed) Operation() Operation { return OpPropertyUnsubscribed }

// PropertiesUnsubscribed acknowledges a multi-property unsubscription.
type PropertiesUnsubscribed struct {
	Status  Status
	Results []PropertyStatus
}

func (*PropertiesUnsubscribed) Operation() Operation { return OpPropertiesUnsubscribed }

// DatalogEntry is one logged sample.
type DatalogEntry struct {
	Timestamp time.Time
	Value     Value
}

// DatalogRead carries the time series of one property. The text wire
// delivers the samples as CSV, the binary wire as Entries.
type DatalogRead struct {
	Status  Status
	ID      string
	Count   int
	CSV     string
	Entries []DatalogEntry
}

func (*DatalogRead) Operation() Operation { return OpDatalogRead }

// Samples returns the entries, parsing the CSV body if the frame was text.
func (m *DatalogRead) Samples() ([]DatalogEntry, error) {
	if m.Entries != nil || m.CSV == "" {
		return m.Entries, nil
	}
	return ParseDatalogCSV(m.CSV)
}

// DatalogPropertiesRead lists the properties that have logged data.
type DatalogPropertiesRead struct {
	Status     Status
	Count      int
	Properties []string
}

func (*DatalogPropertiesRead) Operation() Operation { return OpDatalogRead }

// DeviceMessage is a record from a device's event log.
type DeviceMessage struct {
	Timestamp time.Time
	AccessID  string
	DeviceID  string
	MessageID int
	Message   string
}

func (*DeviceMessage) Operation() Operation { return OpDeviceMessage }

// MessagesRead carries stored device messages.
type MessagesRead struct {
	Status   Status
	Count    int
	Messages []DeviceMessage
}

func (*MessagesRead) Operation() Operation { return OpMessagesRead }

// PropertiesFound carries the result of a FIND PROPERTIES.
type PropertiesFound struct {
	Status           Status
	ID               string
	Count            int
	Virtual          *bool
	FunctionalFilter []string
	Properties       []string
}

func (*PropertiesFound) Operation() Operation { return OpPropertiesFound }

// ExtensionCalled carries the result of an extension command.
type ExtensionCalled struct {
	Extension string
	Command   string
	Status    ExtensionStatus
	Params    []Param
	Body      string
}

func (*ExtensionCalled) Operation() Operation { return OpExtensionCalled }

// PropertyUpdate is pushed for subscribed properties.
type PropertyUpdate struct {
	ID    string
	Value Value
}

func (*PropertyUpdate) Operation() Operation { return OpPropertyUpdate }

// ErrorMessage is an ERROR frame. Codecs never return it from
// DecodeMessage; they return the equivalent *ProtocolError instead. It
// exists so gateways can encode ERROR frames.
type ErrorMessage struct {
	Reason string
}

func (*ErrorMessage) Operation() Operation { return OpError }

// Err returns the error a client surfaces for this frame.
func (m *ErrorMessage) Err() error { return GatewayError(m.Reason) }
