package log

import "time"

// Event is one protocol capture record.
// It is encoded as a CBOR map with integer keys.
type Event struct {
	// Timestamp is the capture time.
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow relative to the client.
	Direction Direction `cbor:"3,keyasint"`

	// Layer that emitted the event.
	Layer Layer `cbor:"4,keyasint"`

	// Category selects which payload field is set.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the gateway address.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Codec is the wire encoding in use ("text" or "binary").
	Codec string `cbor:"7,keyasint,omitempty"`

	// Exactly one payload is set, matching Category and Layer.
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	ControlMsg  *ControlMsgEvent  `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction is the flow of a frame or message.
type Direction uint8

const (
	// DirectionIn is gateway to client.
	DirectionIn Direction = 0
	// DirectionOut is client to gateway.
	DirectionOut Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which part of the stack captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the codec layer (decoded frames).
	LayerWire Layer = 1
	// LayerClient is the session layer of the sync and async clients.
	LayerClient Layer = 2
)

func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// Category groups events by payload.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryControl Category = 1
	CategoryState   Category = 2
	CategoryError   Category = 3
)

func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent holds the bytes of one transport frame.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data holds at most MaxFrameDataSize bytes of the frame.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated is set when Data is shorter than Size.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded frame at the wire layer.
type MessageEvent struct {
	Type MessageType `cbor:"1,keyasint"`

	// Operation is the text wire operation name.
	Operation string `cbor:"2,keyasint"`

	// Status is the result status name for responses.
	Status string `cbor:"3,keyasint,omitempty"`

	// PropertyID is the addressed property or element, if any.
	PropertyID string `cbor:"4,keyasint,omitempty"`

	// Count is the number of results for list responses.
	Count *int `cbor:"5,keyasint,omitempty"`

	// Reason is the gateway's text for ERROR frames.
	Reason string `cbor:"6,keyasint,omitempty"`
}

// MessageType distinguishes requests, responses and pushed frames.
type MessageType uint8

const (
	MessageTypeRequest  MessageType = 0
	MessageTypeResponse MessageType = 1
	MessageTypeUpdate   MessageType = 2
	MessageTypeError    MessageType = 3
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeUpdate:
		return "UPDATE"
	case MessageTypeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures session state transitions.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`
	Reason   string `cbor:"3,keyasint,omitempty"`
}

// ControlMsgEvent captures keep-alive and close control frames.
type ControlMsgEvent struct {
	Type ControlMsgType `cbor:"1,keyasint"`

	// Sequence is the keep-alive sequence number of pings and pongs.
	Sequence uint32 `cbor:"2,keyasint,omitempty"`

	// CloseCode is the WebSocket close code for close frames.
	CloseCode *int `cbor:"3,keyasint,omitempty"`
}

// ControlMsgType indicates the type of control message.
type ControlMsgType uint8

const (
	ControlMsgPing  ControlMsgType = 0
	ControlMsgPong  ControlMsgType = 1
	ControlMsgClose ControlMsgType = 2
)

// String returns the control message type name.
func (c ControlMsgType) String() string {
	switch c {
	case ControlMsgPing:
		return "PING"
	case ControlMsgPong:
		return "PONG"
	case ControlMsgClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes what was being done when the error occurred.
	Context string `cbor:"3,keyasint,omitempty"`
}
