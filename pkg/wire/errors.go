package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame is wrapped by errors for frames that cannot be parsed.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnexpectedOperation is wrapped when a frame carries an operation
	// that is not valid where it was received.
	ErrUnexpectedOperation = errors.New("unexpected operation")

	// ErrGateway is wrapped by errors decoded from ERROR frames.
	ErrGateway = errors.New("gateway error")

	// ErrUnsupported is returned when a codec cannot carry an operation.
	ErrUnsupported = errors.New("operation not supported by codec")

	// ErrProtocolVersion is wrapped when the gateway speaks another protocol version.
	ErrProtocolVersion = errors.New("unsupported protocol version")
)

// ProtocolError is the error surfaced to callers for malformed frames,
// ERROR frames and transport failures.
type ProtocolError struct {
	// Reason is the human-readable cause. For ERROR frames it is the
	// gateway's reason verbatim.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the reason.
func (e *ProtocolError) Error() string {
	return e.Reason
}

// Unwrap returns the underlying cause.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewProtocolError creates a ProtocolError wrapping err.
func NewProtocolError(reason string, err error) *ProtocolError {
	return &ProtocolError{Reason: reason, Err: err}
}

// GatewayError creates the ProtocolError for an ERROR frame.
func GatewayError(reason string) *ProtocolError {
	return &ProtocolError{Reason: reason, Err: ErrGateway}
}

// Malformed creates a ProtocolError for a structurally invalid frame.
func Malformed(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: "invalid frame: " + fmt.Sprintf(format, args...), Err: ErrMalformedFrame}
}

// MissingField creates a ProtocolError for a frame lacking a required field.
func MissingField(op Operation, field string) *ProtocolError {
	return Malformed("%s requires %s", op, field)
}

// Unexpected creates a ProtocolError for an operation received in the wrong place.
func Unexpected(op Operation) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf("unexpected operation %s", op), Err: ErrUnexpectedOperation}
}

// Unsupported creates a ProtocolError for an operation a codec cannot carry.
func Unsupported(op Operation, codec string) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf("%s is not supported by the %s codec", op, codec), Err: ErrUnsupported}
}

// TransportError wraps a transport failure as a ProtocolError.
func TransportError(err error) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf("transport error: %v", err), Err: err}
}

// VersionError is the ProtocolError for an AUTHORIZED frame with another
// protocol version.
func VersionError() *ProtocolError {
	return &ProtocolError{Reason: "protocol version " + ProtocolVersion + " not supported by server", Err: ErrProtocolVersion}
}

// ProtocolVersion is the only protocol version this module speaks.
const ProtocolVersion = "1"
