package transport

import (
	"context"
	"errors"
)

// Conn is one open connection to a gateway.
type Conn interface {
	// ID returns the connection's capture id.
	ID() string

	// Send writes one frame.
	Send(ctx context.Context, data []byte) error

	// Receive blocks until one frame arrives, the connection closes or ctx
	// is done. A connection whose Receive was interrupted by ctx is closed.
	Receive(ctx context.Context) ([]byte, error)

	// Close closes the connection. It is safe to call more than once.
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, address string) (Conn, error)

// Dial calls f(ctx, address).
func (f DialerFunc) Dial(ctx context.Context, address string) (Conn, error) {
	return f(ctx, address)
}

// Transport errors.
var (
	// ErrConnectionClosed is returned after Close has been called.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrRemoteClosed indicates the gateway closed the connection.
	ErrRemoteClosed = errors.New("connection closed by gateway")

	// ErrKeepAliveTimeout indicates the gateway stopped answering pings.
	ErrKeepAliveTimeout = errors.New("keep-alive timeout")

	// ErrMessageTooLarge indicates the message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageEmpty indicates an empty message.
	ErrMessageEmpty = errors.New("message is empty")

	// ErrFrameTruncated indicates the frame was truncated.
	ErrFrameTruncated = errors.New("frame truncated")
)

var (
	_ Conn   = (*WebSocketConn)(nil)
	_ Conn   = (*StreamConn)(nil)
	_ Dialer = (*WebSocketDialer)(nil)
	_ Dialer = (*StreamDialer)(nil)
	_ Dialer = DialerFunc(nil)
)
