package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/openstuder/openstuder-go/pkg/connection"
	"github.com/openstuder/openstuder-go/pkg/log"
	"github.com/openstuder/openstuder-go/pkg/textwire"
	"github.com/openstuder/openstuder-go/pkg/transport"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Config configures a Client.
type Config struct {
	// Codec selects the wire encoding (default: text).
	Codec wire.Codec

	// Dialer opens the transport. The default is a WebSocket dialer that
	// sends text or binary messages to match Codec.
	Dialer transport.Dialer

	// Logger receives debug output. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger captures decoded messages and state changes. Nil
	// disables capture.
	ProtocolLogger log.Logger
}

// DefaultConfig returns a configuration for the text protocol over WebSocket.
func DefaultConfig() Config {
	return Config{Codec: textwire.New()}
}

// Client is a synchronous gateway client. Every call blocks until the
// gateway answered. Calls from several goroutines are serialised.
type Client struct {
	codec          wire.Codec
	dialer         transport.Dialer
	logger         *slog.Logger
	protocolLogger log.Logger
	session        *connection.Session

	// mu serialises request/response exchanges and guards conn.
	mu   sync.Mutex
	conn transport.Conn
	rec  atomic.Pointer[log.Recorder]
}

// New creates a disconnected client.
func New(config Config) *Client {
	if config.Codec == nil {
		config.Codec = textwire.New()
	}
	if config.Dialer == nil {
		ws := transport.DefaultWebSocketConfig()
		ws.Binary = config.Codec.Binary()
		ws.Logger = config.Logger
		ws.ProtocolLogger = config.ProtocolLogger
		config.Dialer = transport.NewWebSocketDialer(ws)
	}

	c := &Client{
		codec:          config.Codec,
		dialer:         config.Dialer,
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
		session:        connection.NewSession(),
	}
	c.session.OnStateChange(c.stateChanged)
	return c
}

// Connect opens the transport to address and authorizes. An empty user
// authorizes as guest. It returns the granted access level.
func (c *Client) Connect(ctx context.Context, address, user, password string) (wire.AccessLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.BeginConnect(); err != nil {
		return wire.AccessLevelNone, err
	}
	c.rec.Store(nil)

	conn, err := c.dialer.Dial(ctx, address)
	if err != nil {
		c.session.Reset("dial failed")
		return wire.AccessLevelNone, wire.TransportError(err)
	}
	c.conn = conn
	c.rec.Store(log.NewRecorder(c.protocolLogger, conn.ID(), address, c.codec.Name()))

	if err := c.session.BeginAuthorize(); err != nil {
		c.teardown(err.Error())
		return wire.AccessLevelNone, err
	}

	msg, err := c.exchange(ctx, &wire.AuthorizeRequest{User: user, Password: password}, true)
	if err != nil {
		c.teardown("authorization failed")
		return wire.AccessLevelNone, err
	}
	auth := msg.(*wire.Authorized)
	if err := c.session.Authorized(auth); err != nil {
		c.teardown(err.Error())
		return wire.AccessLevelNone, err
	}

	c.debugLog("Connect: authorized",
		"address", address,
		"accessLevel", auth.AccessLevel.String(),
		"gatewayVersion", auth.GatewayVersion)
	return auth.AccessLevel, nil
}

// Disconnect closes the connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.Require("disconnect"); err != nil {
		return err
	}
	c.teardown("disconnect")
	return nil
}

// State returns the session state.
func (c *Client) State() connection.State {
	return c.session.State()
}

// AccessLevel returns the granted access level, or AccessLevelNone when
// not connected.
func (c *Client) AccessLevel() wire.AccessLevel {
	return c.session.AccessLevel()
}

// GatewayVersion returns the gateway's software version.
func (c *Client) GatewayVersion() string {
	return c.session.GatewayVersion()
}

// AvailableExtensions returns the extensions the gateway announced.
func (c *Client) AvailableExtensions() []string {
	return c.session.Extensions()
}

// call performs one exchange in CONNECTED state and type-asserts the
// response.
func call[T wire.Message](ctx context.Context, c *Client, req wire.Request) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.Require(req.Operation().String()); err != nil {
		return zero, err
	}
	msg, err := c.exchange(ctx, req, false)
	if err != nil {
		return zero, err
	}
	m, ok := msg.(T)
	if !ok {
		return zero, wire.Unexpected(msg.Operation())
	}
	return m, nil
}

// exchange sends req and reads until its response or an ERROR frame
// arrives. With strict set, any other frame fails the exchange; otherwise
// it is discarded. Must be called with c.mu held.
func (c *Client) exchange(ctx context.Context, req wire.Request, strict bool) (wire.Message, error) {
	rec := c.rec.Load()
	want := req.Operation().Response()

	data, err := c.codec.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if err := c.conn.Send(ctx, data); err != nil {
		return nil, c.transportFailed(ctx, err)
	}
	rec.Message(log.DirectionOut, connection.RequestEvent(req))

	for {
		frame, err := c.conn.Receive(ctx)
		if err != nil {
			return nil, c.transportFailed(ctx, err)
		}

		op, err := c.codec.PeekOperation(frame)
		if err != nil {
			rec.Error(log.LayerWire, err, want.String())
			if strict {
				return nil, err
			}
			c.debugLog("exchange: discarding invalid frame", "error", err, "awaiting", want.String())
			continue
		}
		if op != want && op != wire.OpError {
			if strict {
				err := wire.Unexpected(op)
				rec.Error(log.LayerClient, err, want.String())
				return nil, err
			}
			c.debugLog("exchange: discarding frame", "op", op.String(), "awaiting", want.String())
			continue
		}

		msg, err := c.codec.DecodeMessage(frame)
		if err != nil {
			if event, ok := connection.ErrorEvent(err); ok {
				rec.Message(log.DirectionIn, event)
			} else {
				rec.Error(log.LayerWire, err, want.String())
			}
			return nil, err
		}
		rec.Message(log.DirectionIn, connection.MessageEvent(msg))
		return msg, nil
	}
}

// transportFailed tears the session down after a send or receive error.
// A cancelled ctx leaves a half-read stream behind, so it ends the
// session as well. Must be called with c.mu held.
func (c *Client) transportFailed(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, transport.ErrRemoteClosed) {
		err = ctxErr
	}
	c.rec.Load().Error(log.LayerTransport, err, "exchange")
	c.debugLog("exchange: transport failed", "error", err)
	c.teardown(err.Error())
	return wire.TransportError(err)
}

// teardown closes the transport and resets the session. Must be called
// with c.mu held.
func (c *Client) teardown(reason string) {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.session.Reset(reason)
}

func (c *Client) stateChanged(oldState, newState connection.State, reason string) {
	c.rec.Load().State(oldState.String(), newState.String(), reason)
	c.debugLog("session state changed",
		"from", oldState.String(),
		"to", newState.String(),
		"reason", reason)
}

// debugLog logs a debug message if logging is enabled.
func (c *Client) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
