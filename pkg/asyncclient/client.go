package asyncclient

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/openstuder/openstuder-go/pkg/connection"
	"github.com/openstuder/openstuder-go/pkg/log"
	"github.com/openstuder/openstuder-go/pkg/subscription"
	"github.com/openstuder/openstuder-go/pkg/textwire"
	"github.com/openstuder/openstuder-go/pkg/transport"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Config configures a Client.
type Config struct {
	// Codec selects the wire encoding (default: text).
	Codec wire.Codec

	// Dialer opens the transport. The default is a WebSocket dialer that
	// matches Codec and runs KeepAlive.
	Dialer transport.Dialer

	// KeepAlive configures the default dialer's ping/pong monitoring
	// (default: transport.DefaultKeepAliveConfig). Ignored with a custom Dialer.
	KeepAlive *transport.KeepAliveConfig

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

// Client is an asynchronous gateway client. Requests return as soon as
// they are written; results arrive at the Listener.
type Client struct {
	codec          wire.Codec
	dialer         transport.Dialer
	listener       Listener
	logger         *slog.Logger
	protocolLogger log.Logger

	session       *connection.Session
	subscriptions *subscription.Registry

	mu      sync.Mutex // guards current
	current *link

	// writeMu serialises sends from callers and callbacks.
	writeMu sync.Mutex
	rec     atomic.Pointer[log.Recorder]
}

// link is one open transport and its run loop.
type link struct {
	conn transport.Conn
	ctx  context.Context
	rec  *log.Recorder

	mu  sync.Mutex
	err error
}

// setErr records the reason the link is going down. The first one wins.
func (l *link) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		l.err = err
	}
}

func (l *link) terminalErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// New creates a disconnected client reporting to listener.
func New(listener Listener, config Config) *Client {
	if listener == nil {
		listener = BaseListener{}
	}
	if config.Codec == nil {
		config.Codec = textwire.New()
	}
	if config.Dialer == nil {
		ka := transport.DefaultKeepAliveConfig()
		if config.KeepAlive != nil {
			ka = *config.KeepAlive
		}
		ws := transport.DefaultWebSocketConfig()
		ws.Binary = config.Codec.Binary()
		ws.KeepAlive = &ka
		ws.Logger = config.Logger
		ws.ProtocolLogger = config.ProtocolLogger
		config.Dialer = transport.NewWebSocketDialer(ws)
	}

	c := &Client{
		codec:          config.Codec,
		dialer:         config.Dialer,
		listener:       listener,
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
		session:        connection.NewSession(),
		subscriptions:  subscription.NewRegistry(),
	}
	c.session.OnStateChange(c.stateChanged)
	return c
}

// ConnectBackground starts the run loop on a new goroutine and returns.
// Connection failures are reported to OnError; cancelling ctx closes the
// connection.
func (c *Client) ConnectBackground(ctx context.Context, address, user, password string) error {
	if err := c.session.BeginConnect(); err != nil {
		return err
	}
	go c.run(ctx, address, user, password)
	return nil
}

// ConnectForeground runs the loop on the calling goroutine and returns when
// the connection closes. It returns nil after Disconnect or when ctx is
// cancelled, and the terminal error otherwise.
func (c *Client) ConnectForeground(ctx context.Context, address, user, password string) error {
	if err := c.session.BeginConnect(); err != nil {
		return err
	}
	return c.run(ctx, address, user, password)
}

// run dials, sends AUTHORIZE and pumps frames until the connection closes.
func (c *Client) run(ctx context.Context, address, user, password string) error {
	c.rec.Store(nil)

	conn, err := c.dialer.Dial(ctx, address)
	if err != nil {
		err = wire.TransportError(err)
		c.session.Reset("dial failed")
		c.listener.OnError(err)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := &link{
		conn: conn,
		ctx:  ctx,
		rec:  log.NewRecorder(c.protocolLogger, conn.ID(), address, c.codec.Name()),
	}
	c.rec.Store(l.rec)
	c.mu.Lock()
	c.current = l
	c.mu.Unlock()

	if err := c.session.BeginAuthorize(); err != nil {
		conn.Close()
		c.finish(l, err)
		return err
	}
	if err := c.write(l, &wire.AuthorizeRequest{User: user, Password: password}); err != nil {
		c.finish(l, err)
		return err
	}

	transport.NewPump(conn, &dispatcher{c: c, l: l}).Run(ctx)
	return l.terminalErr()
}

// Disconnect closes the connection. It is safe to call from a Listener
// method; OnDisconnected follows once the run loop has stopped.
func (c *Client) Disconnect() error {
	if err := c.session.Require("disconnect"); err != nil {
		return err
	}
	c.mu.Lock()
	l := c.current
	c.current = nil
	c.mu.Unlock()

	c.subscriptions.Clear()
	c.session.Reset("disconnect")
	if l != nil {
		l.conn.Close()
	}
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

// Subscriptions returns the ids of all active subscriptions, sorted.
func (c *Client) Subscriptions() []string {
	return c.subscriptions.Active()
}

// send writes req on the current connection. It requires CONNECTED.
func (c *Client) send(req wire.Request) error {
	if err := c.session.Require(req.Operation().String()); err != nil {
		return err
	}
	c.mu.Lock()
	l := c.current
	c.mu.Unlock()
	if l == nil {
		return wire.TransportError(transport.ErrConnectionClosed)
	}
	return c.write(l, req)
}

func (c *Client) write(l *link, req wire.Request) error {
	data, err := c.codec.EncodeRequest(req)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	err = l.conn.Send(l.ctx, data)
	c.writeMu.Unlock()

	if err != nil {
		l.rec.Error(log.LayerTransport, err, req.Operation().String())
		c.debugLog("send failed", "op", req.Operation().String(), "error", err)
		err = wire.TransportError(err)
		// The run loop sees the closed connection and reports err.
		l.setErr(err)
		l.conn.Close()
		return err
	}
	l.rec.Message(log.DirectionOut, connection.RequestEvent(req))
	return nil
}

// finish ends l: it clears session and subscriptions if l is still the
// current connection and reports the disconnect.
func (c *Client) finish(l *link, err error) {
	c.mu.Lock()
	current := c.current == l
	if current {
		c.current = nil
	}
	c.mu.Unlock()

	reason := "closed"
	if err != nil {
		reason = err.Error()
	}
	if current {
		if n := c.subscriptions.Clear(); n > 0 {
			c.debugLog("subscriptions cleared", "count", n)
		}
		c.session.Reset(reason)
	}
	c.listener.OnDisconnected(err)
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

// dispatcher routes the frames of one link to the Listener.
type dispatcher struct {
	c *Client
	l *link
}

var _ transport.Handler = (*dispatcher)(nil)

// OnMessage decodes one frame and calls the matching Listener method.
// Failures are reported and the loop continues, except during
// authorization where they end the connection.
func (d *dispatcher) OnMessage(frame []byte) {
	c, l := d.c, d.l

	msg, err := c.codec.DecodeMessage(frame)
	if err != nil {
		if event, ok := connection.ErrorEvent(err); ok {
			l.rec.Message(log.DirectionIn, event)
		} else {
			l.rec.Error(log.LayerWire, err, "dispatch")
		}
		c.listener.OnError(err)
		if c.session.State() == connection.StateAuthorizing {
			d.fail(err)
		}
		return
	}
	l.rec.Message(log.DirectionIn, connection.MessageEvent(msg))

	if c.session.State() == connection.StateAuthorizing {
		d.authorized(msg)
		return
	}

	switch m := msg.(type) {
	case *wire.Enumerated:
		c.listener.OnEnumerated(m)
	case *wire.Description:
		c.listener.OnDescription(m)
	case *wire.PropertyRead:
		c.listener.OnPropertyRead(m)
	case *wire.PropertiesRead:
		c.listener.OnPropertiesRead(m)
	case *wire.PropertyWritten:
		c.listener.OnPropertyWritten(m)
	case *wire.PropertySubscribed:
		c.subscriptions.Confirm(m.ID, m.Status)
		c.listener.OnPropertySubscribed(m)
	case *wire.PropertiesSubscribed:
		for _, r := range m.Results {
			c.subscriptions.Confirm(r.ID, r.Status)
		}
		c.listener.OnPropertiesSubscribed(m)
	case *wire.PropertyUnsubscribed:
		if m.Status == wire.StatusSuccess {
			c.subscriptions.Remove(m.ID)
		}
		c.listener.OnPropertyUnsubscribed(m)
	case *wire.PropertiesUnsubscribed:
		for _, r := range m.Results {
			if r.Status == wire.StatusSuccess {
				c.subscriptions.Remove(r.ID)
			}
		}
		c.listener.OnPropertiesUnsubscribed(m)
	case *wire.PropertyUpdate:
		if !c.subscriptions.Update(m.ID, m.Value) {
			c.debugLog("dropping update", "id", m.ID)
			return
		}
		c.listener.OnPropertyUpdated(m)
	case *wire.DatalogRead:
		c.listener.OnDatalogRead(m)
	case *wire.DatalogPropertiesRead:
		c.listener.OnDatalogPropertiesRead(m)
	case *wire.DeviceMessage:
		c.listener.OnDeviceMessage(m)
	case *wire.MessagesRead:
		c.listener.OnMessagesRead(m)
	case *wire.PropertiesFound:
		c.listener.OnPropertiesFound(m)
	case *wire.ExtensionCalled:
		c.listener.OnExtensionCalled(m)
	default:
		err := wire.Unexpected(msg.Operation())
		l.rec.Error(log.LayerClient, err, "dispatch")
		c.listener.OnError(err)
	}
}

// authorized handles the first frame after AUTHORIZE, which must be
// AUTHORIZED.
func (d *dispatcher) authorized(msg wire.Message) {
	c := d.c
	auth, ok := msg.(*wire.Authorized)
	if !ok {
		err := wire.Unexpected(msg.Operation())
		d.l.rec.Error(log.LayerClient, err, "authorize")
		c.listener.OnError(err)
		d.fail(err)
		return
	}
	if err := c.session.Authorized(auth); err != nil {
		d.fail(err)
		return
	}
	c.debugLog("authorized",
		"accessLevel", auth.AccessLevel.String(),
		"gatewayVersion", auth.GatewayVersion)
	c.listener.OnConnected(auth.AccessLevel, auth.GatewayVersion)
}

// fail records err as the terminal error and closes the connection.
func (d *dispatcher) fail(err error) {
	d.l.setErr(err)
	d.l.conn.Close()
}

// OnClose reports the end of the connection.
func (d *dispatcher) OnClose(err error) {
	if err != nil {
		d.l.rec.Error(log.LayerTransport, err, "receive")
		d.l.setErr(wire.TransportError(err))
	}
	d.c.finish(d.l, d.l.terminalErr())
}
