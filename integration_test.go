package openstuder_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstuder/openstuder-go/internal/gatewaytest"
	"github.com/openstuder/openstuder-go/pkg/asyncclient"
	"github.com/openstuder/openstuder-go/pkg/cborwire"
	"github.com/openstuder/openstuder-go/pkg/client"
	"github.com/openstuder/openstuder-go/pkg/connection"
	"github.com/openstuder/openstuder-go/pkg/log"
	"github.com/openstuder/openstuder-go/pkg/textwire"
	"github.com/openstuder/openstuder-go/pkg/transport"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

const e2eTimeout = 5 * time.Second

// startWebSocketGateway serves codec over a real WebSocket and returns its
// host:port address.
func startWebSocketGateway(t *testing.T, codec wire.GatewayCodec, handler gatewaytest.Handler) string {
	t.Helper()

	msgType := websocket.TextMessage
	if codec.Binary() {
		msgType = websocket.BinaryMessage
	}

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			req, err := codec.DecodeRequest(data)
			if err != nil {
				return
			}
			for _, msg := range handler(req) {
				out, err := codec.EncodeMessage(msg)
				if err != nil {
					return
				}
				if err := ws.WriteMessage(msgType, out); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

// startStreamGateway serves codec over length-prefixed TCP.
func startStreamGateway(t *testing.T, codec wire.GatewayCodec, handler gatewaytest.Handler) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go serveStream(nc, codec, handler)
		}
	}()
	return ln.Addr().String()
}

func serveStream(nc net.Conn, codec wire.GatewayCodec, handler gatewaytest.Handler) {
	defer nc.Close()
	framer := transport.NewFramer(nc)
	for {
		data, err := framer.ReadFrame()
		if err != nil {
			return
		}
		req, err := codec.DecodeRequest(data)
		if err != nil {
			return
		}
		for _, msg := range handler(req) {
			out, err := codec.EncodeMessage(msg)
			if err != nil {
				return
			}
			if err := framer.WriteFrame(out); err != nil {
				return
			}
		}
	}
}

func codecs() map[string]wire.GatewayCodec {
	return map[string]wire.GatewayCodec{
		"text":   textwire.New(),
		"binary": cborwire.New(),
	}
}

func TestE2E_ReadWrite(t *testing.T) {
	for name, codec := range codecs() {
		t.Run(name, func(t *testing.T) {
			addr := startWebSocketGateway(t, codec, gatewaytest.Respond)

			ctx, cancel := context.WithTimeout(context.Background(), e2eTimeout)
			defer cancel()

			c := client.New(client.Config{Codec: codec})
			level, err := c.Connect(ctx, addr, "installer", "secret")
			require.NoError(t, err)
			defer c.Disconnect()

			assert.Equal(t, wire.AccessLevelExpert, level)
			assert.Equal(t, connection.StateConnected, c.State())
			assert.Equal(t, gatewaytest.GatewayVersion, c.GatewayVersion())

			read, err := c.ReadProperty(ctx, "demo.inv.3136")
			require.NoError(t, err)
			assert.Equal(t, wire.StatusSuccess, read.Status)
			n, ok := read.Value.AsNumber()
			require.True(t, ok)
			assert.InDelta(t, gatewaytest.PropertyValue, n, 1e-9)

			written, err := c.WriteProperty(ctx, "demo.inv.1415", wire.Number(1), nil)
			require.NoError(t, err)
			assert.Equal(t, wire.StatusSuccess, written.Status)
			assert.Equal(t, "demo.inv.1415", written.ID)

			enumerated, err := c.Enumerate(ctx)
			require.NoError(t, err)
			assert.Equal(t, gatewaytest.DeviceCount, enumerated.DeviceCount)

			logged, err := c.ReadDatalog(ctx, wire.ReadDatalogRequest{ID: "demo.inv.3136"})
			require.NoError(t, err)
			require.Len(t, logged.Entries, 2)
			assert.True(t, gatewaytest.SampleTime.Equal(logged.Entries[0].Timestamp))

			require.NoError(t, c.Disconnect())
			assert.Equal(t, connection.StateDisconnected, c.State())
		})
	}
}

func TestE2E_GuestAccess(t *testing.T) {
	addr := startWebSocketGateway(t, textwire.New(), gatewaytest.Respond)

	ctx, cancel := context.WithTimeout(context.Background(), e2eTimeout)
	defer cancel()

	c := client.New(client.DefaultConfig())
	level, err := c.Connect(ctx, addr, "", "")
	require.NoError(t, err)
	defer c.Disconnect()

	assert.Equal(t, wire.AccessLevelBasic, level)
	assert.Equal(t, gatewaytest.Extensions, c.AvailableExtensions())
}

func TestE2E_ProtocolVersionMismatch(t *testing.T) {
	handler := func(req wire.Request) []wire.Message {
		if _, ok := req.(*wire.AuthorizeRequest); ok {
			return []wire.Message{&wire.Authorized{
				AccessLevel:     wire.AccessLevelBasic,
				ProtocolVersion: "2",
				GatewayVersion:  gatewaytest.GatewayVersion,
			}}
		}
		return gatewaytest.Respond(req)
	}
	addr := startWebSocketGateway(t, textwire.New(), handler)

	ctx, cancel := context.WithTimeout(context.Background(), e2eTimeout)
	defer cancel()

	c := client.New(client.DefaultConfig())
	_, err := c.Connect(ctx, addr, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, wire.ErrProtocolVersion)
	assert.Equal(t, connection.StateDisconnected, c.State())

	_, err = c.ReadProperty(ctx, "demo.inv.3136")
	assert.ErrorIs(t, err, connection.ErrInvalidState)
}

type updateListener struct {
	asyncclient.BaseListener

	connected chan wire.AccessLevel
	updates   chan *wire.PropertyUpdate
	closed    chan error
}

func newUpdateListener() *updateListener {
	return &updateListener{
		connected: make(chan wire.AccessLevel, 1),
		updates:   make(chan *wire.PropertyUpdate, 16),
		closed:    make(chan error, 1),
	}
}

func (l *updateListener) OnConnected(level wire.AccessLevel, _ string) { l.connected <- level }
func (l *updateListener) OnDisconnected(err error)                     { l.closed <- err }
func (l *updateListener) OnPropertyUpdated(m *wire.PropertyUpdate)     { l.updates <- m }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(e2eTimeout):
		t.Fatal("timed out")
		var zero T
		return zero
	}
}

func TestE2E_SubscribeNotify(t *testing.T) {
	// The gateway answers a subscription and pushes an update right after.
	handler := func(req wire.Request) []wire.Message {
		msgs := gatewaytest.Respond(req)
		if r, ok := req.(*wire.SubscribePropertyRequest); ok {
			msgs = append(msgs, &wire.PropertyUpdate{ID: r.ID, Value: wire.Number(7)})
		}
		return msgs
	}

	for name, codec := range codecs() {
		t.Run(name, func(t *testing.T) {
			addr := startWebSocketGateway(t, codec, handler)

			keepAlive := transport.KeepAliveConfig{
				PingInterval:   50 * time.Millisecond,
				PongTimeout:    time.Second,
				MaxMissedPongs: 2,
			}
			listener := newUpdateListener()
			c := asyncclient.New(listener, asyncclient.Config{Codec: codec, KeepAlive: &keepAlive})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			require.NoError(t, c.ConnectBackground(ctx, addr, "", ""))

			assert.Equal(t, wire.AccessLevelBasic, receive(t, listener.connected))
			require.NoError(t, c.SubscribeToProperty("demo.inv.3136"))

			update := receive(t, listener.updates)
			assert.Equal(t, "demo.inv.3136", update.ID)
			assert.True(t, update.Value.Equal(wire.Number(7)))
			assert.Equal(t, []string{"demo.inv.3136"}, c.Subscriptions())

			// Several ping intervals pass without the keep-alive closing the link.
			time.Sleep(200 * time.Millisecond)
			assert.Equal(t, connection.StateConnected, c.State())

			require.NoError(t, c.Disconnect())
			assert.NoError(t, receive(t, listener.closed))
			assert.Empty(t, c.Subscriptions())
		})
	}
}

func TestE2E_StreamTransport(t *testing.T) {
	codec := cborwire.New()
	addr := startStreamGateway(t, codec, gatewaytest.Respond)

	ctx, cancel := context.WithTimeout(context.Background(), e2eTimeout)
	defer cancel()

	c := client.New(client.Config{
		Codec:  codec,
		Dialer: transport.NewStreamDialer(transport.DefaultStreamConfig()),
	})
	_, err := c.Connect(ctx, addr, "", "")
	require.NoError(t, err)
	defer c.Disconnect()

	read, err := c.ReadProperties(ctx, []string{"demo.inv.3136", "demo.inv.3137"})
	require.NoError(t, err)
	require.Len(t, read.Results, 2)
	assert.Equal(t, "demo.inv.3137", read.Results[1].ID)

	found, err := c.FindProperties(ctx, wire.FindPropertiesRequest{ID: "*.inv.3136"})
	require.NoError(t, err)
	assert.Equal(t, []string{"demo.inv.3136"}, found.Properties)
}

func TestE2E_GatewayGoesAway(t *testing.T) {
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, nc)
			mu.Unlock()
			go serveStream(nc, cborwire.New(), gatewaytest.Respond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e2eTimeout)
	defer cancel()

	c := client.New(client.Config{
		Codec:  cborwire.New(),
		Dialer: transport.NewStreamDialer(transport.DefaultStreamConfig()),
	})
	_, err = c.Connect(ctx, ln.Addr().String(), "", "")
	require.NoError(t, err)

	mu.Lock()
	for _, nc := range conns {
		nc.Close()
	}
	mu.Unlock()

	_, err = c.ReadProperty(ctx, "demo.inv.3136")
	require.Error(t, err)
	var perr *wire.ProtocolError
	require.True(t, errors.As(err, &perr), "unexpected error: %v", err)
	assert.Contains(t, perr.Reason, "transport error")
	assert.Equal(t, connection.StateDisconnected, c.State())
}

func TestE2E_ProtocolCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.silog")
	capture, err := log.NewFileLogger(path)
	require.NoError(t, err)

	addr := startWebSocketGateway(t, textwire.New(), gatewaytest.Respond)

	ctx, cancel := context.WithTimeout(context.Background(), e2eTimeout)
	defer cancel()

	c := client.New(client.Config{ProtocolLogger: capture})
	_, err = c.Connect(ctx, addr, "", "")
	require.NoError(t, err)
	_, err = c.ReadProperty(ctx, "demo.inv.3136")
	require.NoError(t, err)
	require.NoError(t, c.Disconnect())
	require.NoError(t, capture.Close())

	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var frames, messages, states int
	for {
		event, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "text", event.Codec)
		switch event.Category {
		case log.CategoryMessage:
			if event.Layer == log.LayerTransport {
				frames++
			} else {
				messages++
			}
		case log.CategoryState:
			states++
		}
	}

	// AUTHORIZE and READ PROPERTY, each with its answer.
	assert.Equal(t, 4, frames)
	assert.Equal(t, 4, messages)
	assert.NotZero(t, states)
}
