package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openstuder/openstuder-go/pkg/log"
)

// echoGateway answers every message with "ECHO " + message, using the same
// message type.
func echoGateway(t *testing.T, handle func(ws *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handle(ws)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func echo(ws *websocket.Conn) {
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if err := ws.WriteMessage(mt, append([]byte("ECHO "), data...)); err != nil {
			return
		}
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		address string
		want    string
		wantErr bool
	}{
		{"192.168.1.10", "ws://192.168.1.10:1987/", false},
		{"gateway.local:8080", "ws://gateway.local:8080/", false},
		{"ws://gw", "ws://gw:1987/", false},
		{"wss://gw:443/api", "wss://gw:443/api", false},
		{"http://gw", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			got, err := WebSocketURL(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WebSocketURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("WebSocketURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWebSocketConnTextAndBinary(t *testing.T) {
	for _, binary := range []bool{false, true} {
		addr := echoGateway(t, echo)
		var events []log.Event
		d := NewWebSocketDialer(WebSocketConfig{
			Binary:         binary,
			ProtocolLogger: log.LoggerFunc(func(e log.Event) { events = append(events, e) }),
		})

		ctx := context.Background()
		conn, err := d.Dial(ctx, addr)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		if err := conn.Send(ctx, []byte("ENUMERATE\n\n")); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		got, err := conn.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if string(got) != "ECHO ENUMERATE\n\n" {
			t.Errorf("Receive() = %q", got)
		}
		conn.Close()

		if len(events) < 2 || events[0].Frame == nil {
			t.Fatalf("frame events not recorded: %+v", events)
		}
		wantCodec := "text"
		if binary {
			wantCodec = "binary"
		}
		if events[0].Codec != wantCodec {
			t.Errorf("Codec = %q, want %q", events[0].Codec, wantCodec)
		}
	}
}

func TestWebSocketConnRemoteClose(t *testing.T) {
	addr := echoGateway(t, func(ws *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		time.Sleep(50 * time.Millisecond)
	})

	conn, err := NewWebSocketDialer(WebSocketConfig{}).Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_, err = conn.Receive(context.Background())
	if !errors.Is(err, ErrRemoteClosed) {
		t.Errorf("Receive() error = %v, want ErrRemoteClosed", err)
	}
}

func TestWebSocketConnKeepAlive(t *testing.T) {
	// gorilla answers pings with pongs carrying the same payload while the
	// gateway side keeps reading.
	addr := echoGateway(t, echo)
	var mu sync.Mutex
	var pongs []uint32
	done := make(chan struct{})
	d := NewWebSocketDialer(WebSocketConfig{
		KeepAlive: &KeepAliveConfig{PingInterval: 20 * time.Millisecond, PongTimeout: 15 * time.Millisecond, MaxMissedPongs: 1},
		ProtocolLogger: log.LoggerFunc(func(e log.Event) {
			if e.ControlMsg != nil && e.ControlMsg.Type == log.ControlMsgPong {
				mu.Lock()
				defer mu.Unlock()
				pongs = append(pongs, e.ControlMsg.Sequence)
				if len(pongs) == 2 {
					close(done)
				}
			}
		}),
	})
	conn, err := d.Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			if _, err := conn.Receive(ctx); err != nil {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no pongs observed")
	}
	cancel()
	mu.Lock()
	defer mu.Unlock()
	if pongs[0] != 1 || pongs[1] != 2 {
		t.Errorf("pong sequences = %v, want [1 2]", pongs[:2])
	}
}

func TestWebSocketConnKeepAliveTimeout(t *testing.T) {
	// The gateway never reads, so pings are never answered.
	addr := echoGateway(t, func(ws *websocket.Conn) { time.Sleep(time.Second) })

	d := NewWebSocketDialer(WebSocketConfig{
		KeepAlive: &KeepAliveConfig{PingInterval: 20 * time.Millisecond, PongTimeout: 10 * time.Millisecond, MaxMissedPongs: 1},
	})
	conn, err := d.Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_, err = conn.Receive(context.Background())
	if !errors.Is(err, ErrKeepAliveTimeout) {
		t.Errorf("Receive() error = %v, want ErrKeepAliveTimeout", err)
	}
}
