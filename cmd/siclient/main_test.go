package main

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstuder/openstuder-go/internal/gatewaytest"
	protolog "github.com/openstuder/openstuder-go/pkg/log"
	"github.com/openstuder/openstuder-go/pkg/textwire"
	"github.com/openstuder/openstuder-go/pkg/transport"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "siclient.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: gw.local
port: 1988
user: installer
password: secret
transport: stream
protocol_log: /tmp/gw.slog
keepalive:
  ping_interval: 5s
  max_missed_pongs: 3
reconnect:
  enabled: false
  initial: 2s
  max: 1m
`), 0o600))

	cfg := defaultConfig()
	fs := flag.NewFlagSet("siclient", flag.ContinueOnError)
	registerFlags(fs, &cfg)
	require.NoError(t, fs.Parse([]string{"-config", path, "-user", "expert", "-port", "2000"}))
	require.NoError(t, loadConfig(fs, &cfg))

	assert.Equal(t, "gw.local", cfg.Host)
	assert.Equal(t, 2000, cfg.Port, "flag wins over file")
	assert.Equal(t, "expert", cfg.User, "flag wins over file")
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, TransportStream, cfg.Transport)
	assert.Equal(t, "/tmp/gw.slog", cfg.ProtocolLog)
	assert.Equal(t, 5*time.Second, cfg.KeepAlive.PingInterval)
	assert.Equal(t, 3, cfg.KeepAlive.MaxMissedPongs)
	assert.Equal(t, transport.DefaultPongTimeout, cfg.KeepAlive.PongTimeout, "default kept")
	assert.False(t, cfg.Reconnect.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Reconnect.Initial)
	assert.Equal(t, time.Minute, cfg.Reconnect.Max)
	assert.Equal(t, "info", cfg.LogLevel, "default kept")
	assert.Equal(t, "gw.local:2000", cfg.address())
	assert.True(t, cfg.binary())
}

func TestLoadConfigErrors(t *testing.T) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("siclient", flag.ContinueOnError)
	registerFlags(fs, &cfg)

	cfg.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, loadConfig(fs, &cfg))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1, 2]\n"), 0o600))
	cfg.ConfigFile = bad
	assert.Error(t, loadConfig(fs, &cfg))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"stream", func(c *Config) { c.Transport = TransportStream }, true},
		{"transport", func(c *Config) { c.Transport = "bluetooth" }, false},
		{"codec", func(c *Config) { c.Codec = "json" }, false},
		{"port", func(c *Config) { c.Port = 70000 }, false},
		{"host", func(c *Config) { c.Host = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(&cfg)
			err := validateConfig(&cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAddressAndCodec(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		address string
		binary  bool
	}{
		{"websocket default port", Config{Host: "gw", Transport: TransportWebSocket}, "gw:1987", false},
		{"websocket url", Config{Host: "ws://gw:8080/", Transport: TransportWebSocket}, "ws://gw:8080/", false},
		{"websocket binary", Config{Host: "gw", Port: 1987, Transport: TransportWebSocket, Codec: "binary"}, "gw:1987", true},
		{"stream", Config{Host: "10.0.0.2", Port: 1988, Transport: TransportStream}, "10.0.0.2:1988", true},
		{"stream text", Config{Host: "::1", Port: 1988, Transport: TransportStream, Codec: "text"}, "[::1]:1988", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.address, tt.cfg.address())
			assert.Equal(t, tt.binary, tt.cfg.binary())
		})
	}
}

func TestNewTargetProtocolLogger(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "capture.silog")
	tests := []struct {
		name     string
		cfg      Config
		wantType any
	}{
		{"none", Config{LogLevel: "info"}, nil},
		{"capture file", Config{LogLevel: "info", ProtocolLog: capture}, &protolog.FileLogger{}},
		{"debug", Config{LogLevel: "debug"}, &protolog.SlogAdapter{}},
		{"capture and debug", Config{LogLevel: "debug", ProtocolLog: capture}, &protolog.MultiLogger{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			tg, err := newTarget(&tt.cfg, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
			require.NoError(t, err)
			defer tg.Close()

			if tt.wantType == nil {
				assert.Nil(t, tg.protocolLogger)
				return
			}
			assert.IsType(t, tt.wantType, tg.protocolLogger)

			tg.protocolLogger.Log(protolog.Event{Category: protolog.CategoryState, StateChange: &protolog.StateChangeEvent{OldState: "DISCONNECTED", NewState: "CONNECTING"}})
			if tt.cfg.LogLevel == "debug" {
				assert.Contains(t, logs.String(), "new_state=CONNECTING")
			}
		})
	}
}

// syncBuffer is a bytes.Buffer safe for the listener goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fakeTarget(t *testing.T, gw *gatewaytest.Gateway, cfg Config) *target {
	t.Helper()
	tg, err := newTarget(&cfg, nil)
	require.NoError(t, err)
	tg.codec = textwire.New()
	tg.dial = func(bool) transport.Dialer { return gw.Dialer() }
	return tg
}

func TestMonitorPrintsUpdatesAndReconnects(t *testing.T) {
	gw := gatewaytest.New(t, textwire.New())
	cfg := defaultConfig()
	cfg.Reconnect.Initial = 10 * time.Millisecond
	cfg.Reconnect.Max = 20 * time.Millisecond
	tg := fakeTarget(t, gw, cfg)

	csvPath := filepath.Join(t.TempDir(), "updates.csv")
	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runMonitor(ctx, tg, []string{"-csv", csvPath, "-messages", "demo.inv.3136", "demo.inv.3137"}, &out)
	}()

	assert.IsType(t, &wire.AuthorizeRequest{}, gw.Next(t, 2*time.Second))
	assert.Equal(t, &wire.SubscribePropertiesRequest{IDs: []string{"demo.inv.3136", "demo.inv.3137"}}, gw.Next(t, 2*time.Second))

	// Updates are dropped until PROPERTIES SUBSCRIBED was processed.
	require.Eventually(t, func() bool {
		_ = gw.Push(&wire.PropertyUpdate{ID: "demo.inv.3136", Value: wire.Number(12.5)})
		return strings.Contains(out.String(), "12.5")
	}, 2*time.Second, 20*time.Millisecond)
	require.NoError(t, gw.Push(&wire.DeviceMessage{Timestamp: gatewaytest.SampleTime, AccessID: "demo", DeviceID: "inv", MessageID: 20, Message: "Warning"}))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "message 20: Warning")
	}, 2*time.Second, 10*time.Millisecond)

	gw.Drop()
	assert.IsType(t, &wire.AuthorizeRequest{}, gw.Next(t, 2*time.Second))
	assert.IsType(t, &wire.SubscribePropertiesRequest{}, gw.Next(t, 2*time.Second))
	assert.Equal(t, 2, gw.Dials())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), ",demo.inv.3136,12.5\n")
}

func TestMonitorBinarySubscribesOneByOne(t *testing.T) {
	gw := gatewaytest.New(t, textwire.New())
	cfg := defaultConfig()
	cfg.Reconnect.Enabled = false
	tg := fakeTarget(t, gw, cfg)

	m := &monitor{ids: []string{"a.b.1", "a.b.2"}, binary: true, out: &syncBuffer{}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.run(ctx, tg) }()

	gw.Next(t, 2*time.Second)
	assert.Equal(t, &wire.SubscribePropertyRequest{ID: "a.b.1"}, gw.Next(t, 2*time.Second))
	assert.Equal(t, &wire.SubscribePropertyRequest{ID: "a.b.2"}, gw.Next(t, 2*time.Second))

	cancel()
	require.NoError(t, <-done)
}

func TestMonitorStopsOnProtocolVersion(t *testing.T) {
	gw := gatewaytest.New(t, textwire.New())
	gw.SetHandler(func(wire.Request) []wire.Message {
		return []wire.Message{&wire.Authorized{AccessLevel: wire.AccessLevelBasic, ProtocolVersion: "2", GatewayVersion: "1"}}
	})
	cfg := defaultConfig()
	tg := fakeTarget(t, gw, cfg)

	err := runMonitor(context.Background(), tg, []string{"demo.inv.3136"}, &syncBuffer{})
	require.ErrorIs(t, err, wire.ErrProtocolVersion)
	assert.Equal(t, 1, gw.Dials())
}

func TestMonitorNeedsWork(t *testing.T) {
	gw := gatewaytest.New(t, textwire.New())
	tg := fakeTarget(t, gw, defaultConfig())

	err := runMonitor(context.Background(), tg, nil, &syncBuffer{})
	require.Error(t, err)
	assert.Equal(t, 0, gw.Dials())
}
