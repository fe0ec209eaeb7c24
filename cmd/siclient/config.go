package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openstuder/openstuder-go/pkg/connection"
	"github.com/openstuder/openstuder-go/pkg/transport"
)

// Transports accepted in Config.Transport.
const (
	TransportWebSocket = "websocket"
	TransportStream    = "stream"
)

// Config holds the client configuration. Fields can be set from a YAML file
// and overridden by flags.
type Config struct {
	ConfigFile string `yaml:"-"`

	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Transport string `yaml:"transport"`

	// Codec is "text" or "binary". Empty selects text over WebSocket and
	// binary over a stream.
	Codec string `yaml:"codec"`

	ProtocolLog string        `yaml:"protocol_log"`
	LogLevel    string        `yaml:"log_level"`
	Timeout     time.Duration `yaml:"timeout"`

	// SendRate limits outgoing frames per second on slow links.
	SendRate float64 `yaml:"send_rate"`

	// KeepAlive is used by monitor. A zero ping interval disables it.
	KeepAlive transport.KeepAliveConfig `yaml:"keepalive"`

	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig controls how monitor retries lost connections.
type ReconnectConfig struct {
	Enabled                  bool `yaml:"enabled"`
	connection.BackoffConfig `yaml:",inline"`
}

func defaultConfig() Config {
	return Config{
		Host:      "localhost",
		Transport: TransportWebSocket,
		LogLevel:  "info",
		Timeout:   10 * time.Second,
		KeepAlive: transport.DefaultKeepAliveConfig(),
		Reconnect: ReconnectConfig{Enabled: true, BackoffConfig: connection.DefaultBackoffConfig()},
	}
}

func registerFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.ConfigFile, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&c.Host, "host", c.Host, "Gateway host name or address")
	fs.IntVar(&c.Port, "port", c.Port, "Gateway port (default 1987)")
	fs.StringVar(&c.User, "user", c.User, "User name (empty for guest access)")
	fs.StringVar(&c.Password, "password", c.Password, "Password")
	fs.StringVar(&c.Transport, "transport", c.Transport, "Transport: websocket, stream")
	fs.StringVar(&c.Codec, "codec", c.Codec, "Codec: text, binary (default depends on transport)")
	fs.StringVar(&c.ProtocolLog, "protocol-log", c.ProtocolLog, "File path for protocol capture (CBOR, read with silog)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Timeout of one-shot commands")
	fs.Float64Var(&c.SendRate, "send-rate", c.SendRate, "Maximum frames per second sent (0: unlimited)")
	fs.DurationVar(&c.KeepAlive.PingInterval, "ping-interval", c.KeepAlive.PingInterval, "Keep-alive ping interval of monitor (0 disables)")
	fs.BoolVar(&c.Reconnect.Enabled, "reconnect", c.Reconnect.Enabled, "Reconnect monitor after the connection was lost")
}

// loadConfig reads c.ConfigFile, if set, into c. Flags set on fs take
// precedence over the file.
func loadConfig(fs *flag.FlagSet, c *Config) error {
	if c.ConfigFile == "" {
		return nil
	}

	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("flag -%s: %w", name, err)
		}
	}
	return nil
}

func validateConfig(c *Config) error {
	switch c.Transport {
	case TransportWebSocket, TransportStream:
	default:
		return fmt.Errorf("unknown transport: %s", c.Transport)
	}
	switch c.Codec {
	case "", "text", "binary":
	default:
		return fmt.Errorf("unknown codec: %s", c.Codec)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be 0-65535, got %d", c.Port)
	}
	if c.Host == "" {
		return fmt.Errorf("host required")
	}
	return nil
}

// binary reports whether the binary codec is selected.
func (c *Config) binary() bool {
	if c.Codec == "" {
		return c.Transport == TransportStream
	}
	return c.Codec == "binary"
}

// address returns the dial address for the selected transport.
func (c *Config) address() string {
	if c.Transport == TransportWebSocket && strings.Contains(c.Host, "://") {
		return c.Host
	}
	port := c.Port
	if port == 0 {
		port = transport.DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}
