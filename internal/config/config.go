package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds client configuration values.
type Config struct {
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	Token     string `mapstructure:"token" yaml:"token"`
	Room      string `mapstructure:"room" yaml:"room"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`

	ReconnectAttempts int           `mapstructure:"reconnect_attempts" yaml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	JoinTimeout       time.Duration `mapstructure:"join_timeout" yaml:"join_timeout"`
	SendTimeout       time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`

	SystemMessages bool `mapstructure:"system_messages" yaml:"system_messages"`
	Chronological  bool `mapstructure:"chronological" yaml:"chronological"`

	// BridgeAddr enables the local HTTP view bridge when set.
	BridgeAddr      string        `mapstructure:"bridge_addr" yaml:"bridge_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:         "ws://localhost:8080/ws",
		LogLevel:          "info",
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		JoinTimeout:       10 * time.Second,
		SendTimeout:       5 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      5 * time.Second,
		MaxMessageBytes:   1 << 20,
		ShutdownTimeout:   5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.Room != "" {
		c.Room = other.Room
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReconnectAttempts != 0 {
		c.ReconnectAttempts = other.ReconnectAttempts
	}
	if other.ReconnectDelay != 0 {
		c.ReconnectDelay = other.ReconnectDelay
	}
	if other.JoinTimeout != 0 {
		c.JoinTimeout = other.JoinTimeout
	}
	if other.SendTimeout != 0 {
		c.SendTimeout = other.SendTimeout
	}
	if other.HandshakeTimeout != 0 {
		c.HandshakeTimeout = other.HandshakeTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.SystemMessages {
		c.SystemMessages = true
	}
	if other.Chronological {
		c.Chronological = true
	}
	if other.BridgeAddr != "" {
		c.BridgeAddr = other.BridgeAddr
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server_url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("server_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("server_url: missing host")
	}

	if c.ReconnectAttempts <= 0 {
		return errors.New("reconnect_attempts must be positive")
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"reconnect_delay", c.ReconnectDelay},
		{"join_timeout", c.JoinTimeout},
		{"send_timeout", c.SendTimeout},
		{"handshake_timeout", c.HandshakeTimeout},
		{"write_timeout", c.WriteTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	if c.MaxMessageBytes < 0 {
		return errors.New("max_message_bytes must not be negative")
	}
	return nil
}
