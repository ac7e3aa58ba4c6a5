package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	// Display window
	WindowCapacity        int  `mapstructure:"window_capacity" yaml:"window_capacity"`
	PushSnapshotOnConnect bool `mapstructure:"push_snapshot_on_connect" yaml:"push_snapshot_on_connect"`
	ClientBuffer          int  `mapstructure:"client_buffer" yaml:"client_buffer"`
	HubQueue              int  `mapstructure:"hub_queue" yaml:"hub_queue"`

	// WebSocket inbound limits
	MaxMessageBytes      int64   `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	InboundRatePerSecond float64 `mapstructure:"inbound_rate_per_second" yaml:"inbound_rate_per_second"`
	InboundBurst         int     `mapstructure:"inbound_burst" yaml:"inbound_burst"`

	// Empty disables window persistence.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// Empty leaves producer endpoints open.
	ProducerSecret   string        `mapstructure:"producer_secret" yaml:"producer_secret"`
	ProducerIssuer   string        `mapstructure:"producer_issuer" yaml:"producer_issuer"`
	ProducerTokenTTL time.Duration `mapstructure:"producer_token_ttl" yaml:"producer_token_ttl"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                  ":8080",
		ReadHeaderTimeout:     5 * time.Second,
		ShutdownTimeout:       5 * time.Second,
		LogLevel:              "info",
		LogFormat:             "console",
		WindowCapacity:        4,
		PushSnapshotOnConnect: true,
		ClientBuffer:          8,
		HubQueue:              64,
		MaxMessageBytes:       4096,
		InboundRatePerSecond:  5,
		InboundBurst:          10,
		ProducerIssuer:        "ticketboard",
		ProducerTokenTTL:      12 * time.Hour,
		AllowedOrigins:        []string{"*"},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans are not merged because their zero value is meaningful.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.WindowCapacity != 0 {
		c.WindowCapacity = other.WindowCapacity
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.HubQueue != 0 {
		c.HubQueue = other.HubQueue
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.InboundRatePerSecond != 0 {
		c.InboundRatePerSecond = other.InboundRatePerSecond
	}
	if other.InboundBurst != 0 {
		c.InboundBurst = other.InboundBurst
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.ProducerSecret != "" {
		c.ProducerSecret = other.ProducerSecret
	}
	if other.ProducerIssuer != "" {
		c.ProducerIssuer = other.ProducerIssuer
	}
	if other.ProducerTokenTTL != 0 {
		c.ProducerTokenTTL = other.ProducerTokenTTL
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
}
