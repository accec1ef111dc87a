package session

import (
	"time"

	"github.com/danmuck/telectl/internal/protocol/frame"
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines client session reliability defaults.
type Config struct {
	ConnectTimeout time.Duration
	// ReadTimeout bounds one blocking read. Expiry is not a disconnect
	// unless DisconnectOnIdle is set.
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisconnectOnIdle bool
	NoDelay          bool
	// Tokenized selects the "CMD@arg@\r\n" sender variant.
	Tokenized      bool
	ReadChunkBytes int
	// MaxBufferBytes caps pending bytes that have not produced a frame.
	MaxBufferBytes int
	// MaxResyncBytes caps consecutive bytes dropped while resynchronizing.
	MaxResyncBytes int
	Limits         frame.Limits
	Backoff        BackoffConfig
}

// DefaultConfig returns defaults matching the blocking reference client.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		ReadTimeout:      time.Second,
		WriteTimeout:     5 * time.Second,
		DisconnectOnIdle: false,
		NoDelay:          true,
		Tokenized:        false,
		ReadChunkBytes:   8192,
		MaxBufferBytes:   24 * 1024 * 1024,
		MaxResyncBytes:   64 * 1024,
		Limits:           frame.DefaultLimits(),
		Backoff: BackoffConfig{
			InitialDelay: 500 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       false,
		},
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ReadChunkBytes <= 0 {
		c.ReadChunkBytes = def.ReadChunkBytes
	}
	if c.Limits.MaxPayloadBytes <= 0 {
		c.Limits = def.Limits
	}
	if c.MaxBufferBytes <= 0 {
		c.MaxBufferBytes = def.MaxBufferBytes
	}
	if minBuffer := c.Limits.MaxPayloadBytes + 64; c.MaxBufferBytes < minBuffer {
		c.MaxBufferBytes = minBuffer
	}
	if c.MaxResyncBytes <= 0 {
		c.MaxResyncBytes = def.MaxResyncBytes
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = def.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier < 1.0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	if c.Backoff.MaxDelay <= 0 {
		c.Backoff.MaxDelay = def.Backoff.MaxDelay
	}
	if c.Backoff.MaxDelay < c.Backoff.InitialDelay {
		c.Backoff.MaxDelay = c.Backoff.InitialDelay
	}
	return c
}
