package conn

import (
	"time"
)

// Config holds the protocol timers of a connection.
type Config struct {
	// ConnectTimeout bounds a dial attempt.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// HeartbeatInterval is the time between heartbeats while Open.
	// Any inbound frame postpones the next heartbeat.
	// Default: 5 seconds.
	HeartbeatInterval time.Duration

	// HeartbeatTimeout is armed by the first unanswered heartbeat. When it
	// fires the connection is declared dead.
	// Default: 10 seconds.
	HeartbeatTimeout time.Duration

	// ReconnectInterval is the delay before redialing a dropped connection.
	// Default: 5 seconds.
	ReconnectInterval time.Duration
}

// DefaultConfig returns a Config with the protocol defaults.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:    10 * time.Second,
		HeartbeatInterval: 5 * time.Second,
		HeartbeatTimeout:  10 * time.Second,
		ReconnectInterval: 5 * time.Second,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults returns a copy with zero fields set to their defaults.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := c.Clone()
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = d.ConnectTimeout
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = d.HeartbeatInterval
	}
	if out.HeartbeatTimeout <= 0 {
		out.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if out.ReconnectInterval <= 0 {
		out.ReconnectInterval = d.ReconnectInterval
	}
	return out
}
