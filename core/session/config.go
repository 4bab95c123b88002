package session

import (
	"time"
)

// CookieName is the cookie carrying the session id between requests.
const CookieName = "session-id"

// Config holds session manager configuration.
type Config struct {
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	KeepAlive     bool          `env:"SESSION_KEEP_ALIVE" envDefault:"true"`
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"1m"`
	Dir           string        `env:"SESSION_DIR" envDefault:"./.sessions"`
}

// defaultConfig returns default configuration.
func defaultConfig() *Config {
	return &Config{
		TTL:           24 * time.Hour,
		KeepAlive:     true,
		TouchInterval: time.Minute,
	}
}

// Option is a functional option for configuring the session manager.
type Option func(*Config)

// WithTTL sets the session time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.TTL = ttl
	}
}

// WithKeepAlive extends a session's expiration each time it is persisted.
// Without it a session expires TTL after creation regardless of activity.
func WithKeepAlive(keepAlive bool) Option {
	return func(c *Config) {
		c.KeepAlive = keepAlive
	}
}

// WithTouchInterval sets the minimum time between keep-alive writes.
// Set to 0 to extend the expiration on every persist.
func WithTouchInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.TouchInterval = interval
	}
}

// WithConfig copies timing settings from an env-loaded Config.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		c.TTL = cfg.TTL
		c.KeepAlive = cfg.KeepAlive
		c.TouchInterval = cfg.TouchInterval
		c.Dir = cfg.Dir
	}
}
