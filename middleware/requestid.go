package middleware

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/chainmux/core/handler"
)

// RequestIDHeader is the header carrying the request id.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDKey is the request context key holding the request id.
var RequestIDKey = requestIDKey{}

type requestIDConfig struct {
	header      string
	generator   func() string
	useExisting bool
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

// WithRequestIDHeader sets the header name (default: X-Request-ID).
func WithRequestIDHeader(name string) RequestIDOption {
	return func(c *requestIDConfig) {
		if name != "" {
			c.header = name
		}
	}
}

// WithRequestIDGenerator replaces the UUID v4 generator.
func WithRequestIDGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if fn != nil {
			c.generator = fn
		}
	}
}

// WithExistingRequestID reuses an id sent by the client instead of
// generating one.
func WithExistingRequestID() RequestIDOption {
	return func(c *requestIDConfig) { c.useExisting = true }
}

// RequestID tags the request with an id. The id goes to the response header,
// the request context (RequestIDKey) and the chain state ("request_id").
func RequestID(opts ...RequestIDOption) handler.Entry {
	cfg := &requestIDConfig{
		header:    RequestIDHeader,
		generator: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return handler.New("request_id", func(ctx *handler.Context, _ handler.Args) (any, error) {
		var id string
		if cfg.useExisting {
			id = ctx.Request().Header.Get(cfg.header)
		}
		if id == "" {
			id = cfg.generator()
		}

		ctx.SetValue(RequestIDKey, id)
		ctx.Set("request_id", id)
		ctx.Header().Set(cfg.header, id)
		return true, nil
	})
}

// GetRequestID returns the id stored by RequestID.
func GetRequestID(ctx *handler.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok
}
