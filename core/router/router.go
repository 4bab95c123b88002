package router

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/chainmux/core/binder"
	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/pattern"
	"github.com/dmitrymomot/chainmux/core/response"
)

// NotFoundKey is the reserved template of the chain served when no route matches.
const NotFoundKey = "@404"

// Methods are the HTTP methods NotFound registers its chain under.
var Methods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// Config controls how much failure detail reaches clients.
type Config struct {
	// ShowExceptions includes handler error messages in 400 and 500 bodies.
	ShowExceptions bool `env:"HTTP_SHOW_EXCEPTIONS" envDefault:"false"`
	// ShowStackTrace appends the panic stack to 500 bodies. Only effective
	// together with ShowExceptions.
	ShowStackTrace bool  `env:"HTTP_SHOW_STACK_TRACE" envDefault:"false"`
	MaxBodyBytes   int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"10485760"`
}

// Observer receives one call per dispatched request. route is the matched
// template, or NotFoundKey.
type Observer interface {
	Observe(method, route string, status int, d time.Duration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(method, route string, status int, d time.Duration)

// Observe calls f.
func (f ObserverFunc) Observe(method, route string, status int, d time.Duration) {
	f(method, route, status, d)
}

// Router owns the route table and the matcher cache, and dispatches
// requests through the matched chain. It implements http.Handler.
// Routes may be registered while requests are served.
type Router struct {
	mu     sync.RWMutex
	routes map[string][]*route // per method, in registration order
	seq    int

	cache pattern.Cache

	resolver handler.Resolver
	sessions handler.SessionStore
	gateway  *response.Gateway
	observer Observer
	logger   *slog.Logger
	config   Config
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger for registration problems and dispatch failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithResolver replaces the default parameter resolver.
func WithResolver(res handler.Resolver) Option {
	return func(r *Router) {
		r.resolver = res
	}
}

// WithSessionStore enables session parameters and persists the request's
// session after every chain step.
func WithSessionStore(s handler.SessionStore) Option {
	return func(r *Router) {
		r.sessions = s
	}
}

// WithGateway sets the gateway used when a handler returns a
// response.WebSocketHandler.
func WithGateway(g *response.Gateway) Option {
	return func(r *Router) {
		if g != nil {
			r.gateway = g
		}
	}
}

// WithObserver reports every dispatched request to o.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// WithConfig applies an env-loaded Config.
func WithConfig(cfg Config) Option {
	return func(r *Router) {
		r.config = cfg
	}
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{
		routes:  make(map[string][]*route),
		gateway: response.NewGateway(),
		logger:  logger.Discard(),
		config:  Config{MaxBodyBytes: handler.DefaultMaxBodyBytes},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		var bopts []binder.Option
		if r.sessions != nil {
			bopts = append(bopts, binder.WithSessionStore(r.sessions))
		}
		r.resolver = binder.New(bopts...)
	}
	return r
}

func (r *Router) observe(method, route string, status int, d time.Duration) {
	if r.observer != nil {
		r.observer.Observe(method, route, status, d)
	}
}
