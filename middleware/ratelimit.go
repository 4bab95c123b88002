package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/response"
)

// RateLimitConfig holds the token bucket settings applied per client key.
type RateLimitConfig struct {
	RPS     float64       `env:"HTTP_RATE_LIMIT_RPS" envDefault:"10"`
	Burst   int           `env:"HTTP_RATE_LIMIT_BURST" envDefault:"20"`
	IdleTTL time.Duration `env:"HTTP_RATE_LIMIT_IDLE_TTL" envDefault:"10m"`
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	cfg     RateLimitConfig
	keyFunc func(ctx *handler.Context) string
	headers bool
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitOption configures a RateLimiter.
type RateLimitOption func(*RateLimiter)

// WithKeyFunc sets how requests are grouped (default: ClientIP).
func WithKeyFunc(fn func(ctx *handler.Context) string) RateLimitOption {
	return func(l *RateLimiter) {
		if fn != nil {
			l.keyFunc = fn
		}
	}
}

// WithRateLimitHeaders adds X-RateLimit-Limit and X-RateLimit-Remaining to
// allowed responses.
func WithRateLimitHeaders() RateLimitOption {
	return func(l *RateLimiter) { l.headers = true }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RateLimitOption {
	return func(l *RateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithRateLimitLogger sets the logger for rejected requests.
func WithRateLimitLogger(log *slog.Logger) RateLimitOption {
	return func(l *RateLimiter) {
		if log != nil {
			l.logger = log
		}
	}
}

// NewRateLimiter creates a limiter. A non-positive RPS disables limiting;
// Burst is raised to at least one.
func NewRateLimiter(cfg RateLimitConfig, opts ...RateLimitOption) *RateLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	l := &RateLimiter{
		cfg:      cfg,
		keyFunc:  func(ctx *handler.Context) string { return ClientIP(ctx.Request()) },
		now:      time.Now,
		logger:   logger.Discard(),
		visitors: make(map[string]*visitor),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow takes a token for key. When none is left it returns false and how
// long the client should wait.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	if l.cfg.RPS <= 0 {
		return true, 0
	}
	now := l.now()
	lim := l.visitor(key, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Remaining reports the whole tokens left for key.
func (l *RateLimiter) Remaining(key string) int {
	l.mu.Lock()
	v, ok := l.visitors[key]
	l.mu.Unlock()
	if !ok {
		return l.cfg.Burst
	}
	return max(0, int(math.Floor(v.limiter.TokensAt(l.now()))))
}

func (l *RateLimiter) visitor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Len returns the number of tracked keys.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Prune forgets keys idle for longer than IdleTTL and returns how many
// were removed.
func (l *RateLimiter) Prune() int {
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			n++
		}
	}
	return n
}

// Run calls Prune every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := l.Prune(); n > 0 {
				l.logger.DebugContext(ctx, "idle rate limit keys removed",
					logger.Component("ratelimit"),
					slog.Int("count", n),
				)
			}
		}
	}
}

// Entry returns the limiter as a filter. Rejected requests get 429 with a
// Retry-After header.
func (l *RateLimiter) Entry() handler.Entry {
	return handler.New("rate_limit", func(ctx *handler.Context, _ handler.Args) (any, error) {
		key := l.keyFunc(ctx)
		ok, wait := l.Allow(key)
		if !ok {
			l.logger.InfoContext(ctx, "rate limit exceeded",
				logger.Component("ratelimit"),
				logger.Key("client", key),
				logger.Path(ctx.Request().URL.Path),
			)
			seconds := int(math.Ceil(wait.Seconds()))
			return response.Text(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests)).
				WithHeader("Retry-After", strconv.Itoa(max(1, seconds))), nil
		}
		if l.headers {
			ctx.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Burst))
			ctx.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(key)))
		}
		return true, nil
	})
}
