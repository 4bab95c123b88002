// Command chainmux serves the router with sessions, metrics, static files
// and optional S3 media behind a graceful HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/chainmux/core/config"
	"github.com/dmitrymomot/chainmux/core/health"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/metrics"
	"github.com/dmitrymomot/chainmux/core/response"
	"github.com/dmitrymomot/chainmux/core/router"
	"github.com/dmitrymomot/chainmux/core/server"
	"github.com/dmitrymomot/chainmux/core/session"
	"github.com/dmitrymomot/chainmux/core/static"
	"github.com/dmitrymomot/chainmux/integration/database/pg"
	"github.com/dmitrymomot/chainmux/integration/database/redis"
	"github.com/dmitrymomot/chainmux/integration/storage/s3"
	"github.com/dmitrymomot/chainmux/middleware"
)

type appConfig struct {
	Name            string        `env:"APP_NAME" envDefault:"chainmux"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	SessionStore    string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionCleanup  time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
	RateLimitPrune  time.Duration `env:"HTTP_RATE_LIMIT_PRUNE_INTERVAL" envDefault:"1m"`
	ShowRouteTable  bool          `env:"HTTP_SHOW_ROUTES" envDefault:"false"`
	EnableWebSocket bool          `env:"HTTP_WEBSOCKET_ECHO" envDefault:"true"`
	ClockInterval   time.Duration `env:"HTTP_SSE_CLOCK_INTERVAL" envDefault:"1s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "chainmux:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		app     appConfig
		httpCfg router.Config
		srvCfg  server.Config
		sessCfg session.Config
		rlCfg   middleware.RateLimitConfig
	)
	for _, load := range []func() error{
		func() error { return config.Load(&app) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&srvCfg) },
		func() error { return config.Load(&sessCfg) },
		func() error { return config.Load(&rlCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := newLogger(app)

	store, checks, closeStore, err := sessionStore(ctx, app.SessionStore, sessCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := session.NewManager(store,
		session.WithLogger(log),
		session.WithOptions(session.WithConfig(sessCfg)),
	)
	recorder := metrics.New(metrics.WithNamespace(app.Name), metrics.WithRuntimeMetrics())
	limiter := middleware.NewRateLimiter(rlCfg, middleware.WithRateLimitLogger(log))

	r := router.New(
		router.WithLogger(log),
		router.WithConfig(httpCfg),
		router.WithSessionStore(sessions),
		router.WithObserver(recorder),
		router.WithGateway(response.NewGateway()),
	)

	r.Get("/health/live", health.Liveness())
	r.Get("/health/ready", health.Readiness(log, checks...))
	r.Handle(http.MethodGet, "/metrics", recorder.Handler())
	if app.EnableWebSocket {
		r.Get("/ws/echo", middleware.RequestID(), limiter.Entry(), echo())
	}
	if app.ClockInterval > 0 {
		r.Get("/events/clock", middleware.RequestID(), limiter.Entry(), clock(app.ClockInterval))
	}

	if err := mountMedia(ctx, r, log, limiter); err != nil {
		return err
	}
	mountStatic(r, log)

	if app.ShowRouteTable {
		log.InfoContext(ctx, "routes\n"+r.Describe())
	}

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(ctx, r))
	g.Go(func() error { return sessions.Run(ctx, app.SessionCleanup) })
	g.Go(func() error { return limiter.Run(ctx, app.RateLimitPrune) })
	return g.Wait()
}

func newLogger(app appConfig) *slog.Logger {
	env := logger.WithDevelopment(app.Name)
	if app.Env == "production" {
		env = logger.WithProduction(app.Name)
	}
	return logger.New(env, logger.WithContextValue("request_id", middleware.RequestIDKey))
}

// sessionStore builds the configured backend. The returned checks report
// its health and closeFn releases its connections.
func sessionStore(ctx context.Context, kind string, cfg session.Config) (session.Store, []func(context.Context) error, func(), error) {
	switch kind {
	case "memory":
		return session.NewMemoryStore(), nil, func() {}, nil

	case "file":
		store, err := session.NewFileStore(cfg.Dir)
		return store, nil, func() {}, err

	case "redis":
		var rc redis.Config
		if err := config.Load(&rc); err != nil {
			return nil, nil, nil, err
		}
		client, err := redis.Connect(ctx, rc)
		if err != nil {
			return nil, nil, nil, err
		}
		store := redis.NewSessionStore(client,
			redis.WithKeyPrefix(rc.SessionPrefix),
			redis.WithScanBatchSize(rc.ScanBatchSize),
		)
		return store, []func(context.Context) error{redis.Healthcheck(client)}, func() { _ = client.Close() }, nil

	case "postgres":
		var pc pg.Config
		if err := config.Load(&pc); err != nil {
			return nil, nil, nil, err
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, nil, nil, err
		}
		store := pg.NewSessionStore(pool, pg.WithTable(pc.SessionTable))
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return store, []func(context.Context) error{pg.Healthcheck(pool)}, pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown SESSION_STORE %q", kind)
	}
}

// mountMedia serves /media/{key} from S3 when a bucket is configured.
func mountMedia(ctx context.Context, r *router.Router, log *slog.Logger, limiter *middleware.RateLimiter) error {
	var cfg s3.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if cfg.Bucket == "" {
		return nil
	}
	bucket, err := s3.New(ctx, cfg, s3.WithLogger(log))
	if err != nil {
		return err
	}
	r.Get("/media/{key}", middleware.RequestID(), limiter.Entry(), bucket.Entry("key"))
	r.Head("/media/{key}", bucket.Entry("key"))
	return nil
}

// mountStatic makes the webroot the fallback for unmatched requests. A
// missing webroot leaves a plain 404.
func mountStatic(r *router.Router, log *slog.Logger) {
	var cfg static.Config
	if err := config.Load(&cfg); err != nil {
		log.Warn("static config", logger.Error(err))
	}
	if info, err := os.Stat(cfg.Webroot); err == nil && info.IsDir() {
		r.NotFound(
			middleware.SecurityHeaders(middleware.BalancedSecurity),
			static.FromConfig(cfg, static.WithLogger(log)).Entry(),
		)
		return
	}
	log.Info("webroot not found, static files disabled", logger.Path(cfg.Webroot))
	r.NotFound(notFound())
}
