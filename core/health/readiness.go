package health

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/response"
)

// Readiness answers "READY" when every check passes and 503 otherwise.
func Readiness(log *slog.Logger, checks ...func(context.Context) error) handler.Entry {
	if log == nil {
		log = logger.Discard()
	}
	return handler.New("health.ready", func(ctx *handler.Context, _ handler.Args) (any, error) {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Component("health"), logger.Error(err))
				return nil, response.ErrServiceUnavailable
			}
		}
		return "READY", nil
	})
}
