package health

import (
	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/response"
)

// Liveness answers "ALIVE" without checking dependencies.
func Liveness() handler.Entry {
	return handler.New("health.live", func(*handler.Context, handler.Args) (any, error) {
		return "ALIVE", nil
	})
}

// NoContent answers 204.
func NoContent() handler.Entry {
	return handler.New("health.ping", func(*handler.Context, handler.Args) (any, error) {
		return response.NoContent(), nil
	})
}
