package main

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/response"
)

func notFound() handler.Entry {
	return handler.New("not_found", func(*handler.Context, handler.Args) (any, error) {
		return response.Text(http.StatusNotFound, http.StatusText(http.StatusNotFound)), nil
	})
}

func echo() handler.Entry {
	return handler.New("ws.echo", func(*handler.Context, handler.Args) (any, error) {
		return response.Echo(), nil
	})
}

// clock streams the server time as "tick" events every interval until the
// client goes away.
func clock(interval time.Duration) handler.Entry {
	return handler.New("sse.clock", func(ctx *handler.Context, _ handler.Args) (any, error) {
		done := ctx.Done()
		events := make(chan any)
		go func() {
			defer close(events)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case now := <-ticker.C:
					select {
					case events <- map[string]string{"time": now.UTC().Format(time.RFC3339)}:
					case <-done:
						return
					}
				}
			}
		}()
		return response.SSE(ctx, events, response.WithEventName("tick")), nil
	})
}
