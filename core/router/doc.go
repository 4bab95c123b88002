// Package router matches requests to registered handler chains and
// dispatches them.
//
// A route is a method, a path template and a chain of handler entries. All
// entries but the last are filters: a filter returning true lets the chain
// continue, any other value ends it and becomes the response. Templates
// use {name} placeholders bound to the declared path parameters of each
// entry (see the pattern package).
//
// # Basic Usage
//
//	import (
//		"github.com/dmitrymomot/chainmux/core/handler"
//		"github.com/dmitrymomot/chainmux/core/pattern"
//		"github.com/dmitrymomot/chainmux/core/router"
//	)
//
//	r := router.New(router.WithLogger(log))
//
//	auth := handler.New("auth", func(ctx *handler.Context, args handler.Args) (any, error) {
//		if args.String("Authorization") == "" {
//			return nil, response.ErrUnauthorized
//		}
//		return true, nil
//	}, handler.Header("Authorization"))
//
//	show := handler.New("users.show", func(ctx *handler.Context, args handler.Args) (any, error) {
//		return map[string]any{"id": args.Int("id")}, nil
//	}, handler.Path("id", pattern.Int)).Producing("application/json", "application/xml")
//
//	r.Get("/users/{id}", auth, show)
//	r.NotFound(handler.New("404", func(*handler.Context, handler.Args) (any, error) {
//		return response.Text(http.StatusNotFound, "not found"), nil
//	}))
//
//	http.ListenAndServe(":8080", r)
//
// # Matching
//
// When several templates match a path, the one capturing the fewest
// parameters wins and registration order breaks ties, so "/users/me" beats
// "/users/{id}". Unmatched requests are served by the "@404" chain; with no
// such chain the request fails with 500.
//
// # Results
//
// A chain's result is interpreted as follows:
//
//   - *response.Response is written as is, merged with headers and cookies
//     set on the context during the chain.
//   - response.WebSocketHandler upgrades the connection.
//   - http.Handler is served directly.
//   - Any other value is encoded for the content type negotiated between the
//     Accept header and the entry's Produces list (text/plain by default).
//
// # Errors
//
// Register panics on invalid or conflicting routes. At request time an
// error implementing StatusCode() int keeps its status and message,
// content-type and parameter errors become 400, and anything else,
// including recovered panics (see PanicError), becomes a logged 500 whose
// body carries detail only when Config.ShowExceptions is set.
package router
