// Package middleware provides filters to put in front of route handlers.
//
// Every constructor returns a handler.Entry. A filter returns true to let
// the chain continue, so it can be listed before any terminal entry:
//
//	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{RPS: 5, Burst: 10})
//	r.Get("/users/{id}",
//		middleware.RequestID(),
//		middleware.SecurityHeaders(middleware.BalancedSecurity),
//		limiter.Entry(),
//		show,
//	)
//
// RequestID stores the id on the request context under RequestIDKey, so a
// logger built with logger.WithContextValue("request_id", middleware.RequestIDKey)
// tags every record written during the request.
package middleware
