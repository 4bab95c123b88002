// Package logger builds log/slog loggers and provides attribute helpers.
//
//	log := logger.New(
//		logger.WithProduction("chainmux"),
//		logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//
//	log.Info("request served",
//		logger.Method(r.Method),
//		logger.Route("/users/{id}"),
//		logger.StatusCode(200),
//		logger.Elapsed(start),
//	)
//
// Helpers return an empty slog.Attr for nil or empty input, which slog
// drops, so logger.Error(err) is safe with a nil err.
//
// LevelCritical extends slog's levels for failures that prevent a correct
// answer; Critical logs at that level and handlers print it as CRITICAL.
package logger
