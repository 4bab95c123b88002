// Package health provides probe entries for orchestrators and load balancers.
//
//	r.Get("/health/live", health.Liveness())
//	r.Get("/health/ready", health.Readiness(log,
//		pg.Healthcheck(pool),
//		redis.Healthcheck(client),
//	))
//	r.Get("/ping", health.NoContent())
//
// Checks have the signature func(context.Context) error and run in order;
// the first failure answers 503.
package health
