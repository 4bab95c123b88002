// Package server runs an http.Handler with graceful shutdown.
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	return g.Wait()
//
// Run binds the address, serves until ctx is canceled and then shuts down,
// waiting up to the shutdown timeout for in-flight requests. Long streams
// and WebSocket connections are hijacked or flushed outside the write
// timeout, which is off by default.
package server
