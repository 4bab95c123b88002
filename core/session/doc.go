// Package session provides server-side sessions keyed by an opaque id that
// travels in the "session-id" cookie.
//
// A Manager sits in front of a Store and implements the three operations the
// dispatch pipeline needs:
//
//   - Start returns the session for an id, issuing a new id when the given one
//     is empty, unknown or expired.
//   - Validate returns the session for an id only if it exists and is live.
//   - Persist writes the session carried by the context back to its store,
//     extending its expiration when keep-alive is enabled.
//
// The Manager caches nothing. Every Validate reads the store, so processes
// sharing a Redis or PostgreSQL store see each other's writes and deletes.
// Within one request the session is bound to the context with NewContext.
//
// Stores shipped here are MemoryStore and FileStore (one JSON document per
// session). Redis and PostgreSQL stores live under integration/database.
//
// # Basic Usage
//
//	store, err := session.NewFileStore("./.sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manager := session.NewManager(store,
//		session.WithLogger(log),
//		session.WithOptions(
//			session.WithTTL(24*time.Hour),
//			session.WithKeepAlive(true),
//		),
//	)
//
//	sess, _ := manager.Start(ctx, cookieValue)
//	ctx = session.NewContext(ctx, sess)
//	sess.Set("theme", "dark")
//	_ = manager.Persist(ctx, sess.ID)
//
// Expired sessions are removed lazily on access and in bulk by
// CleanupExpired, which Run calls on a ticker.
package session
