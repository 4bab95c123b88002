// Package static serves files from a web root through the byte-range
// responder.
//
// The handler is designed as the terminal entry of the router's "@404"
// chain, so every request no route claims falls back to the filesystem:
//
//	r := router.New()
//	r.NotFound(static.Dir("./public", static.WithCacheControl("public, max-age=3600")).Entry())
//
// Request handling:
//
//   - Paths containing a ".." segment and missing files get 404.
//   - A directory requested without a trailing slash is redirected (301) to
//     the same path with the slash; with the slash its index.html is served.
//   - Files are answered with Content-Type from their extension,
//     Content-Length, Last-Modified and Accept-Ranges. A valid Range header
//     yields 206 Partial Content; a malformed or unsatisfiable one falls back
//     to the full file.
//
// New accepts any fs.FS whose files can seek, including embed.FS:
//
//	//go:embed dist
//	var dist embed.FS
//
//	sub, _ := fs.Sub(dist, "dist")
//	r.NotFound(static.New(sub, static.WithSPA("/api", "/ws")).Entry())
//
// With WithSPA, unknown paths outside the excluded prefixes serve the root
// index file so a single page application can route on the client.
//
// File serves one file at a fixed route:
//
//	r.Get("/favicon.ico", static.File("./public/favicon.ico"))
//
// Dir, FromConfig and File validate their paths at startup and panic when
// they do not exist.
package static
