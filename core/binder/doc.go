// Package binder provides the default parameter resolver for route chains.
//
// A Resolver binds each declared handler.Param from the request:
//
//   - SourcePath: the decoded path capture, converted to the declared type.
//   - SourceQuery: the query value; "?flag" binds true to bool params.
//   - SourceHeader, SourceCookie: the first header value or the cookie value.
//   - SourceBody: the body decoded by Content-Type (JSON, form, multipart,
//     XML, YAML, text or raw bytes).
//   - SourceSession: the session keyed by the "session-id" cookie, started
//     on demand; a new id is sent back as a cookie.
//   - SourceSessionID: the raw "session-id" cookie value.
//
// Query, header and cookie parameters absent from the request are omitted
// from the returned Args, so handlers check them with Args.Has.
//
// # Body decoding
//
// Without Param.New, JSON and YAML bodies decode into map[string]any (or
// whatever JSON value they hold), forms into map[string]any with string or
// []string values, text into a string and XML stays raw. With Param.New the
// body is decoded into the returned pointer; forms reach typed targets
// through a JSON round trip, so target fields should be strings.
//
// A missing Content-Type or an undecodable body fails with an error wrapping
// handler.ErrContentTypeRejected:
//
//	r := binder.New(binder.WithSessionStore(manager))
//	args, err := r.Resolve(ctx, []handler.Param{
//		handler.Path("id", pattern.Int),
//		handler.Body("user", func() any { return &CreateUser{} }),
//	})
//	if errors.Is(err, handler.ErrContentTypeRejected) {
//		// 400
//	}
package binder
