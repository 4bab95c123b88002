// Package response holds what a route chain can answer with and how values
// become bytes on the wire.
//
// A terminal entry may return a *Response (status, headers, cookies, body),
// an HTTPError, a WebSocketHandler, or a bare value. Bare values are encoded
// for the content type picked by Negotiate from the request's Accept header
// and the entry's declared produced types:
//
//	ct := response.Negotiate("application/xml;q=0.5, application/json", []string{"text/plain", "application/json"})
//	// ct == "application/json"
//	body, err := response.Transform(ct, map[string]any{"id": 1})
//
// Transform follows a small set of rules: JSON and unknown types encode
// lists, maps and structs as JSON and write scalars as text; XML wraps
// everything under <root>, lists as <item> siblings; YAML encodes structured
// values with gopkg.in/yaml.v3.
//
// # WebSocket
//
// Gateway upgrades a request with gorilla/websocket and drives a
// WebSocketHandler until the peer disconnects. Hook errors and panics are
// delivered to OnError.
//
//	gw := response.NewGateway(response.WithWSAllowAnyOrigin())
//	_ = gw.Serve(w, r, response.Echo(), nil)
//
// # Server-Sent Events
//
// SSE streams values from a channel as an event stream body:
//
//	return response.SSE(ctx, events, response.WithEventName("tick")), nil
package response
