package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/chainmux/core/pattern"
	"github.com/dmitrymomot/chainmux/core/session"
)

// DefaultMaxBodyBytes bounds request bodies read through Context.Body.
const DefaultMaxBodyBytes int64 = 10 << 20

// ErrBodyTooLarge is returned by Context.Body when the request body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Context is the per-request state threaded through a handler chain.
// It delegates context.Context to the request's context, so cancellation
// of the request reaches every handler. A Context is owned by one request
// and must not be shared across goroutines.
type Context struct {
	r *http.Request

	header  http.Header
	cookies []*http.Cookie
	status  int

	params []map[string]string
	index  int

	query  map[string]any
	values map[string]any

	maxBody  int64
	body     []byte
	bodyRead bool
	bodyErr  error
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithMaxBodyBytes limits how much of the request body Body reads.
func WithMaxBodyBytes(n int64) ContextOption {
	return func(c *Context) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// NewContext creates the context for r.
func NewContext(r *http.Request, opts ...ContextOption) *Context {
	c := &Context{
		r:       r,
		header:  make(http.Header),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deadline returns the time when work done on behalf of this context should be canceled.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done returns a channel that's closed when work done on behalf of this context should be canceled.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err returns a non-nil error value after Done is closed.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

// Value returns the value associated with this context for key, or nil if no value is associated with key.
func (c *Context) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue attaches value to the request's context under key. Later
// entries, loggers and served http.Handlers see it through Value.
func (c *Context) SetValue(key, value any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, value))
}

// SetSession binds sess to the request. Later entries resolving the session
// get the same instance and the session store persists it.
func (c *Context) SetSession(sess *session.Session) {
	c.r = c.r.WithContext(session.NewContext(c.r.Context(), sess))
}

// Request returns the HTTP request associated with this context.
func (c *Context) Request() *http.Request {
	return c.r
}

// Method returns the request method.
func (c *Context) Method() string {
	return c.r.Method
}

// Path returns the request path, still percent-encoded, with escape hex
// digits upper-cased the way compiled template literals are.
func (c *Context) Path() string {
	if p := c.r.URL.EscapedPath(); p != "" {
		return pattern.NormalizePath(p)
	}
	return "/"
}

// SetChainParams stores the path parameters extracted for every chain index.
func (c *Context) SetChainParams(params []map[string]string) {
	c.params = params
}

// SetIndex marks which chain entry is currently executing.
func (c *Context) SetIndex(i int) {
	c.index = i
}

// Index returns the position of the executing entry in its chain.
func (c *Context) Index() int {
	return c.index
}

// Param returns the decoded path parameter for the executing entry.
func (c *Context) Param(name string) string {
	if c.index < 0 || c.index >= len(c.params) {
		return ""
	}
	return c.params[c.index][name]
}

// Params returns a copy of the executing entry's path parameters.
func (c *Context) Params() map[string]string {
	if c.index < 0 || c.index >= len(c.params) {
		return map[string]string{}
	}
	return maps.Clone(c.params[c.index])
}

// Query returns the value of a query parameter. Flag-style parameters
// without "=" report an empty string and true.
func (c *Context) Query(name string) (string, bool) {
	v, ok := c.QueryValues()[name]
	if !ok {
		return "", false
	}
	if s, isString := v.(string); isString {
		return s, true
	}
	return "", true
}

// QueryFlag reports whether name was passed as a bare flag ("?debug").
func (c *Context) QueryFlag(name string) bool {
	v, ok := c.QueryValues()[name]
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return isBool && b
}

// QueryValues returns the parsed query. Values are either a string or true
// for keys given without "=". Later duplicates win.
func (c *Context) QueryValues() map[string]any {
	if c.query == nil {
		c.query = ParseQuery(c.r.URL.RawQuery)
	}
	return c.query
}

// ParseQuery splits a raw query string into key/value pairs, mapping keys
// that carry no "=" to true.
func ParseQuery(raw string) map[string]any {
	out := make(map[string]any)
	for part := range strings.SplitSeq(raw, "&") {
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		k, err := url.QueryUnescape(key)
		if err != nil || k == "" {
			continue
		}
		if !hasValue {
			out[k] = true
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			v = value
		}
		out[k] = v
	}
	return out
}

// Header returns the response headers accumulated so far in the chain.
func (c *Context) Header() http.Header {
	return c.header
}

// SetStatus records the response status to use when the chain's result does
// not carry its own.
func (c *Context) SetStatus(status int) {
	c.status = status
}

// Status returns the status set with SetStatus, or 0.
func (c *Context) Status() int {
	return c.status
}

// SetCookie adds a cookie to the response. A later cookie with the same
// name replaces the earlier one.
func (c *Context) SetCookie(cookie *http.Cookie) {
	for i, existing := range c.cookies {
		if existing.Name == cookie.Name {
			c.cookies[i] = cookie
			return
		}
	}
	c.cookies = append(c.cookies, cookie)
}

// Cookies returns the cookies set on the response.
func (c *Context) Cookies() []*http.Cookie {
	return c.cookies
}

// Cookie returns the named cookie value, preferring one already set on the
// response over the one sent with the request.
func (c *Context) Cookie(name string) (string, bool) {
	for _, cookie := range c.cookies {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	if cookie, err := c.r.Cookie(name); err == nil {
		return cookie.Value, true
	}
	return "", false
}

// Set stores a value visible to later entries in the chain.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Get returns a value stored by an earlier entry.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Body reads the request body once and returns the same bytes to every
// caller. Bodies over the configured limit fail with ErrBodyTooLarge.
func (c *Context) Body() ([]byte, error) {
	if c.bodyRead {
		return c.body, c.bodyErr
	}
	c.bodyRead = true

	if c.r.Body == nil || c.r.Body == http.NoBody {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(c.r.Body, c.maxBody+1))
	switch {
	case err != nil:
		c.bodyErr = fmt.Errorf("read request body: %w", err)
	case int64(len(data)) > c.maxBody:
		c.bodyErr = ErrBodyTooLarge
	default:
		c.body = data
	}
	return c.body, c.bodyErr
}

// ContentType returns the request media type without parameters, lower-cased.
func (c *Context) ContentType() string {
	ct := c.r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
