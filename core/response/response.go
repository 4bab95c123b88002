package response

import (
	"net/http"
)

// Response is a complete answer a handler can return instead of a bare
// value. Headers and cookies set earlier in the chain are merged in without
// overriding the ones set here.
//
// Body may be nil (no body), []byte, string, io.Reader,
// iter.Seq2[[]byte, error] for streamed chunks, or any other value, which is
// transformed according to the negotiated content type.
type Response struct {
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    any
}

// New creates a response with the given status and body.
func New(status int, body any) *Response {
	return &Response{Status: status, Header: make(http.Header), Body: body}
}

// WithHeader sets a response header and returns r.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// WithCookie adds a cookie and returns r.
func (r *Response) WithCookie(c *http.Cookie) *Response {
	r.Cookies = append(r.Cookies, c)
	return r
}

// Text creates a text/plain response.
func Text(status int, content string) *Response {
	return New(status, content).WithHeader("Content-Type", "text/plain; charset=utf-8")
}

// HTML creates a text/html response.
func HTML(status int, content string) *Response {
	return New(status, content).WithHeader("Content-Type", "text/html; charset=utf-8")
}

// JSON creates a response whose body is encoded as JSON regardless of Accept.
func JSON(status int, v any) *Response {
	return New(status, v).WithHeader("Content-Type", "application/json")
}

// NoContent creates an empty 204 response.
func NoContent() *Response {
	return New(http.StatusNoContent, nil)
}

// Redirect creates a redirect to url. Status defaults to 302 Found.
func Redirect(url string, status int) *Response {
	if status == 0 {
		status = http.StatusFound
	}
	return New(status, nil).WithHeader("Location", url)
}
