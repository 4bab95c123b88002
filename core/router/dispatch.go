package router

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/response"
	"github.com/dmitrymomot/chainmux/core/session"
)

// statusClientClosed is reported to the observer for requests whose
// client went away before a response was written.
const statusClientClosed = 499

// state is a step of the per-request dispatch state machine.
type state uint8

const (
	stateStart state = iota
	stateFiltering
	stateInvoking
	stateNegotiating
	stateWebSocket
	stateError
	stateDone
	stateAborted
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateFiltering:
		return "filtering"
	case stateInvoking:
		return "invoking"
	case stateNegotiating:
		return "negotiating"
	case stateWebSocket:
		return "websocket"
	case stateError:
		return "error"
	case stateDone:
		return "done"
	case stateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ServeHTTP matches the request and runs the selected chain. Unmatched
// requests get the NotFoundKey chain; without one they fail with 500.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rw := newResponseWriter(w)
	ctx := handler.NewContext(req, handler.WithMaxBodyBytes(r.config.MaxBodyBytes))

	m, ok := r.match(req.Method, ctx.Path())
	if !ok {
		m, ok = r.fallback(req.Method)
	}
	if !ok {
		logger.Critical(req.Context(), r.logger, "dispatch failed",
			logger.Component("router"),
			logger.Method(req.Method),
			logger.Path(req.URL.Path),
			logger.Error(ErrNoNotFoundHandler),
		)
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		r.observe(req.Method, NotFoundKey, rw.Status(), time.Since(start))
		return
	}

	d := &dispatcher{
		router: r,
		w:      rw,
		ctx:    ctx,
		route:  m.route,
		params: m.params,
	}
	d.run()

	status := rw.Status()
	if !rw.Written() {
		status = http.StatusOK
		if d.state == stateAborted {
			status = statusClientClosed
		}
	}
	r.observe(req.Method, m.route.template, status, time.Since(start))
}

// dispatcher runs one request through its chain. Every path through run
// ends in stateDone or stateAborted, and at most one response is written.
type dispatcher struct {
	router *Router
	w      *responseWriter
	ctx    *handler.Context
	route  *route
	params []map[string]string

	state  state
	index  int
	result any
	err    error
}

func (d *dispatcher) run() {
	d.state = stateStart
	for {
		switch d.state {
		case stateStart:
			d.start()
		case stateFiltering:
			d.filter()
		case stateInvoking:
			d.invoke()
		case stateNegotiating:
			d.negotiate()
		case stateWebSocket:
			d.upgrade()
		case stateError:
			d.fail()
		case stateDone, stateAborted:
			return
		}
	}
}

func (d *dispatcher) start() {
	d.ctx.QueryValues()
	d.ctx.SetChainParams(d.params)
	d.index = 0
	if d.route.terminal() == 0 {
		d.state = stateInvoking
		return
	}
	d.state = stateFiltering
}

// filter runs the filter at d.index. Only a true result lets the chain
// continue; anything else is the response.
func (d *dispatcher) filter() {
	result, ok := d.step()
	if !ok {
		return
	}
	if pass, isBool := result.(bool); isBool && pass {
		d.index++
		if d.index == d.route.terminal() {
			d.state = stateInvoking
		}
		return
	}
	d.result = result
	d.state = stateNegotiating
}

func (d *dispatcher) invoke() {
	result, ok := d.step()
	if !ok {
		return
	}
	d.result = result
	d.state = stateNegotiating
}

// step checks the entry's consumed types, resolves its arguments, calls it
// and persists the session. It reports false after moving to stateError
// or stateAborted.
func (d *dispatcher) step() (any, bool) {
	if d.ctx.Err() != nil {
		d.state = stateAborted
		return nil, false
	}

	entry := d.route.chain[d.index]
	d.ctx.SetIndex(d.index)

	if err := d.checkConsumes(entry); err != nil {
		d.err = err
		d.state = stateError
		return nil, false
	}

	result, err := d.call(entry)
	d.persistSession()

	if err != nil {
		if d.ctx.Err() != nil {
			d.state = stateAborted
			return nil, false
		}
		d.err = err
		d.state = stateError
		return nil, false
	}
	return result, true
}

func (d *dispatcher) checkConsumes(e handler.Entry) error {
	if len(e.Consumes) == 0 {
		return nil
	}
	provided := d.ctx.ContentType()
	for _, ct := range e.Consumes {
		if strings.EqualFold(ct, provided) {
			return nil
		}
	}
	return fmt.Errorf("%w: bad request on '%s %s', can only consume Content-Type '%s'; provided '%s'",
		handler.ErrContentTypeRejected,
		d.route.method, d.route.template,
		strings.Join(e.Consumes, "', '"),
		provided,
	)
}

// call resolves the entry's arguments and invokes it. A panic is returned
// as a PanicError.
func (d *dispatcher) call(e handler.Entry) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()

	args, err := d.router.resolver.Resolve(d.ctx, e.Params)
	if err != nil {
		return nil, err
	}
	return e.Func(d.ctx, args)
}

// persistSession writes back the session named by the session cookie,
// whether the cookie was issued during this request or sent with it.
func (d *dispatcher) persistSession() {
	store := d.router.sessions
	if store == nil {
		return
	}
	id, ok := d.ctx.Cookie(session.CookieName)
	if !ok || id == "" {
		return
	}
	err := store.Persist(d.ctx, id)
	if err == nil || errors.Is(err, session.ErrNotStarted) || errors.Is(err, session.ErrExpired) {
		return
	}
	d.router.logger.WarnContext(d.ctx, "session persist failed",
		logger.Component("router"),
		logger.Route(d.route.template),
		logger.Error(err),
	)
}

// negotiate turns the chain's result into a response.
func (d *dispatcher) negotiate() {
	d.state = stateDone

	switch v := d.result.(type) {
	case response.WebSocketHandler:
		d.state = stateWebSocket
		return

	case *response.Response:
		if v == nil {
			d.write(d.valueResponse(nil))
			return
		}
		d.write(v)

	case http.Handler:
		d.applyContext(d.w.Header())
		req := d.ctx.Request()
		for name, value := range d.params[d.index] {
			req.SetPathValue(name, value)
		}
		v.ServeHTTP(d.w, req)

	default:
		d.write(d.valueResponse(v))
	}
}

// valueResponse wraps a bare result using the status set on the context
// and the content type negotiated against the current entry's Produces.
func (d *dispatcher) valueResponse(v any) *response.Response {
	resp := response.New(d.ctx.Status(), v)
	if v != nil {
		resp.Header.Set("Content-Type", d.negotiatedType())
	}
	return resp
}

func (d *dispatcher) negotiatedType() string {
	produces := d.route.chain[d.index].Produces
	return response.Negotiate(d.ctx.Request().Header.Get("Accept"), produces)
}

// applyContext copies headers and cookies set during the chain into h,
// keeping the values h already has.
func (d *dispatcher) applyContext(h http.Header) {
	for key, values := range d.ctx.Header() {
		if _, exists := h[key]; !exists {
			h[key] = append([]string(nil), values...)
		}
	}
	for _, c := range d.ctx.Cookies() {
		addCookie(h, c)
	}
}

// write emits resp. Headers and cookies set earlier in the chain are merged
// in without overriding resp's own. Nothing reaches the client until the
// body is ready, so encoding failures can still become a 500.
func (d *dispatcher) write(resp *response.Response) {
	header := make(http.Header, len(resp.Header)+1)
	for key, values := range resp.Header {
		header[key] = append([]string(nil), values...)
	}
	for key, values := range d.ctx.Header() {
		if _, exists := resp.Header[key]; !exists {
			header[key] = append([]string(nil), values...)
		}
	}
	own := make(map[string]bool, len(resp.Cookies))
	for _, c := range resp.Cookies {
		own[c.Name] = true
		addCookie(header, c)
	}
	for _, c := range d.ctx.Cookies() {
		if !own[c.Name] {
			addCookie(header, c)
		}
	}

	status := resp.Status
	if status == 0 {
		status = d.ctx.Status()
	}
	if status == 0 {
		status = http.StatusOK
	}

	switch body := resp.Body.(type) {
	case nil:
		d.commit(header, status)

	case []byte:
		d.writeBytes(header, status, body)

	case string:
		d.writeBytes(header, status, []byte(body))

	case iter.Seq2[[]byte, error]:
		d.stream(header, status, body)

	case io.Reader:
		if c, ok := body.(io.Closer); ok {
			defer func() { _ = c.Close() }()
		}
		d.commit(header, status)
		if _, err := io.Copy(d.w, body); err != nil && d.ctx.Err() == nil {
			d.logWriteError(err)
		}

	default:
		ct := header.Get("Content-Type")
		if ct == "" {
			ct = d.negotiatedType()
			header.Set("Content-Type", ct)
		}
		data, err := response.Transform(ct, body)
		if err != nil {
			d.err = fmt.Errorf("encode %s response: %w", ct, err)
			d.state = stateError
			return
		}
		d.writeBytes(header, status, data)
	}
}

func addCookie(h http.Header, c *http.Cookie) {
	if v := c.String(); v != "" {
		h.Add("Set-Cookie", v)
	}
}

// commit copies header onto the response and writes the status line.
func (d *dispatcher) commit(header http.Header, status int) {
	dst := d.w.Header()
	for key, values := range header {
		dst[key] = values
	}
	d.w.WriteHeader(status)
}

func (d *dispatcher) writeBytes(header http.Header, status int, data []byte) {
	if header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(data)))
	}
	d.commit(header, status)
	if _, err := d.w.Write(data); err != nil && d.ctx.Err() == nil {
		d.logWriteError(err)
	}
}

// stream writes chunks as they are produced, flushing after each one. The
// first chunk is pulled before the status line so a source that fails to
// open still yields a 500.
func (d *dispatcher) stream(header http.Header, status int, seq iter.Seq2[[]byte, error]) {
	next, stop := iter.Pull2(seq)
	defer stop()

	chunk, err, ok := next()
	if ok && err != nil {
		if d.ctx.Err() != nil {
			d.state = stateAborted
			return
		}
		d.err = err
		d.state = stateError
		return
	}

	d.commit(header, status)
	for ok {
		if _, werr := d.w.Write(chunk); werr != nil {
			if d.ctx.Err() == nil {
				d.logWriteError(werr)
			}
			return
		}
		d.w.Flush()

		chunk, err, ok = next()
		if ok && err != nil {
			if d.ctx.Err() == nil {
				d.router.logger.ErrorContext(d.ctx, "response stream failed",
					logger.Component("router"),
					logger.Route(d.route.template),
					logger.Error(err),
				)
			}
			return
		}
	}
}

func (d *dispatcher) logWriteError(err error) {
	d.router.logger.DebugContext(d.ctx, "response write failed",
		logger.Component("router"),
		logger.Route(d.route.template),
		logger.Error(err),
	)
}

// upgrade hands the connection to the WebSocket gateway. Headers and
// cookies set during the chain are sent with the 101 response.
func (d *dispatcher) upgrade() {
	d.state = stateDone
	h := d.result.(response.WebSocketHandler)

	header := make(http.Header)
	d.applyContext(header)
	if err := d.router.gateway.Serve(d.w, d.ctx.Request(), h, header); err != nil {
		d.router.logger.WarnContext(d.ctx, "websocket handshake failed",
			logger.Component("router"),
			logger.Route(d.route.template),
			logger.Error(err),
		)
	}
}

// fail answers d.err. Errors carrying a status code are deliberate and
// keep their message. Content-type and parameter errors become 400, an
// oversized body 413, and everything else 500, always logged. Message
// and stack reach the client only when the config allows it.
func (d *dispatcher) fail() {
	d.state = stateDone
	err := d.err

	if d.w.Written() {
		d.router.logger.ErrorContext(d.ctx, "handler failed after response started",
			logger.Component("router"),
			logger.Method(d.route.method),
			logger.Route(d.route.template),
			logger.Error(err),
		)
		return
	}

	var sc statusCode
	var pe PanicError
	switch {
	case errors.As(err, &sc) && !errors.As(err, &pe):
		status := sc.StatusCode()
		if status >= http.StatusInternalServerError {
			d.logFault(err, nil)
		}
		d.writeError(status, err.Error())

	case errors.Is(err, handler.ErrContentTypeRejected), errors.Is(err, handler.ErrInvalidParam):
		d.router.logger.InfoContext(d.ctx, "request rejected",
			logger.Component("router"),
			logger.Method(d.route.method),
			logger.Route(d.route.template),
			logger.Error(err),
		)
		d.writeError(http.StatusBadRequest, d.detail(err, nil))

	case errors.Is(err, handler.ErrBodyTooLarge):
		d.writeError(http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))

	default:
		var stack []byte
		if errors.As(err, &pe) {
			stack = pe.Stack()
		}
		d.logFault(err, stack)
		d.writeError(http.StatusInternalServerError, d.detail(err, stack))
	}
}

// detail is the client-visible body for err under the current config.
func (d *dispatcher) detail(err error, stack []byte) string {
	cfg := d.router.config
	if !cfg.ShowExceptions {
		return ""
	}
	msg := err.Error()
	if cfg.ShowStackTrace && len(stack) > 0 {
		msg += "\n\n" + string(stack)
	}
	return msg
}

func (d *dispatcher) logFault(err error, stack []byte) {
	d.router.logger.ErrorContext(d.ctx, "handler failed",
		logger.Component("router"),
		logger.Method(d.route.method),
		logger.Route(d.route.template),
		logger.Key("index", d.index),
		logger.Error(err),
		logger.StackTrace(stack),
	)
}

// writeError answers with a plain text body. Only the cookies set during
// the chain are kept, so a freshly issued session id still reaches the client.
func (d *dispatcher) writeError(status int, body string) {
	header := make(http.Header)
	for _, c := range d.ctx.Cookies() {
		addCookie(header, c)
	}
	if body == "" {
		d.commit(header, status)
		return
	}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("X-Content-Type-Options", "nosniff")
	d.writeBytes(header, status, []byte(body))
}
