package binder

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/pattern"
	"github.com/dmitrymomot/chainmux/core/session"
)

// Resolver is the default handler.Resolver. It binds path, query, header,
// cookie, body and session parameters according to their declared source.
type Resolver struct {
	sessions handler.SessionStore
	cookie   func(id string) *http.Cookie
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSessionStore enables session and session-id parameters.
func WithSessionStore(s handler.SessionStore) Option {
	return func(r *Resolver) {
		r.sessions = s
	}
}

// WithSessionCookie overrides how the session cookie is built when a new
// session id is issued.
func WithSessionCookie(fn func(id string) *http.Cookie) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.cookie = fn
		}
	}
}

// New creates a resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{cookie: defaultSessionCookie}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultSessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Resolve returns the values for params. Optional sources (query, header,
// cookie) are left out of the result when absent from the request.
func (r *Resolver) Resolve(ctx *handler.Context, params []handler.Param) (handler.Args, error) {
	args := make(handler.Args, len(params))
	for _, p := range params {
		v, ok, err := r.resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		if ok {
			args[p.Name] = v
		}
	}
	return args, nil
}

func (r *Resolver) resolve(ctx *handler.Context, p handler.Param) (any, bool, error) {
	req := ctx.Request()

	switch p.Source {
	case handler.SourcePath:
		v, err := convert(p.Name, ctx.Param(p.Name), p.Type)
		return v, err == nil, err

	case handler.SourceQuery:
		raw, ok := ctx.Query(p.Name)
		if !ok {
			return nil, false, nil
		}
		// "?debug" binds true to bool params and "" to string params.
		if ctx.QueryFlag(p.Name) && p.Type == pattern.Bool {
			return true, true, nil
		}
		v, err := convert(p.Name, raw, p.Type)
		return v, err == nil, err

	case handler.SourceHeader:
		values := req.Header.Values(p.Name)
		if len(values) == 0 {
			return nil, false, nil
		}
		v, err := convert(p.Name, values[0], p.Type)
		return v, err == nil, err

	case handler.SourceCookie:
		c, err := req.Cookie(p.Name)
		if err != nil {
			return nil, false, nil
		}
		v, err := convert(p.Name, c.Value, p.Type)
		return v, err == nil, err

	case handler.SourceBody:
		v, err := decodeBody(ctx, p)
		return v, err == nil, err

	case handler.SourceSession:
		if r.sessions == nil {
			return nil, false, ErrNoSessionStore
		}
		id, _ := ctx.Cookie(session.CookieName)
		sess, err := r.sessions.Start(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("start session: %w", err)
		}
		if sess.ID != id {
			ctx.SetCookie(r.cookie(sess.ID))
		}
		ctx.SetSession(sess)
		return sess, true, nil

	case handler.SourceSessionID:
		id, ok := ctx.Cookie(session.CookieName)
		return id, ok, nil

	default:
		return nil, false, fmt.Errorf("%w: %s has unknown source %s", handler.ErrInvalidParam, p.Name, p.Source)
	}
}
