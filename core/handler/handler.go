package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrymomot/chainmux/core/pattern"
	"github.com/dmitrymomot/chainmux/core/session"
)

var (
	// ErrContentTypeRejected is returned when the request body cannot be
	// consumed under its declared Content-Type.
	ErrContentTypeRejected = errors.New("content type rejected")
	// ErrInvalidParam is returned when a parameter value cannot be converted
	// to its declared type.
	ErrInvalidParam = errors.New("invalid parameter")
)

// Func handles one step of a chain. Filters return true to let the chain
// continue; any other value ends the chain and becomes the response.
type Func func(ctx *Context, args Args) (any, error)

// Entry is a single callable in a route chain with its declared parameters
// and content types.
type Entry struct {
	Name     string
	Func     Func
	Params   []Param
	Consumes []string
	Produces []string
}

// New creates an entry for fn with the given parameters.
func New(name string, fn Func, params ...Param) Entry {
	return Entry{Name: name, Func: fn, Params: params}
}

// Consuming returns a copy of e that only accepts requests with one of the
// given Content-Types.
func (e Entry) Consuming(types ...string) Entry {
	e.Consumes = types
	return e
}

// Producing returns a copy of e that can answer with the given content
// types, in order of preference.
func (e Entry) Producing(types ...string) Entry {
	e.Produces = types
	return e
}

// PathParams returns the declared path parameters in pattern form.
func (e Entry) PathParams() []pattern.Param {
	var out []pattern.Param
	for _, p := range e.Params {
		if p.Source == SourcePath {
			out = append(out, pattern.Param{Name: p.Name, Type: p.Type, Regex: p.Regex})
		}
	}
	return out
}

// Resolver binds an entry's declared parameters to request values.
// Implementations return an error wrapping ErrContentTypeRejected when a
// body parameter cannot be decoded under the request's content type.
type Resolver interface {
	Resolve(ctx *Context, params []Param) (Args, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx *Context, params []Param) (Args, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx *Context, params []Param) (Args, error) {
	return f(ctx, params)
}

// SessionStore is the session collaborator used by the resolver and the
// dispatch pipeline.
type SessionStore interface {
	Persist(ctx context.Context, id string) error
	Validate(ctx context.Context, id string) (*session.Session, bool, error)
	Start(ctx context.Context, id string) (*session.Session, error)
}

// Args holds resolved parameter values by name.
type Args map[string]any

// Has reports whether name was resolved.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Value returns the raw resolved value.
func (a Args) Value(name string) any {
	return a[name]
}

// String returns the value as a string.
func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns the value as an int64, or 0.
func (a Args) Int(name string) int64 {
	v, _ := a[name].(int64)
	return v
}

// Float returns the value as a float64, or 0.
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Bool returns the value as a bool, or false.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// Session returns a session parameter, or nil.
func (a Args) Session(name string) *session.Session {
	v, _ := a[name].(*session.Session)
	return v
}
