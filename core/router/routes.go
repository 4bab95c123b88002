package router

import (
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/logger"
	"github.com/dmitrymomot/chainmux/core/pattern"
)

// route is one registered chain. Every entry but the last is a filter.
type route struct {
	method   string
	template string
	chain    []handler.Entry
	// params holds the path parameters each chain position is compiled with.
	params [][]pattern.Param
	seq    int
}

func (rt *route) reserved() bool {
	return isReserved(rt.template)
}

func (rt *route) terminal() int {
	return len(rt.chain) - 1
}

func isReserved(template string) bool {
	return strings.HasPrefix(template, "@")
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method   string
	Template string
	Chain    []string
	Consumes []string
	Produces []string
}

// Register adds a chain for method and template. All entries but the last
// run as filters. Registration problems are configuration errors: Register
// logs them and panics with an error wrapping ErrInvalidRoute or
// ErrRouteConflict. Reserved templates ("@404") are overwritten with a
// warning instead.
func (r *Router) Register(method, template string, chain ...handler.Entry) {
	rt, err := newRoute(method, template, chain)
	if err != nil {
		r.logger.Error("invalid route",
			logger.Component("router"),
			logger.Method(method),
			logger.Route(template),
			logger.Error(err),
		)
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	routes := r.routes[rt.method]
	for i, existing := range routes {
		if existing.template != rt.template {
			continue
		}
		if !rt.reserved() {
			err := fmt.Errorf("%w: %s %s", ErrRouteConflict, rt.method, rt.template)
			r.logger.Error("route conflict",
				logger.Component("router"),
				logger.Method(rt.method),
				logger.Route(rt.template),
			)
			panic(err)
		}
		r.logger.Warn("overwriting reserved route",
			logger.Component("router"),
			logger.Method(rt.method),
			logger.Route(rt.template),
		)
		for idx := range existing.chain {
			r.cache.Delete(pattern.Key{Method: rt.method, Template: rt.template, Index: idx})
		}
		rt.seq = existing.seq
		routes[i] = rt
		return
	}

	r.seq++
	rt.seq = r.seq
	r.routes[rt.method] = append(routes, rt)
}

func newRoute(method, template string, chain []handler.Entry) (*route, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	switch {
	case method == "":
		return nil, fmt.Errorf("%w: empty method", ErrInvalidRoute)
	case len(chain) == 0:
		return nil, fmt.Errorf("%w: %s %s has an empty chain", ErrInvalidRoute, method, template)
	case !strings.HasPrefix(template, "/") && !isReserved(template):
		return nil, fmt.Errorf("%w: template %q must start with '/'", ErrInvalidRoute, template)
	}
	for i, e := range chain {
		if e.Func == nil {
			return nil, fmt.Errorf("%w: %s %s has no function at index %d", ErrInvalidRoute, method, template, i)
		}
	}

	params, err := chainParams(template, chain)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrInvalidRoute, method, template, err)
	}

	return &route{
		method:   method,
		template: template,
		chain:    slices.Clone(chain),
		params:   params,
	}, nil
}

// chainParams resolves and validates the path parameters of every chain
// position. The terminal entry must declare every placeholder. Filters may
// leave placeholders undeclared; those inherit the terminal declaration, so
// a filter never rejects a path the terminal entry accepts.
func chainParams(template string, chain []handler.Entry) ([][]pattern.Param, error) {
	_, names, err := pattern.Split(template)
	if err != nil {
		return nil, err
	}

	last := len(chain) - 1
	terminal := chain[last].PathParams()
	out := make([][]pattern.Param, len(chain))
	for i, e := range chain {
		params := e.PathParams()
		if i < last {
			for _, name := range names {
				if slices.ContainsFunc(params, func(p pattern.Param) bool { return p.Name == name }) {
					continue
				}
				inherited := pattern.Param{Name: name, Type: pattern.String}
				if j := slices.IndexFunc(terminal, func(p pattern.Param) bool { return p.Name == name }); j >= 0 {
					inherited = terminal[j]
				}
				params = append(params, inherited)
			}
		}
		if _, err := pattern.Compile(template, params); err != nil {
			return nil, fmt.Errorf("chain index %d: %w", i, err)
		}
		out[i] = params
	}
	return out, nil
}

// Handle registers a plain http.Handler. Path placeholders bind as strings
// and are available through the request's PathValue.
func (r *Router) Handle(method, template string, h http.Handler) {
	var declared []handler.Param
	if _, names, err := pattern.Split(template); err == nil {
		for _, name := range names {
			declared = append(declared, handler.Path(name, pattern.String))
		}
	}
	r.Register(method, template, handler.New(fmt.Sprintf("%T", h), func(*handler.Context, handler.Args) (any, error) {
		return h, nil
	}, declared...))
}

func (r *Router) Get(template string, chain ...handler.Entry) {
	r.Register("GET", template, chain...)
}

func (r *Router) Head(template string, chain ...handler.Entry) {
	r.Register("HEAD", template, chain...)
}

func (r *Router) Post(template string, chain ...handler.Entry) {
	r.Register("POST", template, chain...)
}

func (r *Router) Put(template string, chain ...handler.Entry) {
	r.Register("PUT", template, chain...)
}

func (r *Router) Patch(template string, chain ...handler.Entry) {
	r.Register("PATCH", template, chain...)
}

func (r *Router) Delete(template string, chain ...handler.Entry) {
	r.Register("DELETE", template, chain...)
}

func (r *Router) Options(template string, chain ...handler.Entry) {
	r.Register("OPTIONS", template, chain...)
}

// NotFound registers the chain served when nothing matches, for every
// method in Methods.
func (r *Router) NotFound(chain ...handler.Entry) {
	for _, m := range Methods {
		r.Register(m, NotFoundKey, chain...)
	}
}

// Alias registers the chain of an existing route under another template.
// It panics with ErrRouteNotFound when the original is not registered.
func (r *Router) Alias(method, original, alias string) {
	chain, ok := r.Lookup(method, original)
	if !ok {
		panic(fmt.Errorf("%w: %s %s", ErrRouteNotFound, method, original))
	}
	r.Register(method, alias, chain...)
}

// Lookup returns the chain registered for method and template.
func (r *Router) Lookup(method, template string) ([]handler.Entry, bool) {
	rt := r.find(method, template)
	if rt == nil {
		return nil, false
	}
	return slices.Clone(rt.chain), true
}

// FindConsumed returns the Content-Types accepted by the chain entry at index.
func (r *Router) FindConsumed(method, template string, index int) ([]string, bool) {
	rt := r.find(method, template)
	if rt == nil || index < 0 || index >= len(rt.chain) {
		return nil, false
	}
	return slices.Clone(rt.chain[index].Consumes), true
}

// FindProduced returns the content types the chain entry at index can answer with.
func (r *Router) FindProduced(method, template string, index int) ([]string, bool) {
	rt := r.find(method, template)
	if rt == nil || index < 0 || index >= len(rt.chain) {
		return nil, false
	}
	return slices.Clone(rt.chain[index].Produces), true
}

func (r *Router) find(method, template string) *route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.routes[strings.ToUpper(method)] {
		if rt.template == template {
			return rt
		}
	}
	return nil
}

// ClearAll removes every route and drops every cached matcher.
func (r *Router) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = make(map[string][]*route)
	r.cache.Clear()
}

// Routes lists the registered routes ordered by template then method.
// Reserved routes are included.
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	var out []RouteInfo
	for _, routes := range r.routes {
		for _, rt := range routes {
			info := RouteInfo{Method: rt.method, Template: rt.template}
			for i, e := range rt.chain {
				info.Chain = append(info.Chain, entryName(e, i))
			}
			terminal := rt.chain[rt.terminal()]
			info.Consumes = slices.Clone(terminal.Consumes)
			info.Produces = slices.Clone(terminal.Produces)
			out = append(out, info)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Template != out[j].Template {
			return out[i].Template < out[j].Template
		}
		return out[i].Method < out[j].Method
	})
	return out
}
