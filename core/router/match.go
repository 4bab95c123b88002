package router

import (
	"slices"

	"github.com/dmitrymomot/chainmux/core/pattern"
)

// match is a route selected for a request with the path parameters
// extracted for each chain position.
type match struct {
	route  *route
	params []map[string]string
}

// match finds the route for method and path. Among templates that match,
// the one capturing the fewest parameters wins and registration order
// breaks ties. A template without parameters wins as soon as it matches.
func (r *Router) match(method, path string) (*match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *match
	bestN := -1
	for _, rt := range r.routes[method] {
		if rt.reserved() {
			continue
		}
		params, ok := r.matchRoute(rt, path)
		if !ok {
			continue
		}
		n := len(params[rt.terminal()])
		if n == 0 {
			return &match{route: rt, params: params}, true
		}
		if best == nil || n < bestN {
			best = &match{route: rt, params: params}
			bestN = n
		}
	}
	return best, best != nil
}

// matchRoute runs every chain position's matcher. All of them must agree
// for the route to match.
func (r *Router) matchRoute(rt *route, path string) ([]map[string]string, bool) {
	params := make([]map[string]string, len(rt.chain))
	for i := range rt.chain {
		key := pattern.Key{Method: rt.method, Template: rt.template, Index: i}
		matcher := r.cache.Get(key, func() pattern.Matcher {
			return pattern.MustCompile(rt.template, rt.params[i]).Matcher()
		})
		ok, p := matcher(path)
		if !ok {
			return nil, false
		}
		params[i] = p
	}
	return params, true
}

// fallback returns the NotFoundKey chain for method, or for the first of
// Methods that has one.
func (r *Router) fallback(method string) (*match, bool) {
	candidates := append([]string{method}, slices.DeleteFunc(slices.Clone(Methods), func(m string) bool { return m == method })...)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range candidates {
		for _, rt := range r.routes[m] {
			if rt.template != NotFoundKey {
				continue
			}
			params := make([]map[string]string, len(rt.chain))
			for i := range params {
				params[i] = map[string]string{}
			}
			return &match{route: rt, params: params}, true
		}
	}
	return nil, false
}
