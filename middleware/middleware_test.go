package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/dmitrymomot/chainmux/core/handler"
)

func ok() handler.Entry {
	return handler.New("ok", func(*handler.Context, handler.Args) (any, error) {
		return "ok", nil
	})
}

func serve(h http.Handler, target string, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, mod := range mods {
		mod(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
