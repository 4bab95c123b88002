package middleware_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/response"
	"github.com/dmitrymomot/chainmux/core/router"
	"github.com/dmitrymomot/chainmux/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     middleware.SecurityHeadersConfig
		want    map[string]string
		missing []string
	}{
		{
			name: "balanced",
			cfg:  middleware.BalancedSecurity,
			want: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "SAMEORIGIN",
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
				"Referrer-Policy":           "strict-origin-when-cross-origin",
			},
		},
		{
			name: "strict",
			cfg:  middleware.StrictSecurity,
			want: map[string]string{
				"X-Frame-Options":              "DENY",
				"Referrer-Policy":              "no-referrer",
				"Cross-Origin-Resource-Policy": "same-origin",
			},
		},
		{
			name:    "development drops hsts",
			cfg:     middleware.DevelopmentSecurity,
			want:    map[string]string{"X-Content-Type-Options": "nosniff"},
			missing: []string{"Strict-Transport-Security", "X-Frame-Options", "Content-Security-Policy"},
		},
		{
			name: "custom headers override",
			cfg: middleware.SecurityHeadersConfig{
				FrameOptions:  "DENY",
				CustomHeaders: map[string]string{"X-Frame-Options": "SAMEORIGIN", "X-Custom": "1"},
			},
			want: map[string]string{"X-Frame-Options": "SAMEORIGIN", "X-Custom": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := router.New()
			r.Get("/", middleware.SecurityHeaders(tt.cfg), ok())

			w := serve(r, "/")
			assert.Equal(t, http.StatusOK, w.Code)
			for k, v := range tt.want {
				assert.Equal(t, v, w.Header().Get(k), k)
			}
			for _, k := range tt.missing {
				assert.Empty(t, w.Header().Get(k), k)
			}
		})
	}
}

func TestSecurityHeaders_ShortCircuitResponse(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/",
		middleware.SecurityHeaders(middleware.StrictSecurity),
		handler.New("deny", func(*handler.Context, handler.Args) (any, error) {
			return response.Text(http.StatusForbidden, "no"), nil
		}),
	)

	w := serve(r, "/")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
