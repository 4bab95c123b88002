package middleware

import (
	"maps"
	"slices"

	"github.com/dmitrymomot/chainmux/core/handler"
)

// SecurityHeadersConfig lists security headers to send. Empty fields are
// not sent.
type SecurityHeadersConfig struct {
	ContentTypeOptions        string
	FrameOptions              string
	StrictTransportSecurity   string
	ContentSecurityPolicy     string
	ReferrerPolicy            string
	PermissionsPolicy         string
	CrossOriginOpenerPolicy   string
	CrossOriginResourcePolicy string

	// CustomHeaders are sent as given and win over the fields above.
	CustomHeaders map[string]string

	// IsDevelopment drops Strict-Transport-Security.
	IsDevelopment bool
}

var (
	// StrictSecurity blocks framing and every resource not served by the site itself.
	StrictSecurity = SecurityHeadersConfig{
		ContentTypeOptions:        "nosniff",
		FrameOptions:              "DENY",
		StrictTransportSecurity:   "max-age=63072000; includeSubDomains; preload",
		ContentSecurityPolicy:     "default-src 'none'; script-src 'self'; style-src 'self'; img-src 'self'; font-src 'self'; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		ReferrerPolicy:            "no-referrer",
		PermissionsPolicy:         "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
	}

	// BalancedSecurity suits most web applications.
	BalancedSecurity = SecurityHeadersConfig{
		ContentTypeOptions:        "nosniff",
		FrameOptions:              "SAMEORIGIN",
		StrictTransportSecurity:   "max-age=31536000; includeSubDomains",
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		PermissionsPolicy:         "geolocation=(), microphone=(), camera=()",
		CrossOriginOpenerPolicy:   "same-origin-allow-popups",
		CrossOriginResourcePolicy: "cross-origin",
	}

	// DevelopmentSecurity is for local development only.
	DevelopmentSecurity = SecurityHeadersConfig{
		ContentTypeOptions: "nosniff",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      true,
	}
)

// Headers returns the header set cfg describes.
func (cfg SecurityHeadersConfig) Headers() map[string]string {
	h := map[string]string{
		"X-Content-Type-Options":       cfg.ContentTypeOptions,
		"X-Frame-Options":              cfg.FrameOptions,
		"Content-Security-Policy":      cfg.ContentSecurityPolicy,
		"Referrer-Policy":              cfg.ReferrerPolicy,
		"Permissions-Policy":           cfg.PermissionsPolicy,
		"Cross-Origin-Opener-Policy":   cfg.CrossOriginOpenerPolicy,
		"Cross-Origin-Resource-Policy": cfg.CrossOriginResourcePolicy,
	}
	if !cfg.IsDevelopment {
		h["Strict-Transport-Security"] = cfg.StrictTransportSecurity
	}
	maps.Copy(h, cfg.CustomHeaders)
	maps.DeleteFunc(h, func(_, v string) bool { return v == "" })
	return h
}

// SecurityHeaders sets the headers of cfg on the chain's response.
func SecurityHeaders(cfg SecurityHeadersConfig) handler.Entry {
	headers := cfg.Headers()
	names := slices.Sorted(maps.Keys(headers))
	return handler.New("security_headers", func(ctx *handler.Context, _ handler.Args) (any, error) {
		for _, name := range names {
			ctx.Header().Set(name, headers[name])
		}
		return true, nil
	})
}
