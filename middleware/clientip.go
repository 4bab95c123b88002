package middleware

import (
	"net"
	"net/http"
	"strings"
)

// proxy headers checked before RemoteAddr, most specific first
var clientIPHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// ClientIP returns the address of the client that sent r. Proxy headers
// win over RemoteAddr; for X-Forwarded-For the leftmost address is used.
// Invalid and unspecified addresses are skipped.
func ClientIP(r *http.Request) string {
	for _, name := range clientIPHeaders {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		if name == "X-Forwarded-For" {
			value, _, _ = strings.Cut(value, ",")
		}
		if ip := parseIP(value); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := parseIP(host); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
