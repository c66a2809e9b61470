package router

import (
	"net"
	"net/http"
	"strings"
)

// Headers consulted for the client address when the service sits
// behind a proxy, in priority order.
var clientIPHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	for _, name := range clientIPHeaders {
		v := r.Header.Get(name)
		if v == "" {
			continue
		}
		// X-Forwarded-For may carry a chain; the first hop is the client.
		v, _, _ = strings.Cut(v, ",")
		v = strings.TrimSpace(v)
		if net.ParseIP(v) != nil {
			return v
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || net.ParseIP(host) == nil {
		return ""
	}

	return host
}
