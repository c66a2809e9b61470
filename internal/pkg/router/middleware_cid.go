package router

import (
	"net/http"
	"strings"

	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is the canonical header used to track requests end-to-end.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is an accepted alternative header name used by some proxies.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// middlewareCorrelationID fixes a correlation id for the request: the
// first usable inbound header wins, otherwise a fresh id is minted.
// The id is echoed back on the response and stored on the context for
// logging and tracing.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := correlationIDFrom(r)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func correlationIDFrom(r *http.Request) string {
	for _, name := range []string{HeaderCorrelationID, HeaderRequestID} {
		if cid := sanitizeCID(r.Header.Get(name)); cid != "" {
			return cid
		}
	}
	return ""
}

// sanitizeCID rejects header-injection attempts and caps the length of
// caller-supplied ids.
func sanitizeCID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}
