package router

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/otterhq/otter/internal/pkg/config"
)

const maskedPlaceholder = "***"

// maskSet holds lowercase field and header names whose values must not
// reach the logs.
type maskSet map[string]struct{}

func newMaskSet(cfg config.Config) maskSet {
	set := make(maskSet)
	if cfg == nil {
		return set
	}

	for _, field := range cfg.GetArray("instrument.log_mask_fields") {
		if field = strings.TrimSpace(strings.ToLower(field)); field != "" {
			set[field] = struct{}{}
		}
	}

	return set
}

func (m maskSet) hides(key string) bool {
	_, found := m[strings.ToLower(key)]
	return found
}

func (m maskSet) headers(headers http.Header) http.Header {
	if len(m) == 0 {
		return headers
	}

	out := headers.Clone()
	for key := range out {
		if m.hides(key) {
			out.Set(key, maskedPlaceholder)
		}
	}

	return out
}

// value walks decoded JSON and replaces the values of hidden keys,
// recursing through nested objects and arrays.
func (m maskSet) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.hides(k) {
				out[k] = maskedPlaceholder
				continue
			}
			out[k] = m.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.value(inner)
		}
		return out
	default:
		return v
	}
}

// body renders a request or response body for logging: JSON and form
// payloads are decoded and masked, other text is passed through, and
// binary data is replaced with a marker.
func (m maskSet) body(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return m.value(decoded)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			return m.form(values)
		}
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "...(truncated)"
	}

	return string(body)
}

func (m maskSet) form(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch {
		case m.hides(k):
			out[k] = maskedPlaceholder
		case len(v) == 1:
			out[k] = v[0]
		default:
			out[k] = v
		}
	}

	return out
}
