package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// initLogging installs the process-wide slog default: JSON to stdout, an
// OTLP bridge when a logger provider is present, and redaction of the
// configured field names at every nesting level.
func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameStandardKeys,
	})

	handlers := []slog.Handler{stdout}
	if lp != nil {
		handlers = append(handlers, otelslog.NewHandler(
			serviceName,
			otelslog.WithLoggerProvider(lp),
		))
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = &fanoutHandler{handlers: handlers}
	}

	slog.SetDefault(slog.New(&serviceHandler{
		Handler: &redactHandler{handler: handler, keys: redactionKeys(maskFields)},
		name:    serviceName,
	}))
}

// renameStandardKeys maps slog's default keys onto the house conventions
// and trims source paths to the repo-relative form.
func renameStandardKeys(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		if !strings.Contains(src.File, "/internal/") {
			return slog.Attr{}
		}
		rel := filepath.Join("internal", strings.SplitAfter(src.File, "/internal/")[1])
		return slog.String("file", fmt.Sprintf("%s:%d", rel, src.Line))
	}
	return a
}

// serviceHandler stamps every record with the service name and, when the
// context carries one, the request correlation id.
type serviceHandler struct {
	slog.Handler
	name string
}

func (h *serviceHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.name))

	return h.Handler.Handle(ctx, r)
}

// fanoutHandler delivers each record to every wrapped handler that accepts
// its level, returning the first failure.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		next = append(next, h.WithAttrs(attrs))
	}
	return &fanoutHandler{handlers: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		next = append(next, h.WithGroup(name))
	}
	return &fanoutHandler{handlers: next}
}

// redactHandler replaces the values of sensitive attributes with "***".
// Secrets, raw codes and device tokens must never reach a log sink, so the
// redaction also descends into groups and JSON-shaped string payloads.
type redactHandler struct {
	handler slog.Handler
	keys    map[string]struct{}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.keys) == 0 {
		return h.handler.Handle(ctx, record)
	}

	redacted := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(attr))
		return true
	})

	return h.handler.Handle(ctx, redacted)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactHandler{handler: h.handler.WithAttrs(attrs), keys: h.keys}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{handler: h.handler.WithGroup(name), keys: h.keys}
}

func (h *redactHandler) redactAttr(attr slog.Attr) slog.Attr {
	if _, found := h.keys[strings.ToLower(attr.Key)]; found {
		return slog.String(attr.Key, "***")
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		redacted := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			redacted = append(redacted, h.redactAttr(ga))
		}
		attr.Value = slog.GroupValue(redacted...)
	case slog.KindString:
		if out, ok := h.redactJSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(out)
		}
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any:
			attr.Value = slog.AnyValue(h.redactValue(v))
		case map[string]string:
			converted := make(map[string]any, len(v))
			for k, s := range v {
				converted[k] = s
			}
			attr.Value = slog.AnyValue(h.redactValue(converted))
		case []any:
			attr.Value = slog.AnyValue(h.redactValue(v))
		case []byte:
			if out, ok := h.redactJSON(v); ok {
				attr.Value = slog.StringValue(out)
			}
		}
	}

	return attr
}

// redactJSON rewrites a JSON object or array payload with sensitive keys
// masked. Anything that does not parse passes through untouched.
func (h *redactHandler) redactJSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}

	out, err := json.Marshal(h.redactValue(body))
	if err != nil {
		return "", false
	}

	return string(out), true
}

func (h *redactHandler) redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, found := h.keys[strings.ToLower(k)]; found {
				out[k] = "***"
			} else {
				out[k] = h.redactValue(inner)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = h.redactValue(inner)
		}
		return out
	default:
		return v
	}
}

func redactionKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(strings.ToLower(field))
		if field == "" {
			continue
		}
		keys[field] = struct{}{}
	}
	return keys
}
