package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 32 * 1024 // 32KB

// responseRecorder wraps a ResponseWriter so the middleware can log
// the status, size and a bounded copy of the body after the handler
// runs. It forwards the optional http interfaces the underlying
// writer may implement.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
	err    error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.record(p)

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *responseRecorder) record(p []byte) {
	if w.capped || len(p) == 0 {
		return
	}

	remaining := maxLoggedBodyBytes - w.body.Len()
	if remaining <= 0 {
		w.capped = true
		return
	}
	if len(p) > remaining {
		p = p[:remaining]
		w.capped = true
	}
	w.body.Write(p)
}

// SetError is picked up by the error-response writer so the span can
// carry the handler's original error.
func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // it use dynamic error
func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (w *responseRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func (w *responseRecorder) statusOrOK() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseRecorder) loggableBody(mask maskSet) any {
	raw := w.body.Bytes()

	var body any
	var decoded any
	switch {
	case json.Unmarshal(raw, &decoded) == nil:
		body = mask.value(decoded)
	case utf8.Valid(raw):
		body = w.body.String()
	case len(raw) > 0:
		body = "<binary body omitted>"
	}

	if w.capped {
		return map[string]any{"body": body, "truncated": true}
	}
	return body
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// captureRequestBody reads up to the logging cap from the request body
// and splices the read bytes back so the handler sees the full stream.
func captureRequestBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	limited := io.LimitReader(r.Body, maxLoggedBodyBytes+1)
	//nolint:errcheck // best effort for logging only
	captured, _ := io.ReadAll(limited)
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(captured), r.Body))

	if len(captured) > maxLoggedBodyBytes {
		captured = captured[:maxLoggedBodyBytes]
	}
	return captured
}

// httpMetrics bundles the instruments recorded per request.
type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(ins instrument.Instrumentation) httpMetrics {
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	duration, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return httpMetrics{requests: requests, duration: duration}
}

func (m httpMetrics) observe(ctx context.Context, elapsedMs float64, attrs []attribute.KeyValue) {
	if m.requests != nil {
		m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsedMs, metric.WithAttributes(attrs...))
	}
}

func finishSpan(span trace.Span, r *http.Request, rec *responseRecorder, attrs []attribute.KeyValue) {
	status := rec.statusOrOK()

	if rec.err != nil {
		span.RecordError(rec.err)
	}

	switch {
	case status < 500:
		span.SetStatus(codes.Ok, "")
	case rec.err != nil:
		span.SetStatus(codes.Error, rec.err.Error())
	default:
		span.SetStatus(codes.Error, http.StatusText(status))
	}

	span.SetAttributes(attrs...)
	span.SetAttributes(
		semconv.NetworkProtocolVersionKey.String(r.Proto),
		semconv.ServerAddressKey.String(r.Host),
		attribute.String("http.target", r.URL.Path),
		attribute.String("http.user_agent", r.UserAgent()),
		attribute.Int("http.response_content_length", rec.bytes),
	)
}

// middlewareObservability traces every request, records request
// metrics, and writes masked request/response logs.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newMaskSet(cfg)
	tracer := ins.Tracer("http.server")
	metrics := newHTTPMetrics(ins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(
				r.Context(),
				r.Method+" "+route,
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			reqBody := captureRequestBody(r)
			slog.InfoContext(
				ctx,
				"request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", mask.headers(r.Header),
				"body", mask.body(r.Header.Get("Content-Type"), reqBody),
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusOrOK()
			elapsed := time.Since(start)

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}
			finishSpan(span, r, rec, attrs)
			metrics.observe(ctx, float64(elapsed.Milliseconds()), attrs)

			slog.InfoContext(
				ctx,
				"response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"body", rec.loggableBody(mask),
			)
		})
	}
}
