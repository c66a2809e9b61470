package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/otterhq/otter/internal/pkg/stacktrace"
)

// middlewareRecoverer converts a handler panic into a 500 response and
// logs the panic with a stack trace trimmed to this module's frames.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}

			//nolint:err113,errorlint // sentinel comparison per net/http contract
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			logPanic(r, rvr)

			if r.Header.Get("Connection") == "Upgrade" {
				return
			}
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

func logPanic(r *http.Request, rvr any) {
	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", paths)
		return
	}
	slog.ErrorContext(r.Context(), "panic on the server trace debug", "because", rvr, "stack", string(stack))
}
