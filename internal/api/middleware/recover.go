package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/inkwell/internal/api/ctxkeys"
)

// InternalErrorBody is the only body a client ever sees for a server-side
// failure.
const InternalErrorBody = `{"detail":"Internal server error"}`

// Recover turns a panic anywhere below it into the generic 500 and logs the
// panic value with the request's stack.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic in handler",
					"request_id", chimw.GetReqID(r.Context()),
					"run_id", ctxkeys.RunIDFrom(r.Context()),
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				WriteInternalError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteInternalError writes the opaque 500 response.
func WriteInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(InternalErrorBody))
}
