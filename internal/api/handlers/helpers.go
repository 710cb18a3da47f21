package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/inkwell/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/inkwell/internal/api/middleware"
	"github.com/matiasleandrokruk/inkwell/internal/domain/pipeline"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
)

// Func is an HTTP handler that returns its failure instead of writing it.
type Func func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler is the single place where handler errors become responses:
// input errors are 422 with a detail, everything else is logged and hidden
// behind the generic 500.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates an ErrorHandler that logs to logger.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Wrap adapts fn to http.HandlerFunc.
func (e *ErrorHandler) Wrap(fn Func) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var inputErr *pipeline.InputError
		if errors.As(err, &inputErr) {
			writeError(w, http.StatusUnprocessableEntity, inputErr.Error())
			return
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}

		e.logger.Error("request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"run_id", ctxkeys.RunIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		middleware.WriteInternalError(w)
	}
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the {"detail": ...} shape.
func writeError(w http.ResponseWriter, statusCode int, detail string) {
	if err := writeJSON(w, statusCode, map[string]string{"detail": detail}); err != nil {
		http.Error(w, `{"detail":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}

// decodeBody reads a JSON request body into dst. Syntax and type problems are
// reported as an input error on "body"; a body over the size cap keeps its
// *http.MaxBytesError.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &pipeline.InputError{Field: "body", Reason: "invalid JSON"}
	}
	return nil
}
