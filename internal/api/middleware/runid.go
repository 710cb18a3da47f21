package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/matiasleandrokruk/inkwell/internal/api/ctxkeys"
)

// RunID stores a fresh UUIDv7 under ctxkeys.RunID. Handlers report it as
// metadata.run_id; Recover and the error handler log it.
func RunID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ctxkeys.WithValue(r.Context(), ctxkeys.RunID, NewRunID())))
	})
}

// NewRunID returns a time-ordered UUIDv7, falling back to a random v4 if the
// clock-based generator fails.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
