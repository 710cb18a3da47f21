// Package ctxkeys holds the typed context keys shared by middleware and
// handlers. It is a leaf package so api and api/handlers can both import it.
package ctxkeys

import "context"

// Key is the named type for all API context keys. context.Value compares
// type and value, so string keys from other packages never collide.
type Key string

const (
	// RunID identifies one pipeline invocation. Set by middleware.RunID,
	// echoed in metadata.run_id and attached to error logs.
	RunID Key = "run_id"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// RunIDFrom returns the run id stored in ctx, or "" when absent.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RunID).(string)
	return id
}
