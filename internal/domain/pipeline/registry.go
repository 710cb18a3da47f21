package pipeline

import (
	"context"
	"fmt"

	"github.com/matiasleandrokruk/inkwell/internal/infra/llm"
)

// Route pairs a path with the constructor of its pipeline.
type Route struct {
	Path  string
	Build func() (*Pipeline, error)
}

// RegistrationError records a route whose pipeline could not be built.
type RegistrationError struct {
	Path string
	Err  error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("register %s: %v", e.Path, e.Err)
}

func (e RegistrationError) Unwrap() error { return e.Err }

// Register attempts every constructor in order and returns the pipelines that
// were built plus one error per route that failed. A failure never stops the
// remaining routes from being tried.
func Register(routes []Route) ([]*Pipeline, []RegistrationError) {
	var (
		built  []*Pipeline
		failed []RegistrationError
	)
	for _, r := range routes {
		p, err := r.Build()
		if err != nil {
			failed = append(failed, RegistrationError{Path: r.Path, Err: err})
			continue
		}
		built = append(built, p)
	}
	return built, failed
}

// Routes turns catalog definitions into constructors that resolve their
// provider from router at build time. An empty model in a definition takes
// the provider's default.
func Routes(ctx context.Context, defs []Definition, router *llm.Router) []Route {
	routes := make([]Route, 0, len(defs))
	for _, def := range defs {
		routes = append(routes, Route{
			Path: def.Path,
			Build: func() (*Pipeline, error) {
				provider, err := router.Route(ctx, def.Provider)
				if err != nil {
					return nil, err
				}
				if def.Model == "" {
					def.Model = provider.ModelInfo().ID
				}
				model, err := NewModel(def.Kind, provider, def.Model)
				if err != nil {
					return nil, err
				}
				return New(def, model)
			},
		})
	}
	return routes
}
