// Package api wires the gateway's chi router: global middleware, the health
// and listing routes, and invoke/batch/input_schema for every mounted
// pipeline.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/inkwell/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/inkwell/internal/api/middleware"
	"github.com/matiasleandrokruk/inkwell/internal/domain/pipeline"
)

// Deps is everything the router needs from startup.
type Deps struct {
	// Pipelines are the successfully registered pipelines, in catalog order.
	Pipelines        []*pipeline.Pipeline
	Providers        handlers.ProviderHealth
	BatchConcurrency int

	// Runs, when set, receives one event per model invocation.
	Runs   handlers.RunSink
	Logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all routes.
// Pipelines that failed registration are simply absent and answer 404.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errs := handlers.NewErrorHandler(logger)

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(apmiddleware.CORS)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apmiddleware.Logging(logger))
	r.Use(apmiddleware.RunID)
	r.Use(apmiddleware.Recover(logger))

	infos := make([]pipeline.Info, 0, len(d.Pipelines))
	for _, p := range d.Pipelines {
		infos = append(infos, p.Info())
	}

	healthHandler := handlers.NewHealthHandler(d.Providers, infos, logger)
	r.Get("/health", errs.Wrap(healthHandler.Health))
	r.Get("/health/providers", errs.Wrap(healthHandler.Providers))
	r.Get("/pipelines", errs.Wrap(healthHandler.Pipelines))

	r.Group(func(r chi.Router) {
		r.Use(apmiddleware.MaxBytes(apmiddleware.DefaultMaxBodyBytes))

		for _, p := range d.Pipelines {
			h := handlers.NewPipelineHandler(p, p.Path(), d.BatchConcurrency, d.Runs)
			r.Post(p.Path()+"/invoke", errs.Wrap(h.Invoke))
			r.Post(p.Path()+"/batch", errs.Wrap(h.Batch))
			r.Get(p.Path()+"/input_schema", errs.Wrap(h.InputSchema))
		}
	})

	return r
}
