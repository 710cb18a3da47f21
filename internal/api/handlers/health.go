package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"

	"github.com/matiasleandrokruk/inkwell/internal/domain/pipeline"
)

const providerHealthTimeout = 5 * time.Second

// ProviderHealth reports reachability per provider key. *llm.Router
// satisfies it.
type ProviderHealth interface {
	Health(ctx context.Context) map[string]error
}

// HealthHandler serves /health, /health/providers and /pipelines.
type HealthHandler struct {
	providers ProviderHealth
	pipelines []pipeline.Info
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler over the mounted pipelines.
// Provider failure causes go to logger, never to the caller.
func NewHealthHandler(providers ProviderHealth, pipelines []pipeline.Info, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{providers: providers, pipelines: pipelines, logger: logger}
}

// ProviderStatus is one entry of /health/providers.
type ProviderStatus struct {
	Status string `json:"status"`
}

// ProvidersResponse is the body of /health/providers. Status is "ok" when
// every provider answered, "degraded" otherwise.
type ProvidersResponse struct {
	Status    string                    `json:"status"`
	Providers map[string]ProviderStatus `json:"providers"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Providers handles GET /health/providers.
func (h *HealthHandler) Providers(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), providerHealthTimeout)
	defer cancel()

	results := h.providers.Health(ctx)
	statuses := lo.MapValues(results, func(err error, name string) ProviderStatus {
		if err != nil {
			h.logger.Warn("provider unavailable",
				"provider", name,
				"request_id", chimw.GetReqID(r.Context()),
				"error", err,
			)
			return ProviderStatus{Status: "unavailable"}
		}
		return ProviderStatus{Status: "ok"}
	})

	overall := "ok"
	if lo.SomeBy(lo.Values(results), func(err error) bool { return err != nil }) {
		overall = "degraded"
	}
	return writeJSON(w, http.StatusOK, ProvidersResponse{Status: overall, Providers: statuses})
}

// Pipelines handles GET /pipelines.
func (h *HealthHandler) Pipelines(w http.ResponseWriter, _ *http.Request) error {
	list := h.pipelines
	if list == nil {
		list = []pipeline.Info{}
	}
	return writeJSON(w, http.StatusOK, list)
}
