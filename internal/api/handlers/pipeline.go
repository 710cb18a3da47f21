package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matiasleandrokruk/inkwell/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/inkwell/internal/api/middleware"
	"github.com/matiasleandrokruk/inkwell/internal/domain/pipeline"
)

// Invoker is the part of *pipeline.Pipeline the handlers need.
type Invoker interface {
	Invoke(ctx context.Context, input json.RawMessage) (any, error)
	InputSchema() map[string]any
}

// RunEvent describes one finished model invocation.
type RunEvent struct {
	RunID    string
	Path     string
	Duration time.Duration
	Err      error
}

// RunSink receives a RunEvent per invocation. *eventbus.Bus[RunEvent]
// satisfies it.
type RunSink interface {
	Publish(RunEvent)
}

// PipelineHandler serves invoke, batch and input_schema for one pipeline.
type PipelineHandler struct {
	pipeline         Invoker
	path             string
	batchConcurrency int
	runs             RunSink
}

// NewPipelineHandler creates a PipelineHandler for the pipeline mounted at
// path. batchConcurrency below 1 is treated as 1; runs may be nil.
func NewPipelineHandler(p Invoker, path string, batchConcurrency int, runs RunSink) *PipelineHandler {
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &PipelineHandler{pipeline: p, path: path, batchConcurrency: batchConcurrency, runs: runs}
}

// invoke runs the pipeline once and reports the run.
func (h *PipelineHandler) invoke(ctx context.Context, runID string, input json.RawMessage) (any, error) {
	start := time.Now()
	out, err := h.pipeline.Invoke(ctx, input)
	if h.runs != nil {
		h.runs.Publish(RunEvent{RunID: runID, Path: h.path, Duration: time.Since(start), Err: err})
	}
	return out, err
}

// InvokeRequest is the body of POST P/invoke. Config and Kwargs are accepted
// for client compatibility and ignored.
type InvokeRequest struct {
	Input  json.RawMessage `json:"input"`
	Config json.RawMessage `json:"config,omitempty"`
	Kwargs json.RawMessage `json:"kwargs,omitempty"`
}

// InvokeMetadata accompanies every invoke output.
type InvokeMetadata struct {
	RunID          string   `json:"run_id"`
	FeedbackTokens []string `json:"feedback_tokens"`
}

// InvokeResponse is the envelope returned by P/invoke.
type InvokeResponse struct {
	Output   any            `json:"output"`
	Metadata InvokeMetadata `json:"metadata"`
}

// BatchRequest is the body of POST P/batch.
type BatchRequest struct {
	Inputs []json.RawMessage `json:"inputs"`
	Config json.RawMessage   `json:"config,omitempty"`
	Kwargs json.RawMessage   `json:"kwargs,omitempty"`
}

// BatchMetadata lists one run id per input, in input order.
type BatchMetadata struct {
	RunIDs []string `json:"run_ids"`
}

// BatchResponse is the envelope returned by P/batch.
type BatchResponse struct {
	Output   []any         `json:"output"`
	Metadata BatchMetadata `json:"metadata"`
}

// Invoke handles POST P/invoke.
func (h *PipelineHandler) Invoke(w http.ResponseWriter, r *http.Request) error {
	var req InvokeRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	runID := ctxkeys.RunIDFrom(r.Context())
	if runID == "" {
		runID = middleware.NewRunID()
	}

	out, err := h.invoke(r.Context(), runID, req.Input)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, InvokeResponse{
		Output:   out,
		Metadata: InvokeMetadata{RunID: runID, FeedbackTokens: []string{}},
	})
}

// Batch handles POST P/batch. Inputs run concurrently, bounded by the
// handler's batch concurrency; the first failure cancels the rest and fails
// the whole batch.
func (h *PipelineHandler) Batch(w http.ResponseWriter, r *http.Request) error {
	var req BatchRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.Inputs == nil {
		return &pipeline.InputError{Field: "inputs", Reason: "field required"}
	}

	outputs := make([]any, len(req.Inputs))
	runIDs := make([]string, len(req.Inputs))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(h.batchConcurrency)
	for i, input := range req.Inputs {
		runIDs[i] = middleware.NewRunID()
		g.Go(func() error {
			out, err := h.invoke(ctx, runIDs[i], input)
			if err != nil {
				var inputErr *pipeline.InputError
				if errors.As(err, &inputErr) {
					return &pipeline.InputError{Field: fmt.Sprintf("inputs[%d].%s", i, inputErr.Field), Reason: inputErr.Reason}
				}
				return fmt.Errorf("batch item %d (run %s): %w", i, runIDs[i], err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, BatchResponse{
		Output:   outputs,
		Metadata: BatchMetadata{RunIDs: runIDs},
	})
}

// InputSchema handles GET P/input_schema.
func (h *PipelineHandler) InputSchema(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, h.pipeline.InputSchema())
}
