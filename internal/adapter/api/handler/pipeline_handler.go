package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmorand/scenepulse/internal/pipeline"
)

// PipelineRunner triggers one full pipeline pass.
type PipelineRunner interface {
	Run(ctx context.Context, workspaceID string) (*pipeline.PipelineResult, error)
}

// PipelineHandler exposes on-demand pipeline runs.
type PipelineHandler struct {
	runner      PipelineRunner
	workspaceID string
	logger      *slog.Logger
}

// NewPipelineHandler creates the pipeline handler.
func NewPipelineHandler(runner PipelineRunner, workspaceID string, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner:      runner,
		workspaceID: workspaceID,
		logger:      logger.With("component", "pipeline_handler"),
	}
}

// RunPipeline executes one pipeline pass and returns the run summary.
// The summary is returned even when the run failed so the caller can
// see which stage broke.
func (h *PipelineHandler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.Context(), h.workspaceID)
	if err != nil {
		h.logger.Error("on-demand pipeline run failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
