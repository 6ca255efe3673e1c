package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantfold/divtracker/internal/pipeline"
)

// SyncHandler exposes a manual trigger for the scrape-and-merge cycle.
type SyncHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(orchestrator *pipeline.Orchestrator, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		logger:       logHandler(logger, "sync"),
	}
}

// TriggerSync runs one sync cycle immediately and returns its stats. A 409
// means a cycle is already running (cycles never overlap).
// POST /api/sync/trigger
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orchestrator.TriggerCycle(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrCycleRunning) {
			writeError(w, http.StatusConflict, "sync cycle already running")
			return
		}
		h.logger.ErrorContext(r.Context(), "manual sync failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "sync cycle failed")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
