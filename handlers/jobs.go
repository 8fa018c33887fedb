package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smoreau/docforge/job"
)

type JobHandler struct {
	tracker *job.Tracker
	logger  *slog.Logger
}

func NewJobHandler(tracker *job.Tracker, logger *slog.Logger) *JobHandler {
	return &JobHandler{tracker: tracker, logger: logger}
}

// GetStatus serves the persisted job snapshot for polling.
func (h *JobHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	snap, found, err := h.tracker.Snapshot(r.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to read job snapshot",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to read job status", http.StatusInternalServerError)
		return
	}
	if !found {
		writeJSONError(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// GetResult streams the finished dataset.
func (h *JobHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	result, ok := h.tracker.Result(jobID)
	if !ok {
		writeJSONError(w, "Result not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "dataset."+string(result.Format)))
	w.Write(result.Data)
}

// Cancel flags a running job for cooperative cancellation.
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	h.tracker.Cancel(jobID)
	h.logger.Info("Cancellation requested",
		slog.String("job_id", jobID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"job_id": jobID, "cancellation": "requested"})
}
