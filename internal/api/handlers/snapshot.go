package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// SnapshotHandler serves the raw ranking snapshot written by the last
// pipeline run.
type SnapshotHandler struct {
	path   string
	logger *logger.Logger
}

// NewSnapshotHandler creates a snapshot handler reading from path.
func NewSnapshotHandler(path string, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{path: path, logger: log}
}

// GetSnapshot returns the latest snapshot document.
// GET /api/snapshot
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, http.StatusNotFound, "No snapshot has been written yet")
			return
		}
		h.logger.WithError(err).Error("Failed to read snapshot file")
		respondError(w, http.StatusInternalServerError, "Failed to read snapshot")
		return
	}

	// Validate before passing through so clients never see a torn file.
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		h.logger.WithError(err).Error("Snapshot file is not valid JSON")
		respondError(w, http.StatusInternalServerError, "Snapshot is corrupted")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}
