package handlers

import (
	"encoding/json"
	"net/http"

	"census-backend/internal/faults"
	"census-backend/internal/services"
)

// SyncHandler exposes sync engine status and the manual drain trigger.
type SyncHandler struct {
	Sync *services.SyncService
}

func NewSyncHandler(sync *services.SyncService) *SyncHandler {
	return &SyncHandler{Sync: sync}
}

// Status returns the engine snapshot the dashboard badge renders.
// GET /api/sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Sync.Status())
}

// Drain pushes all unsynced households now.
// POST /api/sync/drain
func (h *SyncHandler) Drain(w http.ResponseWriter, r *http.Request) {
	err := h.Sync.Drain(r.Context())
	if err != nil {
		if faults.IsKind(err, faults.Sync) {
			// Offline or endpoint unreachable: the batch stays queued
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
				"status":  h.Sync.Status(),
			})
			return
		}
		http.Error(w, "Drain failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"status":  h.Sync.Status(),
	})
}
