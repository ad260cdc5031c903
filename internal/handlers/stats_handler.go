package handlers

import (
	"encoding/json"
	"net/http"

	"census-backend/internal/services"
)

// StatsHandler serves the dashboard counters.
type StatsHandler struct {
	Stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{Stats: stats}
}

// Get recomputes and returns family/person counts.
// GET /api/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.ComputeStats()
	if err != nil {
		http.Error(w, "Failed to compute stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
