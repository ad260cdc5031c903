package handlers

import (
	"encoding/json"
	"net/http"

	"census-backend/internal/services"
)

// ConnectivityHandler lets the form UI report the browser's own
// online/offline events alongside the background probe.
type ConnectivityHandler struct {
	Monitor *services.ConnectivityMonitor
}

func NewConnectivityHandler(monitor *services.ConnectivityMonitor) *ConnectivityHandler {
	return &ConnectivityHandler{Monitor: monitor}
}

// Get returns the current connectivity flag.
// GET /api/connectivity
func (h *ConnectivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"online": h.Monitor.IsOnline(),
	})
}

// Report applies a UI-observed transition. Going online triggers a
// drain through the monitor's registered callbacks.
// POST /api/connectivity
func (h *ConnectivityHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.Monitor.Report(req.Online)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"online":  h.Monitor.IsOnline(),
	})
}
