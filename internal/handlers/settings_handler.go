package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"census-backend/internal/config"
	"census-backend/internal/services"
)

// SettingsHandler reads and updates the externally supplied settings:
// enumerator display name and the remote collection endpoint.
type SettingsHandler struct {
	Sync *services.SyncService
}

func NewSettingsHandler(sync *services.SyncService) *SettingsHandler {
	return &SettingsHandler{Sync: sync}
}

type settingsPayload struct {
	EndpointURL string `json:"endpoint_url"`
	Enumerator  string `json:"enumerator"`
}

// Get returns the active sync settings.
// GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.Sync.Settings()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settingsPayload{
		EndpointURL: s.EndpointURL,
		Enumerator:  s.Enumerator,
	})
}

// Update persists new settings to the config file and reconfigures the
// sync engine so the next push uses them.
// PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req.EndpointURL = strings.TrimSpace(req.EndpointURL)
	req.Enumerator = strings.TrimSpace(req.Enumerator)

	if err := config.SaveSyncSettings(req.EndpointURL, req.Enumerator); err != nil {
		http.Error(w, "Failed to persist settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	current := h.Sync.Settings()
	current.EndpointURL = req.EndpointURL
	current.Enumerator = req.Enumerator
	h.Sync.Reconfigure(current)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"settings": req,
	})
}
