package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"census-backend/internal/faults"
	"census-backend/internal/repositories"
	"census-backend/internal/services"
)

// HouseholdHandler exposes the record API the enumeration form talks to.
type HouseholdHandler struct {
	Repo  *repositories.HouseholdRepository
	Sync  *services.SyncService
	Stats *services.StatsService
}

func NewHouseholdHandler(repo *repositories.HouseholdRepository, sync *services.SyncService, stats *services.StatsService) *HouseholdHandler {
	return &HouseholdHandler{Repo: repo, Sync: sync, Stats: stats}
}

// CreateHouseholdRequest carries one completed family from the form.
// The member list arrives in add order; the first entry is the head.
type CreateHouseholdRequest struct {
	Members []repositories.MemberInput `json:"members"`
}

// Create persists one completed household.
// POST /api/households
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	draft := h.Repo.NewDraft()
	for _, in := range req.Members {
		if _, err := h.Repo.AddMember(draft, in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	household, err := h.Repo.Commit(draft, h.Sync.Settings().Enumerator)
	if err != nil {
		if faults.IsKind(err, faults.Validation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save household: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Queue the new record for delivery; drains in the background when online
	h.Sync.NotifyCommitted()

	response := map[string]interface{}{
		"success":   true,
		"household": household,
	}
	// The save already succeeded; zeroed counts would read as data loss,
	// so a failed recount just leaves stats out of the response.
	if stats, err := h.Stats.ComputeStats(); err == nil {
		response["stats"] = stats
	} else {
		log.Printf("[Household] Stats unavailable after save: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// List returns every persisted household.
// GET /api/households
func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.Repo.ListAll()
	if err != nil {
		http.Error(w, "Failed to list households: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"households": households,
	})
}
