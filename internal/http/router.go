package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"census-backend/internal/handlers"
	"census-backend/internal/middleware"
	"census-backend/internal/monitoring"
	"census-backend/internal/ws"
)

// NewRouter wires every API route the enumeration form uses.
func NewRouter(
	householdHandler *handlers.HouseholdHandler,
	syncHandler *handlers.SyncHandler,
	connectivityHandler *handlers.ConnectivityHandler,
	statsHandler *handlers.StatsHandler,
	exportHandler *handlers.ExportHandler,
	settingsHandler *handlers.SettingsHandler,
	healthHandler *handlers.HealthHandler,
	hub *ws.Hub,
	metrics *monitoring.Metrics,
	registry *prometheus.Registry,
) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/households", householdHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/households", householdHandler.List).Methods(http.MethodGet)

	api.HandleFunc("/sync/status", syncHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/sync/drain", syncHandler.Drain).Methods(http.MethodPost)

	api.HandleFunc("/connectivity", connectivityHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/connectivity", connectivityHandler.Report).Methods(http.MethodPost)

	api.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/export", exportHandler.Download).Methods(http.MethodGet)

	api.HandleFunc("/settings", settingsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/settings", settingsHandler.Update).Methods(http.MethodPut)

	r.HandleFunc("/ws/status", hub.ServeWS)
	r.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	requestMetrics := middleware.NewRequestMetricsMiddleware(metrics)
	r.Use(requestMetrics.Handler)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.GzipCompression)

	return r
}
