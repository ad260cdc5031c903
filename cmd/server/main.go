package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"census-backend/internal/config"
	"census-backend/internal/database"
	"census-backend/internal/handlers"
	"census-backend/internal/health"
	h "census-backend/internal/http"
	"census-backend/internal/monitoring"
	"census-backend/internal/repositories"
	"census-backend/internal/services"
	"census-backend/internal/store"
	"census-backend/internal/ws"
	"census-backend/migrations"
)

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "Server port (overrides config)")
	dbPath := flag.String("db", "", "Store file path (overrides config)")
	flag.Parse()

	// .env is optional; real deployments use config.yaml or CENSUS_* vars
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	// Open the local record store and apply schema migrations
	recordStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open store at %s: %v", cfg.Store.Path, err)
	}
	defer recordStore.Close()

	migrator := database.NewMigrator(recordStore.DB(), migrations.FS)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	// Repositories and read-side services
	householdRepo := repositories.NewHouseholdRepository(recordStore)
	statsService := services.NewStatsService(householdRepo, metrics)
	exportService := services.NewExportService(householdRepo)

	// Connectivity monitor: background probe plus UI-reported transitions
	var probe services.Prober
	probeURL := cfg.Sync.ProbeURL
	if probeURL == "" {
		probeURL = cfg.Sync.EndpointURL
	}
	if probeURL != "" {
		probe = services.NewHTTPProbe(probeURL, 10*time.Second)
	}
	monitor := services.NewConnectivityMonitor(probe, cfg.Sync.ProbeInterval())

	// Sync engine
	pusher := services.NewHTTPPusher(cfg.Sync.PushTimeout())
	syncService := services.NewSyncService(
		householdRepo,
		recordStore,
		pusher,
		monitor.IsOnline,
		services.SyncSettings{
			EndpointURL: cfg.Sync.EndpointURL,
			Enumerator:  cfg.Sync.Enumerator,
			PushTimeout: cfg.Sync.PushTimeout(),
		},
		metrics,
	)

	// Status feed for the form UI
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	broadcast := func() {
		stats, _ := statsService.ComputeStats()
		hub.Broadcast(map[string]interface{}{
			"online": monitor.IsOnline(),
			"sync":   syncService.Status(),
			"stats":  stats,
		})
	}
	syncService.OnStatusChange(func(services.Status) { broadcast() })

	// Reconnects drive the sync engine; disconnects only update status
	monitor.OnOnline(func() {
		metrics.Online.Set(1)
		broadcast()
		go func() {
			if err := syncService.Drain(context.Background()); err != nil {
				log.Printf("[Sync] Reconnect drain: %v", err)
			}
		}()
	})
	monitor.OnOffline(func() {
		metrics.Online.Set(0)
		broadcast()
	})
	monitor.Start()
	defer monitor.Stop()

	// Prime the dashboard gauges from whatever survived the last run
	if stats, err := statsService.ComputeStats(); err == nil {
		log.Printf("Store loaded: %d families, %d persons", stats.FamilyCount, stats.PersonCount)
	}

	// Handlers and router
	householdHandler := handlers.NewHouseholdHandler(householdRepo, syncService, statsService)
	syncHandler := handlers.NewSyncHandler(syncService)
	connectivityHandler := handlers.NewConnectivityHandler(monitor)
	statsHandler := handlers.NewStatsHandler(statsService)
	exportHandler := handlers.NewExportHandler(exportService)
	settingsHandler := handlers.NewSettingsHandler(syncService)
	healthChecker := health.NewHealthChecker(recordStore, recordStore.Path())
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		householdHandler, syncHandler, connectivityHandler, statsHandler,
		exportHandler, settingsHandler, healthHandler, hub, metrics, registry,
	)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: corsMiddleware.Handler(router),
	}

	go func() {
		log.Printf("Server running on %s (store: %s)", addr, cfg.Store.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown: let an in-flight drain finish marking records
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
