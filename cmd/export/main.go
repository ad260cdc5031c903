// Command export dumps the CSV projection of a store file without
// running the server. Useful for handing over data from a device that
// never regained connectivity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"census-backend/internal/database"
	"census-backend/internal/repositories"
	"census-backend/internal/services"
	"census-backend/internal/store"
	"census-backend/migrations"
)

func main() {
	dbPath := flag.String("db", "data/census.db", "Store file to export")
	outPath := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Fatalf("Store file not found: %s", *dbPath)
	}

	recordStore, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer recordStore.Close()

	migrator := database.NewMigrator(recordStore.DB(), migrations.FS)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	repo := repositories.NewHouseholdRepository(recordStore)
	export := services.NewExportService(repo)

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *outPath, err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteCSV(out); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if *outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", *outPath)
	}
}
