package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
)

// Migrator applies schema migrations to the local SQLite file.
// Migrations are plain SQL files applied in alphabetical order and
// tracked in a schema_migrations table so re-running is safe.
type Migrator struct {
	db           *sql.DB
	migrationsFS fs.FS
}

// NewMigrator creates a migration runner over an embedded filesystem.
func NewMigrator(db *sql.DB, migrationsFS fs.FS) *Migrator {
	return &Migrator{db: db, migrationsFS: migrationsFS}
}

// RunMigrations executes all pending migrations. Already-applied files
// (tracked in schema_migrations) are skipped.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	if err := m.ensureTrackingTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	entries, err := fs.ReadDir(m.migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	ran := 0
	for _, name := range files {
		if applied[name] {
			continue
		}

		content, err := fs.ReadFile(m.migrationsFS, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := m.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}

		if err := m.recordMigration(ctx, name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		log.Printf("[Migrate] Applied %s", name)
		ran++
	}

	if ran == 0 {
		log.Println("[Migrate] Schema up to date")
	}
	return nil
}

func (m *Migrator) ensureTrackingTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m *Migrator) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, filename string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO schema_migrations (filename) VALUES (?)
		ON CONFLICT(filename) DO NOTHING`, filename)
	return err
}
