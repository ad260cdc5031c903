package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"census-backend/internal/faults"
)

// SQLiteStore backs the Store contract with a single SQLite file on the
// enumerator's device. SetMaxOpenConns(1) plus the mutex keeps the file
// usable from concurrent handlers without SQLITE_BUSY churn;
// synchronous=FULL makes every acknowledged write survive power loss.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open initializes the SQLite database at the given path, creating the
// parent directory if needed. The schema itself is applied separately by
// the migrator.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return &SQLiteStore{db: db, dbPath: path}, nil
}

// DB exposes the underlying handle for the migrator.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO records (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return faults.StorageErr("failed to write record "+key, err)
	}
	return nil
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, faults.StorageErr("failed to read record "+key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) ListKeys(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ESCAPE so a literal % or _ in the prefix cannot widen the match
	rows, err := s.db.Query(
		`SELECT key FROM records WHERE key LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, faults.StorageErr("failed to list keys under "+prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, faults.StorageErr("failed to scan key", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.StorageErr("failed to iterate keys", err)
	}
	return keys, nil
}

func (s *SQLiteStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM records WHERE key = ?`, key); err != nil {
		return faults.StorageErr("failed to delete record "+key, err)
	}
	return nil
}

func (s *SQLiteStore) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Ping(); err != nil {
		return faults.StorageErr("database unreachable", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
