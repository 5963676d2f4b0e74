// Package sqlite opens the SQLite-backed store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"pokebattle/internal/storage"
)

// Open opens (creating if needed) the database file at path and creates the
// schema. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*storage.SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection keeps ":memory:" a single database and serialises writers
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s, err := storage.NewSQLStore(ctx, db, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
