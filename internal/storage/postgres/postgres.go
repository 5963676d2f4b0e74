// Package postgres opens the Postgres-backed store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"pokebattle/internal/storage"
)

// Open connects to the database at connStr (for example DATABASE_URL) and
// creates the schema.
func Open(ctx context.Context, connStr string) (*storage.SQLStore, error) {
	if strings.TrimSpace(connStr) == "" {
		return nil, fmt.Errorf("connection string is required")
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	s, err := storage.NewSQLStore(ctx, db, storage.DollarPlaceholders)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
