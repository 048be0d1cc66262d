// Package postgres opens a PostgreSQL-backed storage.Storage using the
// lib/pq driver and the shared SQL store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/aanand-mishra/players-api/internal/config"
	"github.com/aanand-mishra/players-api/internal/storage/sqlstore"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Dialect is the PostgreSQL flavour of the shared SQL store.
var Dialect = sqlstore.Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Contains: func(column, ph string) string {
		return "strpos(" + column + ", " + ph + ") > 0"
	},
	Schema: `
		CREATE TABLE IF NOT EXISTS players (
			id               BIGSERIAL PRIMARY KEY,
			name             VARCHAR(12) NOT NULL,
			title            VARCHAR(30) NOT NULL,
			race             VARCHAR(20) NOT NULL,
			profession       VARCHAR(20) NOT NULL,
			birthday         BIGINT      NOT NULL,
			banned           BOOLEAN     NOT NULL DEFAULT FALSE,
			experience       INTEGER     NOT NULL,
			level            INTEGER     NOT NULL,
			until_next_level INTEGER     NOT NULL
		)
	`,
	LockForUpdate: true,
}

// New connects to the database named by cfg.Storage.DSN, configures the
// connection pool, and creates the players table if needed.
func New(cfg *config.Config) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Storage.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Storage.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	store, err := sqlstore.New(db, Dialect)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres.New: %w", err)
	}

	return store, nil
}
