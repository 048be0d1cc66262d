// Package sqlite opens a SQLite-backed storage.Storage.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default engine for local development.
//
// The blank import below registers the sqlite3 driver with database/sql.
// The driver's init() function does this automatically when the package
// is loaded — we never call anything from it directly.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/players-api/internal/config"
	"github.com/aanand-mishra/players-api/internal/storage/sqlstore"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// Dialect is the SQLite flavour of the shared SQL store.
//
// instr() is used for substring filters because LIKE is case-insensitive
// for ASCII in SQLite, while name/title filters must be case-sensitive.
var Dialect = sqlstore.Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Contains: func(column, ph string) string {
		return "instr(" + column + ", " + ph + ") > 0"
	},
	Schema: `
		CREATE TABLE IF NOT EXISTS players (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			name             TEXT    NOT NULL,
			title            TEXT    NOT NULL,
			race             TEXT    NOT NULL,
			profession       TEXT    NOT NULL,
			birthday         INTEGER NOT NULL,
			banned           BOOLEAN NOT NULL DEFAULT 0,
			experience       INTEGER NOT NULL,
			level            INTEGER NOT NULL,
			until_next_level INTEGER NOT NULL
		)
	`,
}

// New opens the SQLite database at cfg.Storage.Path, creates the players
// table if needed, and returns a ready-to-use store.
func New(cfg *config.Config) (*sqlstore.Store, error) {
	// The driver creates the file but not its directory.
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
	}

	// sql.Open does NOT open a real connection yet — it just validates
	// the driver name and data source name (DSN).
	db, err := sql.Open("sqlite3", cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows one writer at a time. A single connection makes every
	// transaction run to completion before the next one starts, which is
	// what keeps update's read-merge-write sequence atomic.
	db.SetMaxOpenConns(1)

	store, err := sqlstore.New(db, Dialect)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return store, nil
}
