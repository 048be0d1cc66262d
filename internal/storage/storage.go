// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// The service layer should not know or care which database it is
// talking to. By depending only on this interface:
//
//   - Switching databases = pick another implementation in main.go
//     (sqlite, postgres or memory). Zero service changes.
//
//   - Writing tests = use the in-memory implementation.
//     No real database needed for unit tests.
//
//   - Adding a cache = wrap any implementation in a decorator that
//     satisfies the same interface (see storage/cache).
package storage

import (
	"context"
	"errors"
	"math"

	"github.com/aanand-mishra/players-api/internal/filter"
	"github.com/aanand-mishra/players-api/internal/types"
)

// ErrPlayerNotFound is returned by FindByID when no row matches.
var ErrPlayerNotFound = errors.New("player not found")

// MaxPageSize is the largest page a caller may request.
const MaxPageSize = 1000

// Page selects one slice of an ordered result set.
// Number is 0-indexed; Size is the maximum number of records returned.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of records skipped before this page starts.
// It saturates at math.MaxInt instead of wrapping, so a page far past
// the end is empty.
func (p Page) Offset() int {
	if p.Number <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Number > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Number * p.Size
}

// Storage is the player record store.
type Storage interface {
	// FindPage returns the players matching pred, ordered by id, limited
	// to the requested page. Returns an empty slice (not nil) when
	// nothing matches.
	FindPage(ctx context.Context, pred filter.Predicate, page Page) ([]types.Player, error)

	// Count returns how many players match pred, ignoring pagination.
	Count(ctx context.Context, pred filter.Predicate) (int64, error)

	// ExistsByID reports whether a player with the given id is stored.
	ExistsByID(ctx context.Context, id int64) (bool, error)

	// FindByID fetches a single player by primary key.
	// Returns ErrPlayerNotFound if there is no such player.
	FindByID(ctx context.Context, id int64) (types.Player, error)

	// Save inserts the player when its ID is zero and updates the
	// existing row otherwise. It returns the record as stored, including
	// the store-assigned ID.
	Save(ctx context.Context, player types.Player) (types.Player, error)

	// DeleteByID removes a player record permanently.
	DeleteByID(ctx context.Context, id int64) error

	// WithinTx runs fn inside a single transaction. fn receives a Storage
	// bound to that transaction; the transaction commits when fn returns
	// nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Storage) error) error

	// Close releases the underlying connections.
	Close() error
}
