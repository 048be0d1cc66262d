// Package memory is an in-memory implementation of storage.Storage.
// It backs the "memory" storage driver and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aanand-mishra/players-api/internal/filter"
	"github.com/aanand-mishra/players-api/internal/storage"
	"github.com/aanand-mishra/players-api/internal/types"
)

// Storage keeps players in a map keyed by id.
type Storage struct {
	// txMu serialises transactions; mu guards the data itself.
	txMu sync.Mutex
	mu   sync.RWMutex

	players map[int64]types.Player
	nextID  int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[int64]types.Player),
		nextID:  1,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) FindPage(_ context.Context, pred filter.Predicate, page storage.Page) ([]types.Player, error) {
	matched := s.matching(pred)

	start := min(page.Offset(), len(matched))
	end := start + min(max(page.Size, 0), len(matched)-start)

	return slices.Clone(matched[start:end]), nil
}

func (s *Storage) Count(_ context.Context, pred filter.Predicate) (int64, error) {
	return int64(len(s.matching(pred))), nil
}

// matching returns the players matching pred in id order.
func (s *Storage) matching(pred filter.Predicate) []types.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(s.players))
	players := make([]types.Player, 0, len(ids))
	for _, id := range ids {
		if p := s.players[id]; pred.Match(p) {
			players = append(players, p)
		}
	}
	return players
}

func (s *Storage) ExistsByID(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[id]
	return ok, nil
}

func (s *Storage) FindByID(_ context.Context, id int64) (types.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return types.Player{}, storage.ErrPlayerNotFound
	}
	return p, nil
}

func (s *Storage) Save(_ context.Context, player types.Player) (types.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player.ID == 0 {
		player.ID = s.nextID
		s.nextID++
	} else if player.ID >= s.nextID {
		s.nextID = player.ID + 1
	}
	s.players[player.ID] = player
	return player, nil
}

func (s *Storage) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// WithinTx serialises fn against other transactions and restores the
// previous contents if fn fails.
func (s *Storage) WithinTx(_ context.Context, fn func(tx storage.Storage) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := maps.Clone(s.players)
	nextID := s.nextID
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.players = snapshot
		s.nextID = nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Storage) Close() error {
	return nil
}
