// Package service holds the player business rules: payload validation,
// the derived level fields, and the orchestration of record store calls
// for each create/read/update/delete/list/count operation.
//
// Every mutation runs in exactly one store transaction, and every
// validation failure is detected before that transaction starts, so a
// rejected request never leaves a partial write behind.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/players-api/internal/filter"
	"github.com/aanand-mishra/players-api/internal/storage"
	"github.com/aanand-mishra/players-api/internal/types"
)

// Players implements the player operations on top of a record store.
type Players struct {
	store  storage.Storage
	logger *slog.Logger
}

// New creates a Players service. A nil logger discards log output.
func New(store storage.Storage, logger *slog.Logger) *Players {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Players{store: store, logger: logger}
}

// List returns one page of the players matching criteria, ordered by id.
func (s *Players) List(ctx context.Context, criteria filter.Criteria, page storage.Page) ([]types.Player, error) {
	pred := filter.Build(criteria)
	s.logger.Debug("listing players",
		slog.String("predicate", pred.String()),
		slog.Int("page", page.Number),
		slog.Int("size", page.Size))

	players, err := s.store.FindPage(ctx, pred, page)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// Count returns how many players match criteria.
func (s *Players) Count(ctx context.Context, criteria filter.Criteria) (int64, error) {
	n, err := s.store.Count(ctx, filter.Build(criteria))
	if err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

// Get returns the player with the given id.
func (s *Players) Get(ctx context.Context, id int64) (types.Player, error) {
	p, err := s.store.FindByID(ctx, id)
	if errors.Is(err, storage.ErrPlayerNotFound) {
		return types.Player{}, notFound(id)
	}
	if err != nil {
		return types.Player{}, fmt.Errorf("get player %d: %w", id, err)
	}
	return p, nil
}

// Delete permanently removes the player with the given id.
func (s *Players) Delete(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(tx storage.Storage) error {
		exists, err := tx.ExistsByID(ctx, id)
		if err != nil {
			return fmt.Errorf("delete player %d: %w", id, err)
		}
		if !exists {
			return notFound(id)
		}
		if err := tx.DeleteByID(ctx, id); err != nil {
			return fmt.Errorf("delete player %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("player deleted", slog.Int64("id", id))
	return nil
}

// Create validates data, derives the level fields and stores a new player.
//
// All of name, title, race, birthday, profession and experience must be
// supplied. banned defaults to false; any supplied level or
// untilNextLevel is ignored.
func (s *Players) Create(ctx context.Context, data types.PlayerData) (types.Player, error) {
	if missing := missingRequired(data); len(missing) > 0 {
		return types.Player{}, fmt.Errorf("%w: missing required fields: %s",
			ErrBadRequest, strings.Join(missing, ", "))
	}
	if err := Validate(data); err != nil {
		return types.Player{}, err
	}

	p := types.Player{
		Name:       *data.Name,
		Title:      *data.Title,
		Race:       *data.Race,
		Profession: *data.Profession,
		Birthday:   *data.Birthday,
		Experience: *data.Experience,
	}
	if data.Banned != nil {
		p.Banned = *data.Banned
	}
	derive(&p)

	var created types.Player
	err := s.store.WithinTx(ctx, func(tx storage.Storage) error {
		var err error
		created, err = tx.Save(ctx, p)
		if err != nil {
			return fmt.Errorf("create player: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Player{}, err
	}

	s.logger.Info("player created",
		slog.Int64("id", created.ID),
		slog.Int("level", created.Level))
	return created, nil
}

// Update merges the supplied fields of data into the stored player and
// recomputes the derived fields from the merged experience.
//
// Only supplied fields are validated; fields left nil keep their stored
// values. The load, merge and save happen in one transaction.
func (s *Players) Update(ctx context.Context, id int64, data types.PlayerData) (types.Player, error) {
	if err := Validate(data); err != nil {
		return types.Player{}, err
	}

	var updated types.Player
	err := s.store.WithinTx(ctx, func(tx storage.Storage) error {
		exists, err := tx.ExistsByID(ctx, id)
		if err != nil {
			return fmt.Errorf("update player %d: %w", id, err)
		}
		if !exists {
			return notFound(id)
		}

		p, err := tx.FindByID(ctx, id)
		if errors.Is(err, storage.ErrPlayerNotFound) {
			return notFound(id)
		}
		if err != nil {
			return fmt.Errorf("update player %d: %w", id, err)
		}

		merge(&p, data)
		derive(&p)

		updated, err = tx.Save(ctx, p)
		if err != nil {
			return fmt.Errorf("update player %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return types.Player{}, err
	}

	s.logger.Info("player updated",
		slog.Int64("id", updated.ID),
		slog.Int("level", updated.Level))
	return updated, nil
}

// merge copies every supplied field of data onto p.
// level is copied too, but derive overwrites it afterwards.
func merge(p *types.Player, data types.PlayerData) {
	if data.Name != nil {
		p.Name = *data.Name
	}
	if data.Birthday != nil {
		p.Birthday = *data.Birthday
	}
	if data.Level != nil {
		p.Level = *data.Level
	}
	if data.Title != nil {
		p.Title = *data.Title
	}
	if data.Banned != nil {
		p.Banned = *data.Banned
	}
	if data.Experience != nil {
		p.Experience = *data.Experience
	}
	if data.Profession != nil {
		p.Profession = *data.Profession
	}
	if data.Race != nil {
		p.Race = *data.Race
	}
}

func notFound(id int64) error {
	return fmt.Errorf("%w: no player with id %d", ErrNotFound, id)
}
