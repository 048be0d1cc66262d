// Package cache puts a Redis read-through cache in front of any
// storage.Storage.
//
// Only single-player lookups (FindByID, ExistsByID) are cached; list and
// count queries always go to the underlying store. Cached entries are
// dropped after a successful Save or DeleteByID, and when the write
// happened inside a transaction, only once that transaction committed.
//
// Every invalidation also bumps a per-player generation counter. A read
// that missed the cache remembers the generation it started from and only
// writes its row back if the counter is unchanged, so a slow reader can
// never put a row into Redis that an update has already replaced.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aanand-mishra/players-api/internal/filter"
	"github.com/aanand-mishra/players-api/internal/storage"
	"github.com/aanand-mishra/players-api/internal/types"
)

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// TTL bounds how long a cached player may be served.
	TTL time.Duration
}

// Store decorates a storage.Storage with a Redis cache.
type Store struct {
	next   storage.Storage
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	// pending collects ids written inside a transaction; nil outside one.
	pending *[]int64
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// New connects to Redis and wraps next.
func New(next storage.Storage, cfg Config, logger *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cache.New: parse url: %w", err)
	}

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache.New: ping: %w", err)
	}

	return NewWithClient(next, client, cfg.TTL, logger), nil
}

// NewWithClient wraps next using an existing client (for testing)
func NewWithClient(next storage.Storage, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{next: next, client: client, ttl: ttl, logger: logger}
}

func playerKey(id int64) string {
	return "player:" + strconv.FormatInt(id, 10)
}

// generationKey holds the invalidation counter for one player. It has no
// expiry: an expired counter would read as 0 again and let a stale write
// through.
func generationKey(id int64) string {
	return playerKey(id) + ":gen"
}

func (s *Store) FindPage(ctx context.Context, pred filter.Predicate, page storage.Page) ([]types.Player, error) {
	return s.next.FindPage(ctx, pred, page)
}

func (s *Store) Count(ctx context.Context, pred filter.Predicate) (int64, error) {
	return s.next.Count(ctx, pred)
}

// ExistsByID answers from the cache when the player is cached and falls
// back to the store otherwise. Misses are not cached.
func (s *Store) ExistsByID(ctx context.Context, id int64) (bool, error) {
	if s.pending == nil {
		if _, ok := s.lookup(ctx, id); ok {
			return true, nil
		}
	}
	return s.next.ExistsByID(ctx, id)
}

// FindByID reads through the cache. Inside a transaction the cache is
// bypassed so the store can apply its own locking.
func (s *Store) FindByID(ctx context.Context, id int64) (types.Player, error) {
	if s.pending != nil {
		return s.next.FindByID(ctx, id)
	}

	if p, ok := s.lookup(ctx, id); ok {
		return p, nil
	}

	gen, genOK := s.generation(ctx, s.client, id)

	p, err := s.next.FindByID(ctx, id)
	if err != nil {
		return types.Player{}, err
	}

	if genOK {
		s.store(ctx, p, gen)
	}
	return p, nil
}

func (s *Store) Save(ctx context.Context, p types.Player) (types.Player, error) {
	saved, err := s.next.Save(ctx, p)
	if err != nil {
		return types.Player{}, err
	}
	s.invalidate(ctx, saved.ID)
	return saved, nil
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if err := s.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// WithinTx runs fn against a transactional view of the cache and drops
// every id it wrote once the underlying transaction has committed.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Storage) error) error {
	if s.pending != nil {
		return fn(s)
	}

	var written []int64
	err := s.next.WithinTx(ctx, func(tx storage.Storage) error {
		return fn(&Store{next: tx, client: s.client, ttl: s.ttl, logger: s.logger, pending: &written})
	})
	if err != nil {
		return err
	}

	for _, id := range written {
		s.invalidate(ctx, id)
	}
	return nil
}

// Close closes the Redis connection and the wrapped store.
func (s *Store) Close() error {
	return errors.Join(s.client.Close(), s.next.Close())
}

// lookup returns the cached player, if any. Redis failures are logged
// and treated as a miss so the store stays authoritative.
func (s *Store) lookup(ctx context.Context, id int64) (types.Player, bool) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", slog.Int64("id", id), slog.String("error", err.Error()))
		}
		return types.Player{}, false
	}

	var p types.Player
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("cache entry unreadable", slog.Int64("id", id), slog.String("error", err.Error()))
		return types.Player{}, false
	}
	return p, true
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// generation reads the invalidation counter of id; a missing counter is 0.
func (s *Store) generation(ctx context.Context, c getter, id int64) (int64, bool) {
	gen, err := c.Get(ctx, generationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		s.logger.Warn("cache generation read failed", slog.Int64("id", id), slog.String("error", err.Error()))
		return 0, false
	}
	return gen, true
}

// store caches p unless its generation moved past gen since the read
// began. WATCH makes the check and the SET atomic against invalidate.
func (s *Store) store(ctx context.Context, p types.Player, gen int64) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, ok := s.generation(ctx, tx, p.ID)
		if !ok || cur != gen {
			return errStale
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, playerKey(p.ID), data, s.ttl)
			return nil
		})
		return err
	}, generationKey(p.ID))

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug("cache write skipped, player changed during read", slog.Int64("id", p.ID))
	default:
		s.logger.Warn("cache write failed", slog.Int64("id", p.ID), slog.String("error", err.Error()))
	}
}

// errStale aborts a cache write whose generation is out of date.
var errStale = errors.New("stale cache write")

// invalidate drops id from the cache now, or records it for after commit
// when called inside a transaction.
func (s *Store) invalidate(ctx context.Context, id int64) {
	if s.pending != nil {
		*s.pending = append(*s.pending, id)
		return
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Del(ctx, playerKey(id))
		return nil
	})
	if err != nil {
		s.logger.Warn("cache invalidation failed", slog.Int64("id", id), slog.String("error", err.Error()))
	}
}
