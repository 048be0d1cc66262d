// Package sqlstore provides a database/sql implementation of the
// storage.Storage interface that is shared by every SQL engine.
//
// The engine-specific packages (storage/sqlite, storage/postgres) only
// open the connection and pick a Dialect; all queries live here.
//
// HOW FILTERS BECOME SQL:
// ───────────────────────
// A filter.Predicate is a list of conditions joined with AND. Each
// condition becomes one fragment of the WHERE clause with placeholders,
// and its operands are appended to the argument list in the same order:
//
//	name contains "Leg"  AND  level between 1..10
//	→ WHERE instr(name, ?) > 0 AND level BETWEEN ? AND ?
//	  args: ["Leg", 1, 10]
//
// User input only ever reaches the argument list, never the SQL text.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/players-api/internal/filter"
	"github.com/aanand-mishra/players-api/internal/storage"
	"github.com/aanand-mishra/players-api/internal/types"
)

// Dialect captures the few places where SQL engines disagree.
type Dialect struct {
	// Name is used in error messages and logs.
	Name string

	// Placeholder renders the n-th (1-based) bind parameter,
	// e.g. "?" for SQLite and "$3" for PostgreSQL.
	Placeholder func(n int) string

	// Contains renders a case-sensitive substring test of column
	// against the bind parameter ph.
	Contains func(column, ph string) string

	// Schema is the CREATE TABLE IF NOT EXISTS statement for players.
	Schema string

	// LockForUpdate appends SELECT ... FOR UPDATE to reads made inside a
	// transaction. Engines that serialise writers another way leave it
	// false.
	LockForUpdate bool
}

// querier is the subset of *sql.DB and *sql.Tx the store needs, so the
// same methods run either directly on the pool or inside a transaction.
type querier interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Store is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type Store struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	inTx    bool
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// New creates the players table if it does not already exist and returns
// a ready-to-use *Store.
//
// CREATE TABLE IF NOT EXISTS is idempotent — safe to run on every
// startup. If the table already exists nothing happens.
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	if _, err := db.Exec(dialect.Schema); err != nil {
		return nil, fmt.Errorf("sqlstore.New: create table (%s): %w", dialect.Name, err)
	}
	return &Store{db: db, q: db, dialect: dialect}, nil
}

// columns lists the SELECT columns in the order scanPlayer expects.
const columns = "id, name, title, race, profession, birthday, banned, experience, level, until_next_level"

// filterColumns maps filter fields onto table columns. Only fields listed
// here can appear in generated SQL.
var filterColumns = map[filter.Field]string{
	filter.FieldName:       "name",
	filter.FieldTitle:      "title",
	filter.FieldRace:       "race",
	filter.FieldProfession: "profession",
	filter.FieldBanned:     "banned",
	filter.FieldLevel:      "level",
	filter.FieldExperience: "experience",
	filter.FieldBirthday:   "birthday",
}

// args accumulates bind parameters and hands out matching placeholders.
type args struct {
	dialect Dialect
	values  []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(len(a.values))
}

// where renders pred as a WHERE clause (empty for an empty predicate).
func (s *Store) where(pred filter.Predicate, a *args) (string, error) {
	if pred.Empty() {
		return "", nil
	}

	parts := make([]string, 0, len(pred))
	for _, c := range pred {
		col, ok := filterColumns[c.Field]
		if !ok {
			return "", fmt.Errorf("unsupported filter field %q", c.Field)
		}

		var frag string
		switch {
		case c.Op == filter.Contains && len(c.Values) == 1:
			frag = s.dialect.Contains(col, a.add(c.Values[0]))
		case c.Op == filter.Equal && len(c.Values) == 1:
			frag = col + " = " + a.add(c.Values[0])
		case c.Op == filter.GreaterOrEqual && len(c.Values) == 1:
			frag = col + " >= " + a.add(c.Values[0])
		case c.Op == filter.LessOrEqual && len(c.Values) == 1:
			frag = col + " <= " + a.add(c.Values[0])
		case c.Op == filter.Between && len(c.Values) == 2:
			lo := a.add(c.Values[0])
			hi := a.add(c.Values[1])
			frag = col + " BETWEEN " + lo + " AND " + hi
		default:
			return "", fmt.Errorf("malformed condition %s", c)
		}
		parts = append(parts, frag)
	}

	return " WHERE " + strings.Join(parts, " AND "), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FindPage returns one page of matching players ordered by id.
//
// LIMIT/OFFSET are bound like any other parameter. The slice starts
// empty rather than nil so an empty page encodes to [] rather than null.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) FindPage(ctx context.Context, pred filter.Predicate, page storage.Page) ([]types.Player, error) {
	a := &args{dialect: s.dialect}
	where, err := s.where(pred, a)
	if err != nil {
		return nil, fmt.Errorf("FindPage: %w", err)
	}

	query := "SELECT " + columns + " FROM players" + where +
		" ORDER BY id LIMIT " + a.add(page.Size) + " OFFSET " + a.add(page.Offset())

	stmt, err := s.q.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("FindPage: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, a.values...)
	if err != nil {
		return nil, fmt.Errorf("FindPage: query: %w", err)
	}
	defer rows.Close()

	players := []types.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("FindPage: scan row: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindPage: rows iteration: %w", err)
	}

	return players, nil
}

// Count returns the number of matching players, ignoring pagination.
func (s *Store) Count(ctx context.Context, pred filter.Predicate) (int64, error) {
	a := &args{dialect: s.dialect}
	where, err := s.where(pred, a)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}

	stmt, err := s.q.PrepareContext(ctx, "SELECT COUNT(*) FROM players"+where)
	if err != nil {
		return 0, fmt.Errorf("Count: prepare: %w", err)
	}
	defer stmt.Close()

	var n int64
	if err := stmt.QueryRowContext(ctx, a.values...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: scan: %w", err)
	}
	return n, nil
}

func (s *Store) ExistsByID(ctx context.Context, id int64) (bool, error) {
	stmt, err := s.q.PrepareContext(ctx,
		"SELECT COUNT(*) FROM players WHERE id = "+s.dialect.Placeholder(1))
	if err != nil {
		return false, fmt.Errorf("ExistsByID: prepare: %w", err)
	}
	defer stmt.Close()

	var n int64
	if err := stmt.QueryRowContext(ctx, id).Scan(&n); err != nil {
		return false, fmt.Errorf("ExistsByID: scan: %w", err)
	}
	return n > 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FindByID fetches exactly one player row matched by primary key.
//
// Inside a transaction on engines that support it the row is locked
// (SELECT ... FOR UPDATE) so a concurrent update of the same player waits
// for this transaction instead of merging into stale data.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) FindByID(ctx context.Context, id int64) (types.Player, error) {
	query := "SELECT " + columns + " FROM players WHERE id = " + s.dialect.Placeholder(1)
	if s.inTx && s.dialect.LockForUpdate {
		query += " FOR UPDATE"
	}

	stmt, err := s.q.PrepareContext(ctx, query)
	if err != nil {
		return types.Player{}, fmt.Errorf("FindByID: prepare: %w", err)
	}
	defer stmt.Close()

	p, err := scanPlayer(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Player{}, fmt.Errorf("no player found with id %d: %w", id, storage.ErrPlayerNotFound)
		}
		return types.Player{}, fmt.Errorf("FindByID: scan: %w", err)
	}

	return p, nil
}

// Save inserts a new player (ID == 0) or updates an existing one.
func (s *Store) Save(ctx context.Context, p types.Player) (types.Player, error) {
	if p.ID == 0 {
		return s.insert(ctx, p)
	}
	return s.update(ctx, p)
}

// insert uses INSERT ... RETURNING id, which both SQLite (3.35+) and
// PostgreSQL understand. lib/pq does not implement LastInsertId.
func (s *Store) insert(ctx context.Context, p types.Player) (types.Player, error) {
	a := &args{dialect: s.dialect}
	query := "INSERT INTO players (name, title, race, profession, birthday, banned, experience, level, until_next_level) VALUES (" +
		strings.Join([]string{
			a.add(p.Name), a.add(p.Title), a.add(string(p.Race)), a.add(string(p.Profession)),
			a.add(p.Birthday), a.add(p.Banned), a.add(p.Experience), a.add(p.Level), a.add(p.UntilNextLevel),
		}, ", ") + ") RETURNING id"

	stmt, err := s.q.PrepareContext(ctx, query)
	if err != nil {
		return types.Player{}, fmt.Errorf("Save: prepare insert: %w", err)
	}
	defer stmt.Close()

	if err := stmt.QueryRowContext(ctx, a.values...).Scan(&p.ID); err != nil {
		return types.Player{}, fmt.Errorf("Save: insert: %w", err)
	}
	return p, nil
}

func (s *Store) update(ctx context.Context, p types.Player) (types.Player, error) {
	a := &args{dialect: s.dialect}
	query := "UPDATE players SET " +
		"name = " + a.add(p.Name) +
		", title = " + a.add(p.Title) +
		", race = " + a.add(string(p.Race)) +
		", profession = " + a.add(string(p.Profession)) +
		", birthday = " + a.add(p.Birthday) +
		", banned = " + a.add(p.Banned) +
		", experience = " + a.add(p.Experience) +
		", level = " + a.add(p.Level) +
		", until_next_level = " + a.add(p.UntilNextLevel) +
		" WHERE id = " + a.add(p.ID)

	stmt, err := s.q.PrepareContext(ctx, query)
	if err != nil {
		return types.Player{}, fmt.Errorf("Save: prepare update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, a.values...)
	if err != nil {
		return types.Player{}, fmt.Errorf("Save: update: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return types.Player{}, fmt.Errorf("Save: rows affected: %w", err)
	}
	if n == 0 {
		return types.Player{}, fmt.Errorf("no player found with id %d: %w", p.ID, storage.ErrPlayerNotFound)
	}

	return p, nil
}

// DeleteByID removes a player row by primary key.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	stmt, err := s.q.PrepareContext(ctx, "DELETE FROM players WHERE id = "+s.dialect.Placeholder(1))
	if err != nil {
		return fmt.Errorf("DeleteByID: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("DeleteByID: exec: %w", err)
	}
	return nil
}

// WithinTx runs fn in a database transaction. A store that is already
// bound to a transaction simply reuses it.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Storage) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithinTx: begin: %w", err)
	}

	if err := fn(&Store{db: s.db, q: tx, dialect: s.dialect, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("WithinTx: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPlayer reads the columns from one row IN ORDER; the order must
// match the columns constant above.
func scanPlayer(row scanner) (types.Player, error) {
	var (
		p          types.Player
		race, prof string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Title,
		&race,
		&prof,
		&p.Birthday,
		&p.Banned,
		&p.Experience,
		&p.Level,
		&p.UntilNextLevel,
	)
	if err != nil {
		return types.Player{}, err
	}
	p.Race = types.Race(race)
	p.Profession = types.Profession(prof)
	return p, nil
}
