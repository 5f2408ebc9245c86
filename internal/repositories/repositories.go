// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/playlister/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// DBTX is the query surface shared by [sql.DB] and [sql.Tx].
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories bundles every repository bound to one [DBTX].
type Repositories struct {
	Users       *UserRepository
	Songs       *SongRepository
	Playlists   *PlaylistRepository
	Memberships *MembershipRepository
	Listeners   *ListenerRepository

	q DBTX
}

// New binds all repositories to q.
func New(q DBTX) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(q),
		Songs:       NewSongRepository(q),
		Playlists:   NewPlaylistRepository(q),
		Memberships: NewMembershipRepository(q),
		Listeners:   NewListenerRepository(q),
		q:           q,
	}
}

// Store owns the connection pool and hands out transactional repository sets.
type Store struct {
	db *sql.DB
}

// NewStore creates a new [Store] over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Repositories returns repositories bound to the pool, for reads outside a transaction.
func (s *Store) Repositories() *Repositories {
	return New(s.db)
}

// Transact runs fn inside a single transaction. The transaction commits when fn returns nil
// and rolls back otherwise, including on panic.
//
// fn must only use the repositories it is given; an in-memory database has one connection
// and a query against the pool would block until the transaction ends.
func (s *Store) Transact(ctx context.Context, fn func(*Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(New(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Clear deletes every row of every domain table in one transaction, children first.
func (s *Store) Clear(ctx context.Context) error {
	return s.Transact(ctx, func(r *Repositories) error {
		for _, table := range []string{"playlist_listeners", "playlist_songs", "playlists", "songs", "users"} {
			if _, err := r.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., user #42, playlist #15).
// They are NOT exposed in API output but used internally for the "created" sort order.
func NextSequence(ctx context.Context, q DBTX, table string) (int, error) {
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	if err := q.QueryRowContext(ctx, query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}

// translate wraps err with context, mapping SQLite constraint violations onto shared sentinels.
func translate(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s: %v", shared.ErrConflict, msg, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s: %v", shared.ErrNotFound, msg, err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// notFound reports a missing row of kind with the given id.
func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
}

// likePattern builds a case-insensitive substring pattern for "LIKE ? ESCAPE '\'".
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

// direction renders a sort direction.
func direction(ascending bool) string {
	if ascending {
		return "ASC"
	}
	return "DESC"
}

// rowsAffected returns the affected row count of res.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
