package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/playlister/internal/models"
)

// ListenerRepository is the append-only ledger of distinct playlist listeners.
type ListenerRepository struct {
	db DBTX
}

// NewListenerRepository creates a new ListenerRepository with the given database handle
func NewListenerRepository(db DBTX) *ListenerRepository {
	return &ListenerRepository{db: db}
}

// Record inserts (playlistID, identifier) unless it is already present and reports whether a
// row was inserted. A missing playlist yields shared.ErrNotFound.
func (r *ListenerRepository) Record(ctx context.Context, playlistID, identifier string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO playlist_listeners (playlist_id, listener_identifier, listened_at)
		VALUES (?, ?, ?)
		ON CONFLICT (playlist_id, listener_identifier) DO NOTHING
	`, playlistID, identifier, time.Now().UTC())
	if err != nil {
		return false, translate(err, "failed to record listener of playlist %s", playlistID)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Count returns the number of distinct listeners of a playlist.
func (r *ListenerRepository) Count(ctx context.Context, playlistID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM playlist_listeners WHERE playlist_id = ?", playlistID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count listeners: %w", err)
	}
	return n, nil
}

// List returns the ledger of a playlist, oldest first.
func (r *ListenerRepository) List(ctx context.Context, playlistID string) ([]models.Listener, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, playlist_id, listener_identifier, listened_at
		FROM playlist_listeners
		WHERE playlist_id = ?
		ORDER BY id ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listeners: %w", err)
	}
	defer rows.Close()

	listeners := []models.Listener{}
	for rows.Next() {
		var l models.Listener
		if err := rows.Scan(&l.ID, &l.PlaylistID, &l.Identifier, &l.ListenedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listener: %w", err)
		}
		listeners = append(listeners, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return listeners, nil
}
