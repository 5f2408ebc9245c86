package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/playlister/internal/models"
)

// MembershipRepository manages the ordered playlist_songs join table.
//
// For every playlist the stored positions are exactly 0..n-1. SQLite checks
// UNIQUE(playlist_id, position) row by row during an UPDATE, so every write that moves more
// than one row first parks the affected rows on distinct negative positions and then moves
// them to their final slots.
type MembershipRepository struct {
	db DBTX
}

// NewMembershipRepository creates a new MembershipRepository with the given database handle
func NewMembershipRepository(db DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// MaxPosition returns the highest position in the playlist, or -1 when it is empty.
func (r *MembershipRepository) MaxPosition(ctx context.Context, playlistID string) (int, error) {
	var last int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) FROM playlist_songs WHERE playlist_id = ?", playlistID,
	).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to read max position: %w", err)
	}
	return last, nil
}

// Count returns the number of songs in the playlist.
func (r *MembershipRepository) Count(ctx context.Context, playlistID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM playlist_songs WHERE playlist_id = ?", playlistID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count playlist songs: %w", err)
	}
	return n, nil
}

// Position returns the position of songID in the playlist and whether it is a member.
func (r *MembershipRepository) Position(ctx context.Context, playlistID, songID string) (int, bool, error) {
	var pos int
	err := r.db.QueryRowContext(ctx,
		"SELECT position FROM playlist_songs WHERE playlist_id = ? AND song_id = ?", playlistID, songID,
	).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read position: %w", err)
	}
	return pos, true, nil
}

// Insert places songID at position. A duplicate song or taken position yields shared.ErrConflict;
// a missing playlist or song yields shared.ErrNotFound.
func (r *MembershipRepository) Insert(ctx context.Context, playlistID, songID string, position int) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)", playlistID, songID, position,
	)
	if err != nil {
		return translate(err, "failed to add song %s to playlist %s", songID, playlistID)
	}
	return nil
}

// Append inserts songID after the current last song and returns its position.
func (r *MembershipRepository) Append(ctx context.Context, playlistID, songID string) (int, error) {
	last, err := r.MaxPosition(ctx, playlistID)
	if err != nil {
		return 0, err
	}

	pos := last + 1
	if err := r.Insert(ctx, playlistID, songID, pos); err != nil {
		return 0, err
	}
	return pos, nil
}

// Remove deletes songID from the playlist and closes the gap it leaves.
// It returns false when the song was not a member.
func (r *MembershipRepository) Remove(ctx context.Context, playlistID, songID string) (bool, error) {
	pos, ok, err := r.Position(ctx, playlistID, songID)
	if err != nil || !ok {
		return false, err
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?", playlistID, songID,
	); err != nil {
		return false, translate(err, "failed to remove song %s from playlist %s", songID, playlistID)
	}

	if err := r.shiftDown(ctx, playlistID, pos); err != nil {
		return false, err
	}
	return true, nil
}

// shiftDown moves every row after pos one slot towards the front.
func (r *MembershipRepository) shiftDown(ctx context.Context, playlistID string, pos int) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE playlist_songs SET position = -position WHERE playlist_id = ? AND position > ?", playlistID, pos,
	); err != nil {
		return translate(err, "failed to stage positions of playlist %s", playlistID)
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE playlist_songs SET position = -position - 1 WHERE playlist_id = ? AND position < 0", playlistID,
	); err != nil {
		return translate(err, "failed to shift positions of playlist %s", playlistID)
	}
	return nil
}

// SongIDs returns the playlist's song ids in position order.
func (r *MembershipRepository) SongIDs(ctx context.Context, playlistID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position ASC", playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan song id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// List returns the raw membership rows of a playlist in position order.
func (r *MembershipRepository) List(ctx context.Context, playlistID string) ([]models.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, playlist_id, song_id, position FROM playlist_songs WHERE playlist_id = ? ORDER BY position ASC", playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.PlaylistID, &m.SongID, &m.Position); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return memberships, nil
}

// Entries returns the playlist's songs joined with their catalog rows, in position order.
func (r *MembershipRepository) Entries(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	query := `
		SELECT m.position, s.id, s.sequence, s.title, s.artist, s.year, s.media_ref, s.owner_id, s.listen_count,
			(SELECT COUNT(*) FROM playlist_songs ps WHERE ps.song_id = s.id) AS playlist_count,
			s.created_at, s.updated_at
		FROM playlist_songs m
		JOIN songs s ON s.id = m.song_id
		WHERE m.playlist_id = ?
		ORDER BY m.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist entries: %w", err)
	}
	defer rows.Close()

	entries := []models.PlaylistEntry{}
	for rows.Next() {
		var (
			e     models.PlaylistEntry
			owner sql.NullString
		)
		s := &e.Song
		err := rows.Scan(&e.Position, &s.ID, &s.Sequence, &s.Title, &s.Artist, &s.Year, &s.MediaRef, &owner,
			&s.ListenCount, &s.PlaylistCount, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist entry: %w", err)
		}
		s.OwnerID = owner.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Reorder assigns position i to orderedSongIDs[i]. The caller guarantees the ids are a
// permutation of the playlist's current songs.
func (r *MembershipRepository) Reorder(ctx context.Context, playlistID string, orderedSongIDs []string) error {
	const stmt = "UPDATE playlist_songs SET position = ? WHERE playlist_id = ? AND song_id = ?"

	for i, id := range orderedSongIDs {
		if _, err := r.db.ExecContext(ctx, stmt, -1-i, playlistID, id); err != nil {
			return translate(err, "failed to stage song %s", id)
		}
	}

	for i, id := range orderedSongIDs {
		if _, err := r.db.ExecContext(ctx, stmt, i, playlistID, id); err != nil {
			return translate(err, "failed to place song %s", id)
		}
	}
	return nil
}

// Compact renumbers the playlist to 0..n-1 keeping the current relative order.
// It reports whether any row moved.
func (r *MembershipRepository) Compact(ctx context.Context, playlistID string) (bool, error) {
	memberships, err := r.List(ctx, playlistID)
	if err != nil {
		return false, err
	}

	dense := true
	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.SongID
		if m.Position != i {
			dense = false
		}
	}
	if dense {
		return false, nil
	}

	if err := r.Reorder(ctx, playlistID, ids); err != nil {
		return false, err
	}
	return true, nil
}

// CopyAll duplicates every membership row of fromID into toID with the same positions.
func (r *MembershipRepository) CopyAll(ctx context.Context, fromID, toID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id, position)
		SELECT ?, song_id, position FROM playlist_songs WHERE playlist_id = ? ORDER BY position ASC
	`, toID, fromID)
	if err != nil {
		return 0, translate(err, "failed to copy songs of playlist %s", fromID)
	}

	n, err := rowsAffected(res)
	return int(n), err
}

// PlaylistsContaining returns the ids of playlists that include songID.
func (r *MembershipRepository) PlaylistsContaining(ctx context.Context, songID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT playlist_id FROM playlist_songs WHERE song_id = ? ORDER BY playlist_id", songID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists of song: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}
