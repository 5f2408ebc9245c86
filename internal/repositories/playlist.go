package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

var _ models.Repository[*models.Playlist] = (*PlaylistRepository)(nil)

const playlistSelect = `
	SELECT p.id, p.sequence, p.name, p.owner_id, COALESCE(u.username, ''), p.listener_count,
		(SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.id) AS song_count,
		p.created_at, p.updated_at
	FROM playlists p
	LEFT JOIN users u ON u.id = p.owner_id
`

// PlaylistRepository implements models.Repository[*models.Playlist] for owned playlists.
//
// Names are unique per owner; listener_count is a cache of the listener ledger and is only
// changed through [PlaylistRepository.IncrementListenerCount] and [PlaylistRepository.SetListenerCount].
type PlaylistRepository struct {
	db DBTX
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database handle
func NewPlaylistRepository(db DBTX) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with generated ID and sequence and a zero listener count.
// A duplicate name for the owner yields shared.ErrConflict; a missing owner shared.ErrNotFound.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	playlist.ID = shared.GenerateID()
	playlist.Sequence = sequence
	playlist.ListenerCount = 0
	playlist.SongCount = 0
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	query := `
		INSERT INTO playlists (id, sequence, name, owner_id, listener_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		playlist.ID, playlist.Sequence, playlist.Name, playlist.OwnerID, playlist.CreatedAt, playlist.UpdatedAt,
	)
	if err != nil {
		return translate(err, "failed to insert playlist %q", playlist.Name)
	}

	return nil
}

// Get retrieves a playlist by ID with its owner's username and song count
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, playlistSelect+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("playlist", id)
	}
	return playlist, err
}

// Update renames a playlist.
func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return err
	}

	playlist.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		"UPDATE playlists SET name = ?, updated_at = ? WHERE id = ?",
		playlist.Name, playlist.UpdatedAt, playlist.ID,
	)
	if err != nil {
		return translate(err, "failed to update playlist %s", playlist.ID)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("playlist", playlist.ID)
	}
	return nil
}

// Delete removes a playlist. Memberships and listener rows cascade.
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return translate(err, "failed to delete playlist %s", id)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("playlist", id)
	}
	return nil
}

// NameExists reports whether ownerID already has a playlist called name.
func (r *PlaylistRepository) NameExists(ctx context.Context, ownerID, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM playlists WHERE owner_id = ? AND name = ?)", ownerID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check playlist name: %w", err)
	}
	return exists, nil
}

// NamesWithPrefix returns ownerID's playlist names starting with prefix.
func (r *PlaylistRepository) NamesWithPrefix(ctx context.Context, ownerID, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM playlists WHERE owner_id = ? AND substr(name, 1, length(?)) = ?", ownerID, prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan playlist name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return names, nil
}

// IncrementListenerCount adds one to the cached listener count.
func (r *PlaylistRepository) IncrementListenerCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"UPDATE playlists SET listener_count = listener_count + 1 WHERE id = ? RETURNING listener_count", id,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound("playlist", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment listener count: %w", err)
	}
	return count, nil
}

// SetListenerCount overwrites the cached listener count.
func (r *PlaylistRepository) SetListenerCount(ctx context.Context, id string, count int) error {
	res, err := r.db.ExecContext(ctx, "UPDATE playlists SET listener_count = ? WHERE id = ?", count, id)
	if err != nil {
		return fmt.Errorf("failed to set listener count: %w", err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("playlist", id)
	}
	return nil
}

// IDs returns every playlist id in creation order.
func (r *PlaylistRepository) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM playlists ORDER BY sequence ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist ids: %w", err)
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

const songExists = `
	AND EXISTS (
		SELECT 1 FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = p.id AND %s
	)
`

// List retrieves all playlists matching the filter. Each song predicate is its own EXISTS,
// so "title and artist" may be satisfied by two different songs of the same playlist.
func (r *PlaylistRepository) List(ctx context.Context, filter models.PlaylistFilter) ([]*models.Playlist, error) {
	query := playlistSelect + " WHERE 1 = 1"
	args := []any{}

	if filter.Name != "" {
		query += ` AND p.name LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter.Name))
	}
	if filter.Username != "" {
		query += ` AND u.username LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter.Username))
	}
	if filter.SongTitle != "" {
		query += fmt.Sprintf(songExists, `s.title LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.SongTitle))
	}
	if filter.SongArtist != "" {
		query += fmt.Sprintf(songExists, `s.artist LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.SongArtist))
	}
	if filter.SongYear != 0 {
		query += fmt.Sprintf(songExists, "s.year = ?")
		args = append(args, filter.SongYear)
	}
	if filter.OwnerID != "" {
		query += " AND p.owner_id = ?"
		args = append(args, filter.OwnerID)
	}

	dir := direction(filter.Ascending)
	switch filter.Sort {
	case models.PlaylistSortName:
		query += fmt.Sprintf(" ORDER BY LOWER(p.name) %s, p.sequence %s", dir, dir)
	case models.PlaylistSortUsername:
		query += fmt.Sprintf(" ORDER BY LOWER(u.username) %s, p.sequence %s", dir, dir)
	case models.PlaylistSortListenerCount:
		query += fmt.Sprintf(" ORDER BY p.listener_count %s, p.sequence %s", dir, dir)
	case models.PlaylistSortSongCount:
		query += fmt.Sprintf(" ORDER BY song_count %s, p.sequence %s", dir, dir)
	default:
		query += fmt.Sprintf(" ORDER BY p.sequence %s", dir)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*models.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// scanPlaylist scans a [playlistSelect] row into a [models.Playlist]. sql.ErrNoRows passes through unwrapped.
func scanPlaylist(row scanner) (*models.Playlist, error) {
	var p models.Playlist

	err := row.Scan(&p.ID, &p.Sequence, &p.Name, &p.OwnerID, &p.OwnerUsername, &p.ListenerCount, &p.SongCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	return &p, nil
}
