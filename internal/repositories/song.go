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

var _ models.Repository[*models.Song] = (*SongRepository)(nil)

const songSelect = `
	SELECT s.id, s.sequence, s.title, s.artist, s.year, s.media_ref, s.owner_id, s.listen_count,
		(SELECT COUNT(*) FROM playlist_songs ps WHERE ps.song_id = s.id) AS playlist_count,
		s.created_at, s.updated_at
	FROM songs s
`

// SongRepository implements models.Repository[*models.Song] for the song catalog.
type SongRepository struct {
	db DBTX
}

// NewSongRepository creates a new SongRepository with the given database handle
func NewSongRepository(db DBTX) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a new song with generated ID and sequence.
// An identical (title, artist, year, owner) song yields shared.ErrConflict.
func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	song.ID = shared.GenerateID()
	song.Sequence = sequence
	song.ListenCount = 0
	song.PlaylistCount = 0
	song.CreatedAt = now
	song.UpdatedAt = now

	query := `
		INSERT INTO songs (id, sequence, title, artist, year, media_ref, owner_id, listen_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		song.ID, song.Sequence, song.Title, song.Artist, song.Year, song.MediaRef, nullString(song.OwnerID), song.CreatedAt, song.UpdatedAt,
	)
	if err != nil {
		return translate(err, "failed to insert song %q by %q", song.Title, song.Artist)
	}

	return nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	song, err := scanSong(r.db.QueryRowContext(ctx, songSelect+" WHERE s.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("song", id)
	}
	return song, err
}

// FindByIdentity looks up the song with the given catalog identity.
func (r *SongRepository) FindByIdentity(ctx context.Context, title, artist string, year int, ownerID string) (*models.Song, error) {
	query := songSelect + " WHERE s.title = ? AND s.artist = ? AND s.year = ? AND COALESCE(s.owner_id, '') = ?"

	song, err := scanSong(r.db.QueryRowContext(ctx, query, title, artist, year, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("song", fmt.Sprintf("%q by %q (%d)", title, artist, year))
	}
	return song, err
}

// Update writes title, artist, year and media reference. Ownership never changes.
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}

	song.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE songs
		SET title = ?, artist = ?, year = ?, media_ref = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query, song.Title, song.Artist, song.Year, song.MediaRef, song.UpdatedAt, song.ID)
	if err != nil {
		return translate(err, "failed to update song %s", song.ID)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("song", song.ID)
	}
	return nil
}

// Delete removes a song. The song must no longer belong to any playlist.
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return translate(err, "failed to delete song %s", id)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("song", id)
	}
	return nil
}

// IncrementListenCount adds one play to the song.
func (r *SongRepository) IncrementListenCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"UPDATE songs SET listen_count = listen_count + 1 WHERE id = ? RETURNING listen_count", id,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound("song", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment listen count: %w", err)
	}
	return count, nil
}

// List retrieves all songs matching the filter.
func (r *SongRepository) List(ctx context.Context, filter models.SongFilter) ([]*models.Song, error) {
	query := songSelect + " WHERE 1 = 1"
	args := []any{}

	if filter.Title != "" {
		query += ` AND s.title LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter.Title))
	}
	if filter.Artist != "" {
		query += ` AND s.artist LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter.Artist))
	}
	if filter.Year != 0 {
		query += " AND s.year = ?"
		args = append(args, filter.Year)
	}
	if filter.OwnerID != "" {
		query += " AND s.owner_id = ?"
		args = append(args, filter.OwnerID)
	}

	dir := direction(filter.Ascending)
	switch filter.Sort {
	case models.SongSortTitle:
		query += fmt.Sprintf(" ORDER BY LOWER(s.title) %s, s.sequence %s", dir, dir)
	case models.SongSortArtist:
		query += fmt.Sprintf(" ORDER BY LOWER(s.artist) %s, s.sequence %s", dir, dir)
	case models.SongSortYear:
		query += fmt.Sprintf(" ORDER BY s.year %s, s.sequence %s", dir, dir)
	case models.SongSortListenCount:
		query += fmt.Sprintf(" ORDER BY s.listen_count %s, s.sequence %s", dir, dir)
	case models.SongSortPlaylistCount:
		query += fmt.Sprintf(" ORDER BY playlist_count %s, s.sequence %s", dir, dir)
	default:
		query += fmt.Sprintf(" ORDER BY s.sequence %s", dir)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []*models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSong scans a [songSelect] row into a [models.Song]. sql.ErrNoRows passes through unwrapped.
func scanSong(row scanner) (*models.Song, error) {
	var (
		s     models.Song
		owner sql.NullString
	)

	err := row.Scan(&s.ID, &s.Sequence, &s.Title, &s.Artist, &s.Year, &s.MediaRef, &owner, &s.ListenCount, &s.PlaylistCount, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	s.OwnerID = owner.String
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
