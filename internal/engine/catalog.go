package engine

import (
	"context"

	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
)

// SongInput carries the editable fields of a song.
type SongInput struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Year     int    `json:"year"`
	MediaRef string `json:"mediaRef"`
}

// CreateSong adds a song owned by ownerID to the catalog. An empty ownerID creates a song
// nobody can edit.
func (e *Engine) CreateSong(ctx context.Context, ownerID string, in SongInput) (*models.Song, error) {
	song := &models.Song{Title: in.Title, Artist: in.Artist, Year: in.Year, MediaRef: in.MediaRef, OwnerID: ownerID}

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		return r.Songs.Create(ctx, song)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.Event{Type: events.SongCreated, SongID: song.ID, ActorID: ownerID})
	return song, nil
}

// GetSong returns one song with its playlist count.
func (e *Engine) GetSong(ctx context.Context, songID string) (*models.Song, error) {
	return e.store.Repositories().Songs.Get(ctx, songID)
}

// UpdateSong replaces the editable fields of a song owned by actor.
func (e *Engine) UpdateSong(ctx context.Context, actor, songID string, in SongInput) (*models.Song, error) {
	var song *models.Song

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		var err error
		if song, err = ownedSong(ctx, r, actor, songID); err != nil {
			return err
		}

		song.Title, song.Artist, song.Year, song.MediaRef = in.Title, in.Artist, in.Year, in.MediaRef
		return r.Songs.Update(ctx, song)
	})
	if err != nil {
		return nil, err
	}
	return song, nil
}

// DeleteSong removes a song owned by actor from every playlist that contains it, closing
// each gap, and then deletes it.
func (e *Engine) DeleteSong(ctx context.Context, actor, songID string) error {
	var affected []string

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := ownedSong(ctx, r, actor, songID); err != nil {
			return err
		}

		var err error
		if affected, err = r.Memberships.PlaylistsContaining(ctx, songID); err != nil {
			return err
		}

		for _, playlistID := range affected {
			if _, err := r.Memberships.Remove(ctx, playlistID, songID); err != nil {
				return err
			}
		}

		return r.Songs.Delete(ctx, songID)
	})
	if err != nil {
		return err
	}

	e.logger.Info("song deleted", "song", songID, "playlists", len(affected))
	e.emit(ctx, events.Event{
		Type: events.SongDeleted, SongID: songID, ActorID: actor,
		Payload: map[string]any{"playlistIds": affected},
	})
	return nil
}

// ListSongs searches the catalog.
func (e *Engine) ListSongs(ctx context.Context, filter models.SongFilter) ([]*models.Song, error) {
	return e.store.Repositories().Songs.List(ctx, filter)
}

// RecordSongPlay increments the song's listen count and returns the new value.
func (e *Engine) RecordSongPlay(ctx context.Context, songID string) (int, error) {
	var count int

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		var err error
		count, err = r.Songs.IncrementListenCount(ctx, songID)
		return err
	})
	return count, err
}
