package engine

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
)

// CopySong duplicates a song's title, artist, year and media reference under newOwnerID with
// a zero listen count. It fails with shared.ErrConflict when newOwnerID already owns an
// identical song, including when newOwnerID owns the source.
func (e *Engine) CopySong(ctx context.Context, songID, newOwnerID string) (*models.Song, error) {
	var song *models.Song

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := r.Users.Get(ctx, newOwnerID); err != nil {
			return err
		}

		source, err := r.Songs.Get(ctx, songID)
		if err != nil {
			return err
		}

		song = &models.Song{
			Title:    source.Title,
			Artist:   source.Artist,
			Year:     source.Year,
			MediaRef: source.MediaRef,
			OwnerID:  newOwnerID,
		}
		return r.Songs.Create(ctx, song)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("song copied", "source", songID, "copy", song.ID, "owner", newOwnerID)
	e.emit(ctx, events.Event{
		Type: events.SongCopied, SongID: song.ID, ActorID: newOwnerID,
		Payload: map[string]any{"sourceId": songID},
	})
	return song, nil
}

// CopyPlaylist creates a playlist for newOwnerID with the source's songs in the same order.
//
// The copy is named "<name> (Copy)", or "<name> (Copy N)" with the smallest N >= 1 that
// newOwnerID has not used yet. It starts with no listeners.
func (e *Engine) CopyPlaylist(ctx context.Context, playlistID, newOwnerID string) (*models.PlaylistDetail, error) {
	var detail *models.PlaylistDetail

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		source, err := r.Playlists.Get(ctx, playlistID)
		if err != nil {
			return err
		}
		if _, err := r.Users.Get(ctx, newOwnerID); err != nil {
			return err
		}

		base := source.Name + " (Copy"
		taken, err := r.Playlists.NamesWithPrefix(ctx, newOwnerID, base)
		if err != nil {
			return err
		}

		copied := &models.Playlist{Name: copyName(source.Name, taken), OwnerID: newOwnerID}
		if err := r.Playlists.Create(ctx, copied); err != nil {
			return err
		}

		if _, err := r.Memberships.CopyAll(ctx, source.ID, copied.ID); err != nil {
			return err
		}

		detail, err = loadDetail(ctx, r, copied.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("playlist copied", "source", playlistID, "copy", detail.ID, "name", detail.Name)
	e.emit(ctx, events.Event{
		Type: events.PlaylistCopied, PlaylistID: detail.ID, ActorID: newOwnerID,
		Payload: map[string]any{"sourceId": playlistID, "name": detail.Name},
	})
	return detail, nil
}

// copyName picks the first unused copy name for name among taken.
func copyName(name string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}

	candidate := name + " (Copy)"
	for n := 1; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s (Copy %d)", name, n)
	}
	return candidate
}
