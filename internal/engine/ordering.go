package engine

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

// AddSong appends songID to the end of the playlist.
//
// Fails with shared.ErrNotFound when the playlist or song is missing, shared.ErrForbidden
// when actor does not own the playlist and shared.ErrConflict when the song is already a member.
func (e *Engine) AddSong(ctx context.Context, actor, playlistID, songID string) (*models.PlaylistDetail, error) {
	var (
		detail   *models.PlaylistDetail
		position int
	)

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := ownedPlaylist(ctx, r, actor, playlistID); err != nil {
			return err
		}
		if _, err := r.Songs.Get(ctx, songID); err != nil {
			return err
		}

		_, member, err := r.Memberships.Position(ctx, playlistID, songID)
		if err != nil {
			return err
		}
		if member {
			return fmt.Errorf("%w: song %s is already in playlist %s", shared.ErrConflict, songID, playlistID)
		}

		if position, err = r.Memberships.Append(ctx, playlistID, songID); err != nil {
			return err
		}

		detail, err = loadDetail(ctx, r, playlistID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("song added", "playlist", playlistID, "song", songID, "position", position)
	e.emit(ctx, events.Event{
		Type: events.PlaylistSongAdded, PlaylistID: playlistID, SongID: songID, ActorID: actor,
		Payload: map[string]any{"position": position},
	})
	return detail, nil
}

// RemoveSong deletes songID from the playlist and shifts every later song one slot forward.
//
// A song that is not a member yields shared.ErrNotFound.
func (e *Engine) RemoveSong(ctx context.Context, actor, playlistID, songID string) (*models.PlaylistDetail, error) {
	var detail *models.PlaylistDetail

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := ownedPlaylist(ctx, r, actor, playlistID); err != nil {
			return err
		}

		removed, err := r.Memberships.Remove(ctx, playlistID, songID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: song %s is not in playlist %s", shared.ErrNotFound, songID, playlistID)
		}

		detail, err = loadDetail(ctx, r, playlistID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("song removed", "playlist", playlistID, "song", songID)
	e.emit(ctx, events.Event{Type: events.PlaylistSongRemoved, PlaylistID: playlistID, SongID: songID, ActorID: actor})
	return detail, nil
}

// ReorderSongs sets position i to orderedSongIDs[i].
//
// orderedSongIDs must be a permutation of the playlist's current songs: same length, no
// duplicates and no strangers. Anything else yields shared.ErrValidation and leaves the
// order untouched.
func (e *Engine) ReorderSongs(ctx context.Context, actor, playlistID string, orderedSongIDs []string) (*models.PlaylistDetail, error) {
	var detail *models.PlaylistDetail

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := ownedPlaylist(ctx, r, actor, playlistID); err != nil {
			return err
		}

		current, err := r.Memberships.SongIDs(ctx, playlistID)
		if err != nil {
			return err
		}
		if err := checkPermutation(current, orderedSongIDs); err != nil {
			return err
		}

		if err := r.Memberships.Reorder(ctx, playlistID, orderedSongIDs); err != nil {
			return err
		}

		detail, err = loadDetail(ctx, r, playlistID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.Event{
		Type: events.PlaylistReordered, PlaylistID: playlistID, ActorID: actor,
		Payload: map[string]any{"songIds": orderedSongIDs},
	})
	return detail, nil
}

// checkPermutation verifies that proposed reorders exactly the ids in current.
func checkPermutation(current, proposed []string) error {
	if len(proposed) != len(current) {
		return fmt.Errorf("%w: expected %d song ids, got %d", shared.ErrValidation, len(current), len(proposed))
	}

	members := make(map[string]bool, len(current))
	for _, id := range current {
		members[id] = true
	}

	seen := make(map[string]bool, len(proposed))
	for _, id := range proposed {
		if !members[id] {
			return fmt.Errorf("%w: song %s is not in the playlist", shared.ErrValidation, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: song %s is listed twice", shared.ErrValidation, id)
		}
		seen[id] = true
	}
	return nil
}

// Songs returns the playlist's songs in position order.
func (e *Engine) Songs(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	var entries []models.PlaylistEntry

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := r.Playlists.Get(ctx, playlistID); err != nil {
			return err
		}

		var err error
		entries, err = r.Memberships.Entries(ctx, playlistID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CompactPlaylist renumbers a playlist to 0..n-1 in its current relative order and reports
// whether anything moved. It repairs rows written outside the engine.
func (e *Engine) CompactPlaylist(ctx context.Context, playlistID string) (bool, error) {
	var moved bool

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := r.Playlists.Get(ctx, playlistID); err != nil {
			return err
		}

		var err error
		moved, err = r.Memberships.Compact(ctx, playlistID)
		return err
	})
	if err != nil {
		return false, err
	}

	if moved {
		e.logger.Info("playlist compacted", "playlist", playlistID)
	}
	return moved, nil
}
