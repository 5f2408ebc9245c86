package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

const untitledPrefix = "Untitled "

// CreatePlaylist creates an empty playlist for ownerID. A blank name becomes "Untitled N"
// with the smallest N >= 0 the owner has not used.
func (e *Engine) CreatePlaylist(ctx context.Context, ownerID, name string) (*models.PlaylistDetail, error) {
	var detail *models.PlaylistDetail
	name = strings.TrimSpace(name)

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if name == "" {
			taken, err := r.Playlists.NamesWithPrefix(ctx, ownerID, untitledPrefix)
			if err != nil {
				return err
			}
			name = untitledName(taken)
		}

		exists, err := r.Playlists.NameExists(ctx, ownerID, name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: a playlist named %q already exists", shared.ErrConflict, name)
		}

		playlist := &models.Playlist{Name: name, OwnerID: ownerID}
		if err := r.Playlists.Create(ctx, playlist); err != nil {
			return err
		}

		detail, err = loadDetail(ctx, r, playlist.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, events.Event{Type: events.PlaylistCreated, PlaylistID: detail.ID, ActorID: ownerID})
	return detail, nil
}

// untitledName returns "Untitled N" for the smallest N >= 0 absent from taken.
func untitledName(taken []string) string {
	used := make(map[int]bool, len(taken))
	for _, name := range taken {
		digits, ok := strings.CutPrefix(name, untitledPrefix)
		if !ok || digits == "" || strings.Trim(digits, "0123456789") != "" {
			continue
		}
		if n, err := strconv.Atoi(digits); err == nil {
			used[n] = true
		}
	}

	n := 0
	for used[n] {
		n++
	}
	return untitledPrefix + strconv.Itoa(n)
}

// GetPlaylist returns a playlist with its songs in position order.
func (e *Engine) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	var detail *models.PlaylistDetail

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		var err error
		detail, err = loadDetail(ctx, r, playlistID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// RenamePlaylist changes the name of a playlist owned by actor.
func (e *Engine) RenamePlaylist(ctx context.Context, actor, playlistID, name string) (*models.PlaylistDetail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}

	var (
		detail  *models.PlaylistDetail
		oldName string
	)

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		playlist, err := ownedPlaylist(ctx, r, actor, playlistID)
		if err != nil {
			return err
		}

		oldName = playlist.Name
		if name != oldName {
			playlist.Name = name
			if err := r.Playlists.Update(ctx, playlist); err != nil {
				return err
			}
		}

		detail, err = loadDetail(ctx, r, playlistID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if name != oldName {
		e.emit(ctx, events.Event{
			Type: events.PlaylistRenamed, PlaylistID: playlistID, ActorID: actor,
			Payload: map[string]any{"from": oldName, "to": name},
		})
	}
	return detail, nil
}

// DeletePlaylist deletes a playlist owned by actor along with its memberships and ledger.
func (e *Engine) DeletePlaylist(ctx context.Context, actor, playlistID string) error {
	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		if _, err := ownedPlaylist(ctx, r, actor, playlistID); err != nil {
			return err
		}
		return r.Playlists.Delete(ctx, playlistID)
	})
	if err != nil {
		return err
	}

	e.emit(ctx, events.Event{Type: events.PlaylistDeleted, PlaylistID: playlistID, ActorID: actor})
	return nil
}

// ListPlaylists searches playlists. A signed-in viewer who sets no predicate sees only
// their own playlists.
func (e *Engine) ListPlaylists(ctx context.Context, viewerID string, filter models.PlaylistFilter) ([]*models.Playlist, error) {
	if viewerID != "" && filter.Empty() {
		filter.OwnerID = viewerID
	}
	return e.store.Repositories().Playlists.List(ctx, filter)
}
