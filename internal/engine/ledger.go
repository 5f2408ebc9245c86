package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

// ListenerIdentity derives the ledger key for a listen: "user_<id>" for signed-in users,
// the client's session id for guests that send one, and a fresh "guest_<uuid>" otherwise.
func ListenerIdentity(userID, sessionID string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return "user_" + userID
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		return sessionID
	}
	return "guest_" + shared.GenerateID()
}

// RecordListener adds identifier to the playlist's ledger if it is not there yet and, only
// then, increments the cached listener count. It reports whether the listener was new.
func (e *Engine) RecordListener(ctx context.Context, playlistID, identifier string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false, fmt.Errorf("%w: listener identifier is required", shared.ErrValidation)
	}

	var (
		inserted bool
		count    int
	)

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		playlist, err := r.Playlists.Get(ctx, playlistID)
		if err != nil {
			return err
		}
		count = playlist.ListenerCount

		if inserted, err = r.Listeners.Record(ctx, playlistID, identifier); err != nil || !inserted {
			return err
		}

		count, err = r.Playlists.IncrementListenerCount(ctx, playlistID)
		return err
	})
	if err != nil {
		return false, err
	}

	if inserted {
		e.emit(ctx, events.Event{
			Type: events.PlaylistListenerRecorded, PlaylistID: playlistID,
			Payload: map[string]any{"listenerCount": count},
		})
	}
	return inserted, nil
}

// ReconcileListenerCount rewrites the cached listener count from the ledger and returns it.
func (e *Engine) ReconcileListenerCount(ctx context.Context, playlistID string) (int, error) {
	var count int

	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		playlist, err := r.Playlists.Get(ctx, playlistID)
		if err != nil {
			return err
		}

		if count, err = r.Listeners.Count(ctx, playlistID); err != nil {
			return err
		}
		if count == playlist.ListenerCount {
			return nil
		}

		e.logger.Warn("listener count drift", "playlist", playlistID, "cached", playlist.ListenerCount, "ledger", count)
		return r.Playlists.SetListenerCount(ctx, playlistID, count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
