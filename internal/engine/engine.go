// Package engine implements the playlist membership and ordering engine together with the
// catalog, playlist, listener and account operations built around it.
//
// Every operation runs inside one [repositories.Store.Transact] call and returns errors that
// wrap exactly one of the shared sentinels (ErrNotFound, ErrForbidden, ErrConflict,
// ErrValidation, ErrUnauthorized) or an unclassified storage failure. Domain events are
// published after the transaction commits; publishing failures are logged and dropped.
//
// Ordering invariant: for every playlist the membership positions are exactly 0..n-1.
// [Engine.AddSong] appends, [Engine.RemoveSong] closes the gap it leaves, [Engine.ReorderSongs]
// accepts only permutations, and [Engine.DeleteSong] removes the song from every playlist
// before deleting it.
package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

// Engine coordinates repositories inside transactions.
type Engine struct {
	store     *repositories.Store
	publisher events.Publisher
	logger    *log.Logger
}

// Options configures optional collaborators of an [Engine].
type Options struct {
	Publisher events.Publisher // defaults to [events.Nop]
	Logger    *log.Logger      // defaults to a discarding logger
}

// New creates an [Engine] over store.
func New(store *repositories.Store, opts Options) *Engine {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Engine{
		store:     store,
		publisher: opts.Publisher,
		logger:    shared.WithLogger(opts.Logger, "component", "engine"),
	}
}

// emit publishes ev and logs, rather than returns, any failure.
func (e *Engine) emit(ctx context.Context, ev events.Event) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Warn("failed to publish event", "type", ev.Type, "error", err)
	}
}

// ownedPlaylist loads a playlist and checks that actor owns it.
func ownedPlaylist(ctx context.Context, r *repositories.Repositories, actor, playlistID string) (*models.Playlist, error) {
	playlist, err := r.Playlists.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if !playlist.OwnedBy(actor) {
		return nil, fmt.Errorf("%w: playlist %s belongs to another user", shared.ErrForbidden, playlistID)
	}
	return playlist, nil
}

// ownedSong loads a song and checks that actor owns it. Songs without an owner are immutable.
func ownedSong(ctx context.Context, r *repositories.Repositories, actor, songID string) (*models.Song, error) {
	song, err := r.Songs.Get(ctx, songID)
	if err != nil {
		return nil, err
	}
	if !song.OwnedBy(actor) {
		return nil, fmt.Errorf("%w: song %s cannot be changed by this user", shared.ErrForbidden, songID)
	}
	return song, nil
}

// loadDetail reads a playlist and its songs in position order.
func loadDetail(ctx context.Context, r *repositories.Repositories, playlistID string) (*models.PlaylistDetail, error) {
	playlist, err := r.Playlists.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	entries, err := r.Memberships.Entries(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &models.PlaylistDetail{Playlist: *playlist, Songs: entries}, nil
}
