package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/playlister/internal/shared"
)

// PlaylistSort names a playlist sort key.
type PlaylistSort string

const (
	PlaylistSortCreated       PlaylistSort = "created"
	PlaylistSortName          PlaylistSort = "name"
	PlaylistSortUsername      PlaylistSort = "username"
	PlaylistSortListenerCount PlaylistSort = "listener_count"
	PlaylistSortSongCount     PlaylistSort = "song_count"
)

// SongSort names a song sort key.
type SongSort string

const (
	SongSortCreated       SongSort = "created"
	SongSortTitle         SongSort = "title"
	SongSortArtist        SongSort = "artist"
	SongSortYear          SongSort = "year"
	SongSortListenCount   SongSort = "listen_count"
	SongSortPlaylistCount SongSort = "playlist_count"
)

// PlaylistFilter holds the conjunctive predicates of a playlist search.
// Zero values are ignored.
type PlaylistFilter struct {
	Name       string
	Username   string
	SongTitle  string
	SongArtist string
	SongYear   int
	OwnerID    string
	Sort       PlaylistSort
	Ascending  bool
}

// Empty reports whether no search predicate is set. Sort fields are not predicates.
func (f PlaylistFilter) Empty() bool {
	return f.Name == "" && f.Username == "" && f.SongTitle == "" && f.SongArtist == "" && f.SongYear == 0 && f.OwnerID == ""
}

// SongFilter holds the conjunctive predicates of a catalog search.
type SongFilter struct {
	Title     string
	Artist    string
	Year      int
	OwnerID   string
	Sort      SongSort
	Ascending bool
}

// ParsePlaylistSort maps a query value to a [PlaylistSort]; blank selects created.
func ParsePlaylistSort(s string) (PlaylistSort, error) {
	switch key := PlaylistSort(strings.ToLower(strings.TrimSpace(s))); key {
	case "", "created_at":
		return PlaylistSortCreated, nil
	case PlaylistSortCreated, PlaylistSortName, PlaylistSortUsername, PlaylistSortListenerCount, PlaylistSortSongCount:
		return key, nil
	default:
		return "", fmt.Errorf("%w: unknown playlist sort %q", shared.ErrValidation, s)
	}
}

// ParseSongSort maps a query value to a [SongSort]; blank selects created.
func ParseSongSort(s string) (SongSort, error) {
	switch key := SongSort(strings.ToLower(strings.TrimSpace(s))); key {
	case "", "created_at":
		return SongSortCreated, nil
	case SongSortCreated, SongSortTitle, SongSortArtist, SongSortYear, SongSortListenCount, SongSortPlaylistCount:
		return key, nil
	default:
		return "", fmt.Errorf("%w: unknown song sort %q", shared.ErrValidation, s)
	}
}

// ParseSortOrder reports whether order asks for ascending results. Blank means descending.
func ParseSortOrder(order string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "desc":
		return false, nil
	case "asc":
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown sort order %q", shared.ErrValidation, order)
	}
}
