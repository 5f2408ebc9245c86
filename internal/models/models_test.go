package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/playlister/internal/shared"
)

func TestUserValidate(t *testing.T) {
	t.Run("normalizes email", func(t *testing.T) {
		u := &User{Email: "  Ada@Example.COM ", Username: " ada ", PasswordHash: "x"}
		if err := u.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Email != "ada@example.com" {
			t.Errorf("expected lower-cased email, got %q", u.Email)
		}
		if u.Username != "ada" {
			t.Errorf("expected trimmed username, got %q", u.Username)
		}
	})

	tc := []struct {
		name string
		user User
	}{
		{name: "missing email", user: User{Username: "ada", PasswordHash: "x"}},
		{name: "bad email", user: User{Email: "nope", Username: "ada", PasswordHash: "x"}},
		{name: "missing username", user: User{Email: "a@b.co", PasswordHash: "x"}},
		{name: "missing hash", user: User{Email: "a@b.co", Username: "ada"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.user.Validate(); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSongValidate(t *testing.T) {
	valid := Song{Title: "Song", Artist: "Band", Year: 1999, MediaRef: "abc"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, mutate := range map[string]func(*Song){
		"title":  func(s *Song) { s.Title = "  " },
		"artist": func(s *Song) { s.Artist = "" },
		"year":   func(s *Song) { s.Year = 1850 },
		"future": func(s *Song) { s.Year = time.Now().Year() + 2 },
		"media":  func(s *Song) { s.MediaRef = "" },
	} {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			if err := s.Validate(); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	t.Run("OwnedBy", func(t *testing.T) {
		unowned := Song{}
		if unowned.OwnedBy("") {
			t.Error("a song without owner must not be owned by the empty id")
		}
		owned := Song{OwnerID: "u1"}
		if !owned.OwnedBy("u1") || owned.OwnedBy("u2") {
			t.Error("OwnedBy mismatch")
		}
	})
}

func TestPlaylistValidate(t *testing.T) {
	p := &Playlist{Name: "  Road Trip ", OwnerID: "u1"}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Road Trip" {
		t.Errorf("expected trimmed name, got %q", p.Name)
	}

	if err := (&Playlist{Name: " ", OwnerID: "u1"}).Validate(); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestPlaylistDetailSongIDs(t *testing.T) {
	d := PlaylistDetail{Songs: []PlaylistEntry{
		{Position: 0, Song: Song{ID: "s3"}},
		{Position: 1, Song: Song{ID: "s1"}},
	}}
	got := d.SongIDs()
	if len(got) != 2 || got[0] != "s3" || got[1] != "s1" {
		t.Errorf("SongIDs() = %v", got)
	}
}

func TestParseSorts(t *testing.T) {
	t.Run("playlist", func(t *testing.T) {
		tc := []struct {
			in   string
			want PlaylistSort
			err  bool
		}{
			{in: "", want: PlaylistSortCreated},
			{in: "created_at", want: PlaylistSortCreated},
			{in: "Name", want: PlaylistSortName},
			{in: "song_count", want: PlaylistSortSongCount},
			{in: "popularity", err: true},
		}
		for _, tt := range tc {
			got, err := ParsePlaylistSort(tt.in)
			if tt.err {
				if !errors.Is(err, shared.ErrValidation) {
					t.Errorf("ParsePlaylistSort(%q) expected ErrValidation, got %v", tt.in, err)
				}
				continue
			}
			if err != nil || got != tt.want {
				t.Errorf("ParsePlaylistSort(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		}
	})

	t.Run("song", func(t *testing.T) {
		if got, err := ParseSongSort("playlist_count"); err != nil || got != SongSortPlaylistCount {
			t.Errorf("ParseSongSort(playlist_count) = %q, %v", got, err)
		}
		if _, err := ParseSongSort("rating"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("order", func(t *testing.T) {
		if asc, err := ParseSortOrder("ASC"); err != nil || !asc {
			t.Errorf("ParseSortOrder(ASC) = %v, %v", asc, err)
		}
		if asc, err := ParseSortOrder(""); err != nil || asc {
			t.Errorf("ParseSortOrder('') = %v, %v", asc, err)
		}
		if _, err := ParseSortOrder("sideways"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("filter empty", func(t *testing.T) {
		if !(PlaylistFilter{Sort: PlaylistSortName}).Empty() {
			t.Error("sort alone is not a predicate")
		}
		if (PlaylistFilter{SongYear: 1999}).Empty() {
			t.Error("song year is a predicate")
		}
	})
}
