// package models defines the data model for the playlist service
package models

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/desertthunder/playlister/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	Key() string     // Key returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) error     // Create inserts a new model into the database
	Get(ctx context.Context, id string) (T, error) // Get retrieves a model by its ID
	Update(ctx context.Context, model T) error     // Update modifies an existing model in the database
	Delete(ctx context.Context, id string) error   // Delete removes a model from the database by its ID
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Sequence     int       `json:"-"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	AvatarImage  string    `json:"avatarImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the subset of [User] visible to other users.
type PublicUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AvatarImage string `json:"avatarImage"`
}

func (u *User) Key() string { return u.ID }

// Validate normalizes the email and checks required fields.
func (u *User) Validate() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)

	if u.Email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", shared.ErrValidation, u.Email)
	}
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrValidation)
	}
	return nil
}

// Public strips private fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, AvatarImage: u.AvatarImage}
}

// MinSongYear is the earliest accepted release year.
const MinSongYear = 1900

// Song is a catalog entry. An empty OwnerID marks a song nobody can edit.
type Song struct {
	ID            string    `json:"id"`
	Sequence      int       `json:"-"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Year          int       `json:"year"`
	MediaRef      string    `json:"mediaRef"`
	OwnerID       string    `json:"ownerId,omitempty"`
	ListenCount   int       `json:"listenCount"`
	PlaylistCount int       `json:"playlistCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (s *Song) Key() string { return s.ID }

// Validate trims text fields and checks the catalog identity is complete.
func (s *Song) Validate() error {
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	s.MediaRef = strings.TrimSpace(s.MediaRef)

	switch {
	case s.Title == "":
		return fmt.Errorf("%w: title is required", shared.ErrValidation)
	case s.Artist == "":
		return fmt.Errorf("%w: artist is required", shared.ErrValidation)
	case s.Year < MinSongYear || s.Year > time.Now().Year()+1:
		return fmt.Errorf("%w: year %d is out of range", shared.ErrValidation, s.Year)
	case s.MediaRef == "":
		return fmt.Errorf("%w: media reference is required", shared.ErrValidation)
	}
	return nil
}

// OwnedBy reports whether userID may mutate the song.
func (s *Song) OwnedBy(userID string) bool {
	return s.OwnerID != "" && s.OwnerID == userID
}

// Playlist is a named, owned list of songs.
//
// ListenerCount caches the number of rows in the playlist's listener ledger.
// OwnerUsername and SongCount are read-side values filled by queries.
type Playlist struct {
	ID            string    `json:"id"`
	Sequence      int       `json:"-"`
	Name          string    `json:"name"`
	OwnerID       string    `json:"ownerId"`
	OwnerUsername string    `json:"ownerUsername,omitempty"`
	ListenerCount int       `json:"listenerCount"`
	SongCount     int       `json:"songCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p *Playlist) Key() string { return p.ID }

func (p *Playlist) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}
	if p.OwnerID == "" {
		return fmt.Errorf("%w: playlist owner is required", shared.ErrValidation)
	}
	return nil
}

// OwnedBy reports whether userID owns the playlist.
func (p *Playlist) OwnedBy(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// Membership places a song at a position in a playlist.
type Membership struct {
	ID         int64  `json:"-"`
	PlaylistID string `json:"playlistId"`
	SongID     string `json:"songId"`
	Position   int    `json:"position"`
}

// PlaylistEntry is a song as it appears in a playlist.
type PlaylistEntry struct {
	Position int  `json:"position"`
	Song     Song `json:"song"`
}

// PlaylistDetail is a playlist together with its songs in position order.
type PlaylistDetail struct {
	Playlist
	Songs []PlaylistEntry `json:"songs"`
}

// SongIDs returns the song ids in position order.
func (d *PlaylistDetail) SongIDs() []string {
	ids := make([]string, len(d.Songs))
	for i, e := range d.Songs {
		ids[i] = e.Song.ID
	}
	return ids
}

// Listener is one distinct listener of a playlist.
type Listener struct {
	ID         int64     `json:"-"`
	PlaylistID string    `json:"playlistId"`
	Identifier string    `json:"identifier"`
	ListenedAt time.Time `json:"listenedAt"`
}
