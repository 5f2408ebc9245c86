package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

const (
	// DefaultSeedURL is the public PlaylisterData document.
	DefaultSeedURL = "https://raw.githubusercontent.com/TheMcKillaGorilla/PlaylisterData/main/public/data/PlaylisterData.json"

	// DefaultSeedPassword is the password given to every seeded account.
	DefaultSeedPassword = "password123"

	maxFieldLength    = 255
	maxMediaRefLength = 20
)

// SeedData is a PlaylisterData document.
type SeedData struct {
	Users     []SeedUser     `json:"users"`
	Playlists []SeedPlaylist `json:"playlists"`
}

// SeedUser is an account in a [SeedData] document.
type SeedUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SeedPlaylist is a playlist in a [SeedData] document.
type SeedPlaylist struct {
	Name       string     `json:"name"`
	OwnerEmail string     `json:"ownerEmail"`
	Songs      []SeedSong `json:"songs"`
}

// SeedSong is a playlist entry in a [SeedData] document.
type SeedSong struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Year      *int   `json:"year"`
	YouTubeID string `json:"youTubeId"`
}

// SeedOptions configures [Runner.Seed].
type SeedOptions struct {
	Clear    bool   // Delete all existing data first
	Password string // Password for every created account (default: DefaultSeedPassword)
}

// SeedResult summarizes a [Runner.Seed] run.
type SeedResult struct {
	UsersCreated     int `json:"usersCreated"`
	UsersExisting    int `json:"usersExisting"`
	UsersSkipped     int `json:"usersSkipped"`
	SongsCreated     int `json:"songsCreated"`
	SongsSkipped     int `json:"songsSkipped"`
	PlaylistsCreated int `json:"playlistsCreated"`
	PlaylistsSkipped int `json:"playlistsSkipped"`
	Entries          int `json:"entries"`
}

// ParseSeedData decodes a PlaylisterData document.
func ParseSeedData(r io.Reader) (*SeedData, error) {
	var data SeedData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: invalid seed data: %v", shared.ErrValidation, err)
	}
	if data.Users == nil {
		return nil, fmt.Errorf("%w: invalid seed data: missing users array", shared.ErrValidation)
	}
	if data.Playlists == nil {
		return nil, fmt.Errorf("%w: invalid seed data: missing playlists array", shared.ErrValidation)
	}
	return &data, nil
}

// LoadSeedData reads a PlaylisterData document from an http(s) URL or a local file.
func (r *Runner) LoadSeedData(ctx context.Context, source string) (*SeedData, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()
		return ParseSeedData(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch seed data: status %d", resp.StatusCode)
	}

	return ParseSeedData(resp.Body)
}

var (
	bareVideoID   = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	prefixVideoID = regexp.MustCompile(`^([a-zA-Z0-9_-]{11})`)
	urlVideoID    = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)
)

// ExtractYouTubeID pulls an 11-character video id out of a bare id, an id followed by
// query parameters, or a watch/short URL. Anything else is truncated to 20 characters.
func ExtractYouTubeID(input string) string {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return ""
	case bareVideoID.MatchString(input):
		return input
	}

	if m := prefixVideoID.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if m := urlVideoID.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return truncate(input, maxMediaRefLength)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SeedFrom loads the document at source and imports it.
func (r *Runner) SeedFrom(ctx context.Context, prog chan<- ProgressUpdate, source string, opts SeedOptions) (*SeedResult, error) {
	sendProgress(prog, fetchSeedUpdate(source))

	data, err := r.LoadSeedData(ctx, source)
	if err != nil {
		return nil, err
	}

	r.logger.Info("loaded seed data", "source", source, "users", len(data.Users), "playlists", len(data.Playlists))
	return r.Seed(ctx, prog, data, opts)
}

type songKey struct {
	title, artist string
	year          int
}

// Seed imports data in a single transaction. Records that fail validation are skipped and
// counted; the first playlist owner to use a song becomes its owner.
func (r *Runner) Seed(ctx context.Context, prog chan<- ProgressUpdate, data *SeedData, opts SeedOptions) (*SeedResult, error) {
	if opts.Password == "" {
		opts.Password = DefaultSeedPassword
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	if opts.Clear {
		sendProgress(prog, clearDataUpdate())
		if err := r.store.Clear(ctx); err != nil {
			return nil, err
		}
		r.logger.Info("cleared existing data")
	}

	result := &SeedResult{}
	err = r.store.Transact(ctx, func(repos *repositories.Repositories) error {
		users, err := r.seedUsers(ctx, prog, repos, data.Users, hash, result)
		if err != nil {
			return err
		}

		songs, err := r.seedSongs(ctx, prog, repos, data.Playlists, users, result)
		if err != nil {
			return err
		}

		return r.seedPlaylists(ctx, prog, repos, data.Playlists, users, songs, result)
	})
	if err != nil {
		return nil, fmt.Errorf("seed failed: %w", err)
	}

	r.logger.Info("seed complete",
		"users", result.UsersCreated,
		"songs", result.SongsCreated,
		"playlists", result.PlaylistsCreated,
		"entries", result.Entries,
	)
	return result, nil
}

func (r *Runner) seedUsers(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	repos *repositories.Repositories,
	users []SeedUser,
	hash string,
	result *SeedResult,
) (map[string]*models.User, error) {
	byEmail := make(map[string]*models.User, len(users))

	for i, su := range users {
		email := strings.ToLower(strings.TrimSpace(su.Email))
		name := strings.TrimSpace(su.Name)
		if email == "" || name == "" {
			r.logger.Warn("skipping user with missing data", "name", su.Name, "email", su.Email)
			result.UsersSkipped++
			continue
		}

		existing, err := repos.Users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			byEmail[email] = existing
			result.UsersExisting++
			continue
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}

		user, err := createSeedUser(ctx, repos, email, name, hash)
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrConflict) {
			r.logger.Warn("skipping user", "email", email, "error", err)
			result.UsersSkipped++
			continue
		}
		if err != nil {
			return nil, err
		}

		byEmail[email] = user
		result.UsersCreated++
		sendProgress(prog, seedUpdate(SeedUsers, i+1, len(users), "+ "+user.Username))
	}

	return byEmail, nil
}

// createSeedUser creates a user, suffixing the username when another account already
// holds it.
func createSeedUser(ctx context.Context, repos *repositories.Repositories, email, name, hash string) (*models.User, error) {
	var err error
	for attempt := 1; attempt <= 10; attempt++ {
		username := name
		if attempt > 1 {
			username = fmt.Sprintf("%s %d", name, attempt)
		}

		user := &models.User{Email: email, Username: username, PasswordHash: hash}
		if err = repos.Users.Create(ctx, user); err == nil {
			return user, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return nil, err
		}
		if _, lookupErr := repos.Users.GetByEmail(ctx, email); lookupErr == nil {
			return nil, err
		}
	}
	return nil, err
}

// seedSong normalizes a source entry; ok is false when it lacks required data.
func seedSong(s SeedSong) (key songKey, ref string, ok bool) {
	title := truncate(strings.TrimSpace(s.Title), maxFieldLength)
	artist := truncate(strings.TrimSpace(s.Artist), maxFieldLength)
	if title == "" || artist == "" || s.Year == nil || s.YouTubeID == "" {
		return songKey{}, "", false
	}

	ref = ExtractYouTubeID(s.YouTubeID)
	if ref == "" {
		return songKey{}, "", false
	}
	return songKey{title: title, artist: artist, year: *s.Year}, ref, true
}

func (r *Runner) seedSongs(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	repos *repositories.Repositories,
	playlists []SeedPlaylist,
	users map[string]*models.User,
	result *SeedResult,
) (map[songKey]*models.Song, error) {
	songs := make(map[songKey]*models.Song)
	skipped := make(map[songKey]bool)

	for i, sp := range playlists {
		owner, ok := users[strings.ToLower(strings.TrimSpace(sp.OwnerEmail))]
		if !ok {
			continue
		}

		for _, entry := range sp.Songs {
			key, ref, ok := seedSong(entry)
			if !ok {
				r.logger.Warn("skipping song with missing data", "title", entry.Title, "artist", entry.Artist)
				result.SongsSkipped++
				continue
			}
			if _, seen := songs[key]; seen || skipped[key] {
				continue
			}

			song, err := repos.Songs.FindByIdentity(ctx, key.title, key.artist, key.year, owner.ID)
			if err == nil {
				songs[key] = song
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}

			song = &models.Song{Title: key.title, Artist: key.artist, Year: key.year, MediaRef: ref, OwnerID: owner.ID}
			if err := repos.Songs.Create(ctx, song); err != nil {
				if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrConflict) {
					r.logger.Warn("skipping song", "title", key.title, "error", err)
					skipped[key] = true
					result.SongsSkipped++
					continue
				}
				return nil, err
			}

			songs[key] = song
			result.SongsCreated++
		}

		sendProgress(prog, seedUpdate(SeedSongs, i+1, len(playlists), fmt.Sprintf("%s: %d songs", sp.Name, len(songs))))
	}

	return songs, nil
}

func (r *Runner) seedPlaylists(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	repos *repositories.Repositories,
	playlists []SeedPlaylist,
	users map[string]*models.User,
	songs map[songKey]*models.Song,
	result *SeedResult,
) error {
	for i, sp := range playlists {
		owner, ok := users[strings.ToLower(strings.TrimSpace(sp.OwnerEmail))]
		if !ok {
			r.logger.Warn("skipping playlist: owner not found", "playlist", sp.Name, "owner", sp.OwnerEmail)
			result.PlaylistsSkipped++
			continue
		}

		name := strings.TrimSpace(sp.Name)
		if name == "" {
			r.logger.Warn("skipping playlist with no name", "owner", owner.Email)
			result.PlaylistsSkipped++
			continue
		}

		exists, err := repos.Playlists.NameExists(ctx, owner.ID, name)
		if err != nil {
			return err
		}
		if exists {
			result.PlaylistsSkipped++
			continue
		}

		playlist := &models.Playlist{Name: name, OwnerID: owner.ID}
		if err := repos.Playlists.Create(ctx, playlist); err != nil {
			return err
		}
		result.PlaylistsCreated++

		for _, entry := range sp.Songs {
			key, _, ok := seedSong(entry)
			if !ok {
				continue
			}
			song, ok := songs[key]
			if !ok {
				continue
			}

			if _, member, err := repos.Memberships.Position(ctx, playlist.ID, song.ID); err != nil {
				return err
			} else if member {
				continue
			}

			if _, err := repos.Memberships.Append(ctx, playlist.ID, song.ID); err != nil {
				return err
			}
			result.Entries++
		}

		sendProgress(prog, seedUpdate(SeedPlaylists, i+1, len(playlists), "+ "+name))
	}
	return nil
}
