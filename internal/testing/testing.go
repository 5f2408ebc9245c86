// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

// NewTestDB opens an in-memory database with every migration applied. It is closed when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// NewTestStore is [NewTestDB] wrapped in a [repositories.Store].
func NewTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	return repositories.NewStore(NewTestDB(t))
}

// MustCreateUser inserts a user named name with a placeholder password hash.
func MustCreateUser(t *testing.T, store *repositories.Store, name string) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Username: name, PasswordHash: "not-a-real-hash"}
	if err := store.Repositories().Users.Create(context.Background(), u); err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return u
}

// MustCreateSong inserts a song titled title owned by ownerID.
func MustCreateSong(t *testing.T, store *repositories.Store, title, ownerID string) *models.Song {
	t.Helper()
	s := &models.Song{Title: title, Artist: "Test Artist", Year: 2000, MediaRef: "ref-" + title, OwnerID: ownerID}
	if err := store.Repositories().Songs.Create(context.Background(), s); err != nil {
		t.Fatalf("Failed to create song %s: %v", title, err)
	}
	return s
}

// MustCreatePlaylist inserts a playlist and appends songs to it in order.
func MustCreatePlaylist(t *testing.T, store *repositories.Store, name, ownerID string, songs ...*models.Song) *models.Playlist {
	t.Helper()
	ctx := context.Background()
	repos := store.Repositories()

	p := &models.Playlist{Name: name, OwnerID: ownerID}
	if err := repos.Playlists.Create(ctx, p); err != nil {
		t.Fatalf("Failed to create playlist %s: %v", name, err)
	}
	for _, s := range songs {
		if _, err := repos.Memberships.Append(ctx, p.ID, s.ID); err != nil {
			t.Fatalf("Failed to add song %s: %v", s.Title, err)
		}
	}
	return p
}

// AssertGapless fails the test unless the playlist's positions are exactly 0..n-1 and, when
// want is given, hold those song ids in order.
func AssertGapless(t *testing.T, store *repositories.Store, playlistID string, want ...string) {
	t.Helper()

	members, err := store.Repositories().Memberships.List(context.Background(), playlistID)
	if err != nil {
		t.Fatalf("Failed to list memberships: %v", err)
	}

	for i, m := range members {
		if m.Position != i {
			t.Errorf("Position gap: index %d holds position %d", i, m.Position)
		}
	}

	if want == nil {
		return
	}
	if len(members) != len(want) {
		t.Fatalf("Expected %d songs, got %d", len(want), len(members))
	}
	for i, m := range members {
		if m.SongID != want[i] {
			t.Errorf("Position %d: expected song %s, got %s", i, want[i], m.SongID)
		}
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Songs creates n songs named "<prefix>0".."<prefix>n-1" owned by ownerID.
func Songs(t *testing.T, store *repositories.Store, prefix, ownerID string, n int) []*models.Song {
	t.Helper()
	songs := make([]*models.Song, n)
	for i := range n {
		songs[i] = MustCreateSong(t, store, fmt.Sprintf("%s%d", prefix, i), ownerID)
	}
	return songs
}

// IDs returns the ids of songs in order.
func IDs(songs ...*models.Song) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}
	return ids
}
