package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
	tu "github.com/desertthunder/playlister/internal/testing"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *repositories.Store
	issuer  *auth.Issuer
	events  *events.Recorder
}

type response struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	store := tu.NewTestStore(t)
	rec := &events.Recorder{}
	eng := engine.New(store, engine.Options{Publisher: rec})
	issuer := auth.NewIssuer("test-secret", time.Hour)
	srv := New(eng, issuer, Options{})

	return &testAPI{t: t, handler: srv.Router(), store: store, issuer: issuer, events: rec}
}

func (a *testAPI) token(userID string) string {
	a.t.Helper()
	token, err := a.issuer.Issue(userID)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp
}

func data[T any](t *testing.T, rec *httptest.ResponseRecorder, key string) T {
	t.Helper()
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(parse(t, rec).Data, &payload))

	var v T
	require.NoError(t, json.Unmarshal(payload[key], &v), "key %q", key)
	return v
}

func songIDs(detail models.PlaylistDetail) []string {
	return detail.SongIDs()
}

func TestHealth(t *testing.T) {
	api := setupAPI(t)
	rec := api.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAuthRoutes(t *testing.T) {
	api := setupAPI(t)
	registration := map[string]string{"email": "ada@example.com", "username": "ada", "password": "password123"}

	t.Run("register sets a session", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/register", registration, "")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, tokenCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		user := data[models.User](t, rec, "user")
		assert.Equal(t, "ada", user.Username)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("register conflicts", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/register", registration, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("register validation", func(t *testing.T) {
		tc := map[string]any{
			"invalid json":   "not-json",
			"empty body":     nil,
			"short password": map[string]string{"email": "b@example.com", "username": "b", "password": "short"},
			"bad email":      map[string]string{"email": "nope", "username": "c", "password": "password123"},
		}
		for name, body := range tc {
			t.Run(name, func(t *testing.T) {
				rec := api.do(http.MethodPost, "/api/auth/register", body, "")
				assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			})
		}
	})

	t.Run("login", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ADA@example.com", "password": "password123"}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		token := data[string](t, rec, "token")
		require.NotEmpty(t, token)

		rec = api.do(http.MethodGet, "/api/auth/me", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ada@example.com", data[models.User](t, rec, "user").Email)
	})

	t.Run("login with the cookie", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "password123"}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(rec.Result().Cookies()[0])
		me := httptest.NewRecorder()
		api.handler.ServeHTTP(me, req)
		assert.Equal(t, http.StatusOK, me.Code)
	})

	t.Run("login failures", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong-password"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "password123"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me requires a valid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/auth/me", nil, "").Code)
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/auth/me", nil, "garbage").Code)

		expired := auth.NewIssuer("test-secret", -time.Minute)
		token, err := expired.Issue("anyone")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/auth/me", nil, token).Code)

		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/auth/me", nil, api.token("deleted-user")).Code)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		user := tu.MustCreateUser(t, api.store, "logout")
		rec := api.do(http.MethodPost, "/api/auth/logout", nil, api.token(user.ID))
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "", cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestUserRoutes(t *testing.T) {
	api := setupAPI(t)
	user := tu.MustCreateUser(t, api.store, "ada")
	token := api.token(user.ID)

	t.Run("public profile hides the email", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/users/"+user.ID, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"ada"`)
		assert.NotContains(t, rec.Body.String(), user.Email)

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/users/missing", nil, "").Code)
	})

	t.Run("update profile", func(t *testing.T) {
		rec := api.do(http.MethodPut, "/api/users/profile", map[string]string{"username": "ada2", "password": ""}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "ada2", data[models.User](t, rec, "user").Username)
	})

	t.Run("update profile rejects", func(t *testing.T) {
		tc := []struct {
			name   string
			body   any
			token  string
			status int
		}{
			{name: "guest", body: map[string]string{"username": "x"}, status: http.StatusUnauthorized},
			{name: "email change", body: map[string]string{"email": "new@example.com"}, token: token, status: http.StatusBadRequest},
			{name: "nothing to update", body: map[string]string{}, token: token, status: http.StatusBadRequest},
			{name: "blank username", body: map[string]string{"username": " "}, token: token, status: http.StatusBadRequest},
			{name: "short password", body: map[string]string{"password": "short"}, token: token, status: http.StatusBadRequest},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				rec := api.do(http.MethodPut, "/api/users/profile", tt.body, tt.token)
				assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			})
		}
	})
}

func TestSongRoutes(t *testing.T) {
	api := setupAPI(t)
	ada := tu.MustCreateUser(t, api.store, "ada")
	bob := tu.MustCreateUser(t, api.store, "bob")
	adaToken, bobToken := api.token(ada.ID), api.token(bob.ID)

	input := engine.SongInput{Title: "Halo", Artist: "Band", Year: 2008, MediaRef: "abc"}

	rec := api.do(http.MethodPost, "/api/songs", input, adaToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	song := data[models.Song](t, rec, "song")
	assert.Equal(t, ada.ID, song.OwnerID)

	t.Run("create requires auth and valid input", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/songs", input, "").Code)
		assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/songs", input, adaToken).Code)

		bad := input
		bad.Year = 1800
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/songs", bad, adaToken).Code)
	})

	t.Run("list and get", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/songs?title=hal&sortBy=title&sortOrder=asc", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		songs := data[[]models.Song](t, rec, "songs")
		require.Len(t, songs, 1)
		assert.Equal(t, song.ID, songs[0].ID)

		rec = api.do(http.MethodGet, "/api/songs?artist=nobody", nil, "")
		assert.Equal(t, "[]", string(data[json.RawMessage](t, rec, "songs")))

		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/songs?year=abc", nil, "").Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/songs?sortBy=bogus", nil, "").Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/songs?sortOrder=sideways", nil, "").Code)

		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/songs/"+song.ID, nil, "").Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/songs/missing", nil, "").Code)
	})

	t.Run("update and delete check ownership", func(t *testing.T) {
		edit := input
		edit.Title = "Halo (Live)"

		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, "/api/songs/"+song.ID, edit, bobToken).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/songs/"+song.ID, nil, bobToken).Code)

		rec := api.do(http.MethodPut, "/api/songs/"+song.ID, edit, adaToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Halo (Live)", data[models.Song](t, rec, "song").Title)
	})

	t.Run("copy", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/songs/"+song.ID+"/copy", nil, bobToken)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		copied := data[models.Song](t, rec, "song")
		assert.Equal(t, bob.ID, copied.OwnerID)
		assert.NotEqual(t, song.ID, copied.ID)

		assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/songs/"+song.ID+"/copy", nil, bobToken).Code)
	})

	t.Run("listen", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/songs/"+song.ID+"/listen", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, data[int](t, rec, "listenCount"))
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/api/songs/"+song.ID, nil, adaToken).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/songs/"+song.ID, nil, "").Code)
	})
}

func TestPlaylistRoutes(t *testing.T) {
	api := setupAPI(t)
	ada := tu.MustCreateUser(t, api.store, "ada")
	bob := tu.MustCreateUser(t, api.store, "bob")
	adaToken, bobToken := api.token(ada.ID), api.token(bob.ID)
	songs := tu.Songs(t, api.store, "S", ada.ID, 3)

	rec := api.do(http.MethodPost, "/api/playlists", map[string]string{"name": "Road Trip"}, adaToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	playlist := data[models.PlaylistDetail](t, rec, "playlist")
	base := "/api/playlists/" + playlist.ID

	t.Run("create", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/playlists", map[string]string{"name": "Road Trip"}, adaToken).Code)
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/playlists", map[string]string{"name": "x"}, "").Code)

		rec := api.do(http.MethodPost, "/api/playlists", nil, adaToken)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Untitled 0", data[models.PlaylistDetail](t, rec, "playlist").Name)
	})

	t.Run("add songs", func(t *testing.T) {
		for _, s := range songs {
			rec := api.do(http.MethodPost, base+"/songs", map[string]string{"songId": s.ID}, adaToken)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		}

		tc := []struct {
			name   string
			body   any
			token  string
			status int
		}{
			{name: "duplicate", body: map[string]string{"songId": songs[0].ID}, token: adaToken, status: http.StatusConflict},
			{name: "missing song", body: map[string]string{"songId": "missing"}, token: adaToken, status: http.StatusNotFound},
			{name: "no song id", body: map[string]string{}, token: adaToken, status: http.StatusBadRequest},
			{name: "not owner", body: map[string]string{"songId": songs[0].ID}, token: bobToken, status: http.StatusForbidden},
			{name: "guest", body: map[string]string{"songId": songs[0].ID}, status: http.StatusUnauthorized},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.status, api.do(http.MethodPost, base+"/songs", tt.body, tt.token).Code)
			})
		}

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/playlists/missing/songs", map[string]string{"songId": songs[0].ID}, adaToken).Code)
	})

	t.Run("reorder", func(t *testing.T) {
		order := tu.IDs(songs[2], songs[0], songs[1])
		rec := api.do(http.MethodPut, base+"/songs/reorder", map[string]any{"songIds": order}, adaToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, order, songIDs(data[models.PlaylistDetail](t, rec, "playlist")))

		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, base+"/songs/reorder", map[string]any{"songIds": order[:2]}, adaToken).Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, base+"/songs/reorder", map[string]any{}, adaToken).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, base+"/songs/reorder", map[string]any{"songIds": order}, bobToken).Code)
	})

	t.Run("remove", func(t *testing.T) {
		rec := api.do(http.MethodDelete, base+"/songs/"+songs[0].ID, nil, adaToken)
		require.Equal(t, http.StatusOK, rec.Code)

		detail := data[models.PlaylistDetail](t, rec, "playlist")
		assert.Equal(t, tu.IDs(songs[2], songs[1]), songIDs(detail))
		for i, entry := range detail.Songs {
			assert.Equal(t, i, entry.Position)
		}

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, base+"/songs/"+songs[0].ID, nil, adaToken).Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := api.do(http.MethodGet, base, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		detail := data[models.PlaylistDetail](t, rec, "playlist")
		assert.Equal(t, "ada", detail.OwnerUsername)
		assert.Len(t, detail.Songs, 2)

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/playlists/missing", nil, "").Code)
	})

	t.Run("listen", func(t *testing.T) {
		rec := api.do(http.MethodPost, base+"/listen", map[string]string{"sessionId": "guest_abc"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, data[bool](t, rec, "isNewListener"))
		assert.Equal(t, "guest_abc", data[string](t, rec, "listenerIdentifier"))

		rec = api.do(http.MethodPost, base+"/listen", map[string]string{"sessionId": "guest_abc"}, "")
		assert.False(t, data[bool](t, rec, "isNewListener"))

		rec = api.do(http.MethodPost, base+"/listen", nil, bobToken)
		assert.Equal(t, "user_"+bob.ID, data[string](t, rec, "listenerIdentifier"))

		rec = api.do(http.MethodGet, base, nil, "")
		assert.Equal(t, 2, data[models.PlaylistDetail](t, rec, "playlist").ListenerCount)

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/playlists/missing/listen", nil, "").Code)
	})

	t.Run("export", func(t *testing.T) {
		rec := api.do(http.MethodGet, base+"/export?format=csv", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), playlist.ID+".csv")
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, 3)

		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, base+"/export?format=xml", nil, "").Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/playlists/missing/export", nil, "").Code)
	})

	t.Run("copy", func(t *testing.T) {
		rec := api.do(http.MethodPost, base+"/copy", nil, bobToken)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		copied := data[models.PlaylistDetail](t, rec, "playlist")
		assert.Equal(t, "Road Trip (Copy)", copied.Name)
		assert.Equal(t, bob.ID, copied.OwnerID)
		assert.Equal(t, tu.IDs(songs[2], songs[1]), songIDs(copied))
		assert.Equal(t, 0, copied.ListenerCount)
	})

	t.Run("list", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/playlists", nil, bobToken)
		require.Equal(t, http.StatusOK, rec.Code)
		own := data[[]models.Playlist](t, rec, "playlists")
		require.Len(t, own, 1)
		assert.Equal(t, bob.ID, own[0].OwnerID)

		rec = api.do(http.MethodGet, "/api/playlists?username=ada&sortBy=name&sortOrder=asc", nil, bobToken)
		names := []string{}
		for _, p := range data[[]models.Playlist](t, rec, "playlists") {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"Road Trip", "Untitled 0"}, names)

		rec = api.do(http.MethodGet, fmt.Sprintf("/api/playlists?songTitle=%s", songs[1].Title), nil, "")
		assert.Len(t, data[[]models.Playlist](t, rec, "playlists"), 2)

		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/playlists?songYear=soon", nil, "").Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/playlists?sortBy=color", nil, "").Code)
	})

	t.Run("rename and delete", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, base, map[string]string{"name": "Mine"}, bobToken).Code)
		assert.Equal(t, http.StatusConflict, api.do(http.MethodPut, base, map[string]string{"name": "Untitled 0"}, adaToken).Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, base, map[string]string{"name": ""}, adaToken).Code)

		rec := api.do(http.MethodPut, base, map[string]string{"name": "Highway"}, adaToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Highway", data[models.PlaylistDetail](t, rec, "playlist").Name)

		assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, base, nil, bobToken).Code)
		assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, base, nil, adaToken).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, base, nil, "").Code)
	})
}

func TestStatusFor(t *testing.T) {
	tc := []struct {
		err  error
		want int
	}{
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{shared.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: playlist", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrConflict, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tc {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	srv := New(nil, nil, Options{})
	rec := httptest.NewRecorder()
	srv.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn leaked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Equal(t, "internal server error", parse(t, rec).Error)
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("RateLimit", func(t *testing.T) {
		h := RateLimit(1, 2)(ok)
		codes := []int{}
		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{200, 200, 429}, codes)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own bucket")
	})

	t.Run("RateLimit disabled", func(t *testing.T) {
		h := RateLimit(0, 0)(ok)
		for range 10 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("CORS preflight", func(t *testing.T) {
		h := CORS("http://localhost:3000")(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/songs", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("tokenFromRequest", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, "", tokenFromRequest(req))

		req.Header.Set("Authorization", "Bearer abc")
		assert.Equal(t, "abc", tokenFromRequest(req))

		req.AddCookie(&http.Cookie{Name: tokenCookie, Value: "from-cookie"})
		assert.Equal(t, "from-cookie", tokenFromRequest(req))
	})
}
