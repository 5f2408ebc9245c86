package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/formatter"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

type playlistHandler struct{ *Server }

func (h *playlistHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/export", h.export)
	r.Post("/{id}/listen", h.listen)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Post("/", h.create)
		r.Put("/{id}", h.rename)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/copy", h.copy)
		r.Post("/{id}/songs", h.addSong)
		r.Put("/{id}/songs/reorder", h.reorder)
		r.Delete("/{id}/songs/{songId}", h.removeSong)
	})
}

func playlistFilter(r *http.Request) (models.PlaylistFilter, error) {
	q := r.URL.Query()

	year, err := queryInt(r, "songYear")
	if err != nil {
		return models.PlaylistFilter{}, err
	}
	sort, err := models.ParsePlaylistSort(q.Get("sortBy"))
	if err != nil {
		return models.PlaylistFilter{}, err
	}
	asc, err := models.ParseSortOrder(q.Get("sortOrder"))
	if err != nil {
		return models.PlaylistFilter{}, err
	}

	return models.PlaylistFilter{
		Name:       q.Get("name"),
		Username:   q.Get("username"),
		SongTitle:  q.Get("songTitle"),
		SongArtist: q.Get("songArtist"),
		SongYear:   year,
		Sort:       sort,
		Ascending:  asc,
	}, nil
}

func (h *playlistHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := playlistFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	playlists, err := h.engine.ListPlaylists(r.Context(), UserID(r.Context()), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists}, "")
}

func (h *playlistHandler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.engine.GetPlaylist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": detail}, "")
}

func (h *playlistHandler) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &in, true); err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.engine.CreatePlaylist(r.Context(), UserID(r.Context()), in.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"playlist": detail}, "Playlist created successfully")
}

func (h *playlistHandler) rename(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.engine.RenamePlaylist(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), in.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": detail}, "Playlist updated successfully")
}

func (h *playlistHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeletePlaylist(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "Playlist deleted successfully")
}

func (h *playlistHandler) copy(w http.ResponseWriter, r *http.Request) {
	detail, err := h.engine.CopyPlaylist(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"playlist": detail}, "Playlist copied successfully")
}

func (h *playlistHandler) listen(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SessionID string `json:"sessionId"`
	}
	if err := decodeJSON(w, r, &in, true); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.SessionID == "" {
		in.SessionID = r.Header.Get("X-Session-Id")
	}

	identifier := engine.ListenerIdentity(UserID(r.Context()), in.SessionID)
	isNew, err := h.engine.RecordListener(r.Context(), chi.URLParam(r, "id"), identifier)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	message := "Listener already recorded"
	if isNew {
		message = "Listener recorded"
	}
	writeJSON(w, http.StatusOK, map[string]any{"isNewListener": isNew, "listenerIdentifier": identifier}, message)
}

func (h *playlistHandler) addSong(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SongID string `json:"songId"`
	}
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.SongID == "" {
		h.fail(w, r, fmt.Errorf("%w: songId is required", shared.ErrValidation))
		return
	}

	detail, err := h.engine.AddSong(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), in.SongID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"playlist": detail}, "Song added to playlist")
}

func (h *playlistHandler) removeSong(w http.ResponseWriter, r *http.Request) {
	detail, err := h.engine.RemoveSong(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "songId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": detail}, "Song removed from playlist")
}

func (h *playlistHandler) reorder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SongIDs []string `json:"songIds"`
	}
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.SongIDs == nil {
		h.fail(w, r, fmt.Errorf("%w: songIds array is required", shared.ErrValidation))
		return
	}

	detail, err := h.engine.ReorderSongs(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), in.SongIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": detail}, "Songs reordered successfully")
}

func (h *playlistHandler) export(w http.ResponseWriter, r *http.Request) {
	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.engine.GetPlaylist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := formatter.Render(detail, format)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", detail.ID+"."+format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
