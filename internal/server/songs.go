package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/models"
)

type songHandler struct{ *Server }

func (h *songHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/listen", h.listen)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/copy", h.copy)
	})
}

func songFilter(r *http.Request) (models.SongFilter, error) {
	q := r.URL.Query()

	year, err := queryInt(r, "year")
	if err != nil {
		return models.SongFilter{}, err
	}
	sort, err := models.ParseSongSort(q.Get("sortBy"))
	if err != nil {
		return models.SongFilter{}, err
	}
	asc, err := models.ParseSortOrder(q.Get("sortOrder"))
	if err != nil {
		return models.SongFilter{}, err
	}

	return models.SongFilter{
		Title:     q.Get("title"),
		Artist:    q.Get("artist"),
		Year:      year,
		Sort:      sort,
		Ascending: asc,
	}, nil
}

func (h *songHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := songFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	songs, err := h.engine.ListSongs(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if songs == nil {
		songs = []*models.Song{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs}, "")
}

func (h *songHandler) get(w http.ResponseWriter, r *http.Request) {
	song, err := h.engine.GetSong(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"song": song}, "")
}

func (h *songHandler) create(w http.ResponseWriter, r *http.Request) {
	var in engine.SongInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}

	song, err := h.engine.CreateSong(r.Context(), UserID(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"song": song}, "Song created successfully")
}

func (h *songHandler) update(w http.ResponseWriter, r *http.Request) {
	var in engine.SongInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}

	song, err := h.engine.UpdateSong(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"song": song}, "Song updated successfully")
}

func (h *songHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSong(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "Song deleted successfully")
}

func (h *songHandler) copy(w http.ResponseWriter, r *http.Request) {
	song, err := h.engine.CopySong(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"song": song}, "Song copied successfully")
}

func (h *songHandler) listen(w http.ResponseWriter, r *http.Request) {
	count, err := h.engine.RecordSongPlay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"listenCount": count}, "")
}
