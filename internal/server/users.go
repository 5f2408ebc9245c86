package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/shared"
)

type userHandler struct{ *Server }

func (h *userHandler) Routes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.With(RequireAuth).Put("/profile", h.updateProfile)
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.engine.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user.Public()}, "")
}

func (h *userHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		engine.ProfileUpdate
		Email *string `json:"email"`
	}
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}

	if in.Email != nil {
		h.fail(w, r, fmt.Errorf("%w: email cannot be changed", shared.ErrValidation))
		return
	}

	upd := in.ProfileUpdate
	if upd.Password != nil && *upd.Password == "" {
		upd.Password = nil
	}
	if upd.Username == nil && upd.AvatarImage == nil && upd.Password == nil {
		h.fail(w, r, fmt.Errorf("%w: no fields to update", shared.ErrValidation))
		return
	}

	user, err := h.engine.UpdateProfile(r.Context(), UserID(r.Context()), upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user}, "Profile updated successfully")
}
