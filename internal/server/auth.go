package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/models"
)

const tokenCookie = "token"

type authHandler struct{ *Server }

func (h *authHandler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
	})
}

// session issues a token for user, sets the cookie and returns the response payload.
func (h *authHandler) session(w http.ResponseWriter, user *models.User) (map[string]any, error) {
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.issuer.TTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return map[string]any{"token": token, "user": user}, nil
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var in engine.Registration
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.engine.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := h.session(w, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, data, "Account created successfully")
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.engine.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := h.session(w, user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data, "Login successful")
}

func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, nil, "Logout successful")
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.engine.GetUser(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user}, "")
}
