package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

// Registration is the input of [Engine.Register].
type Registration struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	AvatarImage string `json:"avatarImage"`
}

// ProfileUpdate carries optional profile changes; nil fields are left alone.
type ProfileUpdate struct {
	Username    *string `json:"username"`
	AvatarImage *string `json:"avatarImage"`
	Password    *string `json:"password"`
}

// Register creates an account. A taken email or username yields shared.ErrConflict.
func (e *Engine) Register(ctx context.Context, in Registration) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		AvatarImage:  in.AvatarImage,
	}

	err = e.store.Transact(ctx, func(r *repositories.Repositories) error {
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("user registered", "user", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks an email and password. Unknown emails and wrong passwords both yield
// shared.ErrUnauthorized.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := e.store.Repositories().Users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", shared.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns an account by id.
func (e *Engine) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return e.store.Repositories().Users.Get(ctx, userID)
}

// UpdateProfile applies the non-nil fields of upd to userID's account.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	var hash string
	if upd.Password != nil {
		var err error
		if hash, err = auth.HashPassword(*upd.Password); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err := e.store.Transact(ctx, func(r *repositories.Repositories) error {
		var err error
		if user, err = r.Users.Get(ctx, userID); err != nil {
			return err
		}

		if upd.Username != nil {
			user.Username = *upd.Username
		}
		if upd.AvatarImage != nil {
			user.AvatarImage = *upd.AvatarImage
		}
		if hash != "" {
			user.PasswordHash = hash
		}
		return r.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
