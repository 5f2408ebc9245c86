package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

var _ models.Repository[*models.User] = (*UserRepository)(nil)

const userColumns = "id, sequence, email, username, password_hash, avatar_image, created_at, updated_at"

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new [UserRepository] with the given database handle
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence.
// A taken email or username yields shared.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	user.ID = shared.GenerateID()
	user.Sequence = sequence
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, sequence, email, username, password_hash, avatar_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Sequence, user.Email, user.Username, user.PasswordHash, user.AvatarImage, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return translate(err, "failed to insert user %s", user.Email)
	}

	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	return user, err
}

// GetByEmail retrieves a user by email address, compared case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = LOWER(?)"

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", email)
	}
	return user, err
}

// Update writes the mutable profile fields of user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = ?, username = ?, password_hash = ?, avatar_image = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.AvatarImage, user.UpdatedAt, user.ID)
	if err != nil {
		return translate(err, "failed to update user %s", user.ID)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("user", user.ID)
	}
	return nil
}

// Delete removes a user. Owned playlists cascade; owned songs lose their owner.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return translate(err, "failed to delete user %s", id)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("user", id)
	}
	return nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// scanUser scans a single row into a [models.User]. sql.ErrNoRows passes through unwrapped.
func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User

	err := row.Scan(&u.ID, &u.Sequence, &u.Email, &u.Username, &u.PasswordHash, &u.AvatarImage, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &u, nil
}
