package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, first_name, last_name, email, password_hash, oidc_subject, date_joined`

// UserRepository handles database operations for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a user and sets its ID.
func (r *UserRepository) CreateUser(ctx context.Context, user *User) error {
	user.DateJoined = dbTime(time.Now())
	query := `INSERT INTO users (username, first_name, last_name, email, password_hash, oidc_subject, date_joined)
VALUES (:username, :first_name, :last_name, :email, :password_hash, :oidc_subject, :date_joined)`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByUsername finds a user by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE username = ?", username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// GetUserByOIDCSubject finds the account linked to an external identity.
func (r *UserRepository) GetUserByOIDCSubject(ctx context.Context, subject string) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE oidc_subject = ?", subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with subject %q: %w", subject, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by subject: %w", err)
	}
	return &user, nil
}

// GetUserByID finds a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// UpdateProfile saves the profile fields of a user. Username and password
// are not changed.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *User) error {
	query := `UPDATE users SET first_name = :first_name, last_name = :last_name, email = :email WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectRow(result, "user", user.ID)
}
