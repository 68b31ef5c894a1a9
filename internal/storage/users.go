package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/google/uuid"
)

// prepareUser assigns an ID and creation time when the caller left them unset.
func prepareUser(user *model.User) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
}

// CreateUser inserts a new user. Username and email must be unique.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	prepareUser(user)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.Email, user.PasswordHash, formatTime(user.CreatedAt))
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("%w: user %q", common.ErrDuplicateEntry, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID loads a user by primary key.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "id", id)
}

// GetUserByUsername loads a user by username.
func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "username", username)
}

// GetUserByEmail loads a user by email address.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "email", email)
}

// getUser looks a user up by one of its unique columns. column is never user input.
func (s *SQLiteStorage) getUser(ctx context.Context, column, value string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		user      model.User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE `+column+` = ?
	`, value).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s=%q", common.ErrNotFound, column, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &user, nil
}
